package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/portfolio-backend/admin"
	"github.com/rpupo63/portfolio-backend/errs"
	"github.com/rpupo63/portfolio-backend/portfolio"
	"github.com/rpupo63/portfolio-backend/services"
)

// maxUploadBody bounds the multipart body. Files between MaxImageSize and this
// limit reach the controller, which rejects them with a field error.
const maxUploadBody = 2 * services.MaxImageSize

// Controllers hands out the workflow controller of an admin session.
type Controllers interface {
	For(sessionID string) *admin.Controller
}

type adminHandler struct {
	responder   Responder
	logger      zerolog.Logger
	controllers Controllers
}

func newAdminHandler(controllers Controllers) adminHandler {
	logger := log.With().Str("handlerName", "adminHandler").Logger()
	return adminHandler{
		responder:   NewResponder(logger),
		logger:      logger,
		controllers: controllers,
	}
}

func (h adminHandler) controller(r *http.Request) (*admin.Controller, error) {
	session, err := ctxGetSession(r.Context())
	if err != nil {
		return nil, errs.NewMissingTokenError()
	}
	return h.controllers.For(session.ID), nil
}

func (h adminHandler) respond(w http.ResponseWriter, c *admin.Controller, result any) {
	h.responder.WriteJSON(w, AdminResponse{
		State:         c.State(),
		Notifications: c.Notifications(),
		Result:        result,
	})
}

// action adapts a controller call into a handler that replies with the new state.
func (h adminHandler) action(fn func(r *http.Request, c *admin.Controller) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := h.controller(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		result, err := fn(r, c)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.respond(w, c, result)
	}
}

func projectIDParam(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "projectID"))
	if err != nil {
		return uuid.Nil, errs.NewBadRequestError("invalid projectID")
	}
	return id, nil
}

// getState loads the admin list on first use and returns the workflow state.
// @Router /admin/state [get]
func (h adminHandler) getState() http.HandlerFunc {
	return h.action(func(r *http.Request, c *admin.Controller) (any, error) {
		_, err := c.Load(r.Context(), false)
		return nil, err
	})
}

// @Router /admin/projects/refresh [post]
func (h adminHandler) refresh() http.HandlerFunc {
	return h.action(func(r *http.Request, c *admin.Controller) (any, error) {
		_, err := c.Load(r.Context(), true)
		return nil, err
	})
}

// openEditor opens the form: empty without a project_id, pre-filled with one.
// @Router /admin/editor [post]
func (h adminHandler) openEditor() http.HandlerFunc {
	return h.action(func(r *http.Request, c *admin.Controller) (any, error) {
		var req EditorRequest
		if err := decodeJSON(r, &req); err != nil {
			return nil, err
		}
		if _, err := c.Load(r.Context(), false); err != nil {
			return nil, err
		}
		if req.ProjectID == nil {
			return nil, c.BeginCreate()
		}
		return nil, c.BeginEdit(uuid.MustParse(*req.ProjectID))
	})
}

// @Router /admin/editor [patch]
func (h adminHandler) updateEditor() http.HandlerFunc {
	return h.action(func(r *http.Request, c *admin.Controller) (any, error) {
		var patch portfolio.DraftPatch
		if err := decodeJSON(r, &patch); err != nil {
			return nil, err
		}
		return nil, c.UpdateDraft(patch)
	})
}

// @Router /admin/editor [delete]
func (h adminHandler) closeEditor() http.HandlerFunc {
	return h.action(func(r *http.Request, c *admin.Controller) (any, error) {
		return nil, c.CancelEdit()
	})
}

// @Router /admin/editor/tags [post]
func (h adminHandler) addTag() http.HandlerFunc {
	return h.action(func(r *http.Request, c *admin.Controller) (any, error) {
		var req TagRequest
		if err := decodeJSON(r, &req); err != nil {
			return nil, err
		}
		added, err := c.AddTag(req.Tag)
		return map[string]bool{"added": added}, err
	})
}

// @Router /admin/editor/tags/{tag} [delete]
func (h adminHandler) removeTag() http.HandlerFunc {
	return h.action(func(r *http.Request, c *admin.Controller) (any, error) {
		removed, err := c.RemoveTag(chi.URLParam(r, "tag"))
		return map[string]bool{"removed": removed}, err
	})
}

// uploadImage accepts a multipart form with one "file" part and attaches it
// to the open form. A missing or generic content type is sniffed from the bytes.
// @Router /admin/editor/image [post]
func (h adminHandler) uploadImage() http.HandlerFunc {
	return h.action(func(r *http.Request, c *admin.Controller) (any, error) {
		file, err := h.readImage(r)
		if err != nil {
			return nil, err
		}
		return c.AttachImage(r.Context(), file)
	})
}

func (h adminHandler) readImage(r *http.Request) (services.ImageFile, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxUploadBody)
	if err := r.ParseMultipartForm(services.MaxImageSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return services.ImageFile{}, errs.NewMaxBodySizeExceededError(services.MaxImageSize)
		}
		return services.ImageFile{}, errs.NewMalformedPayloadError("multipart", err)
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		return services.ImageFile{}, errs.NewMissingRequiredFieldError("file")
	}

	contentType := header.Header.Get("Content-Type")
	var body io.Reader = f
	if contentType == "" || contentType == "application/octet-stream" {
		sniffed, _, sniffedBody, err := services.SniffContentType(f)
		if err != nil {
			return services.ImageFile{}, errs.NewMalformedPayloadError("multipart", err)
		}
		contentType = sniffed
		body = sniffedBody
		h.logger.Debug().Str("contentType", contentType).Msg("sniffed upload content type")
	}

	return services.ImageFile{
		Name:        header.Filename,
		ContentType: contentType,
		Size:        header.Size,
		Body:        body,
	}, nil
}

// @Router /admin/editor/image [delete]
func (h adminHandler) removeImage() http.HandlerFunc {
	return h.action(func(r *http.Request, c *admin.Controller) (any, error) {
		return nil, c.RemoveImage()
	})
}

// submit creates or updates the project from the open form.
// @Router /admin/editor/submit [post]
func (h adminHandler) submit() http.HandlerFunc {
	return h.action(func(r *http.Request, c *admin.Controller) (any, error) {
		return c.Submit(r.Context())
	})
}

// requestDelete marks a project for deletion; nothing is deleted until confirmed.
// @Router /admin/projects/{projectID}/delete [post]
func (h adminHandler) requestDelete() http.HandlerFunc {
	return h.action(func(r *http.Request, c *admin.Controller) (any, error) {
		id, err := projectIDParam(r)
		if err != nil {
			return nil, err
		}
		if _, err := c.Load(r.Context(), false); err != nil {
			return nil, err
		}
		return nil, c.RequestDelete(id)
	})
}

// @Router /admin/delete/confirm [post]
func (h adminHandler) confirmDelete() http.HandlerFunc {
	return h.action(func(r *http.Request, c *admin.Controller) (any, error) {
		return nil, c.ConfirmDelete(r.Context())
	})
}

// @Router /admin/delete/cancel [post]
func (h adminHandler) cancelDelete() http.HandlerFunc {
	return h.action(func(r *http.Request, c *admin.Controller) (any, error) {
		c.CancelDelete()
		return nil, nil
	})
}

// reorder persists a full permutation of the current project ids.
// @Router /admin/reorder [post]
func (h adminHandler) reorder() http.HandlerFunc {
	return h.action(func(r *http.Request, c *admin.Controller) (any, error) {
		var req ReorderRequest
		if err := decodeJSON(r, &req); err != nil {
			return nil, err
		}
		ids := make([]uuid.UUID, len(req.IDs))
		for i, raw := range req.IDs {
			ids[i] = uuid.MustParse(raw)
		}
		if _, err := c.Load(r.Context(), false); err != nil {
			return nil, err
		}
		return nil, c.Reorder(r.Context(), ids)
	})
}

// move applies one drag: the project at index from is dropped at index to.
// @Router /admin/reorder/move [post]
func (h adminHandler) move() http.HandlerFunc {
	return h.action(func(r *http.Request, c *admin.Controller) (any, error) {
		var req MoveRequest
		if err := decodeJSON(r, &req); err != nil {
			return nil, err
		}
		if _, err := c.Load(r.Context(), false); err != nil {
			return nil, err
		}
		moved, err := c.Move(r.Context(), *req.From, *req.To)
		return map[string]bool{"moved": moved}, err
	})
}
