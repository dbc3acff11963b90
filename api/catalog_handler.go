package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/portfolio-backend/catalog"
	"github.com/rpupo63/portfolio-backend/errs"
	"github.com/rpupo63/portfolio-backend/models"
)

// PublishedProjects is the read-only listing the public catalog is served from.
type PublishedProjects interface {
	Refresh(ctx context.Context) ([]models.Project, error)
	Projects() []models.Project
	Loaded() bool
}

type catalogHandler struct {
	responder Responder
	logger    zerolog.Logger
	projects  PublishedProjects
}

func newCatalogHandler(projects PublishedProjects) catalogHandler {
	logger := log.With().Str("handlerName", "catalogHandler").Logger()
	return catalogHandler{
		responder: NewResponder(logger),
		logger:    logger,
		projects:  projects,
	}
}

// load re-lists the published projects. When the backend fails after a
// successful load, the last known list is served instead.
func (h catalogHandler) load(ctx context.Context) ([]models.Project, error) {
	projects, err := h.projects.Refresh(ctx)
	if err == nil {
		return projects, nil
	}
	if h.projects.Loaded() {
		h.logger.Warn().Err(err).Msg("serving last known project list")
		return h.projects.Projects(), nil
	}
	return nil, err
}

func queryFromRequest(r *http.Request) catalog.Query {
	q := catalog.Query{Search: strings.TrimSpace(r.URL.Query().Get("search")), Tags: []string{}}
	seen := map[string]bool{}
	for _, raw := range r.URL.Query()["tag"] {
		for _, tag := range strings.Split(raw, ",") {
			if tag = strings.TrimSpace(tag); tag != "" && !seen[tag] {
				seen[tag] = true
				q.Tags = append(q.Tags, tag)
			}
		}
	}
	return q
}

// listProjects returns published projects in display order, filtered by the
// optional search and tag parameters. Repeated tags narrow the result.
// @Summary List published projects
// @Tags Catalog
// @Produce json
// @Param search query string false "Case-insensitive title or description filter"
// @Param tag query []string false "Tags that must all be present"
// @Success 200 {object} CatalogResponse
// @Router /projects [get]
func (h catalogHandler) listProjects() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projects, err := h.load(r.Context())
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		view := catalog.NewView(projects)
		q := queryFromRequest(r)
		view.SetSearch(q.Search)
		for _, tag := range q.Tags {
			view.ToggleTag(tag)
		}
		filtered := view.Filtered()

		h.responder.WriteJSON(w, CatalogResponse{
			Projects: filtered,
			Tags:     view.Tags(),
			Query:    view.Query(),
			Total:    len(filtered),
		})
	}
}

// getProject returns one published project.
// @Summary Get published project
// @Tags Catalog
// @Produce json
// @Param projectID path string true "Project ID" format(uuid)
// @Success 200 {object} models.Project
// @Failure 404 {object} ErrorResponse
// @Router /projects/{projectID} [get]
func (h catalogHandler) getProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := uuid.Parse(chi.URLParam(r, "projectID"))
		if err != nil {
			h.responder.WriteError(w, errs.NewBadRequestError("invalid projectID"))
			return
		}

		projects, err := h.load(r.Context())
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		for _, p := range projects {
			if p.ID == projectID {
				h.responder.WriteJSON(w, p)
				return
			}
		}
		h.responder.WriteError(w, errs.NewNotFound("project"))
	}
}
