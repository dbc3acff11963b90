package admin

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/portfolio-backend/errs"
	"github.com/rpupo63/portfolio-backend/models"
	"github.com/rpupo63/portfolio-backend/portfolio"
	"github.com/rpupo63/portfolio-backend/services"
)

// Mode is the workflow state of a Controller.
type Mode string

const (
	Viewing    Mode = "viewing"
	Editing    Mode = "editing"
	Submitting Mode = "submitting"
)

// Repository is the project store the Controller drives. *portfolio.Repository implements it.
type Repository interface {
	Projects() []models.Project
	Loaded() bool
	Find(id uuid.UUID) (models.Project, bool)
	Refresh(ctx context.Context) ([]models.Project, error)
	Create(ctx context.Context, fields models.ProjectFields) (*models.Project, error)
	Update(ctx context.Context, id uuid.UUID, patch models.ProjectPatch) (*models.Project, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Reorder(ctx context.Context, ids []uuid.UUID) error
}

// State is a read-only snapshot of a Controller.
type State struct {
	Mode          Mode             `json:"mode"`
	EditingID     *uuid.UUID       `json:"editing_id,omitempty"`
	Draft         *portfolio.Draft `json:"draft,omitempty"`
	FieldErrors   errs.FieldErrors `json:"field_errors,omitempty"`
	Uploading     bool             `json:"uploading"`
	Busy          bool             `json:"busy"`
	PendingDelete *uuid.UUID       `json:"pending_delete,omitempty"`
	Projects      []models.Project `json:"projects"`
}

// Controller runs one admin's create, edit, delete and reorder workflow.
//
// Repository calls are never made while holding mu. A call in flight is
// tracked by busy (list operations) or by Mode == Submitting (form submit),
// and a second trigger during that window is refused with errs.ErrBusy.
// Image uploads are tracked separately by uploading so the form stays
// editable, but the form cannot be submitted or closed until the upload ends.
type Controller struct {
	repo   Repository
	images services.ImageStore
	now    func() time.Time
	logger zerolog.Logger

	mu            sync.Mutex
	mode          Mode
	editingID     *uuid.UUID
	draft         portfolio.Draft
	fieldErrors   errs.FieldErrors
	uploading     bool
	busy          bool
	pendingDelete *uuid.UUID

	notes notificationQueue
}

type ControllerOption func(*Controller)

func WithClock(now func() time.Time) ControllerOption {
	return func(c *Controller) { c.now = now }
}

func WithLogger(logger zerolog.Logger) ControllerOption {
	return func(c *Controller) { c.logger = logger }
}

func NewController(repo Repository, images services.ImageStore, opts ...ControllerOption) *Controller {
	c := &Controller{
		repo:   repo,
		images: images,
		now:    time.Now,
		logger: log.With().Str("component", "adminController").Logger(),
		mode:   Viewing,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) notify(level Level, title, message string) {
	if level == LevelSuccess {
		c.logger.Info().Msg(message)
	}
	c.notes.push(Notification{Level: level, Title: title, Message: message, At: c.now()})
}

func (c *Controller) notifyFailure(message string, err error) {
	c.logger.Error().Err(err).Msg(message)
	c.notify(LevelError, TitleError, message)
}

// Notifications returns and clears the pending notifications.
func (c *Controller) Notifications() []Notification {
	return c.notes.drain()
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := State{
		Mode:      c.mode,
		Uploading: c.uploading,
		Busy:      c.busy,
		Projects:  c.repo.Projects(),
	}
	if c.editingID != nil {
		id := *c.editingID
		s.EditingID = &id
	}
	if c.mode != Viewing {
		d := c.draft.Clone()
		s.Draft = &d
	}
	if len(c.fieldErrors) > 0 {
		s.FieldErrors = make(errs.FieldErrors, len(c.fieldErrors))
		for k, v := range c.fieldErrors {
			s.FieldErrors[k] = v
		}
	}
	if c.pendingDelete != nil {
		id := *c.pendingDelete
		s.PendingDelete = &id
	}
	return s
}

// Load refreshes the admin list. It is a no-op once a list has been loaded
// unless force is set.
func (c *Controller) Load(ctx context.Context, force bool) ([]models.Project, error) {
	if !force && c.repo.Loaded() {
		return c.repo.Projects(), nil
	}

	c.mu.Lock()
	if err := c.checkIdle("refresh projects"); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	c.busy = true
	c.mu.Unlock()

	projects, err := c.repo.Refresh(ctx)

	c.mu.Lock()
	c.busy = false
	c.mu.Unlock()

	if err != nil {
		c.notifyFailure("Failed to load projects", err)
		return nil, err
	}
	return projects, nil
}

// checkIdle fails when a repository call is in flight. mu must be held.
func (c *Controller) checkIdle(operation string) error {
	if c.busy || c.mode == Submitting {
		return errs.NewBusyError(operation)
	}
	return nil
}

// BeginCreate opens an empty form for a new project.
func (c *Controller) BeginCreate() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkFormFree("open the form"); err != nil {
		return err
	}
	c.mode = Editing
	c.editingID = nil
	c.draft = portfolio.NewDraft()
	c.fieldErrors = nil
	c.pendingDelete = nil
	return nil
}

// BeginEdit opens the form pre-filled from the project's current values.
func (c *Controller) BeginEdit(id uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkFormFree("open the form"); err != nil {
		return err
	}
	p, ok := c.repo.Find(id)
	if !ok {
		return errs.NewNotFound("project")
	}
	c.mode = Editing
	c.editingID = &id
	c.draft = portfolio.DraftFrom(p)
	c.fieldErrors = nil
	c.pendingDelete = nil
	return nil
}

// checkFormFree fails while a submit or an upload is in flight. mu must be held.
func (c *Controller) checkFormFree(operation string) error {
	if err := c.checkIdle(operation); err != nil {
		return err
	}
	if c.uploading {
		return errs.NewBusyError(operation)
	}
	return nil
}

// CancelEdit discards the draft and returns to the list.
func (c *Controller) CancelEdit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mode == Viewing {
		return nil
	}
	if err := c.checkFormFree("close the form"); err != nil {
		return err
	}
	c.closeForm()
	return nil
}

func (c *Controller) closeForm() {
	c.mode = Viewing
	c.editingID = nil
	c.draft = portfolio.Draft{}
	c.fieldErrors = nil
}

// editDraft runs fn against the draft. mu must not be held.
func (c *Controller) editDraft(operation string, fn func(d *portfolio.Draft)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.mode {
	case Submitting:
		return errs.NewBusyError(operation)
	case Viewing:
		return errs.NewInvalidStateError(operation, "no form is open")
	}
	fn(&c.draft)
	return nil
}

// UpdateDraft applies field edits to the open form.
func (c *Controller) UpdateDraft(patch portfolio.DraftPatch) error {
	return c.editDraft("edit the form", func(d *portfolio.Draft) { patch.Apply(d) })
}

// AddTag adds a trimmed tag to the form. Blank and duplicate tags are ignored.
func (c *Controller) AddTag(tag string) (bool, error) {
	var added bool
	err := c.editDraft("add a tag", func(d *portfolio.Draft) { added = d.AddTag(tag) })
	return added, err
}

func (c *Controller) RemoveTag(tag string) (bool, error) {
	var removed bool
	err := c.editDraft("remove a tag", func(d *portfolio.Draft) { removed = d.RemoveTag(tag) })
	return removed, err
}

// AttachImage uploads file and, on success, points the draft at it. Files that
// are not images or are too large are rejected without a network call. On any
// failure the draft keeps its previous image.
func (c *Controller) AttachImage(ctx context.Context, file services.ImageFile) (services.UploadedImage, error) {
	c.mu.Lock()
	switch {
	case c.mode == Submitting:
		c.mu.Unlock()
		return services.UploadedImage{}, errs.NewBusyError("upload an image")
	case c.mode == Viewing:
		c.mu.Unlock()
		return services.UploadedImage{}, errs.NewInvalidStateError("upload an image", "no form is open")
	case c.uploading:
		c.mu.Unlock()
		return services.UploadedImage{}, errs.NewBusyError("upload an image")
	}
	if err := services.CheckImage(file); err != nil {
		c.mu.Unlock()
		c.notify(LevelError, TitleError, imageRejection(err))
		return services.UploadedImage{}, err
	}
	c.uploading = true
	c.mu.Unlock()

	uploaded, err := c.images.Upload(ctx, file)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.uploading = false

	if err != nil {
		if errs.IsUploadRefused(err) {
			c.logger.Warn().Err(err).Msg("image store not configured")
			c.notify(LevelError, TitleConfiguration, "Please configure the image store settings before uploading")
		} else {
			c.notifyFailure("Failed to upload image. Please check the image store configuration.", err)
		}
		return services.UploadedImage{}, err
	}

	c.draft.AttachImage(uploaded.URL, uploaded.PublicID)
	c.notify(LevelSuccess, TitleSuccess, "Image uploaded successfully")
	return uploaded, nil
}

func imageRejection(err error) string {
	if errors.Is(err, errs.ErrMaxBodySizeExceeded) {
		return "Image size must be less than 5MB"
	}
	return "Please select an image file"
}

// RemoveImage clears the draft's image references. The stored asset is left in place.
func (c *Controller) RemoveImage() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.mode == Submitting, c.uploading:
		return errs.NewBusyError("remove the image")
	case c.mode == Viewing:
		return errs.NewInvalidStateError("remove the image", "no form is open")
	}
	c.draft.ClearImage()
	return nil
}

// Submit validates the form and creates or updates the project. Validation
// failures keep the form open with per-field errors; repository failures keep
// the form open with its contents intact.
func (c *Controller) Submit(ctx context.Context) (*models.Project, error) {
	c.mu.Lock()
	switch {
	case c.mode == Submitting:
		c.mu.Unlock()
		return nil, errs.NewBusyError("submit")
	case c.mode == Viewing:
		c.mu.Unlock()
		return nil, errs.NewInvalidStateError("submit", "no form is open")
	case c.uploading:
		c.mu.Unlock()
		return nil, errs.NewBusyError("submit while an image is uploading")
	case c.busy:
		c.mu.Unlock()
		return nil, errs.NewBusyError("submit")
	}

	fields, err := portfolio.Validate(c.draft)
	if err != nil {
		c.fieldErrors = errs.FieldErrorsOf(err)
		c.mu.Unlock()
		c.notify(LevelError, TitleError, "Please fix the highlighted fields")
		return nil, err
	}
	c.fieldErrors = nil
	c.mode = Submitting
	editingID := c.editingID
	c.mu.Unlock()

	var (
		saved *models.Project
		verb  string
	)
	if editingID == nil {
		verb = "create"
		fields.DisplayOrder = len(c.repo.Projects()) + 1
		saved, err = c.repo.Create(ctx, fields)
	} else {
		verb = "update"
		saved, err = c.repo.Update(ctx, *editingID, models.PatchFromFields(fields))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil && saved == nil {
		c.mode = Editing
		c.notifyFailure("Failed to "+verb+" project", err)
		return nil, err
	}

	c.closeForm()
	if err != nil {
		c.notifyFailure("Project saved but the list could not be refreshed", err)
		return saved, err
	}
	c.notify(LevelSuccess, TitleSuccess, "Project "+verb+"d successfully")
	return saved, nil
}

// RequestDelete asks for confirmation before deleting id.
func (c *Controller) RequestDelete(id uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkIdle("delete"); err != nil {
		return err
	}
	if _, ok := c.repo.Find(id); !ok {
		return errs.NewNotFound("project")
	}
	c.pendingDelete = &id
	return nil
}

// CancelDelete drops a pending confirmation. Nothing else changes.
func (c *Controller) CancelDelete() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pendingDelete = nil
}

// ConfirmDelete deletes the project named by the last RequestDelete.
func (c *Controller) ConfirmDelete(ctx context.Context) error {
	c.mu.Lock()
	if err := c.checkIdle("delete"); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.pendingDelete == nil {
		c.mu.Unlock()
		return errs.NewInvalidStateError("confirm delete", "no delete is pending")
	}
	id := *c.pendingDelete
	c.pendingDelete = nil
	c.busy = true
	c.mu.Unlock()

	err := c.repo.Delete(ctx, id)

	c.mu.Lock()
	c.busy = false
	if err == nil && c.editingID != nil && *c.editingID == id && c.mode == Editing && !c.uploading {
		c.closeForm()
	}
	c.mu.Unlock()

	if err != nil {
		c.notifyFailure("Failed to delete project", err)
		return err
	}
	c.notify(LevelSuccess, TitleSuccess, "Project deleted successfully")
	return nil
}

// Reorder persists ids as the new display order. ids must name every project
// in the current list exactly once.
func (c *Controller) Reorder(ctx context.Context, ids []uuid.UUID) error {
	c.mu.Lock()
	if err := c.checkIdle("reorder"); err != nil {
		c.mu.Unlock()
		return err
	}
	if err := portfolio.ValidatePermutation(portfolio.IDs(c.repo.Projects()), ids); err != nil {
		c.mu.Unlock()
		return err
	}
	c.busy = true
	c.mu.Unlock()

	err := c.repo.Reorder(ctx, ids)

	c.mu.Lock()
	c.busy = false
	c.mu.Unlock()

	if err != nil {
		c.notifyFailure("Failed to reorder projects", err)
		return err
	}
	c.notify(LevelSuccess, TitleSuccess, "Projects reordered successfully")
	return nil
}

// Move applies a single drag: the project at from is dropped at to. A drop
// outside the list, or onto its own slot, changes nothing and makes no call.
func (c *Controller) Move(ctx context.Context, from, to int) (bool, error) {
	current := portfolio.IDs(c.repo.Projects())
	order, ok := portfolio.MoveIndex(current, from, to)
	if !ok || from == to {
		return false, nil
	}
	if err := c.Reorder(ctx, order); err != nil {
		return false, err
	}
	return true, nil
}
