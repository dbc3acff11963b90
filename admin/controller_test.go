package admin

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpupo63/portfolio-backend/auth"
	"github.com/rpupo63/portfolio-backend/errs"
	"github.com/rpupo63/portfolio-backend/models"
	"github.com/rpupo63/portfolio-backend/portfolio"
	"github.com/rpupo63/portfolio-backend/services"
)

type fakeRepo struct {
	mu       sync.Mutex
	projects []models.Project
	loaded   bool

	refreshCalls int
	createCalls  int
	updateCalls  int
	deleteCalls  int
	reorderCalls int

	lastFields  models.ProjectFields
	lastPatch   models.ProjectPatch
	lastDeleted uuid.UUID
	lastOrder   []uuid.UUID

	err error
	// gate, when set, blocks Create until it is closed.
	gate    chan struct{}
	entered chan struct{}
}

func newFakeRepo(titles ...string) *fakeRepo {
	r := &fakeRepo{loaded: true}
	for i, title := range titles {
		id := uuid.New()
		r.projects = append(r.projects, models.Project{
			ID:           id,
			Title:        title,
			Description:  title + " description",
			DisplayOrder: i + 1,
			Tags:         models.NewProjectTags(id, []string{"go"}),
		})
	}
	return r
}

func (r *fakeRepo) Projects() []models.Project {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Project(nil), r.projects...)
}

func (r *fakeRepo) Loaded() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loaded
}

func (r *fakeRepo) Find(id uuid.UUID) (models.Project, bool) {
	for _, p := range r.Projects() {
		if p.ID == id {
			return p, true
		}
	}
	return models.Project{}, false
}

func (r *fakeRepo) Refresh(ctx context.Context) ([]models.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refreshCalls++
	if r.err != nil {
		return nil, r.err
	}
	r.loaded = true
	return append([]models.Project(nil), r.projects...), nil
}

func (r *fakeRepo) Create(ctx context.Context, fields models.ProjectFields) (*models.Project, error) {
	if r.gate != nil {
		close(r.entered)
		<-r.gate
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.createCalls++
	r.lastFields = fields
	if r.err != nil {
		return nil, r.err
	}
	p := *fields.NewProject()
	p.ID = uuid.New()
	p.Tags = models.NewProjectTags(p.ID, fields.Tags)
	r.projects = append(r.projects, p)
	return &p, nil
}

func (r *fakeRepo) Update(ctx context.Context, id uuid.UUID, patch models.ProjectPatch) (*models.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updateCalls++
	r.lastPatch = patch
	if r.err != nil {
		return nil, r.err
	}
	for i, p := range r.projects {
		if p.ID == id {
			if patch.Title != nil {
				p.Title = *patch.Title
			}
			r.projects[i] = p
			return &p, nil
		}
	}
	return nil, errs.NewNotFound("project")
}

func (r *fakeRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleteCalls++
	r.lastDeleted = id
	if r.err != nil {
		return r.err
	}
	for i, p := range r.projects {
		if p.ID == id {
			r.projects = append(r.projects[:i], r.projects[i+1:]...)
			return nil
		}
	}
	return errs.NewNotFound("project")
}

func (r *fakeRepo) Reorder(ctx context.Context, ids []uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reorderCalls++
	r.lastOrder = ids
	return r.err
}

type fakeStore struct {
	mu      sync.Mutex
	calls   int
	result  services.UploadedImage
	err     error
	gate    chan struct{}
	entered chan struct{}
}

func (s *fakeStore) Upload(ctx context.Context, file services.ImageFile) (services.UploadedImage, error) {
	if s.gate != nil {
		close(s.entered)
		<-s.gate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.result, s.err
}

func png(size int64) services.ImageFile {
	return services.ImageFile{Name: "a.png", ContentType: "image/png", Size: size, Body: strings.NewReader("x")}
}

func ptr[T any](v T) *T { return &v }

func lastNote(t *testing.T, c *Controller) Notification {
	t.Helper()
	notes := c.Notifications()
	require.NotEmpty(t, notes)
	return notes[len(notes)-1]
}

func TestCreateFlow(t *testing.T) {
	repo := newFakeRepo("One", "Two")
	c := NewController(repo, &fakeStore{})

	require.NoError(t, c.BeginCreate())
	st := c.State()
	assert.Equal(t, Editing, st.Mode)
	assert.Nil(t, st.EditingID)
	assert.Equal(t, portfolio.NewDraft(), *st.Draft)

	require.NoError(t, c.UpdateDraft(portfolio.DraftPatch{Title: ptr(" Three "), Description: ptr("Third")}))
	added, err := c.AddTag("go")
	require.NoError(t, err)
	assert.True(t, added)
	added, _ = c.AddTag("go")
	assert.False(t, added)

	created, err := c.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Three", created.Title)
	assert.Equal(t, 3, repo.lastFields.DisplayOrder, "new projects go to the end")
	assert.Equal(t, []string{"go"}, repo.lastFields.Tags)
	assert.Equal(t, Viewing, c.State().Mode)

	n := lastNote(t, c)
	assert.Equal(t, TitleSuccess, n.Title)
	assert.Equal(t, "Project created successfully", n.Message)
}

func TestSubmitValidationKeepsForm(t *testing.T) {
	repo := newFakeRepo()
	c := NewController(repo, &fakeStore{})
	require.NoError(t, c.BeginCreate())
	require.NoError(t, c.UpdateDraft(portfolio.DraftPatch{LiveURL: ptr("nope")}))

	_, err := c.Submit(context.Background())
	require.Error(t, err)
	assert.True(t, errs.IsValidation(err))
	assert.Zero(t, repo.createCalls)

	st := c.State()
	assert.Equal(t, Editing, st.Mode)
	assert.Contains(t, st.FieldErrors, "title")
	assert.Contains(t, st.FieldErrors, "description")
	assert.Contains(t, st.FieldErrors, "live_url")
	assert.Equal(t, "nope", st.Draft.LiveURL)
}

func TestEditFlow(t *testing.T) {
	repo := newFakeRepo("One")
	id := repo.projects[0].ID
	c := NewController(repo, &fakeStore{})

	require.NoError(t, c.BeginEdit(id))
	st := c.State()
	require.NotNil(t, st.EditingID)
	assert.Equal(t, id, *st.EditingID)
	assert.Equal(t, "One", st.Draft.Title)
	assert.Equal(t, []string{"go"}, st.Draft.Tags)

	require.NoError(t, c.UpdateDraft(portfolio.DraftPatch{Title: ptr("Renamed")}))
	_, err := c.Submit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, repo.updateCalls)
	assert.Equal(t, "Renamed", *repo.lastPatch.Title)
	assert.Nil(t, repo.lastPatch.DisplayOrder, "editing never moves a project")
	assert.Equal(t, "Project updated successfully", lastNote(t, c).Message)

	err = c.BeginEdit(uuid.New())
	assert.True(t, errs.IsNotFound(err))
}

func TestSubmitFailureReturnsToEditing(t *testing.T) {
	repo := newFakeRepo("One")
	repo.err = errs.NewDatabaseError("create", "project", errors.New("boom"))
	c := NewController(repo, &fakeStore{})

	require.NoError(t, c.BeginCreate())
	require.NoError(t, c.UpdateDraft(portfolio.DraftPatch{Title: ptr("T"), Description: ptr("D")}))
	_, err := c.Submit(context.Background())
	require.Error(t, err)

	st := c.State()
	assert.Equal(t, Editing, st.Mode)
	assert.Equal(t, "T", st.Draft.Title)
	n := lastNote(t, c)
	assert.Equal(t, TitleError, n.Title)
	assert.Equal(t, "Failed to create project", n.Message)
}

func TestSubmitRejectsSecondTrigger(t *testing.T) {
	repo := newFakeRepo()
	repo.gate = make(chan struct{})
	repo.entered = make(chan struct{})
	c := NewController(repo, &fakeStore{})

	require.NoError(t, c.BeginCreate())
	require.NoError(t, c.UpdateDraft(portfolio.DraftPatch{Title: ptr("T"), Description: ptr("D")}))

	done := make(chan error, 1)
	go func() {
		_, err := c.Submit(context.Background())
		done <- err
	}()
	<-repo.entered

	assert.Equal(t, Submitting, c.State().Mode)
	_, err := c.Submit(context.Background())
	assert.True(t, errs.IsBusy(err))
	assert.True(t, errs.IsBusy(c.UpdateDraft(portfolio.DraftPatch{Title: ptr("x")})))
	assert.True(t, errs.IsBusy(c.Reorder(context.Background(), nil)))

	close(repo.gate)
	require.NoError(t, <-done)
	assert.Equal(t, 1, repo.createCalls)
	assert.Equal(t, Viewing, c.State().Mode)
}

func TestAttachImage(t *testing.T) {
	store := &fakeStore{result: services.UploadedImage{URL: "https://img/new.png", PublicID: "new"}}
	c := NewController(newFakeRepo(), store)

	_, err := c.AttachImage(context.Background(), png(1))
	assert.True(t, errs.IsInvalidState(err), "no form open")

	require.NoError(t, c.BeginCreate())

	_, err = c.AttachImage(context.Background(), services.ImageFile{ContentType: "text/plain", Size: 1, Body: strings.NewReader("x")})
	assert.True(t, errs.IsValidation(err))
	assert.Equal(t, "Please select an image file", lastNote(t, c).Message)

	_, err = c.AttachImage(context.Background(), png(services.MaxImageSize+1))
	assert.True(t, errs.IsValidation(err))
	assert.Equal(t, "Image size must be less than 5MB", lastNote(t, c).Message)
	assert.Zero(t, store.calls, "rejected files never reach the store")

	out, err := c.AttachImage(context.Background(), png(10))
	require.NoError(t, err)
	assert.Equal(t, "new", out.PublicID)
	d := c.State().Draft
	assert.Equal(t, "https://img/new.png", d.CloudinarySecureURL)
	assert.Equal(t, "https://img/new.png", d.ImageURL)
	assert.Equal(t, "new", d.CloudinaryPublicID)

	store.err = errs.NewUploadError("Cloudinary", 500, errors.New("down"))
	_, err = c.AttachImage(context.Background(), png(10))
	assert.True(t, errs.IsUpload(err))
	assert.Equal(t, "new", c.State().Draft.CloudinaryPublicID, "previous image kept on failure")

	require.NoError(t, c.RemoveImage())
	d = c.State().Draft
	assert.Empty(t, d.CloudinarySecureURL)
	assert.Empty(t, d.CloudinaryPublicID)
	assert.Empty(t, d.ImageURL)
}

func TestAttachImageRefused(t *testing.T) {
	store := &fakeStore{err: errs.NewUploadRefusedError("Cloudinary", "CLOUDINARY_CLOUD_NAME")}
	c := NewController(newFakeRepo(), store)
	require.NoError(t, c.BeginCreate())

	_, err := c.AttachImage(context.Background(), png(10))
	assert.True(t, errs.IsUploadRefused(err))
	assert.Equal(t, TitleConfiguration, lastNote(t, c).Title)
}

func TestSubmitBlockedWhileUploading(t *testing.T) {
	store := &fakeStore{
		result:  services.UploadedImage{URL: "https://img/p.png", PublicID: "p"},
		gate:    make(chan struct{}),
		entered: make(chan struct{}),
	}
	repo := newFakeRepo()
	c := NewController(repo, store)
	require.NoError(t, c.BeginCreate())
	require.NoError(t, c.UpdateDraft(portfolio.DraftPatch{Title: ptr("T"), Description: ptr("D")}))

	done := make(chan error, 1)
	go func() {
		_, err := c.AttachImage(context.Background(), png(10))
		done <- err
	}()
	<-store.entered

	assert.True(t, c.State().Uploading)
	_, err := c.Submit(context.Background())
	assert.True(t, errs.IsBusy(err))
	_, err = c.AttachImage(context.Background(), png(10))
	assert.True(t, errs.IsBusy(err), "one upload at a time")
	assert.True(t, errs.IsBusy(c.CancelEdit()))
	require.NoError(t, c.UpdateDraft(portfolio.DraftPatch{FullDescription: ptr("still editable")}))

	close(store.gate)
	require.NoError(t, <-done)

	_, err = c.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "p", repo.lastFields.CloudinaryPublicID)
	assert.Equal(t, "still editable", repo.lastFields.FullDescription)
}

func TestDeleteNeedsConfirmation(t *testing.T) {
	repo := newFakeRepo("One", "Two")
	id := repo.projects[1].ID
	c := NewController(repo, &fakeStore{})
	ctx := context.Background()

	err := c.ConfirmDelete(ctx)
	assert.True(t, errs.IsInvalidState(err))

	require.NoError(t, c.RequestDelete(id))
	assert.Equal(t, id, *c.State().PendingDelete)
	c.CancelDelete()
	assert.Nil(t, c.State().PendingDelete)
	assert.Zero(t, repo.deleteCalls)

	require.NoError(t, c.RequestDelete(id))
	require.NoError(t, c.ConfirmDelete(ctx))
	assert.Equal(t, 1, repo.deleteCalls)
	assert.Equal(t, id, repo.lastDeleted)
	assert.Equal(t, "Project deleted successfully", lastNote(t, c).Message)

	assert.True(t, errs.IsNotFound(c.RequestDelete(uuid.New())))
}

func TestDeleteFailureNotifies(t *testing.T) {
	repo := newFakeRepo("One")
	repo.err = errs.NewDatabaseError("delete", "project", errors.New("boom"))
	c := NewController(repo, &fakeStore{})

	require.NoError(t, c.RequestDelete(repo.projects[0].ID))
	require.Error(t, c.ConfirmDelete(context.Background()))
	assert.Equal(t, "Failed to delete project", lastNote(t, c).Message)
	assert.Len(t, repo.Projects(), 1)
}

func TestReorder(t *testing.T) {
	repo := newFakeRepo("A", "B", "C")
	a, b, cc := repo.projects[0].ID, repo.projects[1].ID, repo.projects[2].ID
	c := NewController(repo, &fakeStore{})
	ctx := context.Background()

	err := c.Reorder(ctx, []uuid.UUID{a, b})
	assert.True(t, errs.IsValidation(err), "partial permutations are refused")
	assert.Zero(t, repo.reorderCalls)

	require.NoError(t, c.Reorder(ctx, []uuid.UUID{cc, a, b}))
	assert.Equal(t, []uuid.UUID{cc, a, b}, repo.lastOrder)
	assert.Equal(t, "Projects reordered successfully", lastNote(t, c).Message)

	moved, err := c.Move(ctx, 0, 5)
	require.NoError(t, err)
	assert.False(t, moved, "drop outside the list")
	moved, err = c.Move(ctx, 1, 1)
	require.NoError(t, err)
	assert.False(t, moved)
	assert.Equal(t, 1, repo.reorderCalls)

	moved, err = c.Move(ctx, 0, 2)
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, []uuid.UUID{b, cc, a}, repo.lastOrder)
}

func TestReorderFailureNotifies(t *testing.T) {
	repo := newFakeRepo("A", "B")
	repo.err = errs.NewPartialFailureError("reorder projects", 1, 2, errors.New("timeout"))
	c := NewController(repo, &fakeStore{})

	err := c.Reorder(context.Background(), []uuid.UUID{repo.projects[1].ID, repo.projects[0].ID})
	assert.True(t, errs.IsPartialFailure(err))
	n := lastNote(t, c)
	assert.Equal(t, TitleError, n.Title)
	assert.Equal(t, "Failed to reorder projects", n.Message)
}

func TestLoad(t *testing.T) {
	repo := newFakeRepo("A")
	c := NewController(repo, &fakeStore{})

	_, err := c.Load(context.Background(), false)
	require.NoError(t, err)
	assert.Zero(t, repo.refreshCalls, "already loaded")

	_, err = c.Load(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.refreshCalls)

	repo.err = errors.New("down")
	_, err = c.Load(context.Background(), true)
	require.Error(t, err)
	assert.Equal(t, "Failed to load projects", lastNote(t, c).Message)
}

type fakeEvents struct {
	cb        func(auth.Event)
	cancelled bool
}

func (f *fakeEvents) OnChange(cb func(auth.Event)) func() {
	f.cb = cb
	return func() { f.cancelled = true }
}

func TestRegistry(t *testing.T) {
	events := &fakeEvents{}
	r := NewRegistry(newFakeRepo(), &fakeStore{}, events)

	first := r.For("s1")
	assert.Same(t, first, r.For("s1"))
	r.For("s2")
	assert.Equal(t, 2, r.Len())

	events.cb(auth.Event{Type: auth.LoggedOut, Session: auth.Session{ID: "s1"}})
	assert.Equal(t, 1, r.Len())
	assert.NotSame(t, first, r.For("s1"))

	events.cb(auth.Event{Type: auth.LoggedIn, Session: auth.Session{ID: "s2"}})
	events.cb(auth.Event{Type: auth.Expired, Session: auth.Session{ID: "s2"}})
	assert.Equal(t, 1, r.Len())

	r.Close()
	assert.True(t, events.cancelled)
}
