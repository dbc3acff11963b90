package portfolio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/rpupo63/portfolio-backend/errs"
	"github.com/rpupo63/portfolio-backend/models"
)

// Backend is the persistence collection the Repository talks to.
// database.ProjectRepo is the production implementation.
type Backend interface {
	List(ctx context.Context, scope models.Scope) ([]models.Project, error)
	Create(ctx context.Context, fields models.ProjectFields) (*models.Project, error)
	Update(ctx context.Context, id uuid.UUID, patch models.ProjectPatch) (*models.Project, error)
	SetDisplayOrder(ctx context.Context, id uuid.UUID, order int) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Repository owns the in-memory project list for one scope. Every successful
// mutation is followed by a full re-list that replaces the snapshot; nothing is
// patched locally. Mutations are serialized so refreshes land in call order.
type Repository struct {
	backend Backend
	scope   models.Scope
	now     func() time.Time
	logger  zerolog.Logger

	mutateMu sync.Mutex

	snapMu   sync.RWMutex
	snapshot []models.Project
	loaded   bool
}

type RepositoryOption func(*Repository)

// WithClock overrides the time source used to stamp updated_at.
func WithClock(now func() time.Time) RepositoryOption {
	return func(r *Repository) { r.now = now }
}

func NewRepository(backend Backend, scope models.Scope, opts ...RepositoryOption) *Repository {
	r := &Repository{
		backend: backend,
		scope:   scope,
		now:     time.Now,
		logger:  log.With().Str("component", "projectRepository").Str("scope", scope.String()).Logger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Scope is the listing mode the snapshot is kept in.
func (r *Repository) Scope() models.Scope {
	return r.scope
}

// Projects returns a copy of the last successfully loaded list.
func (r *Repository) Projects() []models.Project {
	r.snapMu.RLock()
	defer r.snapMu.RUnlock()
	return append([]models.Project(nil), r.snapshot...)
}

// Loaded reports whether at least one refresh has succeeded.
func (r *Repository) Loaded() bool {
	r.snapMu.RLock()
	defer r.snapMu.RUnlock()
	return r.loaded
}

// Find returns the snapshot entry with the given id.
func (r *Repository) Find(id uuid.UUID) (models.Project, bool) {
	r.snapMu.RLock()
	defer r.snapMu.RUnlock()
	for _, p := range r.snapshot {
		if p.ID == id {
			return p, true
		}
	}
	return models.Project{}, false
}

// List queries the backend for scope. It does not touch the snapshot.
func (r *Repository) List(ctx context.Context, scope models.Scope) ([]models.Project, error) {
	projects, err := r.backend.List(ctx, scope)
	if err != nil {
		return nil, errs.NewDatabaseError("list", "projects", err)
	}
	return projects, nil
}

// Refresh re-lists the repository's scope and replaces the snapshot.
// On failure the previous snapshot is kept.
func (r *Repository) Refresh(ctx context.Context) ([]models.Project, error) {
	r.mutateMu.Lock()
	defer r.mutateMu.Unlock()
	return r.refreshLocked(ctx)
}

func (r *Repository) refreshLocked(ctx context.Context) ([]models.Project, error) {
	projects, err := r.List(ctx, r.scope)
	if err != nil {
		r.logger.Error().Err(err).Msg("refresh failed, keeping last known list")
		return nil, err
	}

	r.snapMu.Lock()
	r.snapshot = projects
	r.loaded = true
	r.snapMu.Unlock()
	return append([]models.Project(nil), projects...), nil
}

// Create inserts a project and refreshes the list. If only the refresh fails the
// persisted record is still returned alongside the error.
func (r *Repository) Create(ctx context.Context, fields models.ProjectFields) (*models.Project, error) {
	r.mutateMu.Lock()
	defer r.mutateMu.Unlock()

	created, err := r.backend.Create(ctx, fields)
	if err != nil {
		return nil, errs.NewDatabaseError("create", "project", err)
	}
	if _, err := r.refreshLocked(ctx); err != nil {
		return created, err
	}
	return created, nil
}

// Update patches the named fields, stamps updated_at and refreshes the list.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, patch models.ProjectPatch) (*models.Project, error) {
	r.mutateMu.Lock()
	defer r.mutateMu.Unlock()

	patch.UpdatedAt = r.now().UTC()
	updated, err := r.backend.Update(ctx, id, patch)
	if err != nil {
		return nil, errs.NewDatabaseError("update", "project", err)
	}
	if _, err := r.refreshLocked(ctx); err != nil {
		return updated, err
	}
	return updated, nil
}

// Delete removes a project and refreshes the list. Unknown ids fail with NotFound.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mutateMu.Lock()
	defer r.mutateMu.Unlock()

	if err := r.backend.Delete(ctx, id); err != nil {
		return errs.NewDatabaseError("delete", "project", err)
	}
	_, err := r.refreshLocked(ctx)
	return err
}

// Reorder sets display_order = i+1 for ids[i]. Each id is written by its own
// independent request; there is no transaction, so a failure part way through
// leaves some rows renumbered and others not until the next successful reorder.
// The snapshot is only refreshed when every write succeeded.
func (r *Repository) Reorder(ctx context.Context, ids []uuid.UUID) error {
	r.mutateMu.Lock()
	defer r.mutateMu.Unlock()

	var (
		g      errgroup.Group
		failMu sync.Mutex
		failed int
	)
	for i, id := range ids {
		order := i + 1
		g.Go(func() error {
			if err := r.backend.SetDisplayOrder(ctx, id, order); err != nil {
				failMu.Lock()
				failed++
				failMu.Unlock()
				return fmt.Errorf("set display order of %s: %w", id, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		r.logger.Error().Err(err).Int("failed", failed).Int("total", len(ids)).Msg("reorder incomplete, persisted order may be inconsistent")
		if errs.IsNotFound(err) {
			return errs.NewDatabaseError("reorder", "project", err)
		}
		return errs.NewPartialFailureError("reorder projects", failed, len(ids), err)
	}

	_, err := r.refreshLocked(ctx)
	return err
}
