package admin

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/rpupo63/portfolio-backend/auth"
	"github.com/rpupo63/portfolio-backend/services"
)

// SessionEvents is the part of auth.Provider the Registry listens to.
type SessionEvents interface {
	OnChange(cb func(auth.Event)) (cancel func())
}

// Registry keeps one Controller per admin session. Controllers share the
// repository and are dropped when their session logs out or expires.
type Registry struct {
	repo   Repository
	images services.ImageStore
	opts   []ControllerOption

	mu          sync.Mutex
	controllers map[string]*Controller
	cancel      func()
}

func NewRegistry(repo Repository, images services.ImageStore, events SessionEvents, opts ...ControllerOption) *Registry {
	r := &Registry{
		repo:        repo,
		images:      images,
		opts:        opts,
		controllers: make(map[string]*Controller),
	}
	r.cancel = events.OnChange(func(ev auth.Event) {
		switch ev.Type {
		case auth.LoggedOut, auth.Expired:
			r.Drop(ev.Session.ID)
		}
	})
	return r
}

// For returns the Controller of sessionID, creating it on first use.
func (r *Registry) For(sessionID string) *Controller {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.controllers[sessionID]
	if !ok {
		c = NewController(r.repo, r.images, r.opts...)
		r.controllers[sessionID] = c
	}
	return c
}

func (r *Registry) Drop(sessionID string) {
	r.mu.Lock()
	_, ok := r.controllers[sessionID]
	delete(r.controllers, sessionID)
	r.mu.Unlock()

	if ok {
		log.Debug().Str("session", sessionID).Msg("dropped admin controller")
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.controllers)
}

// Close stops listening for session changes.
func (r *Registry) Close() {
	if r.cancel != nil {
		r.cancel()
	}
}
