package api

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/portfolio-backend/errs"
)

// Pinger reports whether the persistence backend is reachable.
type Pinger interface {
	Ping(ctx context.Context, attempts uint) error
}

type healthHandler struct {
	responder   Responder
	logger      zerolog.Logger
	db          Pinger
	startupTime time.Time
}

func newHealthHandler(db Pinger, startupTime time.Time) healthHandler {
	logger := log.With().Str("handlerName", "healthHandler").Logger()
	return healthHandler{
		responder:   NewResponder(logger),
		logger:      logger,
		db:          db,
		startupTime: startupTime,
	}
}

// healthz reports liveness and whether the database answers a ping.
// @Router /healthz [get]
func (h healthHandler) healthz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := time.Since(h.startupTime).Round(time.Second).String()
		if h.db != nil {
			if err := h.db.Ping(r.Context(), 1); err != nil {
				h.responder.WriteError(w, errs.NewDatabaseError("ping", "database", err))
				return
			}
		}
		h.responder.WriteJSON(w, map[string]any{
			"status":    "ok",
			"uptime":    uptime,
			"startedAt": h.startupTime.UTC(),
		})
	}
}
