package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/portfolio-backend/config"
)

// Dependencies are the components the HTTP layer serves.
type Dependencies struct {
	DB          Pinger
	Published   PublishedProjects
	Sessions    SessionProvider
	Controllers Controllers
}

type Server struct {
	*http.Server
	startupTime time.Time
}

func NewServer(deps Dependencies, c map[string]string) (Server, error) {
	port := config.GetString(c, "PORT", "8080")
	address := fmt.Sprintf("0.0.0.0:%s", port) // Bind to 0.0.0.0 for external access

	startupTime := time.Now()

	router := NewRouter(deps,
		withStartupTime(startupTime),
		withAllowedOrigins(config.GetList(c, "ACCEPTED_ORIGINS")),
		withSecureCookies(config.GetBool(c, "SECURE_COOKIES", true)),
	)

	server := &http.Server{
		Addr:         address,
		Handler:      router,
		ReadTimeout:  config.GetDuration(c, "READ_TIMEOUT_SECONDS", 180*time.Second),
		WriteTimeout: config.GetDuration(c, "WRITE_TIMEOUT_SECONDS", 180*time.Second),
		IdleTimeout:  config.GetDuration(c, "IDLE_TIMEOUT_SECONDS", 180*time.Second),
	}

	return Server{server, startupTime}, nil
}

type router struct {
	startupTime    time.Time
	allowedOrigins []string
	secureCookies  bool
}

type RouterOption func(*router)

func withStartupTime(startupTime time.Time) RouterOption {
	return func(r *router) {
		r.startupTime = startupTime
	}
}

func withAllowedOrigins(origins []string) RouterOption {
	return func(r *router) {
		r.allowedOrigins = origins
	}
}

func withSecureCookies(secure bool) RouterOption {
	return func(r *router) {
		r.secureCookies = secure
	}
}

// NewRouter builds the chi router for deps.
func NewRouter(deps Dependencies, opts ...RouterOption) *chi.Mux {
	router := router{startupTime: time.Now()}
	for _, opt := range opts {
		opt(&router)
	}

	chiRouter := chi.NewRouter()
	chiRouter.Use(LogInternalServerErrors)
	chiRouter.Use(CORSCheckMiddleware(router.allowedOrigins))
	chiRouter.Use(corsMiddleware(router.allowedOrigins))

	handlers := initializeHandlers(deps, router)
	setupRoutes(chiRouter, handlers, newAuthMiddleware(deps.Sessions))

	return chiRouter
}

func (s Server) Start(errChannel chan<- error) {
	log.Info().Msgf("Server started on: %s", s.Addr)
	errChannel <- s.ListenAndServe()
}

func (s Server) ShutdownGracefully(timeout time.Duration) {
	log.Info().Msg("Gracefully shutting down...")

	gracefullCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.Shutdown(gracefullCtx); err != nil {
		log.Error().Msgf("Error shutting down the server: %v", err)
	} else {
		log.Info().Msg("HttpServer gracefully shut down")
	}
}
