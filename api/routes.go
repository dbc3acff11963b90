package api

import (
	"github.com/go-chi/chi/v5"
)

// setupRoutes registers the public catalog, the auth endpoints and the
// session-protected admin workflow.
func setupRoutes(r chi.Router, handlers *routeHandlers, authMiddleware authMiddleware) {
	r.Get("/healthz", handlers.healthHandler.healthz())

	r.Group(func(r chi.Router) {
		r.Use(ColoredHTTPLoggingMiddleware)

		r.Get("/projects", handlers.catalogHandler.listProjects())
		r.Get("/projects/{projectID}", handlers.catalogHandler.getProject())

		r.Post("/auth/login", handlers.authHandler.login())
		r.Post("/auth/logout", handlers.authHandler.logout())
		r.Get("/auth/session", handlers.authHandler.session())

		r.Route("/admin", func(r chi.Router) {
			r.Use(authMiddleware.authenticate)

			r.Get("/state", handlers.adminHandler.getState())
			r.Post("/projects/refresh", handlers.adminHandler.refresh())
			r.Post("/projects/{projectID}/delete", handlers.adminHandler.requestDelete())

			r.Post("/editor", handlers.adminHandler.openEditor())
			r.Patch("/editor", handlers.adminHandler.updateEditor())
			r.Delete("/editor", handlers.adminHandler.closeEditor())
			r.Post("/editor/tags", handlers.adminHandler.addTag())
			r.Delete("/editor/tags/{tag}", handlers.adminHandler.removeTag())
			r.Post("/editor/image", handlers.adminHandler.uploadImage())
			r.Delete("/editor/image", handlers.adminHandler.removeImage())
			r.Post("/editor/submit", handlers.adminHandler.submit())

			r.Post("/delete/confirm", handlers.adminHandler.confirmDelete())
			r.Post("/delete/cancel", handlers.adminHandler.cancelDelete())

			r.Post("/reorder", handlers.adminHandler.reorder())
			r.Post("/reorder/move", handlers.adminHandler.move())
		})
	})
}
