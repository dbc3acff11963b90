package api

// initializeHandlers creates and returns all handlers organized in a routeHandlers struct
func initializeHandlers(deps Dependencies, r router) *routeHandlers {
	return &routeHandlers{
		healthHandler:  newHealthHandler(deps.DB, r.startupTime),
		catalogHandler: newCatalogHandler(deps.Published),
		authHandler:    newAuthHandler(deps.Sessions, r.secureCookies),
		adminHandler:   newAdminHandler(deps.Controllers),
	}
}
