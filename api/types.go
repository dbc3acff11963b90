package api

import (
	"github.com/rpupo63/portfolio-backend/admin"
	"github.com/rpupo63/portfolio-backend/auth"
	"github.com/rpupo63/portfolio-backend/catalog"
	"github.com/rpupo63/portfolio-backend/models"
)

// routeHandlers contains all the handlers for different route types
type routeHandlers struct {
	healthHandler  healthHandler
	catalogHandler catalogHandler
	authHandler    authHandler
	adminHandler   adminHandler
}

// ErrorResponse represents an error response from the API
type ErrorResponse struct {
	Error   string            `json:"error" example:"validation failed"`
	Status  string            `json:"status" example:"error"`
	Field   string            `json:"field,omitempty" example:"title"`
	Fields  map[string]string `json:"fields,omitempty"`
	Details string            `json:"details,omitempty" example:"title is required"`
	Cause   string            `json:"cause,omitempty" example:"Underlying error cause"`
}

// CatalogResponse is the public project listing.
type CatalogResponse struct {
	Projects []models.Project `json:"projects"`
	Tags     []string         `json:"tags"`
	Query    catalog.Query    `json:"query"`
	Total    int              `json:"total"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token   string       `json:"token"`
	Session auth.Session `json:"session"`
}

// AdminResponse is returned by every admin call: the controller state after
// the call plus any notifications raised by it.
type AdminResponse struct {
	State         admin.State          `json:"state"`
	Notifications []admin.Notification `json:"notifications"`
	Result        any                  `json:"result,omitempty"`
}

type EditorRequest struct {
	ProjectID *string `json:"project_id" validate:"omitempty,uuid"`
}

type TagRequest struct {
	Tag string `json:"tag" validate:"required"`
}

type ReorderRequest struct {
	IDs []string `json:"ids" validate:"required,dive,uuid"`
}

type MoveRequest struct {
	From *int `json:"from" validate:"required,min=0"`
	To   *int `json:"to" validate:"required"`
}
