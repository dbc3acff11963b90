package api

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/portfolio-backend/auth"
)

// SessionProvider is the part of auth.Provider the HTTP layer needs.
type SessionProvider interface {
	SessionResolver
	Login(ctx context.Context, username, password string) (auth.Session, error)
	Logout(token string) error
}

type authHandler struct {
	responder    Responder
	logger       zerolog.Logger
	sessions     SessionProvider
	secureCookie bool
}

func newAuthHandler(sessions SessionProvider, secureCookie bool) authHandler {
	logger := log.With().Str("handlerName", "authHandler").Logger()
	return authHandler{
		responder:    NewResponder(logger),
		logger:       logger,
		sessions:     sessions,
		secureCookie: secureCookie,
	}
}

func (h authHandler) setCookie(w http.ResponseWriter, value string, expires time.Time) {
	cookie := &http.Cookie{
		Name:     auth.CookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	}
	if value == "" {
		cookie.MaxAge = -1
	}
	http.SetCookie(w, cookie)
}

// login checks the admin credentials and starts a session. The token is
// returned in the body and also set as the admin_token cookie.
// @Summary Admin login
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body LoginRequest true "Admin credentials"
// @Success 200 {object} LoginResponse
// @Failure 401 {object} ErrorResponse
// @Router /auth/login [post]
func (h authHandler) login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := decodeJSON(r, &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		session, err := h.sessions.Login(r.Context(), req.Username, req.Password)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.setCookie(w, session.Token, session.ExpiresAt)
		h.responder.WriteJSON(w, LoginResponse{Token: session.Token, Session: session})
	}
}

// logout ends the current session. It succeeds even if the session was already gone.
// @Router /auth/logout [post]
func (h authHandler) logout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if token := tokenFromRequest(r); token != "" {
			if err := h.sessions.Logout(token); err != nil {
				h.responder.WriteError(w, err)
				return
			}
		}
		h.setCookie(w, "", time.Unix(0, 0))
		w.WriteHeader(http.StatusNoContent)
	}
}

// session returns the session behind the request's token.
// @Router /auth/session [get]
func (h authHandler) session() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := h.sessions.Current(tokenFromRequest(r))
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, session)
	}
}
