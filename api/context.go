package api

import (
	"context"
	"errors"

	"github.com/rpupo63/portfolio-backend/auth"
)

type keyType string

const sessionKey keyType = "session"

// ctxWithSession adds the authenticated admin session to the context
func ctxWithSession(ctx context.Context, s auth.Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// ctxGetSession retrieves the admin session from the context
func ctxGetSession(ctx context.Context) (auth.Session, error) {
	s, ok := ctx.Value(sessionKey).(auth.Session)
	if !ok {
		return auth.Session{}, errors.New("session not found in context")
	}
	return s, nil
}
