package auth

import "time"

// CookieName is the cookie the admin session token travels in.
const CookieName = "admin_token"

// Session is one authenticated admin login.
type Session struct {
	ID        string    `json:"id"`
	Token     string    `json:"-"`
	Username  string    `json:"username"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s Session) ExpiredAt(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

type EventType string

const (
	LoggedIn  EventType = "logged_in"
	LoggedOut EventType = "logged_out"
	Expired   EventType = "expired"
)

// Event is delivered to OnChange subscribers whenever a session starts or ends.
type Event struct {
	Type    EventType `json:"type"`
	Session Session   `json:"session"`
}
