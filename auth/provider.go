package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/rpupo63/portfolio-backend/config"
	"github.com/rpupo63/portfolio-backend/errs"
)

const issuer = "portfolio-backend"

// Credentials are the single admin account. When PasswordHash is set it is a
// bcrypt hash and Password is ignored.
type Credentials struct {
	Username     string
	Password     string
	PasswordHash string
}

func (c Credentials) configured() bool {
	return c.Username != "" && (c.Password != "" || c.PasswordHash != "")
}

func (c Credentials) match(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(c.Username)) == 1
	var passOK bool
	if c.PasswordHash != "" {
		passOK = bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)) == nil
	} else {
		passOK = subtle.ConstantTimeCompare([]byte(password), []byte(c.Password)) == 1
	}
	return userOK && passOK
}

// Provider issues and tracks admin sessions. Tokens are HS256 JWTs whose jti
// names a live entry in the provider; logging out removes the entry, so a
// token stops working before its exp claim.
type Provider struct {
	creds         Credentials
	secret        []byte
	ttl           time.Duration
	sweepInterval time.Duration
	now           func() time.Time
	logger        zerolog.Logger

	mu       sync.RWMutex
	sessions map[string]Session

	subsMu  sync.RWMutex
	subs    map[int]func(Event)
	nextSub int

	startOnce sync.Once
	stopOnce  sync.Once
	stop      chan struct{}
	done      chan struct{}
}

type ProviderOption func(*Provider)

func WithClock(now func() time.Time) ProviderOption {
	return func(p *Provider) { p.now = now }
}

func WithSweepInterval(d time.Duration) ProviderOption {
	return func(p *Provider) { p.sweepInterval = d }
}

func NewProvider(creds Credentials, secret []byte, ttl time.Duration, opts ...ProviderOption) *Provider {
	p := &Provider{
		creds:         creds,
		secret:        secret,
		ttl:           ttl,
		sweepInterval: time.Minute,
		now:           time.Now,
		logger:        log.With().Str("component", "sessionProvider").Logger(),
		sessions:      make(map[string]Session),
		subs:          make(map[int]func(Event)),
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	if !creds.configured() {
		p.logger.Warn().Msg("ADMIN_USERNAME and ADMIN_PASSWORD are not set, admin login is disabled")
	}
	return p
}

// NewProviderFromConfig reads ADMIN_USERNAME, ADMIN_PASSWORD or ADMIN_PASSWORD_HASH,
// SESSION_SECRET, SESSION_TTL and SESSION_SWEEP_INTERVAL. Without a SESSION_SECRET a
// random one is generated, so sessions do not survive a restart.
func NewProviderFromConfig(c map[string]string) (*Provider, error) {
	secret := []byte(config.GetString(c, "SESSION_SECRET", ""))
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, errs.NewConfigError("SESSION_SECRET", err)
		}
		log.Warn().Msg("SESSION_SECRET not set, using a random per-process secret")
	}
	return NewProvider(
		Credentials{
			Username:     config.GetString(c, "ADMIN_USERNAME", ""),
			Password:     config.GetString(c, "ADMIN_PASSWORD", ""),
			PasswordHash: config.GetString(c, "ADMIN_PASSWORD_HASH", ""),
		},
		secret,
		config.GetDuration(c, "SESSION_TTL", 24*time.Hour),
		WithSweepInterval(config.GetDuration(c, "SESSION_SWEEP_INTERVAL", time.Minute)),
	), nil
}

// Login checks the credentials and starts a session.
func (p *Provider) Login(ctx context.Context, username, password string) (Session, error) {
	if !p.creds.configured() || !p.creds.match(username, password) {
		p.logger.Warn().Str("username", username).Msg("admin login rejected")
		return Session{}, errs.NewInvalidCredentialsError()
	}

	now := p.now()
	s := Session{
		ID:        uuid.NewString(),
		Username:  username,
		IssuedAt:  now,
		ExpiresAt: now.Add(p.ttl),
	}
	token, err := p.sign(s)
	if err != nil {
		return Session{}, errs.NewInternalErrorWithCause("unable to sign session token", err)
	}
	s.Token = token

	p.mu.Lock()
	p.sessions[s.ID] = s
	p.mu.Unlock()

	p.logger.Info().Str("session", s.ID).Msg("admin logged in")
	p.publish(Event{Type: LoggedIn, Session: s})
	return s, nil
}

func (p *Provider) sign(s Session) (string, error) {
	claims := jwt.RegisteredClaims{
		ID:        s.ID,
		Subject:   s.Username,
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(s.IssuedAt),
		NotBefore: jwt.NewNumericDate(s.IssuedAt),
		ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
}

// Current resolves token to its live session.
func (p *Provider) Current(token string) (Session, error) {
	if token == "" {
		return Session{}, errs.NewMissingTokenError()
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return p.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(p.now),
	)
	if errors.Is(err, jwt.ErrTokenExpired) {
		p.expire(claims.ID)
		return Session{}, errs.NewTokenExpiredError()
	}
	if err != nil {
		return Session{}, errs.NewInvalidTokenError(err)
	}

	p.mu.RLock()
	s, ok := p.sessions[claims.ID]
	p.mu.RUnlock()
	if !ok {
		return Session{}, errs.NewInvalidTokenError(fmt.Errorf("session %s is not active", claims.ID))
	}
	if s.ExpiredAt(p.now()) {
		p.expire(s.ID)
		return Session{}, errs.NewTokenExpiredError()
	}
	return s, nil
}

// Logout ends the session behind token. Unknown or already ended sessions are not an error.
func (p *Provider) Logout(token string) error {
	s, err := p.Current(token)
	if err != nil {
		if errs.IsTokenExpired(err) || errors.Is(err, errs.ErrInvalidToken) {
			return nil
		}
		return err
	}

	p.mu.Lock()
	_, ok := p.sessions[s.ID]
	delete(p.sessions, s.ID)
	p.mu.Unlock()

	if ok {
		p.logger.Info().Str("session", s.ID).Msg("admin logged out")
		p.publish(Event{Type: LoggedOut, Session: s})
	}
	return nil
}

// Active returns the number of live sessions.
func (p *Provider) Active() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.sessions)
}

func (p *Provider) expire(id string) {
	if id == "" {
		return
	}
	p.mu.Lock()
	s, ok := p.sessions[id]
	delete(p.sessions, id)
	p.mu.Unlock()

	if ok {
		p.logger.Info().Str("session", id).Msg("admin session expired")
		p.publish(Event{Type: Expired, Session: s})
	}
}

// Sweep ends every session whose expiry has passed.
func (p *Provider) Sweep() {
	now := p.now()
	var ended []Session

	p.mu.Lock()
	for id, s := range p.sessions {
		if s.ExpiredAt(now) {
			ended = append(ended, s)
			delete(p.sessions, id)
		}
	}
	p.mu.Unlock()

	for _, s := range ended {
		p.logger.Info().Str("session", s.ID).Msg("admin session expired")
		p.publish(Event{Type: Expired, Session: s})
	}
}

// OnChange registers cb for session events. Callbacks run synchronously on the
// goroutine that caused the change. The returned func unsubscribes.
func (p *Provider) OnChange(cb func(Event)) (cancel func()) {
	p.subsMu.Lock()
	id := p.nextSub
	p.nextSub++
	p.subs[id] = cb
	p.subsMu.Unlock()

	return func() {
		p.subsMu.Lock()
		delete(p.subs, id)
		p.subsMu.Unlock()
	}
}

func (p *Provider) publish(ev Event) {
	p.subsMu.RLock()
	cbs := make([]func(Event), 0, len(p.subs))
	for _, cb := range p.subs {
		cbs = append(cbs, cb)
	}
	p.subsMu.RUnlock()

	for _, cb := range cbs {
		cb(ev)
	}
}

// Start runs the expiry sweeper until ctx is done or Teardown is called.
func (p *Provider) Start(ctx context.Context) {
	p.startOnce.Do(func() {
		go func() {
			defer close(p.done)
			ticker := time.NewTicker(p.sweepInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-p.stop:
					return
				case <-ticker.C:
					p.Sweep()
				}
			}
		}()
	})
}

// Teardown stops the sweeper and drops every subscription.
func (p *Provider) Teardown() {
	p.stopOnce.Do(func() {
		close(p.stop)
		started := true
		p.startOnce.Do(func() { started = false })
		if started {
			<-p.done
		}

		p.subsMu.Lock()
		p.subs = make(map[int]func(Event))
		p.subsMu.Unlock()
	})
}
