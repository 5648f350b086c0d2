package auth

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/mind-engage/mindengage-revise/internal/securestore"
)

// TokenKey is where the access token lives in the store.
const TokenKey = "auth.token"

var ErrNoToken = errors.New("auth: no token")

// Session owns the current access token. It is created once at start-up
// and handed to whoever needs it; there is no package-level state.
type Session struct {
	store securestore.Store
	log   zerolog.Logger
	now   func() time.Time

	mu      sync.RWMutex
	token   string
	subject string
	expires time.Time
}

func NewSession(store securestore.Store, log zerolog.Logger) *Session {
	return &Session{store: store, log: log, now: time.Now}
}

// Init restores the persisted token. A missing, unreadable or expired token
// leaves the session unauthenticated; only a store failure is returned.
func (s *Session) Init(ctx context.Context) error {
	tok, err := s.store.Get(ctx, TokenKey)
	if errors.Is(err, securestore.ErrNotFound) {
		s.set("")
		return nil
	}
	if err != nil {
		s.set("")
		return errors.Wrap(err, "restore token")
	}
	s.set(tok)
	if !s.IsAuthenticated() {
		s.log.Info().Msg("persisted token expired")
	}
	return nil
}

// Login persists token and makes it current.
func (s *Session) Login(ctx context.Context, token string) error {
	if token == "" {
		return ErrNoToken
	}
	if err := s.store.Set(ctx, TokenKey, token); err != nil {
		return errors.Wrap(err, "persist token")
	}
	s.set(token)
	s.log.Debug().Str("sub", s.Subject()).Msg("logged in")
	return nil
}

// Logout forgets the token in memory and at rest.
func (s *Session) Logout(ctx context.Context) error {
	s.set("")
	return errors.Wrap(s.store.Delete(ctx, TokenKey), "delete token")
}

// Unauthorized is called by the API client when the server rejects the
// token.
func (s *Session) Unauthorized(ctx context.Context) {
	if s.Token() == "" {
		return
	}
	s.log.Info().Msg("token rejected by server, logging out")
	if err := s.Logout(ctx); err != nil {
		s.log.Warn().Err(err).Msg("logout")
	}
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Subject is the token's sub claim, the user id.
func (s *Session) Subject() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.subject
}

func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return false
	}
	return s.expires.IsZero() || s.now().Before(s.expires)
}

// AccessToken returns the token to send, or ErrNoToken.
func (s *Session) AccessToken(context.Context) (string, error) {
	if !s.IsAuthenticated() {
		return "", ErrNoToken
	}
	return s.Token(), nil
}

func (s *Session) set(token string) {
	var sub string
	var exp time.Time
	if token != "" {
		// signature is the server's business; we only read sub and exp
		claims := &jwt.RegisteredClaims{}
		if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err == nil {
			sub = claims.Subject
			if claims.ExpiresAt != nil {
				exp = claims.ExpiresAt.Time
			}
		}
	}
	s.mu.Lock()
	s.token, s.subject, s.expires = token, sub, exp
	s.mu.Unlock()
}
