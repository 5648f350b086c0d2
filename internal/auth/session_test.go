package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-revise/internal/securestore"
)

type memStore struct {
	mu   sync.Mutex
	m    map[string]string
	fail error
}

func newMemStore() *memStore { return &memStore{m: map[string]string{}} }

func (s *memStore) Get(_ context.Context, k string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return "", s.fail
	}
	v, ok := s.m[k]
	if !ok {
		return "", securestore.ErrNotFound
	}
	return v, nil
}

func (s *memStore) Set(_ context.Context, k, v string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[k] = v
	return nil
}

func (s *memStore) Delete(_ context.Context, k string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, k)
	return nil
}

func token(t *testing.T, sub string, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   sub,
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("whatever"))
	require.NoError(t, err)
	return tok
}

func TestSession_InitWithoutToken(t *testing.T) {
	s := NewSession(newMemStore(), zerolog.Nop())
	require.NoError(t, s.Init(context.Background()))
	assert.False(t, s.IsAuthenticated())
	_, err := s.AccessToken(context.Background())
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestSession_LoginPersistsAndRestores(t *testing.T) {
	ctx := context.Background()
	st := newMemStore()
	tok := token(t, "42", time.Now().Add(time.Hour))

	s := NewSession(st, zerolog.Nop())
	require.NoError(t, s.Login(ctx, tok))
	assert.True(t, s.IsAuthenticated())
	assert.Equal(t, "42", s.Subject())

	restored := NewSession(st, zerolog.Nop())
	require.NoError(t, restored.Init(ctx))
	assert.True(t, restored.IsAuthenticated())
	got, err := restored.AccessToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, tok, got)
}

func TestSession_ExpiredTokenIsNotAuthenticated(t *testing.T) {
	ctx := context.Background()
	st := newMemStore()
	st.m[TokenKey] = token(t, "7", time.Now().Add(-time.Minute))

	s := NewSession(st, zerolog.Nop())
	require.NoError(t, s.Init(ctx))
	assert.False(t, s.IsAuthenticated())
}

func TestSession_OpaqueTokenHasNoExpiry(t *testing.T) {
	s := NewSession(newMemStore(), zerolog.Nop())
	require.NoError(t, s.Login(context.Background(), "opaque"))
	assert.True(t, s.IsAuthenticated())
	assert.Empty(t, s.Subject())
}

func TestSession_StoreFailureMeansNoToken(t *testing.T) {
	st := newMemStore()
	st.fail = errors.New("disk gone")
	s := NewSession(st, zerolog.Nop())
	assert.Error(t, s.Init(context.Background()))
	assert.False(t, s.IsAuthenticated())
}

func TestSession_UnauthorizedLogsOut(t *testing.T) {
	ctx := context.Background()
	st := newMemStore()
	s := NewSession(st, zerolog.Nop())
	require.NoError(t, s.Login(ctx, token(t, "1", time.Now().Add(time.Hour))))

	s.Unauthorized(ctx)
	assert.False(t, s.IsAuthenticated())
	assert.Empty(t, s.Token())
	_, ok := st.m[TokenKey]
	assert.False(t, ok)
}

func TestSession_EmptyLogin(t *testing.T) {
	s := NewSession(newMemStore(), zerolog.Nop())
	assert.ErrorIs(t, s.Login(context.Background(), ""), ErrNoToken)
}
