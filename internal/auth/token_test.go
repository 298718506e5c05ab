package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newManager(t *testing.T, clock *fakeClock) *TokenManager {
	t.Helper()
	m, err := NewTokenManager(testSecret, time.Hour, WithClock(clock.Now))
	require.NoError(t, err)
	return m
}

func TestIssueAndVerify_Success(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	m := newManager(t, clock)

	tok, exp, err := m.Issue("a@x.com")
	require.NoError(t, err)
	assert.Equal(t, clock.t.Add(time.Hour), exp)

	claims, err := m.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", claims.Email())
	assert.Equal(t, clock.t, claims.IssuedAt.Time.UTC())
}

func TestVerify_ExpiryWindow(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	m := newManager(t, clock)

	tok, _, err := m.Issue("a@x.com")
	require.NoError(t, err)

	clock.Advance(59 * time.Minute)
	_, err = m.Verify(tok)
	assert.NoError(t, err, "token must still be valid at T+59min")

	clock.Advance(2 * time.Minute)
	_, err = m.Verify(tok)
	assert.ErrorIs(t, err, ErrTokenExpired, "token must be rejected at T+61min")
}

func TestVerify_WrongSecret(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{t: time.Now()}
	m := newManager(t, clock)
	other, err := NewTokenManager([]byte("another-secret-another-secret-xx"), time.Hour, WithClock(clock.Now))
	require.NoError(t, err)

	tok, _, err := other.Issue("a@x.com")
	require.NoError(t, err)

	_, err = m.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_RejectsNoneAlgorithm(t *testing.T) {
	t.Parallel()

	m := newManager(t, &fakeClock{t: time.Now()})
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "a@x.com",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = m.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_RequiresExpiry(t *testing.T) {
	t.Parallel()

	m := newManager(t, &fakeClock{t: time.Now()})
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "a@x.com"}}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	require.NoError(t, err)

	_, err = m.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_RequiresSubject(t *testing.T) {
	t.Parallel()

	m := newManager(t, &fakeClock{t: time.Now()})
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	require.NoError(t, err)

	_, err = m.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_Malformed(t *testing.T) {
	t.Parallel()

	m := newManager(t, &fakeClock{t: time.Now()})
	for _, s := range []string{"", "not.a.jwt", "abc"} {
		_, err := m.Verify(s)
		assert.ErrorIs(t, err, ErrInvalidToken, "input %q", s)
	}
}

func TestNewTokenManager_Validation(t *testing.T) {
	_, err := NewTokenManager(nil, time.Hour)
	assert.Error(t, err)

	_, err = NewTokenManager(testSecret, 0)
	assert.Error(t, err)

	m, err := NewTokenManager(testSecret, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, m.TTL())

	_, _, err = m.Issue("")
	assert.Error(t, err)
}

func TestIdentityContext(t *testing.T) {
	_, ok := IdentityFrom(context.Background())
	assert.False(t, ok)

	ctx := WithIdentity(context.Background(), Identity{Email: "a@x.com"})
	id, ok := IdentityFrom(ctx)
	require.True(t, ok)
	assert.Equal(t, "a@x.com", id.Email)
}
