package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/vaughan-dsouza/lmsauth/internal/auth"
	"github.com/vaughan-dsouza/lmsauth/internal/logging"
	"github.com/vaughan-dsouza/lmsauth/internal/metrics"
	"github.com/vaughan-dsouza/lmsauth/internal/models"
	"github.com/vaughan-dsouza/lmsauth/internal/service"
	"github.com/vaughan-dsouza/lmsauth/internal/store"
)

type memStore struct {
	mu      sync.Mutex
	nextID  int64
	byEmail map[string]*models.User
	updates int
}

func (m *memStore) Create(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byEmail[u.Email]; ok {
		return store.ErrDuplicateEmail
	}
	m.nextID++
	u.ID = m.nextID
	cp := *u
	m.byEmail[u.Email] = &cp
	return nil
}

func (m *memStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byEmail[email]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memStore) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates++
	return nil
}

type pinger struct{ err error }

func (p pinger) PingContext(ctx context.Context) error { return p.err }

type testServer struct {
	router http.Handler
	users  *memStore
	now    *time.Time
}

func newTestServer(t *testing.T, db Pinger) *testServer {
	t.Helper()
	now := time.Now()
	ts := &testServer{users: &memStore{byEmail: map[string]*models.User{}}, now: &now}

	log := logging.Discard()
	hasher, err := auth.NewHasher(bcrypt.MinCost)
	require.NoError(t, err)
	tokens, err := auth.NewTokenManager([]byte("0123456789abcdef0123456789abcdef"), time.Hour,
		auth.WithClock(func() time.Time { return *ts.now }))
	require.NoError(t, err)

	svc := service.NewAuthService(ts.users, hasher, tokens, log)
	m := metrics.New()
	h, err := NewHandler(svc, m, db, log)
	require.NoError(t, err)

	ts.router = NewRouter(h, svc, m, log)
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, body, token string) (*httptest.ResponseRecorder, map[string]string) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)

	var out map[string]string
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

const registerBody = `{"fullname":"Ada","email":"a@x.com","password":"p1","role":"student"}`

func TestFlow_RegisterLoginProfile(t *testing.T) {
	ts := newTestServer(t, pinger{})

	rec, out := ts.do(t, http.MethodPost, "/api/register", registerBody, "")
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "User registered successfully", out["message"])
	assert.NotContains(t, rec.Body.String(), "p1")

	rec, out = ts.do(t, http.MethodPost, "/api/register", registerBody, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "User already exists", out["error"])
	assert.Len(t, ts.users.byEmail, 1)

	rec, out = ts.do(t, http.MethodPost, "/api/login", `{"email":"a@x.com","password":"p1"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Login successful", out["message"])
	token := out["token"]
	require.NotEmpty(t, token)
	assert.Equal(t, 1, ts.users.updates)

	rec, out = ts.do(t, http.MethodGet, "/api/profile", "", token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]string{"email": "a@x.com", "status": "active"}, out)

	rec, out = ts.do(t, http.MethodGet, "/api/profile", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Unauthorized", out["error"])
}

func TestLogin_SameMessageForUnknownAndWrongPassword(t *testing.T) {
	ts := newTestServer(t, pinger{})
	ts.do(t, http.MethodPost, "/api/register", registerBody, "")

	recA, outA := ts.do(t, http.MethodPost, "/api/login", `{"email":"a@x.com","password":"bad"}`, "")
	recB, outB := ts.do(t, http.MethodPost, "/api/login", `{"email":"nobody@x.com","password":"p1"}`, "")

	assert.Equal(t, http.StatusUnauthorized, recA.Code)
	assert.Equal(t, http.StatusUnauthorized, recB.Code)
	assert.Equal(t, "Invalid email or password", outA["error"])
	assert.Equal(t, outA, outB)
	assert.Equal(t, 0, ts.users.updates)
}

func TestRegister_MissingFields(t *testing.T) {
	ts := newTestServer(t, pinger{})

	for _, body := range []string{
		`{"email":"a@x.com","password":"p1","role":"student"}`,
		`{"fullname":"Ada","password":"p1","role":"student"}`,
		`{"fullname":"Ada","email":"a@x.com","role":"student"}`,
		`{"fullname":"Ada","email":"a@x.com","password":"p1"}`,
		`{}`,
	} {
		rec, out := ts.do(t, http.MethodPost, "/api/register", body, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Equal(t, "All fields are required", out["error"])
	}
	assert.Empty(t, ts.users.byEmail)
}

func TestLogin_MissingFields(t *testing.T) {
	ts := newTestServer(t, pinger{})

	rec, out := ts.do(t, http.MethodPost, "/api/login", `{"email":"a@x.com"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Email and password required", out["error"])
	assert.Equal(t, 0, ts.users.updates)
}

func TestMalformedJSON(t *testing.T) {
	ts := newTestServer(t, pinger{})

	rec, out := ts.do(t, http.MethodPost, "/api/register", `{"email":`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid JSON body", out["error"])
}

func TestRegister_TrailingData(t *testing.T) {
	ts := newTestServer(t, pinger{})

	for _, body := range []string{registerBody + ` trailing`, registerBody + ` {}`} {
		rec, out := ts.do(t, http.MethodPost, "/api/register", body, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Equal(t, "Invalid JSON body", out["error"])
	}
	assert.Empty(t, ts.users.byEmail)
}

func TestRegister_PasswordTooLong(t *testing.T) {
	ts := newTestServer(t, pinger{})
	long := strings.Repeat("a", 73)
	body := `{"fullname":"Ada","email":"a@x.com","password":"` + long + `","role":"student"}`

	rec, out := ts.do(t, http.MethodPost, "/api/register", body, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Password must be at most 72 bytes", out["error"])
	assert.Empty(t, ts.users.byEmail)

	rec, _ = ts.do(t, http.MethodGet, "/metrics", "", "")
	assert.Contains(t, rec.Body.String(), `lmsauth_auth_attempts_total{operation="register",result="validation"} 1`)

	rec, out = ts.do(t, http.MethodPost, "/api/login", `{"email":"a@x.com","password":"`+long+`"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid email or password", out["error"])
}

func TestProfile_TokenExpiry(t *testing.T) {
	ts := newTestServer(t, pinger{})
	ts.do(t, http.MethodPost, "/api/register", registerBody, "")
	_, out := ts.do(t, http.MethodPost, "/api/login", `{"email":"a@x.com","password":"p1"}`, "")
	token := out["token"]

	*ts.now = ts.now.Add(59 * time.Minute)
	rec, _ := ts.do(t, http.MethodGet, "/api/profile", "", token)
	assert.Equal(t, http.StatusOK, rec.Code)

	*ts.now = ts.now.Add(2 * time.Minute)
	rec, out = ts.do(t, http.MethodGet, "/api/profile", "", token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid or expired token", out["error"])
}

func TestProfile_TamperedToken(t *testing.T) {
	ts := newTestServer(t, pinger{})

	rec, _ := ts.do(t, http.MethodGet, "/api/profile", "", "eyJhbGciOiJIUzI1NiJ9.e30.bogus")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDashboard_OptionalAuth(t *testing.T) {
	ts := newTestServer(t, pinger{})
	ts.do(t, http.MethodPost, "/api/register", registerBody, "")
	_, out := ts.do(t, http.MethodPost, "/api/login", `{"email":"a@x.com","password":"p1"}`, "")

	rec, _ := ts.do(t, http.MethodGet, "/dashboard", "", out["token"])
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Signed in as <strong>a@x.com</strong>")

	rec, _ = ts.do(t, http.MethodGet, "/dashboard", "", "not-a-token")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "browsing anonymously")

	rec, _ = ts.do(t, http.MethodGet, "/dashboard", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "browsing anonymously")
}

func TestPages(t *testing.T) {
	ts := newTestServer(t, pinger{})

	for path, want := range map[string]string{
		"/":         "<h1>Welcome</h1>",
		"/register": "<h1>Register</h1>",
		"/login":    "<h1>Login</h1>",
	} {
		rec, _ := ts.do(t, http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Body.String(), want)
	}
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	ts := newTestServer(t, pinger{})

	rec, out := ts.do(t, http.MethodGet, "/nope", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not found", out["error"])

	rec, out = ts.do(t, http.MethodGet, "/api/login", "", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "Method not allowed", out["error"])
}

func TestHealthz(t *testing.T) {
	rec, out := newTestServer(t, pinger{}).do(t, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", out["status"])

	rec, out = newTestServer(t, pinger{err: errors.New("down")}).do(t, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "Database unavailable", out["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, pinger{})
	ts.do(t, http.MethodPost, "/api/register", registerBody, "")

	rec, _ := ts.do(t, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `lmsauth_auth_attempts_total{operation="register",result="success"} 1`)
}
