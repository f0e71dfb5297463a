package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/gatekeeper/internal/auth/domain"
	"github.com/aussiebroadwan/gatekeeper/internal/auth/service"
	"github.com/aussiebroadwan/gatekeeper/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/gatekeeper/pkg/authsdk"
	"github.com/aussiebroadwan/gatekeeper/pkg/cryptox"
	"github.com/aussiebroadwan/gatekeeper/pkg/httpx"
	"github.com/aussiebroadwan/gatekeeper/pkg/idx"
	"github.com/aussiebroadwan/gatekeeper/pkg/jwtx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

const (
	testUserAgent = "router-test/1.0"
	adminEmail    = "admin@example.com"
	adminPassword = "password"
	agentEmail    = "agent@example.com"
	agentPassword = "agent-password"
)

func TestMain(m *testing.M) {
	cryptox.SetPepper("router-test-pepper")
	os.Exit(m.Run())
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testServer struct {
	router *Router
	clock  *testClock
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	clock := &testClock{now: time.Now().UTC().Add(time.Minute).Truncate(time.Second)}

	seed := service.DefaultSeed()
	seed.AdminPassword = adminPassword
	_, err = (&service.SeedService{Store: st, Now: clock.Now}).EnsureAdmin(ctx, seed)
	require.NoError(t, err)
	createAgent(t, st, clock.Now())

	km, err := jwtx.NewEphemeralKeyManager()
	require.NoError(t, err)
	codec := jwtx.NewCodec(km, jwtx.CodecOptions{
		Issuer:           "https://auth.test",
		Audience:         []string{"gatekeeper-test"},
		ValidateIssuer:   true,
		ValidateAudience: true,
		Now:              clock.Now,
	})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := NewRouter(codec, "test", st, logger)
	r.Cookies.Secure = false
	r.TokenService = &service.TokenService{
		Store:         st,
		Codec:         codec,
		Tokens:        &service.TokenStoreService{Store: st, Now: clock.Now},
		Issuer:        "https://auth.test",
		Audience:      []string{"gatekeeper-test"},
		AccessTTL:     jwtx.DefaultAccessTokenTTL,
		RefreshMargin: jwtx.DefaultRefreshMargin,
	}
	r.IdentityService = &service.IdentityService{Store: st}
	r.KeyRotationService = &service.KeyRotationService{KeyManager: km, Now: clock.Now}
	r.Metrics = httpx.NewMetrics(prometheus.NewRegistry())
	r.ApplyRoutes()

	return &testServer{router: r, clock: clock}
}

// createAgent adds an identity holding only the Agent role.
func createAgent(t *testing.T, st *sqlite.Store, now time.Time) {
	t.Helper()
	ctx := context.Background()

	hash, err := cryptox.HashPassword(agentPassword)
	require.NoError(t, err)

	u := domain.User{
		ID:              idx.NewAt(now).String(),
		Email:           agentEmail,
		NormalizedEmail: domain.NormalizeEmail(agentEmail),
		DisplayName:     "Agent",
		PasswordHash:    hash,
		Active:          true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	require.NoError(t, st.Users().CreateUser(ctx, u))

	role, err := st.Roles().GetRoleByName(ctx, domain.NormalizeRoleName(domain.RoleAgent))
	require.NoError(t, err)
	require.NoError(t, st.Roles().AssignRole(ctx, u.ID, role.ID))
}

type reqOpt func(*http.Request)

func withBearer(token string) reqOpt {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func withUserAgent(ua string) reqOpt {
	return func(r *http.Request) { r.Header.Set("User-Agent", ua) }
}

func withCookie(c *http.Cookie) reqOpt {
	return func(r *http.Request) { r.AddCookie(c) }
}

func (s *testServer) do(t *testing.T, method, path string, body any, opts ...reqOpt) *httptest.ResponseRecorder {
	t.Helper()

	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rdr = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rdr = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, rdr)
	if rdr != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("User-Agent", testUserAgent)
	for _, opt := range opts {
		opt(req)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) login(t *testing.T, email, password string) (authsdk.SessionResponse, *http.Cookie) {
	t.Helper()

	rec := s.do(t, http.MethodPost, "/auth/login", authsdk.LoginRequest{Email: email, Password: password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp authsdk.SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp, sessionCookie(t, rec)
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookieName {
			return c
		}
	}
	t.Fatalf("no %s cookie in response", SessionCookieName)
	return nil
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body authsdk.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body.Error
}

func TestLoginThenJWTOnly(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	sess, cookie := s.login(t, adminEmail, adminPassword)
	require.NotEmpty(t, sess.JWT)
	require.NotEmpty(t, sess.RefreshToken)
	require.NotEmpty(t, sess.ID)
	require.Equal(t, adminEmail, sess.Email)
	require.Equal(t, sess.JWTExpiry-int64(jwtx.DefaultRefreshMargin/time.Second), sess.RefreshTokenExpiry)

	require.True(t, cookie.HttpOnly)
	require.Equal(t, "/", cookie.Path)
	require.Equal(t, http.SameSiteLaxMode, cookie.SameSite)

	rec := s.do(t, http.MethodGet, "/secure/jwt-only", nil, withBearer(sess.JWT))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "This endpoint requires a JWT.", rec.Body.String())

	rec = s.do(t, http.MethodGet, "/secure/jwt-only", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, authsdk.ErrorCodeUnauthenticated, errorCode(t, rec))
	require.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))
}

func TestSessionCookieIsNotABearerToken(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	_, cookie := s.login(t, adminEmail, adminPassword)

	rec := s.do(t, http.MethodGet, "/secure/jwt-only", nil, withBearer(cookie.Value))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, authsdk.ErrorCodeUnauthenticated, errorCode(t, rec))
}

func TestLoginAlias(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/auth/get-token", authsdk.LoginRequest{Email: adminEmail, Password: adminPassword})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestLoginRejections(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	tests := []struct {
		name   string
		body   any
		status int
		code   string
	}{
		{"empty body", nil, http.StatusBadRequest, authsdk.ErrorCodeInvalidRequest},
		{"not json", "{", http.StatusBadRequest, authsdk.ErrorCodeInvalidRequest},
		{"missing password", authsdk.LoginRequest{Email: adminEmail}, http.StatusBadRequest, authsdk.ErrorCodeInvalidRequest},
		{"bad email", authsdk.LoginRequest{Email: "not-an-email", Password: "x"}, http.StatusBadRequest, authsdk.ErrorCodeInvalidRequest},
		{"wrong password", authsdk.LoginRequest{Email: adminEmail, Password: "nope"}, http.StatusUnauthorized, authsdk.ErrorCodeInvalidCredentials},
		{"unknown email", authsdk.LoginRequest{Email: "ghost@example.com", Password: "nope"}, http.StatusUnauthorized, authsdk.ErrorCodeInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/auth/login", tt.body)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			require.Equal(t, tt.code, errorCode(t, rec))
		})
	}

	rec := s.do(t, http.MethodPost, "/auth/login", authsdk.LoginRequest{Email: "bad"})
	var body authsdk.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Contains(t, body.Details, "email")
	require.Contains(t, body.Details, "password")
}

func TestAdminRoute(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	admin, _ := s.login(t, adminEmail, adminPassword)
	rec := s.do(t, http.MethodGet, "/secure/admin", nil, withBearer(admin.JWT))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Hello, Admin!", rec.Body.String())

	agent, _ := s.login(t, agentEmail, agentPassword)
	rec = s.do(t, http.MethodGet, "/secure/admin", nil, withBearer(agent.JWT))
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, authsdk.ErrorCodeForbidden, errorCode(t, rec))
}

func TestMe(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	sess, _ := s.login(t, adminEmail, adminPassword)
	rec := s.do(t, http.MethodGet, "/auth/me", nil, withBearer(sess.JWT))
	require.Equal(t, http.StatusOK, rec.Code)

	var me authsdk.MeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	require.Equal(t, sess.ID, me.ID)
	require.Equal(t, adminEmail, me.Email)
	require.ElementsMatch(t, []string{domain.RoleAdmin, domain.RoleAgent}, me.Roles)
}

func TestRenewAfterRefreshExpiry(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	sess, _ := s.login(t, adminEmail, adminPassword)

	// Past the refresh expiry, still inside the jwt lifetime.
	s.clock.Advance(jwtx.DefaultAccessTokenTTL - jwtx.DefaultRefreshMargin + time.Minute)

	// PascalCase keys, as sent by older clients.
	body := map[string]any{
		"Email":              sess.Email,
		"Jwt":                sess.JWT,
		"RefreshToken":       sess.RefreshToken,
		"RefreshTokenExpiry": sess.RefreshTokenExpiry,
		"Id":                 sess.ID,
	}
	rec := s.do(t, http.MethodPost, "/auth/renew-session", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var next authsdk.SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &next))
	require.Greater(t, next.RefreshTokenExpiry, sess.RefreshTokenExpiry)
	require.NotEqual(t, sess.RefreshToken, next.RefreshToken)

	rec = s.do(t, http.MethodGet, "/secure/jwt-only", nil, withBearer(next.JWT))
	require.Equal(t, http.StatusOK, rec.Code)

	// The old refresh token was overwritten.
	rec = s.do(t, http.MethodPost, "/auth/renew-session", authsdk.RenewRequestFor(sess))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, authsdk.ErrorCodeSessionInvalid, errorCode(t, rec))
}

func TestRenewRejections(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	sess, _ := s.login(t, adminEmail, adminPassword)

	rec := s.do(t, http.MethodPost, "/auth/renew-session", authsdk.RenewRequestFor(sess), withUserAgent("other-agent/2.0"))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, authsdk.ErrorCodeSessionUserAgentMismatch, errorCode(t, rec))

	bad := authsdk.RenewRequestFor(sess)
	bad.RefreshToken = "forged"
	rec = s.do(t, http.MethodPost, "/auth/renew-session", bad)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, authsdk.ErrorCodeSessionInvalid, errorCode(t, rec))

	missing := authsdk.RenewRequestFor(sess)
	missing.JWT = ""
	rec = s.do(t, http.MethodPost, "/auth/renew-session", missing)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/auth/renew-session", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// Past the jwt expiry nothing renews.
	s.clock.Advance(jwtx.DefaultAccessTokenTTL)
	rec = s.do(t, http.MethodPost, "/auth/renew-session", authsdk.RenewRequestFor(sess))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, authsdk.ErrorCodeSessionInvalid, errorCode(t, rec))
}

func TestRenewFromCookie(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	sess, cookie := s.login(t, adminEmail, adminPassword)

	rec := s.do(t, http.MethodPost, "/auth/renew-session", nil, withCookie(cookie))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var next authsdk.SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &next))
	require.Equal(t, sess.ID, next.ID)
	require.NotEqual(t, cookie.Value, sessionCookie(t, rec).Value)

	tampered := *cookie
	tampered.Value += "x"
	rec = s.do(t, http.MethodPost, "/auth/renew-session", nil, withCookie(&tampered))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogout(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	sess, cookie := s.login(t, adminEmail, adminPassword)

	rec := s.do(t, http.MethodPost, "/auth/logout", nil, withCookie(cookie))
	require.Equal(t, http.StatusOK, rec.Code)

	var out authsdk.LogoutResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Equal(t, "Logout successful", out.Message)
	require.Negative(t, sessionCookie(t, rec).MaxAge)

	rec = s.do(t, http.MethodPost, "/auth/renew-session", authsdk.RenewRequestFor(sess))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, authsdk.ErrorCodeSessionInvalid, errorCode(t, rec))

	// Anonymous logout still answers 200.
	rec = s.do(t, http.MethodPost, "/auth/logout", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestLogoutWithBearer(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	sess, _ := s.login(t, adminEmail, adminPassword)

	rec := s.do(t, http.MethodPost, "/auth/logout", nil, withBearer(sess.JWT))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPost, "/auth/renew-session", authsdk.RenewRequestFor(sess))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestKeyAdministration(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	admin, _ := s.login(t, adminEmail, adminPassword)
	agent, _ := s.login(t, agentEmail, agentPassword)

	rec := s.do(t, http.MethodGet, "/v1/keys", nil, withBearer(agent.JWT))
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodGet, "/v1/keys", nil, withBearer(admin.JWT))
	require.Equal(t, http.StatusOK, rec.Code)
	var keys []authsdk.SigningKeyInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &keys))
	require.Len(t, keys, 1)
	oldKid := keys[0].Kid

	rec = s.do(t, http.MethodPost, "/v1/keys/rotate", authsdk.RotateKeyRequest{RetireExisting: true}, withBearer(admin.JWT))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var rotated authsdk.RotateKeyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rotated))
	require.NotEqual(t, oldKid, rotated.NewKey.Kid)
	require.Len(t, rotated.RetiredKeys, 1)
	require.Equal(t, 1, rotated.ActiveKeys)

	// Tokens signed with the retired key keep working.
	rec = s.do(t, http.MethodGet, "/secure/jwt-only", nil, withBearer(admin.JWT))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPost, "/v1/keys/unknown/retire", nil, withBearer(admin.JWT))
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPost, "/v1/keys/"+rotated.NewKey.Kid+"/retire", nil, withBearer(admin.JWT))
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestSystemRoutes(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/livez", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/readyz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var health authsdk.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	require.Equal(t, "ok", health.Checks.Database)
	require.Equal(t, "ok", health.Checks.Signer)

	rec = s.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `route="GET /readyz"`)

	rec = s.do(t, http.MethodGet, "/swagger/doc.json", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "/auth/renew-session")

	rec = s.do(t, http.MethodGet, "/livez", nil)
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
