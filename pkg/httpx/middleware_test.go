package httpx_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aussiebroadwan/gatekeeper/pkg/httpx"
	"github.com/aussiebroadwan/gatekeeper/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

type stubValidator map[string]jwtx.Claims

func (s stubValidator) Validate(token string) (jwtx.Claims, error) {
	if c, ok := s[token]; ok {
		return c, nil
	}
	return jwtx.Claims{}, errors.Join(jwtx.ErrExpired, errors.New("stub"))
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer  abc ", "abc", true},
		{"Basic abc", "", false},
		{"Bearer", "", false},
		{"Bearer    ", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", tt.header)
		got, ok := httpx.BearerToken(req)
		require.Equal(t, tt.ok, ok, tt.header)
		require.Equal(t, tt.want, got, tt.header)
	}
}

func TestAuthnAndRequireRole(t *testing.T) {
	v := stubValidator{
		"admin": jwtx.NewIdentityClaims("u1", "admin@example.com", "admin@example.com", []string{"Admin"}),
		"agent": jwtx.NewIdentityClaims("u2", "agent@example.com", "agent@example.com", []string{"Agent"}),
	}

	var gotSub string
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSub = httpx.UserID(r.Context())
		claims, ok := httpx.ClaimsFromContext(r.Context())
		require.True(t, ok)
		require.Equal(t, gotSub, claims.Subject)
		httpx.WriteText(w, http.StatusOK, "ok")
	})

	jwtOnly := httpx.Chain(final, httpx.AuthnMiddleware(v))
	adminOnly := httpx.Chain(final, httpx.AuthnMiddleware(v), httpx.RequireRole("Admin"))

	call := func(h http.Handler, authz string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/secure", nil)
		if authz != "" {
			req.Header.Set("Authorization", authz)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	tests := []struct {
		name    string
		handler http.Handler
		authz   string
		status  int
	}{
		{"jwt only ok", jwtOnly, "Bearer agent", http.StatusOK},
		{"missing header", jwtOnly, "", http.StatusUnauthorized},
		{"wrong scheme", jwtOnly, "Token agent", http.StatusUnauthorized},
		{"invalid token", jwtOnly, "Bearer expired", http.StatusUnauthorized},
		{"admin ok", adminOnly, "Bearer admin", http.StatusOK},
		{"admin forbidden", adminOnly, "Bearer agent", http.StatusForbidden},
		{"admin unauthenticated", adminOnly, "Bearer nope", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := call(tt.handler, tt.authz)
			require.Equal(t, tt.status, rec.Code)

			switch tt.status {
			case http.StatusUnauthorized:
				require.Equal(t, `Bearer error="invalid_token"`, rec.Header().Get("WWW-Authenticate"))
				require.Contains(t, rec.Body.String(), `"unauthenticated"`)
				require.NotContains(t, rec.Body.String(), "expired", "reason must not leak")
			case http.StatusForbidden:
				require.True(t, strings.HasPrefix(rec.Header().Get("WWW-Authenticate"), `Bearer error="insufficient_role"`))
				require.Contains(t, rec.Body.String(), `"forbidden"`)
			}
		})
	}
}

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) httpx.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := httpx.Chain(okHandler, mark("outer"), mark("inner"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, []string{"outer", "inner"}, order)
}

func TestDecodeJSON(t *testing.T) {
	var v struct{ Email string }

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.c"}`))
	require.NoError(t, httpx.DecodeJSON(req, &v))
	require.Equal(t, "a@b.c", v.Email)

	req = httptest.NewRequest(http.MethodPost, "/", nil)
	require.ErrorIs(t, httpx.DecodeJSON(req, &v), httpx.ErrEmptyBody)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":1}`))
	require.Error(t, httpx.DecodeJSON(req, &v))

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{} {}`))
	require.Error(t, httpx.DecodeJSON(req, &v))
}
