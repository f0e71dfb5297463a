package authsdk

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAPIErrorWriteAndParse(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	ErrSessionUserAgentMismatch.WriteError(rec)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, ErrorCodeSessionUserAgentMismatch, body.Error)
	require.NotEmpty(t, body.ErrorDescription)

	err := parseErrorResponse(rec.Result(), rec.Body.Bytes())
	require.ErrorIs(t, err, ErrSessionUserAgentMismatch)
	require.NotErrorIs(t, err, ErrSessionInvalid)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}

func TestParseErrorResponseFallback(t *testing.T) {
	t.Parallel()

	resp := &http.Response{StatusCode: http.StatusBadGateway}
	err := parseErrorResponse(resp, []byte("<html>bad gateway</html>"))

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, ErrorCodeServerError, apiErr.Code)
	require.Equal(t, http.StatusBadGateway, apiErr.StatusCode)

	require.NoError(t, parseErrorResponse(&http.Response{StatusCode: http.StatusOK}, nil))
}

func TestWithDetailsDoesNotMutate(t *testing.T) {
	t.Parallel()

	e := ErrInvalidRequest.WithDetails(map[string]string{"email": "required"})
	require.Equal(t, "required", e.Details["email"])
	require.Nil(t, ErrInvalidRequest.Details)
	require.ErrorIs(t, e, ErrInvalidRequest)
}

func TestLoginAndRenew(t *testing.T) {
	t.Parallel()

	var renewReqID, renewUA, renewCookie string
	var renewBody RenewSessionRequest

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Password != "password" {
			ErrInvalidCredentials.WriteError(w)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "__session", Value: "signed-record", Path: "/", HttpOnly: true})
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(SessionResponse{
			JWT: "jwt-1", JWTExpiry: 2000, Email: req.Email, ID: "id-1",
			RefreshToken: "rt-1", RefreshTokenExpiry: 1700,
		})
	})
	mux.HandleFunc("POST /auth/renew-session", func(w http.ResponseWriter, r *http.Request) {
		renewReqID = r.Header.Get("X-Request-ID")
		renewUA = r.UserAgent()
		if c, err := r.Cookie("__session"); err == nil {
			renewCookie = c.Value
		}
		_ = json.NewDecoder(r.Body).Decode(&renewBody)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(SessionResponse{
			JWT: "jwt-2", JWTExpiry: 4000, Email: renewBody.Email, ID: renewBody.ID,
			RefreshToken: "rt-2", RefreshTokenExpiry: 3700,
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client := NewSDKClient(srv.URL + "/")
	ctx := context.Background()

	_, err := client.Login(ctx, "admin@example.com", "nope")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	session, err := client.AuthenticateWithPassword(ctx, "admin@example.com", "password")
	require.NoError(t, err)
	require.Equal(t, "jwt-1", session.AccessToken())

	next, err := session.Renew(ctx)
	require.NoError(t, err)
	require.Equal(t, "jwt-2", next.JWT)
	require.Equal(t, "rt-2", session.RefreshToken())

	require.Equal(t, RenewSessionRequest{
		Email: "admin@example.com", JWT: "jwt-1", RefreshToken: "rt-1",
		RefreshTokenExpiry: 1700, ID: "id-1",
	}, renewBody)
	require.Len(t, renewReqID, 36)
	require.Equal(t, DefaultUserAgent, renewUA)
	require.Equal(t, "signed-record", renewCookie, "login cookie is sent back on renewal")
}

func TestRenewSessionRequestAcceptsPascalCase(t *testing.T) {
	t.Parallel()

	raw := `{"Email":"a@b.c","Jwt":"j","RefreshToken":"r","RefreshTokenExpiry":42,"Id":"i"}`
	var req RenewSessionRequest
	require.NoError(t, json.Unmarshal([]byte(raw), &req))
	require.Equal(t, RenewSessionRequest{
		Email: "a@b.c", JWT: "j", RefreshToken: "r", RefreshTokenExpiry: 42, ID: "i",
	}, req)
}
