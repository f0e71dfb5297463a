package authsdk

import (
	"context"
	"net/http"
	"sync"
)

// Session holds the current token pair of an authenticated client. It is
// safe for concurrent use; a Renewer swaps the bundle in place.
type Session struct {
	client *SDKClient

	mu     sync.RWMutex
	bundle SessionResponse
}

// Bundle returns a copy of the current session bundle.
func (s *Session) Bundle() SessionResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bundle
}

// AccessToken returns the current access token.
func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bundle.JWT
}

// RefreshToken returns the current refresh token.
func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bundle.RefreshToken
}

// Replace swaps the bundle, e.g. after a renewal done elsewhere.
func (s *Session) Replace(bundle SessionResponse) {
	s.mu.Lock()
	s.bundle = bundle
	s.mu.Unlock()
}

// Renew presents the current bundle to /auth/renew-session and stores the
// result. On failure the session is left untouched.
func (s *Session) Renew(ctx context.Context) (SessionResponse, error) {
	next, err := s.client.RenewSession(ctx, RenewRequestFor(s.Bundle()))
	if err != nil {
		return SessionResponse{}, err
	}
	s.Replace(*next)
	return *next, nil
}

// Me returns the identity behind the access token.
func (s *Session) Me(ctx context.Context) (*MeResponse, error) {
	return sessionJSON[MeResponse](ctx, s, call{method: http.MethodGet, path: "/auth/me"})
}

// Get calls a bearer-protected endpoint that answers with plain text, such
// as /secure/jwt-only.
func (s *Session) Get(ctx context.Context, path string) (string, error) {
	cl, err := s.authorize(call{method: http.MethodGet, path: path})
	if err != nil {
		return "", err
	}
	raw, err := s.client.send(ctx, cl)
	return string(raw), err
}

// Logout revokes the refresh token server side and clears the bundle.
func (s *Session) Logout(ctx context.Context) error {
	if _, err := sessionJSON[LogoutResponse](ctx, s, call{method: http.MethodPost, path: "/auth/logout"}); err != nil {
		return err
	}
	s.Replace(SessionResponse{})
	return nil
}
