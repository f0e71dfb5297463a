package authsdk

import (
	"context"
	"net/http"
	"net/url"
)

// Key administration. Every call needs a session whose identity holds the
// Admin role; anything else comes back as ErrForbidden.

// RotateKey generates a new signing key, optionally retiring the active ones.
func (s *Session) RotateKey(ctx context.Context, req RotateKeyRequest) (*RotateKeyResponse, error) {
	return sessionJSON[RotateKeyResponse](ctx, s, call{
		method:  http.MethodPost,
		path:    "/v1/keys/rotate",
		payload: req,
	})
}

// ListKeys returns the signing keys that can still verify tokens.
func (s *Session) ListKeys(ctx context.Context) ([]SigningKeyInfo, error) {
	keys, err := sessionJSON[[]SigningKeyInfo](ctx, s, call{method: http.MethodGet, path: "/v1/keys"})
	if err != nil {
		return nil, err
	}
	return *keys, nil
}

// RetireKey stops kid from signing. It keeps verifying for the grace period.
func (s *Session) RetireKey(ctx context.Context, kid string) error {
	cl, err := s.authorize(call{
		method: http.MethodPost,
		path:   "/v1/keys/" + url.PathEscape(kid) + "/retire",
		want:   http.StatusNoContent,
	})
	if err != nil {
		return err
	}
	_, err = s.client.send(ctx, cl)
	return err
}
