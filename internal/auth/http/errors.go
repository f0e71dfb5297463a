package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/gatekeeper/internal/auth/domain"
	"github.com/aussiebroadwan/gatekeeper/internal/auth/service"
	"github.com/aussiebroadwan/gatekeeper/pkg/authsdk"
	"github.com/aussiebroadwan/gatekeeper/pkg/httpx"
	"github.com/aussiebroadwan/gatekeeper/pkg/slogx"
)

// writeServiceError maps service errors to API errors. Anything unknown is
// logged and reported as server_error so internals never reach the client.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		authsdk.ErrInvalidCredentials.WriteError(w)
	case errors.Is(err, service.ErrSessionUserAgentMismatch):
		authsdk.ErrSessionUserAgentMismatch.WriteError(w)
	case errors.Is(err, service.ErrSessionInvalid):
		authsdk.ErrSessionInvalid.WriteError(w)
	case errors.Is(err, service.ErrKeyNotFound):
		authsdk.ErrNotFound.WithDescription("signing key not found").WriteError(w)
	case errors.Is(err, service.ErrLastKey):
		authsdk.ErrConflict.WithDescription("cannot retire the last signing key").WriteError(w)
	case errors.Is(err, service.ErrKeyRotationStatic):
		authsdk.ErrConflict.WithDescription(service.ErrKeyRotationStatic.Error()).WriteError(w)
	default:
		slogx.FromContext(r.Context()).Error("request failed", "err", err)
		authsdk.ErrServerError.WriteError(w)
	}
}

// writeDecodeError reports an unreadable JSON body.
func writeDecodeError(w http.ResponseWriter, err error) {
	if errors.Is(err, httpx.ErrEmptyBody) {
		authsdk.ErrInvalidRequest.WithDescription("request body is required").WriteError(w)
		return
	}
	authsdk.ErrInvalidRequest.WithDescription("request body is not valid JSON").WriteError(w)
}

// toSessionResponse renders a bundle with unix-second expiries.
func toSessionResponse(b domain.TokenBundle) authsdk.SessionResponse {
	return authsdk.SessionResponse{
		JWT:                b.AccessToken,
		JWTExpiry:          b.AccessExpiresAt.Unix(),
		Email:              b.Email,
		ID:                 b.UserID,
		RefreshToken:       b.RefreshToken,
		RefreshTokenExpiry: b.RefreshExpiresAt.Unix(),
	}
}
