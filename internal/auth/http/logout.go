package http

import (
	"net/http"

	"github.com/aussiebroadwan/gatekeeper/internal/auth/service"
	"github.com/aussiebroadwan/gatekeeper/pkg/authsdk"
	"github.com/aussiebroadwan/gatekeeper/pkg/httpx"
	"github.com/aussiebroadwan/gatekeeper/pkg/jwtx"
	"github.com/aussiebroadwan/gatekeeper/pkg/slogx"
)

// LogoutHandler serves POST /auth/logout. It always succeeds from the
// client's point of view; the refresh token is revoked when the caller can
// be identified by cookie or bearer token.
type LogoutHandler struct {
	TokenService *service.TokenService
	Cookies      *SessionCookies
	Validator    jwtx.Validator
}

// ServeHTTP godoc
//
//	@Summary		Log out
//	@Description	Clears the session cookie and revokes the refresh token of the identity named by the cookie or bearer token.
//	@Tags			Session
//	@Produce		json
//	@Success		200	{object}	authsdk.LogoutResponse
//	@Failure		500	{object}	authsdk.ErrorResponse	"server_error"
//	@Router			/auth/logout [post].
func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identityID := ""
	if rec, ok := h.Cookies.Read(r); ok {
		identityID = rec.UserID
	} else if raw, ok := httpx.BearerToken(r); ok {
		if claims, err := h.Validator.Validate(raw); err == nil {
			identityID = claims.Subject
		} else {
			slogx.FromContext(ctx).Info("logout with unusable bearer token", "err", err)
		}
	}

	h.Cookies.Clear(w)

	if err := h.TokenService.Logout(ctx, identityID); err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.LogoutResponse{Message: "Logout successful"})
}
