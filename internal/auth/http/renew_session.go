package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/aussiebroadwan/gatekeeper/internal/auth/service"
	"github.com/aussiebroadwan/gatekeeper/pkg/authsdk"
	"github.com/aussiebroadwan/gatekeeper/pkg/httpx"
	"github.com/aussiebroadwan/gatekeeper/pkg/slogx"
)

// RenewSessionHandler serves POST /auth/renew-session.
type RenewSessionHandler struct {
	TokenService *service.TokenService
	Cookies      *SessionCookies
}

// ServeHTTP godoc
//
//	@Summary		Renew a session
//	@Description	Swaps a live session for a new jwt and refresh token. The body carries the current session; with an empty body the session cookie is used.
//	@Description	Renewal works until the jwt expires, even after the refresh token expiry, and only from the User-Agent that logged in.
//	@Tags			Session
//	@Accept			json
//	@Produce		json
//	@Param			X-Request-ID	header		string						false	"Correlation id echoed in logs"
//	@Param			body			body		authsdk.RenewSessionRequest	false	"Current session (keys are case-insensitive)"
//	@Success		200				{object}	authsdk.SessionResponse
//	@Failure		400				{object}	authsdk.ErrorResponse	"invalid_request"
//	@Failure		401				{object}	authsdk.ErrorResponse	"session_invalid or session_user_agent_mismatch"
//	@Failure		500				{object}	authsdk.ErrorResponse	"server_error"
//	@Router			/auth/renew-session [post].
func (h *RenewSessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authsdk.RenewSessionRequest
	err := httpx.DecodeJSON(r, &req)
	switch {
	case errors.Is(err, httpx.ErrEmptyBody):
		rec, ok := h.Cookies.Read(r)
		if !ok {
			authsdk.ErrInvalidRequest.WithDescription("no session in body or cookie").WriteError(w)
			return
		}
		req = authsdk.RenewSessionRequest{
			Email:              rec.Email,
			JWT:                rec.JWT,
			RefreshToken:       rec.RefreshToken,
			RefreshTokenExpiry: rec.RefreshTokenExpiry,
			ID:                 rec.UserID,
		}
		log.Debug("renewing from session cookie")
	case err != nil:
		writeDecodeError(w, err)
		return
	}

	if details := validateRenew(req); details != nil {
		authsdk.ErrInvalidRequest.WithDetails(details).WriteError(w)
		return
	}

	var refreshExpiry time.Time
	if req.RefreshTokenExpiry > 0 {
		refreshExpiry = time.Unix(req.RefreshTokenExpiry, 0)
	}

	bundle, err := h.TokenService.RenewSession(ctx, service.RenewRequest{
		ID:                 req.ID,
		Email:              req.Email,
		JWT:                req.JWT,
		RefreshToken:       req.RefreshToken,
		RefreshTokenExpiry: refreshExpiry,
		UserAgent:          r.UserAgent(),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if err := h.Cookies.Set(w, bundle, r.UserAgent()); err != nil {
		log.Warn("failed to set session cookie", "err", err)
	}

	httpx.WriteJSON(w, http.StatusOK, toSessionResponse(bundle))
}

func validateRenew(req authsdk.RenewSessionRequest) map[string]string {
	details := map[string]string{}
	required := map[string]string{
		"id":           req.ID,
		"email":        req.Email,
		"jwt":          req.JWT,
		"refreshToken": req.RefreshToken,
	}
	for field, v := range required {
		if strings.TrimSpace(v) == "" {
			details[field] = field + " is required"
		}
	}

	if len(details) == 0 {
		return nil
	}
	return details
}
