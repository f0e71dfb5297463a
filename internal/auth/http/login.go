package http

import (
	"net/http"
	"net/mail"
	"strings"

	"github.com/aussiebroadwan/gatekeeper/internal/auth/service"
	"github.com/aussiebroadwan/gatekeeper/pkg/authsdk"
	"github.com/aussiebroadwan/gatekeeper/pkg/httpx"
	"github.com/aussiebroadwan/gatekeeper/pkg/slogx"
)

// LoginHandler serves POST /auth/login and its alias POST /api/auth/get-token.
type LoginHandler struct {
	TokenService *service.TokenService
	Cookies      *SessionCookies
}

// ServeHTTP godoc
//
//	@Summary		Log in
//	@Description	Checks an email and password and issues a session: a short-lived jwt and a refresh token that expires a few minutes before it.
//	@Description	The session is bound to the User-Agent of this request. A signed session cookie is set as well.
//	@Tags			Session
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.LoginRequest	true	"Credentials"
//	@Success		200		{object}	authsdk.SessionResponse	"jwt, jwt_expiry, email, id, refresh_token, refresh_token_expiry"
//	@Failure		400		{object}	authsdk.ErrorResponse	"invalid_request"
//	@Failure		401		{object}	authsdk.ErrorResponse	"invalid_credentials"
//	@Failure		429		{object}	authsdk.ErrorResponse	"rate_limit_exceeded"
//	@Failure		500		{object}	authsdk.ErrorResponse	"server_error"
//	@Header			200		{string}	Cache-Control			"no-store"
//	@Router			/auth/login [post].
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req authsdk.LoginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	if details := validateLogin(req); details != nil {
		authsdk.ErrInvalidRequest.WithDetails(details).WriteError(w)
		return
	}

	bundle, err := h.TokenService.Login(ctx, req.Email, req.Password, r.UserAgent())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if err := h.Cookies.Set(w, bundle, r.UserAgent()); err != nil {
		slogx.FromContext(ctx).Warn("failed to set session cookie", "err", err)
	}

	httpx.WriteJSON(w, http.StatusOK, toSessionResponse(bundle))
}

func validateLogin(req authsdk.LoginRequest) map[string]string {
	details := map[string]string{}

	switch email := strings.TrimSpace(req.Email); {
	case email == "":
		details["email"] = "email is required"
	case !isEmail(email):
		details["email"] = "email is not a valid address"
	}
	if req.Password == "" {
		details["password"] = "password is required"
	}

	if len(details) == 0 {
		return nil
	}
	return details
}

// isEmail accepts a bare address only, no display name.
func isEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}
