package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/gatekeeper/internal/auth/service"
	"github.com/aussiebroadwan/gatekeeper/internal/auth/store"
	"github.com/aussiebroadwan/gatekeeper/pkg/authsdk"
	"github.com/aussiebroadwan/gatekeeper/pkg/httpx"
	"github.com/aussiebroadwan/gatekeeper/pkg/slogx"
)

type MeHandler struct {
	IdentityService *service.IdentityService
}

// ServeHTTP handles GET /auth/me.
//
//	@Summary		Current identity
//	@Description	Returns the identity behind the bearer token with its roles.
//	@Tags			Session
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.MeResponse
//	@Failure		401	{object}	authsdk.ErrorResponse	"unauthenticated"
//	@Failure		500	{object}	authsdk.ErrorResponse	"server_error"
//	@Router			/auth/me [get].
func (h *MeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := httpx.UserID(ctx)
	if userID == "" {
		authsdk.ErrUnauthenticated.WriteError(w)
		return
	}

	user, err := h.IdentityService.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warn("token for unknown identity", "user_id", userID)
			authsdk.ErrUnauthenticated.WriteError(w)
			return
		}
		log.Error("failed to load identity", "user_id", userID, "err", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	roles := user.Roles
	if roles == nil {
		roles = []string{}
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.MeResponse{
		ID:       user.ID,
		Username: user.Email,
		Email:    user.Email,
		Roles:    roles,
	})
}
