package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/aussiebroadwan/gatekeeper/internal/auth/domain"
	"github.com/aussiebroadwan/gatekeeper/internal/auth/service"
	"github.com/aussiebroadwan/gatekeeper/pkg/authsdk"
	"github.com/aussiebroadwan/gatekeeper/pkg/httpx"
)

// KeyRotationHandler serves the signing key administration endpoints. All
// of them require the Admin role.
type KeyRotationHandler struct {
	KeyRotationService *service.KeyRotationService
}

// HandleRotate handles POST /v1/keys/rotate
//
//	@Summary		Rotate signing keys
//	@Description	Generate a new HS256 signing key and optionally retire the active ones. Retired keys keep verifying for the grace period.
//	@Description	Not available when keys come from configuration (static or file mode).
//	@Tags			Keys
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.RotateKeyRequest	false	"Rotation options"
//	@Success		200		{object}	authsdk.RotateKeyResponse
//	@Failure		400		{object}	authsdk.ErrorResponse	"invalid_request"
//	@Failure		401		{object}	authsdk.ErrorResponse	"unauthenticated"
//	@Failure		403		{object}	authsdk.ErrorResponse	"forbidden"
//	@Failure		409		{object}	authsdk.ErrorResponse	"conflict - keys are configured statically"
//	@Failure		500		{object}	authsdk.ErrorResponse	"server_error"
//	@Security		BearerAuth
//	@Router			/v1/keys/rotate [post]
func (h *KeyRotationHandler) HandleRotate(w http.ResponseWriter, r *http.Request) {
	var req authsdk.RotateKeyRequest
	if err := httpx.DecodeJSON(r, &req); err != nil && !errors.Is(err, httpx.ErrEmptyBody) {
		writeDecodeError(w, err)
		return
	}

	resp, err := h.KeyRotationService.RotateKey(r.Context(), service.RotateKeyRequest{
		RetireExisting: req.RetireExisting,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.RotateKeyResponse{
		NewKey:      toKeyInfo(resp.NewKey),
		RetiredKeys: toKeyInfos(resp.RetiredKeys),
		ActiveKeys:  resp.ActiveKeys,
	})
}

// HandleListKeys handles GET /v1/keys
//
//	@Summary		List signing keys
//	@Description	List the keys that can still verify tokens, active and retired within their grace period.
//	@Tags			Keys
//	@Produce		json
//	@Success		200	{array}		authsdk.SigningKeyInfo
//	@Failure		401	{object}	authsdk.ErrorResponse	"unauthenticated"
//	@Failure		403	{object}	authsdk.ErrorResponse	"forbidden"
//	@Failure		500	{object}	authsdk.ErrorResponse	"server_error"
//	@Security		BearerAuth
//	@Router			/v1/keys [get]
func (h *KeyRotationHandler) HandleListKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := h.KeyRotationService.ListSigningKeys(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toKeyInfos(keys))
}

// HandleRetireKey handles POST /v1/keys/{kid}/retire
//
//	@Summary		Retire a signing key
//	@Description	Stop a key from signing without generating a new one. The last active key cannot be retired.
//	@Tags			Keys
//	@Produce		json
//	@Param			kid	path	string	true	"Key ID to retire"
//	@Success		204	"No Content - key retired"
//	@Failure		401	{object}	authsdk.ErrorResponse	"unauthenticated"
//	@Failure		403	{object}	authsdk.ErrorResponse	"forbidden"
//	@Failure		404	{object}	authsdk.ErrorResponse	"not_found"
//	@Failure		409	{object}	authsdk.ErrorResponse	"conflict - last active key or static keys"
//	@Failure		500	{object}	authsdk.ErrorResponse	"server_error"
//	@Security		BearerAuth
//	@Router			/v1/keys/{kid}/retire [post]
func (h *KeyRotationHandler) HandleRetireKey(w http.ResponseWriter, r *http.Request) {
	kid := r.PathValue("kid")
	if kid == "" {
		authsdk.ErrInvalidRequest.WithDescription("kid is required").WriteError(w)
		return
	}

	if err := h.KeyRotationService.RetireKey(r.Context(), kid); err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func toKeyInfo(key domain.SigningKey) authsdk.SigningKeyInfo {
	info := authsdk.SigningKeyInfo{
		ID:        key.ID,
		Kid:       key.Kid,
		Algorithm: key.Algorithm,
		CreatedAt: formatTime(key.CreatedAt),
		ExpiresAt: formatTime(key.ExpiresAt),
	}
	if key.RetiredAt != nil {
		s := key.RetiredAt.UTC().Format(time.RFC3339)
		info.RetiredAt = &s
	}
	return info
}

func toKeyInfos(keys []domain.SigningKey) []authsdk.SigningKeyInfo {
	infos := make([]authsdk.SigningKeyInfo, len(keys))
	for i, key := range keys {
		infos[i] = toKeyInfo(key)
	}
	return infos
}

// formatTime leaves unknown times (ephemeral keys) empty.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
