package http

import (
	"context"
	"net/http"
	"time"

	"github.com/aussiebroadwan/gatekeeper/internal/auth/store"
	"github.com/aussiebroadwan/gatekeeper/pkg/authsdk"
	"github.com/aussiebroadwan/gatekeeper/pkg/httpx"
	"github.com/aussiebroadwan/gatekeeper/pkg/jwtx"
	"github.com/aussiebroadwan/gatekeeper/pkg/slogx"
)

// ReadyzHandler godoc
//
//	@Summary		Readiness probe
//	@Description	503 until the database answers and a signing key is loaded.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse	"status, version, checks"
//	@Failure		503	{object}	authsdk.HealthResponse	"status, version, checks"
//	@Router			/readyz [get].
func ReadyzHandler(version string, st store.Store, keys *jwtx.KeyManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		checks := &authsdk.HealthChecks{
			Database: "ok",
			Signer:   "ok",
		}
		resp := authsdk.HealthResponse{Status: "ok", Version: version, Checks: checks}
		code := http.StatusOK

		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := st.Ping(pingCtx); err != nil {
			slogx.FromContext(ctx).Warn("readiness: database ping failed", "err", err)
			checks.Database = "unavailable"
			resp.Status = "unavailable"
			code = http.StatusServiceUnavailable
		}

		if !keys.IsReady() {
			checks.Signer = "no signing key loaded"
			resp.Status = "unavailable"
			code = http.StatusServiceUnavailable
		}

		httpx.WriteJSON(w, code, resp)
	}
}
