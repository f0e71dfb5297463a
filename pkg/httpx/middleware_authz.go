package httpx

import (
	"net/http"
	"slices"
	"strings"

	"github.com/aussiebroadwan/gatekeeper/pkg/slogx"
)

// RequireRole lets the request through when the caller holds at least one
// of the roles. Must run after AuthnMiddleware.
func RequireRole(roles ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			have := Roles(r.Context())
			for _, want := range roles {
				if slices.Contains(have, want) {
					next.ServeHTTP(w, r)
					return
				}
			}

			slogx.FromContext(r.Context()).Warn("role check failed", "required", roles, "have", have)
			writeBearerRoleError(w, roles...)
		})
	}
}

// RFC 6750 style 403 naming the roles that would have been accepted.
func writeBearerRoleError(w http.ResponseWriter, roles ...string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="insufficient_role", role="`+strings.Join(roles, " ")+`"`)
	WriteError(w, http.StatusForbidden, "forbidden", "insufficient role")
}
