package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/gatekeeper/internal/auth/domain"
	"github.com/aussiebroadwan/gatekeeper/internal/auth/service"
	"github.com/aussiebroadwan/gatekeeper/internal/auth/store"
	"github.com/aussiebroadwan/gatekeeper/pkg/httpx"
	"github.com/aussiebroadwan/gatekeeper/pkg/jwtx"
	"github.com/aussiebroadwan/gatekeeper/pkg/slogx"

	_ "github.com/aussiebroadwan/gatekeeper/api/auth" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware
	handler     http.Handler

	codec        *jwtx.Codec
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store

	TokenService       *service.TokenService
	IdentityService    *service.IdentityService
	KeyRotationService *service.KeyRotationService
	Cookies            *SessionCookies

	// Metrics instruments every route and serves /metrics. Optional.
	Metrics *httpx.Metrics
}

func NewRouter(
	codec *jwtx.Codec,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		codec:        codec,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
		Cookies:      &SessionCookies{Codec: codec, Secure: true},
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

// ApplyRoutes registers every route. Call it once, after the services are set.
func (r *Router) ApplyRoutes() {
	r.registerSession()
	r.registerSecure()
	r.registerKeyRotation()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())

	// Metrics must sit directly on the mux to see the matched pattern.
	var h http.Handler = r.Mux
	if r.Metrics != nil {
		h = r.Metrics.Instrument(h)
	}
	r.handler = httpx.Chain(h, r.middlewares...)
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Gatekeeper Authentication Service API
//	@version		0.1.0
//	@description	JWT session authentication: login, silent session renewal and logout.
//	@description
//	@description				Access tokens are HS256 JWTs carrying a kid header. Refresh tokens are opaque, bound to the login User-Agent, and expire a few minutes before their jwt.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/gatekeeper
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if r.handler == nil {
		httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
		return
	}
	r.handler.ServeHTTP(w, req)
}

func (r *Router) registerSession() {
	// Login - strict rate limit by IP + email to slow down credential stuffing
	login := httpx.Chain(&LoginHandler{TokenService: r.TokenService, Cookies: r.Cookies},
		httpx.RateLimitByIPAndJSONField(httpx.StrictLimit, "email"),
	)
	r.Mux.Handle("POST /auth/login", login)
	r.Mux.Handle("POST /api/auth/get-token", login)

	// Renewal - moderate rate limit by IP, callers renew every few minutes
	r.Mux.Handle("POST /auth/renew-session",
		httpx.Chain(&RenewSessionHandler{TokenService: r.TokenService, Cookies: r.Cookies},
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	r.Mux.Handle("POST /auth/logout",
		httpx.Chain(&LogoutHandler{TokenService: r.TokenService, Cookies: r.Cookies, Validator: r.codec},
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	r.Mux.Handle("GET /auth/me",
		httpx.Chain(&MeHandler{IdentityService: r.IdentityService},
			httpx.AuthnMiddleware(r.codec),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerSecure() {
	r.Mux.Handle("GET /secure/jwt-only",
		httpx.Chain(JWTOnlyHandler(),
			httpx.AuthnMiddleware(r.codec),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)

	r.Mux.Handle("GET /secure/admin",
		httpx.Chain(AdminHandler(),
			httpx.AuthnMiddleware(r.codec),
			httpx.RequireRole(domain.RoleAdmin),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerKeyRotation() {
	if r.KeyRotationService == nil {
		return
	}
	h := &KeyRotationHandler{KeyRotationService: r.KeyRotationService}

	admin := func(next http.HandlerFunc) http.Handler {
		return httpx.Chain(next,
			httpx.AuthnMiddleware(r.codec),
			httpx.RequireRole(domain.RoleAdmin),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		)
	}

	r.Mux.Handle("POST /v1/keys/rotate", admin(h.HandleRotate))
	r.Mux.Handle("GET /v1/keys", admin(h.HandleListKeys))
	r.Mux.Handle("POST /v1/keys/{kid}/retire", admin(h.HandleRetireKey))
}

func (r *Router) registerSystem() {
	// Health check endpoints - public limits, monitoring systems poll frequently
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.buildVersion, r.store, r.codec.Keys()),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)

	if r.Metrics != nil {
		r.Mux.Handle("GET /metrics", r.Metrics.Handler())
	}
}
