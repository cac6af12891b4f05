package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/quillworks/pressgate/internal/gateway/ledger"
	"github.com/quillworks/pressgate/internal/gateway/service"
	"github.com/quillworks/pressgate/internal/gateway/store"
	"github.com/quillworks/pressgate/pkg/httpx"
	"github.com/quillworks/pressgate/pkg/slogx"
	"github.com/quillworks/pressgate/pkg/tokenx"
)

// Router holds shared dependencies for HTTP handlers and composes the guard
// pipeline. Mutating routes run, in order: identity resolution, CSRF check,
// replay check, then the business handler, which makes its own fine-grained
// ownership decision. Safe methods skip the CSRF and replay guards inside
// those middlewares.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	codec        *tokenx.Codec
	csrf         *CsrfGuard
	nonces       ledger.Ledger
	replayCfg    ReplayConfig
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store          store.Store
	AuthService    *service.AuthService
	ProjectService *service.ProjectService
}

func NewRouter(
	codec *tokenx.Codec,
	csrf *CsrfGuard,
	nonces ledger.Ledger,
	replayCfg ReplayConfig,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		codec:        codec,
		csrf:         csrf,
		nonces:       nonces,
		replayCfg:    replayCfg,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Global middleware chain; per-route guard chains are added in the
	// register functions.
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerProjects()
	r.registerAdmin()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// guards is the standard pipeline for mutating browser-or-API traffic.
func (r *Router) guards(resolve httpx.Middleware) []httpx.Middleware {
	return []httpx.Middleware{
		resolve,
		r.csrf.Middleware(),
		ReplayGuard(r.nonces, r.replayCfg),
	}
}

func (r *Router) registerAuth() {
	h := &AuthHandler{AuthService: r.AuthService}

	// Credential endpoints are anonymous by definition but still guarded
	// against replay, and strictly rate limited by IP against brute force.
	anonGuards := append(r.guards(httpx.ResolveOptional(r.codec)),
		httpx.RateLimitByIP(httpx.StrictLimit),
	)

	r.Mux.Handle("POST /v1/auth/register",
		httpx.Chain(http.HandlerFunc(h.HandleRegister), anonGuards...))
	r.Mux.Handle("POST /v1/auth/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin), anonGuards...))
	r.Mux.Handle("POST /v1/auth/refresh",
		httpx.Chain(http.HandlerFunc(h.HandleRefresh), anonGuards...))

	r.Mux.Handle("GET /v1/auth/me",
		httpx.Chain(http.HandlerFunc(h.HandleMe),
			httpx.ResolveRequired(r.codec),
			httpx.RateLimitBySubject(httpx.LenientLimit),
		))
}

func (r *Router) registerProjects() {
	h := &ProjectsHandler{ProjectService: r.ProjectService}

	// Listing tolerates anonymous callers, who simply see no projects.
	r.Mux.Handle("GET /v1/projects",
		httpx.Chain(http.HandlerFunc(h.HandleList),
			httpx.ResolveOptional(r.codec),
			httpx.RateLimitBySubject(httpx.LenientLimit),
		))
	r.Mux.Handle("GET /v1/projects/{id}",
		httpx.Chain(http.HandlerFunc(h.HandleGet),
			httpx.ResolveRequired(r.codec),
			httpx.RateLimitBySubject(httpx.LenientLimit),
		))

	mutating := append(r.guards(httpx.ResolveRequired(r.codec)),
		httpx.RateLimitBySubject(httpx.ModerateLimit),
	)
	r.Mux.Handle("POST /v1/projects",
		httpx.Chain(http.HandlerFunc(h.HandleCreate), mutating...))
	r.Mux.Handle("PUT /v1/projects/{id}",
		httpx.Chain(http.HandlerFunc(h.HandleUpdate), mutating...))
	r.Mux.Handle("DELETE /v1/projects/{id}",
		httpx.Chain(http.HandlerFunc(h.HandleDelete), mutating...))
}

func (r *Router) registerAdmin() {
	h := &ProjectsHandler{ProjectService: r.ProjectService}

	// Admin listing sees every project; role is enforced on top of strict
	// resolution.
	r.Mux.Handle("GET /v1/admin/projects",
		httpx.Chain(http.HandlerFunc(h.HandleList),
			httpx.ResolveRequired(r.codec),
			httpx.RequireRole(tokenx.RoleAdmin),
			httpx.RateLimitBySubject(httpx.ModerateLimit),
		))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store, r.nonces))
	r.Mux.Handle("GET /v1/csrf-token", &CsrfTokenHandler{Guard: r.csrf})
}
