package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/tidylist/tidylist/internal/todo/service"
	"github.com/tidylist/tidylist/internal/todo/store"
	"github.com/tidylist/tidylist/pkg/api"
	"github.com/tidylist/tidylist/pkg/httpx"
	"github.com/tidylist/tidylist/pkg/jwtx"
	"github.com/tidylist/tidylist/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	keys         *jwtx.KeySet
	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store       store.Store
	AuthService *service.AuthService
	TodoService *service.TodoService
}

func NewRouter(
	keys *jwtx.KeySet,
	verifier jwtx.Verifier,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		keys:         keys,
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerTodos()
	r.registerSystem()
}

func (r *Router) registerAuth() {
	h := &AuthHandler{AuthService: r.AuthService}

	// Credential endpoints get strict IP limits to slow brute forcing.
	r.Mux.Handle("POST /api/auth/register",
		httpx.Chain(http.HandlerFunc(h.HandleRegister),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /api/auth/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	r.Mux.Handle("GET /api/auth/profile",
		httpx.Chain(http.HandlerFunc(h.HandleProfile),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerTodos() {
	h := &TodosHandler{TodoService: r.TodoService}

	secured := func(handler http.HandlerFunc, limit httpx.RateLimitConfig) http.Handler {
		return httpx.Chain(handler,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(limit),
		)
	}

	r.Mux.Handle("POST /api/todos", secured(h.HandleCreate, httpx.ModerateLimit))
	r.Mux.Handle("GET /api/todos", secured(h.HandleList, httpx.LenientLimit))

	// ServeMux prefers the literal /stats pattern over the {id} wildcard.
	r.Mux.Handle("GET /api/todos/stats", secured(h.HandleStats, httpx.LenientLimit))

	r.Mux.Handle("GET /api/todos/{id}", secured(h.HandleGet, httpx.LenientLimit))
	r.Mux.Handle("PUT /api/todos/{id}", secured(h.HandleUpdate, httpx.ModerateLimit))
	r.Mux.Handle("DELETE /api/todos/{id}", secured(h.HandleDelete, httpx.ModerateLimit))
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.keys),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /.well-known/jwks.json",
		httpx.Chain(JWKSHandler(r.keys),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)

	// "GET /{$}" matches the root exactly; the bare "/" pattern below is
	// the catch-all turning ServeMux's plain-text 404 into the JSON shape.
	r.Mux.Handle("GET /{$}",
		httpx.Chain(InfoHandler(r.buildVersion),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
	r.Mux.HandleFunc("/", func(w http.ResponseWriter, req *http.Request) {
		api.ErrRouteNotFound.WriteError(w)
	})
}
