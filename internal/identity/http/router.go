package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/agentdeskhq/agentdesk/internal/identity/domain"
	"github.com/agentdeskhq/agentdesk/internal/identity/service"
	"github.com/agentdeskhq/agentdesk/internal/identity/store"
	"github.com/agentdeskhq/agentdesk/pkg/httpx"
	"github.com/agentdeskhq/agentdesk/pkg/jwtx"
	"github.com/agentdeskhq/agentdesk/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	keys         *jwtx.KeySet
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store

	// CookieSecure marks refresh cookies Secure+SameSite=None; leave off
	// only for plain-http development.
	CookieSecure bool

	// FrontendURL is the browser origin federated logins redirect back to.
	FrontendURL string

	BootstrapService *service.BootstrapService
	TokenService     *service.TokenService
	AuthService      *service.AuthService
	UserService      *service.UserService
	InviteService    *service.InviteService
	FederatedService *service.FederatedService
	PresenceService  *service.PresenceService
}

func NewRouter(
	keys *jwtx.KeySet,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		keys:         keys,
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

func (r *Router) ApplyRoutes() {
	r.registerBootstrap()
	r.registerAuth()
	r.registerProfile()
	r.registerFederated()
	r.registerAdmin()
	r.registerSystem()
}

// ServeHTTP implements http.Handler and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerBootstrap() {
	// POST /v1/bootstrap - strict limit by IP (one-time setup endpoint);
	// the handler 404s when no bootstrap token is configured
	r.Mux.Handle("POST /v1/bootstrap",
		httpx.Chain(&BootstrapHandler{Bootstrap: r.BootstrapService},
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerAuth() {
	// POST /v1/auth/signup - strict limit by IP (public account creation)
	r.Mux.Handle("POST /v1/auth/signup",
		httpx.Chain(&SignupHandler{AuthService: r.AuthService, CookieSecure: r.CookieSecure},
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /v1/auth/login - strict limit by IP (brute force prevention)
	r.Mux.Handle("POST /v1/auth/login",
		httpx.Chain(&LoginHandler{AuthService: r.AuthService, CookieSecure: r.CookieSecure},
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /v1/auth/refresh - moderate limit; legitimate clients refresh
	// at most once per access TTL
	r.Mux.Handle("POST /v1/auth/refresh",
		httpx.Chain(&RefreshHandler{AuthService: r.AuthService, CookieSecure: r.CookieSecure},
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// POST /v1/auth/logout - no auth required, clearing a cookie is harmless
	r.Mux.Handle("POST /v1/auth/logout",
		httpx.Chain(&LogoutHandler{CookieSecure: r.CookieSecure},
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerProfile() {
	authn := AuthnMiddleware(r.TokenService, r.UserService)

	r.Mux.Handle("GET /v1/me",
		httpx.Chain(&MeHandler{Presence: r.PresenceService},
			authn,
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)

	r.Mux.Handle("PUT /v1/me/inactive",
		httpx.Chain(&InactiveHandler{Presence: r.PresenceService},
			authn,
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerFederated() {
	// Federated login is optional; without a provider the routes 404.
	if r.FederatedService == nil {
		return
	}

	r.Mux.Handle("GET /v1/oauth/google",
		httpx.Chain(&GoogleBeginHandler{Federated: r.FederatedService},
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)

	r.Mux.Handle("GET /v1/oauth/google/callback",
		httpx.Chain(&GoogleCallbackHandler{
			Federated:    r.FederatedService,
			FrontendURL:  r.FrontendURL,
			CookieSecure: r.CookieSecure,
		},
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerAdmin() {
	authn := AuthnMiddleware(r.TokenService, r.UserService)
	admin := RequireRole(domain.RoleAdmin)

	r.Mux.Handle("GET /v1/users",
		httpx.Chain(&UsersHandler{UserService: r.UserService},
			authn,
			admin,
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)

	r.Mux.Handle("POST /v1/invitations",
		httpx.Chain(&InviteCreateHandler{InviteService: r.InviteService},
			authn,
			admin,
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)

	r.Mux.Handle("GET /v1/invitations/pending-count",
		httpx.Chain(&InviteCountHandler{InviteService: r.InviteService},
			authn,
			admin,
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)

	// Token verification is public: the invitee has no account yet.
	// Strict limit keeps token guessing impractical on top of the
	// 256-bit token space.
	r.Mux.Handle("GET /v1/invitations/{token}",
		httpx.Chain(&InviteVerifyHandler{InviteService: r.InviteService},
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store, r.keys))
}
