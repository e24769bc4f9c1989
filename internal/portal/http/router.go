package http

import (
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/payslip/internal/portal/service"
	"github.com/aussiebroadwan/payslip/internal/portal/store"
	"github.com/aussiebroadwan/payslip/pkg/httpx"
	"github.com/aussiebroadwan/payslip/pkg/portalsdk"
	"github.com/aussiebroadwan/payslip/pkg/slogx"

	_ "github.com/aussiebroadwan/payslip/api/portal" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	client       *portalsdk.SDKClient
	guard        *service.NavigationGuard
	views        map[string]*template.Template
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store          store.Store
	PayslipService *service.PayslipService
	CSRFService    *service.CSRFService
}

func NewRouter(
	client *portalsdk.SDKClient,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		client:       client,
		guard:        service.NewNavigationGuard(client),
		views:        mustParseViews(),
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
	r.registerViews()
	r.registerPayslips()
	r.registerSession()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Payslip Portal API
//	@version		0.1.0
//	@description	Browser-facing portal in front of the payslip API. Pages are server-rendered;
//	@description	the JSON endpoints below serve scripted clients of the same session.
//	@description
//	@description	Authentication is delegated: the browser's session cookie is forwarded to the
//	@description	payslip API, which decides who the caller is.
//
//	@contact.name	AussieBroadWAN Team
//	@contact.url	https://github.com/aussiebroadwan/payslip
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host			localhost:8080
//	@BasePath		/
//
//	@schemes		http https
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerViews() {
	for _, route := range Routes {
		h := &ViewHandler{
			Route:          route,
			Client:         r.client,
			Render:         r.render,
			PayslipService: r.PayslipService,
			CSRFService:    r.CSRFService,
		}

		// Every view sits behind the navigation guard.
		r.Mux.Handle("GET "+pattern(route.Path),
			httpx.Chain(h,
				httpx.GuardMiddleware(r.guardFor(route)),
				httpx.RateLimitByUser(httpx.PageLimit),
			),
		)
	}
}

func (r *Router) registerPayslips() {
	route, _ := RouteByView("generate-payslips")
	submit := &PayslipSubmitHandler{
		Client:         r.client,
		Render:         r.render,
		PayslipService: r.PayslipService,
		CSRFService:    r.CSRFService,
	}

	// POST /generate-payslips - strict limit by user, each submit sends mail
	r.Mux.Handle("POST "+route.Path,
		httpx.Chain(submit,
			httpx.GuardMiddleware(r.guardFor(route)),
			httpx.RateLimitByUser(httpx.DispatchLimit),
		),
	)

	// GET /api/dispatches - same guard, answered with JSON
	list := &DispatchListHandler{PayslipService: r.PayslipService}
	r.Mux.Handle("GET /api/dispatches",
		httpx.Chain(list,
			httpx.GuardAPIMiddleware(r.guardFor(route)),
			httpx.RateLimitByUser(httpx.PageLimit),
		),
	)
	r.Mux.Handle("GET /api/dispatches/{id}",
		httpx.Chain(http.HandlerFunc(list.HandleGet),
			httpx.GuardAPIMiddleware(r.guardFor(route)),
			httpx.RateLimitByUser(httpx.PageLimit),
		),
	)
}

func (r *Router) registerSession() {
	h := &SessionHandler{Client: r.client}

	r.Mux.Handle("GET /login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
	r.Mux.Handle("GET /logout",
		httpx.Chain(http.HandlerFunc(h.HandleLogout),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - monitoring systems may poll frequently
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
}

// pattern turns a route path into a ServeMux pattern. "/" only matches the
// root itself.
func pattern(path string) string {
	if path == "/" {
		return "/{$}"
	}
	return path
}
