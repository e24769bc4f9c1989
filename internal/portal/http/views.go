package http

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"net/http"

	"github.com/aussiebroadwan/payslip/internal/portal/domain"
	"github.com/aussiebroadwan/payslip/internal/portal/service"
	"github.com/aussiebroadwan/payslip/pkg/httpx"
	"github.com/aussiebroadwan/payslip/pkg/portalsdk"
	"github.com/aussiebroadwan/payslip/pkg/slogx"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	csrfField     = "csrf_token"
	recentHistory = 10
)

// Page is what every view template is rendered with.
type Page struct {
	View    string
	Auth    domain.AuthState
	IsAdmin bool

	// Payslip form.
	CSRFToken  string
	Email      string
	Dispatches []domain.Dispatch

	Notice string
	Error  string
}

// RenderFunc writes page with the given status.
type RenderFunc func(w http.ResponseWriter, r *http.Request, status int, page Page)

func mustParseViews() map[string]*template.Template {
	views := make(map[string]*template.Template, len(Routes))
	for _, route := range Routes {
		views[route.View] = template.Must(template.ParseFS(templateFS,
			"templates/layout.html",
			"templates/"+route.View+".html",
		))
	}
	return views
}

func (r *Router) render(w http.ResponseWriter, req *http.Request, status int, page Page) {
	log := slogx.FromContext(req.Context())

	tmpl, ok := r.views[page.View]
	if !ok {
		log.Error("unknown view", "view", page.View)
		httpx.WriteError(w, http.StatusInternalServerError, portalsdk.ErrorCodeServerError, "internal server error")
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", page); err != nil {
		log.Error("failed to render view", "view", page.View, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, portalsdk.ErrorCodeServerError, "internal server error")
		return
	}

	httpx.NoCache(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// bootstrapPage creates the page's AuthStore and waits for Init, so nothing
// is rendered before the viewer is known.
func bootstrapPage(w http.ResponseWriter, r *http.Request, client *portalsdk.SDKClient) *service.AuthStore {
	log := slogx.FromContext(r.Context())

	store := service.NewAuthStore(client.NewSessionFromRequest(r), client, redirectNavigator(w, r))
	unsubscribe := store.Subscribe(func(st domain.AuthState) {
		log.Debug("auth state changed",
			"loading", st.Loading,
			"authenticated", st.IsAuthenticated,
			"error", st.Error,
		)
	})
	defer unsubscribe()

	store.Init(r.Context())
	return store
}

func newPage(view string, store *service.AuthStore) Page {
	return Page{
		View:    view,
		Auth:    store.State(),
		IsAdmin: store.HasRole("admin"),
	}
}

// ViewHandler renders one entry of the route table.
type ViewHandler struct {
	Route          domain.Route
	Client         *portalsdk.SDKClient
	Render         RenderFunc
	PayslipService *service.PayslipService
	CSRFService    *service.CSRFService
}

func (h *ViewHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	store := bootstrapPage(w, r, h.Client)
	page := newPage(h.Route.View, store)

	if h.Route.View == "generate-payslips" {
		preparePayslipForm(r.Context(), &page, h.CSRFService, h.PayslipService)
	}

	h.Render(w, r, http.StatusOK, page)
}

// preparePayslipForm issues a fresh form token and loads the viewer's recent
// dispatches. Both are skipped when the page has no user.
func preparePayslipForm(
	ctx context.Context,
	page *Page,
	csrf *service.CSRFService,
	payslips *service.PayslipService,
) {
	user := page.Auth.User
	if user == nil {
		return
	}
	log := slogx.FromContext(ctx)

	if csrf != nil {
		token, err := csrf.Issue(user.ID)
		if err != nil {
			log.Error("failed to issue form token", "err", err)
		}
		page.CSRFToken = token
	}

	if payslips != nil {
		recent, err := payslips.Recent(ctx, user.ID, recentHistory)
		if err != nil {
			log.Error("failed to load recent dispatches", "err", err)
		}
		page.Dispatches = recent
	}
}
