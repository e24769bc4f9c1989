package http

import (
	"net/http"
	"strconv"

	"github.com/aussiebroadwan/payslip/internal/portal/domain"
	"github.com/aussiebroadwan/payslip/pkg/httpx"
)

// Routes is the portal's view table. Every entry is registered behind the
// navigation guard.
var Routes = []domain.Route{
	{Path: "/", View: "home", RequiresAuth: true},
	{Path: "/generate-payslips", View: "generate-payslips", RequiresAuth: true},
}

// RouteByView looks up a route by its view name.
func RouteByView(view string) (domain.Route, bool) {
	for _, route := range Routes {
		if route.View == view {
			return route, true
		}
	}
	return domain.Route{}, false
}

// guardFor adapts the navigation guard to a request: the browser's cookies
// make up the session, and the requested path plus query is the target.
func (r *Router) guardFor(route domain.Route) httpx.GuardFunc {
	return func(req *http.Request) httpx.GuardDecision {
		session := r.client.NewSessionFromRequest(req)
		d := r.guard.Check(req.Context(), route, req.URL.RequestURI(), session)

		decision := httpx.GuardDecision{Allow: d.Allow, RedirectURL: d.RedirectURL}
		if d.User != nil {
			decision.UserID = strconv.Itoa(d.User.ID)
		}
		return decision
	}
}
