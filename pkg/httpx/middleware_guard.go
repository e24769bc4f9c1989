package httpx

import (
	"net/http"

	"github.com/aussiebroadwan/payslip/pkg/slogx"
)

// GuardDecision is the outcome of a pre-navigation check.
type GuardDecision struct {
	Allow bool

	// RedirectURL is where the browser is sent when Allow is false.
	RedirectURL string

	// UserID identifies the authenticated user when known.
	UserID string
}

// GuardFunc decides whether a request may reach its view.
type GuardFunc func(r *http.Request) GuardDecision

// GuardMiddleware runs check before every request. Allowed requests continue
// to next; denied ones get a full-page 302 to the decision's RedirectURL and
// next is never called.
func GuardMiddleware(check GuardFunc) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision := check(r)
			if !decision.Allow {
				slogx.FromContext(r.Context()).Info("navigation blocked",
					"target", r.URL.RequestURI(),
					"redirect", decision.RedirectURL,
				)
				NoCache(w)
				http.Redirect(w, r, decision.RedirectURL, http.StatusFound)
				return
			}

			if decision.UserID != "" {
				r = r.WithContext(ContextWithUserID(r.Context(), decision.UserID))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GuardAPIMiddleware is GuardMiddleware for JSON endpoints: a denied request
// gets a 401 error body instead of a redirect.
func GuardAPIMiddleware(check GuardFunc) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision := check(r)
			if !decision.Allow {
				WriteError(w, http.StatusUnauthorized, "unauthenticated", "authentication required")
				return
			}

			if decision.UserID != "" {
				r = r.WithContext(ContextWithUserID(r.Context(), decision.UserID))
			}
			next.ServeHTTP(w, r)
		})
	}
}
