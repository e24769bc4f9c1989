package service

import (
	"context"

	"github.com/aussiebroadwan/payslip/internal/portal/domain"
	"github.com/aussiebroadwan/payslip/pkg/slogx"
)

// Decision is the guard's verdict for one navigation.
type Decision struct {
	Allow bool

	// RedirectURL is the login page to send the browser to when Allow is false.
	RedirectURL string

	// User is set when the guard had to authenticate the viewer.
	User *domain.User
}

// NavigationGuard decides whether a navigation may proceed. It always asks
// the API afresh and never consults an AuthStore.
type NavigationGuard struct {
	urls NavigationURLs
}

// NewNavigationGuard builds login redirects with urls.
func NewNavigationGuard(urls NavigationURLs) *NavigationGuard {
	return &NavigationGuard{urls: urls}
}

// Check evaluates a navigation to route. target is the full path requested
// (path and query) and becomes the redirect-back parameter on denial.
// Routes that do not require auth are allowed without calling checker.
// Errors are treated as "not authenticated".
func (g *NavigationGuard) Check(
	ctx context.Context,
	route domain.Route,
	target string,
	checker AuthChecker,
) Decision {
	if !route.RequiresAuth {
		return Decision{Allow: true}
	}

	status, err := checkAuth(ctx, checker)
	if err != nil {
		slogx.FromContext(ctx).Error("auth guard error", "route", route.Path, "err", err)
		return g.deny(target)
	}

	if user := authenticatedUser(status); user != nil {
		return Decision{Allow: true, User: user}
	}
	return g.deny(target)
}

func (g *NavigationGuard) deny(target string) Decision {
	return Decision{RedirectURL: g.urls.LoginURL(target)}
}
