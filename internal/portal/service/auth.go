package service

import (
	"context"
	"fmt"

	"github.com/aussiebroadwan/payslip/internal/portal/domain"
	"github.com/aussiebroadwan/payslip/pkg/portalsdk"
)

// AuthChecker reports who the current browser is. *portalsdk.Session
// satisfies it.
type AuthChecker interface {
	CheckAuth(ctx context.Context) portalsdk.AuthStatus
}

// NavigationURLs builds the API's login and logout pages.
// *portalsdk.SDKClient satisfies it.
type NavigationURLs interface {
	LoginURL(redirect string) string
	LogoutURL() string
}

// checkAuth calls checker, turning a panic into an error so callers can fail
// closed.
func checkAuth(ctx context.Context, checker AuthChecker) (status portalsdk.AuthStatus, err error) {
	defer func() {
		if r := recover(); r != nil {
			status = portalsdk.AuthStatus{}
			err = fmt.Errorf("auth check panicked: %v", r)
		}
	}()
	return checker.CheckAuth(ctx), nil
}

// authenticatedUser returns the user of an authenticated status, nil otherwise.
func authenticatedUser(status portalsdk.AuthStatus) *domain.User {
	if !status.IsAuthenticated || status.User == nil {
		return nil
	}
	return &domain.User{
		ID:    status.User.ID,
		Name:  status.User.Name,
		Email: status.User.Email,
		Role:  status.User.Role,
	}
}
