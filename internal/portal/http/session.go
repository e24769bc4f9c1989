package http

import (
	"net/http"

	"github.com/aussiebroadwan/payslip/internal/portal/service"
	"github.com/aussiebroadwan/payslip/pkg/httpx"
	"github.com/aussiebroadwan/payslip/pkg/portalsdk"
)

// SessionHandler hands the browser over to the API's login and logout pages.
type SessionHandler struct {
	Client *portalsdk.SDKClient
}

// HandleLogin redirects to the API's login page.
func (h *SessionHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	h.store(w, r).Login()
}

// HandleLogout redirects to the API's logout page. The API clears the
// session; the portal holds nothing to forget.
func (h *SessionHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.store(w, r).Logout()
}

func (h *SessionHandler) store(w http.ResponseWriter, r *http.Request) *service.AuthStore {
	return service.NewAuthStore(h.Client.NewSessionFromRequest(r), h.Client, redirectNavigator(w, r))
}

// redirectNavigator leaves the portal with a full-page 302.
func redirectNavigator(w http.ResponseWriter, r *http.Request) service.Navigator {
	return service.NavigatorFunc(func(url string) {
		httpx.NoCache(w)
		http.Redirect(w, r, url, http.StatusFound)
	})
}
