package portalsdk

import (
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	currentUserPath = "/auth/current-user"
	loginPath       = "/auth/login"
	logoutPath      = "/auth/logout"
	sendPayslipPath = "/api/send-payslip-to-email"
)

// SDKClient is a client for the payslip API. It creates credentialed
// Sessions and builds the browser navigation URLs for login and logout.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client

	// ForwardCookies limits which browser cookies a Session forwards.
	// Empty forwards all of them.
	ForwardCookies []string
}

// NewSDKClient creates a client for the API at baseURL.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// NewSession creates a Session that sends cookies with every request.
func (c *SDKClient) NewSession(cookies []*http.Cookie) *Session {
	return &Session{client: c, cookies: c.filterCookies(cookies)}
}

// NewSessionFromRequest creates a Session carrying the cookies of r.
func (c *SDKClient) NewSessionFromRequest(r *http.Request) *Session {
	return c.NewSession(r.Cookies())
}

// LoginURL is the API's login page. A non-empty redirect is attached as the
// redirect-back parameter, encoded the way encodeURIComponent would.
func (c *SDKClient) LoginURL(redirect string) string {
	u := c.url(loginPath)
	if redirect != "" {
		u += "?redirect=" + encodeComponent(redirect)
	}
	return u
}

// LogoutURL is the API's logout page.
func (c *SDKClient) LogoutURL() string {
	return c.url(logoutPath)
}

func (c *SDKClient) filterCookies(cookies []*http.Cookie) []*http.Cookie {
	if len(c.ForwardCookies) == 0 {
		return cookies
	}

	allowed := make(map[string]struct{}, len(c.ForwardCookies))
	for _, name := range c.ForwardCookies {
		allowed[name] = struct{}{}
	}

	out := make([]*http.Cookie, 0, len(cookies))
	for _, ck := range cookies {
		if _, ok := allowed[ck.Name]; ok {
			out = append(out, ck)
		}
	}
	return out
}

// componentUnescaper undoes what url.QueryEscape does beyond
// encodeURIComponent: '+' for spaces and escaping of !'()*.
var componentUnescaper = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// encodeComponent escapes s the way encodeURIComponent does.
func encodeComponent(s string) string {
	return componentUnescaper.Replace(url.QueryEscape(s))
}
