package portalsdk

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/payslip/pkg/slogx"
)

// Session is one browser's credentialed view of the API.
type Session struct {
	client  *SDKClient
	cookies []*http.Cookie
}

// CheckAuth asks the API who the session belongs to. It fails closed: any
// error is logged and reported as an unauthenticated status.
func (s *Session) CheckAuth(ctx context.Context) AuthStatus {
	status, err := s.CurrentUser(ctx)
	if err != nil {
		slogx.FromContext(ctx).Warn("auth check failed", "err", err)
		return AuthStatus{}
	}
	return status
}

// CurrentUser is CheckAuth with the error exposed. The returned status
// always satisfies IsAuthenticated == (User != nil).
func (s *Session) CurrentUser(ctx context.Context) (AuthStatus, error) {
	resp, err := s.doRequest(ctx, http.MethodGet, currentUserPath, nil, map[string]string{
		"Accept": "application/json",
	})
	if err != nil {
		return AuthStatus{}, err
	}

	var status AuthStatus
	if err := decodeJSON(resp, &status); err != nil {
		return AuthStatus{}, err
	}

	if !status.IsAuthenticated {
		return AuthStatus{}, nil
	}
	if status.User == nil {
		return AuthStatus{}, ErrMissingUser
	}
	return status, nil
}

// SendPayslipToEmail posts form to the dispatch endpoint as multipart data.
// Transport errors are returned; any HTTP answer is handed back unread and
// the caller must close its body.
func (s *Session) SendPayslipToEmail(ctx context.Context, form *FormData) (*http.Response, error) {
	if form == nil {
		return nil, ErrNilForm
	}

	body, contentType, err := form.Encode()
	if err != nil {
		return nil, fmt.Errorf("failed to encode form: %w", err)
	}

	return s.doRequest(ctx, http.MethodPost, sendPayslipPath, body, map[string]string{
		"Content-Type": contentType,
	})
}
