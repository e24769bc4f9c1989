package portalsdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

const (
	ErrorCodeUnauthenticated = "unauthenticated"
	ErrorCodeServerError     = "server_error"
	ErrorCodeUpstreamError   = "upstream_error"
)

var (
	// ErrMissingUser is reported when the API claims a session is
	// authenticated but sends no user with it.
	ErrMissingUser = errors.New("portalsdk: authenticated response without user")

	// ErrNilForm is returned by SendPayslipToEmail when no form is given.
	ErrNilForm = errors.New("portalsdk: nil form")
)

// APIError is a non-2xx answer from the API.
type APIError struct {
	StatusCode  int    `json:"-"`
	Code        string `json:"error"`
	Description string `json:"error_description"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (HTTP %d): %s", e.Code, e.StatusCode, e.Description)
}

// maxErrorBody bounds how much of an error body is read.
const maxErrorBody = 64 << 10

// CheckResponse returns an *APIError when resp is not 2xx, nil otherwise.
// It reads the body on failure but never closes it.
func CheckResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return parseErrorResponse(resp, body)
}

// parseErrorResponse turns an error body into an *APIError, falling back to
// the status text when the body is not the JSON envelope.
func parseErrorResponse(resp *http.Response, body []byte) error {
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil {
		switch {
		case errResp.Error != "":
			return &APIError{
				StatusCode:  resp.StatusCode,
				Code:        errResp.Error,
				Description: errResp.ErrorDescription,
			}
		case errResp.Message != "":
			return &APIError{
				StatusCode:  resp.StatusCode,
				Code:        codeForStatus(resp.StatusCode),
				Description: errResp.Message,
			}
		}
	}

	return &APIError{
		StatusCode:  resp.StatusCode,
		Code:        codeForStatus(resp.StatusCode),
		Description: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}

func codeForStatus(status int) string {
	switch {
	case status == http.StatusUnauthorized:
		return ErrorCodeUnauthenticated
	case status >= 500:
		return ErrorCodeServerError
	default:
		return ErrorCodeUpstreamError
	}
}
