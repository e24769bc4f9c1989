package portalsdk

import "time"

// User is the identity record returned by the current-user endpoint.
type User struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// AuthStatus is the answer of GET /auth/current-user.
// User is only ever set when IsAuthenticated is true.
type AuthStatus struct {
	IsAuthenticated bool  `json:"isAuthenticated"`
	User            *User `json:"user,omitempty"`
}

// ErrorResponse is the error envelope the API and the portal use.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
	Message          string `json:"message,omitempty"`
}

// HealthResponse is served by the portal's health endpoints.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

type HealthChecks struct {
	Database string `json:"database"`
}

// DispatchResponse reports the outcome of a payslip submission.
type DispatchResponse struct {
	ID             string    `json:"id"`
	Status         string    `json:"status"`
	Recipient      string    `json:"recipient,omitempty"`
	Filename       string    `json:"filename,omitempty"`
	UpstreamStatus int       `json:"upstream_status,omitempty"`
	Error          string    `json:"error,omitempty"`
	CreatedAt      time.Time `json:"created_at,omitzero"`
}
