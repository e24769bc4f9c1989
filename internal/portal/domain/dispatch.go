package domain

import "time"

type DispatchStatus string

const (
	// DispatchSent means the API accepted the submission (2xx).
	DispatchSent DispatchStatus = "sent"
	// DispatchRejected means the API answered with a non-2xx status.
	DispatchRejected DispatchStatus = "rejected"
	// DispatchFailed means the request never got an answer.
	DispatchFailed DispatchStatus = "failed"
)

// Dispatch is the local audit record of one payslip submission.
type Dispatch struct {
	ID             string
	UserID         int
	UserEmail      string
	Recipient      string
	Filename       string
	Status         DispatchStatus
	UpstreamStatus int    // 0 when there was no answer
	Error          string // empty on success
	CreatedAt      time.Time
}
