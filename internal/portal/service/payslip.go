package service

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/aussiebroadwan/payslip/internal/portal/domain"
	"github.com/aussiebroadwan/payslip/internal/portal/store"
	"github.com/aussiebroadwan/payslip/pkg/idx"
	"github.com/aussiebroadwan/payslip/pkg/portalsdk"
	"github.com/aussiebroadwan/payslip/pkg/slogx"
)

// Form fields of the payslip form.
const (
	FieldRecipient = "email"
	FieldPayslip   = "payslip"
)

// PayslipSender submits the payslip form upstream. *portalsdk.Session
// satisfies it.
type PayslipSender interface {
	SendPayslipToEmail(ctx context.Context, form *portalsdk.FormData) (*http.Response, error)
}

// PayslipService forwards payslip submissions and keeps a local record of
// each one.
type PayslipService struct {
	Store store.Store

	// Now defaults to time.Now.
	Now func() time.Time
}

// Send forwards form on behalf of user and records the outcome. Transport
// errors are returned as they came; an answer from the API, accepted or
// not, is reported through the returned Dispatch's Status.
func (s *PayslipService) Send(
	ctx context.Context,
	sender PayslipSender,
	user domain.User,
	form *portalsdk.FormData,
) (domain.Dispatch, error) {
	log := slogx.FromContext(ctx)

	d := domain.Dispatch{
		ID:        idx.New().String(),
		UserID:    user.ID,
		UserEmail: user.Email,
		Recipient: form.Value(FieldRecipient),
		CreatedAt: s.now(),
	}
	if files := form.Files(); len(files) > 0 {
		d.Filename = files[0].Filename
	}

	resp, sendErr := sender.SendPayslipToEmail(ctx, form)
	if sendErr != nil {
		d.Status = domain.DispatchFailed
		d.Error = sendErr.Error()
	} else {
		d.UpstreamStatus = resp.StatusCode
		if err := portalsdk.CheckResponse(resp); err != nil {
			d.Status = domain.DispatchRejected
			d.Error = describeAPIError(err)
		} else {
			d.Status = domain.DispatchSent
		}
		_ = resp.Body.Close()
	}

	if err := s.Store.Dispatches().CreateDispatch(ctx, d); err != nil {
		log.Error("failed to record dispatch", "dispatch_id", d.ID, "err", err)
	}

	log.Info("payslip dispatch",
		"dispatch_id", d.ID,
		"user_id", d.UserID,
		"status", d.Status,
		"upstream_status", d.UpstreamStatus,
	)

	return d, sendErr
}

// Recent lists the user's latest dispatches, newest first.
func (s *PayslipService) Recent(ctx context.Context, userID int, limit int) ([]domain.Dispatch, error) {
	return s.Store.Dispatches().ListDispatchesByUser(ctx, userID, limit)
}

// Get returns one of the user's dispatches. Records of other users are
// reported as store.ErrNotFound.
func (s *PayslipService) Get(ctx context.Context, userID int, id idx.ID) (domain.Dispatch, error) {
	d, err := s.Store.Dispatches().GetDispatchByID(ctx, id.String())
	if err != nil {
		return domain.Dispatch{}, err
	}
	if d.UserID != userID {
		return domain.Dispatch{}, store.ErrNotFound
	}
	return d, nil
}

func (s *PayslipService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func describeAPIError(err error) string {
	var apiErr *portalsdk.APIError
	if errors.As(err, &apiErr) && apiErr.Description != "" {
		return apiErr.Description
	}
	return err.Error()
}
