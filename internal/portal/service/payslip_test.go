package service_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/payslip/internal/portal/domain"
	"github.com/aussiebroadwan/payslip/internal/portal/service"
	"github.com/aussiebroadwan/payslip/internal/portal/store"
	"github.com/aussiebroadwan/payslip/pkg/idx"
	"github.com/aussiebroadwan/payslip/pkg/portalsdk"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	resp *http.Response
	err  error
	got  *portalsdk.FormData
}

func (f *fakeSender) SendPayslipToEmail(_ context.Context, form *portalsdk.FormData) (*http.Response, error) {
	f.got = form
	return f.resp, f.err
}

type trackingBody struct {
	io.Reader
	closed bool
}

func (b *trackingBody) Close() error {
	b.closed = true
	return nil
}

func response(status int, body string) (*http.Response, *trackingBody) {
	b := &trackingBody{Reader: strings.NewReader(body)}
	return &http.Response{StatusCode: status, Body: b}, b
}

func payslipForm() *portalsdk.FormData {
	return portalsdk.NewFormData().
		Add(service.FieldRecipient, "alex@example.com").
		AddFile(service.FieldPayslip, "march.pdf", "application/pdf", strings.NewReader("%PDF-1.4"))
}

func TestPayslipServiceSend(t *testing.T) {
	t.Parallel()

	user := domain.User{ID: 7, Name: "HR", Email: "hr@example.com", Role: "admin"}
	fixed := time.Date(2025, 3, 31, 9, 0, 0, 0, time.UTC)

	t.Run("accepted", func(t *testing.T) {
		st := newTestStore(t)
		svc := &service.PayslipService{Store: st, Now: func() time.Time { return fixed }}
		resp, body := response(http.StatusOK, `{"status":"queued"}`)
		sender := &fakeSender{resp: resp}
		form := payslipForm()

		d, err := svc.Send(context.Background(), sender, user, form)
		require.NoError(t, err)
		require.Same(t, form, sender.got)
		require.True(t, body.closed)

		require.Equal(t, domain.DispatchSent, d.Status)
		require.Equal(t, http.StatusOK, d.UpstreamStatus)
		require.Equal(t, "alex@example.com", d.Recipient)
		require.Equal(t, "march.pdf", d.Filename)
		require.Empty(t, d.Error)

		got, err := st.Dispatches().GetDispatchByID(context.Background(), d.ID)
		require.NoError(t, err)
		require.Equal(t, domain.DispatchSent, got.Status)
		require.Equal(t, 7, got.UserID)
		require.True(t, fixed.Equal(got.CreatedAt))
	})

	t.Run("rejected by the API", func(t *testing.T) {
		st := newTestStore(t)
		svc := &service.PayslipService{Store: st}
		resp, body := response(http.StatusBadRequest, `{"error":"invalid_request","error_description":"email is required"}`)

		d, err := svc.Send(context.Background(), &fakeSender{resp: resp}, user, payslipForm())
		require.NoError(t, err, "an HTTP answer is not a send failure")
		require.True(t, body.closed)
		require.Equal(t, domain.DispatchRejected, d.Status)
		require.Equal(t, http.StatusBadRequest, d.UpstreamStatus)
		require.Equal(t, "email is required", d.Error)
	})

	t.Run("transport failure propagates", func(t *testing.T) {
		st := newTestStore(t)
		svc := &service.PayslipService{Store: st}
		boom := errors.New("connection refused")

		d, err := svc.Send(context.Background(), &fakeSender{err: boom}, user, payslipForm())
		require.ErrorIs(t, err, boom)
		require.Equal(t, domain.DispatchFailed, d.Status)
		require.Zero(t, d.UpstreamStatus)

		list, err := svc.Recent(context.Background(), user.ID, 10)
		require.NoError(t, err)
		require.Len(t, list, 1)
		require.Equal(t, "connection refused", list[0].Error)
	})
}

func TestPayslipServiceRecent(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	svc := &service.PayslipService{Store: st, Now: func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}}

	user := domain.User{ID: 1, Email: "a@x.com"}
	for range 3 {
		resp, _ := response(http.StatusOK, "")
		_, err := svc.Send(context.Background(), &fakeSender{resp: resp}, user, payslipForm())
		require.NoError(t, err)
	}

	list, err := svc.Recent(context.Background(), user.ID, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.True(t, list[0].CreatedAt.After(list[1].CreatedAt))

	others, err := svc.Recent(context.Background(), 99, 10)
	require.NoError(t, err)
	require.Empty(t, others)
}

func TestPayslipServiceGet(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	svc := &service.PayslipService{Store: st}
	owner := domain.User{ID: 1, Email: "a@x.com"}

	resp, _ := response(http.StatusOK, "")
	sent, err := svc.Send(context.Background(), &fakeSender{resp: resp}, owner, payslipForm())
	require.NoError(t, err)
	id, err := idx.Parse(sent.ID)
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), owner.ID, id)
	require.NoError(t, err)
	require.Equal(t, sent.ID, got.ID)
	require.Equal(t, "alex@example.com", got.Recipient)

	_, err = svc.Get(context.Background(), 2, id)
	require.ErrorIs(t, err, store.ErrNotFound, "other users' records stay hidden")

	_, err = svc.Get(context.Background(), owner.ID, idx.New())
	require.ErrorIs(t, err, store.ErrNotFound)
}
