package service_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/aussiebroadwan/payslip/internal/portal/domain"
	"github.com/aussiebroadwan/payslip/internal/portal/service"
	"github.com/aussiebroadwan/payslip/internal/portal/store"
	"github.com/aussiebroadwan/payslip/pkg/idx"
	"github.com/stretchr/testify/require"
)

func TestHousekeepingCleanup(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	old := domain.Dispatch{
		ID: idx.NewAt(now.AddDate(0, 0, -100)).String(), UserID: 1,
		Status: domain.DispatchSent, CreatedAt: now.AddDate(0, 0, -100),
	}
	fresh := domain.Dispatch{
		ID: idx.NewAt(now.AddDate(0, 0, -1)).String(), UserID: 1,
		Status: domain.DispatchSent, CreatedAt: now.AddDate(0, 0, -1),
	}
	require.NoError(t, st.Dispatches().CreateDispatch(ctx, old))
	require.NoError(t, st.Dispatches().CreateDispatch(ctx, fresh))

	hk := service.NewHousekeepingService(st, slog.New(slog.NewTextHandler(io.Discard, nil)), time.Hour, 0)
	require.Equal(t, 90*24*time.Hour, hk.Retention)
	hk.Now = func() time.Time { return now }

	hk.Cleanup(ctx)

	_, err := st.Dispatches().GetDispatchByID(ctx, old.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = st.Dispatches().GetDispatchByID(ctx, fresh.ID)
	require.NoError(t, err)
}

func TestHousekeepingStartStop(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	hk := service.NewHousekeepingService(st, slog.New(slog.NewTextHandler(io.Discard, nil)), 10*time.Millisecond, time.Hour)

	hk.Start()
	time.Sleep(30 * time.Millisecond)
	require.NotPanics(t, hk.Stop)
}
