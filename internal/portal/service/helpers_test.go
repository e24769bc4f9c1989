package service_test

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/aussiebroadwan/payslip/internal/portal/store/drivers/sqlite"
	"github.com/aussiebroadwan/payslip/pkg/portalsdk"
	"github.com/stretchr/testify/require"
)

const apiBase = "https://api.example.com"

// fakeChecker answers CheckAuth with a fixed status, or panics when told to.
type fakeChecker struct {
	status portalsdk.AuthStatus
	panics bool
	calls  atomic.Int32
}

func (f *fakeChecker) CheckAuth(context.Context) portalsdk.AuthStatus {
	f.calls.Add(1)
	if f.panics {
		panic("network down")
	}
	return f.status
}

func adminStatus() portalsdk.AuthStatus {
	return portalsdk.AuthStatus{
		IsAuthenticated: true,
		User:            &portalsdk.User{ID: 1, Name: "A", Email: "a@x.com", Role: "admin"},
	}
}

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	st, err := sqlite.NewStore("file:" + filepath.Join(t.TempDir(), "portal.db") + "?_pragma=busy_timeout(5000)")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())
	return st
}
