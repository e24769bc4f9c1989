package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/payslip/internal/portal/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface, implemented by the sqlite driver.
// Repositories hang off it so a transaction can hand out the same ones.
type Store interface {
	Dispatches() Dispatches

	ApplyMigrations() error

	// Tx starts a read/write transaction. The caller MUST Commit or Rollback.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn in a transaction, committing when fn returns nil.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. Nested transactions are not supported.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Dispatches interface {
	// CreateDispatch inserts a record; the id is provided by the caller.
	CreateDispatch(ctx context.Context, d domain.Dispatch) error

	GetDispatchByID(ctx context.Context, id string) (domain.Dispatch, error)

	// ListDispatchesByUser returns the newest records first.
	ListDispatchesByUser(ctx context.Context, userID int, limit int) ([]domain.Dispatch, error)

	// DeleteDispatchesBefore removes records created before cutoff and
	// reports how many went.
	DeleteDispatchesBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
