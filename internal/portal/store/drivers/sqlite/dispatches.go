package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/aussiebroadwan/payslip/internal/portal/domain"
	"github.com/aussiebroadwan/payslip/internal/portal/store"
)

type dispatchesRepo struct {
	db dbtx
}

const dispatchColumns = `id, user_id, user_email, recipient, filename, status, upstream_status, error, created_at`

func (r *dispatchesRepo) CreateDispatch(ctx context.Context, d domain.Dispatch) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO dispatches (`+dispatchColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.UserID, d.UserEmail, d.Recipient, d.Filename,
		string(d.Status), d.UpstreamStatus, d.Error, d.CreatedAt.UnixMilli(),
	)
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return store.ErrAlreadyExists
	}
	return err
}

func (r *dispatchesRepo) GetDispatchByID(ctx context.Context, id string) (domain.Dispatch, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+dispatchColumns+` FROM dispatches WHERE id = ?`, id)

	d, err := scanDispatch(row)
	if err != nil {
		return domain.Dispatch{}, mapNotFound(err)
	}
	return d, nil
}

func (r *dispatchesRepo) ListDispatchesByUser(ctx context.Context, userID int, limit int) ([]domain.Dispatch, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+dispatchColumns+` FROM dispatches
		 WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Dispatch
	for rows.Next() {
		d, err := scanDispatch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *dispatchesRepo) DeleteDispatchesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM dispatches WHERE created_at < ?`, cutoff.UnixMilli())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDispatch(s scanner) (domain.Dispatch, error) {
	var (
		d         domain.Dispatch
		status    string
		createdAt int64
	)
	err := s.Scan(&d.ID, &d.UserID, &d.UserEmail, &d.Recipient, &d.Filename,
		&status, &d.UpstreamStatus, &d.Error, &createdAt)
	if err != nil {
		return domain.Dispatch{}, err
	}
	d.Status = domain.DispatchStatus(status)
	d.CreatedAt = time.UnixMilli(createdAt).UTC()
	return d, nil
}
