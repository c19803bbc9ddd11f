package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// ErrNotUpdated reports an update that matched no unresolved row, either
// because the record vanished or because another writer resolved it first.
var ErrNotUpdated = errors.New("record not updated")

// UnitOfWork wraps a single transaction.
type UnitOfWork struct {
	store *Store
	tx    *sqlx.Tx
}

// NewUnitOfWork starts a transaction.
func (s *Store) NewUnitOfWork(ctx context.Context) (*UnitOfWork, error) {
	var tx *sqlx.Tx
	err := retryOnBusy(ctx, func() error {
		var beginErr error
		tx, beginErr = s.db.BeginTxx(ctx, nil)
		return beginErr
	})
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &UnitOfWork{store: s, tx: tx}, nil
}

// SetIdentifier writes identifier to recordID. Exactly one unresolved row
// must change.
func (u *UnitOfWork) SetIdentifier(ctx context.Context, recordID string, identifier int64) error {
	if u.tx == nil {
		return errors.New("transaction already completed")
	}
	tmdbID := u.store.column("tmdbId")
	query := u.tx.Rebind(fmt.Sprintf(
		`UPDATE %s SET %s = ? WHERE id = ? AND %s IS NULL`,
		u.store.quotedTable(), tmdbID, tmdbID,
	))
	var affected int64
	err := retryOnBusy(ctx, func() error {
		res, execErr := u.tx.ExecContext(ctx, query, identifier, recordID)
		if execErr != nil {
			return execErr
		}
		affected, execErr = res.RowsAffected()
		return execErr
	})
	if err != nil {
		return fmt.Errorf("update record %s: %w", recordID, err)
	}
	if affected != 1 {
		return fmt.Errorf("%w: record %s matched %d rows", ErrNotUpdated, recordID, affected)
	}
	return nil
}

// Commit commits the transaction.
func (u *UnitOfWork) Commit() error {
	if u.tx == nil {
		return errors.New("transaction already completed")
	}
	err := u.tx.Commit()
	u.tx = nil
	return err
}

// Rollback rolls back the transaction. Safe to call multiple times.
func (u *UnitOfWork) Rollback() error {
	if u.tx == nil {
		return nil
	}
	err := u.tx.Rollback()
	u.tx = nil
	return err
}
