package pgutils

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// WithTx wraps fn in a database transaction: commit when fn returns nil,
// rollback otherwise. fn's error is always part of the returned error, so
// sentinel checks with errors.Is survive the wrapping.
func WithTx(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	err = fn(tx)
	if err != nil {
		rbErr := tx.Rollback()
		if rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return errors.Join(fmt.Errorf("rollback: %w", rbErr), err)
		}

		return err
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}
