package accounts

import (
	"database/sql"
	"fmt"

	"github.com/Erradzan/Bank-Root/internal/repos/accounts"
)

func (r *accountsRepo) ApplyDelta(tx *sql.Tx, accountID uint64, deltaMinor int64) error {
	res, err := tx.Exec(`
		UPDATE accounts
		SET balance = balance + $2,
		    updated_at = now()
		WHERE id = $1
		  AND balance + $2 >= 0
	`, accountID, deltaMinor)
	if err != nil {
		return fmt.Errorf("apply delta: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	// The caller holds the row lock, so the row exists; zero rows means
	// the balance guard refused a debit.
	if affected == 0 {
		return accounts.ErrInsufficientFunds
	}

	return nil
}
