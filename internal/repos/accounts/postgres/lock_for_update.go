package accounts

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/Erradzan/Bank-Root/internal/repos/accounts"
)

func (r *accountsRepo) LockForUpdate(tx *sql.Tx, accountID uint64) (int64, error) {
	var balance int64

	err := tx.QueryRow(`
		SELECT balance
		FROM accounts
		WHERE id = $1
		FOR UPDATE
	`, accountID).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, accounts.ErrAccountNotFound
		}

		return 0, fmt.Errorf("lock account: %w", err)
	}

	return balance, nil
}
