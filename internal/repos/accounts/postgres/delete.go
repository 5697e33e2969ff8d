package accounts

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/Erradzan/Bank-Root/internal/repos/accounts"
	"github.com/jackc/pgx/v5/pgconn"
)

func (r *accountsRepo) Delete(tx *sql.Tx, accountID uint64) error {
	res, err := tx.Exec(`
		DELETE FROM accounts
		WHERE id = $1
	`, accountID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" { // foreign_key_violation
			return accounts.ErrAccountInUse
		}

		return fmt.Errorf("delete account: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if affected == 0 {
		return accounts.ErrAccountNotFound
	}

	return nil
}
