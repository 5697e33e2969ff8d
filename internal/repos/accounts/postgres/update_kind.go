package accounts

import (
	"context"
	"fmt"

	"github.com/Erradzan/Bank-Root/internal/repos/accounts"
)

func (r *accountsRepo) UpdateKind(ctx context.Context, accountID uint64, kind string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts
		SET account_type = $2,
		    updated_at = now()
		WHERE id = $1
	`, accountID, kind)
	if err != nil {
		return fmt.Errorf("update kind: %w", err)
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
