package accounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/Erradzan/Bank-Root/internal/repos/accounts"
	"github.com/jackc/pgx/v5/pgconn"
)

func (r *accountsRepo) Create(ctx context.Context, ownerID uint64, kind, number string, openingMinor int64) (accounts.Account, error) {
	var a accounts.Account

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO accounts (user_id, account_type, account_number, balance)
		VALUES ($1, $2, $3, $4)
		RETURNING id, user_id, account_type, account_number, balance, created_at, updated_at
	`, ownerID, kind, number, openingMinor).Scan(
		&a.ID, &a.OwnerID, &a.Kind, &a.Number, &a.BalanceMinor, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return accounts.Account{}, accounts.ErrDuplicateNumber
		}

		return accounts.Account{}, fmt.Errorf("insert account: %w", err)
	}

	return a, nil
}
