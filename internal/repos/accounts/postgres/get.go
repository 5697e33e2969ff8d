package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Erradzan/Bank-Root/internal/repos/accounts"
)

func (r *accountsRepo) GetByID(ctx context.Context, accountID uint64) (accounts.Account, error) {
	var a accounts.Account

	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, account_type, account_number, balance, created_at, updated_at
		FROM accounts
		WHERE id = $1
	`, accountID).Scan(&a.ID, &a.OwnerID, &a.Kind, &a.Number, &a.BalanceMinor, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return accounts.Account{}, accounts.ErrAccountNotFound
		}

		return accounts.Account{}, fmt.Errorf("get account: %w", err)
	}

	return a, nil
}

func (r *accountsRepo) GetByNumber(tx *sql.Tx, number string) (accounts.Account, error) {
	var a accounts.Account

	err := tx.QueryRow(`
		SELECT id, user_id, account_type, account_number, balance, created_at, updated_at
		FROM accounts
		WHERE account_number = $1
	`, number).Scan(&a.ID, &a.OwnerID, &a.Kind, &a.Number, &a.BalanceMinor, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return accounts.Account{}, accounts.ErrAccountNotFound
		}

		return accounts.Account{}, fmt.Errorf("get account by number: %w", err)
	}

	return a, nil
}

func (r *accountsRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]accounts.Account, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, account_type, account_number, balance, created_at, updated_at
		FROM accounts
		WHERE user_id = $1
		ORDER BY id
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []accounts.Account

	for rows.Next() {
		var a accounts.Account

		err = rows.Scan(&a.ID, &a.OwnerID, &a.Kind, &a.Number, &a.BalanceMinor, &a.CreatedAt, &a.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}

		out = append(out, a)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}

	return out, nil
}
