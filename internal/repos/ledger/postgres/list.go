package ledger

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Erradzan/Bank-Root/internal/repos/ledger"
)

func (r *ledgerRepo) ListByAccount(ctx context.Context, accountID uint64, limit, offset int) ([]ledger.Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, reference, from_account_id, to_account_id, amount, type, description, created_at
		FROM transactions
		WHERE from_account_id = $1 OR to_account_id = $1
		ORDER BY id DESC
		LIMIT $2 OFFSET $3
	`, accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list by account: %w", err)
	}

	return scanEntries(rows)
}

func (r *ledgerRepo) ListByOwner(ctx context.Context, ownerID uint64, limit, offset int) ([]ledger.Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT t.id, t.reference, t.from_account_id, t.to_account_id, t.amount, t.type, t.description, t.created_at
		FROM transactions t
		WHERE EXISTS (
			SELECT 1 FROM accounts a
			WHERE a.user_id = $1
			  AND (a.id = t.from_account_id OR a.id = t.to_account_id)
		)
		ORDER BY t.id DESC
		LIMIT $2 OFFSET $3
	`, ownerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list by owner: %w", err)
	}

	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]ledger.Entry, error) {
	defer rows.Close()

	var out []ledger.Entry

	for rows.Next() {
		var (
			e      ledger.Entry
			source sql.NullInt64
			target sql.NullInt64
			kind   string
		)

		err := rows.Scan(&e.ID, &e.Reference, &source, &target, &e.AmountMinor, &kind, &e.Memo, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}

		if source.Valid {
			id := uint64(source.Int64)
			e.SourceAccountID = &id
		}
		if target.Valid {
			id := uint64(target.Int64)
			e.TargetAccountID = &id
		}

		e.Kind = ledger.Kind(kind)

		out = append(out, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}

	return out, nil
}
