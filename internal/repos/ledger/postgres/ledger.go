package ledger

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/Erradzan/Bank-Root/internal/repos/ledger"
	"github.com/jackc/pgx/v5/pgconn"
)

var _ ledger.Ledger = (*ledgerRepo)(nil)

type ledgerRepo struct{ db *sql.DB }

func New(db *sql.DB) *ledgerRepo {
	return &ledgerRepo{db: db}
}

func (r *ledgerRepo) Append(tx *sql.Tx, entry ledger.Entry) (int64, error) {
	var id int64

	err := tx.QueryRow(`
		INSERT INTO transactions (reference, from_account_id, to_account_id, amount, type, description)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, entry.Reference, entry.SourceAccountID, entry.TargetAccountID,
		entry.AmountMinor, string(entry.Kind), entry.Memo,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return 0, ledger.ErrDuplicateEntry
		}

		return 0, fmt.Errorf("append entry: %w", err)
	}

	return id, nil
}
