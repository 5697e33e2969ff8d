// Package ledger defines the append-only store of transaction records.
// Entries are immutable: the contract has no update or delete.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var ErrDuplicateEntry = errors.New("duplicate ledger entry")

type Kind string

const (
	KindDeposit    Kind = "deposit"
	KindWithdrawal Kind = "withdrawal"
	KindTransfer   Kind = "transfer"
)

// Entry is one committed balance-affecting operation. SourceAccountID and
// TargetAccountID are nullable, but never both absent: deposits carry only
// the target side, withdrawals only the source side, transfers both.
type Entry struct {
	ID              int64
	Reference       string
	SourceAccountID *uint64
	TargetAccountID *uint64
	AmountMinor     int64
	Kind            Kind
	Memo            string
	CreatedAt       time.Time
}

type Ledger interface {
	// Append inserts the entry inside the caller's transaction and returns
	// the assigned id. A reference collision fails with ErrDuplicateEntry.
	Append(tx *sql.Tx, entry Entry) (int64, error)

	// ListByAccount returns entries touching the account on either side,
	// newest first. Each call is independent; offset paging restarts freely.
	ListByAccount(ctx context.Context, accountID uint64, limit, offset int) ([]Entry, error)

	// ListByOwner returns entries touching any account owned by ownerID.
	ListByOwner(ctx context.Context, ownerID uint64, limit, offset int) ([]Entry, error)
}
