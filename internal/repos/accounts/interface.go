package accounts

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var ErrInsufficientFunds = errors.New("insufficient funds")
var ErrAccountNotFound = errors.New("account not found")
var ErrDuplicateNumber = errors.New("account number already taken")
var ErrAccountInUse = errors.New("account referenced by ledger entries")

type Account struct {
	ID           uint64
	OwnerID      uint64
	Kind         string
	Number       string
	BalanceMinor int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Accounts interface {
	GetByID(ctx context.Context, accountID uint64) (Account, error)
	GetByNumber(tx *sql.Tx, number string) (Account, error)
	ListByOwner(ctx context.Context, ownerID uint64) ([]Account, error)

	// LockForUpdate takes the row lock and returns the current balance.
	// All ApplyDelta calls for the account must happen under this lock.
	LockForUpdate(tx *sql.Tx, accountID uint64) (int64, error)

	// ApplyDelta adds deltaMinor (negative for debits) to the balance and
	// bumps updated_at. A debit that would take the balance below zero
	// fails with ErrInsufficientFunds and writes nothing.
	ApplyDelta(tx *sql.Tx, accountID uint64, deltaMinor int64) error

	Create(ctx context.Context, ownerID uint64, kind, number string, openingMinor int64) (Account, error)
	UpdateKind(ctx context.Context, accountID uint64, kind string) error

	// Delete removes the row; the caller holds the row lock and has
	// verified the balance is zero.
	Delete(tx *sql.Tx, accountID uint64) error
}
