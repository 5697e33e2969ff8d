// Package accounts provisions and manages accounts. Balance mutation is
// the transaction engine's job; this service only creates, lists, renames
// and deletes accounts.
package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Erradzan/Bank-Root/internal/infra/pgutils"
	"github.com/Erradzan/Bank-Root/internal/repos/accounts"
	pgaccounts "github.com/Erradzan/Bank-Root/internal/repos/accounts/postgres"
)

var ErrNotOwner = errors.New("account does not belong to caller")
var ErrBalanceNotZero = errors.New("account balance must be zero")
var ErrNegativeOpening = errors.New("opening balance cannot be negative")

type AccountService struct {
	db       *sql.DB
	accounts accounts.Accounts
}

func New(dbx *sql.DB) *AccountService {
	return &AccountService{
		db:       dbx,
		accounts: pgaccounts.New(dbx),
	}
}

func (s *AccountService) Create(ctx context.Context, ownerID uint64, kind, number string, openingMinor int64) (accounts.Account, error) {
	if openingMinor < 0 {
		return accounts.Account{}, ErrNegativeOpening
	}

	acct, err := s.accounts.Create(ctx, ownerID, kind, number, openingMinor)
	if err != nil {
		return accounts.Account{}, fmt.Errorf("create account: %w", err)
	}

	return acct, nil
}

func (s *AccountService) List(ctx context.Context, ownerID uint64) ([]accounts.Account, error) {
	out, err := s.accounts.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	return out, nil
}

func (s *AccountService) Get(ctx context.Context, ownerID, accountID uint64) (accounts.Account, error) {
	acct, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return accounts.Account{}, fmt.Errorf("get account: %w", err)
	}

	if acct.OwnerID != ownerID {
		return accounts.Account{}, ErrNotOwner
	}

	return acct, nil
}

func (s *AccountService) Rename(ctx context.Context, ownerID, accountID uint64, kind string) error {
	_, err := s.Get(ctx, ownerID, accountID)
	if err != nil {
		return err
	}

	err = s.accounts.UpdateKind(ctx, accountID, kind)
	if err != nil {
		return fmt.Errorf("rename account: %w", err)
	}

	return nil
}

// Delete removes an account. The balance check and the delete run under
// the row lock so a concurrent deposit cannot slip in between.
func (s *AccountService) Delete(ctx context.Context, ownerID, accountID uint64) error {
	acct, err := s.Get(ctx, ownerID, accountID)
	if err != nil {
		return err
	}

	err = pgutils.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		balance, lerr := s.accounts.LockForUpdate(tx, acct.ID)
		if lerr != nil {
			return fmt.Errorf("lock account: %w", lerr)
		}

		if balance != 0 {
			return ErrBalanceNotZero
		}

		derr := s.accounts.Delete(tx, acct.ID)
		if derr != nil {
			return fmt.Errorf("delete account: %w", derr)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("delete unit: %w", err)
	}

	return nil
}
