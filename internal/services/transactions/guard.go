package transactions

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/Erradzan/Bank-Root/internal/repos/accounts"
)

// authorizeOwner resolves a caller-supplied account number and confirms the
// caller owns it. A missing account and a foreign account both report
// ErrUnauthorized, so rejections never reveal whether the number exists.
// This runs before any lock is taken.
func (s *TransactionService) authorizeOwner(tx *sql.Tx, callerID uint64, number string) (accounts.Account, error) {
	acct, err := s.accounts.GetByNumber(tx, number)
	if err != nil {
		if errors.Is(err, accounts.ErrAccountNotFound) {
			return accounts.Account{}, ErrUnauthorized
		}

		return accounts.Account{}, fmt.Errorf("resolve source account: %w", err)
	}

	if acct.OwnerID != callerID {
		return accounts.Account{}, ErrUnauthorized
	}

	return acct, nil
}
