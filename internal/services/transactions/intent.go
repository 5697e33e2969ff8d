package transactions

import (
	"errors"
	"fmt"

	"github.com/Erradzan/Bank-Root/internal/money"
	"github.com/Erradzan/Bank-Root/internal/repos/ledger"
)

var (
	ErrInvalidKind    = errors.New("invalid transaction kind")
	ErrInvalidTarget  = errors.New("invalid target account")
	ErrTargetNotFound = errors.New("target account not found")
	ErrSourceNotFound = errors.New("source account not found")
	ErrUnauthorized   = errors.New("unauthorized account access")
	ErrTimeout        = errors.New("transaction timed out")
	ErrAborted        = errors.New("transaction aborted")
)

// Intent is the validated description of a requested operation. The HTTP
// layer builds it from the request body; nothing duck-typed reaches the
// engine.
type Intent struct {
	// Reference deduplicates replays via the ledger's unique index.
	// Generated when the caller does not supply an idempotency key.
	Reference    string
	Kind         ledger.Kind
	SourceNumber string
	TargetNumber string
	Amount       money.Money
	Memo         string
}

// Receipt reports the committed unit back to the caller.
type Receipt struct {
	EntryID         int64
	Reference       string
	SourceAccountID *uint64
	TargetAccountID *uint64
	SourceBalance   money.Money
	TargetBalance   *money.Money
}

func (in Intent) validate() error {
	switch in.Kind {
	case ledger.KindDeposit, ledger.KindWithdrawal, ledger.KindTransfer:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidKind, in.Kind)
	}

	if in.Amount.Minor() <= 0 {
		return fmt.Errorf("%w: must be positive", money.ErrInvalidAmount)
	}

	if in.SourceNumber == "" {
		return fmt.Errorf("%w: source account number required", ErrSourceNotFound)
	}

	if in.Kind == ledger.KindTransfer {
		if in.TargetNumber == "" {
			return fmt.Errorf("%w: target account number required", ErrInvalidTarget)
		}
		if in.TargetNumber == in.SourceNumber {
			return fmt.Errorf("%w: cannot transfer to the source account", ErrInvalidTarget)
		}
	}

	return nil
}
