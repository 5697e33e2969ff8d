package transactions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/Erradzan/Bank-Root/internal/events"
	"github.com/Erradzan/Bank-Root/internal/infra/pgutils"
	"github.com/Erradzan/Bank-Root/internal/money"
	"github.com/Erradzan/Bank-Root/internal/repos/accounts"
	pgaccounts "github.com/Erradzan/Bank-Root/internal/repos/accounts/postgres"
	"github.com/Erradzan/Bank-Root/internal/repos/ledger"
	pgledger "github.com/Erradzan/Bank-Root/internal/repos/ledger/postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// TransactionService applies deposits, withdrawals and transfers against
// account balances. Each Submit is one all-or-nothing unit of work; the
// service holds no state across calls.
type TransactionService struct {
	db       *sql.DB
	accounts accounts.Accounts
	ledger   ledger.Ledger
	events   events.Publisher
}

// New wires the service against Postgres repos. pub may be nil when no
// event broker is configured.
func New(dbx *sql.DB, pub events.Publisher) *TransactionService {
	return &TransactionService{
		db:       dbx,
		accounts: pgaccounts.New(dbx),
		ledger:   pgledger.New(dbx),
		events:   pub,
	}
}

// Submit runs the full flow in a single DB transaction:
//
// 1) Validate the intent (pure, no I/O).
// 2) Authorize the caller against the source account.
// 3) Lock account rows in ascending id order.
// 4) Apply balance deltas, rejecting before mutation on short funds.
// 5) Append exactly one ledger entry.
//
// Serialization conflicts retry the whole unit once; any failure after
// locking rolls back every balance change.
func (s *TransactionService) Submit(ctx context.Context, callerID uint64, intent Intent) (Receipt, error) {
	err := intent.validate()
	if err != nil {
		return Receipt{}, err
	}

	if intent.Reference == "" {
		intent.Reference = uuid.NewString()
	}

	receipt, err := s.run(ctx, callerID, intent)
	if err != nil && isRetryableConflict(err) {
		slog.Warn("concurrent modification, retrying transaction",
			"reference", intent.Reference)

		receipt, err = s.run(ctx, callerID, intent)
	}
	if err != nil {
		return Receipt{}, s.classify(ctx, err)
	}

	s.publishCompleted(receipt, intent)

	return receipt, nil
}

func (s *TransactionService) run(ctx context.Context, callerID uint64, intent Intent) (Receipt, error) {
	var receipt Receipt

	err := pgutils.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		// 1b) Finish validation: resolve the transfer target by number.
		// Existence only, no ownership check (the recipient need not be
		// the caller), and it reports before the authorization check.
		var target *accounts.Account

		if intent.Kind == ledger.KindTransfer {
			t, terr := s.accounts.GetByNumber(tx, intent.TargetNumber)
			if terr != nil {
				if errors.Is(terr, accounts.ErrAccountNotFound) {
					return ErrTargetNotFound
				}

				return fmt.Errorf("resolve target account: %w", terr)
			}

			target = &t
		}

		// 2) Authorize: the source must belong to the caller.
		source, err := s.authorizeOwner(tx, callerID, intent.SourceNumber)
		if err != nil {
			return err
		}

		// 3) Lock rows in ascending id order so opposing transfers on the
		// same pair can never wait on each other in a cycle.
		balances, err := s.lockOrdered(tx, source, target)
		if err != nil {
			return fmt.Errorf("lock accounts: %w", err)
		}

		// 4) Apply.
		amount := intent.Amount.Minor()
		entry := ledger.Entry{
			Reference:   intent.Reference,
			AmountMinor: amount,
			Kind:        intent.Kind,
			Memo:        intent.Memo,
		}

		switch intent.Kind {
		case ledger.KindDeposit:
			err = s.accounts.ApplyDelta(tx, source.ID, amount)
			if err != nil {
				return fmt.Errorf("credit source: %w", err)
			}

			entry.TargetAccountID = &source.ID
			receipt.SourceBalance = money.FromMinor(balances[source.ID] + amount)

		case ledger.KindWithdrawal:
			// pre-check against the locked balance
			if balances[source.ID] < amount {
				return fmt.Errorf("pre-check debit: %w", accounts.ErrInsufficientFunds)
			}

			err = s.accounts.ApplyDelta(tx, source.ID, -amount)
			if err != nil {
				return fmt.Errorf("debit source: %w", err)
			}

			entry.SourceAccountID = &source.ID
			receipt.SourceBalance = money.FromMinor(balances[source.ID] - amount)

		case ledger.KindTransfer:
			// reject before mutating either account
			if balances[source.ID] < amount {
				return fmt.Errorf("pre-check transfer: %w", accounts.ErrInsufficientFunds)
			}

			err = s.accounts.ApplyDelta(tx, source.ID, -amount)
			if err != nil {
				return fmt.Errorf("debit source: %w", err)
			}

			err = s.accounts.ApplyDelta(tx, target.ID, amount)
			if err != nil {
				return fmt.Errorf("credit target: %w", err)
			}

			entry.SourceAccountID = &source.ID
			entry.TargetAccountID = &target.ID
			receipt.SourceBalance = money.FromMinor(balances[source.ID] - amount)

			tb := money.FromMinor(balances[target.ID] + amount)
			receipt.TargetBalance = &tb

		default:
			return fmt.Errorf("%w: %q", ErrInvalidKind, intent.Kind)
		}

		// 5) Record. A failure here rolls back the balance changes above.
		entryID, err := s.ledger.Append(tx, entry)
		if err != nil {
			return fmt.Errorf("append ledger entry: %w", err)
		}

		receipt.EntryID = entryID
		receipt.Reference = intent.Reference
		receipt.SourceAccountID = entry.SourceAccountID
		receipt.TargetAccountID = entry.TargetAccountID

		return nil
	})
	if err != nil {
		return Receipt{}, err
	}

	return receipt, nil
}

// ListByAccount returns the account's ledger history, newest first
// (no locks; suitable for the GET endpoints).
func (s *TransactionService) ListByAccount(ctx context.Context, accountID uint64, limit, offset int) ([]ledger.Entry, error) {
	entries, err := s.ledger.ListByAccount(ctx, accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list by account: %w", err)
	}

	return entries, nil
}

// ListByOwner returns entries touching any of the owner's accounts.
func (s *TransactionService) ListByOwner(ctx context.Context, ownerID uint64, limit, offset int) ([]ledger.Entry, error) {
	entries, err := s.ledger.ListByOwner(ctx, ownerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list by owner: %w", err)
	}

	return entries, nil
}

// lockOrdered takes FOR UPDATE locks on the involved accounts in ascending
// id order and returns the locked balances.
func (s *TransactionService) lockOrdered(tx *sql.Tx, source accounts.Account, target *accounts.Account) (map[uint64]int64, error) {
	ids := []uint64{source.ID}
	if target != nil {
		ids = append(ids, target.ID)
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	balances := make(map[uint64]int64, len(ids))

	for _, id := range ids {
		bal, err := s.accounts.LockForUpdate(tx, id)
		if err != nil {
			return nil, fmt.Errorf("lock account %d: %w", id, err)
		}

		balances[id] = bal
	}

	return balances, nil
}

// classify maps infrastructure failures onto the stable error taxonomy.
// Domain rejections pass through untouched.
func (s *TransactionService) classify(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, ErrInvalidTarget),
		errors.Is(err, ErrTargetNotFound),
		errors.Is(err, ErrSourceNotFound),
		errors.Is(err, money.ErrInvalidAmount),
		errors.Is(err, accounts.ErrInsufficientFunds),
		errors.Is(err, ledger.ErrDuplicateEntry):
		return err
	case ctx.Err() != nil,
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	default:
		return fmt.Errorf("%w: %w", ErrAborted, err)
	}
}

func (s *TransactionService) publishCompleted(receipt Receipt, intent Intent) {
	if s.events == nil {
		return
	}

	evt := events.TransactionCompleted{
		EntryID:         receipt.EntryID,
		Reference:       receipt.Reference,
		Kind:            string(intent.Kind),
		SourceAccountID: receipt.SourceAccountID,
		TargetAccountID: receipt.TargetAccountID,
		Amount:          intent.Amount.String(),
		OccurredAt:      time.Now().UTC(),
	}

	err := s.events.Publish(events.TopicTransactionCompleted, evt)
	if err != nil {
		slog.Warn("publish transaction event failed",
			"reference", receipt.Reference, "error", err)
	}
}

// Postgres reports serialization failures and detected deadlocks with
// SQLSTATE 40001/40P01; both mean the unit saw a concurrent modification
// and is safe to re-run.
func isRetryableConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}

	return false
}
