package accounts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Erradzan/Bank-Root/internal/infra/pgtestutil"
	"github.com/Erradzan/Bank-Root/internal/repos/accounts"
)

func TestAccounts_LockForUpdate_ReturnsBalance(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	seedAccount(t, db, 20, 1, "ACC-20", 12_345)

	repo := New(db)

	tx, err := db.BeginTx(context.Background(), nil)
	if err != nil {
		t.Fatalf("begin tx: %v", err)
	}
	defer func() { _ = tx.Rollback() }()

	bal, err := repo.LockForUpdate(tx, 20)
	if err != nil {
		t.Fatalf("lock/get: %v", err)
	}
	if bal != 12_345 {
		t.Fatalf("balance mismatch: want 12345, got %d", bal)
	}

	_, err = repo.LockForUpdate(tx, 999)
	if !errors.Is(err, accounts.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got: %v", err)
	}
}

// Second FOR UPDATE on the same row must block until the first tx commits.
func TestAccounts_LockForUpdate_LocksRow(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	seedAccount(t, db, 42, 1, "ACC-42", 200)

	repo := New(db)

	ctx1, cancel1 := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel1()

	tx1, err := db.BeginTx(ctx1, nil)
	if err != nil {
		t.Fatalf("begin tx1: %v", err)
	}
	defer func() { _ = tx1.Rollback() }()

	_, err = repo.LockForUpdate(tx1, 42)
	if err != nil {
		t.Fatalf("tx1 lock/get: %v", err)
	}

	startedCh := make(chan struct{})
	doneCh := make(chan struct{})
	errCh := make(chan error, 1)

	go func() {
		defer close(doneCh)

		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()

		tx2, e := db.BeginTx(ctx2, nil)
		if e != nil {
			errCh <- e
			return
		}
		defer func() { _ = tx2.Rollback() }()

		close(startedCh)

		_, e = repo.LockForUpdate(tx2, 42)
		if e != nil {
			errCh <- e
			return
		}

		e = tx2.Commit()
		if e != nil {
			errCh <- e
			return
		}
	}()

	select {
	case <-startedCh:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for tx2 to start")
	}

	// Give tx2 a moment to block on the row lock.
	time.Sleep(200 * time.Millisecond)

	err = tx1.Commit()
	if err != nil {
		t.Fatalf("commit tx1: %v", err)
	}

	select {
	case <-doneCh:
	case <-time.After(5 * time.Second):
		t.Fatal("tx2 never finished after tx1 committed")
	}

	select {
	case e := <-errCh:
		t.Fatalf("tx2 error: %v", e)
	default:
	}
}

// A caller-side timeout while blocked on the lock must abort cleanly and
// leave the row lockable by the next caller.
func TestAccounts_LockForUpdate_TimeoutReleasesCleanly(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	seedAccount(t, db, 43, 1, "ACC-43", 100)

	repo := New(db)

	tx1, err := db.BeginTx(context.Background(), nil)
	if err != nil {
		t.Fatalf("begin tx1: %v", err)
	}
	defer func() { _ = tx1.Rollback() }()

	_, err = repo.LockForUpdate(tx1, 43)
	if err != nil {
		t.Fatalf("tx1 lock: %v", err)
	}

	ctx2, cancel2 := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel2()

	tx2, err := db.BeginTx(ctx2, nil)
	if err != nil {
		t.Fatalf("begin tx2: %v", err)
	}
	defer func() { _ = tx2.Rollback() }()

	_, err = repo.LockForUpdate(tx2, 43)
	if err == nil {
		t.Fatal("expected timeout error while waiting for lock")
	}

	// Holder releases; the row must be immediately lockable again.
	err = tx1.Commit()
	if err != nil {
		t.Fatalf("commit tx1: %v", err)
	}

	tx3, err := db.BeginTx(context.Background(), nil)
	if err != nil {
		t.Fatalf("begin tx3: %v", err)
	}
	defer func() { _ = tx3.Rollback() }()

	bal, err := repo.LockForUpdate(tx3, 43)
	if err != nil {
		t.Fatalf("tx3 lock: %v", err)
	}
	if bal != 100 {
		t.Fatalf("balance changed by timed-out waiter: %d", bal)
	}
}
