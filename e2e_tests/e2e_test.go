package e2etests

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"
)

const (
	baseURL   = "http://localhost:8080"
	timeout   = 5 * time.Second
	waitReady = 20 * time.Second
)

var httpClient = &http.Client{Timeout: timeout}

// The tests run against a live instance (docker compose up) with the seed
// users 1..3 applied. Accounts are created per run with unique numbers so
// reruns against the same database stay green.

func TestE2E_TransactionsFlow(t *testing.T) {
	waitUntilReady(t)

	accA := createAccount(t, 1, "checking")
	accB := createAccount(t, 2, "checking")

	t.Run("deposit_increases_balance", func(t *testing.T) {
		code, body := postTransaction(t, 1, "", map[string]string{
			"type":                "deposit",
			"from_account_number": accA,
			"amount":              "10.15",
		})
		if code != http.StatusCreated {
			t.Fatalf("deposit: want 201, got %d (%s)", code, body)
		}

		var resp struct {
			SourceBalance string `json:"source_balance"`
		}
		mustUnmarshal(t, body, &resp)

		if resp.SourceBalance != "10.15" {
			t.Fatalf("after deposit: want 10.15, got %s", resp.SourceBalance)
		}
	})

	t.Run("duplicate_idempotency_key_conflict", func(t *testing.T) {
		key := uniqKey("dup")
		req := map[string]string{
			"type":                "deposit",
			"from_account_number": accA,
			"amount":              "5.00",
		}

		code, body := postTransaction(t, 1, key, req)
		if code != http.StatusCreated {
			t.Fatalf("first send: want 201, got %d (%s)", code, body)
		}

		// With the response cache enabled the replay returns the cached
		// 201; without it the ledger's unique reference yields 409.
		code, body = postTransaction(t, 1, key, req)
		if code != http.StatusCreated && code != http.StatusConflict {
			t.Fatalf("duplicate send: want 201 or 409, got %d (%s)", code, body)
		}

		// Applied exactly once: 10.15 + 5.00 = 15.15.
		if got := accountBalance(t, 1, accA); got != "15.15" {
			t.Fatalf("after duplicate: want 15.15, got %s", got)
		}

		// Another caller reusing the key gets no replay of the first
		// caller's response; the ledger reference collision rejects it.
		code, body = postTransaction(t, 2, key, map[string]string{
			"type":                "deposit",
			"from_account_number": accB,
			"amount":              "5.00",
		})
		if code != http.StatusConflict {
			t.Fatalf("cross-caller key reuse: want 409, got %d (%s)", code, body)
		}
		if got := accountBalance(t, 2, accB); got != "0.00" {
			t.Fatalf("cross-caller reuse mutated balance: %s", got)
		}
	})

	t.Run("withdrawal_decreases_balance", func(t *testing.T) {
		code, body := postTransaction(t, 1, "", map[string]string{
			"type":                "withdrawal",
			"from_account_number": accA,
			"amount":              "1.15",
		})
		if code != http.StatusCreated {
			t.Fatalf("withdrawal: want 201, got %d (%s)", code, body)
		}

		if got := accountBalance(t, 1, accA); got != "14.00" {
			t.Fatalf("after withdrawal: want 14.00, got %s", got)
		}
	})

	t.Run("transfer_moves_funds", func(t *testing.T) {
		code, body := postTransaction(t, 1, "", map[string]string{
			"type":                "transfer",
			"from_account_number": accA,
			"to_account_number":   accB,
			"amount":              "4.00",
			"description":         "rent share",
		})
		if code != http.StatusCreated {
			t.Fatalf("transfer: want 201, got %d (%s)", code, body)
		}

		var resp struct {
			SourceBalance string  `json:"source_balance"`
			TargetBalance *string `json:"target_balance"`
		}
		mustUnmarshal(t, body, &resp)

		if resp.SourceBalance != "10.00" {
			t.Fatalf("source after transfer: want 10.00, got %s", resp.SourceBalance)
		}
		if resp.TargetBalance == nil || *resp.TargetBalance != "4.00" {
			t.Fatalf("target after transfer: want 4.00, got %v", resp.TargetBalance)
		}

		if got := accountBalance(t, 2, accB); got != "4.00" {
			t.Fatalf("recipient balance: want 4.00, got %s", got)
		}
	})

	t.Run("history_lists_entries", func(t *testing.T) {
		code, body := getJSON(t, 1, "/transactions")
		if code != http.StatusOK {
			t.Fatalf("history: want 200, got %d (%s)", code, body)
		}

		var resp struct {
			Transactions []struct {
				Type   string `json:"type"`
				Amount string `json:"amount"`
			} `json:"transactions"`
		}
		mustUnmarshal(t, body, &resp)

		if len(resp.Transactions) < 4 {
			t.Fatalf("want at least 4 entries, got %d", len(resp.Transactions))
		}
		// Newest first.
		if resp.Transactions[0].Type != "transfer" || resp.Transactions[0].Amount != "4.00" {
			t.Fatalf("unexpected newest entry: %+v", resp.Transactions[0])
		}
	})
}

func TestE2E_Rejections(t *testing.T) {
	waitUntilReady(t)

	accA := createAccount(t, 1, "checking")
	accB := createAccount(t, 2, "checking")

	type tc struct {
		name     string
		caller   uint64
		body     map[string]string
		wantCode int
	}

	tests := []tc{
		{
			name:   "insufficient_funds",
			caller: 2,
			body: map[string]string{
				"type": "withdrawal", "from_account_number": accB, "amount": "1.00",
			},
			wantCode: http.StatusConflict,
		},
		{
			name:   "foreign_account_forbidden",
			caller: 3,
			body: map[string]string{
				"type": "withdrawal", "from_account_number": accA, "amount": "1.00",
			},
			wantCode: http.StatusForbidden,
		},
		{
			name:   "unknown_source_forbidden",
			caller: 3,
			body: map[string]string{
				"type": "withdrawal", "from_account_number": "ACC-GHOST", "amount": "1.00",
			},
			wantCode: http.StatusForbidden,
		},
		{
			name:   "unknown_target_not_found",
			caller: 1,
			body: map[string]string{
				"type": "transfer", "from_account_number": accA,
				"to_account_number": "ACC-GHOST", "amount": "1.00",
			},
			wantCode: http.StatusNotFound,
		},
		{
			name:   "self_transfer_rejected",
			caller: 1,
			body: map[string]string{
				"type": "transfer", "from_account_number": accA,
				"to_account_number": accA, "amount": "1.00",
			},
			wantCode: http.StatusBadRequest,
		},
		{
			name:   "invalid_type",
			caller: 1,
			body: map[string]string{
				"type": "loan", "from_account_number": accA, "amount": "1.00",
			},
			wantCode: http.StatusBadRequest,
		},
		{
			name:   "invalid_amount_precision",
			caller: 1,
			body: map[string]string{
				"type": "deposit", "from_account_number": accA, "amount": "1.234",
			},
			wantCode: http.StatusBadRequest,
		},
		{
			name:   "negative_amount",
			caller: 1,
			body: map[string]string{
				"type": "deposit", "from_account_number": accA, "amount": "-1.00",
			},
			wantCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := postTransaction(t, tt.caller, "", tt.body)
			if code != tt.wantCode {
				t.Fatalf("want %d, got %d (%s)", tt.wantCode, code, body)
			}
		})
	}

	t.Run("missing_identity_unauthorized", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, baseURL+"/accounts", nil)
		if err != nil {
			t.Fatalf("new request: %v", err)
		}

		resp, err := httpClient.Do(req)
		if err != nil {
			t.Fatalf("do request: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("want 401, got %d", resp.StatusCode)
		}
	})

	// Rejections must not have moved money.
	if got := accountBalance(t, 1, accA); got != "0.00" {
		t.Fatalf("account %s mutated by rejected requests: %s", accA, got)
	}
	if got := accountBalance(t, 2, accB); got != "0.00" {
		t.Fatalf("account %s mutated by rejected requests: %s", accB, got)
	}
}

func TestE2E_AccountLifecycle(t *testing.T) {
	waitUntilReady(t)

	number := createAccount(t, 3, "savings")
	id := accountID(t, 3, number)

	t.Run("rename", func(t *testing.T) {
		code, body := doJSON(t, http.MethodPatch, 3, fmt.Sprintf("/accounts/%d", id),
			map[string]string{"account_type": "checking"})
		if code != http.StatusOK {
			t.Fatalf("rename: want 200, got %d (%s)", code, body)
		}
	})

	t.Run("delete_with_balance_refused", func(t *testing.T) {
		code, body := postTransaction(t, 3, "", map[string]string{
			"type": "deposit", "from_account_number": number, "amount": "1.00",
		})
		if code != http.StatusCreated {
			t.Fatalf("deposit: want 201, got %d (%s)", code, body)
		}

		code, body = doJSON(t, http.MethodDelete, 3, fmt.Sprintf("/accounts/%d", id), nil)
		if code != http.StatusConflict {
			t.Fatalf("delete with balance: want 409, got %d (%s)", code, body)
		}
	})
}

/* -------------------- helpers -------------------- */

func createAccount(t *testing.T, userID uint64, kind string) string {
	t.Helper()

	number := uniqKey("ACC")

	code, body := doJSON(t, http.MethodPost, userID, "/accounts", map[string]string{
		"account_type":   kind,
		"account_number": number,
	})
	if code != http.StatusCreated {
		t.Fatalf("create account: want 201, got %d (%s)", code, body)
	}

	return number
}

func accountID(t *testing.T, userID uint64, number string) uint64 {
	t.Helper()

	acct := findAccount(t, userID, number)

	return acct.ID
}

func accountBalance(t *testing.T, userID uint64, number string) string {
	t.Helper()

	acct := findAccount(t, userID, number)

	return acct.Balance
}

type accountPayload struct {
	ID      uint64 `json:"id"`
	Number  string `json:"account_number"`
	Balance string `json:"balance"`
}

func findAccount(t *testing.T, userID uint64, number string) accountPayload {
	t.Helper()

	code, body := getJSON(t, userID, "/accounts")
	if code != http.StatusOK {
		t.Fatalf("list accounts: want 200, got %d (%s)", code, body)
	}

	var resp struct {
		Accounts []accountPayload `json:"accounts"`
	}
	mustUnmarshal(t, body, &resp)

	for _, a := range resp.Accounts {
		if a.Number == number {
			return a
		}
	}

	t.Fatalf("account %s not in listing for user %d", number, userID)

	return accountPayload{}
}

func postTransaction(t *testing.T, userID uint64, idempotencyKey string, body map[string]string) (int, string) {
	t.Helper()

	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, baseURL+"/transactions", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", fmt.Sprintf("%d", userID))

	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	b, _ := io.ReadAll(resp.Body)

	return resp.StatusCode, string(b)
}

func getJSON(t *testing.T, userID uint64, path string) (int, string) {
	t.Helper()
	return doJSON(t, http.MethodGet, userID, path, nil)
}

func doJSON(t *testing.T, method string, userID uint64, path string, body map[string]string) (int, string) {
	t.Helper()

	var reader io.Reader

	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}

		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, baseURL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}

	req.Header.Set("X-User-ID", fmt.Sprintf("%d", userID))

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	b, _ := io.ReadAll(resp.Body)

	return resp.StatusCode, string(b)
}

func mustUnmarshal(t *testing.T, body string, dst any) {
	t.Helper()

	err := json.Unmarshal([]byte(body), dst)
	if err != nil {
		t.Fatalf("decode json %q: %v", body, err)
	}
}

// waitUntilReady polls /healthz until the service responds or times out.
func waitUntilReady(t *testing.T) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), waitReady)
	defer cancel()

	tick := time.NewTicker(200 * time.Millisecond)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			t.Fatalf("service not ready at %s within %s", baseURL, waitReady)
		case <-tick.C:
			resp, err := httpClient.Get(baseURL + "/healthz")
			if err != nil {
				continue
			}

			_ = resp.Body.Close()

			if resp.StatusCode == http.StatusOK {
				return
			}
		}
	}
}

func uniqKey(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}
