package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Erradzan/Bank-Root/internal/money"
	"github.com/Erradzan/Bank-Root/internal/repos/accounts"
	"github.com/Erradzan/Bank-Root/internal/repos/ledger"
	accountsvc "github.com/Erradzan/Bank-Root/internal/services/accounts"
	txsvc "github.com/Erradzan/Bank-Root/internal/services/transactions"
)

const defaultPageSize = 50

// HandlerProvider wraps the services and exposes HTTP handlers.
type HandlerProvider struct {
	txs   *txsvc.TransactionService
	accts *accountsvc.AccountService
}

// NewHandler returns a new Handler provider.
func NewHandler(txs *txsvc.TransactionService, accts *accountsvc.AccountService) *HandlerProvider {
	return &HandlerProvider{txs: txs, accts: accts}
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB cap
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("empty body")
		}

		return fmt.Errorf("invalid JSON")
	}

	return nil
}

func parseAccountIDFromPath(r *http.Request) (uint64, error) {
	idStr := chi.URLParam(r, "accountID")
	if idStr == "" {
		return 0, fmt.Errorf("missing accountID")
	}

	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid accountID")
	}

	return id, nil
}

func parsePaging(r *http.Request) (limit, offset int) {
	limit = defaultPageSize

	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 && v <= 500 {
			limit = v
		}
	}

	if raw := r.URL.Query().Get("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			offset = v
		}
	}

	return limit, offset
}

func parseKind(s string) (ledger.Kind, error) {
	switch s {
	case "deposit":
		return ledger.KindDeposit, nil
	case "withdrawal":
		return ledger.KindWithdrawal, nil
	case "transfer":
		return ledger.KindTransfer, nil
	default:
		return "", fmt.Errorf("invalid transaction type")
	}
}

// --- Response shapes ---

type accountResponse struct {
	ID        uint64    `json:"id"`
	Kind      string    `json:"account_type"`
	Number    string    `json:"account_number"`
	Balance   string    `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toAccountResponse(a accounts.Account) accountResponse {
	return accountResponse{
		ID:        a.ID,
		Kind:      a.Kind,
		Number:    a.Number,
		Balance:   money.FromMinor(a.BalanceMinor).String(),
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

type entryResponse struct {
	ID              int64     `json:"id"`
	Reference       string    `json:"reference"`
	Kind            string    `json:"type"`
	Amount          string    `json:"amount"`
	Memo            string    `json:"description,omitempty"`
	SourceAccountID *uint64   `json:"from_account_id,omitempty"`
	TargetAccountID *uint64   `json:"to_account_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

func toEntryResponses(entries []ledger.Entry) []entryResponse {
	out := make([]entryResponse, 0, len(entries))

	for _, e := range entries {
		out = append(out, entryResponse{
			ID:              e.ID,
			Reference:       e.Reference,
			Kind:            string(e.Kind),
			Amount:          money.FromMinor(e.AmountMinor).String(),
			Memo:            e.Memo,
			SourceAccountID: e.SourceAccountID,
			TargetAccountID: e.TargetAccountID,
			CreatedAt:       e.CreatedAt,
		})
	}

	return out
}

// --- Account handlers ---

type createAccountRequest struct {
	Kind    string `json:"account_type"`
	Number  string `json:"account_number"`
	Balance string `json:"balance"`
}

// CreateAccountHandler handles POST /accounts.
func (h *HandlerProvider) CreateAccountHandler(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest

	err := decodeBody(w, r, &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.Kind == "" || req.Number == "" {
		writeError(w, http.StatusBadRequest, "account_type and account_number required")
		return
	}

	// Opening balance is optional; zero when absent. Unlike transaction
	// amounts, zero is a legal opening balance.
	var opening int64

	if req.Balance != "" && req.Balance != "0" && req.Balance != "0.00" {
		amt, perr := money.Parse(req.Balance)
		if perr != nil {
			writeError(w, http.StatusBadRequest, "invalid opening balance")
			return
		}

		opening = amt.Minor()
	}

	acct, err := h.accts.Create(r.Context(), callerID(r), req.Kind, req.Number, opening)
	if err != nil {
		switch {
		case errors.Is(err, accounts.ErrDuplicateNumber):
			writeError(w, http.StatusConflict, "account number already taken")
		case errors.Is(err, accountsvc.ErrNegativeOpening):
			writeError(w, http.StatusBadRequest, "opening balance cannot be negative")
		default:
			writeError(w, http.StatusInternalServerError, "internal error")
		}

		return
	}

	writeJSON(w, http.StatusCreated, toAccountResponse(acct))
}

// ListAccountsHandler handles GET /accounts.
func (h *HandlerProvider) ListAccountsHandler(w http.ResponseWriter, r *http.Request) {
	list, err := h.accts.List(r.Context(), callerID(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	out := make([]accountResponse, 0, len(list))
	for _, a := range list {
		out = append(out, toAccountResponse(a))
	}

	writeJSON(w, http.StatusOK, map[string]any{"accounts": out})
}

// GetAccountHandler handles GET /accounts/{accountID}.
func (h *HandlerProvider) GetAccountHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseAccountIDFromPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid accountID in path")
		return
	}

	acct, err := h.accts.Get(r.Context(), callerID(r), id)
	if err != nil {
		writeAccountError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toAccountResponse(acct))
}

type renameAccountRequest struct {
	Kind string `json:"account_type"`
}

// RenameAccountHandler handles PATCH /accounts/{accountID}.
func (h *HandlerProvider) RenameAccountHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseAccountIDFromPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid accountID in path")
		return
	}

	var req renameAccountRequest

	err = decodeBody(w, r, &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.Kind == "" {
		writeError(w, http.StatusBadRequest, "account_type required")
		return
	}

	err = h.accts.Rename(r.Context(), callerID(r), id, req.Kind)
	if err != nil {
		writeAccountError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// DeleteAccountHandler handles DELETE /accounts/{accountID}.
func (h *HandlerProvider) DeleteAccountHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseAccountIDFromPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid accountID in path")
		return
	}

	err = h.accts.Delete(r.Context(), callerID(r), id)
	if err != nil {
		switch {
		case errors.Is(err, accountsvc.ErrBalanceNotZero):
			writeError(w, http.StatusConflict, "account balance must be zero")
		case errors.Is(err, accounts.ErrAccountInUse):
			writeError(w, http.StatusConflict, "account has ledger history")
		default:
			writeAccountError(w, err)
		}

		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeAccountError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, accounts.ErrAccountNotFound):
		writeError(w, http.StatusNotFound, "account not found")
	case errors.Is(err, accountsvc.ErrNotOwner):
		writeError(w, http.StatusForbidden, "account does not belong to caller")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// --- Transaction handlers ---

type submitTransactionRequest struct {
	Kind         string `json:"type"`
	SourceNumber string `json:"from_account_number"`
	TargetNumber string `json:"to_account_number,omitempty"`
	Amount       string `json:"amount"`
	Memo         string `json:"description,omitempty"`
}

type submitTransactionResponse struct {
	EntryID       int64   `json:"entry_id"`
	Reference     string  `json:"reference"`
	SourceBalance string  `json:"source_balance"`
	TargetBalance *string `json:"target_balance,omitempty"`
}

// SubmitTransactionHandler handles POST /transactions.
func (h *HandlerProvider) SubmitTransactionHandler(w http.ResponseWriter, r *http.Request) {
	var req submitTransactionRequest

	err := decodeBody(w, r, &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	kind, err := parseKind(req.Kind)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid transaction type")
		return
	}

	amount, err := money.Parse(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	intent := txsvc.Intent{
		Reference:    r.Header.Get(idempotencyHeader),
		Kind:         kind,
		SourceNumber: req.SourceNumber,
		TargetNumber: req.TargetNumber,
		Amount:       amount,
		Memo:         req.Memo,
	}

	receipt, err := h.txs.Submit(r.Context(), callerID(r), intent)
	if err != nil {
		writeSubmitError(w, err)
		return
	}

	resp := submitTransactionResponse{
		EntryID:       receipt.EntryID,
		Reference:     receipt.Reference,
		SourceBalance: receipt.SourceBalance.String(),
	}
	if receipt.TargetBalance != nil {
		s := receipt.TargetBalance.String()
		resp.TargetBalance = &s
	}

	writeJSON(w, http.StatusCreated, resp)
}

func writeSubmitError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, money.ErrInvalidAmount),
		errors.Is(err, txsvc.ErrInvalidKind),
		errors.Is(err, txsvc.ErrInvalidTarget),
		errors.Is(err, txsvc.ErrSourceNotFound):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, txsvc.ErrUnauthorized):
		writeError(w, http.StatusForbidden, "unauthorized access to the account")
	case errors.Is(err, txsvc.ErrTargetNotFound):
		writeError(w, http.StatusNotFound, "target account not found")
	case errors.Is(err, accounts.ErrInsufficientFunds):
		writeError(w, http.StatusConflict, "insufficient funds")
	case errors.Is(err, ledger.ErrDuplicateEntry):
		writeError(w, http.StatusConflict, "duplicate transaction")
	case errors.Is(err, txsvc.ErrTimeout):
		writeError(w, http.StatusGatewayTimeout, "transaction timed out")
	default:
		slog.Error("transaction aborted", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// ListTransactionsHandler handles GET /transactions.
func (h *HandlerProvider) ListTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePaging(r)

	entries, err := h.txs.ListByOwner(r.Context(), callerID(r), limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"transactions": toEntryResponses(entries)})
}

// ListAccountTransactionsHandler handles GET /accounts/{accountID}/transactions.
func (h *HandlerProvider) ListAccountTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseAccountIDFromPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid accountID in path")
		return
	}

	// Owner check before exposing history.
	_, err = h.accts.Get(r.Context(), callerID(r), id)
	if err != nil {
		writeAccountError(w, err)
		return
	}

	limit, offset := parsePaging(r)

	entries, err := h.txs.ListByAccount(r.Context(), id, limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"transactions": toEntryResponses(entries)})
}
