package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"

	accountsvc "github.com/Erradzan/Bank-Root/internal/services/accounts"
	txsvc "github.com/Erradzan/Bank-Root/internal/services/transactions"
)

// NewRouter constructs the chi router with all API endpoints registered.
func NewRouter(txs *txsvc.TransactionService, accts *accountsvc.AccountService, rdb *redis.Client) http.Handler {
	h := NewHandler(txs, accts)
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Group(func(r chi.Router) {
		r.Use(RequireIdentity)

		r.Get("/accounts", h.ListAccountsHandler)
		r.Post("/accounts", h.CreateAccountHandler)
		r.Get("/accounts/{accountID}", h.GetAccountHandler)
		r.Patch("/accounts/{accountID}", h.RenameAccountHandler)
		r.Delete("/accounts/{accountID}", h.DeleteAccountHandler)

		r.Get("/accounts/{accountID}/transactions", h.ListAccountTransactionsHandler)
		r.Get("/transactions", h.ListTransactionsHandler)

		r.Group(func(r chi.Router) {
			if rdb != nil {
				r.Use(Idempotency(rdb))
			}
			r.Post("/transactions", h.SubmitTransactionHandler)
		})
	})

	return r
}
