package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"

	accountsvc "github.com/Erradzan/Bank-Root/internal/services/accounts"
	txsvc "github.com/Erradzan/Bank-Root/internal/services/transactions"
)

// NewServer creates and returns a configured *http.Server for the ledger API.
// rdb may be nil; the idempotency cache is skipped without it.
func NewServer(port uint16, txs *txsvc.TransactionService, accts *accountsvc.AccountService, rdb *redis.Client) *http.Server {
	mux := NewRouter(txs, accts, rdb)

	addr := fmt.Sprintf(":%d", port)

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
