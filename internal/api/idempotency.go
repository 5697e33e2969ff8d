package api

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	idempotencyHeader = "Idempotency-Key"

	idempotencyCacheTTL = 24 * time.Hour
	inflightLockTTL     = 10 * time.Second

	cacheKeyPrefix = "idempotency:"
	lockKeyPrefix  = "idempotency-lock:"
)

// responseRecorder captures the status and body so 2xx responses can be
// replayed for retries with the same idempotency key.
type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       bytes.Buffer
}

func (rw *responseRecorder) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseRecorder) Write(b []byte) (int, error) {
	rw.body.Write(b)
	return rw.ResponseWriter.Write(b)
}

// Idempotency is a fast-path response cache keyed by Idempotency-Key. The
// durable guard against double application is the ledger's unique reference
// index; losing Redis only costs the cached-response replay.
func Idempotency(rdb *redis.Client) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(idempotencyHeader)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			// Keys are scoped per caller so one user's key can never
			// replay another user's cached response.
			ctx := r.Context()
			cacheKey := fmt.Sprintf("%s%d:%s", cacheKeyPrefix, callerID(r), key)
			lockKey := fmt.Sprintf("%s%d:%s", lockKeyPrefix, callerID(r), key)

			cached, err := rdb.Get(ctx, cacheKey).Result()
			if err == nil {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("X-Idempotency-Hit", "true")
				_, _ = w.Write([]byte(cached))
				return
			}

			acquired, err := rdb.SetNX(ctx, lockKey, "processing", inflightLockTTL).Result()
			if err != nil {
				// Cache down: fall through, the ledger index still guards.
				slog.Warn("idempotency cache unavailable", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			if !acquired {
				writeError(w, http.StatusConflict,
					"a request with this idempotency key is in flight")
				return
			}

			defer func() {
				derr := rdb.Del(ctx, lockKey).Err()
				if derr != nil {
					slog.Warn("release idempotency lock failed", "error", derr)
				}
			}()

			rec := &responseRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rec, r)

			if rec.statusCode >= 200 && rec.statusCode < 300 {
				serr := rdb.Set(ctx, cacheKey, rec.body.String(), idempotencyCacheTTL).Err()
				if serr != nil {
					slog.Warn("cache idempotent response failed", "error", serr)
				}
			}
		})
	}
}
