package api

import (
	"context"
	"net/http"
	"strconv"
)

// The session layer in front of this service authenticates the caller and
// forwards the resolved user id in this header.
const identityHeader = "X-User-ID"

type ctxKey int

const callerIDKey ctxKey = iota

// RequireIdentity rejects requests without a usable caller identity and
// stores the id in the request context for handlers.
func RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(identityHeader)
		if raw == "" {
			writeError(w, http.StatusUnauthorized, "missing caller identity")
			return
		}

		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			writeError(w, http.StatusUnauthorized, "invalid caller identity")
			return
		}

		ctx := context.WithValue(r.Context(), callerIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func callerID(r *http.Request) uint64 {
	id, _ := r.Context().Value(callerIDKey).(uint64)
	return id
}
