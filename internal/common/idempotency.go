package common

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// IdempotencyHeader is the request header carrying the client supplied key.
const IdempotencyHeader = "Idempotency-Key"

// Breaker gates calls to the backing store.
type Breaker interface {
	Allow(ctx context.Context) bool
	Report(ctx context.Context, success bool)
}

// Idem provides an Idempotency-Key middleware backed by Redis. A nil client disables it.
// With a Breaker set, store failures let the request through instead of failing it.
type Idem struct {
	R       *redis.Client
	TTL     time.Duration
	Prefix  string
	Breaker Breaker
}

func (i Idem) ttl() time.Duration {
	if i.TTL <= 0 {
		return 10 * time.Minute
	}
	return i.TTL
}

func (i Idem) key(r *http.Request, header string) string {
	sum := sha256.Sum256([]byte(r.Method + " " + r.URL.Path + " " + header))
	prefix := i.Prefix
	if prefix == "" {
		prefix = "idem:"
	}
	return prefix + hex.EncodeToString(sum[:])
}

// Middleware rejects a repeated write carrying an Idempotency-Key seen within the TTL.
func (i Idem) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := strings.TrimSpace(r.Header.Get(IdempotencyHeader))
		if header == "" || i.R == nil {
			next.ServeHTTP(w, r)
			return
		}
		ctx := r.Context()
		if i.Breaker != nil && !i.Breaker.Allow(ctx) {
			next.ServeHTTP(w, r)
			return
		}
		key := i.key(r, header)
		ok, err := i.R.SetNX(ctx, key, "locked", i.ttl()).Result()
		if i.Breaker != nil {
			i.Breaker.Report(ctx, err == nil)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
		}
		if err != nil {
			JSONError(w, http.StatusInternalServerError, "INTERNAL", "idempotency store error", map[string]any{"error": err.Error()})
			return
		}
		if !ok {
			JSONError(w, http.StatusConflict, "IDEMPOTENT_REPLAY", "duplicate request", nil)
			return
		}
		defer func() {
			// the key must expire even if the handler panics
			_ = i.R.Expire(context.Background(), key, i.ttl()).Err()
		}()
		next.ServeHTTP(w, r)
	})
}
