package health

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/noah-isme/calculadora/internal/common"
)

// ErrDisabled marks an optional dependency that is not configured. It does not fail readiness.
var ErrDisabled = errors.New("disabled")

var ready atomic.Bool

func init() {
	ready.Store(true)
}

// SetReady toggles the process readiness flag. Shutdown flips it off before draining.
func SetReady(v bool) {
	ready.Store(v)
}

// Checker represents dependencies that can be checked for readiness.
type Checker interface {
	PingCatalog(ctx context.Context) error
	PingRedis(ctx context.Context, timeout time.Duration) error
}

// Handler exposes HTTP handlers for health endpoints.
type Handler struct {
	Checker      Checker
	RedisTimeout time.Duration
}

// Live reports liveness status.
func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready reports readiness based on dependency checks.
func (h Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if !ready.Load() {
		common.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "shutting down"})
		return
	}
	if h.Checker == nil {
		common.JSONError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "dependencies unavailable", nil)
		return
	}
	ctx := r.Context()
	catalogStatus := checkStatus(h.Checker.PingCatalog(ctx))
	redisStatus := checkStatus(h.Checker.PingRedis(ctx, h.redisTimeout()))

	status := map[string]string{
		"catalog": catalogStatus,
		"redis":   redisStatus,
	}
	code := http.StatusOK
	if !healthy(catalogStatus) || !healthy(redisStatus) {
		code = http.StatusServiceUnavailable
	}
	common.JSON(w, code, status)
}

func checkStatus(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrDisabled):
		return "disabled"
	default:
		return err.Error()
	}
}

func healthy(status string) bool {
	return status == "ok" || status == "disabled"
}

func (h Handler) redisTimeout() time.Duration {
	if h.RedisTimeout <= 0 {
		return 300 * time.Millisecond
	}
	return h.RedisTimeout
}
