package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"
	"time"
)

// ErrSkipped is returned by a probe for a dependency that is not configured.
var ErrSkipped = errors.New("health: probe skipped")

// Checker represents dependencies that can be probed for readiness.
type Checker interface {
	PingRedis(ctx context.Context, timeout time.Duration) error
	PingRemote(ctx context.Context, timeout time.Duration) error
}

var ready atomic.Bool

func init() { ready.Store(true) }

// SetReady flips readiness; the server clears it while draining on shutdown.
func SetReady(v bool) { ready.Store(v) }

// Handler exposes HTTP handlers for health endpoints.
type Handler struct {
	Checker       Checker
	RedisTimeout  time.Duration
	RemoteTimeout time.Duration
	// BreakerState reports the remote circuit breaker, when one is wired.
	BreakerState func() string
}

// Live reports liveness status.
func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready reports readiness based on dependency probes.
func (h Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if !ready.Load() {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	if h.Checker == nil {
		http.Error(w, "dependencies unavailable", http.StatusServiceUnavailable)
		return
	}
	ctx := r.Context()
	redisStatus, redisOK := probeStatus(h.Checker.PingRedis(ctx, h.redisTimeout()))
	remoteStatus, remoteOK := probeStatus(h.Checker.PingRemote(ctx, h.remoteTimeout()))
	status := map[string]string{
		"redis":  redisStatus,
		"remote": remoteStatus,
	}
	if h.BreakerState != nil {
		status["breaker"] = h.BreakerState()
	}
	w.Header().Set("Content-Type", "application/json")
	if redisOK && remoteOK {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(status)
}

func probeStatus(err error) (string, bool) {
	switch {
	case err == nil:
		return "ok", true
	case errors.Is(err, ErrSkipped):
		return "skipped", true
	default:
		return err.Error(), false
	}
}

func (h Handler) redisTimeout() time.Duration {
	if h.RedisTimeout <= 0 {
		return 300 * time.Millisecond
	}
	return h.RedisTimeout
}

func (h Handler) remoteTimeout() time.Duration {
	if h.RemoteTimeout <= 0 {
		return time.Second
	}
	return h.RemoteTimeout
}
