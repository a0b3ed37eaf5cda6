// Package health provides Kubernetes-style liveness and readiness probes.
//
// Registered checks run periodically on a single background goroutine; HTTP
// handlers read the last recorded result, so probe requests never block on a
// slow dependency.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// CheckFunc probes one component. It returns nil when the component is
// healthy.
type CheckFunc func(ctx context.Context) error

// Kind separates liveness checks (is the process functioning) from readiness
// checks (can the service take traffic).
type Kind int

const (
	Liveness Kind = iota
	Readiness
)

type check struct {
	name    string
	kind    Kind
	timeout time.Duration
	fn      CheckFunc

	// lastErr holds the most recent probe result; read by HTTP handlers
	// from arbitrary goroutines.
	lastErr atomic.Pointer[error]
}

func (c *check) run(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	err := c.fn(ctx)
	c.lastErr.Store(&err)
}

func (c *check) failure() (string, bool) {
	if p := c.lastErr.Load(); p != nil && *p != nil {
		return (*p).Error(), true
	}
	return "", false
}

// Health runs registered checks and serves probe endpoints. The zero state is
// not-ready; call SetReady(true) after initialization completes and
// SetReady(false) when draining.
type Health struct {
	ready atomic.Bool

	mu     sync.Mutex
	checks []*check
	cancel context.CancelFunc
}

// New creates an empty Health registry.
func New() *Health {
	return &Health{}
}

// Add registers a check of the given kind. Checks must be registered before
// Start.
func (h *Health) Add(kind Kind, name string, timeout time.Duration, fn CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks = append(h.checks, &check{
		name:    name,
		kind:    kind,
		timeout: timeout,
		fn:      fn,
	})
}

// Start runs every registered check once immediately, then on each interval
// tick, until Stop is called or ctx is cancelled.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	h.mu.Lock()
	h.cancel = cancel
	checks := make([]*check, len(h.checks))
	copy(checks, h.checks)
	h.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			for _, c := range checks {
				c.run(ctx)
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}

// Stop cancels the background probe loop. Safe to call more than once.
func (h *Health) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
}

// SetReady flips the manual readiness gate.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// snapshot collects failures for checks of the given kind.
func (h *Health) snapshot(kind Kind) map[string]string {
	h.mu.Lock()
	checks := make([]*check, len(h.checks))
	copy(checks, h.checks)
	h.mu.Unlock()

	failures := make(map[string]string)
	for _, c := range checks {
		if c.kind != kind {
			continue
		}
		if msg, failed := c.failure(); failed {
			failures[c.name] = msg
		}
	}
	return failures
}

type statusResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// LiveEndpoint serves /livez: 200 while all liveness checks pass, else 503
// listing failures.
func (h *Health) LiveEndpoint(w http.ResponseWriter, r *http.Request) {
	writeStatus(w, h.snapshot(Liveness))
}

// ReadyEndpoint serves /readyz: 200 only when the service is marked ready and
// all readiness checks pass.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, r *http.Request) {
	failures := h.snapshot(Readiness)
	if !h.ready.Load() {
		failures["_readiness"] = "service is not ready"
	}
	writeStatus(w, failures)
}

func writeStatus(w http.ResponseWriter, failures map[string]string) {
	resp := statusResponse{Status: "ok"}
	code := http.StatusOK
	if len(failures) > 0 {
		resp = statusResponse{Status: "unhealthy", Checks: failures}
		code = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}
