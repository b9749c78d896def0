package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/eugenenazirov/supabase-preflight/internal/console"
	"github.com/eugenenazirov/supabase-preflight/internal/preflight"
	"github.com/eugenenazirov/supabase-preflight/internal/storage"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

const defaultRunTimeout = 30 * time.Second

// Checker runs a full preflight check.
type Checker interface {
	Run(ctx context.Context, out *console.Printer) preflight.Report
}

// Handler exposes the preflight checks over HTTP.
type Handler struct {
	checker  Checker
	store      storage.ReportStore
	cacheTTL   time.Duration
	runTimeout time.Duration

	clock func() time.Time

	// serializes check runs so the sentinel record is never written concurrently
	runMu sync.Mutex
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// WithCacheTTL sets how long a report is reused before the checks run again.
// Zero disables caching.
func WithCacheTTL(ttl time.Duration) HandlerOption {
	return func(h *Handler) {
		if ttl >= 0 {
			h.cacheTTL = ttl
		}
	}
}

// WithRunTimeout bounds a single check run started by a readiness request.
func WithRunTimeout(d time.Duration) HandlerOption {
	return func(h *Handler) {
		if d > 0 {
			h.runTimeout = d
		}
	}
}

// NewHandler constructs a Handler with the provided dependencies.
func NewHandler(checker Checker, store storage.ReportStore, opts ...HandlerOption) *Handler {
	h := &Handler{
		checker:  checker,
		store:    store,
		cacheTTL:   30 * time.Second,
		runTimeout: defaultRunTimeout,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleReadiness(w http.ResponseWriter, r *http.Request) {
	report, cached := h.currentReport(r.Context())

	status := http.StatusOK
	resp := readinessResponse{
		Status: "ready",
		Cached: cached,
		Report: report,
	}
	if !report.Ready {
		status = http.StatusServiceUnavailable
		resp.Status = "not_ready"
	}
	writeJSON(w, status, resp)
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	_ = r
	report, ok := h.store.Latest()
	if !ok {
		writeError(w, http.StatusNotFound, "No report", "no check has run yet", "call /api/readiness to run the checks")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) currentReport(ctx context.Context) (preflight.Report, bool) {
	h.runMu.Lock()
	defer h.runMu.Unlock()

	if latest, ok := h.store.Latest(); ok && h.cacheTTL > 0 && h.clock().Sub(latest.CheckedAt) < h.cacheTTL {
		return latest, true
	}

	// A caller that gives up must not leave a failed report in the cache.
	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.runTimeout)
	defer cancel()

	report := h.checker.Run(runCtx, console.Discard())
	h.store.Save(report)
	return report, false
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type readinessResponse struct {
	Status string           `json:"status"`
	Cached bool             `json:"cached"`
	Report preflight.Report `json:"report"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}
