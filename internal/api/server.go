// Package api exposes the HTTP interface: per-tenant webhook endpoints and
// the read-only status surface. The webhook handler acknowledges known
// tenants immediately and hands the payload to the worker queue; internal
// faults never surface as transport errors, which would trigger
// re-delivery storms from the platform.
package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/botfleet/linkrelay/internal/bot"
	"github.com/botfleet/linkrelay/internal/cache"
	"github.com/botfleet/linkrelay/internal/metrics"
	"github.com/botfleet/linkrelay/internal/telegram"
	"github.com/botfleet/linkrelay/internal/tenant"
)

// maxUpdateBytes bounds webhook payload reads.
const maxUpdateBytes = 1 << 20

// enqueueBudget bounds how long a webhook request may wait on a full queue
// before acknowledging anyway.
const enqueueBudget = 5 * time.Second

// BrowserStatus is the slice of the browser pool the status endpoint needs.
type BrowserStatus interface {
	Connected() bool
	InUse() int64
}

// Server wires HTTP handlers to the registry and the event queue.
type Server struct {
	router   chi.Router
	registry *tenant.Registry
	queue    bot.Queue
	cache    *cache.Store
	browser  BrowserStatus
	clock    bot.Clock
	logger   *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(
	registry *tenant.Registry,
	queue bot.Queue,
	store *cache.Store,
	browser BrowserStatus,
	clock bot.Clock,
	logger *zap.Logger,
) *Server {
	s := &Server{
		registry: registry,
		queue:    queue,
		cache:    store,
		browser:  browser,
		clock:    clock,
		logger:   logger,
	}
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	r.Use(timeoutMiddleware(30 * time.Second))

	r.Get("/", s.status)
	r.Get("/healthz", s.healthz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	r.Post("/bot/{token}/webhook", s.webhook)

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

type statusResponse struct {
	Status           string `json:"status"`
	ActiveTenants    int    `json:"active_tenants"`
	PartialTenants   int    `json:"partial_tenants"`
	BrowserConnected bool   `json:"browser_connected"`
	BrowserPagesHeld int64  `json:"browser_pages_held"`
	CacheEntries     int    `json:"cache_entries"`
}

func (s *Server) status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		Status:           "ok",
		ActiveTenants:    s.registry.ActiveCount(),
		PartialTenants:   s.registry.PartialCount(),
		BrowserConnected: s.browser.Connected(),
		BrowserPagesHeld: s.browser.InUse(),
		CacheEntries:     s.cache.Len(),
	})
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// webhook acknowledges one platform update. Unknown tokens get a 404 and no
// further work; everything else is acknowledged with 200 regardless of the
// internal outcome, and handling happens asynchronously via the queue.
func (s *Server) webhook(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	t, ok := s.registry.ByToken(token)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown webhook path")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxUpdateBytes))
	if err != nil {
		metrics.ObserveUpdate(t.ID, "parse_error")
		writeJSON(w, http.StatusOK, map[string]string{"status": "error", "message": "unreadable body"})
		return
	}
	msg, hasMessage, err := telegram.ParseUpdate(body)
	if err != nil {
		metrics.ObserveUpdate(t.ID, "parse_error")
		writeJSON(w, http.StatusOK, map[string]string{"status": "error", "message": "malformed update"})
		return
	}
	if !hasMessage {
		metrics.ObserveUpdate(t.ID, "ignored")
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}

	ev := bot.InboundEvent{
		TenantID:   t.ID,
		Message:    msg,
		ReceivedAt: s.clock.Now(),
	}
	queueCtx, cancel := context.WithTimeout(r.Context(), enqueueBudget)
	defer cancel()
	if err := s.queue.Enqueue(queueCtx, ev); err != nil {
		// Still acknowledged: dropping one update beats a re-delivery storm.
		s.logger.Warn("enqueue update failed",
			zap.String("tenant", t.ID),
			zap.Error(err),
		)
		metrics.ObserveUpdate(t.ID, "dropped")
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	metrics.ObserveUpdate(t.ID, "received")
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func loggingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logger.Info("request completed",
				zap.String("request_id", requestIDFrom(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.status),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			)
		})
	}
}

func recoverMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic recovered", zap.Any("error", rec))
					writeError(w, http.StatusInternalServerError, "internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func timeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, "request timed out")
	}
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

type requestIDKey struct{}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("write JSON failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
