// Package http exposes the projection engine as a JSON API. All read
// endpoints are derived views over the stored snapshot; writes are turned
// into mutation messages and queued, never applied in the request path.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"flowcast/internal/cache"
	"flowcast/internal/core"
	"flowcast/internal/engine"
	"flowcast/internal/log"
	"flowcast/internal/storage"
)

// MutationSink receives the writes the API produces. The AMQP client is the
// production sink; tests plug in a recorder.
type MutationSink interface {
	EnqueueOverride(ctx context.Context, ov core.RecurrenceOverride) error
	EnqueueTransaction(ctx context.Context, tx core.Transaction) error
}

// Options configures the API server.
type Options struct {
	Store           storage.SnapshotReader
	Sink            MutationSink
	Levels          []core.HealthLevel
	WindowDays      int
	HistoryFoldDays int
	// Now supplies the as-of date for defaults. Injectable so tests are
	// deterministic; the engine itself never reads a clock.
	Now func() time.Time
}

type Server struct {
	http.Server
	store           storage.SnapshotReader
	sink            MutationSink
	levels          []core.HealthLevel
	windowDays      int
	historyFoldDays int
	now             func() time.Time
	rateLimiter     *rateLimiter
	metrics         *securityMetrics
	logger          *log.Logger
	httpLog         *log.StructuredLogger

	// Timeline results are cached per request shape and dropped wholesale
	// on any write.
	timelineCache *cache.LRUCache[engine.Result]

	cacheManager *cache.Manager
	shutdownOnce sync.Once
}

// NewServer configures routes and returns a ready-to-run server.
func NewServer(addr string, opts Options) *Server {
	if opts.WindowDays <= 0 {
		opts.WindowDays = 90
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	mux := http.NewServeMux()
	logger := log.New(log.DefaultConfig()).WithComponent(log.ComponentHTTP)

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		store:           opts.Store,
		sink:            opts.Sink,
		levels:          opts.Levels,
		windowDays:      opts.WindowDays,
		historyFoldDays: opts.HistoryFoldDays,
		now:             opts.Now,
		rateLimiter:     newRateLimiter(),
		metrics:         &securityMetrics{},
		logger:          logger,
		httpLog:         log.NewStructuredLogger(logger),
		timelineCache:   cache.NewLRUCache[engine.Result](100, 5*time.Minute),
		cacheManager:    cache.NewManager(),
	}
	s.cacheManager.Register(s.timelineCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /forecast", s.withMiddleware(s.handleForecast))
	mux.HandleFunc("GET /invoices", s.withMiddleware(s.handleInvoices))
	mux.HandleFunc("GET /economy", s.withMiddleware(s.handleEconomy))
	mux.HandleFunc("POST /overrides", s.withMiddleware(s.handleCreateOverride))
	mux.HandleFunc("POST /convert", s.withMiddleware(s.handleConvert))
	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)

	return s
}

// Shutdown stops the server and its background cleanup goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withMiddleware adds security headers, rate limiting on writes, and request
// logging.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)
		requestID := generateRequestID()

		reqLogger := s.logger.With(log.FieldRequestID, requestID)
		ctx := context.WithValue(r.Context(), log.LoggerContextKey, reqLogger)
		r = r.WithContext(ctx)

		s.httpLog.LogHTTPStart(ctx, r, clientIP)

		if detectSuspiciousRequest(r, s.metrics) {
			reqLogger.WarnContext(ctx, "suspicious request rejected",
				log.FieldClientIP, clientIP, log.FieldPath, r.URL.Path)
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientIP, s.metrics) {
			reqLogger.WarnContext(ctx, "rate limit exceeded",
				log.FieldClientIP, clientIP, log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		s.httpLog.LogHTTPEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a unique request ID for tracing
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		http.Error(w, "store not configured", http.StatusServiceUnavailable)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if _, err := s.store.LoadSnapshot(ctx); err != nil {
		s.logger.ErrorContext(r.Context(), "readiness probe failed", "error", err)
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
