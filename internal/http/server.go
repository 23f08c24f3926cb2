package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	applog "ricorrenze/internal/log"
	"ricorrenze/internal/middleware/ratelimit"
	"ricorrenze/internal/middleware/security"
	"ricorrenze/internal/middleware/trace"
	"ricorrenze/internal/services"
)

// Options tunes the server. The zero value is usable.
type Options struct {
	// Ready reports whether dependencies such as the database are reachable.
	Ready          func(ctx context.Context) error
	RateLimit      ratelimit.Config
	TrustedProxies []string
	Logger         *applog.Logger
	// Now is used for default date ranges; tests pin it.
	Now func() time.Time
}

type Server struct {
	http.Server
	svc      *services.ScheduledTransactionService
	upcoming *services.UpcomingService
	ready    func(ctx context.Context) error
	now      func() time.Time

	limiter *ratelimit.Limiter
	tracer  *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(addr string, svc *services.ScheduledTransactionService, upcoming *services.UpcomingService, opts Options) (*Server, error) {
	ips := security.NewClientIPResolver()
	for _, cidr := range opts.TrustedProxies {
		if err := ips.AddTrustedProxy(cidr); err != nil {
			return nil, err
		}
	}

	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	s := &Server{
		svc:      svc,
		upcoming: upcoming,
		ready:    opts.Ready,
		now:      now,
		limiter:  ratelimit.NewLimiter(opts.RateLimit),
		tracer:   trace.NewMiddleware(ips.ExtractClientIP),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /templates", s.handleListTemplates)
	mux.HandleFunc("POST /templates", s.handleCreateTemplate)
	mux.HandleFunc("GET /templates/{id}", s.handleGetTemplate)
	mux.HandleFunc("PUT /templates/{id}", s.handleUpdateTemplate)
	mux.HandleFunc("DELETE /templates/{id}", s.handleDeleteTemplate)
	mux.HandleFunc("GET /templates/{id}/price-per-month", s.handlePricePerMonth)
	mux.HandleFunc("DELETE /templates/{id}/modifications", s.handleClearModifications)

	mux.HandleFunc("GET /templates/{id}/occurrences", s.handleListOccurrences)
	mux.HandleFunc("GET /templates/{id}/next-pending", s.handleNextPending)
	mux.HandleFunc("GET /templates/{id}/occurrences/{index}", s.handleGetOccurrence)
	mux.HandleFunc("PATCH /templates/{id}/occurrences/{index}", s.handleEditOccurrence)
	mux.HandleFunc("DELETE /templates/{id}/occurrences/{index}", s.handleDeleteOccurrence)
	mux.HandleFunc("POST /templates/{id}/occurrences/{index}/record", s.handleRecordOccurrence)
	mux.HandleFunc("POST /templates/{id}/occurrences/{index}/skip", s.handleSkipOccurrence)
	mux.HandleFunc("POST /templates/{id}/occurrences/{index}/reset", s.handleResetOccurrence)

	mux.HandleFunc("GET /upcoming", s.handleUpcoming)

	limited := s.limiter.Middleware(ips.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		writeErrorMessage(w, http.StatusTooManyRequests, "rate limit exceeded, retry later")
	})
	headers := security.NewHeadersMiddleware(security.APIHeadersConfig())
	withLogger := applog.Middleware(logger.WithComponent(applog.ComponentHTTP), trace.GetRequestID)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.tracer.Middleware(withLogger(headers.Middleware(limited(mux)))),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Shutdown stops background routines and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// Metrics returns request counters collected by the trace middleware.
func (s *Server) Metrics() trace.Metrics {
	return s.tracer.Metrics()
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(r.Context()); err != nil {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", "error", err)
			writeErrorMessage(w, http.StatusServiceUnavailable, "not ready")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
