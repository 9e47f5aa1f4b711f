// Package http exposes the budget service as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"masarify/internal/cache"
	"masarify/internal/log"
	"masarify/internal/middleware/ratelimit"
	"masarify/internal/middleware/security"
	"masarify/internal/middleware/trace"
	"masarify/internal/services"
)

// Deps are the collaborators of the server. Service is required.
type Deps struct {
	Service *services.BudgetService
	Logger  *log.Logger
	// Ready reports whether backing stores are reachable; nil means always.
	Ready        func(ctx context.Context) error
	Location     *time.Location
	RateLimitRPM int
	// Cache, when set, is reported on /metrics.
	Cache interface{ Stats() cache.Stats }
}

type Server struct {
	http.Server

	svc      *services.BudgetService
	logger   *log.Logger
	ready    func(ctx context.Context) error
	loc      *time.Location
	cache    interface{ Stats() cache.Stats }
	started  time.Time
	limiter  *ratelimit.Limiter
	tracer   *trace.Middleware
	detector *security.Detector

	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.Discard()
	}
	loc := deps.Location
	if loc == nil {
		loc = time.Local
	}

	s := &Server{
		svc:      deps.Service,
		logger:   logger.WithComponent(log.ComponentHTTP),
		ready:    deps.Ready,
		loc:      loc,
		cache:    deps.Cache,
		started:  time.Now(),
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: deps.RateLimitRPM}),
		detector: security.NewDetector(),
	}
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP)

	mux := http.NewServeMux()
	s.routes(mux)

	api := s.limiter.Middleware(s.detector.ExtractClientIP, s.onRateLimit)(mux)
	var handler http.Handler = api
	handler = s.detector.Middleware(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.tracer.Middleware(handler)
	handler = log.Middleware(s.logger)(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      90 * time.Second, // advisor calls may take a while
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /api/session", s.handleSession)
	mux.HandleFunc("POST /api/unlock", s.handleUnlock)
	mux.HandleFunc("POST /api/lock", s.handleLock)
	mux.HandleFunc("GET /api/currencies", s.handleCurrencies)

	mux.HandleFunc("GET /api/state", s.unlocked(s.handleState))
	mux.HandleFunc("GET /api/dashboard", s.unlocked(s.handleDashboard))
	mux.HandleFunc("GET /api/reports/breakdown", s.unlocked(s.handleBreakdown))

	mux.HandleFunc("GET /api/transactions", s.unlocked(s.handleListTransactions))
	mux.HandleFunc("POST /api/transactions", s.unlocked(s.handleCreateTransaction))
	mux.HandleFunc("PUT /api/transactions/{id}", s.unlocked(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.unlocked(s.handleDeleteTransaction))

	mux.HandleFunc("GET /api/categories", s.unlocked(s.handleListCategories))
	mux.HandleFunc("POST /api/categories", s.unlocked(s.handleCreateCategory))
	mux.HandleFunc("PUT /api/categories/{id}", s.unlocked(s.handleUpdateCategory))
	mux.HandleFunc("DELETE /api/categories/{id}", s.unlocked(s.handleDeleteCategory))

	mux.HandleFunc("GET /api/accounts", s.unlocked(s.handleListAccounts))
	mux.HandleFunc("PUT /api/settings", s.unlocked(s.handleSaveSettings))
	mux.HandleFunc("PUT /api/language", s.unlocked(s.handleSetLanguage))
	mux.HandleFunc("PUT /api/currency", s.unlocked(s.handleSetCurrency))

	mux.HandleFunc("GET /api/export/json", s.unlocked(s.handleExportJSON))
	mux.HandleFunc("GET /api/export/csv", s.unlocked(s.handleExportCSV))
	mux.HandleFunc("POST /api/import", s.unlocked(s.handleImport))
	mux.HandleFunc("GET /api/snapshots", s.unlocked(s.handleSnapshots))

	mux.HandleFunc("POST /api/advisor", s.unlocked(s.handleAsk))
	mux.HandleFunc("GET /api/advisor/messages", s.unlocked(s.handleMessages))
}

// unlocked rejects the request while a PIN is required.
func (s *Server) unlocked(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.svc.Locked() {
			writeError(w, r, services.ErrLocked, s.svc.State().Language)
			return
		}
		next(w, r)
	}
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(),
		"Rate limit exceeded", log.FieldClientIP, s.detector.ExtractClientIP(r))
	ErrorResponse(http.StatusTooManyRequests, "rate_limited", "Rate limit exceeded. Please try again later.").Write(w)
}

// Shutdown stops background routines and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
