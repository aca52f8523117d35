package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"fintrack/internal/backend"
	applog "fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
)

type Server struct {
	http.Server
	backend *backend.Backend
	logger  *applog.Logger

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	// now is replaced in tests.
	now          func() time.Time
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, b *backend.Backend, logger *applog.Logger) *Server {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
			MaxHeaderBytes:    1 << 16,
		},
		backend:  b,
		logger:   logger,
		limiter:  ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		detector: security.NewDetector(),
		now:      time.Now,
	}
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)

	mux.HandleFunc("/auth/login", s.handleLogin)
	mux.HandleFunc("/auth/callback", s.handleCallback)
	mux.HandleFunc("/auth/logout", s.handleLogout)

	mux.HandleFunc("/api/me", s.requireUser(s.handleMe))
	mux.HandleFunc("/api/balance", s.requireUser(s.handleBalance))

	mux.HandleFunc("/api/transactions", s.requireUser(s.handleTransactions))
	mux.HandleFunc("/api/transactions/{id}", s.requireUser(s.handleTransaction))

	mux.HandleFunc("/api/categories", s.requireUser(s.handleCategories))
	mux.HandleFunc("/api/categories/defaults", s.requireUser(s.handleSeedCategories))
	mux.HandleFunc("/api/categories/grouped", s.requireUser(s.handleGroupedCategories))
	mux.HandleFunc("/api/categories/{id}", s.requireUser(s.handleCategory))

	mux.HandleFunc("/api/reports/monthly", s.requireUser(s.handleMonthlySummary))
	mux.HandleFunc("/api/reports/categories", s.requireUser(s.handleCategoryBreakdown))
	mux.HandleFunc("/api/reports/yearly", s.requireUser(s.handleYearlyOverview))
	mux.HandleFunc("/api/reports/top", s.requireUser(s.handleTopCategories))
	mux.HandleFunc("/api/reports/trends", s.requireUser(s.handleSpendingTrends))
	mux.HandleFunc("/api/reports/daily", s.requireUser(s.handleDailySpending))
	mux.HandleFunc("/api/reports/spending", s.requireUser(s.handleSpendingByCategory))
	mux.HandleFunc("/api/reports/daily.png", s.requireUser(s.handleDailyChart))
	mux.HandleFunc("/api/reports/categories.png", s.requireUser(s.handleCategoryChart))

	s.Handler = s.middleware(mux)
	return s
}

// middleware wraps the routes, outermost first: request logger, tracing,
// security headers, probe screening, then rate limiting of writes.
func (s *Server) middleware(mux http.Handler) http.Handler {
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limited := s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		applog.FromContext(r.Context()).WithComponent(applog.ComponentRateLimit).WarnContext(r.Context(),
			"Rate limit exceeded",
			applog.FieldClientIP, s.detector.ExtractClientIP(r),
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path)
		ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, try again later").Write(w)
	})(mux)

	writes := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			mux.ServeHTTP(w, r)
			return
		}
		limited.ServeHTTP(w, r)
	})

	return applog.Middleware(s.logger)(s.tracer.Middleware(headers.Middleware(s.screen(writes))))
}

// screen logs requests that look like probing. They are still served; the
// handlers validate everything they read.
func (s *Server) screen(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.detector.DetectSuspiciousRequest(r) {
			applog.FromContext(r.Context()).WithComponent(applog.ComponentSecurity).WarnContext(r.Context(),
				"Suspicious request",
				applog.FieldClientIP, s.detector.ExtractClientIP(r),
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path,
				applog.FieldUserAgent, r.UserAgent())
		}
		next.ServeHTTP(w, r)
	})
}

// ownerHandler is a handler that runs for a signed-in user.
type ownerHandler func(w http.ResponseWriter, r *http.Request, owner int64)

// requireUser resolves the session cookie to an owner id or answers 401.
func (s *Server) requireUser(next ownerHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, err := s.backend.Sessions.UserID(r)
		if err != nil {
			UnauthorizedError("sign in required").Write(w)
			return
		}
		logger := applog.FromContext(r.Context()).With(applog.FieldUserID, owner)
		next(w, r.WithContext(applog.WithLogger(r.Context(), logger)), owner)
	}
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// Stats reports the middleware counters.
type Stats struct {
	Trace     trace.Metrics             `json:"trace"`
	RateLimit ratelimit.Metrics         `json:"rate_limit"`
	Security  security.DetectionMetrics `json:"security"`
}

func (s *Server) Stats() Stats {
	return Stats{
		Trace:     s.tracer.GetMetrics(),
		RateLimit: s.limiter.GetMetrics(),
		Security:  s.detector.GetMetrics(),
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady reports ready once the database answers a ping.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.backend.DB.Ping(ctx); err != nil {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", applog.FieldError, err.Error())
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ready",
		"sign_in":   s.backend.Identity != nil,
		"migration": s.backend.DB.Reconciled().MigrationVersion,
	})
}
