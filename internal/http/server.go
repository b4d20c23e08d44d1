package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"sync"
	"time"

	"wallet/internal/analytics"
	"wallet/internal/log"
	"wallet/internal/metrics"
	"wallet/internal/middleware/ratelimit"
	"wallet/internal/middleware/security"
	"wallet/internal/middleware/session"
	"wallet/internal/middleware/trace"
	"wallet/internal/ports"
	"wallet/internal/services"
	"wallet/internal/view"
	appweb "wallet/web"
)

// Options carries everything the server needs. Store, Ledger, Dashboard and
// Sessions are required.
type Options struct {
	Addr               string
	Store              ports.Store
	Ledger             *services.Ledger
	Dashboard          *services.DashboardService
	Sessions           *session.Verifier
	Metrics            *metrics.Metrics
	Logger             *log.Logger
	DefaultWindow      analytics.Window
	StoreTimeout       time.Duration
	RateLimitPerMinute int
	AuthURL            string
}

type Server struct {
	http.Server
	templates *template.Template
	store     ports.Store
	ledger    *services.Ledger
	dashboard *services.DashboardService
	sessions  *session.Verifier
	metrics   *metrics.Metrics
	logger    *log.Logger
	limiter   *ratelimit.Limiter
	detector  *security.Detector

	window       analytics.Window
	storeTimeout time.Duration
	authURL      string
	now          func() time.Time

	shutdownOnce sync.Once
}

var templateFuncs = template.FuncMap{
	"currency": view.Currency,
	"label":    view.AccountLabel,
}

// NewServer configures routes, middleware and templates, returning a
// ready-to-run http.Server.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = 7 * time.Second
	}
	if opts.DefaultWindow == "" {
		opts.DefaultWindow = analytics.DefaultWindow
	}

	s := &Server{
		store:        opts.Store,
		ledger:       opts.Ledger,
		dashboard:    opts.Dashboard,
		sessions:     opts.Sessions,
		metrics:      opts.Metrics,
		logger:       logger.WithComponent(log.ComponentHTTP),
		limiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		detector:     security.NewDetector(logger),
		window:       opts.DefaultWindow,
		storeTimeout: opts.StoreTimeout,
		authURL:      opts.AuthURL,
		now:          time.Now,
	}

	t, err := template.New("wallet").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		s.logger.Warn("Failed parsing templates", log.FieldError, err)
	}
	s.templates = t

	mux := http.NewServeMux()
	s.routes(mux)

	var handler http.Handler = mux
	handler = s.limiter.Middleware(s.detector.ExtractClientIP, s.handleRateLimited)(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.detector.Middleware(handler)
	handler = trace.NewMiddleware(logger, opts.Metrics, s.detector.ExtractClientIP).Middleware(handler)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	api, page := s.sessions.API, s.sessions.Page

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", s.metrics.Handler())

	// Pages
	mux.HandleFunc("GET /{$}", s.sessions.Optional(s.handleLanding))
	mux.HandleFunc("GET /sign-in", s.sessions.GuestOnly(s.handleSignIn))
	mux.HandleFunc("GET /sign-up", s.sessions.GuestOnly(s.handleSignUp))
	mux.HandleFunc("GET /dashboard", page(s.handleDashboardPage))
	mux.HandleFunc("GET /transactions", page(s.handleTransactionsPage))
	mux.HandleFunc("GET /accounts", page(s.handleAccountsPage))
	mux.HandleFunc("GET /admin/users", page(s.adminPage(s.handleAdminUsersPage)))

	// UI partials
	mux.HandleFunc("GET /ui/transactions", page(s.handleTransactionsPanel))
	mux.HandleFunc("GET /ui/transactions/form", page(s.handleTransactionForm))
	mux.HandleFunc("POST /ui/transactions", page(s.handleTransactionSubmit))
	mux.HandleFunc("DELETE /ui/transactions", page(s.handleTransactionDelete))
	mux.HandleFunc("GET /ui/accounts/form", page(s.handleAccountForm))
	mux.HandleFunc("POST /ui/accounts", page(s.handleAccountSubmit))
	mux.HandleFunc("DELETE /ui/accounts", page(s.handleAccountDelete))
	mux.HandleFunc("GET /ui/admin/users", page(s.adminPage(s.handleUsersTable)))
	mux.HandleFunc("GET /ui/admin/users/form", page(s.adminPage(s.handleUserForm)))
	mux.HandleFunc("POST /ui/admin/users", page(s.adminPage(s.handleUserSubmit)))

	// JSON API
	mux.HandleFunc("GET /api/accounts", api(s.handleListAccounts))
	mux.HandleFunc("POST /api/accounts", api(s.handleCreateAccount))
	mux.HandleFunc("PUT /api/accounts", api(s.handleUpdateAccount))
	mux.HandleFunc("DELETE /api/accounts", api(s.handleDeleteAccount))

	mux.HandleFunc("GET /api/transactions", api(s.handleListTransactions))
	mux.HandleFunc("POST /api/transactions", api(s.handleCreateTransaction))
	mux.HandleFunc("PUT /api/transactions", api(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /api/transactions", api(s.handleDeleteTransaction))
	mux.HandleFunc("GET /api/transactions/analytics", api(s.handleTransactionAnalytics))

	mux.HandleFunc("GET /api/alerts", api(s.handleListAlerts))
	mux.HandleFunc("POST /api/alerts", api(s.handleCreateAlert))
	mux.HandleFunc("DELETE /api/alerts", api(s.handleDeleteAlert))

	mux.HandleFunc("GET /api/investments", api(s.handleListInvestments))
	mux.HandleFunc("POST /api/investments", api(s.handleCreateInvestment))

	mux.HandleFunc("GET /api/recurring-expenses", api(s.handleListRecurring))
	mux.HandleFunc("POST /api/recurring-expenses", api(s.handleCreateRecurring))
	mux.HandleFunc("DELETE /api/recurring-expenses", api(s.handleDeleteRecurring))

	mux.HandleFunc("GET /api/savings-goals", api(s.handleListGoals))
	mux.HandleFunc("POST /api/savings-goals", api(s.handleCreateGoal))
	mux.HandleFunc("PATCH /api/savings-goals", api(s.handlePatchGoal))

	mux.HandleFunc("GET /api/users", api(session.RequireAdmin(s.handleListUsers)))
	mux.HandleFunc("POST /api/users", api(session.RequireAdmin(s.handleCreateUser)))

	mux.HandleFunc("GET /api/categories", api(s.handleListCategories))
	mux.HandleFunc("GET /api/dashboard", api(s.handleDashboardAPI))
}

// Shutdown stops the rate limiter and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(s.limiter.Stop)
	return s.Server.Shutdown(ctx)
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	s.logger.WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	if strings.HasPrefix(r.URL.Path, "/api/") {
		writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "rate limit exceeded, try again later"})
		return
	}
	ErrorResponse(http.StatusTooManyRequests, "Too many changes in a short time. Try again in a minute.").Write(w)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.storeContext(r)
	defer cancel()
	if err := s.store.Ping(ctx); err != nil {
		s.logger.ErrorContext(ctx, "Readiness check failed", log.FieldError, err)
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
