package http

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"budget/internal/cache"
	applog "budget/internal/log"
	"budget/internal/middleware/ratelimit"
	"budget/internal/middleware/security"
	"budget/internal/middleware/trace"
	"budget/internal/services"
	appweb "budget/web"
)

// Options configures NewServer.
type Options struct {
	Service  *services.BudgetService
	Sessions *services.SessionStore // optional; feeds /metrics and cache cleanup

	// Ready reports whether the ledger backend can serve requests.
	Ready func(ctx context.Context) error

	Logger         *applog.Logger
	SecureCookie   bool
	TrustedProxies []string

	// LoginAttemptsPerMinute limits POST /login and /signup per client IP.
	LoginAttemptsPerMinute int

	Now func() time.Time
}

// Server is the budget web UI.
type Server struct {
	http.Server
	svc       *services.BudgetService
	sessions  *services.SessionStore
	templates *template.Template
	logger    *applog.Logger
	ready     func(ctx context.Context) error
	now       func() time.Time

	secureCookie bool

	clientIP        *security.ClientIPResolver
	traceMiddleware *trace.Middleware
	rateLimiter     *ratelimit.Limiter
	cacheManager    *cache.Manager

	appMetrics *appMetrics

	shutdownOnce sync.Once
}

type appMetrics struct {
	started      time.Time
	logins       atomic.Int64
	failedLogins atomic.Int64
	signups      atomic.Int64
	saves        atomic.Int64
	exports      atomic.Int64
}

// NewServer configures routes, middleware and templates, returning a
// ready-to-run server listening on addr.
func NewServer(addr string, opts Options) (*Server, error) {
	if opts.Service == nil {
		return nil, errors.New("http: nil budget service")
	}
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.DefaultConfig())
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Ready == nil {
		opts.Ready = func(context.Context) error { return nil }
	}

	tmpl, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	clientIP := security.NewClientIPResolver()
	for _, cidr := range opts.TrustedProxies {
		if err := clientIP.AddTrustedProxy(cidr); err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", cidr, err)
		}
	}

	rlConfig := ratelimit.DefaultConfig()
	if opts.LoginAttemptsPerMinute > 0 {
		rlConfig.RequestsPerMinute = opts.LoginAttemptsPerMinute
	}

	logger := opts.Logger.WithComponent(applog.ComponentHTTP)
	s := &Server{
		svc:             opts.Service,
		sessions:        opts.Sessions,
		templates:       tmpl,
		logger:          logger,
		ready:           opts.Ready,
		now:             opts.Now,
		secureCookie:    opts.SecureCookie,
		clientIP:        clientIP,
		traceMiddleware: trace.NewMiddleware(opts.Logger, clientIP.ClientIP),
		rateLimiter:     ratelimit.NewLimiter(rlConfig),
		cacheManager:    cache.NewManager(opts.Logger.WithComponent(applog.ComponentCache).Logger),
		appMetrics:      &appMetrics{started: opts.Now()},
	}

	if s.sessions != nil {
		for _, c := range s.sessions.Cleaners() {
			s.cacheManager.Register(c)
		}
	}
	s.cacheManager.StartCleanup(5 * time.Minute)

	mux := http.NewServeMux()
	s.routes(mux)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.traceMiddleware.Middleware(applog.ComponentMiddleware(applog.ComponentHTTP)(headers.Middleware(mux))),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	return s, nil
}

func parseTemplates() (*template.Template, error) {
	t, err := template.New("").Funcs(templateFuncs()).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return t, nil
}

func (s *Server) routes(mux *http.ServeMux) {
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", applog.FieldError, err)
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	limit := s.rateLimiter.Middleware(s.clientIP.ClientIP, s.onRateLimited, http.MethodPost)
	mux.HandleFunc("GET /login", s.handleLoginPage)
	mux.Handle("POST /login", limit(http.HandlerFunc(s.handleLogin)))
	mux.HandleFunc("GET /signup", s.handleSignupPage)
	mux.Handle("POST /signup", limit(http.HandlerFunc(s.handleSignup)))
	mux.Handle("POST /logout", s.withSession(s.handleLogout))

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/budget", http.StatusSeeOther)
	})

	mux.Handle("GET /budget", s.withSession(s.handleBudget))
	mux.Handle("POST /budget/income", s.withSession(s.handleSetIncome))
	mux.Handle("POST /budget/debt", s.withSession(s.handleSetDebt))
	mux.Handle("POST /budget/expense", s.withSession(s.handleSetExpense))
	mux.Handle("POST /budget/quick-add", s.withSession(s.handleQuickAdd))
	mux.Handle("POST /budget/one-time", s.withSession(s.handleAddOneTime))
	mux.Handle("POST /budget/one-time/delete", s.withSession(s.handleRemoveOneTime))
	mux.Handle("POST /budget/save", s.withSession(s.handleSave))
	mux.Handle("POST /budget/revert", s.withSession(s.handleRevert))
	mux.Handle("POST /categories", s.withSession(s.handleAddCategory))
	mux.Handle("POST /categories/delete", s.withSession(s.handleRemoveCategory))

	mux.Handle("GET /analysis", s.withSession(s.handleAnalysis))
	mux.Handle("GET /trends", s.withSession(s.handleTrends))
	mux.Handle("GET /api/trends", s.withSession(s.handleTrendAPI))
	mux.Handle("GET /export", s.withSession(s.handleExport))
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	s.logger.WarnContext(r.Context(), "Login rate limit exceeded",
		applog.FieldClientIP, s.clientIP.ClientIP(r),
		applog.FieldPath, r.URL.Path)
	w.Header().Set("Retry-After", "60")
	if isHTMX(r) {
		ErrorResponse(http.StatusTooManyRequests, "Too many attempts. Please wait a minute and try again.").Write(w)
		return
	}
	http.Error(w, "Too many attempts. Please wait a minute and try again.", http.StatusTooManyRequests)
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
