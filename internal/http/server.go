package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"finsight/internal/auth"
	"finsight/internal/cache"
	"finsight/internal/core"
	"finsight/internal/log"
	"finsight/internal/middleware/ratelimit"
	"finsight/internal/middleware/security"
	"finsight/internal/middleware/trace"
	"finsight/internal/services"
	appweb "finsight/web"
)

// RecordAPI is the record command surface used by the handlers.
type RecordAPI interface {
	AddIncome(ctx context.Context, userID string, in services.IncomeInput) (core.Record, error)
	AddExpense(ctx context.Context, userID string, in services.ExpenseInput) (core.Record, error)
	ListRecords(ctx context.Context, userID string, kind core.Kind) ([]core.Record, error)
	UpdateRecord(ctx context.Context, userID string, kind core.Kind, id string, patch core.RecordPatch) (core.Record, error)
	DeleteRecord(ctx context.Context, userID string, kind core.Kind, id string) error
}

// DashboardAPI builds dashboards for a session.
type DashboardAPI interface {
	Load(ctx context.Context, session auth.Session, q services.DashboardQuery) (core.Dashboard, error)
	CurrentPeriod() core.Period
	Location() *time.Location
}

// TokenStore validates sign-in tokens and writes the session cookie.
type TokenStore interface {
	Parse(token string) (*auth.Claims, error)
	SetCookie(w http.ResponseWriter, token string, expires time.Time)
}

// Config holds the listener settings.
type Config struct {
	Addr               string
	RateLimitPerMinute int
	TrustedProxies     []string
}

// Deps are the services behind the handlers. Tokens and Ready are optional:
// without Tokens there is no /login form, without Ready /readyz always
// succeeds.
type Deps struct {
	Records   RecordAPI
	Dashboard DashboardAPI
	Auth      auth.Provider
	Tokens    TokenStore
	Ready     func(ctx context.Context) error
	// Caches registered here are cleaned while the server runs.
	Caches []cache.Cleaner
	Logger *log.Logger
}

// Server wraps http.Server with the application routes.
type Server struct {
	http.Server

	records   RecordAPI
	dashboard DashboardAPI
	auth      auth.Provider
	tokens    TokenStore
	ready     func(ctx context.Context) error

	templates *template.Template
	logger    *log.Logger
	tracer    *trace.Middleware
	limiter   *ratelimit.Limiter
	detector  *security.Detector
	caches    *cache.Manager
	rateLimit int

	shutdownOnce sync.Once
}

// NewServer configures routes, middleware and templates, returning a
// ready-to-run server.
func NewServer(cfg Config, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		records:   deps.Records,
		dashboard: deps.Dashboard,
		auth:      deps.Auth,
		tokens:    deps.Tokens,
		ready:     deps.Ready,
		logger:    logger,
		detector:  security.NewDetector(logger),
		caches:    cache.NewManager(logger),
		rateLimit: cfg.RateLimitPerMinute,
	}
	for _, cidr := range cfg.TrustedProxies {
		if err := s.detector.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring trusted proxy", "cidr", cidr, log.FieldError, err)
		}
	}
	s.tracer = trace.NewMiddleware(logger, s.detector.ExtractClientIP)
	s.limiter = ratelimit.NewLimiter(ratelimit.Config{
		RequestsPerMinute: cfg.RateLimitPerMinute,
		CleanupInterval:   5 * time.Minute,
	}, logger)

	for _, c := range deps.Caches {
		s.caches.Register(c)
	}
	s.caches.StartCleanup(10 * time.Minute)

	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Warn("Failed parsing templates", log.FieldError, err)
		t = nil
	}
	s.templates = t

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

var templateFuncs = template.FuncMap{
	"monthNum": func(m time.Month) int { return int(m) },
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600")
			static.ServeHTTP(w, r)
		}))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	private := func(h http.HandlerFunc) http.Handler {
		return auth.RequireSession(security.NoStore(h))
	}

	mux.Handle("GET /{$}", auth.RequireSession(http.HandlerFunc(s.handleIndex)))
	mux.Handle("GET /api/me", private(s.handleMe))
	mux.Handle("GET /api/dashboard", private(s.handleDashboardAPI))
	mux.Handle("GET /api/records/{kind}", private(s.handleListRecords))
	mux.Handle("POST /api/records/{kind}", private(s.handleCreateRecord))
	mux.Handle("PATCH /api/records/{kind}/{id}", private(s.handleUpdateRecord))
	mux.Handle("DELETE /api/records/{kind}/{id}", private(s.handleDeleteRecord))
	mux.Handle("GET /export.xlsx", private(s.handleExport))
	mux.HandleFunc("POST /logout", s.handleLogout)
	if s.tokens != nil {
		mux.HandleFunc("GET /login", s.handleLoginPage)
		mux.HandleFunc("POST /login", s.handleLogin)
	}
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	var h http.Handler = mux
	h = auth.Middleware(s.auth, s.logger)(h)
	h = s.limiter.Middleware(s.detector.ExtractClientIP, rateLimited,
		http.MethodPost, http.MethodPatch, http.MethodDelete)(h)
	h = s.detector.Middleware(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = s.tracer.Middleware(h)
	h = log.Middleware(s.logger)(h)
	return h
}

func rateLimited(w http.ResponseWriter, r *http.Request) {
	ErrorResponse(http.StatusTooManyRequests, "Too many requests. Please slow down.").Write(w)
}

// Shutdown stops background cleanup and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
