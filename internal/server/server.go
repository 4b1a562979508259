package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	"pxi/internal/ai"
	"pxi/internal/costing"
	"pxi/internal/handlers"
	applog "pxi/internal/log"
)

const (
	defaultSessionLifetime = 12 * time.Hour
	defaultCookieName      = "pxi_session"
	shutdownTimeout        = 5 * time.Second
)

// Config captures the runtime configuration for the HTTP server.
type Config struct {
	Addr     string
	Session  SessionConfig
	Database *gorm.DB
	Services Services
	// Metrics is exposed on /metrics. A private registry is created when nil.
	Metrics *prometheus.Registry
}

// SessionConfig controls the tenant session cookie.
type SessionConfig struct {
	Lifetime     time.Duration
	CookieName   string
	CookieDomain string
	CookieSecure bool
}

// Services are the costing backends the handlers call. A nil Costing falls
// back to a service over Database without metrics; nil Grounding or AI
// leaves market prices and recipe import switched off.
type Services struct {
	Costing   *costing.Service
	Currency  string
	Grounding handlers.Grounder
	AI        *ai.Client
}

// Server serves the costing worksheet, its JSON API and /metrics.
type Server struct {
	config     Config
	httpServer *http.Server
}

func newSessionManager(cfg SessionConfig) *scs.SessionManager {
	if cfg.Lifetime <= 0 {
		cfg.Lifetime = defaultSessionLifetime
	}
	if strings.TrimSpace(cfg.CookieName) == "" {
		cfg.CookieName = defaultCookieName
	}
	sm := scs.New()
	sm.Lifetime = cfg.Lifetime
	sm.Cookie.Name = cfg.CookieName
	sm.Cookie.Domain = cfg.CookieDomain
	sm.Cookie.HttpOnly = true
	sm.Cookie.Persist = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Secure = cfg.CookieSecure
	return sm
}

// New installs the tenant session, database and costing services into the
// handlers and builds the request chain.
func New(cfg Config) (*Server, error) {
	ctx := context.Background()
	if cfg.Metrics == nil {
		cfg.Metrics = prometheus.NewRegistry()
	}

	sessionManager := newSessionManager(cfg.Session)
	handlers.Configure(sessionManager, cfg.Database)
	handlers.ConfigureCosting(cfg.Services.Costing, cfg.Services.Currency)
	handlers.ConfigureGrounding(cfg.Services.Grounding)
	handlers.ConfigureAI(cfg.Services.AI)

	applog.Debug(ctx, "server configured",
		"addr", cfg.Addr,
		"cookie", sessionManager.Cookie.Name,
		"database", cfg.Database != nil,
		"grounding", cfg.Services.Grounding != nil,
		"recipeImport", cfg.Services.AI != nil,
	)

	return &Server{
		config: cfg,
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           withRequestID(sessionManager.LoadAndSave(newRouter(cfg.Metrics))),
			ReadHeaderTimeout: 5 * time.Second,
		},
	}, nil
}

// Start serves until Stop is called.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Stop drains in-flight requests, giving up after shutdownTimeout.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	applog.Info(ctx, "draining http server", "addr", s.httpServer.Addr)
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the configured HTTP handler, enabling integration tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}
