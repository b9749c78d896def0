package application

import (
	"errors"
	"net/http"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/eugenenazirov/supabase-preflight/internal/api"
	"github.com/eugenenazirov/supabase-preflight/internal/config"
	"github.com/eugenenazirov/supabase-preflight/internal/preflight"
	"github.com/eugenenazirov/supabase-preflight/internal/settings"
	"github.com/eugenenazirov/supabase-preflight/internal/storage"
)

// App encapsulates the readiness server dependencies.
type App struct {
	runner  *preflight.Runner
	store   storage.ReportStore
	handler *api.Handler
	router  http.Handler
	logger  *zap.Logger
	server  *http.Server
}

// New initializes the readiness server from the provided configuration.
func New(cfg config.Config, logger *zap.Logger) *App {
	runner := NewRunner(cfg, logger)
	store := storage.NewMemoryStore()
	handler := api.NewHandler(runner, store,
		api.WithCacheTTL(cfg.CacheTTL),
		api.WithRunTimeout(cfg.WriteTimeout),
	)
	router := api.NewRouter(handler, logger,
		api.WithLogging(cfg.EnableRequestLogging),
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
	)

	return &App{
		runner:  runner,
		store:   store,
		handler: handler,
		router:  router,
		logger:  logger,
		server:  NewServer(cfg, router),
	}
}

// NewRunner loads the settings file and builds the check runner. A settings
// file that exists but cannot be read is logged and the process environment
// is used on its own.
func NewRunner(cfg config.Config, logger *zap.Logger) *preflight.Runner {
	path := cfg.EnvFile
	if path == "" {
		path = settings.Discover("", settings.DefaultFileName)
	}

	env, found, err := settings.Load(path, os.Environ())
	if err != nil {
		logger.Warn("ignoring unreadable settings file", zap.String("path", path), zap.Error(err))
	}
	logger.Debug("settings resolved",
		zap.String("path", path),
		zap.Bool("found", found),
		zap.Int("keys", len(env.Keys())),
	)

	prober := preflight.NewProber(
		preflight.WithTable(cfg.Table),
		preflight.WithSentinel(cfg.Sentinel),
		preflight.WithReadTimeout(cfg.ReadTimeout),
		preflight.WithLogger(logger),
	)
	return preflight.NewRunner(env, prober,
		preflight.WithSettingsFile(path, found),
		preflight.WithNextSteps(cfg.NextSteps),
	)
}

// NewServer creates and configures an HTTP server from the provided configuration.
func NewServer(cfg config.Config, handler http.Handler) *http.Server {
	addr := cfg.Port
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Start starts the HTTP server in a goroutine and logs the listening address.
func (a *App) Start() error {
	go func() {
		a.logger.Info("readiness server listening", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("server error", zap.Error(err))
		}
	}()
	return nil
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler {
	return a.router
}
