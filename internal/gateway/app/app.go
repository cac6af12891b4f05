package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	redis "github.com/redis/go-redis/v9"

	httpapi "github.com/quillworks/pressgate/internal/gateway/http"
	"github.com/quillworks/pressgate/internal/gateway/ledger"
	"github.com/quillworks/pressgate/internal/gateway/service"
	"github.com/quillworks/pressgate/internal/gateway/store"
	"github.com/quillworks/pressgate/internal/gateway/store/drivers/sqlite"
	"github.com/quillworks/pressgate/pkg/slogx"
	"github.com/quillworks/pressgate/pkg/tokenx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application encapsulates the gateway with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db     store.Store
	codec  *tokenx.Codec
	nonces ledger.Ledger

	// memoryLedger is set when the process-local driver is in use; it owns
	// the sweep worker lifecycle.
	memoryLedger *ledger.Memory

	authService    *service.AuthService
	projectService *service.ProjectService

	server *http.Server
	router *httpapi.Router
}

// New creates an Application with all dependencies initialized. Missing
// secret configuration fails here, before any listener is opened.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "pressgate",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	codec, err := tokenx.NewCodec(tokenx.Config{
		AccessSecret:  []byte(cfg.AccessSecret),
		RefreshSecret: []byte(cfg.RefreshSecret),
		AccessTTL:     cfg.AccessTTL,
		RefreshTTL:    cfg.RefreshTTL,
		Issuer:        cfg.Issuer,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token codec: %w", err)
	}
	app.codec = codec

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.initLedger()
	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	if app.memoryLedger != nil {
		app.memoryLedger.Start()
	}

	app.logger.Info("gateway starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down gateway...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if app.memoryLedger != nil {
		app.memoryLedger.Stop()
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("gateway stopped")
	return nil
}

func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// initLedger picks the nonce ledger driver. The process-local map is only
// authoritative for a single instance; pointing REDIS_ADDR at a shared
// instance is required for multi-instance deployments.
func (app *Application) initLedger() {
	if app.cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: app.cfg.RedisAddr})
		app.nonces = ledger.NewRedis(rdb, "", app.cfg.NonceRetention)
		app.logger.Info("nonce ledger: redis", "addr", app.cfg.RedisAddr)
		return
	}

	mem := ledger.NewMemory(app.cfg.NonceRetention, app.cfg.SweepInterval, app.logger)
	app.memoryLedger = mem
	app.nonces = mem
	app.logger.Warn("nonce ledger: process-local memory; single-instance deployments only")
}

func (app *Application) initServices() {
	app.authService = &service.AuthService{Store: app.db, Codec: app.codec}
	app.projectService = &service.ProjectService{Store: app.db}
}

func (app *Application) initHTTP() {
	csrf := httpapi.NewCsrfGuard([]byte(app.cfg.CsrfSecret), app.cfg.CsrfTTL, app.cfg.Env == "prod")

	router := httpapi.NewRouter(
		app.codec,
		csrf,
		app.nonces,
		httpapi.ReplayConfig{
			DefaultWindow: app.cfg.ReplayWindow,
			UploadWindow:  app.cfg.ReplayUploadWindow,
			FutureSkew:    app.cfg.FutureSkew,
			BypassPaths:   []string{"/livez", "/readyz", "/v1/csrf-token"},
		},
		BuildVersion,
		app.db,
		app.logger,
	)
	router.AuthService = app.authService
	router.ProjectService = app.projectService
	router.ApplyRoutes()
	app.router = router

	app.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", app.cfg.Port),
		Handler: router,
	}
}
