package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/aussiebroadwan/payslip/internal/portal/http"
	"github.com/aussiebroadwan/payslip/internal/portal/service"
	"github.com/aussiebroadwan/payslip/internal/portal/store"
	"github.com/aussiebroadwan/payslip/internal/portal/store/drivers/sqlite"
	"github.com/aussiebroadwan/payslip/pkg/cryptox"
	"github.com/aussiebroadwan/payslip/pkg/portalsdk"
	"github.com/aussiebroadwan/payslip/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application encapsulates the portal with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db     store.Store
	client *portalsdk.SDKClient

	// Services
	payslipService      *service.PayslipService
	csrfService         *service.CSRFService
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "payslip-portal",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.initClient()

	if err := app.initServices(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("payslip portal starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"api_base_url", app.cfg.APIBaseURL,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			app.housekeepingService.Stop()
			_ = app.db.Close()
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

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down payslip portal...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("payslip portal stopped")
	return nil
}

// Handler exposes the router, mainly for tests.
func (app *Application) Handler() http.Handler {
	return app.router
}

// initDatabase opens the dispatch log and applies migrations
func (app *Application) initDatabase() error {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(dsn)
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

func (app *Application) initClient() {
	client := portalsdk.NewSDKClient(app.cfg.APIBaseURL)
	client.HTTPClient.Timeout = app.cfg.UpstreamTimeout
	client.ForwardCookies = app.cfg.ForwardCookies
	app.client = client
}

// initServices initializes all business logic services
func (app *Application) initServices() error {
	secret := []byte(app.cfg.CSRFSecret)
	if len(secret) == 0 {
		generated, err := cryptox.RandomBytes(cryptox.SecretSize)
		if err != nil {
			return fmt.Errorf("failed to generate CSRF secret: %w", err)
		}
		secret = generated
		app.logger.Warn("CSRF_SECRET not set, using a random secret; form tokens will not survive restarts")
	}

	csrf, err := service.NewCSRFService(secret, service.DefaultCSRFTTL)
	if err != nil {
		return fmt.Errorf("failed to initialize CSRF service: %w", err)
	}
	app.csrfService = csrf

	app.payslipService = &service.PayslipService{Store: app.db}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
		app.cfg.DispatchRetention,
	)
	return nil
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(app.client, BuildVersion, app.db, app.logger)

	router.PayslipService = app.payslipService
	router.CSRFService = app.csrfService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
