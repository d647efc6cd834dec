package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/meapp/restapi/internal/api/rest"
	"github.com/meapp/restapi/internal/api/service"
	"github.com/meapp/restapi/internal/api/store/drivers/sqlite"
	"github.com/meapp/restapi/pkg/cryptox"
	"github.com/meapp/restapi/pkg/httpx"
	"github.com/meapp/restapi/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the API service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db *sqlite.Store

	userService       *service.UserService
	aaaService        *service.AAAService
	clientService     *service.ClientService
	permissionService *service.PermissionService
	bootstrapService  *service.BootstrapService

	registry   *rest.Registry
	dispatcher *rest.Dispatcher
	server     *http.Server
}

// New creates an Application with all dependencies initialized: database,
// services, endpoint registry, permission catalog and first-run bootstrap.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "api-service",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.initServices()
	app.initHTTP()

	if err := app.seed(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.logger.Info("api service starting",
		"port", app.cfg.Port, "base_path", app.cfg.BasePath, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
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
	app.logger.Info("shutting down api service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("api service stopped")
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

func (app *Application) initServices() {
	app.userService = &service.UserService{Store: app.db}
	app.aaaService = &service.AAAService{
		Store:         app.db,
		TokenLifetime: app.cfg.UserTokenLifetime,
	}
	app.clientService = &service.ClientService{Store: app.db}
	app.permissionService = &service.PermissionService{Store: app.db}
	app.bootstrapService = &service.BootstrapService{
		Store:    app.db,
		Username: app.cfg.BootstrapUsername,
		Fullname: app.cfg.BootstrapFullname,
		Password: app.cfg.BootstrapPassword,
	}
}

func (app *Application) initHTTP() {
	restCfg := rest.Config{
		BasePath:          app.cfg.BasePath,
		ClientTokenHeader: app.cfg.ClientTokenHeader,
		UserTokenHeader:   app.cfg.UserTokenHeader,
		ClientTokenQuery:  app.cfg.ClientTokenQuery,
		UserTokenQuery:    app.cfg.UserTokenQuery,
		MaxItemsPerPage:   app.cfg.MaxItemsPerPage,
		ShowExceptions:    app.cfg.ShowExceptions,
	}

	app.registry = rest.NewRegistry()
	(&rest.AAAEndpoints{Users: app.userService, AAA: app.aaaService}).Register(app.registry)
	(&rest.ClientEndpoints{Clients: app.clientService}).Register(app.registry)
	(&rest.UserEndpoints{Users: app.userService}).Register(app.registry)
	(&rest.SystemEndpoints{
		Environment: app.cfg.Env,
		Version:     BuildVersion,
		StartedAt:   time.Now().UTC(),
		DBStats:     app.db.Stats,
	}).Register(app.registry)

	app.dispatcher = &rest.Dispatcher{
		Registry: app.registry,
		Pipeline: &rest.Pipeline{Store: app.db, Config: restCfg},
		Config:   restCfg,
	}

	handler := httpx.Chain(app.dispatcher,
		slogx.HTTPMiddleware(app.logger),
		httpx.RateLimitByIP(httpx.ModerateLimit),
	)

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// seed synchronizes the permission catalog with the registered endpoints and
// bootstraps an empty database with an initial user and client token.
func (app *Application) seed() error {
	ctx := slogx.WithContext(context.Background(), app.logger)

	if err := app.permissionService.EnsureCatalog(ctx, app.registry.Permissions()); err != nil {
		return fmt.Errorf("failed to seed permission catalog: %w", err)
	}

	bootstrapped, err := app.bootstrapService.IsBootstrapped(ctx)
	if err != nil {
		return err
	}
	if bootstrapped {
		return nil
	}

	if app.bootstrapService.Password == "" {
		password, err := cryptox.GeneratePassword()
		if err != nil {
			return err
		}
		app.bootstrapService.Password = password
		// Shown once; there is no other way to recover it.
		app.logger.Info("generated bootstrap password", "password", password)
	}

	result, err := app.bootstrapService.Bootstrap(ctx)
	if err != nil {
		return fmt.Errorf("failed to bootstrap: %w", err)
	}

	// Shown once; the token is needed to make the first API call.
	app.logger.Info("bootstrap completed",
		"username", app.cfg.BootstrapUsername, "client_token", result.ClientToken)
	return nil
}
