// Package app initializes and runs the session service. It configures
// logging, storage, the token issuer and both transport bindings, and
// handles graceful shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/patric-chuzhbe/sessiond/internal/bodyreader"
	"github.com/patric-chuzhbe/sessiond/internal/config"
	"github.com/patric-chuzhbe/sessiond/internal/fiberserver"
	"github.com/patric-chuzhbe/sessiond/internal/logger"
	"github.com/patric-chuzhbe/sessiond/internal/models"
	"github.com/patric-chuzhbe/sessiond/internal/router"
	"github.com/patric-chuzhbe/sessiond/internal/service"
	"github.com/patric-chuzhbe/sessiond/internal/token"
	"github.com/patric-chuzhbe/sessiond/internal/userstore"
	"github.com/patric-chuzhbe/sessiond/internal/userstore/jsonfile"
	"github.com/patric-chuzhbe/sessiond/internal/userstore/memorystore"
	"github.com/patric-chuzhbe/sessiond/internal/userstore/postgresdb"
)

const shutdownTimeout = 10 * time.Second

// App encapsulates the configuration, the credential store and the two
// transport bindings of the service.
type App struct {
	cfg         *config.Config
	db          userstore.Store
	httpHandler http.Handler
	fiberApp    *fiber.App
}

// New initializes a new instance of App by:
// - loading configuration
// - initializing logger
// - selecting and setting up storage
// - wiring the token issuer, the pipeline and both transport bindings
func New() (*App, error) {
	var err error
	app := &App{}

	app.cfg, err = config.New()
	if err != nil {
		return nil, err
	}

	err = logger.Init(app.cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	app.db, err = getStorageByType(app.cfg)
	if err != nil {
		return nil, err
	}

	issuer := token.New(
		[]byte(app.cfg.TokenSigningSecretKey),
		app.cfg.AuthCookieName,
		app.cfg.TokenTTL,
	)
	svc := service.New(app.db, issuer)
	assembler := bodyreader.New()

	app.httpHandler = router.New(svc, issuer, assembler)
	app.fiberApp = fiberserver.New(svc, issuer, assembler)

	return app, nil
}

// Run starts both servers with graceful shutdown support. It listens
// for system signals and persists the user snapshot upon termination.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Log.Infoln(
		"server running",
		"RunAddr", a.cfg.RunAddr,
		"FiberRunAddr", a.cfg.FiberRunAddr,
	)

	server := &http.Server{
		Addr:    a.cfg.RunAddr,
		Handler: a.httpHandler,
	}

	serverErrCh := make(chan error, 2)
	go func() {
		serverErrCh <- server.ListenAndServe()
	}()
	go func() {
		serverErrCh <- a.fiberApp.Listen(a.cfg.FiberRunAddr)
	}()

	select {
	case <-ctx.Done():
		logger.Log.Infoln("Received shutdown signal. Saving database and exiting...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}

		if err := a.fiberApp.ShutdownWithTimeout(shutdownTimeout); err != nil {
			return fmt.Errorf("fiber server shutdown error: %w", err)
		}

		return a.db.Close()

	case err := <-serverErrCh:
		return fmt.Errorf("server error: %w", err)
	}
}

// Close finalizes resources used by App such as logging.
func (a *App) Close() {
	if err := logger.Sync(); err != nil {
		fmt.Println("Logger sync error:", err)
	}
}

func getAvailableStorageType(cfg *config.Config) int {
	if cfg.DatabaseDSN != "" {
		return models.StorageTypePostgresql
	}

	if cfg.DBFileName != "" {
		return models.StorageTypeFile
	}

	return models.StorageTypeMemory
}

func getStorageByType(cfg *config.Config) (userstore.Store, error) {
	switch getAvailableStorageType(cfg) {
	case models.StorageTypeUnknown:
		return nil, errors.New("unknown storage type")

	case models.StorageTypePostgresql:
		return postgresdb.New(
			context.Background(),
			cfg.DatabaseDSN,
			cfg.DBConnectionTimeout,
			cfg.MigrationsDir,
			postgresdb.WithBCryptCost(cfg.BCryptCost),
		)

	case models.StorageTypeFile:
		return jsonfile.New(cfg.DBFileName, jsonfile.WithBCryptCost(cfg.BCryptCost))
	}

	return memorystore.New(jsonfile.WithBCryptCost(cfg.BCryptCost))
}
