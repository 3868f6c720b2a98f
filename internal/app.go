package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	router "demobank/internal/api"
	"demobank/internal/api/handler"
	"demobank/internal/config"
	"demobank/internal/service"
	"demobank/internal/store"
	"demobank/internal/util"
	"demobank/pkg/kv"
)

// Application holds all the initialized components of the application.
type Application struct {
	Config *config.AppConfig
	Logger *slog.Logger
	KV     kv.Store

	// Store
	AccountStore *store.AccountStore

	// Services
	Sessions    *service.SessionManager
	BankService service.BankService

	// HTTP API
	HTTPHandler http.Handler
}

// NewApplication creates a new Application instance.
func NewApplication() *Application {
	return &Application{}
}

// Initialize initializes all application components.
func (app *Application) Initialize(ctx context.Context) error {
	// 1. Initialize Logger (first, so config failures are loggable)
	util.InitLogger()
	app.Logger = util.GetLogger()

	// 2. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	app.Config = cfg
	app.Logger.Info("Application configuration loaded successfully.")

	// 3. Initialize the persistence backend
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		backend, err := kv.NewPostgresStore(cfg.DB)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		app.KV = backend
	default:
		backend, err := kv.NewFileStore(cfg.StorePath)
		if err != nil {
			return fmt.Errorf("failed to open file store: %w", err)
		}
		app.KV = backend
	}
	app.Logger.Info("Persistence backend initialized.", "backend", cfg.StoreBackend)

	// 4. Initialize the account store
	app.AccountStore = store.NewAccountStore(app.KV)
	app.Logger.Info("Account store initialized.")

	// 5. Initialize Services
	app.Sessions = service.NewSessionManager(app.AccountStore, app.Logger, cfg.SessionTTLSeconds, nil)
	app.BankService = service.NewBankService(
		app.AccountStore,
		app.Sessions,
		app.Logger,
		time.Duration(cfg.LoanDelayMS)*time.Millisecond,
	)
	app.Logger.Info("Services initialized.")

	// 6. Initialize HTTP Handlers and Router
	bankHandler := handler.NewBankHandler(app.BankService, app.Logger)
	app.HTTPHandler = router.NewRouter(bankHandler, app.Logger)
	app.Logger.Info("HTTP router and handlers initialized.")

	return nil
}

// Shutdown gracefully shuts down application resources.
func (app *Application) Shutdown(ctx context.Context) error {
	app.Logger.Info("Shutting down application...")
	if closer, ok := app.KV.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			app.Logger.Error("Failed to close persistence backend", "error", err)
			return fmt.Errorf("failed to close persistence backend: %w", err)
		}
		app.Logger.Info("Persistence backend closed.")
	}
	app.Logger.Info("Application shut down gracefully.")
	return nil
}
