// Package app provides the dependency injection container for assembling
// application components.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/mailmind/mailmind/internal/config"
	"github.com/mailmind/mailmind/internal/database"
	apphttp "github.com/mailmind/mailmind/internal/http"
	mailboxservice "github.com/mailmind/mailmind/internal/mailbox/service"
	mailboxUsecase "github.com/mailmind/mailmind/internal/mailbox/usecase"
	"github.com/mailmind/mailmind/internal/metrics"
	outboxUsecase "github.com/mailmind/mailmind/internal/outbox/usecase"
	syncjobUsecase "github.com/mailmind/mailmind/internal/syncjob/usecase"
)

// Container holds all application dependencies and provides methods to access them.
// It follows the lazy initialization pattern - components are created on first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger           *slog.Logger
	db               *sql.DB
	txManager        database.TxManager
	metricsProvider  *metrics.Provider
	businessMetrics  metrics.BusinessMetrics
	metricsServer    *apphttp.MetricsServer
	credentialKeeper *mailboxservice.CredentialKeeper

	// Repositories
	outboxRepo     outboxUsecase.OutboxEventRepository
	syncJobRepo    syncjobUsecase.SyncJobRepository
	accountRepo    mailboxUsecase.AccountRepository
	credentialRepo mailboxUsecase.CredentialRepository
	messageRepo    mailboxUsecase.MessageRepository

	// Services
	imapGateway *mailboxservice.ImapGateway

	// Use Cases
	outboxRelay    *outboxUsecase.OutboxRelay
	syncQueue      *syncjobUsecase.SyncQueue
	syncExecutor   *mailboxUsecase.SyncExecutor
	accountUseCase *mailboxUsecase.AccountUseCase

	// Initialization flags and mutex for thread-safety
	mu                  sync.Mutex
	loggerInit          sync.Once
	dbInit              sync.Once
	txManagerInit       sync.Once
	metricsProviderInit sync.Once
	businessMetricsInit sync.Once
	metricsServerInit   sync.Once
	keeperInit          sync.Once
	outboxRepoInit      sync.Once
	syncJobRepoInit     sync.Once
	accountRepoInit     sync.Once
	credentialRepoInit  sync.Once
	messageRepoInit     sync.Once
	imapGatewayInit     sync.Once
	outboxRelayInit     sync.Once
	syncQueueInit       sync.Once
	syncExecutorInit    sync.Once
	accountUseCaseInit  sync.Once
	initErrors          map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// DB returns the database connection.
func (c *Container) DB() (*sql.DB, error) {
	c.dbInit.Do(func() {
		db, err := database.Connect(database.Config{
			Driver:             c.config.DBDriver,
			ConnectionString:   c.config.DBConnectionString,
			MaxOpenConnections: c.config.DBMaxOpenConnections,
			MaxIdleConnections: c.config.DBMaxIdleConnections,
			ConnMaxLifetime:    c.config.DBConnMaxLifetime,
		})
		if err != nil {
			c.initErrors["db"] = fmt.Errorf("failed to connect to database: %w", err)
			return
		}
		c.db = db
	})
	if err, exists := c.initErrors["db"]; exists {
		return nil, err
	}
	return c.db, nil
}

// TxManager returns the transaction manager.
func (c *Container) TxManager() (database.TxManager, error) {
	c.txManagerInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["txManager"] = fmt.Errorf("failed to get database for tx manager: %w", err)
			return
		}
		c.txManager = database.NewTxManager(db)
	})
	if err, exists := c.initErrors["txManager"]; exists {
		return nil, err
	}
	return c.txManager, nil
}

// MetricsProvider returns the metrics provider, or nil when metrics are disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	c.metricsProviderInit.Do(func() {
		if !c.config.MetricsEnabled {
			return
		}
		provider, err := metrics.NewProvider(c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["metricsProvider"] = fmt.Errorf("failed to create metrics provider: %w", err)
			return
		}
		c.metricsProvider = provider
	})
	if err, exists := c.initErrors["metricsProvider"]; exists {
		return nil, err
	}
	return c.metricsProvider, nil
}

// BusinessMetrics returns the business metrics recorder. A no-op recorder is
// returned when metrics are disabled.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	c.businessMetricsInit.Do(func() {
		provider, err := c.MetricsProvider()
		if err != nil {
			c.initErrors["businessMetrics"] = err
			return
		}
		if provider == nil {
			c.businessMetrics = metrics.NewNoOpBusinessMetrics()
			return
		}
		bm, err := metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["businessMetrics"] = fmt.Errorf("failed to create business metrics: %w", err)
			return
		}
		c.businessMetrics = bm
	})
	if err, exists := c.initErrors["businessMetrics"]; exists {
		return nil, err
	}
	return c.businessMetrics, nil
}

// MetricsServer returns the metrics HTTP server.
func (c *Container) MetricsServer() (*apphttp.MetricsServer, error) {
	c.metricsServerInit.Do(func() {
		provider, err := c.MetricsProvider()
		if err != nil {
			c.initErrors["metricsServer"] = err
			return
		}
		c.metricsServer = apphttp.NewMetricsServer(
			c.config.MetricsHost,
			c.config.MetricsPort,
			c.Logger(),
			provider,
		)
	})
	if err, exists := c.initErrors["metricsServer"]; exists {
		return nil, err
	}
	return c.metricsServer, nil
}

// CredentialKeeper returns the credential keeper.
func (c *Container) CredentialKeeper(ctx context.Context) (*mailboxservice.CredentialKeeper, error) {
	c.keeperInit.Do(func() {
		keeper, err := mailboxservice.NewCredentialKeeper(ctx, c.config.CredentialKeyURI)
		if err != nil {
			c.initErrors["credentialKeeper"] = fmt.Errorf("failed to create credential keeper: %w", err)
			return
		}
		c.credentialKeeper = keeper
	})
	if err, exists := c.initErrors["credentialKeeper"]; exists {
		return nil, err
	}
	return c.credentialKeeper, nil
}

// Shutdown performs cleanup of all initialized resources.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	if c.credentialKeeper != nil {
		if err := c.credentialKeeper.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("credential keeper close: %w", err))
		}
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %v", shutdownErrors)
	}

	return nil
}

// initLogger creates and configures a structured logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}
