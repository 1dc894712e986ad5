// Package main is the entry point for the application.
// It initializes all dependencies, sets up the HTTP server,
// and starts the application.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"railpay/internal/config"
	"railpay/internal/events"
	"railpay/internal/handlers"
	"railpay/internal/logger"
	"railpay/internal/models"
	"railpay/internal/repositories"
	"railpay/internal/repositories/cache"
	"railpay/internal/repositories/memory"
	"railpay/internal/resilience"
	"railpay/internal/routes"
	"railpay/internal/services/account"
	"railpay/internal/services/idempotency"
	"railpay/internal/services/rail"
	"railpay/internal/services/reconciliation"
	"railpay/internal/services/transfer"
	"railpay/internal/services/wallet"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const version = "1.0.0"

type storage struct {
	accounts     repositories.AccountRepository
	wallets      repositories.WalletRepository
	transactions repositories.TransactionRepository
	pending      repositories.PendingCommitRepository
	health       handlers.HealthCheck
	close        func() error
}

func main() {
	if err := config.LoadEnv(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}
	cfg := config.Load()

	zl, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	if err := run(cfg, zl); err != nil {
		zl.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.close(); err != nil {
			log.Warn("failed to close storage", zap.Error(err))
		}
	}()

	checks := map[string]handlers.HealthCheck{"database": store.health}

	var idemStore cache.Store
	if cfg.Redis.Enabled() {
		client := cache.NewRedisClient(cfg.Redis)
		if err := cache.Ping(ctx, client); err != nil {
			return err
		}
		redisCache := cache.NewCacheService(client, cfg.IdempotencyTTL, "railpay")
		defer redisCache.Close()
		idemStore = redisCache
		checks["redis"] = redisCache.HealthCheck
		log.Info("redis connected", zap.String("host", cfg.Redis.Host))
	} else {
		memStore := cache.NewMemoryStore(cfg.IdempotencyTTL)
		go memStore.Run(ctx, time.Minute)
		idemStore = memStore
		log.Info("using in-memory idempotency store")
	}

	broker, err := openBroker(cfg.Broker)
	if err != nil {
		return err
	}

	policy := func(name string, pc config.PolicyConfig) *resilience.Policy {
		return resilience.New(resilience.FromPolicyConfig(name, pc), log)
	}
	railPolicies := make(map[models.RailType]*resilience.Policy)
	for _, rt := range models.RailTypes() {
		railPolicies[rt] = policy("rail."+strings.ToLower(string(rt)), cfg.RailPolicy)
	}

	publisher := events.NewPublisher(broker, cfg.Broker.TopicPrefix, policy("events", cfg.EventPolicy), log)
	defer publisher.Close()

	limits := rail.DefaultLimits().WithOverrides(cfg.Rails.Limits)
	var rails *rail.Registry
	if cfg.Rails.GatewayURL != "" {
		rails = rail.NewGatewayRegistry(rail.NewGateway(cfg.Rails.GatewayURL, cfg.Rails.Timeout, nil, log), limits)
		log.Info("rail gateway configured", zap.String("url", cfg.Rails.GatewayURL))
	} else {
		rails = rail.NewSimulatorRegistry(limits)
		log.Warn("RAIL_GATEWAY_URL not set, using simulated rails")
	}

	walletService := wallet.NewService(store.wallets, wallet.WalletConfig{DefaultCurrency: cfg.Currency}, nil, log)
	walletPort := wallet.NewPort(walletService)
	accountService := account.NewService(store.accounts, walletService, account.Config{DefaultCurrency: cfg.Currency}, log)

	guard := idempotency.NewGuard(idemStore, store.transactions, idempotency.Config{
		TTL:  cfg.IdempotencyTTL,
		Wait: cfg.IdempotencyWait,
	}, log)

	transferService := transfer.NewService(transfer.Dependencies{
		Transactions: store.transactions,
		Wallet:       walletPort,
		Rails:        rails,
		Events:       publisher,
		Guard:        guard,
		Pending:      store.pending,
		Accounts:     accountService,
	}, transfer.Policies{
		Wallet:      policy("wallet", cfg.WalletPolicy),
		Persistence: policy("persistence", cfg.PersistencePolicy),
		Rails:       railPolicies,
	}, transfer.Config{}, log)

	worker := reconciliation.NewWorker(store.pending, walletPort, reconciliation.Config{
		Interval:  cfg.ReconcileInterval,
		BatchSize: cfg.ReconcileBatchSize,
	}, log)
	go worker.Run(ctx)

	app := fiber.New(fiber.Config{
		AppName:               "railpay",
		DisableStartupMessage: config.IsProduction(),
		ReadTimeout:           15 * time.Second,
		WriteTimeout:          30 * time.Second,
	})
	routes.SetupRoutes(app, routes.Handlers{
		Accounts:  handlers.NewAccountHandler(accountService, cfg.Currency),
		Wallets:   handlers.NewWalletHandler(walletService, accountService),
		Transfers: handlers.NewTransferHandler(transferService, accountService, store.transactions, cfg.Currency),
		Health:    handlers.NewHealthHandler(version, checks),
	}, routes.Options{JWTSecret: cfg.JWTSecret}, log)

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("port", cfg.Port))
		errCh <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Warn("http shutdown incomplete", zap.Error(err))
	}
	return nil
}

func openStorage(ctx context.Context, cfg config.Config, log *zap.Logger) (*storage, error) {
	switch cfg.Database.Driver {
	case "memory":
		log.Warn("using in-memory storage, data is lost on restart")
		return &storage{
			accounts:     memory.NewAccountRepository(),
			wallets:      memory.NewWalletRepository(),
			transactions: memory.NewTransactionRepository(),
			pending:      memory.NewPendingCommitRepository(),
			health:       func(context.Context) error { return nil },
			close:        func() error { return nil },
		}, nil
	case "postgres":
		db, err := repositories.Open(ctx, cfg.Database, log)
		if err != nil {
			return nil, err
		}
		go repositories.LogPoolStats(ctx, db, time.Minute, log)
		return &storage{
			accounts:     repositories.NewAccountRepository(db),
			wallets:      repositories.NewWalletRepository(db),
			transactions: repositories.NewTransactionRepository(db),
			pending:      repositories.NewPendingCommitRepository(db),
			health: func(ctx context.Context) error {
				sqlDB, err := db.DB()
				if err != nil {
					return err
				}
				return sqlDB.PingContext(ctx)
			},
			close: func() error { return repositories.Close(db) },
		}, nil
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.Database.Driver)
	}
}

func openBroker(cfg config.BrokerConfig) (events.Broker, error) {
	switch cfg.Driver {
	case "kafka":
		return events.NewKafkaBroker(cfg.KafkaBrokers)
	case "rabbitmq":
		return events.NewRabbitBroker(cfg.RabbitURL, cfg.Exchange)
	case "memory", "":
		return events.NewMemoryBroker(), nil
	default:
		return nil, errors.New("unknown BROKER_DRIVER " + cfg.Driver)
	}
}
