package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eaglebank/ledger/ledger-service/internal/command"
	"github.com/eaglebank/ledger/ledger-service/internal/handler"
	"github.com/eaglebank/ledger/ledger-service/internal/ledger"
	"github.com/eaglebank/ledger/ledger-service/internal/query"
	"github.com/eaglebank/ledger/ledger-service/internal/repository"
	"github.com/eaglebank/ledger/shared/config"
	"github.com/eaglebank/ledger/shared/events"
	"github.com/eaglebank/ledger/shared/logging"
	"github.com/eaglebank/ledger/shared/middleware"
	"github.com/eaglebank/ledger/shared/models"
	redisClient "github.com/eaglebank/ledger/shared/redis"
	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stdout, cfg.Logging)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("ledger service stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database connection (write store)
	db, err := openDB(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	// Redis connection (read model store + event streaming)
	redis, err := redisClient.NewClient(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer redis.Close()

	// --- CQRS wiring ---
	publisher := events.NewPublisher(redis.Client)

	accountReads := repository.NewAccountReadRepository(db, redisClient.NewViewCache[models.AccountView](redis.Client, cfg.Redis.ViewCacheTTL))
	customerReads := repository.NewCustomerReadRepository(db, redisClient.NewViewCache[models.CustomerView](redis.Client, cfg.Redis.ViewCacheTTL))
	adminReads := repository.NewAdminReadRepository(db, redisClient.NewViewCache[models.DashboardSummary](redis.Client, cfg.Redis.SummaryCacheTTL))
	transactionReads := repository.NewTransactionReadRepository(db)
	customers := repository.NewCustomerWriteRepository(db)
	inventory := repository.NewInventoryRepository(db)

	ledgerSvc := ledger.NewService(db, ledger.WithLogger(logger.With("component", "ledger")))

	customerCommands := command.NewCustomerCommandService(ledgerSvc, accountReads, adminReads, publisher, logger.With("component", "commands"))
	inventoryCommands := command.NewInventoryCommandService(customers, inventory)

	customerQueries := query.NewCustomerQueryService(customerReads, accountReads, transactionReads, customers)
	inventoryQueries := query.NewInventoryQueryService(customers, inventory)
	adminQueries := query.NewAdminQueryService(customerReads, transactionReads, adminReads, inventory)

	customerHandler := handler.NewCustomerHandler(customerCommands, customerQueries)
	inventoryHandler := handler.NewInventoryHandler(inventoryCommands, inventoryQueries)
	adminHandler := handler.NewAdminHandler(inventoryCommands, adminQueries)

	// Setup router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.CORSMiddleware(cfg.HTTP.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		status := gin.H{"status": "ok", "database": "ok", "redis": "ok"}
		code := http.StatusOK
		if err := db.PingContext(c.Request.Context()); err != nil {
			status["status"], status["database"], code = "degraded", err.Error(), http.StatusServiceUnavailable
		}
		if err := redis.Healthy(c.Request.Context()); err != nil {
			status["status"], status["redis"], code = "degraded", err.Error(), http.StatusServiceUnavailable
		}
		c.JSON(code, status)
	})

	customersGroup := router.Group("/customers")
	{
		customersGroup.GET("", customerHandler.ListCustomers)
		customersGroup.POST("/signup", customerHandler.Signup)
		customersGroup.POST("/login", customerHandler.Login)
		customersGroup.POST("/create-account", customerHandler.CreateAccount)
		customersGroup.POST("/transfer", customerHandler.Transfer)
		customersGroup.GET("/balance", customerHandler.GetBalance)
		customersGroup.GET("/profile", customerHandler.GetProfile)
		customersGroup.GET("/transactions", customerHandler.ListTransactions)

		customersGroup.POST("/inventory/add", inventoryHandler.AddInventory)
		customersGroup.GET("/inventory", inventoryHandler.ListSellerInventory)
		customersGroup.GET("/inventory/all", inventoryHandler.ListAvailable)
	}

	admin := router.Group("/customers/admin")
	{
		admin.GET("/customers", adminHandler.ListCustomers)
		admin.GET("/transactions", adminHandler.ListTransactions)
		admin.GET("/summary", adminHandler.Summary)
		admin.GET("/products", adminHandler.ListProducts)
		admin.POST("/add-product", adminHandler.AddProduct)
	}

	router.GET("/inventory/inventories", adminHandler.ListInventories)

	go func() {
		subscriber := events.NewSubscriber(redis.Client, events.SubscriberConfig{
			Group:    "ledger-service-group",
			Consumer: consumerName(),
			Stream:   events.CustomerEventsStream,
			Handler:  customerCommands.HandleCustomerEvent,
			Logger:   logger,
		})
		if err := subscriber.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("subscriber stopped", "error", err)
		}
	}()

	srv := &http.Server{
		Addr:              ":" + cfg.HTTP.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("ledger service starting", "port", cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

func openDB(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// consumerName keeps consumer names unique across replicas in one group.
func consumerName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "local"
	}
	return fmt.Sprintf("ledger-consumer-%s-%d", host, os.Getpid())
}
