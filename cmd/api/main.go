package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/warunglabs/kasirpos-backend/api/controllers"
	"github.com/warunglabs/kasirpos-backend/api/routes"
	"github.com/warunglabs/kasirpos-backend/internal/auth"
	"github.com/warunglabs/kasirpos-backend/internal/cart"
	"github.com/warunglabs/kasirpos-backend/internal/customers"
	"github.com/warunglabs/kasirpos-backend/internal/expenses"
	"github.com/warunglabs/kasirpos-backend/internal/heldorders"
	"github.com/warunglabs/kasirpos-backend/internal/inventory"
	"github.com/warunglabs/kasirpos-backend/internal/loyalty"
	"github.com/warunglabs/kasirpos-backend/internal/products"
	"github.com/warunglabs/kasirpos-backend/internal/purchasing"
	"github.com/warunglabs/kasirpos-backend/internal/settlement"
	"github.com/warunglabs/kasirpos-backend/internal/transactions"
	"github.com/warunglabs/kasirpos-backend/internal/warehouses"
	"github.com/warunglabs/kasirpos-backend/pkg/config"
	"github.com/warunglabs/kasirpos-backend/pkg/db"
	"github.com/warunglabs/kasirpos-backend/pkg/logger"
	"github.com/warunglabs/kasirpos-backend/pkg/metrics"
	"github.com/warunglabs/kasirpos-backend/pkg/migrate"
	"github.com/warunglabs/kasirpos-backend/pkg/outbox"
	"github.com/warunglabs/kasirpos-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	settlementMetrics := metrics.NewSettlementMetrics(registry)

	gormDB := dbClient.DB()
	productsRepo := products.NewRepository(gormDB)
	customersRepo := customers.NewRepository(gormDB)
	warehousesRepo := warehouses.NewRepository(gormDB)
	expensesRepo := expenses.NewRepository(gormDB)
	transactionsRepo := transactions.NewRepository(gormDB)
	outboxService := outbox.NewService(outbox.NewRepository(gormDB), logg)

	authService, err := auth.NewService(auth.NewRepository(gormDB), cfg.JWT, cfg.Password, logg)
	exitOn(logg, "auth service", err)

	inventoryService, err := inventory.NewService(inventory.NewRepository(gormDB), dbClient, logg)
	exitOn(logg, "inventory service", err)

	loyaltyService, err := loyalty.NewService(loyalty.NewRepository(gormDB), logg)
	exitOn(logg, "loyalty service", err)

	transactionsService, err := transactions.NewService(transactionsRepo, logg)
	exitOn(logg, "transactions service", err)

	heldOrdersService, err := heldorders.NewService(heldorders.NewRepository(gormDB), logg)
	exitOn(logg, "held orders service", err)

	purchasingService, err := purchasing.NewService(purchasing.NewRepository(gormDB), inventoryService, dbClient, logg)
	exitOn(logg, "purchasing service", err)

	settlementService, err := settlement.NewService(settlement.Config{
		Tx:          dbClient,
		Ledger:      transactionsRepo,
		Stock:       inventoryService,
		Loyalty:     loyaltyService,
		Warehouses:  warehousesRepo,
		Events:      outboxService,
		Metrics:     settlementMetrics,
		Logger:      logg,
		AccrualUnit: cfg.Loyalty.AccrualUnit,
	})
	exitOn(logg, "settlement service", err)

	router := routes.NewRouter(routes.Deps{
		Config:   cfg,
		Logger:   logg,
		Redis:    redisClient,
		Registry: registry,
		Pingers: map[string]controllers.Pinger{
			"database": dbClient,
			"redis":    redisClient,
		},
		AuthService:       authService,
		CartRegistry:      cart.NewRegistry(),
		ProductsRepo:      productsRepo,
		CustomersRepo:     customersRepo,
		ExpensesRepo:      expensesRepo,
		WarehousesRepo:    warehousesRepo,
		SettlementService: settlementService,
		TransactionsSvc:   transactionsService,
		HeldOrdersService: heldOrdersService,
		InventoryService:  inventoryService,
		LoyaltyService:    loyaltyService,
		PurchasingService: purchasingService,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-shutdownCtx.Done():
		logg.Info(ctx, "shutting down api server")
		drainCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(drainCtx); err != nil {
			logg.Error(ctx, "error during shutdown", err)
		}
	}
}

func exitOn(logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(context.Background(), "failed to create "+resource, err)
	os.Exit(1)
}
