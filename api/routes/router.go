package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/warunglabs/kasirpos-backend/api/controllers"
	"github.com/warunglabs/kasirpos-backend/api/middleware"
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
	"github.com/warunglabs/kasirpos-backend/pkg/logger"
	pkgredis "github.com/warunglabs/kasirpos-backend/pkg/redis"
)

// Deps bundles everything the HTTP surface needs. Wired once in cmd/api.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	Redis    *pkgredis.Client
	Registry *prometheus.Registry
	Pingers  map[string]controllers.Pinger

	AuthService       auth.Service
	CartRegistry      *cart.Registry
	ProductsRepo      *products.Repository
	CustomersRepo     *customers.Repository
	WarehousesRepo    *warehouses.Repository
	ExpensesRepo      *expenses.Repository
	SettlementService settlement.Service
	TransactionsSvc   transactions.Service
	HeldOrdersService heldorders.Service
	InventoryService  inventory.Service
	LoyaltyService    loyalty.Service
	PurchasingService purchasing.Service
}

func NewRouter(d Deps) http.Handler {
	cfg, logg := d.Config, d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	idempotent := func(next http.Handler) http.Handler { return next }
	if d.Redis != nil {
		idempotent = middleware.Idempotency(d.Redis, logg)
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, d.Pingers))
	})

	if d.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(idempotent).Post("/register", controllers.AuthRegister(d.AuthService, logg))
		r.Post("/login", controllers.AuthLogin(d.AuthService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(idempotent)

		r.Get("/auth/me", controllers.AuthMe(d.AuthService, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartGet(d.CartRegistry, logg))
			r.Post("/items", controllers.CartAddItem(d.CartRegistry, d.ProductsRepo, logg))
			r.Patch("/items", controllers.CartChangeQuantity(d.CartRegistry, logg))
			r.Delete("/items", controllers.CartRemoveItem(d.CartRegistry, logg))
			r.Delete("/", controllers.CartClear(d.CartRegistry, logg))
			r.Post("/quote", controllers.CartQuote(d.CartRegistry, logg))
		})

		r.Post("/settlements", controllers.SettlementCreate(d.SettlementService, d.CartRegistry, logg))

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", controllers.TransactionList(d.TransactionsSvc, logg))
			r.Get("/stats/today", controllers.TransactionTodayStats(d.TransactionsSvc, logg))
			r.Get("/stats/top-products", controllers.TransactionTopProducts(d.TransactionsSvc, logg))
			r.Get("/{transactionId}", controllers.TransactionGet(d.TransactionsSvc, logg))
			r.Post("/{transactionId}/void", controllers.TransactionVoid(d.TransactionsSvc, logg))
		})

		r.Route("/held-orders", func(r chi.Router) {
			r.Post("/", controllers.HeldOrderCreate(d.HeldOrdersService, d.CartRegistry, logg))
			r.Get("/", controllers.HeldOrderList(d.HeldOrdersService, logg))
			r.Post("/{heldOrderId}/recall", controllers.HeldOrderRecall(d.HeldOrdersService, d.CartRegistry, logg))
			r.Delete("/{heldOrderId}", controllers.HeldOrderDelete(d.HeldOrdersService, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(d.ProductsRepo, logg))
			r.Post("/", controllers.ProductCreate(d.ProductsRepo, logg))
			r.Get("/{productId}", controllers.ProductGet(d.ProductsRepo, logg))
			r.Put("/{productId}", controllers.ProductUpdate(d.ProductsRepo, logg))
			r.Delete("/{productId}", controllers.ProductDelete(d.ProductsRepo, logg))
		})

		r.Route("/customers", func(r chi.Router) {
			r.Get("/", controllers.CustomerList(d.CustomersRepo, logg))
			r.Post("/", controllers.CustomerCreate(d.CustomersRepo, logg))
			r.Get("/{customerId}", controllers.CustomerGet(d.CustomersRepo, logg))
			r.Put("/{customerId}", controllers.CustomerUpdate(d.CustomersRepo, logg))
		})

		r.Route("/warehouses", func(r chi.Router) {
			r.Get("/", controllers.WarehouseList(d.WarehousesRepo, logg))
			r.Post("/", controllers.WarehouseCreate(d.WarehousesRepo, logg))
			r.Post("/{warehouseId}/primary", controllers.WarehouseSetPrimary(d.WarehousesRepo, logg))
		})

		r.Route("/inventory", func(r chi.Router) {
			r.Get("/stocks", controllers.InventoryStocks(d.InventoryService, logg))
			r.Get("/stocks/low", controllers.InventoryLowStocks(d.InventoryService, logg))
			r.Put("/stocks", controllers.InventoryAdjust(d.InventoryService, logg))
			r.Get("/movements", controllers.InventoryMovements(d.InventoryService, logg))
		})

		r.Route("/loyalty", func(r chi.Router) {
			r.Route("/rewards", func(r chi.Router) {
				r.Get("/", controllers.LoyaltyRewards(d.LoyaltyService, logg))
				r.Post("/", controllers.LoyaltyRewardCreate(d.LoyaltyService, logg))
				r.Put("/{rewardId}", controllers.LoyaltyRewardUpdate(d.LoyaltyService, logg))
				r.Delete("/{rewardId}", controllers.LoyaltyRewardDelete(d.LoyaltyService, logg))
			})
			r.Route("/tiers", func(r chi.Router) {
				r.Get("/", controllers.LoyaltyTiers(d.LoyaltyService, logg))
				r.Post("/", controllers.LoyaltyTierCreate(d.LoyaltyService, logg))
				r.Put("/{tierId}", controllers.LoyaltyTierUpdate(d.LoyaltyService, logg))
				r.Delete("/{tierId}", controllers.LoyaltyTierDelete(d.LoyaltyService, logg))
			})
		})

		r.Route("/expenses", func(r chi.Router) {
			r.Get("/", controllers.ExpenseList(d.ExpensesRepo, logg))
			r.Post("/", controllers.ExpenseCreate(d.ExpensesRepo, logg))
			r.Delete("/{expenseId}", controllers.ExpenseDelete(d.ExpensesRepo, logg))
		})

		r.Route("/suppliers", func(r chi.Router) {
			r.Get("/", controllers.SupplierList(d.PurchasingService, logg))
			r.Post("/", controllers.SupplierCreate(d.PurchasingService, logg))
			r.Put("/{supplierId}", controllers.SupplierUpdate(d.PurchasingService, logg))
			r.Delete("/{supplierId}", controllers.SupplierDelete(d.PurchasingService, logg))
		})

		r.Route("/purchases", func(r chi.Router) {
			r.Get("/", controllers.PurchaseList(d.PurchasingService, logg))
			r.Post("/", controllers.PurchaseCreate(d.PurchasingService, logg))
			r.Get("/{purchaseId}", controllers.PurchaseGet(d.PurchasingService, logg))
		})
	})

	return r
}
