package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/jhoicas/pos-sync/internal/application/auth"
	"github.com/jhoicas/pos-sync/internal/application/billing"
	"github.com/jhoicas/pos-sync/internal/application/inventory"
	"github.com/jhoicas/pos-sync/internal/application/usecase"
	"github.com/jhoicas/pos-sync/internal/domain/repository"
	"github.com/jhoicas/pos-sync/internal/infrastructure/cache"
	"github.com/jhoicas/pos-sync/internal/infrastructure/memory"
	infrapdf "github.com/jhoicas/pos-sync/internal/infrastructure/pdf"
	"github.com/jhoicas/pos-sync/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/pos-sync/internal/interfaces/http"
	"github.com/jhoicas/pos-sync/pkg/config"
	"github.com/jhoicas/pos-sync/pkg/logger"
	"github.com/jhoicas/pos-sync/pkg/metrics"
	pkgredis "github.com/jhoicas/pos-sync/pkg/redis"
)

// txRunner transacciones de inventario y de conciliación sobre el mismo backend.
type txRunner interface {
	inventory.TxRunner
	billing.BillingTxRunner
}

// backend repositorios del driver elegido (postgres o memory).
type backend struct {
	products  repository.ProductRepository
	customers repository.PartyRepository
	suppliers repository.PartyRepository
	invoices  repository.InvoiceRepository
	payments  repository.PaymentRepository
	users     repository.UserRepository
	tx        txRunner
	close     func()
}

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("db_driver", cfg.DB.Driver).
		Msg("iniciando aplicación")

	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("JWT_SECRET es obligatorio")
	}

	ctx := context.Background()
	be, err := openBackend(ctx, cfg.DB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar persistencia")
	}
	defer be.close()

	var resultCache billing.ResultCache
	if cfg.Redis.Enabled() {
		rdb, err := pkgredis.New(ctx, cfg.Redis)
		if err != nil {
			// Sin cache la conciliación sigue siendo idempotente por la DB.
			log.Warn().Err(err).Msg("redis no disponible, se continúa sin cache de idempotencia")
		} else {
			defer rdb.Close()
			resultCache = cache.NewReconciliationCache(rdb, cfg.Redis.IdempotencyTTL, log)
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	reconcileMetrics := metrics.NewReconcileMetrics(registry)

	stockUC := inventory.NewStockUseCase(be.tx)
	createInvoiceUC := billing.NewCreateInvoiceUseCase(be.tx, stockUC, be.invoices, resultCache, reconcileMetrics, log)
	paymentUC := billing.NewPaymentUseCase(be.tx, be.payments, resultCache, reconcileMetrics, log)
	partyUC := billing.NewPartyUseCase(be.customers, be.suppliers, be.invoices, be.payments)
	receiptUC := billing.NewReceiptUseCase(be.invoices, be.customers, be.suppliers, be.products,
		infrapdf.NewReceiptGenerator(cfg.App.Name))
	authUC := auth.NewAuthUseCase(be.users, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: time.Duration(cfg.JWT.Expiration) * time.Minute,
		Issuer:     cfg.JWT.Issuer,
	})

	app := httpRouter.NewApp(cfg.App.Name, log)

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat("./docs/swagger.json"); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: "./docs/swagger.json",
			Path:     "docs",
			Title:    "pos-sync API",
		}))
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		ProductUC:     usecase.NewProductUseCase(be.products),
		Replenishment: inventory.NewReplenishmentUseCase(be.products),
		Stock:         stockUC,
		Parties:       partyUC,
		CreateInvoice: createInvoiceUC,
		Payments:      paymentUC,
		Receipts:      receiptUC,
		AuthUC:        authUC,
		JWTSecret:     cfg.JWT.Secret,
		ServiceName:   cfg.App.Name,
		Gatherer:      registry,
		Log:           log,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

func openBackend(ctx context.Context, cfg config.DBConfig, log *logger.Logger) (*backend, error) {
	if cfg.Driver == config.DriverMemory {
		log.Warn().Msg("DB_DRIVER=memory: los datos se pierden al reiniciar")
		db := memory.New()
		return &backend{
			products:  db.Products(),
			customers: db.Customers(),
			suppliers: db.Suppliers(),
			invoices:  db.Invoices(),
			payments:  db.Payments(),
			users:     db.Users(),
			tx:        memory.NewTxRunner(db),
			close:     func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.AutoMigrate {
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		log.Info().Msg("migraciones aplicadas")
	}
	return &backend{
		products:  postgres.NewProductRepository(pool),
		customers: postgres.NewCustomerRepository(pool),
		suppliers: postgres.NewSupplierRepository(pool),
		invoices:  postgres.NewInvoiceRepository(pool),
		payments:  postgres.NewPaymentRepository(pool),
		users:     postgres.NewUserRepository(pool),
		tx:        postgres.NewTxRunner(pool),
		close:     pool.Close,
	}, nil
}
