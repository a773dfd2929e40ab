package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/pos-sync/internal/application/auth"
	"github.com/jhoicas/pos-sync/internal/application/billing"
	"github.com/jhoicas/pos-sync/internal/application/inventory"
	"github.com/jhoicas/pos-sync/internal/application/usecase"
	"github.com/jhoicas/pos-sync/internal/domain/entity"
	"github.com/jhoicas/pos-sync/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	ProductUC     *usecase.ProductUseCase
	Replenishment *inventory.ReplenishmentUseCase
	Stock         *inventory.StockUseCase
	Parties       *billing.PartyUseCase
	CreateInvoice *billing.CreateInvoiceUseCase
	Payments      *billing.PaymentUseCase
	Receipts      *billing.ReceiptUseCase
	AuthUC        *auth.AuthUseCase
	JWTSecret     string
	ServiceName   string
	Gatherer      prometheus.Gatherer // nil = sin /metrics
	Log           *logger.Logger
}

// NewApp crea la aplicación Fiber con los middlewares base (recover y log de peticiones).
func NewApp(name string, log *logger.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(RequestLogger(log))
	return app
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": deps.ServiceName})
	})
	if deps.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api")

	// Auth (login público; register acepta token opcional para fijar rol)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/register", OptionalAuth(deps.JWTSecret), authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	products := protected.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC, deps.Replenishment)
	products.Post("/", productHandler.Create)
	products.Get("/", productHandler.List)
	products.Get("/low-stock", productHandler.LowStock)
	products.Get("/:id", productHandler.GetByID)
	products.Put("/:id", RequireRole(entity.RoleAdmin, entity.RoleBodeguero), productHandler.Update)

	invGroup := protected.Group("/inventory", RequireRole(entity.RoleAdmin, entity.RoleBodeguero))
	inventoryHandler := NewInventoryHandler(deps.Stock)
	invGroup.Post("/adjustments", inventoryHandler.Adjust)

	partyRoutes(protected.Group("/customers"), NewPartyHandler(deps.Parties, entity.PartyCustomer))
	partyRoutes(protected.Group("/suppliers"), NewPartyHandler(deps.Parties, entity.PartySupplier))

	invoices := protected.Group("/invoices")
	invoiceHandler := NewInvoiceHandler(deps.CreateInvoice, deps.Receipts)
	invoices.Post("/", invoiceHandler.Create)
	invoices.Get("/", invoiceHandler.List)
	invoices.Get("/:id", invoiceHandler.GetByID)
	invoices.Get("/:id/receipt", invoiceHandler.Receipt)

	payments := protected.Group("/payments")
	paymentHandler := NewPaymentHandler(deps.Payments)
	payments.Post("/", paymentHandler.Create)
	payments.Get("/", paymentHandler.List)
}

func partyRoutes(g fiber.Router, h *PartyHandler) {
	g.Post("/", h.Create)
	g.Get("/", h.List)
	g.Get("/:id", h.GetByID)
	g.Get("/:id/statement", h.Statement)
}

// RequestLogger registra método, ruta, status y duración de cada petición.
func RequestLogger(log *logger.Logger) fiber.Handler {
	if log == nil {
		log = logger.Nop()
	}
	log = log.Component("http")
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		ev := log.Info()
		if status >= fiber.StatusInternalServerError {
			ev = log.Error().Err(err)
		}
		ev.Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Str("idempotency_key", c.Get(HeaderIdempotencyKey)).
			Msg("petición")
		return err
	}
}
