// Package server assembles the fiber application: middleware, error handling
// and the route table with its permission checks.
package server

import (
	"errors"
	"strings"
	"time"

	"lab-inventory/internal/admin"
	"lab-inventory/internal/audit"
	"lab-inventory/internal/auth"
	"lab-inventory/internal/config"
	"lab-inventory/internal/dashboard"
	"lab-inventory/internal/httpx"
	"lab-inventory/internal/inventory"
	"lab-inventory/internal/logger"
	"lab-inventory/internal/purchasing"
	"lab-inventory/internal/store"
	"lab-inventory/internal/supplier"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

// bodyLimit leaves room for a maximum-size image plus form fields.
const bodyLimit = inventory.MaxImageSize + 1<<20

type Deps struct {
	Config *config.Config
	Store  *store.Store
	Images inventory.ImageStore
	Logger *zap.Logger
}

// New builds the application. Images defaults to a disk store under
// Config.SupplyImagePath.
func New(d Deps) *fiber.App {
	log := logger.Named(d.Logger, "http")
	cfg := d.Config
	if d.Images == nil {
		d.Images = inventory.NewDiskImageStore(cfg.SupplyImagePath)
	}

	app := fiber.New(fiber.Config{
		AppName:      "lab-inventory",
		BodyLimit:    bodyLimit,
		ErrorHandler: errorHandler(log),
	})

	app.Use(requestLogger(log))
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:  strings.Join(corsOrigins, ","),
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization",
		AllowMethods:  "GET,POST,PUT,DELETE,OPTIONS",
		ExposeHeaders: "Content-Disposition",
	}))

	app.Static(strings.TrimSuffix(inventory.ImageURLPrefix, "/"), cfg.SupplyImagePath)

	st := d.Store
	rec := audit.NewRecorder(st, d.Logger)
	svc := inventory.NewService(inventory.StoreOf(st), d.Logger)
	handlerLog := logger.Named(d.Logger, "handlers")

	api := app.Group("/api")

	// Public
	api.Post("/auth/login", auth.LoginHandler(cfg, st, d.Logger))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler(st))

	protected.Get("/dashboard", auth.RequirePermission(auth.PermViewDashboard), dashboard.SummaryHandler(st))

	// Supplies
	view := auth.RequirePermission(auth.PermViewSupplies)
	manage := auth.RequirePermission(auth.PermManageSupplies)
	protected.Get("/supplies", view, inventory.ListSuppliesHandler(st))
	protected.Get("/supplies/:id", view, inventory.GetSupplyHandler(st))
	protected.Get("/supplies/:id/open-orders", view, inventory.OpenOrdersHandler(svc))
	protected.Get("/supplies/:id/adjustments", view, inventory.AdjustmentHistoryHandler(svc))
	protected.Post("/supplies", manage, inventory.CreateSupplyHandler(st, d.Images, rec, handlerLog))
	protected.Put("/supplies/:id", manage, inventory.UpdateSupplyHandler(st, d.Images, rec, handlerLog))
	protected.Delete("/supplies/:id", manage, inventory.DeleteSupplyHandler(st, d.Images, rec, handlerLog))

	// Stock adjustments
	protected.Post("/stock-adjustments", auth.RequirePermission(auth.PermAdjustStock), inventory.StockAdjustmentHandler(svc, rec))

	// Suppliers
	suppliers := protected.Group("/suppliers", auth.RequirePermission(auth.PermManageSuppliers))
	suppliers.Get("/", supplier.ListSuppliersHandler(st))
	suppliers.Get("/:id", supplier.GetSupplierHandler(st))
	suppliers.Post("/", supplier.CreateSupplierHandler(st, rec))
	suppliers.Put("/:id", supplier.UpdateSupplierHandler(st, rec))
	suppliers.Delete("/:id", supplier.DeleteSupplierHandler(st, rec))

	// Purchase orders; export is registered before /:id
	protected.Get("/purchase-orders/export", auth.RequirePermission(auth.PermExportReports), purchasing.ExportPurchaseOrdersHandler(st))
	orders := protected.Group("/purchase-orders", auth.RequirePermission(auth.PermManagePurchaseOrders))
	orders.Get("/", purchasing.ListPurchaseOrdersHandler(st))
	orders.Get("/:id", purchasing.GetPurchaseOrderHandler(st))
	orders.Post("/", purchasing.CreatePurchaseOrderHandler(st, rec))
	orders.Put("/:id", purchasing.UpdatePurchaseOrderHandler(st, rec))
	orders.Delete("/:id", purchasing.DeletePurchaseOrderHandler(st, rec))

	// Admin
	adminRoutes := protected.Group("/admin", auth.RequirePermission(auth.PermManageUsers))
	adminRoutes.Get("/users", admin.ListUsersHandler(st))
	adminRoutes.Post("/users", admin.CreateUserHandler(st, rec))

	// Audit logs
	protected.Get("/audit-logs", auth.RequirePermission(auth.PermViewAuditLog), audit.ListAuditLogsHandler(st))

	return app
}

func errorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		if isStoreError(err) {
			err = httpx.StoreError(err, "record")
		}

		var e *fiber.Error
		if errors.As(err, &e) {
			if e.Code >= fiber.StatusInternalServerError {
				log.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
			}
			return c.Status(e.Code).JSON(fiber.Map{
				"error": e.Message,
			})
		}

		log.Error("unexpected error",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "unexpected server error",
		})
	}
}

func isStoreError(err error) bool {
	for _, target := range []error{store.ErrNotFound, store.ErrDuplicate, store.ErrForeignKey, store.ErrConflict, store.ErrConstraint} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func requestLogger(log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		chainErr := c.Next()

		status := c.Response().StatusCode()
		if chainErr != nil {
			var e *fiber.Error
			if errors.As(chainErr, &e) {
				status = e.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.IP()),
		}
		if p, ok := auth.CurrentUser(c); ok {
			fields = append(fields, zap.Uint("user_id", p.ID))
		}
		switch {
		case status >= fiber.StatusInternalServerError:
			log.Error("request", fields...)
		case status >= fiber.StatusBadRequest:
			log.Warn("request", fields...)
		default:
			log.Info("request", fields...)
		}
		return chainErr
	}
}
