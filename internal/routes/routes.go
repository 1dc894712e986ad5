// Package routes defines the API routing configuration.
// It sets up all HTTP routes and their corresponding handlers,
// including middleware and authentication requirements.
package routes

import (
	"railpay/internal/handlers"
	"railpay/internal/middleware"
	"railpay/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

// Handlers groups the HTTP handlers mounted by SetupRoutes.
type Handlers struct {
	Accounts  *handlers.AccountHandler
	Wallets   *handlers.WalletHandler
	Transfers *handlers.TransferHandler
	Health    *handlers.HealthHandler
}

type Options struct {
	JWTSecret string
}

// SetupRoutes configures all application routes.
// It groups routes by functionality and applies appropriate middleware.
func SetupRoutes(app *fiber.App, h Handlers, opts Options, log *zap.Logger) {
	app.Use(recover.New())
	app.Use(middleware.RequestLogger(log))

	app.Get("/health", h.Health.Check)

	auth := middleware.NewAuthMiddleware(opts.JWTSecret, log)
	api := app.Group("/api/v1", auth.Handler)

	accounts := api.Group("/accounts")
	accounts.Post("/", middleware.HasPermission(models.PermissionAccountWrite), h.Accounts.Open)
	accounts.Get("/:id", middleware.HasPermission(models.PermissionAccountRead), h.Accounts.Get)
	accounts.Get("/:id/transfers", middleware.HasPermission(models.PermissionTransferRead), h.Transfers.ListByAccount)
	accounts.Post("/:id/close", middleware.HasPermission(models.PermissionAccountWrite), h.Accounts.Close)

	manage := middleware.HasPermission(models.PermissionAccountManage)
	accounts.Post("/:id/credit", manage, h.Accounts.Credit)
	accounts.Post("/:id/debit", manage, h.Accounts.Debit)
	accounts.Post("/:id/activate", manage, h.Accounts.Activate)
	accounts.Post("/:id/freeze", manage, h.Accounts.Freeze)
	accounts.Post("/:id/unfreeze", manage, h.Accounts.Unfreeze)

	wallets := api.Group("/wallets")
	wallets.Get("/:accountId", middleware.HasPermission(models.PermissionWalletRead), h.Wallets.Get)
	wallets.Post("/:accountId/deposit", manage, h.Wallets.Deposit)

	transfers := api.Group("/transfers")
	transfers.Post("/", middleware.HasPermission(models.PermissionTransferWrite), h.Transfers.Create)
	transfers.Get("/:id", middleware.HasPermission(models.PermissionTransferRead), h.Transfers.Get)
	transfers.Get("/:id/history", middleware.HasPermission(models.PermissionTransferRead), h.Transfers.History)
}
