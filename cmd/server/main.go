package main

import (
	"log"
	"strings"

	"market-backend/internal/admin"
	"market-backend/internal/audit"
	"market-backend/internal/auth"
	"market-backend/internal/cashsession"
	"market-backend/internal/config"
	"market-backend/internal/database"
	"market-backend/internal/models"
	"market-backend/internal/purchasing"
	"market-backend/internal/reports"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func main() {
	cfg := config.Load()
	database.Init(cfg)

	sessionRepo := cashsession.NewGormRepository(database.DB)
	sessionSvc := cashsession.NewService(sessionRepo)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			log.Println("Unexpected error:", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Beklenmeyen sunucu hatası",
			})
		},
	})

	// CORS origins'i virgülle ayrılmış string'den array'e çevir
	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register-super-admin", auth.RegisterSuperAdminHandler(cfg))
	api.Post("/auth/login", auth.LoginHandler(cfg))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler())

	// Yönetim (sadece super admin)
	adminRoutes := protected.Group("/admin")
	adminRoutes.Use(auth.RequireModule(auth.ModuleAdmin), auth.RequireRole(models.RoleSuperAdmin))

	// Şube yönetimi
	adminRoutes.Post("/branches", admin.CreateBranchHandler())
	adminRoutes.Get("/branches", admin.ListBranchesHandler())
	adminRoutes.Get("/branches/:id", admin.GetBranchHandler())
	adminRoutes.Put("/branches/:id", admin.UpdateBranchHandler())
	adminRoutes.Delete("/branches/:id", admin.DeleteBranchHandler())

	// Şube kullanıcıları (admin + kasiyer)
	adminRoutes.Post("/branches/:id/users", admin.CreateBranchUserHandler())
	adminRoutes.Get("/branches/:id/users", admin.ListBranchUsersHandler())
	adminRoutes.Put("/users/:id/active", admin.SetUserActiveHandler())

	// Kasa (yazarkasa) yönetimi
	adminRoutes.Post("/registers", admin.CreateRegisterHandler())
	adminRoutes.Get("/registers", admin.ListRegistersHandler())
	adminRoutes.Put("/registers/:id", admin.UpdateRegisterHandler())
	adminRoutes.Delete("/registers/:id", admin.DeleteRegisterHandler())

	// Kasa oturumları
	sessions := protected.Group("/cash-sessions")
	sessions.Use(auth.RequireModule(auth.ModuleCashSession))
	sessions.Post("", cashsession.OpenSessionHandler(sessionSvc))
	sessions.Get("", cashsession.ListSessionsHandler(sessionSvc))
	sessions.Get("/:id", cashsession.GetSessionHandler(sessionSvc))
	sessions.Get("/:id/movements", cashsession.ListMovementsHandler(sessionSvc))
	sessions.Post("/:id/movements", cashsession.RecordMovementHandler(sessionSvc))
	sessions.Post("/:id/sales", cashsession.RecordSaleHandler(sessionSvc))
	sessions.Post("/:id/close", cashsession.CloseSessionHandler(sessionSvc))

	// Satın alma
	purchasingRoutes := protected.Group("")
	purchasingRoutes.Use(auth.RequireModule(auth.ModulePurchasing))
	purchasingRoutes.Post("/suppliers", purchasing.CreateSupplierHandler())
	purchasingRoutes.Get("/suppliers", purchasing.ListSuppliersHandler())
	purchasingRoutes.Put("/suppliers/:id", purchasing.UpdateSupplierHandler())
	purchasingRoutes.Delete("/suppliers/:id", purchasing.DeleteSupplierHandler())
	purchasingRoutes.Post("/purchase-orders", purchasing.CreateOrderHandler())
	purchasingRoutes.Get("/purchase-orders", purchasing.ListOrdersHandler())
	purchasingRoutes.Get("/purchase-orders/:id", purchasing.GetOrderHandler())
	purchasingRoutes.Post("/purchase-orders/:id/submit", purchasing.SubmitOrderHandler())
	purchasingRoutes.Post("/purchase-orders/:id/receive", purchasing.ReceiveOrderHandler())

	// Raporlar
	reportRoutes := protected.Group("/reports")
	reportRoutes.Use(auth.RequireModule(auth.ModuleReports))
	reportRoutes.Get("/cash-sessions/daily", reports.DailySummaryHandler())
	reportRoutes.Get("/cash-sessions/monthly", reports.MonthlySummaryHandler())
	reportRoutes.Get("/discrepancies", reports.DiscrepancyReportHandler())

	// Audit logs
	auditRoutes := protected.Group("/audit-logs")
	auditRoutes.Use(auth.RequireModule(auth.ModuleAudit))
	auditRoutes.Get("", audit.ListAuditLogsHandler())

	log.Println("Server çalışıyor port:", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}
