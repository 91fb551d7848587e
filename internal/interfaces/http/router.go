package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Inventario-reportes/internal/application/reports"
	"github.com/jhoicas/Inventario-reportes/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Reports   *reports.Service
	JWTSecret string
	JWTIssuer string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret, deps.JWTIssuer))

	reportHandler := NewReportHandler(deps.Reports)
	rep := protected.Group("/reports")
	rep.Get("/sales", RequireRole(jwt.RoleAdmin, jwt.RoleManager, jwt.RoleSeller), reportHandler.GetSales)
	rep.Get("/best-sellers", RequireRole(jwt.RoleAdmin, jwt.RoleManager, jwt.RoleSeller), reportHandler.GetBestSellers)
	rep.Get("/inventory", RequireRole(jwt.RoleAdmin, jwt.RoleManager, jwt.RoleStockman), reportHandler.GetInventory)
	rep.Get("/traceability/:batchCode", RequireRole(jwt.RoleAdmin, jwt.RoleManager, jwt.RoleStockman), reportHandler.GetTraceability)
	rep.Get("/profitability", RequireRole(jwt.RoleAdmin, jwt.RoleManager), reportHandler.GetProfitability)
	rep.Get("/dashboard", RequireRole(jwt.RoleAdmin, jwt.RoleManager), reportHandler.GetDashboard)

	// Invalidación: la dispara el backend transaccional o un administrador.
	rep.Post("/cache/invalidate", RequireRole(jwt.RoleAdmin), reportHandler.InvalidateCache)
}
