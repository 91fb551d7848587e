package http

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Inventario-reportes/internal/application/dto"
	"github.com/jhoicas/Inventario-reportes/internal/application/reports"
	"github.com/jhoicas/Inventario-reportes/internal/domain"
)

// ReportHandler maneja los endpoints de reportes.
type ReportHandler struct {
	svc *reports.Service
}

// NewReportHandler construye el handler.
func NewReportHandler(svc *reports.Service) *ReportHandler {
	return &ReportHandler{svc: svc}
}

type queryReport func(ctx context.Context, req dto.ReportQueryRequest, scope dto.ReportScope) (any, error)

// serve parsea los parámetros comunes, ejecuta el reporte y mapea el error.
func (h *ReportHandler) serve(c *fiber.Ctx, fn queryReport) error {
	var req dto.ReportQueryRequest
	if err := c.QueryParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Code: "INVALID_QUERY", Message: "parámetros de consulta inválidos",
		})
	}
	result, err := fn(c.UserContext(), req, reportScope(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(result)
}

// GetSales godoc
// @Summary      Reporte de ventas
// @Description  Totales, ventas por tienda, por día, por tipo y por categoría del período.
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        start_date   query  string  false  "Inicio del período (YYYY-MM-DD), inclusive"
// @Param        end_date     query  string  false  "Fin del período (YYYY-MM-DD), inclusive"
// @Param        store_id     query  int     false  "Filtrar por tienda"
// @Param        category_id  query  int     false  "Filtrar por categoría"
// @Success      200  {object}  report.SalesReport
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/reports/sales [get]
func (h *ReportHandler) GetSales(c *fiber.Ctx) error {
	return h.serve(c, func(ctx context.Context, req dto.ReportQueryRequest, scope dto.ReportScope) (any, error) {
		return h.svc.Sales(ctx, req, scope)
	})
}

// GetInventory godoc
// @Summary      Reporte de inventario
// @Description  Stock por tienda con su clasificación, lotes por vencer, valorización y movimientos.
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        start_date   query  string  false  "Inicio del período de movimientos (YYYY-MM-DD)"
// @Param        end_date     query  string  false  "Fin del período de movimientos (YYYY-MM-DD)"
// @Param        store_id     query  int     false  "Filtrar por tienda"
// @Param        category_id  query  int     false  "Filtrar por categoría"
// @Success      200  {object}  report.InventoryReport
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/reports/inventory [get]
func (h *ReportHandler) GetInventory(c *fiber.Ctx) error {
	return h.serve(c, func(ctx context.Context, req dto.ReportQueryRequest, scope dto.ReportScope) (any, error) {
		return h.svc.Inventory(ctx, req, scope)
	})
}

// GetProfitability godoc
// @Summary      Reporte de rentabilidad
// @Description  Ingresos, costo, utilidad y margen por producto y por categoría.
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        start_date   query  string  false  "Inicio del período (YYYY-MM-DD)"
// @Param        end_date     query  string  false  "Fin del período (YYYY-MM-DD)"
// @Param        store_id     query  int     false  "Filtrar por tienda"
// @Param        category_id  query  int     false  "Filtrar por categoría"
// @Success      200  {object}  report.ProfitabilityReport
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/reports/profitability [get]
func (h *ReportHandler) GetProfitability(c *fiber.Ctx) error {
	return h.serve(c, func(ctx context.Context, req dto.ReportQueryRequest, scope dto.ReportScope) (any, error) {
		return h.svc.Profitability(ctx, req, scope)
	})
}

// GetBestSellers godoc
// @Summary      Productos más vendidos
// @Description  Ranking por unidades vendidas con participación de mercado.
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        start_date           query  string  false  "Inicio del período (YYYY-MM-DD)"
// @Param        end_date             query  string  false  "Fin del período (YYYY-MM-DD)"
// @Param        store_id             query  int     false  "Filtrar por tienda"
// @Param        category_id          query  int     false  "Filtrar por categoría"
// @Param        top_n                query  int     false  "Máx. productos (default 20, max 200)"
// @Param        whole_catalog_share  query  bool    false  "Participación sobre todo el catálogo filtrado"
// @Success      200  {object}  report.BestSellersReport
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/reports/best-sellers [get]
func (h *ReportHandler) GetBestSellers(c *fiber.Ctx) error {
	return h.serve(c, func(ctx context.Context, req dto.ReportQueryRequest, scope dto.ReportScope) (any, error) {
		return h.svc.BestSellers(ctx, req, scope)
	})
}

// GetDashboard godoc
// @Summary      Dashboard ejecutivo
// @Description  KPIs, tendencias diarias, top 5 productos, ventas por tienda y alertas.
// @Description  Sin fechas usa los últimos 30 días.
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        start_date   query  string  false  "Inicio del período (YYYY-MM-DD)"
// @Param        end_date     query  string  false  "Fin del período (YYYY-MM-DD)"
// @Param        store_id     query  int     false  "Filtrar por tienda"
// @Param        category_id  query  int     false  "Filtrar por categoría"
// @Success      200  {object}  report.ExecutiveDashboard
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/reports/dashboard [get]
func (h *ReportHandler) GetDashboard(c *fiber.Ctx) error {
	return h.serve(c, func(ctx context.Context, req dto.ReportQueryRequest, scope dto.ReportScope) (any, error) {
		return h.svc.Dashboard(ctx, req, scope)
	})
}

// GetTraceability godoc
// @Summary      Trazabilidad de lote
// @Description  Movimientos, ventas, línea de tiempo y balance de un lote de producción.
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        batchCode  path  string  true  "Código del lote"
// @Success      200  {object}  report.TraceabilityReport
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/reports/traceability/{batchCode} [get]
func (h *ReportHandler) GetTraceability(c *fiber.Ctx) error {
	result, err := h.svc.Traceability(c.UserContext(), c.Params("batchCode"), reportScope(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(result)
}

// InvalidateCache godoc
// @Summary      Invalidar caché de reportes
// @Description  Incrementa la versión de la caché; los reportes se recalculan en la próxima consulta.
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.CacheInvalidationResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/reports/cache/invalidate [post]
func (h *ReportHandler) InvalidateCache(c *fiber.Ctx) error {
	ver, err := h.svc.InvalidateCache(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
			Code: "CACHE_UNAVAILABLE", Message: err.Error(),
		})
	}
	return c.JSON(dto.CacheInvalidationResponse{Version: ver})
}

// writeError traduce los errores de dominio a códigos HTTP.
func writeError(c *fiber.Ctx, err error) error {
	status, resp := fiber.StatusInternalServerError, dto.ErrorResponse{Code: "INTERNAL", Message: "error interno generando el reporte"}
	switch {
	case errors.Is(err, domain.ErrInvalidQuery):
		status, resp = fiber.StatusBadRequest, dto.ErrorResponse{Code: "INVALID_QUERY", Message: err.Error()}
	case errors.Is(err, domain.ErrUnauthorized):
		status, resp = fiber.StatusForbidden, dto.ErrorResponse{Code: "FORBIDDEN", Message: err.Error()}
	case errors.Is(err, domain.ErrBatchNotFound):
		status, resp = fiber.StatusNotFound, dto.ErrorResponse{Code: "BATCH_NOT_FOUND", Message: err.Error()}
	case errors.Is(err, domain.ErrDataUnavailable):
		status, resp = fiber.StatusServiceUnavailable, dto.ErrorResponse{Code: "DATA_UNAVAILABLE", Message: err.Error()}
	}
	resp.RequestID = GetRequestID(c)
	return c.Status(status).JSON(resp)
}
