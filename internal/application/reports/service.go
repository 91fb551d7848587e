// Package reports contiene el caso de uso de reportes: valida la consulta, obtiene el
// snapshot de la fuente configurada, ejecuta el motor y cachea el resultado.
package reports

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jhoicas/Inventario-reportes/internal/application/dto"
	"github.com/jhoicas/Inventario-reportes/internal/domain"
	"github.com/jhoicas/Inventario-reportes/internal/domain/report"
	"github.com/jhoicas/Inventario-reportes/internal/domain/repository"
	"github.com/jhoicas/Inventario-reportes/pkg/logger"
)

// Tipos de reporte; forman parte de la clave de caché.
const (
	KindSales         = "sales"
	KindInventory     = "inventory"
	KindProfitability = "profitability"
	KindBestSellers   = "best-sellers"
	KindTraceability  = "traceability"
	KindDashboard     = "dashboard"
)

// Service orquesta snapshot → motor → caché para cada tipo de reporte.
type Service struct {
	repo     repository.SnapshotRepository
	engine   *report.Engine
	cache    ResultCache
	log      *logger.Logger
	validate *validator.Validate
	now      func() time.Time
}

// NewService construye el caso de uso. cache puede ser nil (se calcula siempre).
func NewService(repo repository.SnapshotRepository, engine *report.Engine, cache ResultCache, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:     repo,
		engine:   engine,
		cache:    cache,
		log:      log.Component("reports"),
		validate: newValidator(),
		now:      time.Now,
	}
}

// WithClock reemplaza el reloj usado para la ventana por defecto del dashboard.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Sales reporte de ventas del período.
func (s *Service) Sales(ctx context.Context, req dto.ReportQueryRequest, scope dto.ReportScope) (*report.SalesReport, error) {
	q, err := s.toQuery(req, scope)
	if err != nil {
		return nil, err
	}
	return run(ctx, s, KindSales, q, s.engine.Sales, func(r *report.SalesReport) int { return len(r.Warnings) })
}

// Inventory reporte de inventario y salud de stock.
func (s *Service) Inventory(ctx context.Context, req dto.ReportQueryRequest, scope dto.ReportScope) (*report.InventoryReport, error) {
	q, err := s.toQuery(req, scope)
	if err != nil {
		return nil, err
	}
	return run(ctx, s, KindInventory, q, s.engine.Inventory, func(r *report.InventoryReport) int { return len(r.Warnings) })
}

// Profitability reporte de rentabilidad por producto y categoría.
func (s *Service) Profitability(ctx context.Context, req dto.ReportQueryRequest, scope dto.ReportScope) (*report.ProfitabilityReport, error) {
	q, err := s.toQuery(req, scope)
	if err != nil {
		return nil, err
	}
	return run(ctx, s, KindProfitability, q, s.engine.Profitability, func(r *report.ProfitabilityReport) int { return len(r.Warnings) })
}

// BestSellers ranking de productos más vendidos.
func (s *Service) BestSellers(ctx context.Context, req dto.ReportQueryRequest, scope dto.ReportScope) (*report.BestSellersReport, error) {
	q, err := s.toQuery(req, scope)
	if err != nil {
		return nil, err
	}
	return run(ctx, s, KindBestSellers, q, s.engine.BestSellers, func(r *report.BestSellersReport) int { return len(r.Warnings) })
}

// Dashboard dashboard ejecutivo. Sin fechas usa los últimos 30 días.
func (s *Service) Dashboard(ctx context.Context, req dto.ReportQueryRequest, scope dto.ReportScope) (*report.ExecutiveDashboard, error) {
	q, err := s.toQuery(req, scope)
	if err != nil {
		return nil, err
	}
	q = dashboardWindow(q, s.now(), s.engine.Config().Location)
	return run(ctx, s, KindDashboard, q, s.engine.Dashboard, func(r *report.ExecutiveDashboard) int { return len(r.Warnings) })
}

// Traceability cadena completa de un lote por su código. Un usuario asignado a una tienda
// solo traza lotes de su tienda o de la bodega central, que abastece a todas.
func (s *Service) Traceability(ctx context.Context, batchCode string, scope dto.ReportScope) (*report.TraceabilityReport, error) {
	code := strings.TrimSpace(batchCode)
	if code == "" {
		return nil, fmt.Errorf("%w: código de lote requerido", domain.ErrInvalidQuery)
	}
	q := report.Query{BatchCode: &code}
	compute := func(snap *report.Snapshot, _ report.Query) (*report.TraceabilityReport, error) {
		return s.engine.Traceability(snap, code)
	}
	rep, err := run(ctx, s, KindTraceability, q, compute, func(r *report.TraceabilityReport) int { return len(r.Warnings) })
	if err != nil {
		return nil, err
	}
	if owner := rep.Batch.StoreID; scope.StoreID != nil && owner != nil && *owner != *scope.StoreID {
		return nil, fmt.Errorf("%w: el lote %s pertenece a la tienda %d", domain.ErrUnauthorized, code, *owner)
	}
	return rep, nil
}

// InvalidateCache invalida todos los reportes cacheados y devuelve la nueva versión.
func (s *Service) InvalidateCache(ctx context.Context) (int64, error) {
	if s.cache == nil {
		return 0, nil
	}
	ver, err := s.cache.Bump(ctx)
	if err != nil {
		return ver, fmt.Errorf("reports: invalidar caché: %w", err)
	}
	s.log.Info().Int64("version", ver).Msg("caché de reportes invalidada")
	return ver, nil
}

// run obtiene el snapshot y calcula el reporte, pasando por la caché si hay una.
func run[T any](
	ctx context.Context,
	s *Service,
	kind string,
	q report.Query,
	compute func(*report.Snapshot, report.Query) (*T, error),
	warnings func(*T) int,
) (*T, error) {
	start := time.Now()
	load := func(ctx context.Context) (*T, error) {
		snap, err := s.repo.Snapshot(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("reports: %s: %w", kind, err)
		}
		return compute(snap, q)
	}

	var (
		result *T
		hit    bool
		err    error
	)
	key := s.cacheKey(ctx, kind, q)
	if key == "" {
		result, err = load(ctx)
	} else {
		result = new(T)
		hit, err = s.cache.FetchJSON(ctx, key, result, func(ctx context.Context) (any, error) {
			v, err := load(ctx)
			if err != nil {
				return nil, err
			}
			return v, nil
		})
	}
	if err != nil {
		s.log.Warn().Err(err).Str("report", kind).Str("query", q.Key()).Msg("reporte no generado")
		return nil, err
	}

	s.log.Info().
		Str("report", kind).
		Str("query", q.Key()).
		Bool("cache_hit", hit).
		Int("warnings", warnings(result)).
		Dur("duration", time.Since(start)).
		Msg("reporte generado")
	return result, nil
}

// cacheKey arma la clave con la versión de la fuente y la consulta. Devuelve "" si no hay
// caché o si no se pudo leer alguna de las dos versiones.
func (s *Service) cacheKey(ctx context.Context, kind string, q report.Query) string {
	if s.cache == nil {
		return ""
	}
	src, err := s.repo.Version(ctx)
	if err != nil {
		s.log.Warn().Err(err).Str("report", kind).Msg("versión de la fuente no disponible, se calcula directo")
		return ""
	}
	key, err := s.cache.BuildKey(ctx, kind, "src="+src, q.Key())
	if err != nil {
		s.log.Warn().Err(err).Str("report", kind).Msg("caché no disponible, se calcula directo")
		return ""
	}
	return key
}
