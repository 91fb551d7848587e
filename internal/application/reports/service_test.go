package reports_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-reportes/internal/application/dto"
	"github.com/jhoicas/Inventario-reportes/internal/application/reports"
	"github.com/jhoicas/Inventario-reportes/internal/domain"
	"github.com/jhoicas/Inventario-reportes/internal/domain/entity"
	"github.com/jhoicas/Inventario-reportes/internal/domain/report"
	"github.com/jhoicas/Inventario-reportes/internal/infrastructure/cache"
	"github.com/jhoicas/Inventario-reportes/pkg/config"
)

type fakeRepo struct {
	snap       *report.Snapshot
	err        error
	calls      int
	last       report.Query
	version    string
	versionErr error
}

func (f *fakeRepo) Snapshot(_ context.Context, q report.Query) (*report.Snapshot, error) {
	f.calls++
	f.last = q
	if f.err != nil {
		return nil, f.err
	}
	return f.snap, nil
}

func (f *fakeRepo) Version(context.Context) (string, error) {
	return f.version, f.versionErr
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func ptr[T any](v T) *T { return &v }

func testSnapshot() *report.Snapshot {
	at := time.Date(2024, time.March, 1, 15, 0, 0, 0, time.UTC)
	return &report.Snapshot{
		Categories: []entity.Category{{ID: 1, Name: "Cremas"}},
		Stores: []entity.Store{
			{ID: 1, Name: "Tienda Centro", Type: entity.StoreTypePhysical, IsActive: true},
			{ID: 2, Name: "Tienda Norte", Type: entity.StoreTypePhysical, IsActive: true},
		},
		Products: []entity.Product{
			{ID: 1, Code: "CR-01", Name: "Crema Hidratante", CategoryID: 1, ProductionCost: dec("2"), MinStockLevel: dec("5"), IsActive: true},
		},
		Sales: []entity.Sale{
			{ID: 1, SaleNumber: "V-1", StoreID: 1, UserID: 7, SaleType: entity.SaleTypeRetail, Subtotal: dec("10"), TotalAmount: dec("10"), CreatedAt: at},
			{ID: 2, SaleNumber: "V-2", StoreID: 2, UserID: 7, SaleType: entity.SaleTypeRetail, Subtotal: dec("20"), TotalAmount: dec("20"), CreatedAt: at},
		},
		SaleLineItems: []entity.SaleLineItem{
			{ID: 1, SaleID: 1, ProductID: 1, Quantity: dec("2"), UnitPrice: dec("5"), Subtotal: dec("10")},
			{ID: 2, SaleID: 2, ProductID: 1, Quantity: dec("4"), UnitPrice: dec("5"), Subtotal: dec("20")},
		},
		Batches: []entity.ProductBatch{
			{ID: 1, BatchCode: "L-001", ProductID: 1, ProductionDate: at, ExpirationDate: at.AddDate(1, 0, 0),
				InitialQuantity: dec("10"), CurrentQuantity: dec("10"), IsActive: true},
		},
		AsOf: time.Date(2024, time.March, 3, 12, 0, 0, 0, time.UTC),
	}
}

func newService(repo *fakeRepo, c reports.ResultCache) *reports.Service {
	return reports.NewService(repo, report.NewEngine(report.DefaultConfig()), c, nil)
}

func newRedisCache(t *testing.T) *cache.ReportCache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return cache.NewReportCache(client, time.Minute)
}

func TestService_SalesWithoutCache(t *testing.T) {
	repo := &fakeRepo{snap: testSnapshot()}
	svc := newService(repo, nil)

	for i := 0; i < 2; i++ {
		rep, err := svc.Sales(context.Background(), dto.ReportQueryRequest{}, dto.ReportScope{})
		require.NoError(t, err)
		assert.Equal(t, 2, rep.Totals.SalesCount)
		assert.True(t, dec("30").Equal(rep.Totals.Revenue))
	}
	assert.Equal(t, 2, repo.calls)
}

func TestService_CacheHitAvoidsSnapshotFetch(t *testing.T) {
	repo := &fakeRepo{snap: testSnapshot()}
	svc := newService(repo, newRedisCache(t))
	ctx := context.Background()
	req := dto.ReportQueryRequest{StartDate: "2024-03-01", EndDate: "2024-03-01"}

	first, err := svc.Sales(ctx, req, dto.ReportScope{})
	require.NoError(t, err)
	second, err := svc.Sales(ctx, req, dto.ReportScope{})
	require.NoError(t, err)

	assert.Equal(t, 1, repo.calls)
	assert.True(t, first.Totals.Revenue.Equal(second.Totals.Revenue))
	assert.Equal(t, first.Period, second.Period)

	// Otra consulta es otra clave.
	_, err = svc.Sales(ctx, dto.ReportQueryRequest{StoreID: ptr(int64(1))}, dto.ReportScope{})
	require.NoError(t, err)
	assert.Equal(t, 2, repo.calls)
}

func TestService_InvalidateCacheForcesRecompute(t *testing.T) {
	repo := &fakeRepo{snap: testSnapshot()}
	svc := newService(repo, newRedisCache(t))
	ctx := context.Background()

	_, err := svc.Inventory(ctx, dto.ReportQueryRequest{}, dto.ReportScope{})
	require.NoError(t, err)

	ver, err := svc.InvalidateCache(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), ver)

	_, err = svc.Inventory(ctx, dto.ReportQueryRequest{}, dto.ReportScope{})
	require.NoError(t, err)
	assert.Equal(t, 2, repo.calls)
}

func TestService_InvalidateWithoutCache(t *testing.T) {
	svc := newService(&fakeRepo{snap: testSnapshot()}, nil)
	ver, err := svc.InvalidateCache(context.Background())
	require.NoError(t, err)
	assert.Zero(t, ver)
}

func TestService_InvalidQueries(t *testing.T) {
	cases := map[string]dto.ReportQueryRequest{
		"rango invertido":   {StartDate: "2024-03-02", EndDate: "2024-03-01"},
		"fecha mal formada": {StartDate: "01/03/2024"},
		"mes inexistente":   {EndDate: "2024-13-01"},
		"top_n negativo":    {TopN: ptr(-1)},
		"tienda cero":       {StoreID: ptr(int64(0))},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			repo := &fakeRepo{snap: testSnapshot()}
			svc := newService(repo, nil)

			_, err := svc.BestSellers(context.Background(), req, dto.ReportScope{})
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidQuery)
			assert.Zero(t, repo.calls, "no se consulta la fuente con una consulta inválida")
		})
	}
}

func TestService_StoreScope(t *testing.T) {
	repo := &fakeRepo{snap: testSnapshot()}
	svc := newService(repo, nil)
	scope := dto.ReportScope{StoreID: ptr(int64(2))}

	rep, err := svc.Sales(context.Background(), dto.ReportQueryRequest{}, scope)
	require.NoError(t, err)
	require.NotNil(t, repo.last.StoreID)
	assert.Equal(t, int64(2), *repo.last.StoreID)
	assert.True(t, dec("20").Equal(rep.Totals.Revenue))

	_, err = svc.Sales(context.Background(), dto.ReportQueryRequest{StoreID: ptr(int64(1))}, scope)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestService_DashboardDefaultWindow(t *testing.T) {
	repo := &fakeRepo{snap: testSnapshot()}
	svc := newService(repo, nil).WithClock(func() time.Time {
		return time.Date(2024, time.March, 3, 9, 30, 0, 0, time.UTC)
	})

	dash, err := svc.Dashboard(context.Background(), dto.ReportQueryRequest{}, dto.ReportScope{})
	require.NoError(t, err)
	assert.Equal(t, "2024-02-03", dash.Period.StartDate)
	assert.Equal(t, "2024-03-03", dash.Period.EndDate)
	require.NotNil(t, repo.last.StartDate)
	assert.Equal(t, "2024-02-03", repo.last.StartDate.Format("2006-01-02"))

	// Fechas explícitas se respetan.
	dash, err = svc.Dashboard(context.Background(), dto.ReportQueryRequest{StartDate: "2024-03-01", EndDate: "2024-03-02"}, dto.ReportScope{})
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", dash.Period.StartDate)
}

func TestService_DataUnavailableIsNotCached(t *testing.T) {
	repo := &fakeRepo{err: fmt.Errorf("%w: conexión rechazada", domain.ErrDataUnavailable)}
	svc := newService(repo, newRedisCache(t))
	ctx := context.Background()

	_, err := svc.Profitability(ctx, dto.ReportQueryRequest{}, dto.ReportScope{})
	assert.ErrorIs(t, err, domain.ErrDataUnavailable)

	repo.err = nil
	repo.snap = testSnapshot()
	rep, err := svc.Profitability(ctx, dto.ReportQueryRequest{}, dto.ReportScope{})
	require.NoError(t, err)
	assert.NotNil(t, rep)
	assert.Equal(t, 2, repo.calls)
}

func TestService_Traceability(t *testing.T) {
	repo := &fakeRepo{snap: testSnapshot()}
	svc := newService(repo, newRedisCache(t))
	ctx := context.Background()

	rep, err := svc.Traceability(ctx, " L-001 ", dto.ReportScope{})
	require.NoError(t, err)
	assert.Equal(t, "L-001", rep.Batch.BatchCode)
	require.NotNil(t, repo.last.BatchCode)
	assert.Equal(t, "L-001", *repo.last.BatchCode)

	_, err = svc.Traceability(ctx, "L-999", dto.ReportScope{})
	assert.ErrorIs(t, err, domain.ErrBatchNotFound)

	calls := repo.calls
	_, err = svc.Traceability(ctx, "   ", dto.ReportScope{})
	assert.ErrorIs(t, err, domain.ErrInvalidQuery)
	assert.Equal(t, calls, repo.calls)
}

func TestService_TraceabilityRespectsStoreScope(t *testing.T) {
	snap := testSnapshot()
	snap.Batches = append(snap.Batches, entity.ProductBatch{
		ID: 2, BatchCode: "L-TIENDA1", ProductID: 1, StoreID: ptr(int64(1)),
		ProductionDate: snap.AsOf, ExpirationDate: snap.AsOf.AddDate(1, 0, 0),
		InitialQuantity: dec("5"), CurrentQuantity: dec("5"), IsActive: true,
	})
	svc := newService(&fakeRepo{snap: snap}, newRedisCache(t))
	ctx := context.Background()

	own, err := svc.Traceability(ctx, "L-TIENDA1", dto.ReportScope{StoreID: ptr(int64(1))})
	require.NoError(t, err)
	assert.Equal(t, "L-TIENDA1", own.Batch.BatchCode)

	// La respuesta cacheada tampoco se entrega fuera de alcance.
	_, err = svc.Traceability(ctx, "L-TIENDA1", dto.ReportScope{StoreID: ptr(int64(2))})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	central, err := svc.Traceability(ctx, "L-001", dto.ReportScope{StoreID: ptr(int64(2))})
	require.NoError(t, err)
	assert.Nil(t, central.Batch.StoreID)
}

func TestService_SourceVersionChangeMissesCache(t *testing.T) {
	repo := &fakeRepo{snap: testSnapshot(), version: "pg:100:100:"}
	svc := newService(repo, newRedisCache(t))
	ctx := context.Background()

	_, err := svc.Sales(ctx, dto.ReportQueryRequest{}, dto.ReportScope{})
	require.NoError(t, err)
	_, err = svc.Sales(ctx, dto.ReportQueryRequest{}, dto.ReportScope{})
	require.NoError(t, err)
	assert.Equal(t, 1, repo.calls)

	// Una escritura en la fuente cambia su versión: sin invalidación explícita se recalcula.
	repo.version = "pg:101:101:"
	repo.snap.Sales = repo.snap.Sales[:1]
	rep, err := svc.Sales(ctx, dto.ReportQueryRequest{}, dto.ReportScope{})
	require.NoError(t, err)
	assert.Equal(t, 2, repo.calls)
	assert.Equal(t, 1, rep.Totals.SalesCount)
}

func TestService_SourceVersionErrorBypassesCache(t *testing.T) {
	repo := &fakeRepo{snap: testSnapshot(), versionErr: fmt.Errorf("%w: sin conexión", domain.ErrDataUnavailable)}
	svc := newService(repo, newRedisCache(t))

	for i := 0; i < 2; i++ {
		_, err := svc.Sales(context.Background(), dto.ReportQueryRequest{}, dto.ReportScope{})
		require.NoError(t, err)
	}
	assert.Equal(t, 2, repo.calls)
}

func TestEngineConfig(t *testing.T) {
	ec, err := reports.EngineConfig(config.ReportsConfig{
		StockRule:             config.StockRuleFlat,
		FlatLow:               dec("8"),
		FlatCritical:          dec("2"),
		DefaultTopN:           15,
		ConservationTolerance: dec("0.5"),
		Timezone:              "America/Bogota",
	})
	require.NoError(t, err)
	assert.Equal(t, "flat", ec.StockRule.Name())
	assert.Equal(t, report.StockLow, ec.StockRule.Classify(dec("7"), dec("100")))
	assert.Equal(t, 15, ec.DefaultTopN)
	assert.True(t, dec("0.5").Equal(ec.ConservationTolerance))
	assert.Equal(t, "America/Bogota", ec.Location.String())

	ec, err = reports.EngineConfig(config.ReportsConfig{})
	require.NoError(t, err)
	assert.Equal(t, "relative", ec.StockRule.Name())
	assert.Equal(t, report.DefaultTopN, ec.DefaultTopN)

	_, err = reports.EngineConfig(config.ReportsConfig{StockRule: "mixta"})
	assert.Error(t, err)
	_, err = reports.EngineConfig(config.ReportsConfig{Timezone: "Marte/Olympus"})
	assert.Error(t, err)
}
