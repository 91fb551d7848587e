package report_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-reportes/internal/domain/entity"
	"github.com/jhoicas/Inventario-reportes/internal/domain/report"
)

func dashboardSnapshot() *report.Snapshot {
	snap := baseSnapshot()
	snap.Stock = []entity.ProductStoreStock{
		{ProductID: 1, StoreID: 1, CurrentStock: dec("20"), MinStockLevel: dec("5")},
		{ProductID: 2, StoreID: 1, CurrentStock: dec("0"), MinStockLevel: dec("5")},
	}
	snap.Sales = []entity.Sale{sale(1, 1, "30", date(2024, time.March, 2))}
	snap.SaleLineItems = []entity.SaleLineItem{line(1, 1, 1, "3", "30")}
	snap.Movements = []entity.InventoryMovement{
		{ID: 1, MovementType: entity.MovementTypeOUT, ProductID: 1, FromStoreID: ptr(int64(1)), Quantity: dec("3"),
			Reason: entity.MovementReasonSale, MovementDate: date(2024, time.March, 2), UserID: 7},
		{ID: 2, MovementType: entity.MovementTypeIN, ProductID: 1, ToStoreID: ptr(int64(1)), Quantity: dec("10"),
			Reason: entity.MovementReasonProduction, MovementDate: date(2024, time.March, 4), UserID: 7},
	}
	snap.Batches = []entity.ProductBatch{
		{ID: 1, BatchCode: "L-PRONTO", ProductID: 1, ExpirationDate: date(2024, time.March, 8),
			InitialQuantity: dec("10"), CurrentQuantity: dec("5"), IsActive: true},
		{ID: 2, BatchCode: "L-VENCIDO", ProductID: 1, ExpirationDate: date(2024, time.March, 1),
			InitialQuantity: dec("10"), CurrentQuantity: dec("5"), IsActive: true},
		{ID: 3, BatchCode: "L-AGOTADO", ProductID: 1, ExpirationDate: date(2024, time.March, 5),
			InitialQuantity: dec("10"), CurrentQuantity: dec("0"), IsActive: true},
	}
	snap.SystemAlerts = []string{"sincronización atrasada"}
	return snap
}

func TestDashboard_TrendsAreZeroFilledAndReconstructed(t *testing.T) {
	q := report.Query{
		StartDate: ptr(date(2024, time.March, 1)),
		EndDate:   ptr(date(2024, time.March, 3)),
	}

	rep, err := report.NewEngine(report.DefaultConfig()).Dashboard(dashboardSnapshot(), q)
	require.NoError(t, err)

	tr := rep.Trends
	require.Len(t, tr.SalesCount, 3)
	require.Len(t, tr.Revenue, 3)
	require.Len(t, tr.InventoryLevel, 3)
	assert.Equal(t, "2024-03-01", tr.SalesCount[0].Date)
	assert.Equal(t, "2024-03-03", tr.SalesCount[2].Date)

	for i, want := range []string{"0", "1", "0"} {
		assertDec(t, want, tr.SalesCount[i].Value, "ventas día %d", i)
	}
	for i, want := range []string{"0", "30", "0"} {
		assertDec(t, want, tr.Revenue[i].Value, "ingreso día %d", i)
	}
	// stock actual 20, menos la producción posterior (10), más la venta del día 2 (3)
	for i, want := range []string{"13", "10", "10"} {
		assertDec(t, want, tr.InventoryLevel[i].Value, "nivel día %d", i)
	}
	for i, want := range []string{"26", "20", "20"} {
		assertDec(t, want, tr.InventoryValue[i].Value, "valor día %d", i)
	}
}

func TestDashboard_KPIs(t *testing.T) {
	q := report.Query{
		StartDate: ptr(date(2024, time.March, 1)),
		EndDate:   ptr(date(2024, time.March, 3)),
	}
	snap := dashboardSnapshot()
	snap.Upstream.ConversionRate = ptr(dec("3.456"))

	rep, err := report.NewEngine(report.DefaultConfig()).Dashboard(snap, q)
	require.NoError(t, err)

	k := rep.KPIs
	assertDec(t, "30", k.TotalRevenue)
	assert.Equal(t, 1, k.TotalSales)
	assertDec(t, "30", k.AverageTicket)
	assertDec(t, "6", k.COGS)
	assertDec(t, "24", k.GrossProfit)
	assertDec(t, "80", k.MarginPct)
	assertDec(t, "40", k.TotalStockValue)
	assertDec(t, "22", k.AverageInventoryValue)
	assertDec(t, "0.27", k.InventoryTurnover)

	require.NotNil(t, k.ConversionRate)
	assertDec(t, "3.46", *k.ConversionRate)
	assert.Equal(t, report.KPIAvailable, k.ConversionRateStatus)
	assert.Nil(t, k.CustomerRetention)
	assert.Equal(t, report.KPIUnavailable, k.RetentionStatus)

	require.Len(t, rep.TopProducts, 1)
	assert.Equal(t, 1, rep.TopProducts[0].Rank)
	require.Len(t, rep.SalesByStore, 1)
}

func TestDashboard_Alerts(t *testing.T) {
	rep, err := report.NewEngine(report.DefaultConfig()).Dashboard(dashboardSnapshot(), report.Query{})
	require.NoError(t, err)

	a := rep.Alerts
	assert.Equal(t, 1, a.LowStockCount)
	assert.Equal(t, 1, a.OutOfStockCount)
	assert.Equal(t, 2, a.ExpiringSoonCount)
	assert.Equal(t, 1, a.ExpiredCount)
	assert.Equal(t, []string{"sincronización atrasada"}, a.SystemAlerts)
}

func TestDashboard_WindowFromDataWhenUnbounded(t *testing.T) {
	rep, err := report.NewEngine(report.DefaultConfig()).Dashboard(dashboardSnapshot(), report.Query{})
	require.NoError(t, err)

	// primera actividad el día 2 (venta), última el día 4 (producción)
	require.Len(t, rep.Trends.InventoryLevel, 3)
	assert.Equal(t, "2024-03-02", rep.Trends.InventoryLevel[0].Date)
	assertDec(t, "20", rep.Trends.InventoryLevel[2].Value)
	assertDec(t, "10", rep.Trends.InventoryLevel[1].Value)
}
