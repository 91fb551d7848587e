package report

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estado de un KPI que el motor no calcula y recibe de la fuente.
const (
	KPIAvailable   = "available"
	KPIUnavailable = "unavailable"
)

// DashboardKPIs indicadores del período.
// Revenue suma el total de las ventas; GrossProfit y MarginPct se calculan sobre las líneas.
type DashboardKPIs struct {
	TotalRevenue          decimal.Decimal  `json:"total_revenue"`
	TotalSales            int              `json:"total_sales"`
	AverageTicket         decimal.Decimal  `json:"average_ticket"`
	LineRevenue           decimal.Decimal  `json:"line_revenue"`
	COGS                  decimal.Decimal  `json:"cogs"`
	GrossProfit           decimal.Decimal  `json:"gross_profit"`
	MarginPct             decimal.Decimal  `json:"margin_pct"`
	MarginHealth          MarginHealth     `json:"margin_health"`
	TotalStockValue       decimal.Decimal  `json:"total_stock_value"`
	AverageInventoryValue decimal.Decimal  `json:"average_inventory_value"`
	InventoryTurnover     decimal.Decimal  `json:"inventory_turnover"`
	ConversionRate        *decimal.Decimal `json:"conversion_rate"`
	ConversionRateStatus  string           `json:"conversion_rate_status"`
	CustomerRetention     *decimal.Decimal `json:"customer_retention"`
	RetentionStatus       string           `json:"customer_retention_status"`
}

// DashboardAlerts bloque de alertas del tablero.
type DashboardAlerts struct {
	LowStockCount     int      `json:"low_stock_count"`
	OutOfStockCount   int      `json:"out_of_stock_count"`
	ExpiringSoonCount int      `json:"expiring_soon_count"` // vencidos + críticos + en advertencia
	ExpiredCount      int      `json:"expired_count"`
	SystemAlerts      []string `json:"system_alerts"`
}

// ExecutiveDashboard vista ejecutiva de un período.
type ExecutiveDashboard struct {
	AsOf         time.Time            `json:"as_of"`
	Period       Period               `json:"period"`
	KPIs         DashboardKPIs        `json:"kpis"`
	Trends       Trends               `json:"trends"`
	TopProducts  []RankedProduct      `json:"top_products"`
	SalesByStore []StoreSales         `json:"sales_by_store"`
	Alerts       DashboardAlerts      `json:"alerts"`
	Warnings     []DataQualityWarning `json:"warnings"`
}

// Dashboard compone KPIs, series diarias, top de productos y alertas.
// Sin extremos de fecha la ventana se deduce de los datos.
func (e *Engine) Dashboard(snap *Snapshot, q Query) (*ExecutiveDashboard, error) {
	ix, err := e.prepare(snap, q)
	if err != nil {
		return nil, err
	}
	var w warnings
	set := e.selectSales(ix, q, &w)
	stock := e.selectStock(ix, q, &w)
	products := aggregateProducts(ix, set)
	trends := e.trends(ix, q, set, stock, &w)

	revenue := set.totalRevenue()
	lineRevenue, cogs := decimal.Zero, decimal.Zero
	for _, p := range products {
		lineRevenue = lineRevenue.Add(p.Revenue)
		cogs = cogs.Add(p.Costs)
	}
	profit := lineRevenue.Sub(cogs)
	margin := percentOf(profit, lineRevenue)
	current := stockValue(stock)
	avgInventory := averageValue(trends.InventoryValue)
	if len(trends.InventoryValue) == 0 {
		avgInventory = current
	}

	kpis := DashboardKPIs{
		TotalRevenue:          money(revenue),
		TotalSales:            len(set.sales),
		AverageTicket:         averageTicket(revenue, len(set.sales)),
		LineRevenue:           money(lineRevenue),
		COGS:                  money(cogs),
		GrossProfit:           money(profit),
		MarginPct:             margin,
		MarginHealth:          e.ClassifyMargin(margin),
		TotalStockValue:       money(current),
		AverageInventoryValue: money(avgInventory),
		InventoryTurnover:     safeDiv(cogs, avgInventory).Round(2),
	}
	kpis.ConversionRate, kpis.ConversionRateStatus = passThrough(snap.Upstream.ConversionRate)
	kpis.CustomerRetention, kpis.RetentionStatus = passThrough(snap.Upstream.CustomerRetention)

	return &ExecutiveDashboard{
		AsOf:         snap.AsOf,
		Period:       q.period(),
		KPIs:         kpis,
		Trends:       trends,
		TopProducts:  e.rankProducts(products, dashboardTopProducts, false),
		SalesByStore: salesByStore(ix, set, &w),
		Alerts:       e.alerts(ix, q, stock, snap.SystemAlerts, &w),
		Warnings:     w.result(),
	}, nil
}

// passThrough expone un KPI externo tal cual o lo marca como no disponible.
func passThrough(v *decimal.Decimal) (*decimal.Decimal, string) {
	if v == nil {
		return nil, KPIUnavailable
	}
	r := v.Round(2)
	return &r, KPIAvailable
}

func (e *Engine) alerts(ix *Index, q Query, stock []stockLine, system []string, w *warnings) DashboardAlerts {
	var a DashboardAlerts
	for _, l := range stock {
		switch e.ClassifyStock(l.row.CurrentStock, l.minLevel()) {
		case StockNormal:
		case StockOutOfStock:
			a.LowStockCount++
			a.OutOfStockCount++
		default:
			a.LowStockCount++
		}
	}
	for _, b := range e.expiringBatches(ix, e.selectBatches(ix, q, w)) {
		a.ExpiringSoonCount++
		if b.Status == ExpirationExpired {
			a.ExpiredCount++
		}
	}
	a.SystemAlerts = make([]string, 0, len(system))
	a.SystemAlerts = append(a.SystemAlerts, system...)
	return a
}
