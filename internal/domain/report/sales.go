package report

import (
	"sort"

	"github.com/shopspring/decimal"
)

// SalesTotals totales del período filtrado.
type SalesTotals struct {
	SalesCount    int             `json:"sales_count"`
	Revenue       decimal.Decimal `json:"revenue"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Discount      decimal.Decimal `json:"discount"`
	Tax           decimal.Decimal `json:"tax"`
	AverageTicket decimal.Decimal `json:"average_ticket"`
	ItemsSold     decimal.Decimal `json:"items_sold"`
}

// SaleTypeSales ventas agrupadas por tipo (detal/mayorista).
type SaleTypeSales struct {
	SaleType   string          `json:"sale_type"`
	SalesCount int             `json:"sales_count"`
	Revenue    decimal.Decimal `json:"revenue"`
	RevenuePct decimal.Decimal `json:"revenue_pct"`
}

// SalesReport reporte de ventas del período.
type SalesReport struct {
	Period     Period               `json:"period"`
	Totals     SalesTotals          `json:"totals"`
	ByStore    []StoreSales         `json:"by_store"`
	ByDay      []DayBucket          `json:"by_day"`
	ByType     []SaleTypeSales      `json:"by_type"`
	ByCategory []CategoryMetrics    `json:"by_category"`
	Warnings   []DataQualityWarning `json:"warnings"`
}

// Sales construye el reporte de ventas.
func (e *Engine) Sales(snap *Snapshot, q Query) (*SalesReport, error) {
	ix, err := e.prepare(snap, q)
	if err != nil {
		return nil, err
	}
	var w warnings
	set := e.selectSales(ix, q, &w)

	var totals SalesTotals
	for _, sale := range set.sales {
		totals.Subtotal = totals.Subtotal.Add(sale.Subtotal)
		totals.Discount = totals.Discount.Add(sale.DiscountAmount)
		totals.Tax = totals.Tax.Add(sale.TaxAmount)
	}
	for _, jl := range set.lines {
		totals.ItemsSold = totals.ItemsSold.Add(jl.line.Quantity)
	}
	revenue := set.totalRevenue()
	totals.SalesCount = len(set.sales)
	totals.Revenue = money(revenue)
	totals.Subtotal = money(totals.Subtotal)
	totals.Discount = money(totals.Discount)
	totals.Tax = money(totals.Tax)
	totals.AverageTicket = averageTicket(revenue, totals.SalesCount)

	byStore := salesByStore(ix, set, &w)
	products := aggregateProducts(ix, set)

	return &SalesReport{
		Period:     q.period(),
		Totals:     totals,
		ByStore:    byStore,
		ByDay:      dailySales(ix, set),
		ByType:     salesByType(set, revenue),
		ByCategory: e.aggregateCategories(ix, products, &w),
		Warnings:   w.result(),
	}, nil
}

func salesByType(set salesSet, total decimal.Decimal) []SaleTypeSales {
	acc := make(map[string]*SaleTypeSales)
	for _, sale := range set.sales {
		row, ok := acc[sale.SaleType]
		if !ok {
			row = &SaleTypeSales{SaleType: sale.SaleType}
			acc[sale.SaleType] = row
		}
		row.SalesCount++
		row.Revenue = row.Revenue.Add(set.revenue[sale.ID])
	}
	out := make([]SaleTypeSales, 0, len(acc))
	for _, row := range acc {
		r := *row
		r.RevenuePct = percentOf(r.Revenue, total)
		r.Revenue = money(r.Revenue)
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SaleType < out[j].SaleType })
	return out
}
