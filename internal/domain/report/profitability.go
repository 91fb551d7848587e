package report

import (
	"sort"

	"github.com/shopspring/decimal"
)

// ProfitabilityTotals totales de rentabilidad del período.
type ProfitabilityTotals struct {
	QuantitySold decimal.Decimal `json:"quantity_sold"`
	Revenue      decimal.Decimal `json:"revenue"`
	Costs        decimal.Decimal `json:"costs"`
	Profit       decimal.Decimal `json:"profit"`
	MarginPct    decimal.Decimal `json:"margin_pct"`
	MarginHealth MarginHealth    `json:"margin_health"`
}

// ProfitabilityReport rentabilidad por producto y por categoría.
type ProfitabilityReport struct {
	Period     Period               `json:"period"`
	Totals     ProfitabilityTotals  `json:"totals"`
	Products   []ProductMetrics     `json:"products"`   // por utilidad descendente
	Categories []CategoryMetrics    `json:"categories"` // por ingreso descendente
	Warnings   []DataQualityWarning `json:"warnings"`
}

// Profitability construye el reporte de rentabilidad.
func (e *Engine) Profitability(snap *Snapshot, q Query) (*ProfitabilityReport, error) {
	ix, err := e.prepare(snap, q)
	if err != nil {
		return nil, err
	}
	var w warnings
	set := e.selectSales(ix, q, &w)
	raw := aggregateProducts(ix, set)

	var totals ProfitabilityTotals
	for _, p := range raw {
		totals.QuantitySold = totals.QuantitySold.Add(p.QuantitySold)
		totals.Revenue = totals.Revenue.Add(p.Revenue)
		totals.Costs = totals.Costs.Add(p.Costs)
	}
	totals.Profit = totals.Revenue.Sub(totals.Costs)
	totals.MarginPct = percentOf(totals.Profit, totals.Revenue)
	totals.MarginHealth = e.ClassifyMargin(totals.MarginPct)
	totals.Revenue = money(totals.Revenue)
	totals.Costs = money(totals.Costs)
	totals.Profit = money(totals.Profit)

	products := make([]ProductMetrics, 0, len(raw))
	for _, p := range raw {
		products = append(products, e.finishProduct(p))
	}
	sort.SliceStable(products, func(i, j int) bool {
		if !products[i].Profit.Equal(products[j].Profit) {
			return products[i].Profit.GreaterThan(products[j].Profit)
		}
		return products[i].ProductID < products[j].ProductID
	})

	return &ProfitabilityReport{
		Period:     q.period(),
		Totals:     totals,
		Products:   products,
		Categories: e.aggregateCategories(ix, raw, &w),
		Warnings:   w.result(),
	}, nil
}
