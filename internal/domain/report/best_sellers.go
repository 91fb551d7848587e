package report

import "github.com/shopspring/decimal"

// BestSellersReport ranking Top-N de productos por cantidad vendida.
type BestSellersReport struct {
	Period            Period               `json:"period"`
	TopN              int                  `json:"top_n"`
	WholeCatalogShare bool                 `json:"whole_catalog_share"`
	Products          []RankedProduct      `json:"products"`
	TotalQuantity     decimal.Decimal      `json:"total_quantity"`  // del top devuelto
	TotalRevenue      decimal.Decimal      `json:"total_revenue"`   // del top devuelto
	CatalogRevenue    decimal.Decimal      `json:"catalog_revenue"` // de todos los productos filtrados
	CatalogProducts   int                  `json:"catalog_products"`
	Warnings          []DataQualityWarning `json:"warnings"`
}

// BestSellers construye el ranking de productos más vendidos.
func (e *Engine) BestSellers(snap *Snapshot, q Query) (*BestSellersReport, error) {
	ix, err := e.prepare(snap, q)
	if err != nil {
		return nil, err
	}
	var w warnings
	set := e.selectSales(ix, q, &w)
	products := aggregateProducts(ix, set)
	limit := q.limit(e.cfg.DefaultTopN, e.cfg.MaxTopN)
	ranked := e.rankProducts(products, limit, q.WholeCatalogShare)

	rep := &BestSellersReport{
		Period:            q.period(),
		TopN:              limit,
		WholeCatalogShare: q.WholeCatalogShare,
		Products:          ranked,
		CatalogProducts:   len(products),
		Warnings:          w.result(),
	}
	for _, p := range ranked {
		rep.TotalQuantity = rep.TotalQuantity.Add(p.QuantitySold)
		rep.TotalRevenue = rep.TotalRevenue.Add(p.Revenue)
	}
	catalog := decimal.Zero
	for _, p := range products {
		catalog = catalog.Add(p.Revenue)
	}
	rep.CatalogRevenue = money(catalog)
	rep.TotalRevenue = money(rep.TotalRevenue)
	return rep, nil
}
