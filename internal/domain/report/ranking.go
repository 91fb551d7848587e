package report

import (
	"sort"

	"github.com/shopspring/decimal"
	"golang.org/x/text/collate"
)

// RankedProduct producto dentro de un ranking Top-N.
type RankedProduct struct {
	Rank           int             `json:"rank"` // 1 = más vendido
	ProductID      int64           `json:"product_id"`
	ProductCode    string          `json:"product_code"`
	ProductName    string          `json:"product_name"`
	CategoryName   string          `json:"category_name"`
	QuantitySold   decimal.Decimal `json:"quantity_sold"`
	Revenue        decimal.Decimal `json:"revenue"`
	Profit         decimal.Decimal `json:"profit"`
	MarginPct      decimal.Decimal `json:"margin_pct"`
	AveragePrice   decimal.Decimal `json:"average_price"`
	MarketSharePct decimal.Decimal `json:"market_share_pct"`
}

// rankProducts ordena por cantidad vendida descendente; desempata por ingreso
// descendente y luego por nombre ascendente (colación del idioma, luego bytes, luego id).
// Los rangos son 1..N contiguos aunque haya empates.
//
// La participación de mercado se calcula sobre el ingreso del top devuelto, o sobre
// todos los productos recibidos si wholeCatalog es true. Se trunca a 2 decimales para
// que la suma nunca supere 100.
func (e *Engine) rankProducts(products []ProductMetrics, limit int, wholeCatalog bool) []RankedProduct {
	sorted := make([]ProductMetrics, len(products))
	copy(sorted, products)

	// El Collator no es seguro para uso concurrente: uno por llamada.
	coll := collate.New(e.cfg.Language)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if !a.QuantitySold.Equal(b.QuantitySold) {
			return a.QuantitySold.GreaterThan(b.QuantitySold)
		}
		if !a.Revenue.Equal(b.Revenue) {
			return a.Revenue.GreaterThan(b.Revenue)
		}
		if c := coll.CompareString(a.ProductName, b.ProductName); c != 0 {
			return c < 0
		}
		if a.ProductName != b.ProductName {
			return a.ProductName < b.ProductName
		}
		return a.ProductID < b.ProductID
	})

	if limit < 0 {
		limit = 0
	}
	if limit > len(sorted) {
		limit = len(sorted)
	}
	top := sorted[:limit]

	base := decimal.Zero
	shareOf := top
	if wholeCatalog {
		shareOf = sorted
	}
	for _, p := range shareOf {
		base = base.Add(p.Revenue)
	}

	out := make([]RankedProduct, 0, len(top))
	for i, p := range top {
		f := e.finishProduct(p)
		out = append(out, RankedProduct{
			Rank:           i + 1,
			ProductID:      p.ProductID,
			ProductCode:    p.ProductCode,
			ProductName:    p.ProductName,
			CategoryName:   p.CategoryName,
			QuantitySold:   p.QuantitySold,
			Revenue:        f.Revenue,
			Profit:         f.Profit,
			MarginPct:      f.MarginPct,
			AveragePrice:   f.AveragePrice,
			MarketSharePct: safeDiv(p.Revenue, base).Mul(hundred).Truncate(2),
		})
	}
	return out
}
