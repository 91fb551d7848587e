package report

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// StoreSales ventas agrupadas por tienda.
type StoreSales struct {
	StoreID    int64           `json:"store_id"`
	StoreName  string          `json:"store_name"`
	SalesCount int             `json:"sales_count"`
	Revenue    decimal.Decimal `json:"revenue"`
}

// ProductMetrics métricas de venta y rentabilidad por producto.
type ProductMetrics struct {
	ProductID    int64           `json:"product_id"`
	ProductCode  string          `json:"product_code"`
	ProductName  string          `json:"product_name"`
	CategoryID   int64           `json:"category_id"`
	CategoryName string          `json:"category_name"`
	QuantitySold decimal.Decimal `json:"quantity_sold"`
	UnitsSold    decimal.Decimal `json:"units_sold"`  // igual a QuantitySold
	SalesCount   int             `json:"sales_count"` // ventas distintas que incluyen el producto
	Revenue      decimal.Decimal `json:"revenue"`
	Costs        decimal.Decimal `json:"costs"`         // Σ cantidad × costo de producción
	Profit       decimal.Decimal `json:"profit"`        // Revenue - Costs
	MarginPct    decimal.Decimal `json:"margin_pct"`    // Profit / Revenue × 100
	AveragePrice decimal.Decimal `json:"average_price"` // Revenue / QuantitySold
	MarginHealth MarginHealth    `json:"margin_health"`
}

// CategoryMetrics las mismas métricas de producto sumadas por categoría.
type CategoryMetrics struct {
	CategoryID   int64           `json:"category_id"`
	CategoryName string          `json:"category_name"`
	ProductCount int             `json:"product_count"`
	QuantitySold decimal.Decimal `json:"quantity_sold"`
	Revenue      decimal.Decimal `json:"revenue"`
	Costs        decimal.Decimal `json:"costs"`
	Profit       decimal.Decimal `json:"profit"`
	MarginPct    decimal.Decimal `json:"margin_pct"`
	AveragePrice decimal.Decimal `json:"average_price"`
	RevenuePct   decimal.Decimal `json:"revenue_pct"` // participación en el ingreso total
	MarginHealth MarginHealth    `json:"margin_health"`
}

// DayBucket conteo e ingreso de un día civil.
type DayBucket struct {
	Date       string          `json:"date"`
	SalesCount int             `json:"sales_count"`
	Revenue    decimal.Decimal `json:"revenue"`
}

// salesByStore agrupa ventas por tienda: conteo e ingreso. Las ventas con tienda
// inexistente se omiten del agrupamiento con advertencia.
func salesByStore(ix *Index, set salesSet, w *warnings) []StoreSales {
	acc := make(map[int64]*StoreSales)
	var order []int64
	for _, sale := range set.sales {
		store, ok := ix.stores[sale.StoreID]
		if !ok {
			w.add(WarningDanglingReference, "sale", sale.ID,
				"venta %s referencia la tienda inexistente %d", sale.SaleNumber, sale.StoreID)
			continue
		}
		row, ok := acc[store.ID]
		if !ok {
			row = &StoreSales{StoreID: store.ID, StoreName: store.Name}
			acc[store.ID] = row
			order = append(order, store.ID)
		}
		row.SalesCount++
		row.Revenue = row.Revenue.Add(set.revenue[sale.ID])
	}

	out := make([]StoreSales, 0, len(order))
	for _, id := range order {
		row := *acc[id]
		row.Revenue = money(row.Revenue)
		out = append(out, row)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Revenue.Equal(out[j].Revenue) {
			return out[i].Revenue.GreaterThan(out[j].Revenue)
		}
		return out[i].StoreID < out[j].StoreID
	})
	return out
}

// productAcc acumulador por producto con precisión completa (se redondea al final).
type productAcc struct {
	metrics ProductMetrics
	sales   map[int64]struct{}
}

// aggregateProducts agrupa las líneas por producto. Devuelve los productos en orden
// de ingreso descendente (desempate por id) con precisión completa.
func aggregateProducts(ix *Index, set salesSet) []ProductMetrics {
	acc := make(map[int64]*productAcc)
	var order []int64
	for _, jl := range set.lines {
		a, ok := acc[jl.product.ID]
		if !ok {
			a = &productAcc{
				metrics: ProductMetrics{
					ProductID:    jl.product.ID,
					ProductCode:  jl.product.Code,
					ProductName:  jl.product.Name,
					CategoryID:   jl.product.CategoryID,
					CategoryName: ix.categoryName(jl.product.CategoryID),
				},
				sales: make(map[int64]struct{}),
			}
			acc[jl.product.ID] = a
			order = append(order, jl.product.ID)
		}
		m := &a.metrics
		m.QuantitySold = m.QuantitySold.Add(jl.line.Quantity)
		m.Revenue = m.Revenue.Add(jl.line.Subtotal)
		m.Costs = m.Costs.Add(jl.line.Quantity.Mul(jl.product.ProductionCost))
		a.sales[jl.sale.ID] = struct{}{}
	}

	out := make([]ProductMetrics, 0, len(order))
	for _, id := range order {
		a := acc[id]
		m := a.metrics
		m.UnitsSold = m.QuantitySold
		m.SalesCount = len(a.sales)
		m.Profit = m.Revenue.Sub(m.Costs)
		out = append(out, m)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Revenue.Equal(out[j].Revenue) {
			return out[i].Revenue.GreaterThan(out[j].Revenue)
		}
		return out[i].ProductID < out[j].ProductID
	})
	return out
}

// finishProduct calcula margen y precio promedio y redondea los importes.
func (e *Engine) finishProduct(m ProductMetrics) ProductMetrics {
	m.MarginPct = percentOf(m.Profit, m.Revenue)
	m.AveragePrice = money(safeDiv(m.Revenue, m.QuantitySold))
	m.MarginHealth = e.ClassifyMargin(m.MarginPct)
	m.Revenue = money(m.Revenue)
	m.Costs = money(m.Costs)
	m.Profit = money(m.Profit)
	return m
}

// aggregateCategories suma las métricas de producto por categoría. Los productos
// con categoría inexistente se omiten de este agrupamiento con advertencia.
func (e *Engine) aggregateCategories(ix *Index, products []ProductMetrics, w *warnings) []CategoryMetrics {
	acc := make(map[int64]*CategoryMetrics)
	var order []int64
	total := decimal.Zero
	for _, p := range products {
		cat, ok := ix.categories[p.CategoryID]
		if !ok {
			w.add(WarningDanglingReference, "product", p.ProductID,
				"producto %s referencia la categoría inexistente %d", p.ProductCode, p.CategoryID)
			continue
		}
		c, ok := acc[cat.ID]
		if !ok {
			c = &CategoryMetrics{CategoryID: cat.ID, CategoryName: cat.Name}
			acc[cat.ID] = c
			order = append(order, cat.ID)
		}
		c.ProductCount++
		c.QuantitySold = c.QuantitySold.Add(p.QuantitySold)
		c.Revenue = c.Revenue.Add(p.Revenue)
		c.Costs = c.Costs.Add(p.Costs)
		total = total.Add(p.Revenue)
	}

	out := make([]CategoryMetrics, 0, len(order))
	for _, id := range order {
		c := *acc[id]
		c.Profit = c.Revenue.Sub(c.Costs)
		c.MarginPct = percentOf(c.Profit, c.Revenue)
		c.AveragePrice = money(safeDiv(c.Revenue, c.QuantitySold))
		c.RevenuePct = percentOf(c.Revenue, total)
		c.MarginHealth = e.ClassifyMargin(c.MarginPct)
		c.Revenue = money(c.Revenue)
		c.Costs = money(c.Costs)
		c.Profit = money(c.Profit)
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Revenue.Equal(out[j].Revenue) {
			return out[i].Revenue.GreaterThan(out[j].Revenue)
		}
		return out[i].CategoryID < out[j].CategoryID
	})
	return out
}

// dailySales agrupa las ventas por día civil en orden ascendente (solo días con actividad).
func dailySales(ix *Index, set salesSet) []DayBucket {
	acc := make(map[time.Time]*DayBucket)
	var days []time.Time
	for _, sale := range set.sales {
		d := ix.day(sale.CreatedAt)
		b, ok := acc[d]
		if !ok {
			b = &DayBucket{Date: d.Format(dateLayout)}
			acc[d] = b
			days = append(days, d)
		}
		b.SalesCount++
		b.Revenue = b.Revenue.Add(set.revenue[sale.ID])
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	out := make([]DayBucket, 0, len(days))
	for _, d := range days {
		b := *acc[d]
		b.Revenue = money(b.Revenue)
		out = append(out, b)
	}
	return out
}

// averageTicket ingreso total / número de ventas (0 si no hay ventas).
func averageTicket(revenue decimal.Decimal, count int) decimal.Decimal {
	return money(safeDiv(revenue, decimal.NewFromInt(int64(count))))
}

// stockValue Σ stock actual × costo de producción.
func stockValue(rows []stockLine) decimal.Decimal {
	total := decimal.Zero
	for _, r := range rows {
		total = total.Add(r.row.CurrentStock.Mul(r.product.ProductionCost))
	}
	return total
}
