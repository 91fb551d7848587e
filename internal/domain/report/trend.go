package report

import (
	"time"

	"github.com/shopspring/decimal"
)

// maxTrendDays evita series desproporcionadas cuando los datos abarcan años.
const maxTrendDays = 731

// TrendPoint valor de una serie en un día civil.
type TrendPoint struct {
	Date  string          `json:"date"`
	Value decimal.Decimal `json:"value"`
}

// Trends series diarias del tablero, sin huecos: los días sin actividad valen 0.
type Trends struct {
	SalesCount     []TrendPoint `json:"sales_count"`
	Revenue        []TrendPoint `json:"revenue"`
	InventoryLevel []TrendPoint `json:"inventory_level"`
	InventoryValue []TrendPoint `json:"inventory_value"`
}

func emptyTrends() Trends {
	return Trends{
		SalesCount:     []TrendPoint{},
		Revenue:        []TrendPoint{},
		InventoryLevel: []TrendPoint{},
		InventoryValue: []TrendPoint{},
	}
}

// trendWindow días de la serie. Un extremo ausente se toma de la primera o última
// venta o movimiento del alcance; sin datos ni extremos la serie queda vacía.
func (e *Engine) trendWindow(ix *Index, q Query, set salesSet, w *warnings) (time.Time, time.Time, bool) {
	var first, last time.Time
	seen := false
	observe := func(d time.Time) {
		if !seen || d.Before(first) {
			first = d
		}
		if !seen || d.After(last) {
			last = d
		}
		seen = true
	}
	if q.StartDate == nil || q.EndDate == nil {
		for _, sale := range set.sales {
			observe(ix.day(sale.CreatedAt))
		}
		for _, m := range e.selectMovements(ix, q, w) {
			observe(ix.day(m.MovementDate))
		}
	}

	start, end := first, last
	if q.StartDate != nil {
		start = civilDay(*q.StartDate)
	}
	if q.EndDate != nil {
		end = civilDay(*q.EndDate)
	}
	if start.IsZero() || end.IsZero() || start.After(end) {
		return time.Time{}, time.Time{}, false
	}
	if days := daysBetween(start, end); days >= maxTrendDays {
		start = end.AddDate(0, 0, -(maxTrendDays - 1))
	}
	return start, end, true
}

// trends construye las series diarias. El nivel de inventario se reconstruye hacia atrás
// desde el stock actual: nivel(d) = actual - Σ efecto(movimientos posteriores a d).
func (e *Engine) trends(ix *Index, q Query, set salesSet, stock []stockLine, w *warnings) Trends {
	start, end, ok := e.trendWindow(ix, q, set, w)
	if !ok {
		return emptyTrends()
	}

	counts := make(map[time.Time]int64)
	revenue := make(map[time.Time]decimal.Decimal)
	for _, sale := range set.sales {
		d := ix.day(sale.CreatedAt)
		counts[d]++
		revenue[d] = revenue[d].Add(set.revenue[sale.ID])
	}

	// Efecto de los movimientos por día, sin filtro de fechas: los posteriores a la
	// ventana también cuentan para reconstruir el nivel.
	qtyDelta := make(map[time.Time]decimal.Decimal)
	valueDelta := make(map[time.Time]decimal.Decimal)
	level, value := decimal.Zero, decimal.Zero
	for _, l := range stock {
		level = level.Add(l.row.CurrentStock)
		value = value.Add(l.row.CurrentStock.Mul(l.product.ProductionCost))
	}
	scope := q
	scope.StartDate, scope.EndDate = nil, nil
	for i := range ix.snap.Movements {
		m := &ix.snap.Movements[i]
		signed, ok := e.movementScope(ix, scope, m, w)
		if !ok || signed.IsZero() {
			continue
		}
		d := ix.day(m.MovementDate)
		cost := decimal.Zero
		if p, found := ix.products[m.ProductID]; found {
			cost = p.ProductionCost
		}
		if d.After(end) {
			level = level.Sub(signed)
			value = value.Sub(signed.Mul(cost))
			continue
		}
		qtyDelta[d] = qtyDelta[d].Add(signed)
		valueDelta[d] = valueDelta[d].Add(signed.Mul(cost))
	}

	n := daysBetween(start, end) + 1
	t := Trends{
		SalesCount:     make([]TrendPoint, n),
		Revenue:        make([]TrendPoint, n),
		InventoryLevel: make([]TrendPoint, n),
		InventoryValue: make([]TrendPoint, n),
	}
	for i := n - 1; i >= 0; i-- {
		d := start.AddDate(0, 0, i)
		label := d.Format(dateLayout)
		t.SalesCount[i] = TrendPoint{Date: label, Value: decimal.NewFromInt(counts[d])}
		t.Revenue[i] = TrendPoint{Date: label, Value: money(revenue[d])}
		t.InventoryLevel[i] = TrendPoint{Date: label, Value: level}
		t.InventoryValue[i] = TrendPoint{Date: label, Value: money(value)}
		level = level.Sub(qtyDelta[d])
		value = value.Sub(valueDelta[d])
	}
	return t
}

// averageValue promedio de una serie (0 si está vacía).
func averageValue(points []TrendPoint) decimal.Decimal {
	if len(points) == 0 {
		return decimal.Zero
	}
	sum := decimal.Zero
	for _, p := range points {
		sum = sum.Add(p.Value)
	}
	return sum.Div(decimal.NewFromInt(int64(len(points))))
}
