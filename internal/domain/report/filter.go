package report

import (
	"fmt"

	"github.com/jhoicas/Inventario-reportes/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// joinedLine línea de venta con su venta y producto ya resueltos (join interno).
type joinedLine struct {
	line    *entity.SaleLineItem
	sale    *entity.Sale
	product *entity.Product
}

// salesSet conjunto de trabajo de ventas filtrado por la consulta.
type salesSet struct {
	sales []*entity.Sale
	lines []joinedLine
	// revenue ingreso atribuible a cada venta: TotalAmount sin filtro de categoría,
	// o la suma de las líneas de la categoría cuando hay filtro.
	revenue map[int64]decimal.Decimal
}

func (s salesSet) totalRevenue() decimal.Decimal {
	total := decimal.Zero
	for _, sale := range s.sales {
		total = total.Add(s.revenue[sale.ID])
	}
	return total
}

// selectSales aplica los filtros de fecha, tienda y categoría y resuelve los joins
// venta → tienda, línea → venta → producto. Las referencias colgantes se omiten con advertencia.
func (e *Engine) selectSales(ix *Index, q Query, w *warnings) salesSet {
	candidates := make(map[int64]*entity.Sale)
	var ordered []*entity.Sale
	for i := range ix.snap.Sales {
		sale := &ix.snap.Sales[i]
		if !q.inRange(ix.day(sale.CreatedAt)) || !q.matchesStore(sale.StoreID) {
			continue
		}
		expected := sale.Subtotal.Sub(sale.DiscountAmount).Add(sale.TaxAmount)
		if expected.Sub(sale.TotalAmount).Abs().GreaterThan(e.cfg.SaleTotalTolerance) {
			w.add(WarningSaleTotalMismatch, "sale", sale.ID,
				"venta %s: total %s difiere de subtotal - descuento + impuesto (%s)",
				sale.SaleNumber, sale.TotalAmount.StringFixed(2), expected.StringFixed(2))
		}
		candidates[sale.ID] = sale
		ordered = append(ordered, sale)
	}

	set := salesSet{revenue: make(map[int64]decimal.Decimal, len(ordered))}
	matched := make(map[int64]bool)
	for i := range ix.snap.SaleLineItems {
		line := &ix.snap.SaleLineItems[i]
		sale, ok := candidates[line.SaleID]
		if !ok {
			if _, exists := ix.sales[line.SaleID]; !exists {
				w.add(WarningDanglingReference, "sale_line_item", line.ID,
					"línea %d referencia la venta inexistente %d", line.ID, line.SaleID)
			}
			continue
		}
		product, ok := ix.products[line.ProductID]
		if !ok {
			w.add(WarningDanglingReference, "sale_line_item", line.ID,
				"línea %d referencia el producto inexistente %d", line.ID, line.ProductID)
			continue
		}
		if !q.matchesCategory(product.CategoryID) {
			continue
		}
		set.lines = append(set.lines, joinedLine{line: line, sale: sale, product: product})
		matched[sale.ID] = true
		if q.CategoryID != nil {
			set.revenue[sale.ID] = set.revenue[sale.ID].Add(line.Subtotal)
		}
	}

	for _, sale := range ordered {
		if q.CategoryID != nil {
			if !matched[sale.ID] {
				continue
			}
		} else {
			set.revenue[sale.ID] = sale.TotalAmount
		}
		set.sales = append(set.sales, sale)
	}
	return set
}

// stockLine fila de stock con producto y tienda resueltos.
type stockLine struct {
	row     *entity.ProductStoreStock
	product *entity.Product
	store   *entity.Store
}

// selectStock filtra las filas de stock por tienda y categoría.
func (e *Engine) selectStock(ix *Index, q Query, w *warnings) []stockLine {
	var out []stockLine
	for i := range ix.snap.Stock {
		row := &ix.snap.Stock[i]
		if !q.matchesStore(row.StoreID) {
			continue
		}
		product, ok := ix.products[row.ProductID]
		if !ok {
			w.addIn(WarningDanglingReference, "product_store_stock", row.ProductID, fmt.Sprintf("store=%d", row.StoreID),
				"stock de la tienda %d referencia el producto inexistente %d", row.StoreID, row.ProductID)
			continue
		}
		store, ok := ix.stores[row.StoreID]
		if !ok {
			w.add(WarningDanglingReference, "store", row.StoreID,
				"stock del producto %s referencia la tienda inexistente %d", product.Code, row.StoreID)
			continue
		}
		if !q.matchesCategory(product.CategoryID) {
			continue
		}
		out = append(out, stockLine{row: row, product: product, store: store})
	}
	return out
}

// minLevel nivel mínimo de la fila; si no está definido se usa el del catálogo.
func (s stockLine) minLevel() decimal.Decimal {
	if s.row.MinStockLevel.IsPositive() {
		return s.row.MinStockLevel
	}
	return s.product.MinStockLevel
}

// batchLine lote con su producto resuelto.
type batchLine struct {
	batch   *entity.ProductBatch
	product *entity.Product
}

// selectBatches filtra lotes por tienda (nil = bodega central, solo sin filtro de tienda)
// y categoría; además señala lotes con cantidades fuera de rango.
func (e *Engine) selectBatches(ix *Index, q Query, w *warnings) []batchLine {
	var out []batchLine
	for i := range ix.snap.Batches {
		b := &ix.snap.Batches[i]
		if q.StoreID != nil && (b.StoreID == nil || *b.StoreID != *q.StoreID) {
			continue
		}
		product, ok := ix.products[b.ProductID]
		if !ok {
			w.add(WarningDanglingReference, "product_batch", b.ID,
				"lote %s referencia el producto inexistente %d", b.BatchCode, b.ProductID)
			continue
		}
		if !q.matchesCategory(product.CategoryID) {
			continue
		}
		checkBatchQuantities(b, w)
		out = append(out, batchLine{batch: b, product: product})
	}
	return out
}

func checkBatchQuantities(b *entity.ProductBatch, w *warnings) {
	if b.CurrentQuantity.IsNegative() || b.CurrentQuantity.GreaterThan(b.InitialQuantity) {
		w.add(WarningBatchQuantityRange, "product_batch", b.ID,
			"lote %s: cantidad actual %s fuera del rango [0, %s]",
			b.BatchCode, b.CurrentQuantity.String(), b.InitialQuantity.String())
	}
}

// selectMovements movimientos dentro del rango de fechas que afectan la tienda y categoría consultadas.
func (e *Engine) selectMovements(ix *Index, q Query, w *warnings) []*entity.InventoryMovement {
	var out []*entity.InventoryMovement
	for i := range ix.snap.Movements {
		m := &ix.snap.Movements[i]
		if !q.inRange(ix.day(m.MovementDate)) {
			continue
		}
		if _, ok := e.movementScope(ix, q, m, w); !ok {
			continue
		}
		out = append(out, m)
	}
	return out
}

// movementScope devuelve el efecto con signo del movimiento sobre el inventario del
// alcance consultado y si el movimiento pertenece a ese alcance.
// Sin filtro de tienda: IN suma, OUT resta, TRANSFER es neutro.
// Con filtro de tienda: lo que entra a la tienda suma y lo que sale resta.
func (e *Engine) movementScope(ix *Index, q Query, m *entity.InventoryMovement, w *warnings) (decimal.Decimal, bool) {
	product, ok := ix.products[m.ProductID]
	if !ok {
		w.add(WarningDanglingReference, "inventory_movement", m.ID,
			"movimiento %d referencia el producto inexistente %d", m.ID, m.ProductID)
		return decimal.Zero, false
	}
	if !q.matchesCategory(product.CategoryID) {
		return decimal.Zero, false
	}
	if q.StoreID == nil {
		return m.Signed(), true
	}
	into := m.ToStoreID != nil && *m.ToStoreID == *q.StoreID
	from := m.FromStoreID != nil && *m.FromStoreID == *q.StoreID
	switch {
	case into && m.MovementType != entity.MovementTypeOUT:
		return m.Quantity, true
	case from && m.MovementType != entity.MovementTypeIN:
		return m.Quantity.Neg(), true
	case into || from:
		return decimal.Zero, true
	}
	return decimal.Zero, false
}
