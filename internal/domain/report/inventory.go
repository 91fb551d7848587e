package report

import (
	"sort"
	"time"

	"github.com/jhoicas/Inventario-reportes/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// StockRow stock de un producto en una tienda con su clasificación.
type StockRow struct {
	ProductID     int64           `json:"product_id"`
	ProductCode   string          `json:"product_code"`
	ProductName   string          `json:"product_name"`
	CategoryID    int64           `json:"category_id"`
	CategoryName  string          `json:"category_name"`
	StoreID       int64           `json:"store_id"`
	StoreName     string          `json:"store_name"`
	CurrentStock  decimal.Decimal `json:"current_stock"`
	MinStockLevel decimal.Decimal `json:"min_stock_level"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
	StockValue    decimal.Decimal `json:"stock_value"`
	Status        StockStatus     `json:"status"`
	LastUpdated   time.Time       `json:"last_updated"`
}

// ExpiringBatch lote activo con existencias y su urgencia de vencimiento.
type ExpiringBatch struct {
	BatchID             int64            `json:"batch_id"`
	BatchCode           string           `json:"batch_code"`
	ProductID           int64            `json:"product_id"`
	ProductName         string           `json:"product_name"`
	StoreID             *int64           `json:"store_id"`
	StoreName           string           `json:"store_name"`
	ExpirationDate      string           `json:"expiration_date"`
	DaysUntilExpiration int              `json:"days_until_expiration"`
	CurrentQuantity     decimal.Decimal  `json:"current_quantity"`
	Status              ExpirationStatus `json:"status"`
}

// StatusCounts cantidad de filas de stock por estado.
type StatusCounts struct {
	Normal     int `json:"normal"`
	Low        int `json:"low"`
	Critical   int `json:"critical"`
	OutOfStock int `json:"out_of_stock"`
}

func (c *StatusCounts) add(s StockStatus) {
	switch s {
	case StockOutOfStock:
		c.OutOfStock++
	case StockCritical:
		c.Critical++
	case StockLow:
		c.Low++
	default:
		c.Normal++
	}
}

// ValueGroup valor del inventario agrupado por categoría o tienda.
type ValueGroup struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	ProductCount  int             `json:"product_count"`
	TotalQuantity decimal.Decimal `json:"total_quantity"`
	TotalValue    decimal.Decimal `json:"total_value"`
	Percentage    decimal.Decimal `json:"percentage"`
}

// MovementTotal cantidad movida por tipo y motivo en el período.
type MovementTotal struct {
	MovementType string          `json:"movement_type"`
	Reason       string          `json:"reason"`
	Count        int             `json:"count"`
	Quantity     decimal.Decimal `json:"quantity"`
}

// InventorySummary resumen del inventario.
type InventorySummary struct {
	TotalProducts   int             `json:"total_products"`
	TotalQuantity   decimal.Decimal `json:"total_quantity"`
	TotalStockValue decimal.Decimal `json:"total_stock_value"`
	StockRule       string          `json:"stock_rule"`
	StatusCounts    StatusCounts    `json:"status_counts"`
}

// InventoryReport reporte de inventario y salud del stock.
type InventoryReport struct {
	AsOf            time.Time            `json:"as_of"`
	Period          Period               `json:"period"`
	Summary         InventorySummary     `json:"summary"`
	Stock           []StockRow           `json:"stock"`
	LowStock        []StockRow           `json:"low_stock"` // filas no NORMAL, más urgentes primero
	ExpiringBatches []ExpiringBatch      `json:"expiring_batches"`
	ValueByCategory []ValueGroup         `json:"value_by_category"`
	ValueByStore    []ValueGroup         `json:"value_by_store"`
	Movements       []MovementTotal      `json:"movements"`
	Warnings        []DataQualityWarning `json:"warnings"`
}

// Inventory construye el reporte de inventario. El rango de fechas solo aplica al
// resumen de movimientos; el stock y los lotes reflejan el estado del snapshot.
func (e *Engine) Inventory(snap *Snapshot, q Query) (*InventoryReport, error) {
	ix, err := e.prepare(snap, q)
	if err != nil {
		return nil, err
	}
	var w warnings
	lines := e.selectStock(ix, q, &w)

	rows := make([]StockRow, 0, len(lines))
	products := make(map[int64]struct{})
	var summary InventorySummary
	summary.StockRule = e.cfg.StockRule.Name()
	for _, l := range lines {
		row := e.stockRow(ix, l)
		summary.StatusCounts.add(row.Status)
		summary.TotalQuantity = summary.TotalQuantity.Add(l.row.CurrentStock)
		products[l.product.ID] = struct{}{}
		rows = append(rows, row)
	}
	total := stockValue(lines)
	summary.TotalProducts = len(products)
	summary.TotalStockValue = money(total)
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].StoreID != rows[j].StoreID {
			return rows[i].StoreID < rows[j].StoreID
		}
		return rows[i].ProductID < rows[j].ProductID
	})

	return &InventoryReport{
		AsOf:            snap.AsOf,
		Period:          q.period(),
		Summary:         summary,
		Stock:           rows,
		LowStock:        lowStock(rows),
		ExpiringBatches: e.expiringBatches(ix, e.selectBatches(ix, q, &w)),
		ValueByCategory: valueGroups(lines, total, func(l stockLine) (int64, string) {
			return l.product.CategoryID, ix.categoryName(l.product.CategoryID)
		}),
		ValueByStore: valueGroups(lines, total, func(l stockLine) (int64, string) {
			return l.store.ID, l.store.Name
		}),
		Movements: movementTotals(e.selectMovements(ix, q, &w)),
		Warnings:  w.result(),
	}, nil
}

func (e *Engine) stockRow(ix *Index, l stockLine) StockRow {
	minLevel := l.minLevel()
	return StockRow{
		ProductID:     l.product.ID,
		ProductCode:   l.product.Code,
		ProductName:   l.product.Name,
		CategoryID:    l.product.CategoryID,
		CategoryName:  ix.categoryName(l.product.CategoryID),
		StoreID:       l.store.ID,
		StoreName:     l.store.Name,
		CurrentStock:  l.row.CurrentStock,
		MinStockLevel: minLevel,
		UnitCost:      l.product.ProductionCost,
		StockValue:    money(l.row.CurrentStock.Mul(l.product.ProductionCost)),
		Status:        e.ClassifyStock(l.row.CurrentStock, minLevel),
		LastUpdated:   l.row.LastUpdated,
	}
}

func lowStock(rows []StockRow) []StockRow {
	out := make([]StockRow, 0)
	for _, r := range rows {
		if r.Status != StockNormal {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Status.severity() < out[j].Status.severity()
	})
	return out
}

// expiringBatches lotes elegibles (activos y con existencias) cuyo vencimiento no es normal,
// ordenados por días restantes.
func (e *Engine) expiringBatches(ix *Index, batches []batchLine) []ExpiringBatch {
	out := make([]ExpiringBatch, 0)
	for _, bl := range batches {
		b := bl.batch
		if !eligibleForExpiration(b) {
			continue
		}
		days := daysBetween(ix.day(ix.snap.AsOf), calendarDay(b.ExpirationDate))
		status := e.ClassifyExpiration(days)
		if status == ExpirationNormal {
			continue
		}
		out = append(out, ExpiringBatch{
			BatchID:             b.ID,
			BatchCode:           b.BatchCode,
			ProductID:           bl.product.ID,
			ProductName:         bl.product.Name,
			StoreID:             b.StoreID,
			StoreName:           ix.optStoreName(b.StoreID),
			ExpirationDate:      formatCalendarDate(b.ExpirationDate),
			DaysUntilExpiration: days,
			CurrentQuantity:     b.CurrentQuantity,
			Status:              status,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DaysUntilExpiration != out[j].DaysUntilExpiration {
			return out[i].DaysUntilExpiration < out[j].DaysUntilExpiration
		}
		return out[i].BatchCode < out[j].BatchCode
	})
	return out
}

func eligibleForExpiration(b *entity.ProductBatch) bool {
	return b.IsActive && b.CurrentQuantity.IsPositive() && !b.ExpirationDate.IsZero()
}

func valueGroups(lines []stockLine, total decimal.Decimal, key func(stockLine) (int64, string)) []ValueGroup {
	acc := make(map[int64]*ValueGroup)
	seen := make(map[int64]map[int64]struct{})
	var order []int64
	for _, l := range lines {
		id, name := key(l)
		g, ok := acc[id]
		if !ok {
			g = &ValueGroup{ID: id, Name: name}
			acc[id] = g
			seen[id] = make(map[int64]struct{})
			order = append(order, id)
		}
		seen[id][l.product.ID] = struct{}{}
		g.TotalQuantity = g.TotalQuantity.Add(l.row.CurrentStock)
		g.TotalValue = g.TotalValue.Add(l.row.CurrentStock.Mul(l.product.ProductionCost))
	}
	out := make([]ValueGroup, 0, len(order))
	for _, id := range order {
		g := *acc[id]
		g.ProductCount = len(seen[id])
		g.Percentage = percentOf(g.TotalValue, total)
		g.TotalValue = money(g.TotalValue)
		out = append(out, g)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].TotalValue.Equal(out[j].TotalValue) {
			return out[i].TotalValue.GreaterThan(out[j].TotalValue)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func movementTotals(movements []*entity.InventoryMovement) []MovementTotal {
	type key struct{ typ, reason string }
	acc := make(map[key]*MovementTotal)
	for _, m := range movements {
		k := key{m.MovementType, m.Reason}
		t, ok := acc[k]
		if !ok {
			t = &MovementTotal{MovementType: m.MovementType, Reason: m.Reason}
			acc[k] = t
		}
		t.Count++
		t.Quantity = t.Quantity.Add(m.Quantity)
	}
	out := make([]MovementTotal, 0, len(acc))
	for _, t := range acc {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MovementType != out[j].MovementType {
			return out[i].MovementType < out[j].MovementType
		}
		return out[i].Reason < out[j].Reason
	})
	return out
}
