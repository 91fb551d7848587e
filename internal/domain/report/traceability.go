package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jhoicas/Inventario-reportes/internal/domain"
	"github.com/jhoicas/Inventario-reportes/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Origen de un evento de trazabilidad.
const (
	EventSourceMovement = "movement"
	EventSourceSale     = "sale"
)

// TraceBatch datos del lote consultado.
type TraceBatch struct {
	ID                  int64            `json:"id"`
	BatchCode           string           `json:"batch_code"`
	ProductID           int64            `json:"product_id"`
	ProductCode         string           `json:"product_code"`
	ProductName         string           `json:"product_name"`
	StoreID             *int64           `json:"store_id"`
	StoreName           string           `json:"store_name"`
	ProductionDate      string           `json:"production_date"`
	ExpirationDate      string           `json:"expiration_date"`
	DaysUntilExpiration int              `json:"days_until_expiration"`
	ExpirationStatus    ExpirationStatus `json:"expiration_status"`
	InitialQuantity     decimal.Decimal  `json:"initial_quantity"`
	CurrentQuantity     decimal.Decimal  `json:"current_quantity"`
	IsActive            bool             `json:"is_active"`
}

// TraceMovement movimiento de inventario del lote.
type TraceMovement struct {
	ID           int64           `json:"id"`
	MovementType string          `json:"movement_type"`
	Reason       string          `json:"reason"`
	Quantity     decimal.Decimal `json:"quantity"`
	FromStoreID  *int64          `json:"from_store_id"`
	FromStore    string          `json:"from_store,omitempty"`
	ToStoreID    *int64          `json:"to_store_id"`
	ToStore      string          `json:"to_store,omitempty"`
	Date         time.Time       `json:"date"`
	Actor        string          `json:"actor"`
}

// TraceSale línea de venta atribuida al lote. Approximate indica que el vínculo se
// dedujo por producto, día y tienda porque la línea no referencia el lote.
type TraceSale struct {
	SaleID      int64           `json:"sale_id"`
	SaleNumber  string          `json:"sale_number"`
	LineItemID  int64           `json:"line_item_id"`
	StoreID     int64           `json:"store_id"`
	StoreName   string          `json:"store_name"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Date        time.Time       `json:"date"`
	Actor       string          `json:"actor"`
	Approximate bool            `json:"approximate"`
}

// TraceEvent entrada de la línea de tiempo del lote.
type TraceEvent struct {
	Date         time.Time       `json:"date"`
	Source       string          `json:"source"` // movement | sale
	ReferenceID  int64           `json:"reference_id"`
	Reference    string          `json:"reference,omitempty"`
	MovementType string          `json:"movement_type"`
	Reason       string          `json:"reason"`
	Quantity     decimal.Decimal `json:"quantity"`
	FromStore    string          `json:"from_store,omitempty"`
	ToStore      string          `json:"to_store,omitempty"`
	Actor        string          `json:"actor"`
	Approximate  bool            `json:"approximate,omitempty"`
}

// TraceSummary balance del lote.
// Discrepancy = Produced + Adjustments - (Sold + Moved + Remaining + DamagedOrExpired).
type TraceSummary struct {
	Produced         decimal.Decimal `json:"produced"`
	Sold             decimal.Decimal `json:"sold"`
	Moved            decimal.Decimal `json:"moved"`
	Remaining        decimal.Decimal `json:"remaining"`
	DamagedOrExpired decimal.Decimal `json:"damaged_or_expired"`
	Adjustments      decimal.Decimal `json:"adjustments"`
	Discrepancy      decimal.Decimal `json:"discrepancy"`
	Balanced         bool            `json:"balanced"`
	ApproximateSales bool            `json:"approximate_sales"`
}

// TraceabilityReport responde "¿qué pasó con este lote?".
type TraceabilityReport struct {
	Batch     TraceBatch           `json:"batch"`
	Movements []TraceMovement      `json:"movements"`
	Sales     []TraceSale          `json:"sales"`
	Events    []TraceEvent         `json:"events"`
	Summary   TraceSummary         `json:"summary"`
	Warnings  []DataQualityWarning `json:"warnings"`
}

// Traceability reconstruye la historia de un lote a partir de sus movimientos y ventas.
// Un código inexistente devuelve domain.ErrBatchNotFound, nunca un reporte vacío.
func (e *Engine) Traceability(snap *Snapshot, batchCode string) (*TraceabilityReport, error) {
	code := strings.TrimSpace(batchCode)
	if code == "" {
		return nil, fmt.Errorf("%w: código de lote requerido", domain.ErrInvalidQuery)
	}
	ix, err := e.prepare(snap, Query{BatchCode: &code})
	if err != nil {
		return nil, err
	}
	batch, ok := ix.BatchByCode(code)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrBatchNotFound, code)
	}

	var w warnings
	checkBatchQuantities(batch, &w)
	info := e.traceBatch(ix, batch, &w)

	movements := batchMovements(ix, batch)
	sales := linkedSales(ix, batch, &w)
	fallback := len(sales) == 0
	if fallback {
		sales = approximateSales(ix, batch, movements)
		if len(sales) > 0 {
			w.add(WarningApproximateSalesLink, "product_batch", batch.ID,
				"lote %s: las ventas no referencian el lote; %d línea(s) vinculadas por producto, día y tienda",
				batch.BatchCode, len(sales))
		}
	}

	summary := e.traceSummary(batch, movements, sales, fallback, &w)
	summary.ApproximateSales = fallback && len(sales) > 0

	return &TraceabilityReport{
		Batch:     info,
		Movements: traceMovements(ix, movements),
		Sales:     sales,
		Events:    traceEvents(ix, movements, sales),
		Summary:   summary,
		Warnings:  w.result(),
	}, nil
}

func (e *Engine) traceBatch(ix *Index, b *entity.ProductBatch, w *warnings) TraceBatch {
	info := TraceBatch{
		ID:               b.ID,
		BatchCode:        b.BatchCode,
		ProductID:        b.ProductID,
		StoreID:          b.StoreID,
		StoreName:        ix.optStoreName(b.StoreID),
		ProductionDate:   formatCalendarDate(b.ProductionDate),
		ExpirationDate:   formatCalendarDate(b.ExpirationDate),
		ExpirationStatus: ExpirationUnknown,
		InitialQuantity:  b.InitialQuantity,
		CurrentQuantity:  b.CurrentQuantity,
		IsActive:         b.IsActive,
	}
	if !b.ExpirationDate.IsZero() {
		info.DaysUntilExpiration = daysBetween(ix.day(ix.snap.AsOf), calendarDay(b.ExpirationDate))
		info.ExpirationStatus = e.ClassifyExpiration(info.DaysUntilExpiration)
	}
	if p, ok := ix.Product(b.ProductID); ok {
		info.ProductCode = p.Code
		info.ProductName = p.Name
	} else {
		w.add(WarningDanglingReference, "product_batch", b.ID,
			"lote %s referencia el producto inexistente %d", b.BatchCode, b.ProductID)
	}
	return info
}

// batchMovements movimientos que referencian el lote, en orden cronológico.
func batchMovements(ix *Index, b *entity.ProductBatch) []*entity.InventoryMovement {
	var out []*entity.InventoryMovement
	for i := range ix.snap.Movements {
		m := &ix.snap.Movements[i]
		if m.BatchID != nil && *m.BatchID == b.ID {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].MovementDate.Equal(out[j].MovementDate) {
			return out[i].MovementDate.Before(out[j].MovementDate)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// linkedSales líneas de venta que referencian el lote explícitamente.
func linkedSales(ix *Index, b *entity.ProductBatch, w *warnings) []TraceSale {
	out := make([]TraceSale, 0)
	for i := range ix.snap.SaleLineItems {
		line := &ix.snap.SaleLineItems[i]
		if line.BatchID == nil || *line.BatchID != b.ID {
			continue
		}
		sale, ok := ix.sales[line.SaleID]
		if !ok {
			w.add(WarningDanglingReference, "sale_line_item", line.ID,
				"línea %d referencia la venta inexistente %d", line.ID, line.SaleID)
			continue
		}
		out = append(out, traceSale(ix, sale, line, false))
	}
	sortTraceSales(out)
	return out
}

// approximateSales vincula las salidas por venta del lote con líneas sin lote del mismo
// producto vendidas el mismo día en la tienda de origen del movimiento.
func approximateSales(ix *Index, b *entity.ProductBatch, movements []*entity.InventoryMovement) []TraceSale {
	var candidates []*entity.SaleLineItem
	for i := range ix.snap.SaleLineItems {
		line := &ix.snap.SaleLineItems[i]
		if line.BatchID == nil && line.ProductID == b.ProductID {
			candidates = append(candidates, line)
		}
	}

	out := make([]TraceSale, 0)
	if len(candidates) == 0 {
		return out
	}
	used := make(map[int64]bool)
	for _, m := range movements {
		if m.Reason != entity.MovementReasonSale {
			continue
		}
		origin := m.FromStoreID
		if origin == nil {
			origin = b.StoreID
		}
		if origin == nil {
			continue
		}
		day := ix.day(m.MovementDate)
		for _, line := range candidates {
			if used[line.ID] {
				continue
			}
			sale, ok := ix.sales[line.SaleID]
			if !ok || sale.StoreID != *origin || !ix.day(sale.CreatedAt).Equal(day) {
				continue
			}
			used[line.ID] = true
			out = append(out, traceSale(ix, sale, line, true))
		}
	}
	sortTraceSales(out)
	return out
}

func traceSale(ix *Index, sale *entity.Sale, line *entity.SaleLineItem, approximate bool) TraceSale {
	return TraceSale{
		SaleID:      sale.ID,
		SaleNumber:  sale.SaleNumber,
		LineItemID:  line.ID,
		StoreID:     sale.StoreID,
		StoreName:   ix.storeName(sale.StoreID),
		Quantity:    line.Quantity,
		UnitPrice:   line.UnitPrice,
		Subtotal:    line.Subtotal,
		Date:        sale.CreatedAt,
		Actor:       ix.actor(sale.UserID),
		Approximate: approximate,
	}
}

func sortTraceSales(s []TraceSale) {
	sort.SliceStable(s, func(i, j int) bool {
		if !s[i].Date.Equal(s[j].Date) {
			return s[i].Date.Before(s[j].Date)
		}
		return s[i].LineItemID < s[j].LineItemID
	})
}

// traceSummary balance del lote. Sin ventas vinculadas, lo vendido se toma de las
// salidas por venta registradas en los movimientos.
func (e *Engine) traceSummary(b *entity.ProductBatch, movements []*entity.InventoryMovement, sales []TraceSale, fallback bool, w *warnings) TraceSummary {
	s := TraceSummary{
		Produced:  b.InitialQuantity,
		Remaining: b.CurrentQuantity,
	}
	production := decimal.Zero
	productionSeen := false
	saleMovements := decimal.Zero
	for _, m := range movements {
		switch {
		case m.MovementType == entity.MovementTypeIN && m.Reason == entity.MovementReasonProduction:
			production = production.Add(m.Quantity)
			productionSeen = true
		case m.Reason == entity.MovementReasonSale && m.MovementType != entity.MovementTypeIN:
			saleMovements = saleMovements.Add(m.Quantity)
		case m.MovementType == entity.MovementTypeTRANSFER,
			m.MovementType == entity.MovementTypeOUT && m.Reason == entity.MovementReasonTransfer:
			s.Moved = s.Moved.Add(m.Quantity)
		case m.MovementType == entity.MovementTypeOUT &&
			(m.Reason == entity.MovementReasonDamage || m.Reason == entity.MovementReasonExpired):
			s.DamagedOrExpired = s.DamagedOrExpired.Add(m.Quantity)
		case m.Reason == entity.MovementReasonAdjustment:
			s.Adjustments = s.Adjustments.Add(m.Signed())
		}
	}

	if fallback {
		s.Sold = saleMovements
	} else {
		for _, sale := range sales {
			s.Sold = s.Sold.Add(sale.Quantity)
		}
	}

	if productionSeen && !production.Equal(b.InitialQuantity) {
		w.add(WarningProductionMismatch, "product_batch", b.ID,
			"lote %s: cantidad inicial %s difiere de la producción registrada %s",
			b.BatchCode, b.InitialQuantity.String(), production.String())
	}

	accounted := s.Sold.Add(s.Moved).Add(s.Remaining).Add(s.DamagedOrExpired)
	s.Discrepancy = s.Produced.Add(s.Adjustments).Sub(accounted)
	s.Balanced = s.Discrepancy.Abs().LessThanOrEqual(e.cfg.ConservationTolerance)
	if !s.Balanced {
		w.add(WarningConservationMismatch, "product_batch", b.ID,
			"lote %s: el balance no cierra, discrepancia de %s unidades",
			b.BatchCode, s.Discrepancy.String())
	}
	return s
}

func traceMovements(ix *Index, movements []*entity.InventoryMovement) []TraceMovement {
	out := make([]TraceMovement, 0, len(movements))
	for _, m := range movements {
		out = append(out, TraceMovement{
			ID:           m.ID,
			MovementType: m.MovementType,
			Reason:       m.Reason,
			Quantity:     m.Quantity,
			FromStoreID:  m.FromStoreID,
			FromStore:    movementStoreName(ix, m.FromStoreID),
			ToStoreID:    m.ToStoreID,
			ToStore:      movementStoreName(ix, m.ToStoreID),
			Date:         m.MovementDate,
			Actor:        ix.actor(m.UserID),
		})
	}
	return out
}

func movementStoreName(ix *Index, id *int64) string {
	if id == nil {
		return ""
	}
	return ix.storeName(*id)
}

// traceEvents línea de tiempo ascendente; en el mismo instante los movimientos van
// antes que las ventas y luego por id.
func traceEvents(ix *Index, movements []*entity.InventoryMovement, sales []TraceSale) []TraceEvent {
	out := make([]TraceEvent, 0, len(movements)+len(sales))
	for _, m := range movements {
		out = append(out, TraceEvent{
			Date:         m.MovementDate,
			Source:       EventSourceMovement,
			ReferenceID:  m.ID,
			MovementType: m.MovementType,
			Reason:       m.Reason,
			Quantity:     m.Quantity,
			FromStore:    movementStoreName(ix, m.FromStoreID),
			ToStore:      movementStoreName(ix, m.ToStoreID),
			Actor:        ix.actor(m.UserID),
		})
	}
	for _, s := range sales {
		out = append(out, TraceEvent{
			Date:         s.Date,
			Source:       EventSourceSale,
			ReferenceID:  s.LineItemID,
			Reference:    s.SaleNumber,
			MovementType: entity.MovementTypeOUT,
			Reason:       entity.MovementReasonSale,
			Quantity:     s.Quantity,
			FromStore:    s.StoreName,
			Actor:        s.Actor,
			Approximate:  s.Approximate,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.Source != b.Source {
			return a.Source == EventSourceMovement
		}
		return a.ReferenceID < b.ReferenceID
	})
	return out
}
