package report_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/Inventario-reportes/internal/domain/entity"
	"github.com/jhoicas/Inventario-reportes/internal/domain/report"
)

// ── Helpers de test ───────────────────────────────────────────────────────────

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func ptr[T any](v T) *T { return &v }

func assertDec(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), append([]any{"esperado %s, obtenido %s", want, got.String()}, msgAndArgs...)...)
}

func warningCodes(ws []report.DataQualityWarning) []string {
	codes := make([]string, 0, len(ws))
	for _, w := range ws {
		codes = append(codes, w.Code)
	}
	return codes
}

// baseSnapshot catálogo mínimo: dos categorías, dos tiendas, tres productos.
func baseSnapshot() *report.Snapshot {
	return &report.Snapshot{
		Categories: []entity.Category{
			{ID: 1, Name: "Cremas"},
			{ID: 2, Name: "Jabones"},
		},
		Stores: []entity.Store{
			{ID: 1, Name: "Tienda Centro", Type: entity.StoreTypePhysical, IsActive: true},
			{ID: 2, Name: "Tienda Norte", Type: entity.StoreTypePhysical, IsActive: true},
		},
		Products: []entity.Product{
			{ID: 1, Code: "CR-01", Name: "Crema Hidratante", CategoryID: 1, ProductionCost: dec("2"), MinStockLevel: dec("5"), IsActive: true},
			{ID: 2, Code: "JB-01", Name: "Jabón de Avena", CategoryID: 2, ProductionCost: dec("5"), MinStockLevel: dec("5"), IsActive: true},
			{ID: 3, Code: "CR-02", Name: "Aceite Corporal", CategoryID: 1, ProductionCost: dec("10"), MinStockLevel: dec("5"), IsActive: true},
		},
		Users: []entity.User{{ID: 7, Name: "Laura"}},
		AsOf:  date(2024, time.March, 3),
	}
}

func sale(id, store int64, total string, at time.Time) entity.Sale {
	return entity.Sale{
		ID:          id,
		SaleNumber:  "V-" + decimal.NewFromInt(id).String(),
		StoreID:     store,
		UserID:      7,
		SaleType:    entity.SaleTypeRetail,
		Subtotal:    dec(total),
		TotalAmount: dec(total),
		CreatedAt:   at,
	}
}

func line(id, saleID, productID int64, qty, subtotal string) entity.SaleLineItem {
	q, s := dec(qty), dec(subtotal)
	return entity.SaleLineItem{
		ID:        id,
		SaleID:    saleID,
		ProductID: productID,
		Quantity:  q,
		UnitPrice: s.Div(q),
		Subtotal:  s,
	}
}
