package report_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-reportes/internal/domain"
	"github.com/jhoicas/Inventario-reportes/internal/domain/entity"
	"github.com/jhoicas/Inventario-reportes/internal/domain/report"
)

func batch(id int64, code string, initial, current string) entity.ProductBatch {
	return entity.ProductBatch{
		ID:              id,
		BatchCode:       code,
		ProductID:       1,
		StoreID:         ptr(int64(1)),
		ProductionDate:  date(2024, time.February, 1),
		ExpirationDate:  date(2024, time.August, 1),
		InitialQuantity: dec(initial),
		CurrentQuantity: dec(current),
		IsActive:        true,
	}
}

func movement(id int64, typ, reason, qty string, at time.Time, from, to *int64) entity.InventoryMovement {
	return entity.InventoryMovement{
		ID:           id,
		MovementType: typ,
		ProductID:    1,
		BatchID:      ptr(int64(10)),
		FromStoreID:  from,
		ToStoreID:    to,
		Quantity:     dec(qty),
		Reason:       reason,
		MovementDate: at,
		UserID:       7,
	}
}

func TestTraceability_SaleAndTransferBalance(t *testing.T) {
	snap := baseSnapshot()
	snap.Batches = []entity.ProductBatch{batch(10, "L-001", "100", "50")}
	snap.Movements = []entity.InventoryMovement{
		movement(1, entity.MovementTypeOUT, entity.MovementReasonSale, "30", date(2024, time.March, 1), ptr(int64(1)), nil),
		movement(2, entity.MovementTypeTRANSFER, entity.MovementReasonTransfer, "20", date(2024, time.March, 2), ptr(int64(1)), ptr(int64(2))),
	}

	rep, err := report.NewEngine(report.DefaultConfig()).Traceability(snap, "L-001")
	require.NoError(t, err)

	s := rep.Summary
	assertDec(t, "100", s.Produced)
	assertDec(t, "30", s.Sold)
	assertDec(t, "20", s.Moved)
	assertDec(t, "50", s.Remaining)
	assertDec(t, "0", s.Discrepancy)
	assert.True(t, s.Balanced)
	assert.False(t, s.ApproximateSales)
	assert.Empty(t, rep.Warnings)

	require.Len(t, rep.Events, 2)
	assert.Equal(t, "Tienda Centro", rep.Events[1].FromStore)
	assert.Equal(t, "Tienda Norte", rep.Events[1].ToStore)
	assert.Equal(t, "Laura", rep.Events[0].Actor)
	assert.Equal(t, "Crema Hidratante", rep.Batch.ProductName)
}

func TestTraceability_LinkedSalesConserveQuantity(t *testing.T) {
	snap := baseSnapshot()
	snap.Batches = []entity.ProductBatch{batch(10, "L-002", "100", "50")}
	snap.Sales = []entity.Sale{
		sale(1, 1, "250", date(2024, time.March, 1)),
		sale(2, 1, "150", date(2024, time.March, 2)),
	}
	l1 := line(1, 1, 1, "25", "250")
	l1.BatchID = ptr(int64(10))
	l2 := line(2, 2, 1, "15", "150")
	l2.BatchID = ptr(int64(10))
	snap.SaleLineItems = []entity.SaleLineItem{l1, l2}
	snap.Movements = []entity.InventoryMovement{
		movement(1, entity.MovementTypeTRANSFER, entity.MovementReasonTransfer, "10", date(2024, time.March, 1), ptr(int64(1)), ptr(int64(2))),
	}

	rep, err := report.NewEngine(report.DefaultConfig()).Traceability(snap, "L-002")
	require.NoError(t, err)

	assertDec(t, "40", rep.Summary.Sold)
	assertDec(t, "10", rep.Summary.Moved)
	assertDec(t, "0", rep.Summary.Discrepancy)
	assert.Empty(t, rep.Warnings)
	require.Len(t, rep.Sales, 2)
	assert.False(t, rep.Sales[0].Approximate)

	require.Len(t, rep.Events, 3)
	assert.Equal(t, report.EventSourceMovement, rep.Events[0].Source, "mismo instante: el movimiento va primero")
	assert.Equal(t, report.EventSourceSale, rep.Events[1].Source)
	assert.Equal(t, "V-1", rep.Events[1].Reference)
}

func TestTraceability_ConservationMismatchIsAdvisory(t *testing.T) {
	snap := baseSnapshot()
	snap.Batches = []entity.ProductBatch{batch(10, "L-003", "100", "60")}
	snap.Movements = []entity.InventoryMovement{
		movement(1, entity.MovementTypeIN, entity.MovementReasonProduction, "90", date(2024, time.February, 1), nil, ptr(int64(1))),
		movement(2, entity.MovementTypeOUT, entity.MovementReasonSale, "30", date(2024, time.March, 1), ptr(int64(1)), nil),
		movement(3, entity.MovementTypeOUT, entity.MovementReasonDamage, "4", date(2024, time.March, 2), ptr(int64(1)), nil),
		movement(4, entity.MovementTypeIN, entity.MovementReasonAdjustment, "1", date(2024, time.March, 2), nil, ptr(int64(1))),
	}

	rep, err := report.NewEngine(report.DefaultConfig()).Traceability(snap, "L-003")
	require.NoError(t, err)

	assertDec(t, "4", rep.Summary.DamagedOrExpired)
	assertDec(t, "1", rep.Summary.Adjustments)
	assertDec(t, "7", rep.Summary.Discrepancy) // 100 + 1 - (30 + 0 + 60 + 4)
	assert.False(t, rep.Summary.Balanced)
	assert.ElementsMatch(t,
		[]string{report.WarningProductionMismatch, report.WarningConservationMismatch},
		warningCodes(rep.Warnings))
}

func TestTraceability_ApproximateSalesLink(t *testing.T) {
	snap := baseSnapshot()
	snap.Batches = []entity.ProductBatch{batch(10, "L-004", "10", "5")}
	snap.Sales = []entity.Sale{
		sale(1, 1, "50", date(2024, time.March, 5)),
		sale(2, 2, "50", date(2024, time.March, 5)),
		sale(3, 1, "50", date(2024, time.March, 6)),
	}
	snap.SaleLineItems = []entity.SaleLineItem{
		line(1, 1, 1, "5", "50"),
		line(2, 2, 1, "5", "50"),
		line(3, 3, 1, "5", "50"),
	}
	snap.Movements = []entity.InventoryMovement{
		movement(1, entity.MovementTypeOUT, entity.MovementReasonSale, "5", date(2024, time.March, 5), ptr(int64(1)), nil),
	}

	rep, err := report.NewEngine(report.DefaultConfig()).Traceability(snap, "L-004")
	require.NoError(t, err)

	require.Len(t, rep.Sales, 1)
	assert.Equal(t, int64(1), rep.Sales[0].LineItemID)
	assert.True(t, rep.Sales[0].Approximate)
	assert.True(t, rep.Summary.ApproximateSales)
	assertDec(t, "5", rep.Summary.Sold)
	assertDec(t, "0", rep.Summary.Discrepancy)
	assert.Equal(t, []string{report.WarningApproximateSalesLink}, warningCodes(rep.Warnings))
}

func TestTraceability_UnknownBatch(t *testing.T) {
	engine := report.NewEngine(report.DefaultConfig())

	_, err := engine.Traceability(baseSnapshot(), "NO-EXISTE")
	assert.ErrorIs(t, err, domain.ErrBatchNotFound)

	_, err = engine.Traceability(baseSnapshot(), "  ")
	assert.ErrorIs(t, err, domain.ErrInvalidQuery)

	_, err = engine.Traceability(nil, "L-001")
	assert.ErrorIs(t, err, domain.ErrDataUnavailable)
}

func TestTraceability_UnknownActorFallsBackToID(t *testing.T) {
	snap := baseSnapshot()
	snap.Batches = []entity.ProductBatch{batch(10, "L-005", "10", "10")}
	m := movement(1, entity.MovementTypeIN, entity.MovementReasonProduction, "10", date(2024, time.February, 1), nil, ptr(int64(1)))
	m.UserID = 42
	snap.Movements = []entity.InventoryMovement{m}

	rep, err := report.NewEngine(report.DefaultConfig()).Traceability(snap, "L-005")
	require.NoError(t, err)

	require.Len(t, rep.Movements, 1)
	assert.Equal(t, "usuario #42", rep.Movements[0].Actor)
	assert.Empty(t, rep.Warnings)
}

func TestTraceability_CalendarDatesIgnoreBusinessTimezone(t *testing.T) {
	bogota, err := time.LoadLocation("America/Bogota")
	require.NoError(t, err)
	snap := baseSnapshot()
	snap.AsOf = time.Date(2024, time.January, 25, 12, 0, 0, 0, bogota)
	b := batch(10, "L-BOG", "10", "10")
	b.ProductionDate = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	b.ExpirationDate = time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)
	snap.Batches = []entity.ProductBatch{b}
	cfg := report.DefaultConfig()
	cfg.Location = bogota

	rep, err := report.NewEngine(cfg).Traceability(snap, "L-BOG")
	require.NoError(t, err)

	assert.Equal(t, "2024-01-01", rep.Batch.ProductionDate)
	assert.Equal(t, "2024-02-01", rep.Batch.ExpirationDate)
	assert.Equal(t, 7, rep.Batch.DaysUntilExpiration)
	assert.Equal(t, report.ExpirationCritical, rep.Batch.ExpirationStatus)
}

func TestTraceability_MissingExpirationDateIsUnknown(t *testing.T) {
	snap := baseSnapshot()
	b := batch(10, "L-SINFECHA", "10", "10")
	b.ExpirationDate = time.Time{}
	snap.Batches = []entity.ProductBatch{b}

	rep, err := report.NewEngine(report.DefaultConfig()).Traceability(snap, "L-SINFECHA")
	require.NoError(t, err)

	assert.Empty(t, rep.Batch.ExpirationDate)
	assert.Equal(t, 0, rep.Batch.DaysUntilExpiration)
	assert.Equal(t, report.ExpirationUnknown, rep.Batch.ExpirationStatus)
}
