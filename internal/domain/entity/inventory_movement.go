package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento de inventario.
const (
	MovementTypeIN       = "IN"       // entrada
	MovementTypeOUT      = "OUT"      // salida
	MovementTypeTRANSFER = "TRANSFER" // traslado entre tiendas
)

// Motivos de movimiento.
const (
	MovementReasonProduction = "PRODUCTION"
	MovementReasonSale       = "SALE"
	MovementReasonTransfer   = "TRANSFER"
	MovementReasonAdjustment = "ADJUSTMENT"
	MovementReasonDamage     = "DAMAGE"
	MovementReasonExpired    = "EXPIRED"
)

// InventoryMovement representa un cambio registrado de ubicación o cantidad de un producto o lote.
// Quantity siempre es positiva; el sentido lo da MovementType.
type InventoryMovement struct {
	ID           int64
	MovementType string
	ProductID    int64
	BatchID      *int64
	FromStoreID  *int64
	ToStoreID    *int64
	Quantity     decimal.Decimal
	Reason       string
	MovementDate time.Time
	UserID       int64
}

// Signed devuelve la cantidad con signo según su efecto en el inventario total:
// IN suma, OUT resta y TRANSFER no cambia el total.
func (m InventoryMovement) Signed() decimal.Decimal {
	switch m.MovementType {
	case MovementTypeIN:
		return m.Quantity
	case MovementTypeOUT:
		return m.Quantity.Neg()
	default:
		return decimal.Zero
	}
}
