package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de venta.
const (
	SaleTypeRetail    = "retail"
	SaleTypeWholesale = "wholesale"
)

// Sale representa la cabecera de una venta.
// Se espera TotalAmount = Subtotal - DiscountAmount + TaxAmount (con tolerancia de redondeo).
type Sale struct {
	ID             int64
	SaleNumber     string // único
	StoreID        int64
	ClientID       *int64 // venta sin cliente registrado si es nil
	UserID         int64
	SaleType       string
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	TaxAmount      decimal.Decimal
	TotalAmount    decimal.Decimal
	CreatedAt      time.Time
}

// SaleLineItem representa una línea de detalle de una venta.
type SaleLineItem struct {
	ID        int64
	SaleID    int64
	ProductID int64
	BatchID   *int64 // lote del que salió la mercancía, si se registró
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	Subtotal  decimal.Decimal // Quantity * UnitPrice
}
