package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductBatch representa un lote de producción trazable.
// StoreID nil significa que el lote está en la bodega central.
// Se espera 0 <= CurrentQuantity <= InitialQuantity; una violación es una señal de calidad de datos.
type ProductBatch struct {
	ID              int64
	BatchCode       string // único
	ProductID       int64
	StoreID         *int64
	ProductionDate  time.Time
	ExpirationDate  time.Time
	InitialQuantity decimal.Decimal
	CurrentQuantity decimal.Decimal
	IsActive        bool
}
