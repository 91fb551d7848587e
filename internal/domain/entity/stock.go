package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductStoreStock representa el stock actual de un producto en una tienda.
// Existe una sola fila por par (producto, tienda).
type ProductStoreStock struct {
	ProductID     int64
	StoreID       int64
	CurrentStock  decimal.Decimal
	MinStockLevel decimal.Decimal
	LastUpdated   time.Time
}
