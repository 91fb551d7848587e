package entity

import "github.com/shopspring/decimal"

// Product representa un producto fabricado o revendido por el negocio.
// ProductionCost puede superar RetailPrice (margen negativo); no se valida aquí.
type Product struct {
	ID             int64
	Code           string // código único del producto
	Name           string
	CategoryID     int64
	ProductionCost decimal.Decimal // costo unitario de producción (>= 0)
	WholesalePrice decimal.Decimal // precio mayorista
	RetailPrice    decimal.Decimal // precio al detal
	MinStockLevel  decimal.Decimal // stock mínimo de referencia del catálogo
	IsActive       bool
}
