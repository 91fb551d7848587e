package entity

// Tipos de tienda.
const (
	StoreTypePhysical  = "physical"  // punto de venta fijo
	StoreTypeMobile    = "mobile"    // punto de venta móvil
	StoreTypeWarehouse = "warehouse" // bodega
)

// Store representa una tienda, punto móvil o bodega donde se vende o almacena inventario.
type Store struct {
	ID       int64
	Name     string
	Type     string
	IsActive bool
}
