// Package report contiene el motor de agregación de reportes: transforma un snapshot
// inmutable de registros transaccionales en reportes derivados (ventas, inventario,
// rentabilidad, más vendidos, trazabilidad de lotes y dashboard ejecutivo).
//
// Todas las operaciones son funciones puras (snapshot, consulta) → reporte; nunca
// modifican el snapshot ni guardan estado entre llamadas.
package report

import (
	"time"

	"github.com/jhoicas/Inventario-reportes/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Snapshot conjunto inmutable de colecciones visible para un cálculo de reporte.
type Snapshot struct {
	Products      []entity.Product
	Categories    []entity.Category
	Stores        []entity.Store
	Batches       []entity.ProductBatch
	Stock         []entity.ProductStoreStock
	Sales         []entity.Sale
	SaleLineItems []entity.SaleLineItem
	Movements     []entity.InventoryMovement
	Users         []entity.User

	// AsOf momento en que se tomó el snapshot; referencia para días a vencimiento.
	AsOf time.Time
	// Version identifica el estado de la fuente (opaco).
	Version string

	// SystemAlerts alertas de texto libre del backend, se reenvían tal cual.
	SystemAlerts []string
	// Upstream KPIs que el motor no puede derivar de estos registros.
	Upstream UpstreamKPIs
}

// UpstreamKPIs indicadores calculados por un backend más rico. nil = no disponible.
type UpstreamKPIs struct {
	ConversionRate    *decimal.Decimal
	CustomerRetention *decimal.Decimal
}
