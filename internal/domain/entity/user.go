package entity

// User representa al usuario que registró una venta o un movimiento.
// Solo se usa para etiquetar al responsable en los reportes.
type User struct {
	ID   int64
	Name string
}
