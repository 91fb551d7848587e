package entity

// Category representa una categoría de productos.
type Category struct {
	ID   int64
	Name string
}
