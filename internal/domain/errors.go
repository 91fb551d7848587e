package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	// ErrDataUnavailable la fuente del snapshot no respondió; el llamador decide si reintenta.
	ErrDataUnavailable = errors.New("datos no disponibles")
	// ErrBatchNotFound no existe un lote con el código consultado.
	ErrBatchNotFound = errors.New("lote no encontrado")
	// ErrInvalidQuery la consulta es estructuralmente inválida (rango de fechas, top_n).
	ErrInvalidQuery = errors.New("consulta inválida")
	ErrUnauthorized = errors.New("no autorizado")
)
