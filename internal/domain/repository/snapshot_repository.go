package repository

import (
	"context"

	"github.com/jhoicas/Inventario-reportes/internal/domain/report"
)

// SnapshotRepository define el puerto de lectura del snapshot de entidades (implementado en infraestructura).
// Devuelve las colecciones completas sin filtrar; el filtrado lo hace el motor de reportes.
// Cualquier falla de la fuente se devuelve envuelta en domain.ErrDataUnavailable, sin reintentos.
type SnapshotRepository interface {
	Snapshot(ctx context.Context, q report.Query) (*report.Snapshot, error)
	// Version huella barata de los datos de la fuente; cambia cuando cambia lo que Snapshot
	// devolvería. "" significa que la fuente no publica versión.
	Version(ctx context.Context) (string, error)
}
