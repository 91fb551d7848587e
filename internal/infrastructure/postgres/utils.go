package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/Inventario-reportes/internal/domain"
)

// Querier es el subconjunto de pgxpool.Pool / pgx.Tx que usan los adaptadores de lectura.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// unavailable envuelve un error de la base en domain.ErrDataUnavailable, conservando
// la causa original (y el SQLSTATE cuando existe) para errors.Is / errors.As.
func unavailable(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("%w: %s (sqlstate %s): %w", domain.ErrDataUnavailable, op, pgErr.Code, err)
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrDataUnavailable, op, err)
}
