package reports

import "context"

// ResultCache caché de reportes calculados (implementada en infraestructura con Redis).
// Las claves quedan versionadas: Bump invalida todo lo anterior.
type ResultCache interface {
	BuildKey(ctx context.Context, parts ...string) (string, error)
	FetchJSON(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) (bool, error)
	Bump(ctx context.Context) (int64, error)
}
