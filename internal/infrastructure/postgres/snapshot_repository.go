package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/Inventario-reportes/internal/domain/entity"
	"github.com/jhoicas/Inventario-reportes/internal/domain/report"
	"github.com/jhoicas/Inventario-reportes/internal/domain/repository"
)

var _ repository.SnapshotRepository = (*SnapshotRepo)(nil)

// snapshotQueries número de colecciones leídas en paralelo por snapshot (len(snapshotSteps)).
const snapshotQueries = 9

// Las columnas NUMERIC opcionales se normalizan con COALESCE: el codec decimal no acepta NULL.
const (
	productsSQL = `
	SELECT id, code, name, category_id,
	       COALESCE(production_cost, 0), COALESCE(wholesale_price, 0), COALESCE(retail_price, 0),
	       COALESCE(min_stock_level, 0), is_active
	FROM products
	ORDER BY id`

	categoriesSQL = `SELECT id, name FROM categories ORDER BY id`

	storesSQL = `SELECT id, name, type, is_active FROM stores ORDER BY id`

	batchesSQL = `
	SELECT id, batch_code, product_id, store_id, production_date, expiration_date,
	       initial_quantity, current_quantity, is_active
	FROM product_batches
	ORDER BY id`

	stockSQL = `
	SELECT product_id, store_id, current_stock, COALESCE(min_stock_level, 0), last_updated
	FROM product_store_stock
	ORDER BY store_id, product_id`

	salesSQL = `
	SELECT id, sale_number, store_id, client_id, user_id, sale_type,
	       subtotal, COALESCE(discount_amount, 0), COALESCE(tax_amount, 0), total_amount, created_at
	FROM sales
	ORDER BY created_at, id`

	saleItemsSQL = `
	SELECT id, sale_id, product_id, batch_id, quantity, unit_price, subtotal
	FROM sale_items
	ORDER BY id`

	movementsSQL = `
	SELECT id, movement_type, product_id, batch_id, from_store_id, to_store_id,
	       quantity, reason, movement_date, user_id
	FROM inventory_movements
	ORDER BY movement_date, id`

	usersSQL = `SELECT id, name FROM users ORDER BY id`

	// versionSQL foto de transacciones del servidor (xmin:xmax:en curso). Solo cambia cuando
	// una transacción de escritura empieza o termina; las lecturas no la mueven.
	versionSQL = `SELECT pg_current_snapshot()::text`
)

// SnapshotRepo lee el snapshot completo de entidades desde PostgreSQL.
// Cada colección es una consulta independiente. Sin TxRunner corren en paralelo sobre el pool;
// con TxRunner corren en secuencia dentro de una transacción de solo lectura (misma foto).
type SnapshotRepo struct {
	q   Querier
	tx  *TxRunner
	now func() time.Time
}

// NewSnapshotRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSnapshotRepository(q Querier) *SnapshotRepo {
	return &SnapshotRepo{q: q, now: time.Now}
}

// NewConsistentSnapshotRepository lee todas las colecciones en una sola transacción
// REPEATABLE READ READ ONLY.
func NewConsistentSnapshotRepository(runner *TxRunner) *SnapshotRepo {
	return &SnapshotRepo{tx: runner, now: time.Now}
}

// loadStep carga una colección del snapshot.
type loadStep func(ctx context.Context, q Querier, snap *report.Snapshot) error

var snapshotSteps = []loadStep{
	func(ctx context.Context, q Querier, s *report.Snapshot) (err error) {
		s.Products, err = collect(ctx, q, "products", productsSQL, scanProduct)
		return err
	},
	func(ctx context.Context, q Querier, s *report.Snapshot) (err error) {
		s.Categories, err = collect(ctx, q, "categories", categoriesSQL, scanCategory)
		return err
	},
	func(ctx context.Context, q Querier, s *report.Snapshot) (err error) {
		s.Stores, err = collect(ctx, q, "stores", storesSQL, scanStore)
		return err
	},
	func(ctx context.Context, q Querier, s *report.Snapshot) (err error) {
		s.Batches, err = collect(ctx, q, "product_batches", batchesSQL, scanBatch)
		return err
	},
	func(ctx context.Context, q Querier, s *report.Snapshot) (err error) {
		s.Stock, err = collect(ctx, q, "product_store_stock", stockSQL, scanStock)
		return err
	},
	func(ctx context.Context, q Querier, s *report.Snapshot) (err error) {
		s.Sales, err = collect(ctx, q, "sales", salesSQL, scanSale)
		return err
	},
	func(ctx context.Context, q Querier, s *report.Snapshot) (err error) {
		s.SaleLineItems, err = collect(ctx, q, "sale_items", saleItemsSQL, scanSaleItem)
		return err
	},
	func(ctx context.Context, q Querier, s *report.Snapshot) (err error) {
		s.Movements, err = collect(ctx, q, "inventory_movements", movementsSQL, scanMovement)
		return err
	},
	func(ctx context.Context, q Querier, s *report.Snapshot) (err error) {
		s.Users, err = collect(ctx, q, "users", usersSQL, scanUser)
		return err
	},
}

// Snapshot devuelve todas las colecciones sin filtrar. El filtrado por la consulta lo hace el motor.
// Cualquier error de una consulta cancela las demás y se devuelve como domain.ErrDataUnavailable.
func (r *SnapshotRepo) Snapshot(ctx context.Context, _ report.Query) (*report.Snapshot, error) {
	snap := &report.Snapshot{AsOf: r.now()}

	var err error
	if r.tx != nil {
		err = r.tx.RunReadOnly(ctx, func(q Querier) error {
			for _, step := range snapshotSteps {
				if err := step(ctx, q, snap); err != nil {
					return err
				}
			}
			return nil
		})
	} else {
		g, gctx := errgroup.WithContext(ctx)
		for _, step := range snapshotSteps {
			step := step
			g.Go(func() error { return step(gctx, r.q, snap) })
		}
		err = g.Wait()
	}
	if err != nil {
		return nil, err
	}

	snap.Version = fmt.Sprintf("pg:%d", snap.AsOf.UnixNano())
	return snap, nil
}

// Version huella de escritura de la base; cambia tras cualquier commit que pueda alterar el snapshot.
func (r *SnapshotRepo) Version(ctx context.Context) (string, error) {
	var v string
	read := func(q Querier) error {
		rows, err := q.Query(ctx, versionSQL)
		if err != nil {
			return unavailable("consultar versión", err)
		}
		v, err = pgx.CollectOneRow(rows, pgx.RowTo[string])
		if err != nil {
			return unavailable("leer versión", err)
		}
		return nil
	}
	var err error
	if r.tx != nil {
		err = r.tx.RunReadOnly(ctx, read)
	} else {
		err = read(r.q)
	}
	if err != nil {
		return "", err
	}
	return "pg:" + v, nil
}

// collect ejecuta la consulta y mapea cada fila con scan.
func collect[T any](ctx context.Context, q Querier, table, sql string, scan pgx.RowToFunc[T]) ([]T, error) {
	rows, err := q.Query(ctx, sql)
	if err != nil {
		return nil, unavailable("consultar "+table, err)
	}
	out, err := pgx.CollectRows(rows, scan)
	if err != nil {
		return nil, unavailable("leer "+table, err)
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

// ── Mapeo de filas ────────────────────────────────────────────────────────────

func scanProduct(row pgx.CollectableRow) (entity.Product, error) {
	var p entity.Product
	err := row.Scan(&p.ID, &p.Code, &p.Name, &p.CategoryID,
		&p.ProductionCost, &p.WholesalePrice, &p.RetailPrice, &p.MinStockLevel, &p.IsActive)
	return p, err
}

func scanCategory(row pgx.CollectableRow) (entity.Category, error) {
	var c entity.Category
	err := row.Scan(&c.ID, &c.Name)
	return c, err
}

func scanStore(row pgx.CollectableRow) (entity.Store, error) {
	var s entity.Store
	err := row.Scan(&s.ID, &s.Name, &s.Type, &s.IsActive)
	return s, err
}

func scanBatch(row pgx.CollectableRow) (entity.ProductBatch, error) {
	var b entity.ProductBatch
	err := row.Scan(&b.ID, &b.BatchCode, &b.ProductID, &b.StoreID, &b.ProductionDate, &b.ExpirationDate,
		&b.InitialQuantity, &b.CurrentQuantity, &b.IsActive)
	return b, err
}

func scanStock(row pgx.CollectableRow) (entity.ProductStoreStock, error) {
	var s entity.ProductStoreStock
	err := row.Scan(&s.ProductID, &s.StoreID, &s.CurrentStock, &s.MinStockLevel, &s.LastUpdated)
	return s, err
}

func scanSale(row pgx.CollectableRow) (entity.Sale, error) {
	var s entity.Sale
	err := row.Scan(&s.ID, &s.SaleNumber, &s.StoreID, &s.ClientID, &s.UserID, &s.SaleType,
		&s.Subtotal, &s.DiscountAmount, &s.TaxAmount, &s.TotalAmount, &s.CreatedAt)
	return s, err
}

func scanSaleItem(row pgx.CollectableRow) (entity.SaleLineItem, error) {
	var l entity.SaleLineItem
	err := row.Scan(&l.ID, &l.SaleID, &l.ProductID, &l.BatchID, &l.Quantity, &l.UnitPrice, &l.Subtotal)
	return l, err
}

func scanMovement(row pgx.CollectableRow) (entity.InventoryMovement, error) {
	var m entity.InventoryMovement
	err := row.Scan(&m.ID, &m.MovementType, &m.ProductID, &m.BatchID, &m.FromStoreID, &m.ToStoreID,
		&m.Quantity, &m.Reason, &m.MovementDate, &m.UserID)
	return m, err
}

func scanUser(row pgx.CollectableRow) (entity.User, error) {
	var u entity.User
	err := row.Scan(&u.ID, &u.Name)
	return u, err
}
