package backend

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/Inventario-reportes/internal/domain/entity"
	"github.com/jhoicas/Inventario-reportes/internal/domain/report"
	"github.com/jhoicas/Inventario-reportes/internal/domain/repository"
	"github.com/jhoicas/Inventario-reportes/pkg/logger"
)

// Verificar en tiempo de compilación que SnapshotRepo implementa el puerto.
var _ repository.SnapshotRepository = (*SnapshotRepo)(nil)

// Rutas del backend.
const (
	pathProducts   = "/products"
	pathCategories = "/categories"
	pathStores     = "/stores"
	pathBatches    = "/batches"
	pathStock      = "/stock"
	pathSales      = "/sales"
	pathSaleItems  = "/sale-items"
	pathMovements  = "/movements"
	pathUsers      = "/users"
	pathKPIs       = "/dashboard/kpis"
	pathAlerts     = "/alerts"
	pathVersion    = "/snapshot/version"
)

// SnapshotRepo arma el snapshot consultando el backend REST.
type SnapshotRepo struct {
	client *Client
	log    *logger.Logger
	loc    *time.Location
	now    func() time.Time
}

// NewSnapshotRepository construye el adaptador. loc es la zona del negocio en la que el backend
// registra las fechas-hora sin zona; nil las deja en UTC.
func NewSnapshotRepository(client *Client, loc *time.Location, log *logger.Logger) *SnapshotRepo {
	if log == nil {
		log = logger.Nop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &SnapshotRepo{client: client, log: log, loc: loc, now: time.Now}
}

// Version consulta la huella de datos del backend. Si el backend no la publica devuelve ""
// y la caché queda limitada por su TTL y por las invalidaciones explícitas.
func (r *SnapshotRepo) Version(ctx context.Context) (string, error) {
	var v versionDTO
	if err := r.client.get(ctx, pathVersion, &v); err != nil {
		if ctx.Err() != nil {
			return "", err
		}
		r.log.Debug().Err(err).Str("path", pathVersion).Msg("versión del backend no disponible")
		return "", nil
	}
	if v.Version != "" {
		return "api:" + v.Version, nil
	}
	if v.ETag != "" {
		return "api:" + strings.Trim(v.ETag, `"`), nil
	}
	return "", nil
}

// Snapshot descarga todas las colecciones en paralelo. Cualquier colección que falle invalida
// el snapshot (domain.ErrDataUnavailable); KPIs y alertas son opcionales y su falla solo se registra.
func (r *SnapshotRepo) Snapshot(ctx context.Context, _ report.Query) (*report.Snapshot, error) {
	var (
		products   []productDTO
		categories []categoryDTO
		stores     []storeDTO
		batches    []batchDTO
		stock      []stockDTO
		sales      []saleDTO
		items      []saleItemDTO
		movements  []movementDTO
		users      []userDTO
		kpis       kpisDTO
		alerts     []alertDTO
	)
	asOf := r.now()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return r.client.get(gctx, pathProducts, &products) })
	g.Go(func() error { return r.client.get(gctx, pathCategories, &categories) })
	g.Go(func() error { return r.client.get(gctx, pathStores, &stores) })
	g.Go(func() error { return r.client.get(gctx, pathBatches, &batches) })
	g.Go(func() error { return r.client.get(gctx, pathStock, &stock) })
	g.Go(func() error { return r.client.get(gctx, pathSales, &sales) })
	g.Go(func() error { return r.client.get(gctx, pathSaleItems, &items) })
	g.Go(func() error { return r.client.get(gctx, pathMovements, &movements) })
	g.Go(func() error { return r.client.get(gctx, pathUsers, &users) })
	g.Go(func() error {
		if err := r.client.get(gctx, pathKPIs, &kpis); err != nil {
			kpis = kpisDTO{}
			r.log.Warn().Err(err).Str("path", pathKPIs).Msg("KPIs externos no disponibles")
		}
		return nil
	})
	g.Go(func() error {
		if err := r.client.get(gctx, pathAlerts, &alerts); err != nil {
			alerts = nil
			r.log.Warn().Err(err).Str("path", pathAlerts).Msg("alertas del sistema no disponibles")
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		r.log.Error().Err(err).Msg("snapshot del backend incompleto")
		return nil, err
	}

	snap := &report.Snapshot{
		Products:      make([]entity.Product, 0, len(products)),
		Categories:    make([]entity.Category, 0, len(categories)),
		Stores:        make([]entity.Store, 0, len(stores)),
		Batches:       make([]entity.ProductBatch, 0, len(batches)),
		Stock:         make([]entity.ProductStoreStock, 0, len(stock)),
		Sales:         make([]entity.Sale, 0, len(sales)),
		SaleLineItems: make([]entity.SaleLineItem, 0, len(items)),
		Movements:     make([]entity.InventoryMovement, 0, len(movements)),
		Users:         make([]entity.User, 0, len(users)),
		AsOf:          asOf,
		Version:       fmt.Sprintf("api:%d", asOf.UnixNano()),
		Upstream: report.UpstreamKPIs{
			ConversionRate:    kpis.ConversionRate,
			CustomerRetention: kpis.CustomerRetention,
		},
	}
	for _, p := range products {
		snap.Products = append(snap.Products, p.entity())
	}
	for _, c := range categories {
		snap.Categories = append(snap.Categories, entity.Category{ID: int64(c.ID), Name: c.Name})
	}
	for _, s := range stores {
		snap.Stores = append(snap.Stores, entity.Store{
			ID: int64(s.ID), Name: s.Name, Type: strings.ToLower(s.Type), IsActive: s.IsActive == nil || *s.IsActive,
		})
	}
	for _, b := range batches {
		snap.Batches = append(snap.Batches, b.entity())
	}
	for _, s := range stock {
		snap.Stock = append(snap.Stock, entity.ProductStoreStock{
			ProductID:     int64(s.ProductID),
			StoreID:       int64(s.StoreID),
			CurrentStock:  s.CurrentStock,
			MinStockLevel: s.MinStockLevel,
			LastUpdated:   s.LastUpdated.in(r.loc),
		})
	}
	for _, s := range sales {
		snap.Sales = append(snap.Sales, s.entity(r.loc))
	}
	for _, l := range items {
		snap.SaleLineItems = append(snap.SaleLineItems, entity.SaleLineItem{
			ID:        int64(l.ID),
			SaleID:    int64(l.SaleID),
			ProductID: int64(l.ProductID),
			BatchID:   optID(l.BatchID),
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Subtotal:  l.Subtotal,
		})
	}
	for _, m := range movements {
		snap.Movements = append(snap.Movements, m.entity(r.loc))
	}
	for _, u := range users {
		name := u.Name
		if name == "" {
			name = u.FullName
		}
		snap.Users = append(snap.Users, entity.User{ID: int64(u.ID), Name: name})
	}
	for _, a := range alerts {
		if msg := strings.TrimSpace(string(a)); msg != "" {
			snap.SystemAlerts = append(snap.SystemAlerts, msg)
		}
	}
	return snap, nil
}
