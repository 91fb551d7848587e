package report

import (
	"strconv"
	"time"

	"github.com/jhoicas/Inventario-reportes/internal/domain/entity"
)

const centralWarehouseName = "Bodega central"

// Index mapas id → entidad construidos una sola vez por snapshot, para que los joins
// sean búsquedas O(1) en vez de recorridos lineales dentro de los ciclos.
type Index struct {
	snap *Snapshot
	loc  *time.Location

	products      map[int64]*entity.Product
	categories    map[int64]*entity.Category
	stores        map[int64]*entity.Store
	batches       map[int64]*entity.ProductBatch
	batchesByCode map[string]*entity.ProductBatch
	sales         map[int64]*entity.Sale
	users         map[int64]*entity.User
}

// NewIndex indexa el snapshot. Los punteros apuntan a los elementos del snapshot,
// que no deben modificarse mientras dure el cálculo.
func NewIndex(snap *Snapshot, loc *time.Location) *Index {
	ix := &Index{
		snap:          snap,
		loc:           loc,
		products:      make(map[int64]*entity.Product, len(snap.Products)),
		categories:    make(map[int64]*entity.Category, len(snap.Categories)),
		stores:        make(map[int64]*entity.Store, len(snap.Stores)),
		batches:       make(map[int64]*entity.ProductBatch, len(snap.Batches)),
		batchesByCode: make(map[string]*entity.ProductBatch, len(snap.Batches)),
		sales:         make(map[int64]*entity.Sale, len(snap.Sales)),
		users:         make(map[int64]*entity.User, len(snap.Users)),
	}
	for i := range snap.Products {
		ix.products[snap.Products[i].ID] = &snap.Products[i]
	}
	for i := range snap.Categories {
		ix.categories[snap.Categories[i].ID] = &snap.Categories[i]
	}
	for i := range snap.Stores {
		ix.stores[snap.Stores[i].ID] = &snap.Stores[i]
	}
	for i := range snap.Batches {
		b := &snap.Batches[i]
		ix.batches[b.ID] = b
		ix.batchesByCode[b.BatchCode] = b
	}
	for i := range snap.Sales {
		ix.sales[snap.Sales[i].ID] = &snap.Sales[i]
	}
	for i := range snap.Users {
		ix.users[snap.Users[i].ID] = &snap.Users[i]
	}
	return ix
}

// day día civil de un registro en la zona horaria del negocio.
func (ix *Index) day(t time.Time) time.Time {
	return dayIn(t, ix.loc)
}

func (ix *Index) Product(id int64) (*entity.Product, bool) {
	p, ok := ix.products[id]
	return p, ok
}

func (ix *Index) Store(id int64) (*entity.Store, bool) {
	s, ok := ix.stores[id]
	return s, ok
}

func (ix *Index) BatchByCode(code string) (*entity.ProductBatch, bool) {
	b, ok := ix.batchesByCode[code]
	return b, ok
}

func (ix *Index) categoryName(id int64) string {
	if c, ok := ix.categories[id]; ok {
		return c.Name
	}
	return ""
}

func (ix *Index) storeName(id int64) string {
	if s, ok := ix.stores[id]; ok {
		return s.Name
	}
	return ""
}

// optStoreName nombre de una tienda opcional; nil es la bodega central.
func (ix *Index) optStoreName(id *int64) string {
	if id == nil {
		return centralWarehouseName
	}
	return ix.storeName(*id)
}

// actor nombre del usuario o su id si no está en el snapshot.
func (ix *Index) actor(userID int64) string {
	if u, ok := ix.users[userID]; ok && u.Name != "" {
		return u.Name
	}
	return "usuario #" + strconv.FormatInt(userID, 10)
}
