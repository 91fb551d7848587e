package backend

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-reportes/internal/domain/entity"
)

// ── Tipos tolerantes del protocolo ───────────────────────────────────────────

// apiTime acepta RFC 3339, fecha-hora sin zona o solo fecha. zoned indica si el texto traía zona.
type apiTime struct {
	time.Time
	zoned bool
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (t *apiTime) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	for i, layout := range timeLayouts {
		if v, err := time.Parse(layout, s); err == nil {
			t.Time = v
			t.zoned = i == 0
			return nil
		}
	}
	return fmt.Errorf("fecha no reconocida %q", s)
}

// in ubica en loc una fecha-hora registrada sin zona, que el backend expresa en hora local
// del negocio. Las que traen zona no cambian.
func (t apiTime) in(loc *time.Location) time.Time {
	if t.zoned || t.IsZero() || loc == nil {
		return t.Time
	}
	y, m, d := t.Date()
	h, mi, sec := t.Clock()
	return time.Date(y, m, d, h, mi, sec, t.Nanosecond(), loc)
}

// apiID acepta ids numéricos o como string.
type apiID int64

func (id *apiID) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*id = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("id no numérico %q", s)
	}
	*id = apiID(n)
	return nil
}

// optID referencia opcional; null o ausente = nil.
func optID(id *apiID) *int64 {
	if id == nil || *id == 0 {
		return nil
	}
	v := int64(*id)
	return &v
}

// ── Colecciones ──────────────────────────────────────────────────────────────

type productDTO struct {
	ID             apiID           `json:"id"`
	Code           string          `json:"code"`
	Name           string          `json:"name"`
	CategoryID     apiID           `json:"categoryId"`
	ProductionCost decimal.Decimal `json:"productionCost"`
	WholesalePrice decimal.Decimal `json:"wholesalePrice"`
	RetailPrice    decimal.Decimal `json:"retailPrice"`
	MinStockLevel  decimal.Decimal `json:"minStockLevel"`
	IsActive       *bool           `json:"isActive"`
}

func (p productDTO) entity() entity.Product {
	return entity.Product{
		ID:             int64(p.ID),
		Code:           p.Code,
		Name:           p.Name,
		CategoryID:     int64(p.CategoryID),
		ProductionCost: p.ProductionCost,
		WholesalePrice: p.WholesalePrice,
		RetailPrice:    p.RetailPrice,
		MinStockLevel:  p.MinStockLevel,
		IsActive:       p.IsActive == nil || *p.IsActive,
	}
}

type categoryDTO struct {
	ID   apiID  `json:"id"`
	Name string `json:"name"`
}

type storeDTO struct {
	ID       apiID  `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	IsActive *bool  `json:"isActive"`
}

type batchDTO struct {
	ID              apiID           `json:"id"`
	BatchCode       string          `json:"batchCode"`
	ProductID       apiID           `json:"productId"`
	StoreID         *apiID          `json:"storeId"`
	ProductionDate  apiTime         `json:"productionDate"`
	ExpirationDate  apiTime         `json:"expirationDate"`
	InitialQuantity decimal.Decimal `json:"initialQuantity"`
	CurrentQuantity decimal.Decimal `json:"currentQuantity"`
	IsActive        *bool           `json:"isActive"`
}

func (b batchDTO) entity() entity.ProductBatch {
	return entity.ProductBatch{
		ID:              int64(b.ID),
		BatchCode:       b.BatchCode,
		ProductID:       int64(b.ProductID),
		StoreID:         optID(b.StoreID),
		ProductionDate:  b.ProductionDate.Time,
		ExpirationDate:  b.ExpirationDate.Time,
		InitialQuantity: b.InitialQuantity,
		CurrentQuantity: b.CurrentQuantity,
		IsActive:        b.IsActive == nil || *b.IsActive,
	}
}

type stockDTO struct {
	ProductID     apiID           `json:"productId"`
	StoreID       apiID           `json:"storeId"`
	CurrentStock  decimal.Decimal `json:"currentStock"`
	MinStockLevel decimal.Decimal `json:"minStockLevel"`
	LastUpdated   apiTime         `json:"lastUpdated"`
}

type saleDTO struct {
	ID             apiID           `json:"id"`
	SaleNumber     string          `json:"saleNumber"`
	StoreID        apiID           `json:"storeId"`
	ClientID       *apiID          `json:"clientId"`
	UserID         apiID           `json:"userId"`
	SaleType       string          `json:"saleType"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	TaxAmount      decimal.Decimal `json:"taxAmount"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	CreatedAt      apiTime         `json:"createdAt"`
}

func (s saleDTO) entity(loc *time.Location) entity.Sale {
	return entity.Sale{
		ID:             int64(s.ID),
		SaleNumber:     s.SaleNumber,
		StoreID:        int64(s.StoreID),
		ClientID:       optID(s.ClientID),
		UserID:         int64(s.UserID),
		SaleType:       s.SaleType,
		Subtotal:       s.Subtotal,
		DiscountAmount: s.DiscountAmount,
		TaxAmount:      s.TaxAmount,
		TotalAmount:    s.TotalAmount,
		CreatedAt:      s.CreatedAt.in(loc),
	}
}

type saleItemDTO struct {
	ID        apiID           `json:"id"`
	SaleID    apiID           `json:"saleId"`
	ProductID apiID           `json:"productId"`
	BatchID   *apiID          `json:"batchId"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type movementDTO struct {
	ID           apiID           `json:"id"`
	MovementType string          `json:"movementType"`
	ProductID    apiID           `json:"productId"`
	BatchID      *apiID          `json:"batchId"`
	FromStoreID  *apiID          `json:"fromStoreId"`
	ToStoreID    *apiID          `json:"toStoreId"`
	Quantity     decimal.Decimal `json:"quantity"`
	Reason       string          `json:"reason"`
	MovementDate apiTime         `json:"movementDate"`
	UserID       apiID           `json:"userId"`
}

func (m movementDTO) entity(loc *time.Location) entity.InventoryMovement {
	return entity.InventoryMovement{
		ID:           int64(m.ID),
		MovementType: strings.ToUpper(m.MovementType),
		ProductID:    int64(m.ProductID),
		BatchID:      optID(m.BatchID),
		FromStoreID:  optID(m.FromStoreID),
		ToStoreID:    optID(m.ToStoreID),
		Quantity:     m.Quantity,
		Reason:       strings.ToUpper(m.Reason),
		MovementDate: m.MovementDate.in(loc),
		UserID:       int64(m.UserID),
	}
}

// versionDTO huella de los datos del backend; cambia con cada escritura.
type versionDTO struct {
	Version string `json:"version"`
	ETag    string `json:"etag"`
}

type userDTO struct {
	ID       apiID  `json:"id"`
	Name     string `json:"name"`
	FullName string `json:"fullName"`
}

// kpisDTO KPIs que el backend calcula con datos que no están en el snapshot.
type kpisDTO struct {
	ConversionRate    *decimal.Decimal `json:"conversionRate"`
	CustomerRetention *decimal.Decimal `json:"customerRetention"`
}

// alertDTO acepta alertas como texto plano o como objeto con mensaje.
type alertDTO string

func (a *alertDTO) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*a = alertDTO(s)
		return nil
	}
	var obj struct {
		Message string `json:"message"`
		Title   string `json:"title"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	msg := obj.Message
	if msg == "" {
		msg = obj.Title
	}
	*a = alertDTO(msg)
	return nil
}
