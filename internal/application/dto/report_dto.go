package dto

// ReportQueryRequest parámetros de consulta comunes a los reportes.
// Fechas en formato YYYY-MM-DD; ambas inclusive.
type ReportQueryRequest struct {
	StartDate         string `query:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate           string `query:"end_date" validate:"omitempty,datetime=2006-01-02"`
	StoreID           *int64 `query:"store_id" validate:"omitempty,min=1"`
	CategoryID        *int64 `query:"category_id" validate:"omitempty,min=1"`
	TopN              *int   `query:"top_n" validate:"omitempty,min=0"`
	WholeCatalogShare bool   `query:"whole_catalog_share"`
}

// ReportScope restricciones que impone la identidad del usuario sobre la consulta.
// StoreID != nil obliga a que todo reporte se limite a esa tienda.
type ReportScope struct {
	StoreID *int64
}

// CacheInvalidationResponse respuesta de POST /api/reports/cache/invalidate.
type CacheInvalidationResponse struct {
	Version int64 `json:"version"`
}
