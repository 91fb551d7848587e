package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jhoicas/Inventario-reportes/internal/domain"
)

const dateLayout = "2006-01-02"

// Query parámetros de un reporte. Los campos nil significan "sin filtro"; una fecha
// ausente significa "sin límite inferior/superior".
type Query struct {
	StartDate         *time.Time
	EndDate           *time.Time
	StoreID           *int64
	CategoryID        *int64
	BatchCode         *string
	TopN              *int
	WholeCatalogShare bool // participación sobre todo el catálogo filtrado en vez del top N
}

// Validate rechaza consultas estructuralmente inválidas antes de calcular nada.
func (q Query) Validate() error {
	if q.StartDate != nil && q.EndDate != nil && civilDay(*q.StartDate).After(civilDay(*q.EndDate)) {
		return fmt.Errorf("%w: start_date no puede ser posterior a end_date", domain.ErrInvalidQuery)
	}
	if q.TopN != nil && *q.TopN < 0 {
		return fmt.Errorf("%w: top_n no puede ser negativo", domain.ErrInvalidQuery)
	}
	return nil
}

// limit resuelve top N con el valor por defecto y el máximo permitido.
func (q Query) limit(def, max int) int {
	n := def
	if q.TopN != nil {
		n = *q.TopN
	}
	if max > 0 && n > max {
		n = max
	}
	return n
}

// inRange indica si el día civil d cae dentro del rango de la consulta (extremos inclusive).
func (q Query) inRange(d time.Time) bool {
	if q.StartDate != nil && d.Before(civilDay(*q.StartDate)) {
		return false
	}
	if q.EndDate != nil && d.After(civilDay(*q.EndDate)) {
		return false
	}
	return true
}

func (q Query) matchesStore(storeID int64) bool {
	return q.StoreID == nil || *q.StoreID == storeID
}

func (q Query) matchesCategory(categoryID int64) bool {
	return q.CategoryID == nil || *q.CategoryID == categoryID
}

// Key representación canónica de la consulta, estable entre llamadas (para claves de caché).
func (q Query) Key() string {
	parts := []string{
		"from=" + formatOptDate(q.StartDate),
		"to=" + formatOptDate(q.EndDate),
		"store=" + formatOptInt(q.StoreID),
		"cat=" + formatOptInt(q.CategoryID),
		"batch=",
		"top=",
		"whole=" + strconv.FormatBool(q.WholeCatalogShare),
	}
	if q.BatchCode != nil {
		parts[4] += *q.BatchCode
	}
	if q.TopN != nil {
		parts[5] += strconv.Itoa(*q.TopN)
	}
	return strings.Join(parts, "|")
}

// Period rango de fechas de un reporte tal como se expone (vacío = abierto).
type Period struct {
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
}

func (q Query) period() Period {
	var p Period
	if q.StartDate != nil {
		p.StartDate = civilDay(*q.StartDate).Format(dateLayout)
	}
	if q.EndDate != nil {
		p.EndDate = civilDay(*q.EndDate).Format(dateLayout)
	}
	return p
}

// civilDay normaliza una fecha de consulta (ya expresada como día civil) a medianoche UTC.
func civilDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// dayIn devuelve el día civil de un registro en la zona horaria del negocio.
func dayIn(t time.Time, loc *time.Location) time.Time {
	if loc != nil {
		t = t.In(loc)
	}
	return civilDay(t)
}

// calendarDay día de una fecha de calendario (fabricación, vencimiento). Se toma tal
// como viene, sin convertir de zona: medianoche UTC sigue siendo el mismo día en cualquier tienda.
func calendarDay(t time.Time) time.Time {
	return civilDay(t)
}

// formatCalendarDate fecha de calendario como YYYY-MM-DD, vacía si no se registró.
func formatCalendarDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return calendarDay(t).Format(dateLayout)
}

func formatOptDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return civilDay(*t).Format(dateLayout)
}

func formatOptInt(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}
