package report

import "fmt"

// Códigos de advertencias de calidad de datos.
const (
	WarningDanglingReference    = "DANGLING_REFERENCE"
	WarningSaleTotalMismatch    = "SALE_TOTAL_MISMATCH"
	WarningBatchQuantityRange   = "BATCH_QUANTITY_OUT_OF_RANGE"
	WarningConservationMismatch = "CONSERVATION_MISMATCH"
	WarningProductionMismatch   = "PRODUCTION_MISMATCH"
	WarningApproximateSalesLink = "APPROXIMATE_SALES_LINK"
)

// DataQualityWarning anomalía no fatal detectada durante el cálculo.
// Se adjunta al reporte exitoso; nunca aborta el cálculo.
type DataQualityWarning struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Entity   string `json:"entity,omitempty"`
	EntityID int64  `json:"entity_id,omitempty"`
}

// warnings acumula advertencias en orden de detección, sin duplicados.
type warnings struct {
	list []DataQualityWarning
	seen map[string]struct{}
}

func (w *warnings) add(code, entity string, id int64, format string, args ...any) {
	w.addIn(code, entity, id, "", format, args...)
}

// addIn como add, pero la misma entidad en otro ámbito (p. ej. otra tienda) es otra advertencia.
func (w *warnings) addIn(code, entity string, id int64, scope, format string, args ...any) {
	key := fmt.Sprintf("%s|%s|%d|%s", code, entity, id, scope)
	if w.seen == nil {
		w.seen = make(map[string]struct{})
	}
	if _, dup := w.seen[key]; dup {
		return
	}
	w.seen[key] = struct{}{}
	w.list = append(w.list, DataQualityWarning{
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Entity:   entity,
		EntityID: id,
	})
}

func (w *warnings) result() []DataQualityWarning {
	if w.list == nil {
		return []DataQualityWarning{}
	}
	return w.list
}
