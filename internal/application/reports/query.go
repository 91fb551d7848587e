package reports

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jhoicas/Inventario-reportes/internal/application/dto"
	"github.com/jhoicas/Inventario-reportes/internal/domain"
	"github.com/jhoicas/Inventario-reportes/internal/domain/report"
)

const dateLayout = "2006-01-02"

func newValidator() *validator.Validate {
	v := validator.New()
	// Los errores se reportan con el nombre del parámetro de consulta.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("query"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// toQuery valida la petición y la convierte en report.Query aplicando el alcance del usuario.
func (s *Service) toQuery(req dto.ReportQueryRequest, scope dto.ReportScope) (report.Query, error) {
	var q report.Query
	if err := s.validate.Struct(req); err != nil {
		return q, fmt.Errorf("%w: %s", domain.ErrInvalidQuery, describeValidation(err))
	}

	var err error
	if q.StartDate, err = parseDate("start_date", req.StartDate); err != nil {
		return q, err
	}
	if q.EndDate, err = parseDate("end_date", req.EndDate); err != nil {
		return q, err
	}
	q.StoreID = req.StoreID
	q.CategoryID = req.CategoryID
	q.TopN = req.TopN
	q.WholeCatalogShare = req.WholeCatalogShare

	// Un usuario asignado a una tienda solo ve esa tienda.
	if scope.StoreID != nil {
		if q.StoreID != nil && *q.StoreID != *scope.StoreID {
			return q, fmt.Errorf("%w: la tienda %d está fuera del alcance del usuario", domain.ErrUnauthorized, *q.StoreID)
		}
		id := *scope.StoreID
		q.StoreID = &id
	}

	if err := q.Validate(); err != nil {
		return q, err
	}
	return q, nil
}

func parseDate(field, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil, fmt.Errorf("%w: %s debe tener formato YYYY-MM-DD", domain.ErrInvalidQuery, field)
	}
	return &t, nil
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "datetime":
			msgs = append(msgs, fe.Field()+" debe tener formato YYYY-MM-DD")
		case "min":
			msgs = append(msgs, fe.Field()+" debe ser mayor o igual a "+fe.Param())
		default:
			msgs = append(msgs, fe.Field()+" inválido")
		}
	}
	return strings.Join(msgs, "; ")
}

// dashboardWindow completa las fechas faltantes del dashboard con los últimos
// report.DefaultDashboardDays días que terminan hoy (en la zona del negocio).
func dashboardWindow(q report.Query, now time.Time, loc *time.Location) report.Query {
	if q.StartDate != nil || q.EndDate != nil {
		return q
	}
	if loc != nil {
		now = now.In(loc)
	}
	y, m, d := now.Date()
	end := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	start := end.AddDate(0, 0, -(report.DefaultDashboardDays - 1))
	q.StartDate, q.EndDate = &start, &end
	return q
}
