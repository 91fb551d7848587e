package report

import (
	"fmt"
	"time"

	"github.com/jhoicas/Inventario-reportes/internal/domain"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
)

// Valores por defecto del motor.
const (
	DefaultTopN           = 20
	MaxTopN               = 200
	dashboardTopProducts  = 5
	DefaultDashboardDays  = 30 // ventana del dashboard cuando la consulta no trae fechas
	expirationCriticalDay = 7
	expirationWarningDay  = 30
)

var (
	hundred = decimal.NewFromInt(100)

	defaultMarginGood    = decimal.NewFromInt(30)
	defaultMarginWarning = decimal.NewFromInt(15)
	defaultTolerance     = decimal.RequireFromString("0.01")
)

// Config umbrales y reglas del motor. Es inmutable una vez construido el Engine.
type Config struct {
	// StockRule regla única de clasificación de stock, aplicada en todos los reportes.
	StockRule StockRule

	ExpirationCriticalDays int
	ExpirationWarningDays  int

	MarginGood    decimal.Decimal // margen % a partir del cual es "good"
	MarginWarning decimal.Decimal // margen % a partir del cual es "warning"

	DefaultTopN int
	MaxTopN     int

	// ConservationTolerance diferencia máxima aceptada en el balance de un lote.
	ConservationTolerance decimal.Decimal
	// SaleTotalTolerance diferencia máxima entre total y subtotal - descuento + impuesto.
	SaleTotalTolerance decimal.Decimal

	// Location zona horaria del negocio para calcular el día civil de cada registro.
	Location *time.Location
	// Language idioma usado para ordenar nombres de producto en los desempates.
	Language language.Tag
}

// DefaultConfig configuración con las reglas de negocio por defecto.
func DefaultConfig() Config {
	return Config{
		StockRule:              NewRelativeStockRule(),
		ExpirationCriticalDays: expirationCriticalDay,
		ExpirationWarningDays:  expirationWarningDay,
		MarginGood:             defaultMarginGood,
		MarginWarning:          defaultMarginWarning,
		DefaultTopN:            DefaultTopN,
		MaxTopN:                MaxTopN,
		ConservationTolerance:  defaultTolerance,
		SaleTotalTolerance:     defaultTolerance,
		Location:               time.UTC,
		Language:               language.Spanish,
	}
}

// Engine motor de reportes. No guarda estado entre llamadas: es seguro usarlo
// desde varias goroutines a la vez.
type Engine struct {
	cfg Config
}

// NewEngine construye el motor completando con valores por defecto lo que falte en cfg.
func NewEngine(cfg Config) *Engine {
	def := DefaultConfig()
	if cfg.StockRule == nil {
		cfg.StockRule = def.StockRule
	}
	if cfg.ExpirationCriticalDays <= 0 {
		cfg.ExpirationCriticalDays = def.ExpirationCriticalDays
	}
	if cfg.ExpirationWarningDays <= 0 {
		cfg.ExpirationWarningDays = def.ExpirationWarningDays
	}
	if cfg.MarginGood.IsZero() && cfg.MarginWarning.IsZero() {
		cfg.MarginGood, cfg.MarginWarning = def.MarginGood, def.MarginWarning
	}
	if cfg.DefaultTopN <= 0 {
		cfg.DefaultTopN = def.DefaultTopN
	}
	if cfg.MaxTopN <= 0 {
		cfg.MaxTopN = def.MaxTopN
	}
	if cfg.ConservationTolerance.IsZero() {
		cfg.ConservationTolerance = def.ConservationTolerance
	}
	if cfg.SaleTotalTolerance.IsZero() {
		cfg.SaleTotalTolerance = def.SaleTotalTolerance
	}
	if cfg.Location == nil {
		cfg.Location = def.Location
	}
	if cfg.Language == language.Und {
		cfg.Language = def.Language
	}
	return &Engine{cfg: cfg}
}

// Config devuelve la configuración efectiva del motor.
func (e *Engine) Config() Config {
	return e.cfg
}

// prepare valida la consulta y construye el índice del snapshot.
func (e *Engine) prepare(snap *Snapshot, q Query) (*Index, error) {
	if snap == nil {
		return nil, fmt.Errorf("%w: snapshot vacío", domain.ErrDataUnavailable)
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return NewIndex(snap, e.cfg.Location), nil
}

// ── Aritmética protegida ──────────────────────────────────────────────────────

// safeDiv devuelve a/b o cero si b es cero; nunca NaN ni pánico.
func safeDiv(a, b decimal.Decimal) decimal.Decimal {
	if b.IsZero() {
		return decimal.Zero
	}
	return a.Div(b)
}

// percentOf devuelve part/total*100 redondeado a 2 decimales (0 si total es 0).
func percentOf(part, total decimal.Decimal) decimal.Decimal {
	return safeDiv(part, total).Mul(hundred).Round(2)
}

func money(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
