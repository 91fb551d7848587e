package report

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockStatus estado de salud del stock de un producto en una tienda.
type StockStatus string

const (
	StockNormal     StockStatus = "NORMAL"
	StockLow        StockStatus = "LOW"
	StockCritical   StockStatus = "CRITICAL"
	StockOutOfStock StockStatus = "OUT_OF_STOCK"
)

// severity ordena los estados de más a menos urgente.
func (s StockStatus) severity() int {
	switch s {
	case StockOutOfStock:
		return 0
	case StockCritical:
		return 1
	case StockLow:
		return 2
	default:
		return 3
	}
}

// StockRule clasifica un nivel de stock frente a su nivel mínimo.
type StockRule interface {
	Classify(current, minLevel decimal.Decimal) StockStatus
	Name() string
}

// RelativeStockRule regla relativa al stock mínimo:
// 0 → OUT_OF_STOCK; ≤ min×ratio → CRITICAL; ≤ min → LOW; si no NORMAL.
type RelativeStockRule struct {
	CriticalRatio decimal.Decimal
}

// NewRelativeStockRule regla relativa con la mitad del mínimo como umbral crítico.
func NewRelativeStockRule() RelativeStockRule {
	return RelativeStockRule{CriticalRatio: decimal.RequireFromString("0.5")}
}

func (r RelativeStockRule) Name() string { return "relative" }

func (r RelativeStockRule) Classify(current, minLevel decimal.Decimal) StockStatus {
	switch {
	case !current.IsPositive():
		return StockOutOfStock
	case current.LessThanOrEqual(minLevel.Mul(r.CriticalRatio)):
		return StockCritical
	case current.LessThanOrEqual(minLevel):
		return StockLow
	default:
		return StockNormal
	}
}

// FlatStockRule regla de umbrales fijos en unidades, ignora el mínimo por producto:
// 0 → OUT_OF_STOCK; ≤ Critical → CRITICAL; < Low → LOW; si no NORMAL.
type FlatStockRule struct {
	Low      decimal.Decimal
	Critical decimal.Decimal
}

// NewFlatStockRule regla fija con los umbrales de 10 y 3 unidades.
func NewFlatStockRule() FlatStockRule {
	return FlatStockRule{Low: decimal.NewFromInt(10), Critical: decimal.NewFromInt(3)}
}

func (r FlatStockRule) Name() string { return "flat" }

func (r FlatStockRule) Classify(current, _ decimal.Decimal) StockStatus {
	switch {
	case !current.IsPositive():
		return StockOutOfStock
	case current.LessThanOrEqual(r.Critical):
		return StockCritical
	case current.LessThan(r.Low):
		return StockLow
	default:
		return StockNormal
	}
}

// ExpirationStatus urgencia de vencimiento de un lote.
type ExpirationStatus string

const (
	ExpirationExpired  ExpirationStatus = "expired"
	ExpirationCritical ExpirationStatus = "critical"
	ExpirationWarning  ExpirationStatus = "warning"
	ExpirationNormal   ExpirationStatus = "normal"
	// ExpirationUnknown lote sin fecha de vencimiento registrada.
	ExpirationUnknown ExpirationStatus = "unknown"
)

// ClassifyExpiration mapea días hasta el vencimiento a su nivel de urgencia.
func (e *Engine) ClassifyExpiration(days int) ExpirationStatus {
	switch {
	case days <= 0:
		return ExpirationExpired
	case days <= e.cfg.ExpirationCriticalDays:
		return ExpirationCritical
	case days <= e.cfg.ExpirationWarningDays:
		return ExpirationWarning
	default:
		return ExpirationNormal
	}
}

// daysBetween días civiles desde from hasta to (negativo si to es anterior).
func daysBetween(from, to time.Time) int {
	return int(civilDay(to).Sub(civilDay(from)).Hours() / 24)
}

// MarginHealth salud del margen de rentabilidad.
type MarginHealth string

const (
	MarginGood    MarginHealth = "good"
	MarginWarning MarginHealth = "warning"
	MarginDanger  MarginHealth = "danger"
)

// ClassifyMargin mapea un margen porcentual a su nivel de salud.
func (e *Engine) ClassifyMargin(pct decimal.Decimal) MarginHealth {
	switch {
	case pct.GreaterThanOrEqual(e.cfg.MarginGood):
		return MarginGood
	case pct.GreaterThanOrEqual(e.cfg.MarginWarning):
		return MarginWarning
	default:
		return MarginDanger
	}
}

// ClassifyStock aplica la regla de stock configurada.
func (e *Engine) ClassifyStock(current, minLevel decimal.Decimal) StockStatus {
	return e.cfg.StockRule.Classify(current, minLevel)
}
