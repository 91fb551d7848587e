package reports

import (
	"fmt"
	"time"

	"github.com/jhoicas/Inventario-reportes/internal/domain/report"
	"github.com/jhoicas/Inventario-reportes/pkg/config"
)

// EngineConfig traduce la configuración de la aplicación a la del motor de reportes.
func EngineConfig(cfg config.ReportsConfig) (report.Config, error) {
	ec := report.DefaultConfig()

	switch cfg.StockRule {
	case "", config.StockRuleRelative:
	case config.StockRuleFlat:
		ec.StockRule = report.FlatStockRule{Low: cfg.FlatLow, Critical: cfg.FlatCritical}
	default:
		return ec, fmt.Errorf("regla de stock desconocida: %q", cfg.StockRule)
	}

	if cfg.DefaultTopN > 0 {
		ec.DefaultTopN = cfg.DefaultTopN
	}
	if cfg.ConservationTolerance.IsPositive() {
		ec.ConservationTolerance = cfg.ConservationTolerance
	}
	if cfg.Timezone != "" {
		loc, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			return ec, fmt.Errorf("zona horaria %q: %w", cfg.Timezone, err)
		}
		ec.Location = loc
	}
	return ec, nil
}
