package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/Inventario-reportes/internal/application/reports"
	"github.com/jhoicas/Inventario-reportes/internal/domain/report"
	"github.com/jhoicas/Inventario-reportes/internal/domain/repository"
	"github.com/jhoicas/Inventario-reportes/internal/infrastructure/backend"
	"github.com/jhoicas/Inventario-reportes/internal/infrastructure/cache"
	"github.com/jhoicas/Inventario-reportes/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/Inventario-reportes/internal/interfaces/http"
	"github.com/jhoicas/Inventario-reportes/pkg/config"
	"github.com/jhoicas/Inventario-reportes/pkg/logger"
)

const swaggerFile = "./docs/swagger.json"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("snapshot_source", cfg.Snapshot.Source).
		Msg("iniciando aplicación")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	engineCfg, err := reports.EngineConfig(cfg.Reports)
	if err != nil {
		log.Fatal().Err(err).Msg("configuración del motor de reportes")
	}

	// ── Fuente del snapshot ───────────────────────────────────────────────────
	var snapshots repository.SnapshotRepository
	switch cfg.Snapshot.Source {
	case config.SourceBackend:
		client := backend.NewClient(cfg.Snapshot.BaseURL, cfg.Snapshot.Token, cfg.Snapshot.Timeout)
		snapshots = backend.NewSnapshotRepository(client, engineCfg.Location, log.Component("backend"))
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB, cfg.App.Name)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		if cfg.Snapshot.Consistent {
			snapshots = postgres.NewConsistentSnapshotRepository(postgres.NewTxRunner(pool))
		} else {
			snapshots = postgres.NewSnapshotRepository(pool)
		}
	}

	// ── Caché opcional ────────────────────────────────────────────────────────
	var resultCache reports.ResultCache
	if cfg.Redis.Enabled() {
		rdb, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("redis no disponible, los reportes se calculan sin caché")
		} else {
			defer rdb.Close()
			rc := cache.NewReportCache(rdb, cfg.Reports.CacheTTL)
			if err := rc.ListenForInvalidation(ctx, ""); err != nil {
				log.Warn().Err(err).Msg("no se pudo escuchar invalidaciones de caché")
			}
			resultCache = rc
		}
	}

	reportSvc := reports.NewService(snapshots, report.NewEngine(engineCfg), resultCache, log)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(httpRouter.RequestLogger(log.Component("http")))

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "Inventario Reportes API",
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "snapshot_source": cfg.Snapshot.Source})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Reports:   reportSvc,
		JWTSecret: cfg.JWT.Secret,
		JWTIssuer: cfg.JWT.Issuer,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
