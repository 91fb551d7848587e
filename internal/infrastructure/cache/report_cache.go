package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix       = "reports"
	cacheVersionKey = "reports:version"
	bumpChannel     = "reports.bump"
)

// ReportCache caché de reportes en Redis con invalidación por versión global:
// la versión forma parte de cada clave, así que incrementarla deja huérfanas todas
// las entradas anteriores (que expiran por TTL).
type ReportCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewReportCache construye la caché. Un client nil produce una caché inactiva que
// siempre calcula.
func NewReportCache(client redis.UniversalClient, ttl time.Duration) *ReportCache {
	return &ReportCache{client: client, ttl: ttl}
}

func (c *ReportCache) enabled() bool {
	return c != nil && c.client != nil
}

// Version devuelve la versión vigente, inicializándola si no existe.
func (c *ReportCache) Version(ctx context.Context) (int64, error) {
	if !c.enabled() {
		return 0, nil
	}
	ver, err := c.client.Get(ctx, cacheVersionKey).Int64()
	if errors.Is(err, redis.Nil) || (err == nil && ver <= 0) {
		// SETNX: si otra instancia la inicializó primero se respeta su valor.
		if err := c.client.SetNX(ctx, cacheVersionKey, 1, 0).Err(); err != nil {
			return 0, fmt.Errorf("cache: inicializar versión: %w", err)
		}
		return c.client.Get(ctx, cacheVersionKey).Int64()
	}
	if err != nil {
		return 0, fmt.Errorf("cache: leer versión: %w", err)
	}
	return ver, nil
}

// BuildKey compone la clave reports:<partes>:v<versión>.
func (c *ReportCache) BuildKey(ctx context.Context, parts ...string) (string, error) {
	joined := strings.Join(append([]string{keyPrefix}, parts...), ":")
	if !c.enabled() {
		return joined, nil
	}
	ver, err := c.Version(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:v%d", joined, ver), nil
}

// FetchJSON carga el valor cacheado en dest o lo calcula con loader y lo guarda.
// Devuelve hit=true si el valor vino de Redis. Si Redis falla se calcula igual:
// la caché nunca convierte un reporte calculable en un error.
func (c *ReportCache) FetchJSON(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) (bool, error) {
	if loader == nil {
		return false, errors.New("cache: loader requerido")
	}
	if c.enabled() {
		payload, err := c.client.Get(ctx, key).Bytes()
		if err == nil {
			if jsonErr := json.Unmarshal(payload, dest); jsonErr == nil {
				return true, nil
			}
		}
	}

	value, err := loader(ctx)
	if err != nil {
		return false, err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("cache: serializar: %w", err)
	}
	if c.enabled() {
		_ = c.client.Set(ctx, key, raw, c.ttl).Err()
	}
	return false, json.Unmarshal(raw, dest)
}

// Bump invalida toda la caché incrementando la versión y publica el evento para otras instancias.
func (c *ReportCache) Bump(ctx context.Context) (int64, error) {
	if !c.enabled() {
		return 0, nil
	}
	ver, err := c.client.Incr(ctx, cacheVersionKey).Result()
	if err != nil {
		return 0, fmt.Errorf("cache: incrementar versión: %w", err)
	}
	if err := c.client.Publish(ctx, bumpChannel, strconv.FormatInt(ver, 10)).Err(); err != nil {
		return ver, fmt.Errorf("cache: publicar invalidación: %w", err)
	}
	return ver, nil
}

// ListenForInvalidation escucha invalidaciones publicadas por otras instancias o por el
// backend transaccional (mensaje vacío o no numérico = incrementar versión).
// Termina cuando ctx se cancela.
func (c *ReportCache) ListenForInvalidation(ctx context.Context, channel string) error {
	if !c.enabled() {
		return nil
	}
	if channel == "" {
		channel = bumpChannel
	}
	pubsub := c.client.Subscribe(ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("cache: suscribir %s: %w", channel, err)
	}
	go func() {
		defer func() { _ = pubsub.Close() }()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				if ver, err := strconv.ParseInt(msg.Payload, 10, 64); err == nil && ver > 0 {
					// Solo avanza: una versión publicada vieja no resucita entradas.
					c.raiseVersion(ctx, ver)
					continue
				}
				_ = c.client.Incr(ctx, cacheVersionKey).Err()
			}
		}
	}()
	return nil
}

func (c *ReportCache) raiseVersion(ctx context.Context, ver int64) {
	cur, err := c.client.Get(ctx, cacheVersionKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return
	}
	if ver > cur {
		_ = c.client.Set(ctx, cacheVersionKey, ver, 0).Err()
	}
}
