// Package cache provee un cliente de cache compartido con backends
// intercambiables: memory (in-process, dev/tests) y redis (distribuido,
// producción). Cada servicio consumidor crea su propio cliente.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound la key no existe (o ya expiró).
var ErrNotFound = errors.New("cache: key not found")

// Client operaciones de cache. Todas aceptan context para respetar
// timeouts del request en el backend distribuido.
type Client interface {
	// Get obtiene un valor. ErrNotFound si no existe.
	Get(ctx context.Context, key string) (string, error)

	// Set guarda un valor. ttl 0 = sin expiración.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// SetNX guarda solo si la key no existe. Retorna true si escribió.
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)

	// Delete elimina una o más keys.
	Delete(ctx context.Context, keys ...string) error

	// Exists verifica si la key existe.
	Exists(ctx context.Context, key string) (bool, error)

	// Incr incrementa el valor numérico de la key.
	Incr(ctx context.Context, key string, delta int64) (int64, error)

	// Expire fija una expiración sobre una key existente.
	Expire(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Ping verifica la conexión.
	Ping(ctx context.Context) error

	// Close libera recursos del backend.
	Close() error
}

// Config para construir un cliente.
type Config struct {
	Driver string // "memory" | "redis"
	Redis  struct {
		Addr     string
		Password string
		DB       int
		Prefix   string
	}
	Memory struct {
		DefaultTTL time.Duration
	}
}

// New construye el cliente según el driver configurado.
func New(cfg Config) (Client, error) {
	switch cfg.Driver {
	case "", "memory":
		return NewMemory(cfg.Memory.DefaultTTL), nil
	case "redis":
		return NewRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Prefix), nil
	default:
		return nil, fmt.Errorf("cache: unknown driver %q", cfg.Driver)
	}
}

// GetJSON obtiene y deserializa un valor JSON en dst.
func GetJSON(ctx context.Context, c Client, key string, dst any) error {
	raw, err := c.Get(ctx, key)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(raw), dst)
}

// SetJSON serializa v como JSON y lo guarda.
func SetJSON(ctx context.Context, c Client, key string, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, string(b), ttl)
}
