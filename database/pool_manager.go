package database

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/singleflight"
)

// connectFunc abre un pool. Inyectable para tests.
type connectFunc func(ctx context.Context, cfg Config) (*pgxpool.Pool, error)

// PoolManager administra pools por DSN. Thread-safe; usa singleflight
// para que llamadas concurrentes al mismo DSN no abran pools duplicados.
type PoolManager struct {
	pools   sync.Map // dsn → *pgxpool.Pool
	sf      singleflight.Group
	connect connectFunc
}

// NewPoolManager crea un manager de pools.
func NewPoolManager() *PoolManager {
	return &PoolManager{connect: Connect}
}

// Get obtiene el pool para la DSN de cfg, creándolo si no existe.
func (m *PoolManager) Get(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	if v, ok := m.pools.Load(cfg.DSN); ok {
		return v.(*pgxpool.Pool), nil
	}

	v, err, _ := m.sf.Do(cfg.DSN, func() (any, error) {
		// Double-check: otro vuelo pudo haberlo creado
		if v, ok := m.pools.Load(cfg.DSN); ok {
			return v, nil
		}
		pool, err := m.connect(ctx, cfg)
		if err != nil {
			return nil, err
		}
		m.pools.Store(cfg.DSN, pool)
		return pool, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*pgxpool.Pool), nil
}

// Has indica si ya existe un pool para la DSN.
func (m *PoolManager) Has(dsn string) bool {
	_, ok := m.pools.Load(dsn)
	return ok
}

// Close cierra y descarta el pool de la DSN dada.
func (m *PoolManager) Close(dsn string) {
	if v, ok := m.pools.LoadAndDelete(dsn); ok {
		v.(*pgxpool.Pool).Close()
	}
}

// CloseAll cierra todos los pools. Para el shutdown del servicio.
func (m *PoolManager) CloseAll() {
	m.pools.Range(func(key, value any) bool {
		value.(*pgxpool.Pool).Close()
		m.pools.Delete(key)
		return true
	})
}
