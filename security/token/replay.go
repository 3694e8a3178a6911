package token

import (
	"context"
	"time"

	"github.com/gravity-platform/gravity-common/cache"
)

// ReplayGuard implementa rotación single-use de refresh tokens sobre un
// cache compartido (redis en producción). Marca cada jti consumido
// durante la vida restante del token; un segundo consumo falla con
// ErrRefreshReplayed.
//
// La librería no posee storage propio, así que la política single-use
// solo se cumple si todos los procesos comparten el mismo backend de
// cache. Sin guard, un refresh token sigue válido hasta su expiración
// natural.
type ReplayGuard struct {
	c      cache.Client
	prefix string
}

// NewReplayGuard crea un guard sobre el cliente de cache dado.
func NewReplayGuard(c cache.Client) *ReplayGuard {
	return &ReplayGuard{c: c, prefix: "refresh:consumed"}
}

// Consume marca el jti como usado por ttl (la vida restante del token).
// ErrRefreshReplayed si ya estaba marcado.
func (g *ReplayGuard) Consume(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		// Token ya vencido: expiraría solo, no hace falta registrarlo.
		return nil
	}
	ok, err := g.c.SetNX(ctx, g.prefix+":"+jti, "1", ttl)
	if err != nil {
		return err
	}
	if !ok {
		return ErrRefreshReplayed
	}
	return nil
}

// Consumed indica si el jti ya fue usado.
func (g *ReplayGuard) Consumed(ctx context.Context, jti string) (bool, error) {
	return g.c.Exists(ctx, g.prefix+":"+jti)
}
