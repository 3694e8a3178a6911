package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Métricas Prometheus del subsistema de seguridad. Viven en un paquete
// propio para que security/token y security/password no dependan del
// registry de cada servicio consumidor.

var (
	TokensIssued = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gravity_tokens_issued_total",
		Help: "Tokens emitidos, por tipo (access|refresh)",
	}, []string{"type"})

	TokenVerifyFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gravity_token_verify_failures_total",
		Help: "Fallos de verificación de tokens, por motivo",
	}, []string{"reason"})

	PasswordHashDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "gravity_password_hash_duration_ms",
		Help:    "Duración del hashing de passwords en milisegundos",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})
)

// Register registra los collectors en el registry dado (default si es nil).
// Tolera AlreadyRegisteredError para poder llamarse desde varios puntos.
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{TokensIssued, TokenVerifyFailures, PasswordHashDuration} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}
