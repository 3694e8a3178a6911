package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthCheck una verificación nombrada (db, cache, etc.).
type HealthCheck func(ctx context.Context) error

// RouterOptions configuración del router base.
type RouterOptions struct {
	// Service nombre reportado por /healthz.
	Service string
	// Version reportada por /healthz.
	Version string
	// Checks verificaciones de dependencias para /healthz.
	Checks map[string]HealthCheck
	// Metrics monta /metrics (promhttp) si es true.
	Metrics bool
}

type healthStatus struct {
	Status  string            `json:"status"`
	Service string            `json:"service,omitempty"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// NewRouter arma el router base de un servicio: request id + logging y
// los endpoints operativos. Las rutas de negocio se montan encima.
func NewRouter(opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(RequestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), 5*time.Second)
		defer cancel()

		st := healthStatus{Status: "ok", Service: opts.Service, Version: opts.Version}
		code := http.StatusOK
		if len(opts.Checks) > 0 {
			st.Checks = make(map[string]string, len(opts.Checks))
			for name, check := range opts.Checks {
				if err := check(ctx); err != nil {
					st.Checks[name] = err.Error()
					st.Status = "degraded"
					code = http.StatusServiceUnavailable
				} else {
					st.Checks[name] = "ok"
				}
			}
		}
		OK(w, code, st, "")
	})

	if opts.Metrics {
		r.Handle("/metrics", promhttp.Handler())
	}
	return r
}
