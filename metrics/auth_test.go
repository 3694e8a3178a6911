package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/gravity-platform/gravity-common/metrics"
)

func TestRegisterIsIdempotent(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := metrics.Register(reg); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := metrics.Register(reg); err != nil {
		t.Fatalf("second register: %v", err)
	}
}
