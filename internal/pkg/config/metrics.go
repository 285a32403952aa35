package config

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ConfigMetrics exposes the health of a component's configuration load.
type ConfigMetrics struct {
	// LoadTimestamp is the Unix time of the last load.
	LoadTimestamp prometheus.Gauge

	// FallbacksTotal counts fallbacks to defaults, by field.
	FallbacksTotal *prometheus.CounterVec

	// FallbackActive is 1 for each field currently running on its default
	// because the configured value was invalid.
	FallbackActive *prometheus.GaugeVec
}

// NewConfigMetrics registers the configuration metrics of component with reg.
// Metric names are prefixed with the component name, e.g.
// "worker_config_fallbacks_total".
func NewConfigMetrics(reg prometheus.Registerer, component string) *ConfigMetrics {
	factory := promauto.With(reg)

	return &ConfigMetrics{
		LoadTimestamp: factory.NewGauge(prometheus.GaugeOpts{
			Name: fmt.Sprintf("%s_config_load_timestamp", component),
			Help: fmt.Sprintf("Unix timestamp of last %s configuration load", component),
		}),
		FallbacksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_config_fallbacks_total", component),
			Help: fmt.Sprintf("Total number of %s configuration fallbacks to defaults", component),
		}, []string{"field"}),
		FallbackActive: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: fmt.Sprintf("%s_config_fallback_active", component),
			Help: fmt.Sprintf("1 if the %s configuration field runs on its default after an invalid value", component),
		}, []string{"field"}),
	}
}

// RecordLoadTimestamp sets the load timestamp to now.
func (m *ConfigMetrics) RecordLoadTimestamp() {
	m.LoadTimestamp.SetToCurrentTime()
}

// RecordFallback records the outcome of loading field.
func (m *ConfigMetrics) RecordFallback(field string, applied bool) {
	if applied {
		m.FallbacksTotal.WithLabelValues(field).Inc()
		m.FallbackActive.WithLabelValues(field).Set(1)
		return
	}
	m.FallbackActive.WithLabelValues(field).Set(0)
}
