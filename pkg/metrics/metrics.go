package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
)

type Metrics struct {
	counters   map[string]*prometheus.CounterVec
	histograms map[string]*prometheus.HistogramVec
	gauges     map[string]*prometheus.GaugeVec
}

func New() *Metrics {
	m := &Metrics{
		counters:   make(map[string]*prometheus.CounterVec),
		histograms: make(map[string]*prometheus.HistogramVec),
		gauges:     make(map[string]*prometheus.GaugeVec),
	}

	// Initialize common metrics
	m.counters["weather_requests_total"] = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weather_requests_total",
			Help: "Total number of weather provider requests",
		},
		[]string{"api", "status"},
	)

	m.counters["forecast_fallback_total"] = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forecast_fallback_total",
			Help: "Times the synthesized forecast substituted for provider data",
		},
		[]string{},
	)

	m.counters["registry_mutations_total"] = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registry_mutations_total",
			Help: "Total number of saved-location registry writes",
		},
		[]string{"op"},
	)

	m.counters["api_errors_total"] = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_errors_total",
			Help: "Total number of API errors returned to clients",
		},
		[]string{"kind"},
	)

	m.histograms["weather_api_duration_seconds"] = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "weather_api_duration_seconds",
			Help:    "Duration of weather provider requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"api"},
	)

	m.histograms["http_handler_duration_seconds"] = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_handler_duration_seconds",
			Help:    "Duration of HTTP handler execution",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	m.gauges["saved_locations"] = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "saved_locations",
			Help: "Number of entries in the saved-location registry",
		},
		[]string{},
	)

	m.gauges["cache_hit_rate"] = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cache_hit_rate",
			Help: "Cache hit rate percentage",
		},
		[]string{"cache_type"},
	)

	// Register all metrics; on re-registration (tests construct multiple
	// instances) adopt the collector that is already registered so every
	// instance observes into the same series.
	for name, counter := range m.counters {
		if err := prometheus.Register(counter); err != nil {
			are, ok := err.(prometheus.AlreadyRegisteredError)
			if !ok {
				panic(err)
			}
			m.counters[name] = are.ExistingCollector.(*prometheus.CounterVec)
		}
	}
	for name, histogram := range m.histograms {
		if err := prometheus.Register(histogram); err != nil {
			are, ok := err.(prometheus.AlreadyRegisteredError)
			if !ok {
				panic(err)
			}
			m.histograms[name] = are.ExistingCollector.(*prometheus.HistogramVec)
		}
	}
	for name, gauge := range m.gauges {
		if err := prometheus.Register(gauge); err != nil {
			are, ok := err.(prometheus.AlreadyRegisteredError)
			if !ok {
				panic(err)
			}
			m.gauges[name] = are.ExistingCollector.(*prometheus.GaugeVec)
		}
	}

	return m
}

func (m *Metrics) IncrementCounter(name string, labelValues ...string) {
	if counter, exists := m.counters[name]; exists {
		counter.WithLabelValues(labelValues...).Inc()
	}
}

func (m *Metrics) ObserveHistogram(name string, value float64, labelValues ...string) {
	if histogram, exists := m.histograms[name]; exists {
		histogram.WithLabelValues(labelValues...).Observe(value)
	}
}

func (m *Metrics) SetGauge(name string, value float64, labelValues ...string) {
	if gauge, exists := m.gauges[name]; exists {
		gauge.WithLabelValues(labelValues...).Set(value)
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.Handler()
}

// CounterValue reads the current value of a counter with the given label
// values. Returns 0 for unknown metrics.
func (m *Metrics) CounterValue(name string, labelValues ...string) float64 {
	counter, exists := m.counters[name]
	if !exists {
		return 0
	}

	metric := &dto.Metric{}
	if err := counter.WithLabelValues(labelValues...).Write(metric); err != nil {
		return 0
	}
	if metric.Counter == nil {
		return 0
	}
	return metric.Counter.GetValue()
}
