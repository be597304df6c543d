package inspect

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Transport labels.
const (
	TransportHTTP = "http"
	TransportFast = "fasthttp"
)

// Metrics counts negotiation outcomes. Each instance owns its registry.
type Metrics struct {
	reg          *prometheus.Registry
	negotiations *prometheus.CounterVec
}

// NewMetrics creates the collectors, registered alongside the Go runtime
// and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Metrics{
		reg: reg,
		negotiations: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "inspect",
			Name:      "negotiations_total",
			Help:      "Responses by transport and negotiated media type.",
		}, []string{"transport", "media_type"}),
	}
}

// Observe counts one negotiation. An empty media type stands for a request
// that no offered format could satisfy.
func (m *Metrics) Observe(transport, mediaType string) {
	if mediaType == "" {
		mediaType = "none"
	}
	m.negotiations.WithLabelValues(transport, mediaType).Inc()
}

// Handler exposes the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}
