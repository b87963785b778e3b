package restapi

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the Prometheus instruments recorded by the client.
type Metrics struct {
	Requests *prometheus.CounterVec
	Duration *prometheus.HistogramVec
}

// NewMetrics creates the client instruments and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "taskdesk",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "API requests by operation and HTTP status code.",
		}, []string{"op", "code"}),
		Duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "taskdesk",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "API request latency by operation.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"op"}),
	}
}

// RequestsMetric is the fully qualified name of Metrics.Requests.
const RequestsMetric = "taskdesk_api_requests_total"

// LogSummary writes one debug record per request counter series found in g.
func LogSummary(l *slog.Logger, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if mf.GetName() != RequestsMetric {
			continue
		}
		for _, m := range mf.GetMetric() {
			attrs := make([]any, 0, 2*len(m.GetLabel())+2)
			for _, lp := range m.GetLabel() {
				attrs = append(attrs, lp.GetName(), lp.GetValue())
			}
			attrs = append(attrs, "count", m.GetCounter().GetValue())
			l.Debug("api requests", attrs...)
		}
	}
	return nil
}
