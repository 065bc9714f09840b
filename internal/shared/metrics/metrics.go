package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the gateway collectors on a private registry, so tests can
// build as many instances as they like.
type Metrics struct {
	registry *prometheus.Registry

	WebhookEvents      *prometheus.CounterVec
	AccessDenials      *prometheus.CounterVec
	BackendResolutions *prometheus.CounterVec
	ChatRequests       *prometheus.CounterVec
	ChatLatency        *prometheus.HistogramVec
	CacheLookups       *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		WebhookEvents: f.NewCounterVec(prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "Payment webhook deliveries by event type and outcome",
		}, []string{"event", "outcome"}),
		AccessDenials: f.NewCounterVec(prometheus.CounterOpts{
			Name: "access_denials_total",
			Help: "Model access denials by reason",
		}, []string{"reason"}),
		BackendResolutions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "backend_resolutions_total",
			Help: "Provider resolutions by selected provider and outcome",
		}, []string{"provider", "outcome"}),
		ChatRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "chat_requests_total",
			Help: "Chat completion requests by model and status",
		}, []string{"model", "status"}),
		ChatLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "chat_latency_seconds",
			Help:    "Chat completion latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cache_lookups_total",
			Help: "Cache lookups by cache name and result",
		}, []string{"cache", "result"}),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
