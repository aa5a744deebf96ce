package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry wraps a dedicated Prometheus registry with the collectors the
// scraper's request pipeline updates: request/retry counters split by
// outcome, proxy-pool health gauges, and a rate-limiter wait histogram.
// It exists alongside Metrics (the atomic hot-path counters) rather than
// replacing it — Metrics is read on every request with no allocation,
// while Registry is scraped occasionally over HTTP.
type Registry struct {
	reg *prometheus.Registry

	RequestsTotal  *prometheus.CounterVec
	RetriesTotal   prometheus.Counter
	RateLimitWait  prometheus.Histogram
	ProxiesHealthy prometheus.Gauge
	ProxiesTotal   prometheus.Gauge
}

// NewRegistry builds a Registry with every collector registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		reg: reg,
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stealthscraper",
			Name:      "requests_total",
			Help:      "Total requests dispatched, labeled by outcome.",
		}, []string{"outcome"}),
		RetriesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stealthscraper",
			Name:      "retries_total",
			Help:      "Total retry attempts issued by the retry engine.",
		}),
		RateLimitWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "stealthscraper",
			Name:      "rate_limit_wait_seconds",
			Help:      "Time spent blocked acquiring a rate-limit token.",
			Buckets:   prometheus.DefBuckets,
		}),
		ProxiesHealthy: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "stealthscraper",
			Name:      "proxies_healthy",
			Help:      "Number of proxies currently enabled in the pool.",
		}),
		ProxiesTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "stealthscraper",
			Name:      "proxies_total",
			Help:      "Total number of proxies configured in the pool.",
		}),
	}

	reg.MustRegister(r.RequestsTotal, r.RetriesTotal, r.RateLimitWait, r.ProxiesHealthy, r.ProxiesTotal)
	return r
}

// Handler returns the http.Handler that exposes this registry's metrics in
// the Prometheus text exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// ObserveRequest records one completed request's outcome ("success" or
// "failure").
func (r *Registry) ObserveRequest(outcome string) {
	r.RequestsTotal.WithLabelValues(outcome).Inc()
}

// ObserveRetry records one retry attempt.
func (r *Registry) ObserveRetry() {
	r.RetriesTotal.Inc()
}

// ObserveProxyPoolStats updates the proxy-pool gauges from a point-in-time
// snapshot.
func (r *Registry) ObserveProxyPoolStats(healthy, total int) {
	r.ProxiesHealthy.Set(float64(healthy))
	r.ProxiesTotal.Set(float64(total))
}
