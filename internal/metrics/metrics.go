package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "investoriq"

// Collector - метрики кредитов, анализов, сверки платежей и HTTP.
// Все методы допускают nil-получатель: в тестах сервисы создаются без метрик.
type Collector struct {
	registry *prometheus.Registry

	creditsGranted prometheus.Counter
	creditsDebited prometheus.Counter
	analyses       *prometheus.CounterVec
	reconcile      *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
}

func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		creditsGranted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "credits_granted_total",
			Help:      "Report credits granted by reconciled payments.",
		}),
		creditsDebited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "credits_debited_total",
			Help:      "Report credits consumed by completed analyses.",
		}),
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Finished analysis runs by terminal status.",
		}, []string{"status"}),
		reconcile: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_total",
			Help:      "Payment reconciliation attempts by outcome.",
		}, []string{"outcome"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 30, 120},
		}, []string{"method", "route", "status"}),
	}

	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.creditsGranted,
		c.creditsDebited,
		c.analyses,
		c.reconcile,
		c.httpDuration,
	)
	return c
}

func (c *Collector) CreditsGranted(n int) {
	if c == nil {
		return
	}
	c.creditsGranted.Add(float64(n))
}

func (c *Collector) CreditDebited() {
	if c == nil {
		return
	}
	c.creditsDebited.Inc()
}

func (c *Collector) AnalysisFinished(status string) {
	if c == nil {
		return
	}
	c.analyses.WithLabelValues(status).Inc()
}

// Reconciled - outcome: credited, already_credited, lost_race, pending, provider_error
func (c *Collector) Reconciled(outcome string) {
	if c == nil {
		return
	}
	c.reconcile.WithLabelValues(outcome).Inc()
}

func (c *Collector) ObserveHTTP(method, route string, status int, d time.Duration) {
	if c == nil {
		return
	}
	c.httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

// Handler - /metrics
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
