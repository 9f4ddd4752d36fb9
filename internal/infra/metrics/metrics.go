package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "store"

type Prometheus struct {
	webhooks     *prometheus.CounterVec
	reservations *prometheus.CounterVec
	transitions  *prometheus.CounterVec
	expired      prometheus.Counter
	jobs         *prometheus.CounterVec
}

// NewPrometheus registers the store collectors on reg. A fresh registry per
// app keeps tests from colliding on the global one.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	m := &Prometheus{
		webhooks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhooks_processed_total",
			Help:      "Payment callbacks by gateway and outcome.",
		}, []string{"gateway", "outcome"}),
		reservations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservation_attempts_total",
			Help:      "Stock reservation attempts by result.",
		}, []string{"result"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_transitions_total",
			Help:      "Order state machine transitions by event and result.",
		}, []string{"event", "result"}),
		expired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_expired_total",
			Help:      "Orders expired by the sweeper.",
		}),
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_finished_total",
			Help:      "Background job runs by kind and result.",
		}, []string{"kind", "result"}),
	}
	reg.MustRegister(m.webhooks, m.reservations, m.transitions, m.expired, m.jobs)
	return m
}

func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func (m *Prometheus) WebhookProcessed(gateway, outcome string) {
	m.webhooks.WithLabelValues(gateway, outcome).Inc()
}

func (m *Prometheus) ReservationAttempt(result string) {
	m.reservations.WithLabelValues(result).Inc()
}

func (m *Prometheus) Transition(event, result string) {
	m.transitions.WithLabelValues(event, result).Inc()
}

func (m *Prometheus) OrdersExpired(n int) {
	if n > 0 {
		m.expired.Add(float64(n))
	}
}

func (m *Prometheus) JobFinished(kind, result string) {
	m.jobs.WithLabelValues(kind, result).Inc()
}

type Nop struct{}

func (Nop) WebhookProcessed(string, string) {}
func (Nop) ReservationAttempt(string)       {}
func (Nop) Transition(string, string)       {}
func (Nop) OrdersExpired(int)               {}
func (Nop) JobFinished(string, string)      {}
