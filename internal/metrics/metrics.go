package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the platform's Prometheus collectors
type Metrics struct {
	registry            *prometheus.Registry
	deploymentsStarted  prometheus.Counter
	deploymentsFinished *prometheus.CounterVec
	tenantDataOps       *prometheus.CounterVec
}

// New creates and registers the platform collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		deploymentsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "autodrop_deployments_started_total",
			Help: "Number of deployments accepted.",
		}),
		deploymentsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "autodrop_deployments_finished_total",
			Help: "Number of deployments reaching a terminal state.",
		}, []string{"outcome"}),
		tenantDataOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "autodrop_tenant_data_operations_total",
			Help: "Number of tenant data operations served.",
		}, []string{"operation"}),
	}

	m.registry.MustRegister(m.deploymentsStarted, m.deploymentsFinished, m.tenantDataOps)
	return m
}

// DeploymentStarted counts an accepted deployment
func (m *Metrics) DeploymentStarted() {
	m.deploymentsStarted.Inc()
}

// DeploymentFinished counts a terminal deployment outcome
func (m *Metrics) DeploymentFinished(success bool) {
	outcome := "failed"
	if success {
		outcome = "live"
	}
	m.deploymentsFinished.WithLabelValues(outcome).Inc()
}

// TenantDataOp counts one tenant data operation
func (m *Metrics) TenantDataOp(operation string) {
	m.tenantDataOps.WithLabelValues(operation).Inc()
}

// Handler exposes the collectors for scraping
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
