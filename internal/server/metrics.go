package server

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/haowjy/tableau-toolbox-go"
	"github.com/haowjy/tableau-toolbox-go/prompt"
)

// Tool labels for generations that are not prompt tool kinds.
const (
	toolColumnMeaning = "column_meaning"
	toolRelations     = "relations"

	unknownLabel = "unknown"
)

// Metrics holds the service collectors on a dedicated registry.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec
	generationsTotal           *prometheus.CounterVec
	generationDurationSeconds  *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "toolbox_http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "toolbox_http_request_duration_seconds",
				Help:    "HTTP request latency by route.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		generationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "toolbox_generations_total",
				Help: "Provider generations by tool and outcome.",
			},
			[]string{"provider", "tool", "outcome"},
		),
		generationDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "toolbox_generation_duration_seconds",
				Help:    "End-to-end generation latency by provider.",
				Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
			},
			[]string{"provider"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDurationSeconds,
		m.generationsTotal,
		m.generationDurationSeconds,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}

// Middleware records request counts and latency per matched route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.httpRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpRequestDurationSeconds.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// ObserveGeneration records one generation attempt. Provider and tool names
// come from the client, so they are folded onto the known label values.
func (m *Metrics) ObserveGeneration(provider, tool string, elapsed time.Duration, err error) {
	provider = providerLabel(provider)
	m.generationsTotal.WithLabelValues(provider, toolLabel(tool), outcome(err)).Inc()
	m.generationDurationSeconds.WithLabelValues(provider).Observe(elapsed.Seconds())
}

func providerLabel(name string) string {
	id, err := llmprovider.ParseProviderID(name)
	if err != nil {
		return unknownLabel
	}
	return id.String()
}

func toolLabel(name string) string {
	switch name {
	case toolColumnMeaning, toolRelations:
		return name
	}
	kind, err := prompt.ParseToolKind(name)
	if err != nil {
		return unknownLabel
	}
	return kind.String()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case llmprovider.IsConfigurationError(err):
		return "configuration_error"
	case llmprovider.IsNetworkError(err):
		return "network_error"
	case llmprovider.IsProviderError(err):
		return "provider_error"
	case llmprovider.IsInvalidRequest(err):
		return "invalid_input"
	default:
		return "error"
	}
}
