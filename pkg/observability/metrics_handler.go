package observability

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReadinessCheck reports whether one dependency is usable.
type ReadinessCheck func(ctx context.Context) error

// MetricsHandler serves Prometheus metrics and health probes.
type MetricsHandler struct {
	service  string
	gatherer prometheus.Gatherer
	checks   map[string]ReadinessCheck
	timeout  time.Duration
}

// NewMetricsHandler creates a handler over the default registry, which is
// where the promauto collectors in pkg/metrics live.
func NewMetricsHandler(service string) *MetricsHandler {
	return &MetricsHandler{
		service:  service,
		gatherer: prometheus.DefaultGatherer,
		checks:   make(map[string]ReadinessCheck),
		timeout:  2 * time.Second,
	}
}

// AddReadinessCheck registers a dependency probe for /ready.
func (h *MetricsHandler) AddReadinessCheck(name string, check ReadinessCheck) {
	if check == nil {
		return
	}
	h.checks[name] = check
}

// MetricsEndpoint returns the Prometheus metrics handler
func (h *MetricsHandler) MetricsEndpoint() gin.HandlerFunc {
	handler := promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})

	return func(c *gin.Context) {
		handler.ServeHTTP(c.Writer, c.Request)
	}
}

// HealthEndpoint provides a basic health check
func (h *MetricsHandler) HealthEndpoint() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"service":   h.service,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// ReadinessEndpoint runs every registered dependency probe.
func (h *MetricsHandler) ReadinessEndpoint() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
		defer cancel()

		status := http.StatusOK
		results := gin.H{}
		for name, check := range h.checks {
			if err := check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				results[name] = err.Error()
				continue
			}
			results[name] = "ok"
		}

		state := "ready"
		if status != http.StatusOK {
			state = "not_ready"
		}

		c.JSON(status, gin.H{
			"status":       state,
			"dependencies": results,
		})
	}
}

// LivenessEndpoint provides liveness check
func (h *MetricsHandler) LivenessEndpoint() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "alive",
		})
	}
}

// NewRouter builds the ops router with the probe and metrics routes.
func NewRouter(h *MetricsHandler) *gin.Engine {
	router := gin.New()
	router.Use(ObservabilityMiddleware())
	router.Use(gin.Recovery())

	router.GET("/metrics", h.MetricsEndpoint())
	router.GET("/health", h.HealthEndpoint())
	router.GET("/ready", h.ReadinessEndpoint())
	router.GET("/live", h.LivenessEndpoint())

	return router
}
