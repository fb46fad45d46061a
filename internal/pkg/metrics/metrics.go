package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "questline",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "questline",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	// Quest progression metrics
	LocationReports = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "questline",
		Subsystem: "quest",
		Name:      "location_reports_total",
		Help:      "Total location reports by outcome kind",
	}, []string{"outcome"})

	WaypointsCredited = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "questline",
		Subsystem: "quest",
		Name:      "waypoints_credited_total",
		Help:      "Total waypoints credited across all users",
	})

	PointsAwarded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "questline",
		Subsystem: "quest",
		Name:      "points_awarded_total",
		Help:      "Total reward points awarded",
	})

	RoutesAssigned = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "questline",
		Subsystem: "quest",
		Name:      "routes_assigned_total",
		Help:      "Total routes assigned to users",
	})

	StepConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "questline",
		Subsystem: "quest",
		Name:      "step_conflicts_total",
		Help:      "Concurrent crediting attempts resolved by the CAS guard",
	})

	// Route generator metrics
	GeneratorRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "questline",
		Subsystem: "generator",
		Name:      "requests_total",
		Help:      "Total route generation requests by result",
	}, []string{"result"})

	GeneratorDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "questline",
		Subsystem: "generator",
		Name:      "request_duration_seconds",
		Help:      "Route generation latency in seconds",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
	})

	// Cache metrics
	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "questline",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"operation"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "questline",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"operation"})

	// Database pool metrics
	DBPoolConnsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "questline",
		Subsystem: "db",
		Name:      "pool_conns_open",
		Help:      "Total connections open in the database pool",
	})

	DBPoolConnsAcquired = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "questline",
		Subsystem: "db",
		Name:      "pool_conns_acquired",
		Help:      "Connections currently acquired from the database pool",
	})

	DBPoolConnsIdle = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "questline",
		Subsystem: "db",
		Name:      "pool_conns_idle",
		Help:      "Idle connections in the database pool",
	})
)

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)

		return err
	}
}

// Handler returns a Fiber handler serving the Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := promhttp.Handler()
	return func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(handler)(c.Context())
		return nil
	}
}

// UpdateDBPoolMetrics updates database pool gauges from pgx pool stats.
func UpdateDBPoolMetrics(stat interface{}) {
	type poolStat interface {
		AcquiredConns() int32
		IdleConns() int32
		TotalConns() int32
	}

	if s, ok := stat.(poolStat); ok {
		DBPoolConnsAcquired.Set(float64(s.AcquiredConns()))
		DBPoolConnsIdle.Set(float64(s.IdleConns()))
		DBPoolConnsOpen.Set(float64(s.TotalConns()))
	}
}
