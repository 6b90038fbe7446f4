package middleware

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	edgeRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relaygate_edge_requests_total",
			Help: "Requests seen at the HTTP edge by route and status class",
		},
		[]string{"method", "route", "class"},
	)

	edgeLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "relaygate_edge_request_duration_seconds",
			Help:    "Time spent serving a request at the HTTP edge",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 5},
		},
		[]string{"method", "route"},
	)

	edgeBodyBytes = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "relaygate_edge_request_body_bytes",
			Help:    "Request body size; batch submissions dominate the upper buckets",
			Buckets: prometheus.ExponentialBuckets(64, 4, 8),
		},
		[]string{"method"},
	)

	edgeAuthSchemes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relaygate_edge_auth_scheme_total",
			Help: "Authorization header schemes presented by clients",
		},
		[]string{"scheme"},
	)

	edgeInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "relaygate_edge_in_flight_requests",
			Help: "Requests currently being served",
		},
	)
)

// MetricsConfig configures the metrics middleware
type MetricsConfig struct {
	// Skip function
	Skip func(*fiber.Ctx) bool
	// PathNormalizer maps a request path to a bounded route label
	PathNormalizer func(string) string
}

// DefaultMetricsConfig returns default metrics config
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Skip:           HealthSkipper,
		PathNormalizer: DefaultPathNormalizer,
	}
}

// DefaultPathNormalizer replaces numeric path segments with ":id" so record
// ids do not explode label cardinality
func DefaultPathNormalizer(path string) string {
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		if seg == "" {
			continue
		}
		if _, err := strconv.ParseInt(seg, 10, 64); err == nil {
			segments[i] = ":id"
		}
	}
	return strings.Join(segments, "/")
}

// AuthScheme reports the scheme of an Authorization header value as a label:
// none, basic, bearer or other
func AuthScheme(header string) string {
	if header == "" {
		return "none"
	}
	scheme, _, _ := strings.Cut(header, " ")
	switch strings.ToLower(scheme) {
	case "basic":
		return "basic"
	case "bearer":
		return "bearer"
	}
	return "other"
}

// StatusClass collapses a status code to 2xx, 3xx, 4xx or 5xx
func StatusClass(status int) string {
	if status < 100 || status > 599 {
		return "unknown"
	}
	return strconv.Itoa(status/100) + "xx"
}

// MetricsMiddleware records edge metrics for every request
type MetricsMiddleware struct {
	config MetricsConfig
}

// NewMetricsMiddleware creates a new metrics middleware
func NewMetricsMiddleware(config MetricsConfig) *MetricsMiddleware {
	if config.PathNormalizer == nil {
		config.PathNormalizer = DefaultPathNormalizer
	}
	return &MetricsMiddleware{config: config}
}

// Handler returns the metrics handler
func (m *MetricsMiddleware) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if m.config.Skip != nil && m.config.Skip(c) {
			return c.Next()
		}

		start := time.Now()
		method := c.Method()
		route := m.config.PathNormalizer(c.Path())

		edgeInFlight.Inc()
		defer edgeInFlight.Dec()

		edgeAuthSchemes.WithLabelValues(AuthScheme(c.Get(fiber.HeaderAuthorization))).Inc()
		edgeBodyBytes.WithLabelValues(method).Observe(float64(len(c.Request().Body())))

		err := c.Next()

		edgeRequests.WithLabelValues(method, route, StatusClass(c.Response().StatusCode())).Inc()
		edgeLatency.WithLabelValues(method, route).Observe(time.Since(start).Seconds())

		return err
	}
}
