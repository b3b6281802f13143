package httpserver

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"net/http"
	"regexp"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	_meterName    = "sensor-dashboard/internal/infra/httpserver"
	_metricPrefix = "sensor_dashboard"
)

var (
	ErrHijackNotSupported = errors.New("underlying ResponseWriter does not support hijacking")

	// Path segments that would explode endpoint cardinality.
	uuidRegex    = regexp.MustCompile(`[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`)
	numericRegex = regexp.MustCompile(`/[0-9]+(/|$)`)
)

type httpMetrics struct {
	duration     metric.Float64Histogram
	responseSize metric.Int64Histogram
	total        metric.Int64Counter
	active       metric.Int64UpDownCounter
}

func newHTTPMetrics(meter metric.Meter) (*httpMetrics, error) {
	var (
		m   httpMetrics
		err error
	)

	m.duration, err = meter.Float64Histogram(
		_metricPrefix+".http.request.duration.seconds",
		metric.WithDescription("Duration of HTTP requests; websocket sessions end at the upgrade"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10),
	)
	if err != nil {
		return nil, fmt.Errorf("request duration histogram: %w", err)
	}

	m.responseSize, err = meter.Int64Histogram(
		_metricPrefix+".http.response.size.bytes",
		metric.WithDescription("Size of HTTP response bodies"),
		metric.WithUnit("By"),
		metric.WithExplicitBucketBoundaries(64, 256, 1024, 4096, 16384, 65536),
	)
	if err != nil {
		return nil, fmt.Errorf("response size histogram: %w", err)
	}

	m.total, err = meter.Int64Counter(
		_metricPrefix+".http.requests.total",
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return nil, fmt.Errorf("request counter: %w", err)
	}

	m.active, err = meter.Int64UpDownCounter(
		_metricPrefix+".http.requests.active",
		metric.WithDescription("Number of HTTP requests currently being processed"),
	)
	if err != nil {
		return nil, fmt.Errorf("active request counter: %w", err)
	}

	return &m, nil
}

// MetricsMiddleware measures every request against the global meter provider.
// It panics if the instruments cannot be created.
func MetricsMiddleware() func(http.Handler) http.Handler {
	m, err := newHTTPMetrics(otel.GetMeterProvider().Meter(_meterName))
	if err != nil {
		panic(err)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ctx := r.Context()
			endpoint := normalizeEndpoint(r.URL.Path)

			routeAttrs := metric.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.endpoint", endpoint),
			)
			m.active.Add(ctx, 1, routeAttrs)
			defer m.active.Add(ctx, -1, routeAttrs)

			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			attrs := metric.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.endpoint", endpoint),
				attribute.Int("http.status_code", wrapped.statusCode),
			)
			m.duration.Record(ctx, time.Since(start).Seconds(), attrs)
			m.total.Add(ctx, 1, attrs)
			if !wrapped.hijacked {
				m.responseSize.Record(ctx, wrapped.written, attrs)
			}
		})
	}
}

// responseWriter records what the handler sent. A hijacked connection is
// reported as 101 Switching Protocols.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    int64
	hijacked   bool
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, ErrHijackNotSupported
	}

	conn, buf, err := hijacker.Hijack()
	if err == nil {
		rw.hijacked = true
		rw.statusCode = http.StatusSwitchingProtocols
	}
	return conn, buf, err
}

func normalizeEndpoint(path string) string {
	if path == "" || path == "/" {
		return "root"
	}

	normalized := uuidRegex.ReplaceAllString(path, "_id")
	return numericRegex.ReplaceAllString(normalized, "/_n$1")
}
