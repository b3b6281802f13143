package httpserver

import (
	"net/http"

	"go.opentelemetry.io/otel/trace"
)

type Controller interface {
	AddRoutes(*http.ServeMux)
}

// GetSpanFromContext returns the request span, or a no-op span when the
// request was not traced.
func GetSpanFromContext(r *http.Request) trace.Span {
	return trace.SpanFromContext(r.Context())
}
