package middleware

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Telemetry adds otelhttp server instrumentation: incoming trace context is
// extracted and the standard http.server metrics are recorded. Health
// probes are skipped.
func Telemetry(service string) func(http.Handler) http.Handler {
	return otelhttp.NewMiddleware(service,
		otelhttp.WithFilter(func(r *http.Request) bool { return r.URL.Path != "/health" }),
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string { return "http " + r.Method }),
	)
}
