package middleware

import (
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const unmatchedRoute = "unmatched"

var (
	tracer = otel.Tracer("bankdash/http")
	meter  = otel.Meter("bankdash/http")

	requestSeconds, _ = meter.Float64Histogram("bankdash.http.request.duration",
		metric.WithDescription("Time to serve an API request"),
		metric.WithUnit("s"),
	)
	requestErrors, _ = meter.Int64Counter("bankdash.http.request.errors",
		metric.WithDescription("API requests answered with a 4xx or 5xx status"),
	)
)

// Tracing opens a server span per request and records latency by route.
// The route is the ServeMux pattern that matched, so path parameters never
// end up in span names or metric labels.
func Tracing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx, span := tracer.Start(r.Context(), r.Method,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attribute.String("http.request.method", r.Method)),
		)
		defer span.End()

		rw := wrapResponseWriter(w)
		req := r.WithContext(ctx)
		next.ServeHTTP(rw, req)

		route := req.Pattern
		if route == "" {
			route = unmatchedRoute
		}
		status := rw.Status()

		span.SetName(route)
		span.SetAttributes(
			attribute.String("http.route", route),
			attribute.Int("http.response.status_code", status),
		)
		if id := w.Header().Get(RequestIDHeader); id != "" {
			span.SetAttributes(attribute.String("request.id", id))
		}
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}

		labels := metric.WithAttributes(
			attribute.String("http.route", route),
			attribute.Int("http.response.status_code", status),
		)
		requestSeconds.Record(ctx, time.Since(start).Seconds(), labels)
		if status >= http.StatusBadRequest {
			requestErrors.Add(ctx, 1, labels)
		}
	})
}
