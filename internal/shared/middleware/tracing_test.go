package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

var (
	spansOnce sync.Once
	spans     *tracetest.SpanRecorder
)

// recordSpans installs a global recorder once; the package tracer delegates
// to whichever provider is set first.
func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	spansOnce.Do(func() {
		spans = tracetest.NewSpanRecorder()
		otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans)))
	})
	return spans
}

func lastSpan(t *testing.T, rec *tracetest.SpanRecorder) sdktrace.ReadOnlySpan {
	t.Helper()
	ended := rec.Ended()
	require.NotEmpty(t, ended)
	return ended[len(ended)-1]
}

func attr(s sdktrace.ReadOnlySpan, key attribute.Key) attribute.Value {
	for _, kv := range s.Attributes() {
		if kv.Key == key {
			return kv.Value
		}
	}
	return attribute.Value{}
}

func TestTracing_NamesSpanByRoutePattern(t *testing.T) {
	rec := recordSpans(t)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/bills/{id}/pay", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})
	h := Tracing(mux)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/bills/bill-991/pay", nil))

	span := lastSpan(t, rec)
	assert.Equal(t, "POST /api/bills/{id}/pay", span.Name())
	assert.Equal(t, "POST /api/bills/{id}/pay", attr(span, "http.route").AsString())
	assert.Equal(t, int64(http.StatusCreated), attr(span, "http.response.status_code").AsInt64())
	assert.Equal(t, codes.Unset, span.Status().Code)
}

func TestTracing_UnmatchedAndServerErrors(t *testing.T) {
	rec := recordSpans(t)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /boom", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	h := Tracing(mux)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/nowhere/123", nil))
	assert.Equal(t, unmatchedRoute, lastSpan(t, rec).Name())

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))
	span := lastSpan(t, rec)
	assert.Equal(t, "GET /boom", span.Name())
	assert.Equal(t, codes.Error, span.Status().Code)
}
