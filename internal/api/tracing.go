package api

import (
	"net/http"

	"github.com/signalsfoundry/topology-engine/internal/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/signalsfoundry/topology-engine/internal/api"

// traceRoute wraps a handler in a server span named after the route,
// tagged with the standard request attributes and the request id.
func traceRoute(name string, next http.Handler) http.Handler {
	tracer := otel.Tracer(tracerName)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "API/"+name, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		attrs := []attribute.KeyValue{
			attribute.String("http.route", name),
			attribute.String("http.method", r.Method),
			attribute.String("http.target", r.URL.Path),
		}
		if reqID := logging.RequestIDFromContext(ctx); reqID != "" {
			attrs = append(attrs, attribute.String("request_id", reqID))
		}
		span.SetAttributes(attrs...)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
