package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// Trace starts a server span per request, continuing any W3C trace context
// sent by the caller. The span is named after the matched chi route.
func Trace(tracer trace.Tracer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skipTracing(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

			// the route pattern is only known once chi has routed the request
			ctx, span := tracer.Start(ctx, r.Method, trace.WithAttributes(
				semconv.HTTPRequestMethodKey.String(r.Method),
				semconv.URLPath(r.URL.Path),
				semconv.UserAgentOriginal(r.UserAgent()),
			), trace.WithSpanKind(trace.SpanKindServer))
			defer span.End()

			next.ServeHTTP(ww, r.WithContext(ctx))

			if rctx := chi.RouteContext(ctx); rctx != nil {
				if route := rctx.RoutePattern(); route != "" {
					span.SetName(fmt.Sprintf("%s %s", r.Method, route))
					span.SetAttributes(semconv.HTTPRoute(route))
				}
			}

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			span.SetAttributes(semconv.HTTPResponseStatusCode(status))
			// client errors do not mark a server span as failed
			if status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(status))
			}
		})
	}
}

var skipPaths = map[string]struct{}{
	"/metrics": {},
	"/healthz": {},
}

func skipTracing(path string) bool {
	if _, ok := skipPaths[path]; ok {
		return true
	}
	return strings.HasPrefix(path, "/docs")
}
