package middleware

import (
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/zatekoja/ticketassistant/internal/infrastructure/observability"
)

const unmatchedRoute = "unmatched"

// ObservabilityMiddleware traces each request and records request metrics
// labelled by route template, so user and event IDs never become labels.
func ObservabilityMiddleware(metrics *observability.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route := RouteLabel(r)
			ctx, span := observability.StartSpan(r.Context(), r.Method+" "+route)
			defer span.End()

			observability.SetSpanAttributes(span,
				attribute.String("http.method", r.Method),
				attribute.String("http.route", route),
				attribute.String("http.user_agent", r.UserAgent()),
			)

			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(rw, r.WithContext(ctx))

			observability.RecordRequestMetric(ctx, metrics, r.Method, route, rw.statusCode, time.Since(start))
			observability.SetSpanAttributes(span, attribute.Int("http.status_code", rw.statusCode))
		})
	}
}

// RouteLabel returns the route template a request maps to, such as
// "/api/users/{userId}/favorites/{eventId}". Paths outside the API surface
// share one label.
func RouteLabel(r *http.Request) string {
	if r.Pattern != "" {
		if _, path, ok := strings.Cut(r.Pattern, " "); ok {
			return path
		}
		return r.Pattern
	}
	return routeTemplate(r.URL.Path)
}

func routeTemplate(path string) string {
	segs := strings.Split(strings.Trim(path, "/"), "/")
	switch {
	case len(segs) == 1 && segs[0] == "health":
		return "/health"
	case len(segs) == 3 && segs[0] == "api" && segs[1] == "conversations" && segs[2] == "messages":
		return "/api/conversations/messages"
	case len(segs) == 4 && segs[0] == "api" && segs[1] == "conversations" && segs[3] == "session":
		return "/api/conversations/{userId}/session"
	case len(segs) == 4 && segs[0] == "api" && segs[1] == "users" && segs[3] == "favorites":
		return "/api/users/{userId}/favorites"
	case len(segs) == 5 && segs[0] == "api" && segs[1] == "users" && segs[3] == "favorites":
		return "/api/users/{userId}/favorites/{eventId}"
	case len(segs) == 3 && segs[0] == "api" && segs[1] == "analytics" && segs[2] == "zero-results":
		return "/api/analytics/zero-results"
	}
	return unmatchedRoute
}

// responseWriter captures the status code for metrics.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	rw.statusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}
