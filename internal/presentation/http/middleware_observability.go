package httppresentation

import (
	"strconv"
	"time"

	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability/logctx"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

const (
	headerRequestID = "X-Request-ID"
	routeUnmatched  = "unmatched"
)

// ObservabilityMiddleware combines:
// - X-Request-ID generation + echo
// - request-scoped logger injection (dynamic fields only)
// - HTTP metrics (counter + histogram) labelled by the route template
// - one access log line per request
//
// It must run after otelgin so the server span is already on the request context.
func ObservabilityMiddleware(base observability.Logger, tel observability.Observability) gin.HandlerFunc {
	if tel == nil {
		tel = observability.Nop()
	}
	if base == nil {
		base = tel.Logger()
	}
	requests := tel.Metrics().Counter(observability.MHTTPRequests)
	duration := tel.Metrics().Histogram(observability.MHTTPRequestDuration)

	return func(c *gin.Context) {
		start := time.Now()

		rid := c.GetHeader(headerRequestID)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Header(headerRequestID, rid)

		fields := []observability.Field{observability.F("request_id", rid)}
		ctx := c.Request.Context()
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			fields = append(fields,
				observability.F("trace_id", sc.TraceID().String()),
				observability.F("span_id", sc.SpanID().String()),
			)
		}
		reqLogger := base.With(fields...)
		c.Request = c.Request.WithContext(logctx.With(ctx, reqLogger))

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = routeUnmatched
		}
		status := strconv.Itoa(c.Writer.Status())
		lat := time.Since(start)

		requests.Add(1,
			observability.L("method", c.Request.Method),
			observability.L("route", route),
			observability.L("status", status),
		)
		duration.Observe(lat.Seconds(),
			observability.L("method", c.Request.Method),
			observability.L("route", route),
			observability.L("status", status),
		)

		accessFields := []observability.Field{
			observability.F("method", c.Request.Method),
			observability.F("route", route),
			observability.F("path", c.Request.URL.Path),
			observability.F("status", c.Writer.Status()),
			observability.F("latency_ms", lat.Milliseconds()),
		}
		if uid, ok := c.Get(ctxUserID); ok {
			accessFields = append(accessFields, observability.F("user_id", uid))
		}
		if len(c.Errors) > 0 {
			accessFields = append(accessFields, observability.F("error", c.Errors.Last().Error()))
		}
		reqLogger.Info("http_access", accessFields...)
	}
}
