// Package middleware holds the HTTP middleware chain applied by the router.
package middleware

import (
	"log/slog"
	"net/http"

	"github.com/taskshare/task-api/internal/api/shared"
	"github.com/taskshare/task-api/internal/platform/logger"
)

// TraceMiddleware stamps every request with a trace ID and puts a
// trace-scoped logger in the context so downstream layers log with it.
// Apply it first so all later middleware and handlers see the trace ID.
func TraceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := shared.SetTraceID(r.Context())
		traceID := shared.GetTraceID(ctx)

		log := slog.With(slog.String("trace_id", traceID))
		ctx = logger.WithLogger(ctx, log)

		log.Debug("request started",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("remote_addr", r.RemoteAddr))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
