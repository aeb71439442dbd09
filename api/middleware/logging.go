package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/cogsdesk-backend/pkg/logger"
)

// Logging writes one http.request line per request once the handler returns.
// Health probes are logged at debug so they do not drown the access log.
func Logging(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := newRecorder(w, false)

			next.ServeHTTP(rec, r)

			fields := map[string]any{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      rec.Status(),
				"bytes":       rec.written,
				"duration_ms": time.Since(start).Milliseconds(),
			}
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					fields["route"] = pattern
				}
			}
			ctx := logg.WithFields(r.Context(), fields)

			switch {
			case strings.HasPrefix(r.URL.Path, "/health/"):
				logg.Debug(ctx, "http.request")
			case rec.Status() >= http.StatusInternalServerError:
				logg.Warn(ctx, "http.request")
			default:
				logg.Info(ctx, "http.request")
			}
		})
	}
}
