package recovery

import (
	"net/http"
	"runtime/debug"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"

	"github.com/glglak/elastic-personalization-poc/internal/api/respond"
)

var panicsTotal = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "personalization",
	Subsystem: "http",
	Name:      "panics_total",
	Help:      "Handler panics recovered by the middleware.",
})

// Middleware intercepts panics from downstream handlers, logs details, and returns HTTP 500.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				panicsTotal.Inc()
				log.Error().
					Interface("panic", rec).
					Str("method", r.Method).
					Str("url", r.URL.String()).
					Str("remote", r.RemoteAddr).
					Bytes("stack", debug.Stack()).
					Msg("panic recovered")

				respond.WriteInternalError(w, "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
