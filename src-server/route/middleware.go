package route

import (
	"daygrid/src-server/utils"
	"log/slog"
	"net/http"
	"time"
)

// WithMetrics times the wrapped handler and feeds the http latency gauge.
func WithMetrics(as *utils.AppState, next func(http.ResponseWriter, *http.Request)) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		startTimer := time.Now()
		next(w, r)
		latency := time.Since(startTimer)
		slog.Debug("http request", "method", r.Method, "path", r.URL.Path, "latency", latency)
		as.MetricChans.HttpRequest <- float64(latency.Microseconds())
	}
}
