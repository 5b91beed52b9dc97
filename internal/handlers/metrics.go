package handlers

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"merlin-playlist/internal/logging"
)

// scrapeLogger routes gatherer errors to the application log.
type scrapeLogger struct{}

func (scrapeLogger) Println(v ...interface{}) {
	logging.Warn("Metrics scrape: %s", fmt.Sprint(v...))
}

// MetricsHandler serves the default registry. A failing collector is logged
// and the scrape goes on with the remaining metrics.
func (h *Handlers) MetricsHandler() http.Handler {
	return promhttp.InstrumentMetricHandler(
		prometheus.DefaultRegisterer,
		promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{
			ErrorLog:          scrapeLogger{},
			ErrorHandling:     promhttp.ContinueOnError,
			EnableOpenMetrics: true,
		}),
	)
}
