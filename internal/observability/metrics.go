package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	PipelineRuns = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ads_pipeline_runs_total",
		Help: "Completed pipeline runs",
	})
	RunDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "ads_pipeline_run_duration_seconds",
		Help:    "End-to-end pipeline run duration",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800, 3600},
	})
	ClientRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ads_pipeline_clients_total",
			Help: "Per-client run outcomes",
		}, []string{"status"},
	)
	RowsExtracted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ads_rows_extracted_total",
			Help: "Rows extracted by dataset",
		}, []string{"dataset"},
	)
	MediaStored = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ads_media_stored_total",
			Help: "Creative assets stored by kind",
		}, []string{"kind"},
	)
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ads_http_requests_total",
			Help: "HTTP requests by status code",
		}, []string{"code"},
	)
	Latency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "ads_http_request_duration_seconds",
		Help:    "HTTP request latency seconds",
		Buckets: prometheus.DefBuckets,
	})
	InFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ads_http_in_flight",
		Help: "In-flight HTTP requests",
	})
)

func init() {
	prometheus.MustRegister(
		PipelineRuns, RunDuration, ClientRuns, RowsExtracted, MediaStored,
		RequestsTotal, Latency, InFlight,
	)
}

func MetricsHandler() http.Handler { return promhttp.Handler() }

type rec struct {
	http.ResponseWriter
	code int
}

func (r *rec) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

// Measure wraps a handler with request counting, latency and in-flight
// tracking.
func Measure(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		InFlight.Inc()
		defer InFlight.Dec()

		rr := &rec{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rr, r)

		Latency.Observe(time.Since(start).Seconds())
		RequestsTotal.WithLabelValues(strconv.Itoa(rr.code)).Inc()
	})
}
