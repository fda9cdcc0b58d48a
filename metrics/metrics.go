package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder receives counters from the web layer, the sync engine and the
// payroll client. A no-op implementation is used outside the server process.
type Recorder interface {
	IncRequestsTotal(endpoint string, status int)
	IncRemoteRequests(endpoint string, status int)
	IncEntriesSynced(count int)
	IncEntriesFailed(count int)
	IncTokenRefreshes()
}

type PrometheusRecorder struct {
	requestsTotal       *prometheus.CounterVec
	remoteRequestsTotal *prometheus.CounterVec
	entriesSynced       prometheus.Counter
	entriesFailed       prometheus.Counter
	tokenRefreshes      prometheus.Counter
}

// NewRecorder registers the hoursync collectors on the default registry.
// Call it once per process.
func NewRecorder() *PrometheusRecorder {
	return &PrometheusRecorder{
		requestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "hoursync_requests_total",
			Help: "Total number of inbound HTTP requests",
		}, []string{"endpoint", "status"}),
		remoteRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "hoursync_remote_requests_total",
			Help: "Total number of outbound payroll API requests",
		}, []string{"endpoint", "status"}),
		entriesSynced: promauto.NewCounter(prometheus.CounterOpts{
			Name: "hoursync_entries_synced_total",
			Help: "Total number of hour entries synced to the payroll draft",
		}),
		entriesFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "hoursync_entries_failed_total",
			Help: "Total number of hour entries that failed to sync",
		}),
		tokenRefreshes: promauto.NewCounter(prometheus.CounterOpts{
			Name: "hoursync_token_refreshes_total",
			Help: "Total number of payroll API token exchanges",
		}),
	}
}

func (r *PrometheusRecorder) IncRequestsTotal(endpoint string, status int) {
	r.requestsTotal.WithLabelValues(endpoint, httpStatusBucket(status)).Inc()
}

func (r *PrometheusRecorder) IncRemoteRequests(endpoint string, status int) {
	r.remoteRequestsTotal.WithLabelValues(endpoint, httpStatusBucket(status)).Inc()
}

func (r *PrometheusRecorder) IncEntriesSynced(count int) {
	r.entriesSynced.Add(float64(count))
}

func (r *PrometheusRecorder) IncEntriesFailed(count int) {
	r.entriesFailed.Add(float64(count))
}

func (r *PrometheusRecorder) IncTokenRefreshes() {
	r.tokenRefreshes.Inc()
}

func httpStatusBucket(code int) string {
	switch {
	case code <= 0:
		return "transport"
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

type Noop struct{}

func (Noop) IncRequestsTotal(string, int) {}
func (Noop) IncRemoteRequests(string, int) {}
func (Noop) IncEntriesSynced(int) {}
func (Noop) IncEntriesFailed(int) {}
func (Noop) IncTokenRefreshes() {}
