package prometheus

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

type PrometheusAdapter struct {
	requests       *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	txRetries      *prometheus.CounterVec
	distanceKm     prometheus.Counter
	partsCascaded  prometheus.Counter
	ownershipMoves *prometheus.CounterVec
}

// NewPrometheusAdapter registers on the default registry.
func NewPrometheusAdapter() *PrometheusAdapter {
	return NewPrometheusAdapterWith(prometheus.DefaultRegisterer)
}

func NewPrometheusAdapterWith(reg prometheus.Registerer) *PrometheusAdapter {
	a := &PrometheusAdapter{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		txRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "garage_tx_retries_total",
			Help: "Transactions retried after a serialization conflict",
		}, []string{"op"}),
		distanceKm: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "garage_distance_logged_km_total",
			Help: "Kilometres logged against bikes",
		}),
		partsCascaded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "garage_part_distance_updates_total",
			Help: "Part kilometrage increments caused by distance logs",
		}),
		ownershipMoves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "garage_ownership_records_total",
			Help: "Ownership history records written",
		}, []string{"entity"}),
	}
	reg.MustRegister(a.requests, a.duration, a.txRetries, a.distanceKm, a.partsCascaded, a.ownershipMoves)
	return a
}

func (a *PrometheusAdapter) RecordMetrics(c *gin.Context, start time.Time) {
	path := c.FullPath()
	if path == "" {
		path = "unmatched"
	}
	a.requests.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
	a.duration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
}

func (a *PrometheusAdapter) TxRetried(op string) {
	a.txRetries.WithLabelValues(op).Inc()
}

func (a *PrometheusAdapter) DistanceLogged(km float64, partsUpdated int) {
	a.distanceKm.Add(km)
	a.partsCascaded.Add(float64(partsUpdated))
}

func (a *PrometheusAdapter) OwnershipTransferred(entity string, count int) {
	a.ownershipMoves.WithLabelValues(entity).Add(float64(count))
}
