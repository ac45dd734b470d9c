package prometheus

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestEngineCounters(t *testing.T) {
	a := NewPrometheusAdapterWith(prometheus.NewRegistry())

	a.TxRetried("transfer.bike")
	a.TxRetried("transfer.bike")
	a.DistanceLogged(12.5, 3)
	a.OwnershipTransferred("bike", 2)

	assert.Equal(t, 2.0, testutil.ToFloat64(a.txRetries.WithLabelValues("transfer.bike")))
	assert.Equal(t, 12.5, testutil.ToFloat64(a.distanceKm))
	assert.Equal(t, 3.0, testutil.ToFloat64(a.partsCascaded))
	assert.Equal(t, 2.0, testutil.ToFloat64(a.ownershipMoves.WithLabelValues("bike")))
}

func TestRecordMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	a := NewPrometheusAdapterWith(prometheus.NewRegistry())

	r := gin.New()
	r.GET("/bikes/:id", func(c *gin.Context) {
		defer a.RecordMetrics(c, time.Now())
		c.Status(http.StatusNotFound)
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/bikes/42", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(a.requests.WithLabelValues("GET", "/bikes/:id", "404")))
}
