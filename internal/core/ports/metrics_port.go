package ports

import (
	"time"

	"github.com/gin-gonic/gin"
)

// MetricsPort is used by HTTP handlers.
type MetricsPort interface {
	RecordMetrics(c *gin.Context, start time.Time)
}

// EngineMetricsPort is used by the lifecycle services.
type EngineMetricsPort interface {
	TxRetried(op string)
	DistanceLogged(km float64, partsUpdated int)
	OwnershipTransferred(entity string, count int)
}
