package http

import (
	"net/http"

	"github.com/sm8ta/webike_garage_service/internal/config"
	"github.com/sm8ta/webike_garage_service/internal/core/domain"
	"github.com/sm8ta/webike_garage_service/internal/core/ports"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type Router struct {
	router *gin.Engine
}

// Handlers groups every route handler the router mounts.
type Handlers struct {
	Bike         *BikeHandler
	Part         *PartHandler
	Installation *InstallationHandler
	Active       *ActiveBikeHandler
	Kilometrage  *KilometrageHandler
	Maintenance  *MaintenanceHandler
	Transfer     *TransferHandler
	Stats        *StatsHandler
}

func NewRouter(
	cfg *config.HTTP,
	tokenService ports.TokenService,
	h Handlers,
) (*Router, error) {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	// CORS
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.AllowedOrigins},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	// Swagger
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("")
	api.Use(RateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst), AuthMiddleware(tokenService))

	// Bikes routes
	bikes := api.Group("/bikes")
	{
		bikes.POST("", h.Bike.CreateBike)
		bikes.GET("/my", h.Bike.GetMyBikes)
		bikes.GET("/:id", h.Bike.GetBike)
		bikes.PUT("/:id", h.Bike.UpdateBike)
		bikes.DELETE("/:id", h.Bike.DeleteBike)

		bikes.GET("/:id/parts", h.Installation.BikeParts)

		bikes.PUT("/:id/active", h.Active.SetActive)
		bikes.DELETE("/:id/active", h.Active.Deactivate)

		bikes.POST("/:id/kilometrage", h.Kilometrage.LogDistance)
		bikes.GET("/:id/kilometrage", h.Kilometrage.History)

		bikes.POST("/:id/maintenance", h.Maintenance.Record(domain.SubjectBike))
		bikes.GET("/:id/maintenance", h.Maintenance.History(domain.SubjectBike))

		bikes.POST("/:id/transfer", h.Transfer.TransferBike)
		bikes.GET("/:id/ownership", h.Transfer.History(domain.SubjectBike))

		bikes.GET("/:id/stats", h.Stats.BikeStats)
	}

	// Parts routes
	parts := api.Group("/parts")
	{
		parts.POST("", h.Part.CreatePart)
		parts.GET("/my", h.Part.GetMyParts)
		parts.GET("/:id", h.Part.GetPart)
		parts.PUT("/:id", h.Part.UpdatePart)
		parts.DELETE("/:id", h.Part.DeletePart)

		parts.POST("/:id/install", h.Installation.Install)
		parts.POST("/:id/remove", h.Installation.Remove)
		parts.GET("/:id/installations", h.Installation.History)
		parts.GET("/:id/bike", h.Installation.PartBike)

		parts.POST("/:id/maintenance", h.Maintenance.Record(domain.SubjectPart))
		parts.GET("/:id/maintenance", h.Maintenance.History(domain.SubjectPart))

		parts.POST("/:id/transfer", h.Transfer.TransferPart)
		parts.GET("/:id/ownership", h.Transfer.History(domain.SubjectPart))

		parts.GET("/:id/stats", h.Stats.PartStats)
	}

	api.GET("/active-bike", h.Active.GetActive)
	api.POST("/trips", h.Kilometrage.LogTrip)

	return &Router{router: router}, nil
}

func (r *Router) Serve(addr string) error {
	return r.router.Run(addr)
}

func (r *Router) Engine() *gin.Engine {
	return r.router
}
