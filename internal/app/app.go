package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	nethttp "net/http"
	"time"

	"github.com/sm8ta/webike_garage_service/internal/adapter/handler/http"
	"github.com/sm8ta/webike_garage_service/internal/adapter/logger"
	"github.com/sm8ta/webike_garage_service/internal/adapter/memory"
	"github.com/sm8ta/webike_garage_service/internal/adapter/postgres"
	"github.com/sm8ta/webike_garage_service/internal/adapter/prometheus"
	"github.com/sm8ta/webike_garage_service/internal/adapter/redis"
	"github.com/sm8ta/webike_garage_service/internal/adapter/telemetry"
	"github.com/sm8ta/webike_garage_service/internal/adapter/users"
	"github.com/sm8ta/webike_garage_service/internal/config"
	"github.com/sm8ta/webike_garage_service/internal/core/ports"
	"github.com/sm8ta/webike_garage_service/internal/core/services"

	"github.com/go-playground/validator/v10"
	redisClient "github.com/redis/go-redis/v9"
)

type App struct {
	Config       *config.Container
	Logger       ports.LoggerPort
	DB           *sql.DB
	RedisClient  *redisClient.Client
	RedisAdapter ports.CachePort
	HTTPRouter   *http.Router

	server   *nethttp.Server
	shutdown telemetry.Shutdown
}

func New(ctx context.Context, cfg *config.Container) (*App, error) {
	// Set logger
	loggerAdapter := logger.NewLoggerAdapter(cfg.App.Env)
	loggerAdapter.Info("Starting the application", map[string]interface{}{
		"app":    cfg.App.Name,
		"env":    cfg.App.Env,
		"driver": cfg.DB.Driver,
	})

	a := &App{Config: cfg, Logger: loggerAdapter}

	// Tracing
	shutdown, err := telemetry.Setup(ctx, cfg.App.Name, cfg.App.Env, cfg.Telemetry.OTLPEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to set up tracing: %w", err)
	}
	a.shutdown = shutdown

	// Set redis
	var cacheAdapter ports.CachePort = redis.NoopCache{}
	if cfg.Redis.Address != "" {
		redisConn := redisClient.NewClient(&redisClient.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       0,
		})
		if _, err := redisConn.Ping(ctx).Result(); err != nil {
			a.close()
			redisConn.Close()
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		a.RedisClient = redisConn
		cacheAdapter = redis.NewRedisAdapter(redisConn)
	} else {
		loggerAdapter.Warn("REDIS_ADDRESS is empty, caching disabled", nil)
	}
	a.RedisAdapter = cacheAdapter

	// Store
	store, err := a.openStore(ctx)
	if err != nil {
		a.close()
		return nil, err
	}

	// Validate
	validate := validator.New()

	// Observability
	metrics := prometheus.NewPrometheusAdapter()

	// Services
	retry := services.DefaultRetryPolicy()
	if cfg.Store.RetryMax > 0 {
		retry.MaxTries = uint(cfg.Store.RetryMax)
	}
	deps := services.Deps{
		Store:    store,
		Logger:   loggerAdapter,
		Validate: validate,
		Cache:    cacheAdapter,
		Metrics:  metrics,
		Retry:    retry,
	}
	directory := users.NewDirectory(cfg.UserService.Address, loggerAdapter)

	// HTTP Handlers
	tokenService := http.NewJWTTokenService(cfg.Token.Secret, loggerAdapter)
	handlers := http.Handlers{
		Bike:         http.NewBikeHandler(services.NewBikeService(deps), loggerAdapter, metrics),
		Part:         http.NewPartHandler(services.NewPartService(deps), loggerAdapter, metrics),
		Installation: http.NewInstallationHandler(services.NewInstallationService(deps), loggerAdapter, metrics),
		Active:       http.NewActiveBikeHandler(services.NewActiveBikeService(deps), loggerAdapter, metrics),
		Kilometrage:  http.NewKilometrageHandler(services.NewKilometrageService(deps), loggerAdapter, metrics),
		Maintenance:  http.NewMaintenanceHandler(services.NewMaintenanceService(deps), loggerAdapter, metrics),
		Transfer:     http.NewTransferHandler(services.NewTransferService(deps, directory), loggerAdapter, metrics),
		Stats:        http.NewStatsHandler(services.NewStatsService(deps), loggerAdapter, metrics),
	}

	// Init HTTP router
	router, err := http.NewRouter(cfg.HTTP, tokenService, handlers)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to initialize router: %w", err)
	}
	a.HTTPRouter = router

	return a, nil
}

func (a *App) openStore(ctx context.Context) (ports.Store, error) {
	switch a.Config.DB.Driver {
	case "memory":
		a.Logger.Warn("Using the in-memory store, data is lost on restart", nil)
		return memory.NewStore(), nil
	case "postgres", "":
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", a.Config.DB.Driver)
	}

	db, err := postgres.Open(ctx, a.Config.DB.DSN())
	if err != nil {
		return nil, err
	}
	a.DB = db

	// Migrate DB
	if err := postgres.MigrateUp(db, a.Config.DB.MigrationsDir); err != nil {
		return nil, err
	}
	return postgres.NewStore(db), nil
}

// Run serves HTTP until Stop is called.
func (a *App) Run() error {
	listenAddr := fmt.Sprintf("%s:%s", a.Config.HTTP.URL, a.Config.HTTP.Port)
	a.Logger.Info("Starting HTTP server", map[string]interface{}{
		"addr": listenAddr,
	})

	a.server = &nethttp.Server{
		Addr:              listenAddr,
		Handler:           a.HTTPRouter.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		a.Logger.Error("HTTP server error", map[string]interface{}{
			"error": err.Error(),
		})
		return err
	}
	return nil
}

// Stops all services
func (a *App) Stop(ctx context.Context) error {
	a.Logger.Info("Shutting down gracefully...", nil)

	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			a.Logger.Error("HTTP shutdown error", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	if a.shutdown != nil {
		if err := a.shutdown(ctx); err != nil {
			a.Logger.Error("Tracer shutdown error", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	a.close()
	a.Logger.Info("Application stopped successfully", nil)
	return nil
}

func (a *App) close() {
	// Close database
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Logger.Error("Database close error", map[string]interface{}{
				"error": err.Error(),
			})
		}
		a.DB = nil
	}

	// Close Redis
	if a.RedisClient != nil {
		if err := a.RedisClient.Close(); err != nil {
			a.Logger.Error("Redis close error", map[string]interface{}{
				"error": err.Error(),
			})
		}
		a.RedisClient = nil
	}
}
