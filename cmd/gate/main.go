package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mediagate/internal/core/ports"
	"mediagate/internal/core/services"
	httphandlers "mediagate/internal/handlers/http"
	"mediagate/internal/infrastructure/distributed"
	"mediagate/internal/infrastructure/middleware"
	"mediagate/internal/infrastructure/monitoring"
	"mediagate/internal/infrastructure/notify"
	redisrepo "mediagate/internal/infrastructure/repositories/redis"
	"mediagate/internal/infrastructure/storage"
	"mediagate/internal/infrastructure/streamcdn"
	"mediagate/pkg/config"
	"mediagate/pkg/logger"
	"mediagate/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
)

func main() {
	startTime := time.Now()

	// Try multiple config paths
	configPaths := []string{
		"configs/config.yaml",
		"./configs/config.yaml",
		"/etc/mediagate/config.yaml",
		"config.yaml",
	}

	var cfg *config.Config
	var err error

	for _, path := range configPaths {
		cfg, err = config.Load(path)
		if err == nil {
			break
		}
	}

	if err != nil {
		// Fallback to defaults if config cannot be loaded
		cfg = config.DefaultConfig()
	}

	// Initialize logger
	zapLogger := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLogger.Sync()

	log := zapLogger.Sugar()

	// Initialize tracing
	tracerProvider, err := tracing.Init(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
		JaegerURL:   cfg.Tracing.JaegerURL,
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		log.Fatalw("failed to initialize tracing", "error", err)
	}

	// Initialize data layer
	var (
		resourceRepo    ports.ResourceRepository
		entitlementRepo ports.EntitlementRepository
		redisClient     *goredis.Client
		eventBus        *distributed.EventBus
	)

	healthChecker := monitoring.NewHealthChecker()

	if cfg.Redis.Enabled {
		redisClient, err = redisrepo.NewRedisClient(
			cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.PoolSize, log,
		)
		if err != nil {
			log.Fatalw("failed to connect to redis", "error", err)
		}
		resourceRepo = redisrepo.NewRedisResourceRepository(redisClient)
		entitlementRepo = redisrepo.NewRedisEntitlementRepository(redisClient)
		eventBus = distributed.NewEventBus(redisClient, uuid.NewString(), log)

		healthChecker.AddProbe("redis", 2*time.Second, func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	} else {
		log.Warn("redis disabled, running with in-memory repositories")
		memResources := newSeededResourceRepository()
		resourceRepo = memResources
		entitlementRepo = newSeededEntitlementRepository()
	}

	prometheusCollector := monitoring.NewPrometheusCollector()

	// Initialize media providers
	var urlProvider ports.SignedURLProvider
	s3Signer, err := storage.NewS3Signer(context.Background(), storage.S3Config{
		Endpoint:  cfg.Storage.Endpoint,
		Region:    cfg.Storage.Region,
		Bucket:    cfg.Storage.Bucket,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Timeout:   cfg.Storage.Timeout,
	}, log)
	if err != nil {
		// Audio and image issuance will fail until storage credentials
		// are provided; video-only deployments run this way on purpose.
		log.Warnw("storage signer unavailable", "error", err)
	} else {
		urlProvider = monitoring.InstrumentURLProvider(s3Signer, "s3", prometheusCollector)
	}

	var tokenProvider ports.PlaybackTokenProvider
	if cfg.Signing.VideoPrivateKey != "" {
		localSigner, err := streamcdn.NewLocalTokenSigner(cfg.Signing.VideoPrivateKey)
		if err != nil {
			log.Fatalw("failed to load video signing key", "error", err)
		}
		tokenProvider = monitoring.InstrumentTokenProvider(localSigner, "local_signer", prometheusCollector)
		log.Info("using local video token signer")
	} else {
		remoteProvider := streamcdn.NewRemoteTokenProvider(
			cfg.StreamCDN.TokenEndpoint, cfg.StreamCDN.APIKey, cfg.StreamCDN.Timeout, log,
		)
		tokenProvider = monitoring.InstrumentTokenProvider(remoteProvider, "streamcdn", prometheusCollector)
		log.Infow("using remote video token provider", "endpoint", cfg.StreamCDN.TokenEndpoint)
	}

	// Initialize services
	entitlementService := services.NewEntitlementService(resourceRepo, entitlementRepo, log)
	capabilityService := services.NewCapabilityService(
		cfg.Signing.BindingSecret,
		services.CapabilityConfig{
			TTLFloor:   cfg.Signing.TTLFloor,
			TTLCeiling: cfg.Signing.TTLCeiling,
			TTLDefault: cfg.Signing.TTLDefault,
		},
		urlProvider,
		tokenProvider,
		log,
	)
	auditSink := services.NewAuditService(log, 64, 2*time.Second, prometheusCollector)
	defer auditSink.Close()

	notifyServer := notify.NewWebSocketServer(log)
	notifyServer.SetMetrics(prometheusCollector)
	if cfg.Notify.Enabled {
		notifyServer.SetPingInterval(cfg.Notify.PingInterval)
		notifyServer.SetPongTimeout(cfg.Notify.PongTimeout)
	}

	// Bridge cross-instance revocation events into the local push hub.
	busCtx, busCancel := context.WithCancel(context.Background())
	defer busCancel()
	if eventBus != nil {
		go func() {
			err := eventBus.Subscribe(busCtx, func(event *distributed.Event) error {
				notifyServer.NotifyRevoked(event.ResourceID, event.Reason)
				return nil
			})
			if err != nil && busCtx.Err() == nil {
				log.Errorw("event bus subscription ended", "error", err)
			}
		}()
		defer eventBus.Close()
	}

	// Initialize HTTP layer
	accessHandler := httphandlers.NewAccessHandler(
		entitlementService,
		capabilityService,
		auditSink,
		resourceRepo,
		notifyServer,
		healthChecker,
		prometheusCollector,
		cfg.Signing.TTLDefault,
		cfg.Signing.RevalidateInterval,
		log,
	)

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.ErrorHandlerMiddleware(log))
	if cfg.Tracing.Enabled {
		router.Use(middleware.TracingMiddleware())
	}
	router.Use(middleware.NewHTTPRateLimitMiddleware(cfg))
	router.Use(middleware.PrincipalMiddleware(cfg.Auth.JWTSecret))
	router.Use(middleware.RequestLoggingMiddleware(zapLogger))

	accessHandler.SetupRoutes(router)

	// Prometheus metrics endpoint
	if cfg.Monitoring.PrometheusEnabled {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
		log.Info("Prometheus metrics enabled")
	}

	// Create HTTP server with timeouts
	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Infof("Starting mediagate server on %s", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Wait for shutdown signals or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.Fatalw("Server failed", "error", err)
	case sig := <-sigChan:
		log.Infow("Received shutdown signal", "signal", sig, "uptime", time.Since(startTime).String())
	}

	log.Info("Shutting down mediagate server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("Error during server shutdown", "error", err)
		if closeErr := srv.Close(); closeErr != nil {
			log.Errorw("Error force closing server", "error", closeErr)
		}
	} else {
		log.Info("Server shutdown gracefully")
	}

	busCancel()

	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Errorw("Error shutting down tracer", "error", err)
	}

	if redisClient != nil {
		if err := redisrepo.CloseRedisClient(redisClient); err != nil {
			log.Errorw("Error closing redis client", "error", err)
		}
	}

	log.Info("mediagate server stopped")
}
