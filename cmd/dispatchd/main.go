package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/internal/chat"
	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/internal/delivery"
	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/internal/earnings"
	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/internal/matching"
	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/internal/notifications"
	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/internal/payments"
	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/internal/promos"
	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/internal/ratings"
	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/internal/settings"
	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/internal/trackinglinks"
	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/pkg/cache"
	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/pkg/common"
	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/pkg/config"
	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/pkg/database"
	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/pkg/errors"
	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/pkg/jwtkeys"
	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/pkg/logger"
	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/pkg/middleware"
	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/pkg/ratelimit"
	redisclient "github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/pkg/redis"
	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/pkg/resilience"
	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/pkg/tracing"
	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/pkg/websocket"
	"go.uber.org/zap"
)

const (
	serviceName = "dispatchd"
	version     = "1.0.0"
)

func main() {
	cfg, err := config.Load(serviceName)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	defer cfg.Close()

	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := logger.Init(cfg.Server.Environment); err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	logger.Info("Starting dispatch service",
		zap.String("service", serviceName),
		zap.String("version", version),
		zap.String("environment", cfg.Server.Environment),
	)

	// Initialize Sentry for error tracking
	sentryConfig := errors.DefaultSentryConfig()
	sentryConfig.ServerName = serviceName
	sentryConfig.Release = version
	if err := errors.InitSentry(sentryConfig); err != nil {
		logger.Warn("Failed to initialize Sentry, continuing without error tracking", zap.Error(err))
	} else {
		defer errors.Flush(2 * time.Second)
		logger.Info("Sentry error tracking initialized successfully")
	}

	// Initialize OpenTelemetry tracer
	tracerEnabled := os.Getenv("OTEL_ENABLED") == "true"
	if tracerEnabled {
		tracerCfg := tracing.Config{
			ServiceName:    os.Getenv("OTEL_SERVICE_NAME"),
			ServiceVersion: os.Getenv("OTEL_SERVICE_VERSION"),
			Environment:    cfg.Server.Environment,
			OTLPEndpoint:   os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
			Enabled:        true,
		}

		tp, err := tracing.InitTracer(tracerCfg, logger.Get())
		if err != nil {
			logger.Warn("Failed to initialize tracer, continuing without tracing", zap.Error(err))
		} else {
			defer func() {
				shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancelShutdown()
				if err := tp.Shutdown(shutdownCtx); err != nil {
					logger.Warn("Failed to shutdown tracer", zap.Error(err))
				}
			}()
			logger.Info("OpenTelemetry tracing initialized successfully")
		}
	}

	db, err := database.NewPostgresPool(&cfg.Database, cfg.Timeout.DatabaseQueryTimeout)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close(db)
	logger.Info("Connected to database")

	var (
		redisClient   *redisclient.Client
		limiter       *ratelimit.Limiter
		settingsCache *cache.Cache
	)

	redisClient, err = redisclient.NewRedisClient(&cfg.Redis)
	if err != nil {
		logger.Warn("Redis unavailable, running without cache and rate limiting", zap.Error(err))
		redisClient = nil
	} else {
		settingsCache = cache.NewCache(redisClient.Client)
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("Failed to close redis client", zap.Error(err))
			}
		}()
	}

	if cfg.RateLimit.Enabled && redisClient != nil {
		limiter = ratelimit.NewLimiter(redisClient.Client, cfg.RateLimit)
		logger.Info("Rate limiting enabled",
			zap.Int("default_limit", cfg.RateLimit.DefaultLimit),
			zap.Int("default_burst", cfg.RateLimit.DefaultBurst),
			zap.Duration("window", cfg.RateLimit.Window()),
		)
	}

	var stripeBreaker *resilience.CircuitBreaker
	if cfg.Resilience.CircuitBreaker.Enabled {
		breakerCfg := cfg.Resilience.CircuitBreaker.SettingsFor("stripe")
		stripeBreaker = resilience.NewCircuitBreaker(resilience.Settings{
			Name:             "stripe",
			Interval:         time.Duration(breakerCfg.IntervalSeconds) * time.Second,
			Timeout:          time.Duration(breakerCfg.TimeoutSeconds) * time.Second,
			FailureThreshold: uint32(breakerCfg.FailureThreshold),
			SuccessThreshold: uint32(breakerCfg.SuccessThreshold),
		}, nil)

		logger.Info("Circuit breaker configured for payment gateway",
			zap.Int("failure_threshold", breakerCfg.FailureThreshold),
			zap.Int("success_threshold", breakerCfg.SuccessThreshold),
			zap.Int("timeout_seconds", breakerCfg.TimeoutSeconds),
			zap.Int("interval_seconds", breakerCfg.IntervalSeconds),
		)
	}

	// Repositories (C1 Store)
	deliveryRepo := delivery.NewRepository(db)
	matchingRepo := matching.NewRepository(db)
	paymentsRepo := payments.NewRepository(db)
	promosRepo := promos.NewRepository(db)
	notificationsRepo := notifications.NewRepository(db)
	chatRepo := chat.NewRepository(db)
	earningsRepo := earnings.NewRepository(db)
	ratingsRepo := ratings.NewRepository(db)
	trackingRepo := trackinglinks.NewRepository(db)
	settingsRepo := settings.NewRepository(db)

	// Shared settings resolver backing every SettingsProvider dependency
	settingsSvc := settings.NewService(settingsRepo, settingsCache)
	if err := settingsSvc.Seed(rootCtx); err != nil {
		logger.Warn("Failed to seed system settings defaults", zap.Error(err))
	}

	// C12 TrackingLinks, then C6 EventBus, which needs it for admission
	trackingSvc := trackinglinks.NewService(trackingRepo)
	hub := websocket.NewHub(deliveryRepo, trackingSvc)
	go hub.Run(rootCtx)

	// C3 PromoValidator and C4 PaymentAdapter
	promoValidator := promos.NewValidator(promosRepo)
	stripeClient := payments.NewResilientStripeClient(cfg.Payments.StripeAPIKey, stripeBreaker)
	paymentsSvc := payments.NewService(paymentsRepo, stripeClient, promoValidator, settingsSvc)
	paymentsSvc.SetDeliveryLookup(deliveryRepo)

	// C7 NotificationSink
	notificationsSvc := notifications.NewService(notificationsRepo, hub)

	// C9 Dispatcher + C10 LocationIngest + courier ledger
	matchingSvc := matching.NewService(matchingRepo, deliveryRepo, hub, settingsSvc)

	// C8 LifecycleEngine; Dispatcher and LifecycleEngine reference each
	// other, so the cycle closes through setters after construction.
	deliverySvc := delivery.NewService(deliveryRepo, paymentsSvc, matchingSvc, notificationsSvc, hub, settingsSvc)
	deliverySvc.SetDispatcher(matchingSvc)
	deliverySvc.SetTrackingLinks(trackingSvc)
	deliverySvc.SetPromoValidator(promoValidator)
	matchingSvc.SetProximityTransitioner(deliverySvc)

	ratingsSvc := ratings.NewService(ratingsRepo)
	deliverySvc.SetRater(ratingsSvc)

	// C11 MessageRelay
	chatSvc := chat.NewService(chatRepo, deliveryRepo, hub)
	chatSvc.SetTrackingResolver(trackingSvc)

	earningsSvc := earnings.NewService(earningsRepo, matchingSvc, settingsSvc)

	jwtProvider, err := jwtkeys.NewManagerFromConfig(rootCtx, cfg.JWT, true)
	if err != nil {
		logger.Fatal("Failed to initialize JWT key manager", zap.Error(err))
	}
	jwtProvider.StartAutoRefresh(rootCtx, time.Duration(cfg.JWT.RefreshMinutes)*time.Minute)

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RecoveryWithSentry())
	router.Use(middleware.SentryMiddleware())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.RequestTimeout(&cfg.Timeout))
	router.Use(middleware.RequestLogger(serviceName))
	router.Use(middleware.CORS())
	router.Use(middleware.SanitizeRequest())

	if tracerEnabled {
		router.Use(middleware.TracingMiddleware(serviceName))
	}
	if limiter != nil {
		router.Use(middleware.RateLimit(limiter, cfg.RateLimit))
	}
	if redisClient != nil {
		router.Use(middleware.Idempotency(redisClient))
	}

	// Sentry error handler (should be near the end of middleware chain)
	router.Use(middleware.ErrorHandler())

	// Health check endpoints
	router.GET("/healthz", common.HealthCheck(serviceName, version))
	router.GET("/health/live", common.LivenessProbe(serviceName, version))

	healthChecks := make(map[string]func() error)
	healthChecks["database"] = func() error {
		ctx, cancelPing := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancelPing()
		return db.Ping(ctx)
	}
	if redisClient != nil {
		healthChecks["redis"] = func() error {
			ctx, cancelPing := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancelPing()
			return redisClient.Client.Ping(ctx).Err()
		}
	}
	router.GET("/health/ready", common.ReadinessProbe(serviceName, version, healthChecks))

	router.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": serviceName,
			"version": version,
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Real-time channel (C6): bearer token or tracking token at connect time
	router.GET("/ws", func(c *gin.Context) {
		websocket.HandleConnect(c, hub, jwtProvider, trackingSvc)
	})

	delivery.NewHandler(deliverySvc).RegisterRoutes(router, jwtProvider)
	matching.NewHandler(matchingSvc).RegisterRoutes(router, jwtProvider)
	payments.NewHandlerWithWebhookSecret(paymentsSvc, os.Getenv("STRIPE_WEBHOOK_SECRET")).RegisterRoutes(router, jwtProvider)
	promos.NewHandler(promoValidator).RegisterRoutes(router, jwtProvider)
	notifications.NewHandler(notificationsSvc).RegisterRoutes(router, jwtProvider)
	chat.NewHandler(chatSvc).RegisterRoutes(router, jwtProvider)
	earnings.NewHandler(earningsSvc).RegisterRoutes(router, jwtProvider)
	ratings.NewHandler(ratingsSvc).RegisterRoutes(router, jwtProvider)
	settings.NewHandler(settingsSvc).RegisterRoutes(router, jwtProvider)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("Server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server stopped")
}
