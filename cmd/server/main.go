package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"syncwatch/internal/core/services"
	httphandlers "syncwatch/internal/handlers/http"
	"syncwatch/internal/infrastructure/middleware"
	"syncwatch/internal/infrastructure/monitoring"
	"syncwatch/internal/infrastructure/registry"
	"syncwatch/internal/infrastructure/transport"
	"syncwatch/pkg/config"
	"syncwatch/pkg/logger"
	"syncwatch/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	startTime := time.Now()

	// Try multiple config paths
	configPaths := []string{
		"configs/config.yaml",
		"./configs/config.yaml",
		"/etc/syncwatch/config.yaml",
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
	zapLogger := logger.New(cfg.Logging.Level)
	defer zapLogger.Sync()

	log := zapLogger.Sugar()

	// Initialize tracing
	tp, err := tracing.Init(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
		JaegerURL:   cfg.Tracing.JaegerURL,
		Environment: cfg.Tracing.Environment,
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		log.Fatalw("failed to initialize tracing", "error", err)
	}

	// Room policy from config
	policy := services.Policy{
		MaxParticipants:     cfg.Room.MaxParticipants,
		DriftThreshold:      cfg.Room.DriftThreshold,
		ReactionLifetime:    cfg.Room.ReactionLifetime,
		TeardownGrace:       cfg.Room.TeardownGrace,
		MaxMessageLength:    cfg.Room.MaxMessageLength,
		MessageHistoryLimit: cfg.Room.MessageHistoryLimit,
	}

	// Initialize services
	authService := services.NewAuthService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	wsOpts := transport.Options{
		PingInterval:    cfg.WebSocket.PingInterval,
		PongTimeout:     cfg.WebSocket.PongTimeout,
		WriteTimeout:    cfg.WebSocket.WriteTimeout,
		SendBufferSize:  cfg.WebSocket.SendBufferSize,
		MaxMessageBytes: cfg.WebSocket.MaxMessageBytes,
	}
	if cfg.RateLimiting.Enabled {
		wsOpts.MessagesPerSecond = cfg.RateLimiting.WebSocket.MessagesPerSecond
		wsOpts.Burst = cfg.RateLimiting.WebSocket.Burst
	}

	wsServer := transport.NewWebSocketServer(authService, wsOpts, log)
	directory := services.NewDirectory(policy, wsServer, log)
	wsServer.SetDirectory(directory)

	// Initialize monitoring
	var metricsReg *prometheus.Registry
	if cfg.Monitoring.PrometheusEnabled {
		metricsReg = prometheus.NewRegistry()
		collector := monitoring.NewPrometheusCollector(metricsReg)
		directory.SetMetrics(collector)
		wsServer.SetMetrics(collector)
	}

	// Optional distributed room registry
	var roomRegistry *registry.RedisRegistry
	registryCtx, registryCancel := context.WithCancel(context.Background())
	defer registryCancel()
	if cfg.Registry.Enabled {
		roomRegistry, err = registry.NewRedisRegistry(registry.Config{
			Address:     cfg.Registry.Address,
			Password:    cfg.Registry.Password,
			DB:          cfg.Registry.DB,
			AnnounceTTL: cfg.Registry.AnnounceTTL,
		}, log)
		if err != nil {
			log.Fatalw("failed to connect to room registry", "error", err)
		}
		directory.SetRegistry(roomRegistry, cfg.Registry.InstanceAddr)
		go roomRegistry.RunHeartbeat(registryCtx, cfg.Registry.InstanceAddr, directory.RoomIDs)
		log.Infow("Room registry enabled", "address", cfg.Registry.Address)
	}

	// Initialize HTTP handlers
	sessionHandler := httphandlers.NewSessionHandler(authService)
	var roomHandler *httphandlers.RoomHandler
	if roomRegistry != nil {
		roomHandler = httphandlers.NewRoomHandler(directory, roomRegistry, authService)
	} else {
		roomHandler = httphandlers.NewRoomHandler(directory, nil, authService)
	}

	// Configure Gin
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

	sessionHandler.SetupRoutes(router)
	roomHandler.SetupRoutes(router)

	// WebSocket endpoint
	router.GET("/ws", gin.WrapF(wsServer.HandleWebSocket))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"uptime":    time.Since(startTime).String(),
			"rooms":     directory.RoomCount(),
			"clients":   wsServer.ConnectedCount(),
		})
	})

	// Prometheus metrics endpoint
	if cfg.Monitoring.PrometheusEnabled {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metricsReg, promhttp.HandlerOpts{})))
		log.Info("Prometheus metrics enabled")
	}

	// Create HTTP server with timeouts
	srv := &http.Server{
		Addr:        cfg.Server.Address,
		Handler:     router,
		ReadTimeout: cfg.Server.ReadTimeout,
		// Write timeout stays off so websocket connections outlive it.
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		log.Infof("Starting SyncWatch server on %s", cfg.Server.Address)
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
		log.Infow("Received shutdown signal", "signal", sig)
	}

	log.Info("Shutting down SyncWatch server...")

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

	// Close rooms and withdraw registry announcements
	directory.Close()
	registryCancel()
	if roomRegistry != nil {
		if err := roomRegistry.Close(); err != nil {
			log.Errorw("Error closing room registry", "error", err)
		}
	}

	if err := tp.Shutdown(context.Background()); err != nil {
		log.Errorw("Error shutting down tracer provider", "error", err)
	}

	log.Info("SyncWatch server stopped")
}
