package main

import (
	"context"
	"expvar"
	"log"
	"runtime"

	"github.com/google/uuid"
	"github.com/mtorrado/campusguard/internal/infrastructure/configs"
	"github.com/mtorrado/campusguard/internal/infrastructure/env"
	"github.com/mtorrado/campusguard/internal/infrastructure/events"
	"github.com/mtorrado/campusguard/internal/infrastructure/logging"
	"github.com/mtorrado/campusguard/internal/infrastructure/messaging"
	"github.com/mtorrado/campusguard/internal/infrastructure/ratelimiter"
	"github.com/mtorrado/campusguard/internal/infrastructure/repository"
	"github.com/mtorrado/campusguard/internal/infrastructure/tracing"
	"github.com/mtorrado/campusguard/internal/presentation/api"
	"github.com/mtorrado/campusguard/internal/presentation/handler/cameras"
	"github.com/mtorrado/campusguard/internal/presentation/handler/health"
	"github.com/mtorrado/campusguard/internal/presentation/handler/incidents"
	"github.com/mtorrado/campusguard/internal/presentation/handler/live"
	"github.com/mtorrado/campusguard/internal/presentation/handler/streams"
	"github.com/mtorrado/campusguard/internal/realtime"
)

const (
	serviceName = "campusguard-api"
	version     = "1.0.0"
)

func main() {
	configPath := configs.DetermineConfigPath()
	cfg, err := configs.Load(configPath)
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.NewLogger(&logging.LoggerConfig{
		Logger:   cfg.Logger.Logger,
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
		FilePath: cfg.Logger.FilePath,
	})
	logger.Init()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Tracing.Enabled {
		sh, err := tracing.InitTracer(tracing.Config{
			ServiceName: serviceName,
			Environment: env.GetString("ENVIRONMENT", "development"),
			Exporter:    cfg.Tracing.Exporter,
			Endpoint:    cfg.Tracing.Endpoint,
		})
		if err != nil {
			logger.Fatalf("Failed to initialize the tracer: %v", err)
		}
		defer sh(ctx)
	}

	registry := realtime.NewRegistry()
	dispatcher := realtime.NewDispatcher(registry, logger)

	streamManager := realtime.NewStreamManager(
		dispatcher,
		registry,
		logger,
		cfg.Realtime.StreamIdleTimeout,
		cfg.Realtime.ViewerCountInterval,
	)
	streamManager.Run()
	defer streamManager.Stop()

	cameraRepository := repository.NewCameraRepository(cfg.CameraStore.Capacity, cfg.CameraStore.IdleExpiry)
	incidentRepository := repository.NewIncidentRepository(cfg.IncidentStore.Capacity, cfg.IncidentStore.IdleExpiry)

	// Incidents fan out across instances over the broker when one is
	// configured; a single instance runs fine without it.
	var incidentPublisher *events.IncidentPublisher
	if cfg.AMQP.URL != "" {
		rabbitmq, err := messaging.NewRabbitMQ(cfg.AMQP.URL)
		if err != nil {
			logger.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
		defer rabbitmq.Close()

		logger.Info(logging.RabbitMQ, logging.Startup, "connected to message broker", nil)

		origin := uuid.NewString()
		incidentPublisher = events.NewIncidentPublisher(rabbitmq, origin)

		incidentConsumer := events.NewIncidentConsumer(rabbitmq, dispatcher, origin, logger)
		go func() {
			if err := incidentConsumer.Listen(); err != nil {
				logger.Errorf("Incident consumer stopped: %v", err)
			}
		}()
	}

	sessionConfig := realtime.SessionConfig{
		QueueDepth:        cfg.Realtime.QueueDepth,
		HeartbeatInterval: cfg.Realtime.HeartbeatInterval,
		HeartbeatTimeout:  cfg.Realtime.HeartbeatTimeout,
	}

	incidentsHandler := incidents.NewHandler(incidentRepository, dispatcher, incidentPublisher)
	camerasHandler := cameras.NewHandler(cameraRepository)
	streamsHandler := streams.NewHandler(cameraRepository, streamManager)
	liveHandler := live.NewHandler(dispatcher, registry, streamManager, logger, sessionConfig)
	healthHandler := health.NewHandler(version)

	rl := ratelimiter.NewFixedWindowRateLimiter(cfg.RateLimiter.RequestsPerTimeFrame, cfg.RateLimiter.TimeFrame)
	defer rl.Close()

	app := api.NewApplication(*cfg, incidentsHandler, camerasHandler, streamsHandler, liveHandler, healthHandler, logger, rl)

	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))

	mux := app.Mount()
	if err := app.Run(mux); err != nil {
		logger.Fatalf("Server error: %v", err)
	}
}
