package api

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mtorrado/campusguard/internal/infrastructure/configs"
	"github.com/mtorrado/campusguard/internal/infrastructure/logging"
	"github.com/mtorrado/campusguard/internal/infrastructure/metrics"
	"github.com/mtorrado/campusguard/internal/infrastructure/ratelimiter"
	camerasHandler "github.com/mtorrado/campusguard/internal/presentation/handler/cameras"
	healthHandler "github.com/mtorrado/campusguard/internal/presentation/handler/health"
	incidentsHandler "github.com/mtorrado/campusguard/internal/presentation/handler/incidents"
	liveHandler "github.com/mtorrado/campusguard/internal/presentation/handler/live"
	streamsHandler "github.com/mtorrado/campusguard/internal/presentation/handler/streams"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Application struct {
	config           configs.Config
	incidentsHandler *incidentsHandler.Handler
	camerasHandler   *camerasHandler.Handler
	streamsHandler   *streamsHandler.Handler
	liveHandler      *liveHandler.Handler
	healthHandler    *healthHandler.Handler
	logger           logging.Logger
	ratelimiter      ratelimiter.Limiter
}

func NewApplication(
	config configs.Config,
	incidentsHandler *incidentsHandler.Handler,
	camerasHandler *camerasHandler.Handler,
	streamsHandler *streamsHandler.Handler,
	liveHandler *liveHandler.Handler,
	healthHandler *healthHandler.Handler,
	logger logging.Logger,
	ratelimiter ratelimiter.Limiter,
) *Application {
	return &Application{
		config:           config,
		incidentsHandler: incidentsHandler,
		camerasHandler:   camerasHandler,
		streamsHandler:   streamsHandler,
		liveHandler:      liveHandler,
		healthHandler:    healthHandler,
		logger:           logger,
		ratelimiter:      ratelimiter,
	}
}

func (app *Application) Mount() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(app.loggerMiddleware)
	r.Use(app.rateLimiterMiddleware)
	r.Use(app.enableCors)

	r.Route("/api", func(r chi.Router) {
		r.Route("/incidents", func(r chi.Router) {
			r.Post("/", app.incidentsHandler.CreateIncidentHandler)
			r.Get("/", app.incidentsHandler.ListIncidentsHandler)
			r.Get("/{incidentId}", app.incidentsHandler.GetIncidentHandler)
			r.Patch("/{incidentId}/status", app.incidentsHandler.UpdateIncidentStatusHandler)
		})

		r.Route("/cameras", func(r chi.Router) {
			r.Post("/", app.camerasHandler.RegisterCameraHandler)
			r.Get("/", app.camerasHandler.ListCamerasHandler)
			r.Get("/{cameraId}", app.camerasHandler.GetCameraHandler)
			r.Delete("/{cameraId}", app.camerasHandler.DeleteCameraHandler)
		})

		r.Route("/streams", func(r chi.Router) {
			r.Post("/", app.streamsHandler.StartStreamHandler)
			r.Get("/", app.streamsHandler.ListStreamsHandler)
			r.Get("/{sessionId}", app.streamsHandler.GetStreamHandler)
			r.Delete("/{sessionId}", app.streamsHandler.StopStreamHandler)
			r.Post("/{sessionId}/frames", app.streamsHandler.PushFrameHandler)
		})

		r.Get("/ws", app.liveHandler.ConnectHandler)

		r.Get("/health", app.healthHandler.GetHealth)
		r.Get("/healthz", app.healthHandler.GetHealth)
		r.Get("/ready", app.healthHandler.GetHealth)
		r.Get("/live", app.healthHandler.GetHealth)
	})

	r.Handle("/metrics", metrics.Handler())
	r.Handle("/debug/vars", expvar.Handler())

	return otelhttp.NewHandler(r, "campusguard")
}

func (app *Application) Run(mux http.Handler) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", app.config.HTTP.Host, app.config.HTTP.Port),
		Handler:      mux,
		WriteTimeout: app.config.HTTP.WriteTimeout,
		ReadTimeout:  app.config.HTTP.ReadTimeout,
		IdleTimeout:  time.Minute,
	}

	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Info(logging.General, logging.Shutdown, "signal caught", map[logging.ExtraKey]any{
			"signal": s.String(),
		})

		shutdown <- srv.Shutdown(ctx)
	}()

	app.logger.Info(logging.General, logging.Startup, "server has started", map[logging.ExtraKey]any{
		"addr": srv.Addr,
	})

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Info(logging.General, logging.Shutdown, "server has stopped", map[logging.ExtraKey]any{
		"addr": srv.Addr,
	})

	return nil
}
