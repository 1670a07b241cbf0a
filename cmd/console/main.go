package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zanzhit/ptz_console/internal/config"
	camerashandler "github.com/zanzhit/ptz_console/internal/http-server/handlers/cameras"
	commandshandler "github.com/zanzhit/ptz_console/internal/http-server/handlers/commands"
	groupshandler "github.com/zanzhit/ptz_console/internal/http-server/handlers/groups"
	statushandler "github.com/zanzhit/ptz_console/internal/http-server/handlers/status"
	"github.com/zanzhit/ptz_console/internal/http-server/middleware/logger"
	"github.com/zanzhit/ptz_console/internal/lib/metrics"
	"github.com/zanzhit/ptz_console/internal/lib/sl"
	"github.com/zanzhit/ptz_console/internal/services/dispatcher"
	"github.com/zanzhit/ptz_console/internal/services/fanout"
	"github.com/zanzhit/ptz_console/internal/services/probe"
	"github.com/zanzhit/ptz_console/internal/services/probe/chromeprobe"
	"github.com/zanzhit/ptz_console/internal/services/registry"
	"github.com/zanzhit/ptz_console/internal/storage/memory"
	"github.com/zanzhit/ptz_console/internal/storage/postgres"
	camerastorage "github.com/zanzhit/ptz_console/internal/storage/postgres/cameras"
	groupstorage "github.com/zanzhit/ptz_console/internal/storage/postgres/groups"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)

	log.Info("starting application", slog.Any("config", cfg))

	groupStorage, cameraStorage, closeStorage := setupStorage(cfg, log)
	defer closeStorage()

	registryService := registry.New(log, groupStorage, cameraStorage)

	promMetrics := metrics.New()

	commandDispatcher := dispatcher.New(log, cfg.Camera.CommandTimeout)

	liveness := probe.NewLiveness(log, cfg.Camera.LivenessTimeout, promMetrics)

	statusProbe := probe.NewStatus(
		log,
		chromeprobe.New(log, cfg.Camera.ChromePath, cfg.Camera.ScrapeSettle),
		cfg.Camera.ScrapeTimeout,
	)

	coordinator := fanout.New(log, registryService, commandDispatcher, statusProbe,
		fanout.WithMaxConcurrency(cfg.FanOut.MaxConcurrency),
		fanout.WithRefreshTimeout(cfg.FanOut.RefreshTimeout),
		fanout.WithObserver(promMetrics),
	)

	groupHandler := groupshandler.New(log, registryService)
	cameraHandler := camerashandler.New(log, registryService)
	commandHandler := commandshandler.New(log, coordinator, registryService, commandDispatcher)
	statusHandler := statushandler.New(log, registryService, liveness, statusProbe, coordinator)

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(logger.New(log))
	router.Use(middleware.Recoverer)
	// No URLFormat: camera addresses in /ping/{ip} contain dots.

	router.Route("/api", func(r chi.Router) {
		r.Get("/groups", groupHandler.List)
		r.Post("/groups", groupHandler.Create)
		r.Delete("/groups/{id}", groupHandler.Delete)
		r.Post("/groups/{id}/commands", commandHandler.DispatchGroup)
		r.Get("/groups/{id}/tracking", statusHandler.GroupTracking)
		r.Get("/groups/{id}/info", statusHandler.GroupInfo)

		r.Get("/cameras", cameraHandler.List)
		r.Post("/cameras", cameraHandler.SaveCamera)
		r.Put("/cameras/{id}", cameraHandler.UpdateCamera)
		r.Delete("/cameras/{id}", cameraHandler.DeleteCamera)
		r.Post("/cameras/{id}/commands", commandHandler.DispatchCamera)
		r.Get("/cameras/{id}/info", statusHandler.CameraInfo)
		r.Post("/cameras/{id}/gestures/disable", commandHandler.DisableGestures)

		r.Post("/command", commandHandler.Raw)
		r.Put("/command", commandHandler.Raw)

		r.Get("/alive", statusHandler.Alive)
		r.Get("/ping/{ip}", statusHandler.Ping)
		r.Get("/camera-status/{ip}", statusHandler.CameraStatus)
	})

	router.Handle("/metrics", promMetrics.Handler())

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: writeTimeout(cfg),
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", slog.String("address", cfg.HTTPServer.Address))

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		log.Info("stopping server", slog.String("signal", sig.String()))
	case err := <-errCh:
		log.Error("server failed", sl.Err(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("failed to stop server", sl.Err(err))

		return
	}

	log.Info("server stopped")
}

// writeTimeout leaves room for a full round plus an awaited refresh.
func writeTimeout(cfg *config.Config) time.Duration {
	t := cfg.HTTPServer.Timeout
	if round := cfg.Camera.CommandTimeout + cfg.FanOut.RefreshTimeout; round > t {
		t = round
	}

	return t
}

func setupStorage(cfg *config.Config, log *slog.Logger) (registry.GroupStorage, registry.CameraStorage, func()) {
	if cfg.Storage == config.StorageMemory {
		log.Warn("using in-memory registry, inventory is lost on restart")

		storage := memory.New()

		return storage, storage, func() {}
	}

	cfg.DB.Password = os.Getenv("POSTGRES_PASSWORD")
	if cfg.DB.Password == "" {
		panic("POSTGRES_PASSWORD is required")
	}

	db, err := postgres.New(cfg.DB)
	if err != nil {
		panic(err)
	}

	return groupstorage.New(db), camerastorage.New(db), func() {
		if err := db.Close(); err != nil {
			log.Error("failed to close storage", sl.Err(err))
		}
	}
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}
