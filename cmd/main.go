package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"sensor_dashboard/internal/command"
	"sensor_dashboard/internal/config"
	"sensor_dashboard/internal/handlers"
	"sensor_dashboard/internal/logger"
	"sensor_dashboard/internal/metrics"
	"sensor_dashboard/internal/notify"
	"sensor_dashboard/internal/poller"
	"sensor_dashboard/internal/projection"
	"sensor_dashboard/internal/repository"
	"sensor_dashboard/internal/repository/db"
	"sensor_dashboard/internal/server"
	"sensor_dashboard/internal/service"
	"sensor_dashboard/internal/store"
	"sensor_dashboard/internal/telemetry"
)

const shutdownTimeout = 10 * time.Second

// @title        Sensor Dashboard API
// @version      1.0
// @description  Synced telemetry projections and device command reconciliation.
// @BasePath     /
func main() {
	// load configs/config.yml, .env and SENSOR_DASHBOARD_* overrides
	cfg, err := config.Load()
	if err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}
	log := logger.Get(cfg.LogLevel)

	sqlDB, err := openDB(cfg.DBPath, log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	// wire dependencies
	repos := repository.NewRepository(sqlDB)
	client := telemetry.New(telemetry.Options{
		BaseURL:         cfg.Telemetry.BaseURL,
		Timeout:         cfg.Telemetry.Timeout,
		BreakerFailures: cfg.Telemetry.BreakerFailures,
		BreakerOpenFor:  cfg.Telemetry.BreakerOpenFor,
		Log:             log,
	})
	readings := store.New()
	hub := notify.NewHub()

	channel := command.New(log, client,
		command.WithNotifier(buildNotifiers(ctx, cfg, repos, hub, log)),
		command.WithObserver(m),
		command.WithReconcileTimeout(cfg.Command.ReconcileTimeout),
	)
	p := poller.New(log, buildJobs(cfg, client, readings, channel, log),
		poller.WithObserver(m),
		poller.WithStalenessThreshold(cfg.Poll.StalenessThreshold),
	)

	services := service.NewService(service.Deps{
		Repos:   repos,
		Store:   readings,
		Poller:  p,
		Device:  channel,
		Format:  projection.Format{Location: cfg.Display.Location, Layout: cfg.Display.TimeLayout},
		Metrics: cfg.Display.Metrics,
	})
	apiHandler := handlers.NewHandler(services, log,
		handlers.WithNotices(hub),
		handlers.WithMetrics(m, reg),
	)

	// first tick of every cycle, including the device status check, fires immediately
	p.Start(ctx)

	srv := &server.Server{}
	runHTTPServer(srv, cfg.Port, apiHandler, log)

	waitForShutdown(cancel, p, readings, srv, log)
}

// openDB initializes the SQLite audit database.
func openDB(path string, log *logger.Logger) (*sql.DB, error) {
	if path == "" {
		log.Infow("db.path not set in config; using default file", "default", "app.db")
		path = "app.db"
	}
	return db.InitDB(path)
}

// buildJobs declares the poll cycles. The event counter cycle is optional.
func buildJobs(cfg *config.Config, client *telemetry.Client, s *store.ReadingStore, ch *command.Channel, log *logger.Logger) []poller.Job {
	jobs := []poller.Job{
		poller.LatestJob(client, s, cfg.Poll.LatestInterval),
		poller.HistoryJob(client, s, cfg.Poll.HistoryInterval),
		poller.DeviceStatusJob(ch, cfg.Poll.StatusInterval),
	}
	if cfg.Poll.EventCounterEnabled {
		jobs = append(jobs, poller.EventCounterJob(client, s, cfg.Poll.EventCounterInterval, log))
	}
	return jobs
}

// buildNotifiers fans notices out to the log, WebSocket clients, the audit log and,
// when a broker is configured, MQTT. An unreachable broker is logged and skipped.
func buildNotifiers(ctx context.Context, cfg *config.Config, repos *repository.Repository, hub *notify.Hub, log *logger.Logger) notify.Multi {
	out := notify.Multi{
		notify.NewLogNotifier(log),
		hub,
		notify.NewAuditNotifier(repos.EventRepo, log),
	}
	if cfg.MQTT.Broker == "" {
		return out
	}
	client, err := notify.ConnectMQTT(ctx, notify.MQTTOptions{
		Broker:   cfg.MQTT.Broker,
		ClientID: cfg.MQTT.ClientID,
	}, log)
	if err != nil {
		log.Errorw("mqtt notices disabled", "err", err)
		return out
	}
	publisher := notify.NewMQTTNotifier(client, cfg.MQTT.Topic, log)
	go func() {
		<-ctx.Done()
		publisher.Close()
	}()
	return append(out, publisher)
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown:
// polling stops first so no late result is applied, then the store is cleared.
func waitForShutdown(cancel context.CancelFunc, p *poller.Poller, readings *store.ReadingStore, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	p.Stop()
	readings.Reset()
	cancel()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
