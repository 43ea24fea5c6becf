package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/dailyfocus/focus/internal/clock"
	"github.com/dailyfocus/focus/internal/config"
	"github.com/dailyfocus/focus/internal/content"
	"github.com/dailyfocus/focus/internal/events"
	"github.com/dailyfocus/focus/internal/handler/health"
	"github.com/dailyfocus/focus/internal/handler/lifecycle"
	"github.com/dailyfocus/focus/internal/metrics"
	"github.com/dailyfocus/focus/internal/progress"
	"github.com/dailyfocus/focus/internal/reminder"
	"github.com/dailyfocus/focus/internal/server"
	"github.com/dailyfocus/focus/internal/session"
	"github.com/dailyfocus/focus/internal/storage"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	clk := clock.System()

	// --- Store ---
	store, err := storage.Open(ctx, cfg.StoreOptions())
	if err != nil {
		return fmt.Errorf("opening %s store: %w", cfg.StoreBackend, err)
	}
	defer store.Close()
	logger.Info("opened store", "backend", cfg.StoreBackend)

	// --- Content ---
	catalog := content.NewCatalog(content.Default())
	var watcher *content.Watcher
	if cfg.ContentDir != "" {
		watcher = content.NewWatcher(cfg.ContentDir, catalog, logger)
		watcher.OnReload = func(n int) { metrics.CatalogStories.Set(float64(n)) }
		if err := watcher.Reload(); err != nil {
			return fmt.Errorf("loading stories from %s: %w", cfg.ContentDir, err)
		}
	}
	metrics.CatalogStories.Set(float64(catalog.Len()))

	// --- Progress and reminders ---
	broker := server.NewBroker()
	var recorder *progress.Recorder
	scheduler := reminder.NewLocalScheduler(clk, func(d reminder.Delivered) {
		metrics.RemindersDelivered.Inc()
		logger.Info("reminder delivered", "reminder_id", d.ID)
		broker.Publish(server.SSEEvent{Type: server.EventReminder, Data: d})
		// The scheduler fires once; plan tomorrow evening's reminder.
		recorder.SyncReminder(ctx)
	})
	defer scheduler.Close()
	planner := reminder.NewPlanner(store, scheduler, clk, cfg.ReminderDefaults(), logger)

	recorder = progress.NewRecorder(store, clk, logger, progress.WithReminders(planner))
	recorder.Hydrate(ctx)
	recorder.SyncReminder(ctx)

	// --- Session engine ---
	engine := session.NewEngine(clk, catalog,
		session.WithWakeLock(metrics.Waker{}),
		session.WithLogger(logger),
	)
	loop := session.NewLoop(engine, session.NewMonitor(engine, session.AppActive), clk, logger)

	api := server.NewAPI(server.Deps{
		Loop:      loop,
		Stories:   catalog,
		Recorder:  recorder,
		Reminders: planner,
		Broker:    broker,
		Logger:    logger,
		Lifecycle: lifecycle.NewHandler(loop, logger).Routes(),
		RateLimit: cfg.RateLimitPerMinute,
	})

	engine.Subscribe(recorder.Listener(ctx))
	engine.Subscribe(metrics.RecordResult)
	engine.Subscribe(api.PublishResult)
	loop.OnStarted(api.PublishStarted)
	loop.OnAdvanced(api.PublishAdvanced)
	loop.OnGateOpen(api.PublishGateOpen)

	var publisher *events.Publisher
	if cfg.AMQPURL != "" {
		publisher, err = events.Dial(cfg.AMQPURL, cfg.AMQPExchange, logger)
		if err != nil {
			return fmt.Errorf("connecting to amqp: %w", err)
		}
		engine.Subscribe(publisher.Enqueue)
		logger.Info("publishing session events", "exchange", cfg.AMQPExchange)
	}

	// --- HTTP Server ---
	srv := server.New(cfg.HTTPAddr, logger, func(r chi.Router) {
		r.Mount("/healthz", health.NewHandler(logger, map[string]health.Checker{
			"store": store,
			"engine": health.CheckerFunc(func(ctx context.Context) error {
				_, _, err := loop.Snapshot(ctx)
				return err
			}),
		}).Routes())
		server.AddRoutes(r, api)
	})

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return loop.Run(gctx)
	})

	if watcher != nil {
		g.Go(func() error {
			return watcher.Run(gctx)
		})
	}

	if publisher != nil {
		g.Go(func() error {
			return publisher.Run(gctx)
		})
	}

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}
