package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vietddude/feedrouter/internal/core/config"
	"github.com/vietddude/feedrouter/internal/core/domain"
	"github.com/vietddude/feedrouter/internal/core/worker"
	redisclient "github.com/vietddude/feedrouter/internal/infra/redis"
	"github.com/vietddude/feedrouter/internal/infra/sink"
	"github.com/vietddude/feedrouter/internal/infra/storage"
	"github.com/vietddude/feedrouter/internal/infra/storage/memory"
	"github.com/vietddude/feedrouter/internal/infra/storage/postgres"
	"github.com/vietddude/feedrouter/internal/routing/health"
	"github.com/vietddude/feedrouter/internal/routing/pipeline"
	"github.com/vietddude/feedrouter/internal/routing/poller"
	"github.com/vietddude/feedrouter/internal/routing/router"
	"github.com/vietddude/feedrouter/internal/routing/source"
)

// serverStopGrace bounds the health server shutdown once the caller's
// deadline has already passed.
const serverStopGrace = 2 * time.Second

// App is the fully wired pipeline:
// source -> poller -> router -> category channels -> workers -> sinks.
type App struct {
	cfg *config.AppConfig

	source       *source.Source
	poller       *poller.Poller
	router       *router.Router
	workers      []*pipeline.Worker
	sinks        []sink.Sink
	failedRepo   storage.FailedDeliveryRepository
	pruner       *worker.Pruner
	monitor      *health.Monitor
	healthServer *health.Server

	db          *postgres.DB
	redisClient *redisclient.Client

	workerGroup errgroup.Group
	hardStop    context.CancelFunc
	startOnce   sync.Once
	log         *slog.Logger
}

// NewApp builds the pipeline from the configuration. It connects to the
// configured failed-delivery backend but starts nothing.
func NewApp(cfg *config.AppConfig) (*App, error) {
	return newApp(cfg, defaultDependencies(cfg))
}

func newApp(cfg *config.AppConfig, deps dependencies) (*App, error) {
	a := &App{
		cfg: cfg,
		log: slog.Default(),
	}

	if err := a.initBackend(context.Background()); err != nil {
		return nil, err
	}

	categories := make([]domain.Category, 0, len(cfg.Categories))
	for _, c := range cfg.Categories {
		categories = append(categories, c.Name)
	}
	a.router = router.New(categories, cfg.Queue.Capacity)

	for _, c := range cfg.Categories {
		s, err := a.newSink(c, deps)
		if err != nil {
			a.closeResources()
			return nil, err
		}
		a.sinks = append(a.sinks, s)

		in, ok := a.router.Channel(c.Name)
		if !ok {
			a.closeResources()
			return nil, fmt.Errorf("no channel for category %s", c.Name)
		}
		a.workers = append(a.workers, pipeline.NewWorker(pipeline.Config{
			Category:        c.Name,
			Input:           in,
			Sink:            s,
			Failed:          a.failedRepo,
			DeliveryTimeout: cfg.Queue.DeliveryTimeout,
		}))
		a.log.Info("Category bound", "category", c.Name, "sink", s.Name())
	}

	a.source = source.New(deps.fetcher, cfg.Feed.URL)
	a.poller = poller.New(poller.Config{
		Interval:    cfg.Feed.PollInterval,
		PollOnStart: cfg.Feed.ShouldPollOnStart(),
	}, a.source, a.router)

	a.pruner = worker.NewPruner(cfg.Failed, a.failedRepo)

	a.monitor = health.NewMonitor(health.Config{
		FeedURL:    cfg.Feed.URL,
		StaleAfter: max(10*cfg.Feed.PollInterval, time.Minute) + cfg.Feed.Timeout,
	}, a.router, a.source, a.failedRepo)
	if !cfg.Server.Disabled {
		a.healthServer = health.NewServer(a.monitor, cfg.Server.Port)
	}

	return a, nil
}

// initBackend selects the failed-delivery store: postgres, then redis,
// then memory.
func (a *App) initBackend(ctx context.Context) error {
	switch {
	case a.cfg.Database.URL != "":
		db, err := postgres.NewDB(ctx, a.cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to connect to db: %w", err)
		}
		if err := db.Migrate(ctx); err != nil {
			_ = db.Close()
			return err
		}
		a.db = db
		a.failedRepo = postgres.NewFailedDeliveryRepo(db)
		a.log.Info("Using PostgreSQL storage")

	case a.cfg.Redis.URL != "":
		client, err := redisclient.NewClient(a.cfg.Redis)
		if err != nil {
			return err
		}
		a.redisClient = client
		a.failedRepo = redisclient.NewFailedDeliveryRepo(client, a.cfg.Redis.KeyPrefix)
		a.log.Info("Using Redis storage")

	default:
		a.failedRepo = memory.NewFailedRepo(memory.NewMemoryStorage())
		a.log.Info("Using Memory storage")
	}
	return nil
}

func (a *App) newSink(c config.CategoryConfig, deps dependencies) (sink.Sink, error) {
	switch c.Sink {
	case config.SinkMail:
		transport, err := deps.transport(a.cfg.SMTP)
		if err != nil {
			return nil, fmt.Errorf("mail sink for %s: %w", c.Name, err)
		}
		return sink.NewMailSink(sink.MailConfig{
			From:          a.cfg.SMTP.From,
			To:            a.cfg.SMTP.To,
			Subject:       a.cfg.SMTP.Subject,
			RatePerMinute: a.cfg.SMTP.RatePerMinute,
		}, transport), nil
	default:
		s, err := sink.NewFileAppendSink(a.cfg.Output.Directory, c.File)
		if err != nil {
			return nil, fmt.Errorf("file sink for %s: %w", c.Name, err)
		}
		return s, nil
	}
}

// Start starts the workers, the poller and the supporting tasks.
func (a *App) Start(ctx context.Context) error {
	started := false
	a.startOnce.Do(func() { started = true })
	if !started {
		return errors.New("app already started")
	}

	runCtx, cancel := context.WithCancel(ctx)
	a.hardStop = cancel

	for _, w := range a.workers {
		a.workerGroup.Go(func() error {
			return w.Run(runCtx)
		})
	}

	go func() {
		if err := a.poller.Run(runCtx); err != nil {
			a.log.Error("Poller failed", "error", err)
		}
	}()

	if a.healthServer != nil {
		go func() {
			if err := a.healthServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.log.Error("Health server failed", "error", err)
			}
		}()
	}

	if a.db != nil {
		a.db.StartMetricsCollector(runCtx)
	}

	go a.pruner.Start(runCtx)

	a.log.Info("Feed router started",
		"feed", a.cfg.Feed.URL,
		"interval", a.cfg.Feed.PollInterval,
		"categories", len(a.workers),
	)
	return nil
}

// Stop shuts the pipeline down: no new polls, the in-flight poll finishes,
// channels are closed and drained, then sinks and backends are released.
// If ctx expires first, pending dispatches and deliveries are abandoned
// and ctx.Err() is returned.
func (a *App) Stop(ctx context.Context) error {
	a.log.Info("Stopping feed router...")

	drained := make(chan error, 1)
	go func() {
		a.poller.Stop()
		a.router.Close()
		drained <- a.workerGroup.Wait()
	}()

	var stopErr error
	select {
	case err := <-drained:
		if err != nil {
			stopErr = err
		}
	case <-ctx.Done():
		a.log.Warn("Shutdown timed out, abandoning queued entries")
		if a.hardStop != nil {
			a.hardStop()
		}
		<-drained
		stopErr = ctx.Err()
	}

	if a.hardStop != nil {
		a.hardStop()
	}

	var errs []error
	errs = append(errs, stopErr)
	if a.healthServer != nil {
		// The shutdown deadline is already reported through stopErr
		serverCtx := ctx
		if ctx.Err() != nil {
			var cancel context.CancelFunc
			serverCtx, cancel = context.WithTimeout(context.Background(), serverStopGrace)
			defer cancel()
		}
		if err := a.healthServer.Stop(serverCtx); err != nil {
			errs = append(errs, fmt.Errorf("health server: %w", err))
		}
	}
	errs = append(errs, a.closeResources())

	return errors.Join(errs...)
}

// closeResources releases sinks and backend connections.
func (a *App) closeResources() error {
	var errs []error
	for _, s := range a.sinks {
		if err := s.Close(); err != nil {
			a.log.Warn("Failed to close sink", "sink", s.Name(), "error", err)
			errs = append(errs, err)
		}
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.log.Warn("Failed to close Redis", "error", err)
			errs = append(errs, err)
		}
	}

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Warn("Failed to close DB", "error", err)
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Health returns the current health report.
func (a *App) Health(ctx context.Context) health.HealthReport {
	return a.monitor.CheckHealth(ctx)
}

// FailedDeliveries exposes the failed-delivery store.
func (a *App) FailedDeliveries() storage.FailedDeliveryRepository {
	return a.failedRepo
}
