// Package app wires configuration, adapters and the pipeline together.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"CityWatch/internal/api"
	"CityWatch/internal/classify"
	"CityWatch/internal/clustering"
	"CityWatch/internal/config"
	"CityWatch/internal/dedup"
	"CityWatch/internal/domain"
	"CityWatch/internal/filter"
	"CityWatch/internal/geo"
	"CityWatch/internal/guard"
	"CityWatch/internal/infrastructure/geocode"
	"CityWatch/internal/infrastructure/groupweb"
	"CityWatch/internal/infrastructure/llm"
	"CityWatch/internal/infrastructure/realtime"
	"CityWatch/internal/infrastructure/scheduler"
	"CityWatch/internal/infrastructure/storage"
	"CityWatch/internal/infrastructure/telegram"
	"CityWatch/internal/logging"
	"CityWatch/internal/orgs"
	"CityWatch/internal/ports"
	"CityWatch/internal/queue"
	"CityWatch/internal/ratelimit"
	"CityWatch/internal/usecase"
)

const ringWarmup = 50

// App owns every long-lived component and their shutdown order.
type App struct {
	cfg    config.Config
	logger *slog.Logger

	db        *sql.DB
	redis     *redis.Client
	publisher *realtime.Publisher
	pipeline  *usecase.Pipeline
	ring      *dedup.PublishedRing
	watcher   *usecase.GroupWatcher
	queue     *queue.DeliveryQueue
	channel   ports.ChannelFeed
	server    *http.Server

	pollSched  *scheduler.TickerScheduler
	drainSched *scheduler.TickerScheduler
}

// New builds the full object graph. It fails fast on broken infrastructure
// but tolerates a missing organization registry.
func New(cfg config.Config, logger *slog.Logger) (*App, error) {
	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := storage.RunMigrations(db); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	repo := storage.NewComplaintRepository(db)

	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	publisher := realtime.NewPublisher(rdb, cfg.Redis.Stream, logging.Component(logger, "realtime"))

	registry, err := orgs.Load(cfg.Registry.Path)
	if err != nil {
		logger.Warn("organization registry unavailable, matching disabled",
			"path", cfg.Registry.Path, "error", err)
		registry = orgs.NewRegistry(nil)
	}

	classifier := classify.New(
		llm.NewClient(cfg.AI), cfg.AI.Model,
		cfg.Cache.ClassifyTTL(), cfg.Cache.ClassifyCapacity,
		logging.Component(logger, "classify"))
	resolver := geo.New(
		geocode.NewClient(cfg.Geocoder), geo.DefaultLandmarks(), cfg.City.Name,
		logging.Component(logger, "geo"))

	ring := dedup.NewPublishedRing(cfg.Dedup.RecentPublished)
	deliveryQueue := queue.New(publisher, queue.Options{
		Capacity:        cfg.Queue.Capacity,
		MaxRetries:      cfg.Queue.MaxRetries,
		Pacing:          cfg.Queue.Pacing(),
		DeliveryTimeout: cfg.Queue.DeliveryTimeout(),
	}, logging.Component(logger, "queue"))

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Guard:      guard.New(cfg.Guard.HighWater, cfg.Guard.LowWater, logging.Component(logger, "guard")),
		Filter:     filter.New(cfg.Filter.MinLength),
		Classifier: classifier,
		Resolver:   resolver,
		Registry:   registry,
		Dedup: dedup.New(repo, dedup.Thresholds{
			Window:           cfg.Dedup.Window(),
			BBoxLatDegrees:   cfg.Dedup.BBoxLatDegrees,
			BBoxLonDegrees:   cfg.Dedup.BBoxLonDegrees,
			AddressPrefixLen: cfg.Dedup.AddressPrefixLen,
			DescShortLen:     cfg.Dedup.DescShortLen,
			DescLongLen:      cfg.Dedup.DescLongLen,
		}, logging.Component(logger, "dedup")),
		Ring:     ring,
		Repo:     repo,
		Queue:    deliveryQueue,
		Provider: cfg.City.Provider,
		Logger:   logging.Component(logger, "pipeline"),
	})

	limits := ratelimit.NewSet(cfg.RateLimits.Window(),
		cfg.RateLimits.Submit, cfg.RateLimits.Admin, cfg.RateLimits.General)
	submitter := usecase.NewSubmitter(classifier, resolver, registry, repo, limits,
		logging.Component(logger, "submit"))

	clusters := clustering.NewService(repo,
		cfg.Clustering.EpsMeters, cfg.Clustering.MinClusterSize, cfg.Clustering.MinSamples,
		cfg.Cache.ClusterTTL(), logging.Component(logger, "clustering"))

	watcher := usecase.NewGroupWatcher(groupweb.NewPoller(nil), pipeline, cfg.Groups,
		logging.Component(logger, "groups"))

	var channel ports.ChannelFeed
	if cfg.Telegram.BotToken != "" {
		channel = telegram.NewListener(cfg.Telegram.BotToken,
			secsOrDefault(cfg.Telegram.PollTimeoutSeconds, 50),
			logging.Component(logger, "telegram"))
	} else {
		logger.Warn("telegram token not configured, channel feed disabled")
	}

	handler := api.NewHandler(submitter, clusters, dbPinger{db}, publisher,
		logging.Component(logger, "api"))
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	handler.RegisterRoutes(engine)

	return &App{
		cfg:        cfg,
		logger:     logger,
		db:         db,
		redis:      rdb,
		publisher:  publisher,
		pipeline:   pipeline,
		ring:       ring,
		watcher:    watcher,
		queue:      deliveryQueue,
		channel:    channel,
		server:     &http.Server{Addr: cfg.HTTP.Addr, Handler: engine},
		pollSched:  scheduler.NewTickerScheduler(cfg.Groups.PollInterval(), logging.Component(logger, "poll-scheduler")),
		drainSched: scheduler.NewTickerScheduler(cfg.Queue.DrainInterval(), logging.Component(logger, "drain-scheduler")),
	}, nil
}

// Run starts the feeds, the schedulers and the HTTP server, then blocks until
// ctx is cancelled and everything has shut down.
func (a *App) Run(ctx context.Context) error {
	a.warmPublishedRing(ctx)

	if a.channel != nil {
		go func() {
			if err := a.channel.Listen(ctx, func(ctx context.Context, msg domain.RawMessage) {
				if err := a.pipeline.Process(ctx, msg); err != nil {
					a.logger.Error("process channel message", "message", msg.MessageID, "error", err)
				}
			}); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Error("channel feed stopped", "error", err)
			}
		}()
	}

	if err := a.pollSched.Start(ctx, func(time.Time) { a.watcher.PollOnce(ctx) }); err != nil {
		return fmt.Errorf("start group polling: %w", err)
	}
	if err := a.drainSched.Start(ctx, func(time.Time) { a.queue.ProcessAll(ctx) }); err != nil {
		return fmt.Errorf("start queue drain: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", "addr", a.cfg.HTTP.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	a.logger.Info("shutting down")
	return a.shutdown()
}

func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var errs []error
	if err := a.server.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	if err := a.pollSched.Stop(ctx); err != nil {
		errs = append(errs, fmt.Errorf("stop poll scheduler: %w", err))
	}
	if err := a.drainSched.Stop(ctx); err != nil {
		errs = append(errs, fmt.Errorf("stop drain scheduler: %w", err))
	}
	// one last drain so accepted payloads are not lost on clean exit
	a.queue.ProcessAll(ctx)

	if err := a.redis.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close redis: %w", err))
	}
	if err := a.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close database: %w", err))
	}
	return errors.Join(errs...)
}

// warmPublishedRing replays recent stream entries so a restart does not
// re-announce complaints published just before it.
func (a *App) warmPublishedRing(ctx context.Context) {
	payloads, err := a.publisher.Recent(ctx, ringWarmup)
	if err != nil {
		a.logger.Warn("cannot warm published ring", "error", err)
		return
	}
	for i := len(payloads) - 1; i >= 0; i-- {
		a.ring.Remember(payloads[i])
	}
	a.logger.Info("published ring warmed", "entries", len(payloads))
}

type dbPinger struct{ db *sql.DB }

func (p dbPinger) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

func secsOrDefault(v, def int) time.Duration {
	if v <= 0 {
		v = def
	}
	return time.Duration(v) * time.Second
}
