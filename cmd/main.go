package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Vovarama1992/cableposter/internal/config"
	"github.com/Vovarama1992/cableposter/internal/delivery"
	ws "github.com/Vovarama1992/cableposter/internal/delivery/ws"
	"github.com/Vovarama1992/cableposter/internal/domain"
	"github.com/Vovarama1992/cableposter/internal/infra"
	"github.com/Vovarama1992/cableposter/internal/ports"
	"github.com/Vovarama1992/cableposter/internal/scheduler"
	"github.com/Vovarama1992/go-utils/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type mediaStore interface {
	ports.MediaRepository
	EnsureSchema(ctx context.Context) error
}

func main() {

	// LOGGER
	zcore, _ := zap.NewProduction()
	defer func() { _ = zcore.Sync() }()
	zl := logger.NewZapLogger(zcore.Sugar())

	// ENV
	cfg, err := config.Load(".env")
	if err != nil {
		panic("config: " + err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// STORE
	repo, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		panic("store: " + err.Error())
	}
	defer closeStore()

	ctxSchema, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := repo.EnsureSchema(ctxSchema); err != nil {
		panic("store schema: " + err.Error())
	}

	// OBJECT STORAGE
	storage, err := infra.NewS3Storage(ctx, infra.S3Config{
		AccessKey: cfg.AWSKey,
		SecretKey: cfg.AWSSecret,
		Region:    cfg.AWSRegion,
		Bucket:    cfg.AWSBucket,
		Endpoint:  cfg.AWSEndpoint,
	})
	if err != nil {
		panic("s3: " + err.Error())
	}

	// CLIENTS
	feed := infra.NewRedditFeed(infra.SubredditListingURL(cfg.Subreddit), cfg.UserAgent, cfg.HTTPTimeout)
	downloader := infra.NewHTTPDownloader(cfg.UserAgent, cfg.HTTPTimeout, cfg.DownloadRate)
	twitter := infra.NewTwitterClient(infra.TwitterConfig{
		ConsumerKey:    cfg.ConsumerKey,
		ConsumerSecret: cfg.ConsumerSecret,
		AccessToken:    cfg.UserAccessToken,
		AccessSecret:   cfg.UserAccessSecret,
	}, cfg.HTTPTimeout)

	// METRICS + EVENTS
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := domain.NewMetrics(reg)
	bus := domain.NewEventBus(256)

	// PIPELINE
	ingestService := domain.NewIngestService(repo, feed, downloader, storage, domain.IngestConfig{
		TempDir:       cfg.TempDir,
		StoragePrefix: cfg.StoragePrefix,
		PermalinkBase: "https://reddit.com",
		Concurrency:   cfg.IngestConcurrency,
		ItemTimeout:   cfg.ItemTimeout,
	}, zl, bus, metrics)

	publishService := domain.NewPublishService(repo, storage, twitter, domain.PublishConfig{
		TempDir:   cfg.TempDir,
		FeedLabel: cfg.FeedLabel,
	}, zl, bus, metrics)

	// SCHEDULER
	sched := scheduler.New(cfg.Location(), cfg.CycleTimeout, zl)

	err = sched.Register(domain.CycleIngest, cfg.IngestSchedule, func(ctx context.Context) error {
		_, err := ingestService.IngestOnce(ctx)
		return err
	})
	if err != nil {
		panic(err.Error())
	}

	err = sched.Register(domain.CyclePublish, cfg.PublishSchedule, func(ctx context.Context) error {
		_, err := publishService.PublishOnce(ctx)
		if errors.Is(err, ports.ErrNoMediaAvailable) {
			return nil
		}
		return err
	})
	if err != nil {
		panic(err.Error())
	}

	sched.Start()

	if cfg.IngestOnBoot {
		_, _ = sched.Trigger(domain.CycleIngest)
	}
	if cfg.PublishOnBoot {
		_, _ = sched.Trigger(domain.CyclePublish)
	}

	// WS HUB
	hub := ws.NewHub(zl)
	go ws.Forward(hub, bus.Events())

	// HANDLERS
	authService := domain.NewAuthService(cfg.AdminPasswordHash, cfg.AuthSecret)
	authHandler := delivery.NewAuthHandler(authService, zl)
	mediaHandler := delivery.NewMediaHandler(repo, sched, zl)

	// ROUTER
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "X-Auth", "Authorization"},
		AllowCredentials: true,
	}))

	delivery.RegisterRoutes(r, authHandler, authService, mediaHandler, ws.WSHandler(hub))

	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zl.Log(logger.LogEntry{
			Level:   "info",
			Message: "server started",
			Fields:  map[string]any{"port": cfg.Port, "store": cfg.StoreDriver},
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Log(logger.LogEntry{
				Level:   "error",
				Message: "server crashed",
				Error:   err,
			})
			stop()
		}
	}()

	<-ctx.Done()

	// SHUTDOWN
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	_ = srv.Shutdown(shutdownCtx)
	sched.Stop(shutdownCtx)

	zl.Log(logger.LogEntry{Level: "info", Message: "shutdown complete"})
}

func openStore(ctx context.Context, cfg config.Config) (mediaStore, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		client, err := infra.NewMongoClient(ctx, cfg.DatabaseURI)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() { _ = client.Disconnect(context.Background()) }
		return infra.NewMongoMediaRepo(client.Database(cfg.MongoDatabase)), closeFn, nil

	default:
		pool, err := infra.NewPgxPool(ctx, cfg.DatabaseURI)
		if err != nil {
			return nil, nil, err
		}
		return infra.NewPostgresMediaRepo(pool), pool.Close, nil
	}
}
