// Package main wires together the lead generation service binary.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	gcpubsub "cloud.google.com/go/pubsub"
	"go.uber.org/zap"

	"github.com/mwhitlock/leadforge/internal/adapter"
	"github.com/mwhitlock/leadforge/internal/adapter/directory"
	"github.com/mwhitlock/leadforge/internal/adapter/profile"
	"github.com/mwhitlock/leadforge/internal/adapter/searchindex"
	"github.com/mwhitlock/leadforge/internal/api"
	"github.com/mwhitlock/leadforge/internal/clock/system"
	"github.com/mwhitlock/leadforge/internal/config"
	"github.com/mwhitlock/leadforge/internal/enrich"
	collyfetcher "github.com/mwhitlock/leadforge/internal/fetcher/colly"
	"github.com/mwhitlock/leadforge/internal/id/uuid"
	"github.com/mwhitlock/leadforge/internal/leads"
	"github.com/mwhitlock/leadforge/internal/logging"
	"github.com/mwhitlock/leadforge/internal/metrics"
	"github.com/mwhitlock/leadforge/internal/orchestrator"
	"github.com/mwhitlock/leadforge/internal/policy/ratelimit"
	"github.com/mwhitlock/leadforge/internal/progress"
	"github.com/mwhitlock/leadforge/internal/progress/sinks"
	memorypublisher "github.com/mwhitlock/leadforge/internal/publisher/memory"
	pubsubpublisher "github.com/mwhitlock/leadforge/internal/publisher/pubsub"
	queuememory "github.com/mwhitlock/leadforge/internal/queue/memory"
	storememory "github.com/mwhitlock/leadforge/internal/store/memory"
	storepostgres "github.com/mwhitlock/leadforge/internal/store/postgres"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck // best-effort flush
	zap.ReplaceGlobals(logger)

	metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clock := system.New()
	idGen := uuid.New()

	jobStore := storememory.NewJobStore(storememory.Config{
		Retention:     cfg.Retention(),
		SweepInterval: cfg.SweepInterval(),
	}, clock, logger.Named("jobstore"))
	go jobStore.Run(ctx)

	var leadStore leads.LeadStore
	if cfg.DB.DSN != "" {
		pgStore, err := storepostgres.NewLeadStore(ctx, storepostgres.LeadStoreConfig{
			DSN:      cfg.DB.DSN,
			Table:    cfg.DB.Table,
			MaxConns: cfg.DB.MaxConns,
			MinConns: cfg.DB.MinConns,
		})
		if err != nil {
			logger.Fatal("lead store init failed", zap.Error(err))
		}
		leadStore = pgStore
		defer pgStore.Close()
	} else {
		logger.Warn("db.dsn not set, lead persistence disabled")
	}

	var publisher leads.Publisher = memorypublisher.New()
	if cfg.PubSub.TopicName != "" {
		client, err := gcpubsub.NewClient(ctx, cfg.PubSub.ProjectID)
		if err != nil {
			logger.Fatal("pubsub client init failed", zap.Error(err))
		}
		pub := pubsubpublisher.New(client)
		defer pub.Close() //nolint:errcheck // best-effort close
		publisher = pub
		logger.Info("pubsub publisher enabled",
			zap.String("project", cfg.PubSub.ProjectID),
			zap.String("topic", cfg.PubSub.TopicName),
		)
	}

	promSink, err := sinks.NewPrometheusSink(nil)
	if err != nil {
		logger.Fatal("progress sink init failed", zap.Error(err))
	}
	hub := progress.NewHub(progress.Config{
		BufferSize:     cfg.Progress.BufferSize,
		MaxBatchEvents: cfg.Progress.MaxBatchEvents,
		MaxBatchWait:   time.Duration(cfg.Progress.MaxBatchWaitMs) * time.Millisecond,
		Logger:         logger.Named("progress"),
	}, sinks.NewLogSink(logger.Named("progress.events")), promSink)

	limiter := ratelimit.New(ratelimit.Config{
		DefaultRPS:   cfg.Scrape.PerDomainRPS,
		DefaultBurst: cfg.Scrape.PerDomainBurst,
	})
	fetcher := collyfetcher.New(collyfetcher.Config{
		UserAgent: cfg.HTTP.UserAgent,
		Timeout:   cfg.FetchTimeout(),
	}, limiter)

	registry, err := adapter.NewRegistry(
		searchindex.New(fetcher, clock, searchindex.Config{
			Endpoint:   cfg.Sources.SearchIndexEndpoint,
			MaxResults: cfg.Sources.SearchIndexMax,
		}, logger.Named("searchindex")),
		directory.New(fetcher, clock, directory.Config{
			Endpoint:   cfg.Sources.DirectoryEndpoint,
			MaxResults: cfg.Sources.DirectoryMax,
		}, logger.Named("directory")),
		profile.New(fetcher, clock, profile.Config{
			Endpoint:    cfg.Sources.ProfileEndpoint,
			MaxProfiles: cfg.Sources.ProfileMax,
		}, logger.Named("profile")),
	)
	if err != nil {
		logger.Fatal("adapter registry init failed", zap.Error(err))
	}

	enricher := enrich.New(fetcher, enrich.Config{
		FetchTimeout: cfg.EnrichTimeout(),
	}, logger.Named("enrich"))

	queue := queuememory.NewQueue(cfg.Scrape.QueueDepth)
	workerCfg := orchestrator.Config{
		JobTimeout:      cfg.JobTimeout(),
		QueryBudget:     cfg.QueryBudget(),
		QueryDelay:      cfg.QueryDelay(),
		CompletionTopic: cfg.PubSub.TopicName,
	}
	var workers []*orchestrator.Worker
	for i := 0; i < cfg.Scrape.Concurrency; i++ {
		workers = append(workers, orchestrator.New(
			queue,
			jobStore,
			leadStore,
			registry.All(),
			enricher,
			publisher,
			hub,
			clock,
			workerCfg,
			logger.Named("worker").With(zap.Int("index", i)),
		))
	}
	dispatch := orchestrator.NewDispatcher(queue, workers)

	apiServer := api.NewServer(jobStore, leadStore, dispatch, idGen, clock, cfg, logger.Named("api"))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("dispatcher started", zap.Int("workers", cfg.Scrape.Concurrency))
		dispatch.Run(ctx)
	}()

	go func() {
		logger.Info("http server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	queue.Close()
	if err := hub.Close(shutdownCtx); err != nil {
		logger.Error("progress hub shutdown error", zap.Error(err))
	}
	logger.Info("shutdown complete")
}
