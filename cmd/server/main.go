package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/crashlens/crashlens-core/internal/agents"
	"github.com/crashlens/crashlens-core/internal/api"
	"github.com/crashlens/crashlens-core/internal/config"
	"github.com/crashlens/crashlens-core/internal/judge"
	"github.com/crashlens/crashlens-core/internal/pipeline"
	"github.com/crashlens/crashlens-core/internal/weavstore"
	"github.com/crashlens/crashlens-core/pkg/logger"
	"github.com/crashlens/crashlens-core/pkg/streams"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logger.New(cfg.LogLevel)
	logger.Info("Starting CRASHLENS", "environment", cfg.Environment)

	client, err := streams.NewRedisClient(cfg.Streams)
	if err != nil {
		logger.Fatal("Failed to connect to stream transport", "error", err)
	}
	defer client.Close()
	logger.Info("Stream transport connected", "addr", cfg.Streams.Addr)

	store, err := weavstore.NewStore(cfg.Weaviate, logger)
	if err != nil {
		logger.Fatal("Failed to initialize document store", "error", err)
	}
	logger.Info("Document store initialized", "host", cfg.Weaviate.Host)

	judgeProvider := newJudgeProvider(cfg, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		logger.Info("Shutdown signal received")
		cancel()
	}()

	activity := agents.NewActivityPublisher(client, logger)

	triage := agents.NewTriage(judgeProvider, store, client, activity, logger)
	window := agents.NewWindow(
		time.Duration(cfg.Pattern.WindowSeconds)*time.Second,
		cfg.Pattern.Threshold,
	)
	detector := agents.NewPatternDetector(
		window,
		time.Duration(cfg.Pattern.CheckIntervalSeconds)*time.Second,
		judgeProvider, store, client, activity, logger,
	)
	resolution := agents.NewResolution(judgeProvider, store, client, activity, logger)

	consumerOpts := pipeline.Options{
		Block:        time.Duration(cfg.Streams.BlockMs) * time.Millisecond,
		Batch:        int64(cfg.Streams.BatchSize),
		RetryBackoff: time.Duration(cfg.Streams.RetryBackoffMs) * time.Millisecond,
	}
	consumers := []*pipeline.Consumer{
		pipeline.NewConsumer(client, streams.StreamIncidents, streams.GroupTriage, "triage-1", triage.Handle, logger, consumerOpts),
		pipeline.NewConsumer(client, streams.StreamIncidents, streams.GroupPattern, "pattern-1", detector.Handle, logger, consumerOpts),
		pipeline.NewConsumer(client, streams.StreamIncidentAnalyzed, streams.GroupResolution, "resolution-1", resolution.Handle, logger, consumerOpts),
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		activity.Run(ctx)
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		detector.Run(ctx)
	}()
	for _, c := range consumers {
		wg.Add(1)
		go func(c *pipeline.Consumer) {
			defer wg.Done()
			if err := c.Run(ctx); err != nil && ctx.Err() == nil {
				logger.Error("Consumer exited", "error", err)
				cancel()
			}
		}(c)
	}

	apiServer := api.NewServer(cfg, logger, client, store)
	if err := apiServer.Start(ctx); err != nil {
		logger.Error("Server failed", "error", err)
	}

	cancel()
	wg.Wait()
	logger.Info("CRASHLENS shutdown complete")
}

func newJudgeProvider(cfg *config.Config, log logger.Logger) judge.Provider {
	if cfg.Judge.Provider == "rules" || cfg.Judge.APIKey == "" {
		log.Warn("No hosted model configured, using rule-based judgments only")
		return judge.NewRulesProvider()
	}
	provider, err := judge.NewOpenAIProvider(cfg.Judge, log)
	if err != nil {
		log.Warn("Hosted model unavailable, using rule-based judgments only", "error", err)
		return judge.NewRulesProvider()
	}
	return provider
}
