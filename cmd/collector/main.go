package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/qepting91/social-collector/internal/checkpoint"
	"github.com/qepting91/social-collector/internal/collector"
	"github.com/qepting91/social-collector/internal/config"
	"github.com/qepting91/social-collector/internal/dashboard"
	"github.com/qepting91/social-collector/internal/domain"
	"github.com/qepting91/social-collector/internal/engine"
	"github.com/qepting91/social-collector/internal/ingest"
	"github.com/qepting91/social-collector/internal/storage"
)

func main() {
	// 1. Setup
	godotenv.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.FromEnv()
	if err != nil {
		logger.Error("Bad configuration", "err", err)
		os.Exit(1)
	}

	dataFile := filepath.Join(cfg.OutputDir, "current.ndjson")

	// 2. Run Dashboard
	go func() {
		logger.Info("Starting Dashboard", "port", cfg.Port)
		if err := dashboard.StartServer(dataFile, cfg.Port); err != nil {
			logger.Error("Dashboard failed", "err", err)
		}
	}()

	// 3. Load Inputs (missing files contribute no tasks)
	inputs := loadInputs(cfg, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 4. Initialize Adapters + per-platform Limiters
	adapters := make(map[domain.Platform]collector.SourceAdapter)
	limiters := make(map[domain.Platform]*engine.Limiter)
	for _, platform := range []domain.Platform{
		domain.PlatformReddit, domain.PlatformTelegram,
		domain.PlatformTwitter, domain.PlatformYouTube,
	} {
		a, err := collector.NewAdapter(platform, cfg)
		if err != nil {
			logger.Warn("Platform disabled", "platform", platform, "reason", err)
			continue
		}
		adapters[platform] = a
		limiters[platform] = engine.NewLimiter(cfg.DelayBetweenRequests, cfg.BackoffBase, cfg.BackoffMax)
	}

	// YouTube channels expand into per-video comment tasks.
	if yt, ok := adapters[domain.PlatformYouTube].(*collector.YouTubeAdapter); ok {
		window := domain.DateWindow{Start: cfg.StartDate, End: cfg.EndDate}
		for _, ch := range inputs.youtubeChannels {
			ids, err := yt.ChannelVideoIDs(ctx, ch.Identifier, window, inputs.parsed.Keywords, cfg.MaxVideosPerChannel)
			if err != nil {
				logger.Warn("Channel expansion failed", "channel", ch.Identifier, "err", err)
			}
			for _, id := range ids {
				inputs.parsed.YouTubeVideos = append(inputs.parsed.YouTubeVideos, ingest.Target{Identifier: id})
			}
		}
	}

	tasks := ingest.BuildTasks(cfg, inputs.parsed)
	if len(tasks) == 0 {
		logger.Error("No collection tasks configured; check input files")
		os.Exit(1)
	}

	// 5. Engine + Checkpoints
	store := checkpoint.NewFileStore(filepath.Join(cfg.CheckpointDir, "checkpoints.json"))
	eng := engine.New(store, logger, cfg.RetryAttempts, cfg.MinTextLength)

	// 6. Concurrency Setup
	jobQueue := make(chan domain.CollectionTask, len(tasks))
	resultQueue := make(chan domain.Record, 100)
	var workerWg sync.WaitGroup
	var writerWg sync.WaitGroup

	writer := &storage.WriterService{FilePath: dataFile, SyncEvery: cfg.SaveFrequency, Logger: logger}
	writerWg.Add(1)
	go writer.Start(&writerWg, resultQueue)

	for i := 0; i < cfg.Workers; i++ {
		workerWg.Add(1)
		go func() {
			defer workerWg.Done()
			for t := range jobQueue {
				adapter, ok := adapters[t.Platform]
				if !ok {
					continue
				}
				res, err := eng.Run(ctx, t, adapter, limiters[t.Platform], resultQueue)
				switch {
				case err == nil:
					logger.Info("Task done", "task", t.String(), "outcome", res.Outcome,
						"collected", res.Collected, "duplicates", res.Duplicates,
						"out_of_window", res.OutOfWindow, "malformed", res.Malformed)
				case errors.Is(err, context.Canceled):
					logger.Info("Task interrupted, checkpoint saved", "task", t.String())
					return
				default:
					logger.Error("Task failed", "task", t.String(), "err", err)
				}
			}
		}()
	}

	// 7. Enqueue Jobs
	logger.Info("Starting collection run", "tasks", len(tasks))
	for _, t := range tasks {
		jobQueue <- t
	}
	close(jobQueue)

	// 8. Graceful Shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Shutdown signal received")
		cancel()
	}()

	workerWg.Wait()
	close(resultQueue)
	writerWg.Wait()

	// 9. Exports + Summary
	if n, err := storage.ExportCSV(dataFile, filepath.Join(cfg.OutputDir, "current.csv")); err != nil {
		logger.Error("CSV export failed", "err", err)
	} else {
		logger.Info("CSV exported", "rows", n)
	}
	if summary, err := storage.BuildSummary(dataFile); err != nil {
		logger.Error("Summary failed", "err", err)
	} else {
		path := filepath.Join(cfg.OutputDir, "collection_summary.json")
		if err := storage.WriteSummary(summary, path); err != nil {
			logger.Error("Summary write failed", "err", err)
		}
		logger.Info("Collection complete", "total", summary.TotalRecords, "run_id", summary.RunID)
	}

	// Keep alive for dashboard until interrupted
	<-ctx.Done()
}

type runInputs struct {
	parsed          ingest.Inputs
	youtubeChannels []ingest.Target
}

func loadInputs(cfg config.Settings, logger *slog.Logger) runInputs {
	var in runInputs

	load := func(name string, fn func(string) ([]ingest.Target, error)) []ingest.Target {
		path := filepath.Join(cfg.InputDir, name)
		targets, err := fn(path)
		if err != nil {
			logger.Warn("Input not loaded", "path", path, "err", err)
			return nil
		}
		return targets
	}

	in.parsed.Subreddits = load("subreddits.csv", ingest.LoadSubreddits)
	in.parsed.Channels = load("channels.csv", ingest.LoadChannels)
	in.parsed.TwitterQueries = load("twitter_queries.csv", ingest.LoadQueries)
	in.youtubeChannels = load("youtube_channels.csv", ingest.LoadQueries)

	keywords, err := ingest.LoadKeywords(filepath.Join(cfg.InputDir, "keywords.csv"))
	if err != nil {
		logger.Warn("Keywords not loaded", "err", err)
	}
	in.parsed.Keywords = keywords
	return in
}
