package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"tcgtracker/config"
	"tcgtracker/internal/refresh"
	"tcgtracker/logger"
	"tcgtracker/pkg/feed"
	"tcgtracker/pkg/storage/postgres"
)

func main() {
	snapshotDate := flag.String("snapshot-date", "", "UTC snapshot day to refresh as YYYY-MM-DD (default: today)")
	daemon := flag.Bool("daemon", false, "keep running and refresh at every UTC midnight")
	syncCatalog := flag.Bool("sync-catalog", false, "refresh sets and cards from the feed before ingesting prices")
	flag.Parse()

	// viper config
	cfg := config.Load()

	// zap logger
	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer log.Sync()

	env := cfg.Log.Environment
	store, err := postgres.Initialize(cfg.Postgres, env, true)
	if err != nil {
		log.Fatal("failed to connect to DB", zap.Error(err))
	}
	defer store.Close()

	runner := &refresh.Runner{
		Cfg:   cfg,
		Log:   log,
		Store: store,
		Feed:  feed.NewClient(cfg.Feed.BaseURL, cfg.Feed.CategoryID, cfg.Feed.Timeout, cfg.Feed.Retries),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *syncCatalog {
		if err := runner.SyncCatalog(ctx); err != nil {
			log.Fatal("catalog sync failed", zap.Error(err))
		}
	}

	if *daemon {
		scheduler := &refresh.MidnightScheduler{Runner: runner, Log: log}
		scheduler.Start(ctx)
		return
	}

	day := time.Now().UTC()
	if *snapshotDate != "" {
		day, err = time.Parse("2006-01-02", *snapshotDate)
		if err != nil {
			log.Fatal("invalid --snapshot-date", zap.String("value", *snapshotDate), zap.Error(err))
		}
	}

	if err := runner.Run(ctx, day); err != nil {
		log.Error("refresh failed", zap.Error(err))
		os.Exit(1)
	}
}
