package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"tcgtracker/config"
	"tcgtracker/internal/ocr"
	"tcgtracker/logger"
	"tcgtracker/pkg/storage/postgres"
	"tcgtracker/pkg/vision"
)

func main() {
	imagePath := flag.String("image", "", "path of the card photo to resolve")
	flag.Parse()

	// viper config
	cfg := config.Load()

	// zap logger
	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer log.Sync()

	if *imagePath == "" {
		log.Fatal("--image is required")
	}

	image, err := os.ReadFile(*imagePath)
	if err != nil {
		log.Fatal("failed to read image", zap.String("path", *imagePath), zap.Error(err))
	}

	env := cfg.Log.Environment
	store, err := postgres.Initialize(cfg.Postgres, env, true)
	if err != nil {
		log.Fatal("failed to connect to DB", zap.Error(err))
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	index, err := store.LoadCatalogIndex(ctx)
	if err != nil {
		log.Fatal("failed to load catalog index", zap.Error(err))
	}
	log.Info("catalog index loaded", zap.Int("cards", index.Len()))

	service := &ocr.Service{
		Store:    store,
		Detector: vision.NewClient(cfg.Vision.Endpoint, cfg.Vision.APIKey, cfg.Vision.Timeout),
		Resolver: &ocr.Resolver{Index: index, Threshold: cfg.Resolver.AcceptThreshold},
		Log:      log,
		Provider: vision.Provider,
	}

	res, err := service.ProcessImage(ctx, *imagePath, image)
	if err != nil {
		log.Error("ocr attempt failed", zap.Error(err))
		os.Exit(1)
	}

	if res.Outcome == ocr.OutcomeMatched {
		log.Info("card matched",
			zap.Int64("product_id", res.Card.ProductID),
			zap.String("name", res.Card.ProductName),
			zap.String("strategy", res.Strategy),
			zap.Float64("confidence", res.Confidence))
	} else {
		log.Info("card unresolved",
			zap.String("reason", res.Reason),
			zap.Float64("confidence", res.Confidence),
			zap.Int("match_count", res.MatchCount))
	}
}
