// Command clinagen generates synthetic doctor-patient dialogues and
// diagnostic reasoning traces from a vignette seed file.
//
// Usage:
//
//	OPENAI_API_KEY=... clinagen -seeds scripts.json -out ./data -workers 4
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/clinagen/clinagen/driver"
	"github.com/clinagen/clinagen/llm"
	"github.com/clinagen/clinagen/middleware"
	"github.com/clinagen/clinagen/observability"
	"github.com/clinagen/clinagen/seeds"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "clinagen:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		seedPath   = flag.String("seeds", "", "path to the roleplay script seed file (required)")
		outDir     = flag.String("out", "outputs", "output directory for per-role and aggregate files")
		workers    = flag.Int("workers", 0, "worker pool size (0 = min(cores, 8))")
		maxTurns   = flag.Int("max-turns", 20, "turn index cap per vignette (minimum 8)")
		variations = flag.String("variations", "typical,severe", "comma-separated variation types to include")
		model      = flag.String("model", "gpt-4o-mini", "backend model identifier")
		cacheDir   = flag.String("cache-dir", "", "enable on-disk response caching in this directory")
		redisURL   = flag.String("redis-url", "", "enable shared response caching against this redis URL")
		rngSeed    = flag.Int64("seed", 1, "seed for behavior selection and tie-breaking")
		useIG      = flag.Bool("info-gain", false, "select follow-up questions by expected information gain")
		jsonLogs   = flag.Bool("json-logs", false, "emit logs as JSON lines")
		verbose    = flag.Bool("v", false, "enable debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	log := observability.ConfigureLogging(level, *jsonLogs)

	if *seedPath == "" {
		return fmt.Errorf("-seeds is required")
	}
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is not set")
	}

	var variationTypes []string
	for _, v := range strings.Split(*variations, ",") {
		if v = strings.TrimSpace(v); v != "" {
			variationTypes = append(variationTypes, v)
		}
	}

	seedList, err := seeds.Load(*seedPath, variationTypes)
	if err != nil {
		return err
	}
	log.Info("loaded seeds", "count", len(seedList), "variations", variationTypes)

	store, err := buildStore(*cacheDir, *redisURL)
	if err != nil {
		return err
	}

	factory := func() (llm.Client, error) {
		var client llm.Client = llm.NewOpenAIClient(apiKey, *model)
		client = middleware.NewTraced(client)
		client = middleware.NewTimeout(client, middleware.DefaultCallTimeout)
		client = middleware.NewRetry(client, middleware.DefaultRetryConfig())
		if store != nil {
			client = middleware.NewCache(client, store)
		}
		return client, nil
	}

	d, err := driver.New(factory, driver.Config{
		Workers:     *workers,
		OutDir:      *outDir,
		MaxTurns:    *maxTurns,
		UseInfoGain: *useIG,
		Seed:        *rngSeed,
		Logger:      log,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, summary, err := d.Run(ctx, seedList)
	if err != nil {
		return err
	}
	fmt.Print(summary.Render())
	return nil
}

// buildStore picks the response cache backend. Redis wins when both are
// configured; no flags means no caching.
func buildStore(cacheDir, redisURL string) (middleware.Store, error) {
	if redisURL != "" {
		store, err := middleware.NewRedisStore(redisURL, "", 7*24*time.Hour)
		if err != nil {
			return nil, fmt.Errorf("connecting response cache: %w", err)
		}
		return store, nil
	}
	if cacheDir != "" {
		store, err := middleware.NewDiskStore(cacheDir)
		if err != nil {
			return nil, fmt.Errorf("opening response cache: %w", err)
		}
		return store, nil
	}
	return nil, nil
}
