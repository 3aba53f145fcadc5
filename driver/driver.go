// Package driver distributes vignette runs across a worker pool and
// persists their artifacts.
//
// Workers share nothing mutable: each constructs its own backend client
// from the factory and owns one orchestrator per vignette. A worker that
// fails or panics yields a nil result; the pool keeps going and the
// aggregation phase filters the nils.
package driver

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"runtime"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/clinagen/clinagen/behavior"
	"github.com/clinagen/clinagen/clinagen"
	"github.com/clinagen/clinagen/dialogue"
	"github.com/clinagen/clinagen/infogain"
	"github.com/clinagen/clinagen/llm"
)

// ClientFactory builds one backend client per worker so no handle is
// shared across goroutines.
type ClientFactory func() (llm.Client, error)

// Config holds driver tunables.
type Config struct {
	// Workers is the pool size. Zero means min(GOMAXPROCS, 8).
	Workers int

	// OutDir is the root output directory. Per-role subdirectories and
	// the aggregate files are created beneath it.
	OutDir string

	// MaxTurns is forwarded to each orchestrator.
	MaxTurns int

	// UseInfoGain routes question selection through the information-gain
	// selector.
	UseInfoGain bool

	// Seed feeds the per-vignette RNGs. Each vignette derives its own
	// source from Seed and its index, so results are reproducible for a
	// fixed seed regardless of scheduling.
	Seed int64

	// Logger defaults to slog.Default.
	Logger *slog.Logger
}

// DefaultWorkers returns the recommended pool size.
func DefaultWorkers() int {
	n := runtime.GOMAXPROCS(0)
	if n > 8 {
		return 8
	}
	if n < 1 {
		return 1
	}
	return n
}

// Validate checks config bounds.
func (c Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if c.MaxTurns < dialogue.MinTurnsForEnd {
		return fmt.Errorf("max turns must be at least %d, got %d", dialogue.MinTurnsForEnd, c.MaxTurns)
	}
	if c.OutDir == "" {
		return fmt.Errorf("output directory is required")
	}
	return nil
}

// Driver runs a seed list through the pool and aggregates the artifacts.
type Driver struct {
	factory ClientFactory
	cfg     Config
	log     *slog.Logger

	// RunID tags this run's summary output.
	RunID string
}

// New builds a Driver. The factory is called once per vignette.
func New(factory ClientFactory, cfg Config) (*Driver, error) {
	if factory == nil {
		return nil, fmt.Errorf("client factory must not be nil")
	}
	if cfg.Workers == 0 {
		cfg.Workers = DefaultWorkers()
	}
	if cfg.MaxTurns == 0 {
		cfg.MaxTurns = dialogue.DefaultMaxTurns
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid driver config: %w", err)
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Driver{factory: factory, cfg: cfg, log: log, RunID: uuid.NewString()}, nil
}

// Run processes every seed and returns the surviving artifact sets plus
// the run summary. Per-vignette failures are logged and skipped; Run
// itself fails only on setup or persistence errors, or when the context
// is cancelled.
func (d *Driver) Run(ctx context.Context, seedList []clinagen.VignetteSeed) ([]*dialogue.Artifacts, *Summary, error) {
	if len(seedList) == 0 {
		return nil, nil, fmt.Errorf("no seeds to process")
	}
	if err := prepareDirs(d.cfg.OutDir); err != nil {
		return nil, nil, err
	}

	d.log.Info("starting run",
		"run_id", d.RunID,
		"vignettes", len(seedList),
		"workers", d.cfg.Workers,
		"max_turns", d.cfg.MaxTurns,
		"info_gain", d.cfg.UseInfoGain)

	results := make([]*dialogue.Artifacts, len(seedList))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.cfg.Workers)
	for idx, seed := range seedList {
		idx, seed := idx, seed
		g.Go(func() error {
			a := d.runVignette(gctx, idx, seed)
			mu.Lock()
			results[idx] = a
			mu.Unlock()
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("worker pool: %w", err)
	}

	survivors := make([]*dialogue.Artifacts, 0, len(results))
	for _, a := range results {
		if a != nil {
			survivors = append(survivors, a)
		}
	}

	if err := aggregate(d.cfg.OutDir, survivors); err != nil {
		return nil, nil, fmt.Errorf("aggregating artifacts: %w", err)
	}

	summary := Summarize(d.RunID, len(seedList), survivors)
	d.log.Info("run complete",
		"run_id", d.RunID,
		"completed", len(survivors),
		"failed", len(seedList)-len(survivors))
	return survivors, summary, nil
}

// runVignette executes one vignette end to end. Any error or panic is
// swallowed into a nil result so the pool continues.
func (d *Driver) runVignette(ctx context.Context, idx int, seed clinagen.VignetteSeed) (result *dialogue.Artifacts) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("worker panicked", "vignette", idx, "panic", r)
			result = nil
		}
	}()

	client, err := d.factory()
	if err != nil {
		d.log.Error("building client", "vignette", idx, "error", err)
		return nil
	}

	var selector *infogain.Selector
	if d.cfg.UseInfoGain {
		selector, err = infogain.NewSelector(client, infogain.DefaultConfig())
		if err != nil {
			d.log.Error("building selector", "vignette", idx, "error", err)
			return nil
		}
	}

	rng := rand.New(rand.NewSource(d.cfg.Seed + int64(idx)))
	profile := behavior.Select(rng)

	orch, err := dialogue.New(client, selector, dialogue.Config{
		MaxTurns:    d.cfg.MaxTurns,
		UseInfoGain: d.cfg.UseInfoGain,
		Behavior:    &profile,
		Rand:        rng,
		Sink:        &fileSink{dir: d.cfg.OutDir},
		Logger:      d.log,
	})
	if err != nil {
		d.log.Error("building orchestrator", "vignette", idx, "error", err)
		return nil
	}

	a, err := orch.Run(ctx, idx, seed)
	if err != nil {
		d.log.Error("vignette failed", "vignette", idx, "error", err)
		return nil
	}
	return a
}
