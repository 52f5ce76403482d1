package seed

import (
	"context"
	"fmt"

	"github.com/martinsuchenak/toposeed/internal/config"
	"github.com/martinsuchenak/toposeed/internal/log"
	"github.com/martinsuchenak/toposeed/internal/registry"
	"github.com/martinsuchenak/toposeed/internal/storage"
)

// OpenEngine opens the configured store and wraps it in an engine
func OpenEngine(ctx context.Context, cfg *config.Config) (*Engine, error) {
	store, err := storage.Open(ctx, cfg.StoreOptions())
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	log.Debug("Store opened", "store", cfg.String())

	return NewEngine(store, Options{
		BatchSize:   cfg.BatchSize,
		MaxAttempts: cfg.MaxAttempts,
		Parallelism: cfg.Parallelism,
		Timeout:     cfg.StoreTimeout,
		BackoffBase: cfg.BackoffBase,
	}), nil
}

// RunOptions selects what Run seeds
type RunOptions struct {
	Topologies []string // empty seeds every registered topology
	Seed       *int64   // overrides each topology's default seed
	Active     string   // topology to activate afterwards, empty for none
}

// Run assembles and seeds the selected topologies one after another, then
// points the active topology at opts.Active. Unknown names fail before
// anything is written.
func (e *Engine) Run(ctx context.Context, r *registry.Registry, opts RunOptions) ([]SeedResult, error) {
	names := opts.Topologies
	if len(names) == 0 {
		names = r.Names()
	}

	topologies := make([]registry.Topology, 0, len(names))
	for _, name := range names {
		t, err := r.Lookup(name)
		if err != nil {
			return nil, err
		}
		topologies = append(topologies, t)
	}
	if opts.Active != "" {
		if _, err := r.Lookup(opts.Active); err != nil {
			return nil, fmt.Errorf("active topology: %w", err)
		}
	}

	results := make([]SeedResult, 0, len(topologies))
	activated := false
	for _, t := range topologies {
		seed := t.DefaultSeed
		if opts.Seed != nil {
			seed = *opts.Seed
		}
		g, err := t.Assemble(seed)
		if err != nil {
			return results, fmt.Errorf("assembling %s: %w", t.Name, err)
		}

		res, err := e.Seed(ctx, g, t.Name == opts.Active)
		if err != nil {
			return results, err
		}
		activated = activated || res.Activated
		results = append(results, res)
	}

	if opts.Active != "" && !activated {
		if err := e.SetActiveTopology(ctx, opts.Active); err != nil {
			return results, err
		}
	}
	return results, nil
}
