// Package seed writes assembled topologies into a Store. Each topology lives
// under its own key namespace and is replaced as a whole on every run.
package seed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/martinsuchenak/toposeed/internal/log"
	"github.com/martinsuchenak/toposeed/internal/model"
	"github.com/martinsuchenak/toposeed/internal/storage"
	"github.com/martinsuchenak/toposeed/internal/topology"
	"github.com/martinsuchenak/toposeed/internal/worker"
)

// Keys of the records that live outside every topology namespace
var (
	ActiveTopologyKey = storage.Key{PK: "CONFIG", SK: "ACTIVE_TOPOLOGY"}
	topologyPartition = "TOPOLOGY"
)

// Options tunes how the engine talks to the store
type Options struct {
	BatchSize   int           // items per request, capped by the store limit
	MaxAttempts int           // attempts per batch before the run fails
	Parallelism int           // batches in flight
	Timeout     time.Duration // per store request
	BackoffBase time.Duration // first retry delay, doubled per attempt
	Now         func() time.Time
}

// DefaultOptions returns the options used for zero values
func DefaultOptions() Options {
	return Options{
		BatchSize:   storage.MaxBatchItems,
		MaxAttempts: 5,
		Parallelism: 4,
		Timeout:     10 * time.Second,
		BackoffBase: 50 * time.Millisecond,
		Now:         time.Now,
	}
}

// Engine seeds topologies into one store
type Engine struct {
	store storage.Store
	opts  Options
}

// NewEngine creates an engine. Zero option values take their defaults.
func NewEngine(store storage.Store, opts Options) *Engine {
	d := DefaultOptions()
	if opts.BatchSize <= 0 {
		opts.BatchSize = d.BatchSize
	}
	if limit := store.MaxBatchSize(); limit > 0 && opts.BatchSize > limit {
		opts.BatchSize = limit
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = d.MaxAttempts
	}
	if opts.Parallelism <= 0 {
		opts.Parallelism = d.Parallelism
	}
	if opts.Timeout <= 0 {
		opts.Timeout = d.Timeout
	}
	if opts.BackoffBase <= 0 {
		opts.BackoffBase = d.BackoffBase
	}
	if opts.Now == nil {
		opts.Now = d.Now
	}
	return &Engine{store: store, opts: opts}
}

// Store returns the engine's store
func (e *Engine) Store() storage.Store {
	return e.store
}

// ReplaceResult summarises one ReplaceTopology call
type ReplaceResult struct {
	Topology string `json:"topology"`
	Deleted  int    `json:"deleted"`
	Written  int    `json:"written"`
	Batches  int    `json:"batches"`
	Retries  int64  `json:"retries"`
}

// ReplaceTopology deletes every record under the topology's namespace and
// then writes records. The delete phase finishes before any write starts.
// Every record must belong to the namespace.
func (e *Engine) ReplaceTopology(ctx context.Context, name string, records []storage.Record) (ReplaceResult, error) {
	res := ReplaceResult{Topology: name}
	if err := checkName(name); err != nil {
		return res, err
	}
	ns := Namespace(name)
	for _, r := range records {
		if !strings.HasPrefix(r.PK, ns) {
			return res, fmt.Errorf("topology %s: %s: %w", name, r.Key(), ErrForeignRecord)
		}
	}

	existing, err := e.scan(ctx, ns)
	if err != nil {
		return res, &StoreWriteError{Topology: name, Phase: PhaseDelete, Err: err}
	}
	keys := storage.Keys(existing)
	log.Info("Deleting topology records", "topology", name, "records", len(keys))

	var retries atomic.Int64
	deleted, batches, err := runBatches(ctx, e, name, PhaseDelete, keys, &retries, e.store.BatchDelete)
	res.Deleted = deleted
	res.Batches += batches
	if err != nil {
		res.Retries = retries.Load()
		return res, err
	}

	log.Info("Writing topology records", "topology", name, "records", len(records))
	written, batches, err := runBatches(ctx, e, name, PhaseWrite, records, &retries, e.store.BatchPut)
	res.Written = written
	res.Batches += batches
	res.Retries = retries.Load()
	return res, err
}

func (e *Engine) scan(ctx context.Context, prefix string) ([]storage.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, e.opts.Timeout)
	defer cancel()
	return e.store.ScanPrefix(ctx, prefix)
}

// runBatches splits items into store-sized batches and applies them on a
// bounded worker pool, retrying only the unprocessed items of each batch.
func runBatches[T any](ctx context.Context, e *Engine, name, phase string, items []T, retries *atomic.Int64,
	send func(context.Context, []T) ([]T, error)) (int, int, error) {

	var applied atomic.Int64
	var jobs []worker.Job
	for start, batch := 0, 0; start < len(items); start, batch = start+e.opts.BatchSize, batch+1 {
		end := min(start+e.opts.BatchSize, len(items))
		chunk := items[start:end]
		index := batch
		jobs = append(jobs, worker.Job{
			ID: fmt.Sprintf("%s-%s-%d", name, phase, index),
			Handler: func(ctx context.Context) error {
				n, unprocessed, err := retryBatch(ctx, e, name, phase, index, chunk, retries, send)
				applied.Add(int64(n))
				if err != nil {
					return &StoreWriteError{Topology: name, Phase: phase, Attempted: len(items), Batch: index,
						Unprocessed: unprocessed, Err: err}
				}
				return nil
			},
		})
	}

	err := worker.RunAll(ctx, e.opts.Parallelism, jobs)
	var swe *StoreWriteError
	if errors.As(err, &swe) {
		swe.Written = int(applied.Load())
	} else if err != nil {
		err = &StoreWriteError{Topology: name, Phase: phase, Attempted: len(items), Written: int(applied.Load()), Err: err}
	}
	return int(applied.Load()), len(jobs), err
}

// retryBatch sends batch until the store applies all of it or attempts run
// out, backing off exponentially between attempts. It returns the number of
// items applied and the number left unprocessed.
func retryBatch[T any](ctx context.Context, e *Engine, name, phase string, index int, batch []T, retries *atomic.Int64,
	send func(context.Context, []T) ([]T, error)) (int, int, error) {

	pending := batch
	applied := 0
	for attempt := 1; ; attempt++ {
		reqCtx, cancel := context.WithTimeout(ctx, e.opts.Timeout)
		unprocessed, err := send(reqCtx, pending)
		cancel()
		if err != nil {
			return applied, len(pending), err
		}
		applied += len(pending) - len(unprocessed)
		if len(unprocessed) == 0 {
			return applied, 0, nil
		}
		if attempt >= e.opts.MaxAttempts {
			return applied, len(unprocessed), fmt.Errorf("%d items after %d attempts: %w", len(unprocessed), attempt, storage.ErrThrottled)
		}

		delay := e.opts.BackoffBase << (attempt - 1)
		log.Debug("Retrying unprocessed items", "topology", name, "phase", phase, "batch", index,
			"unprocessed", len(unprocessed), "attempt", attempt, "delay", delay)
		retries.Add(1)
		pending = unprocessed

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return applied, len(pending), ctx.Err()
		case <-timer.C:
		}
	}
}

// SetActiveTopology points the store's active-topology record at name.
// The last writer wins.
func (e *Engine) SetActiveTopology(ctx context.Context, name string) error {
	if err := checkName(name); err != nil {
		return err
	}
	data, err := json.Marshal(ActivePointer{Topology: name, UpdatedAt: e.opts.Now().UTC()})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, e.opts.Timeout)
	defer cancel()
	err = e.store.Put(ctx, storage.Record{
		PK:         ActiveTopologyKey.PK,
		SK:         ActiveTopologyKey.SK,
		EntityType: EntityConfig,
		Data:       data,
	})
	if err != nil {
		return fmt.Errorf("setting active topology %s: %w", name, err)
	}
	log.Info("Active topology set", "topology", name)
	return nil
}

// ActivePointer is the data of the active-topology record
type ActivePointer struct {
	Topology  string    `json:"topology"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ActiveTopology returns the name the active-topology record points at.
// The error wraps storage.ErrNotFound when none was ever set.
func (e *Engine) ActiveTopology(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.opts.Timeout)
	defer cancel()

	r, err := e.store.Get(ctx, ActiveTopologyKey)
	if err != nil {
		return "", fmt.Errorf("reading active topology: %w", err)
	}
	var p ActivePointer
	if err := json.Unmarshal(r.Data, &p); err != nil {
		return "", fmt.Errorf("decoding active topology: %w", err)
	}
	return p.Topology, nil
}

// Metadata describes one seeded topology
type Metadata struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Seed        int64       `json:"seed"`
	Stats       model.Stats `json:"stats"`
	Records     int         `json:"records"`
	RunID       string      `json:"run_id"`
	SeededAt    time.Time   `json:"seeded_at"`
}

// RegisterTopology writes the metadata record of a seeded topology
func (e *Engine) RegisterTopology(ctx context.Context, meta Metadata) error {
	if err := checkName(meta.Name); err != nil {
		return err
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, e.opts.Timeout)
	defer cancel()
	err = e.store.Put(ctx, storage.Record{
		PK:         topologyPartition,
		SK:         meta.Name,
		EntityType: EntityTopology,
		Data:       data,
	})
	if err != nil {
		return fmt.Errorf("registering topology %s: %w", meta.Name, err)
	}
	return nil
}

// ListTopologies returns the metadata of every seeded topology, by name
func (e *Engine) ListTopologies(ctx context.Context) ([]Metadata, error) {
	ctx, cancel := context.WithTimeout(ctx, e.opts.Timeout)
	defer cancel()

	records, err := e.store.Query(ctx, topologyPartition)
	if err != nil {
		return nil, fmt.Errorf("listing topologies: %w", err)
	}
	metas := make([]Metadata, 0, len(records))
	for _, r := range records {
		var m Metadata
		if err := json.Unmarshal(r.Data, &m); err != nil {
			return nil, fmt.Errorf("decoding topology %s: %w", r.SK, err)
		}
		metas = append(metas, m)
	}
	return metas, nil
}

// SeedResult summarises one Seed call
type SeedResult struct {
	ReplaceResult
	RunID     string        `json:"run_id"`
	Activated bool          `json:"activated"`
	Duration  time.Duration `json:"duration"`
}

// Seed validates g, replaces its topology in the store, records its
// metadata and, when activate is set, points the active topology at it.
func (e *Engine) Seed(ctx context.Context, g *model.TopologyGraph, activate bool) (SeedResult, error) {
	start := e.opts.Now()
	res := SeedResult{RunID: uuid.NewString()}
	logger := log.With("run_id", res.RunID)

	if err := topology.Validate(g); err != nil {
		return res, fmt.Errorf("topology %s: %w", g.TopologyName, err)
	}
	records, err := Flatten(g)
	if err != nil {
		return res, err
	}

	logger.Info("Seeding topology", "topology", g.TopologyName, "seed", g.Seed, "records", len(records))
	res.ReplaceResult, err = e.ReplaceTopology(ctx, g.TopologyName, records)
	if err != nil {
		return res, err
	}

	err = e.RegisterTopology(ctx, Metadata{
		Name:        g.TopologyName,
		Description: g.Description,
		Seed:        g.Seed,
		Stats:       g.Stats,
		Records:     len(records),
		RunID:       res.RunID,
		SeededAt:    start.UTC(),
	})
	if err != nil {
		return res, err
	}

	if activate {
		if err := e.SetActiveTopology(ctx, g.TopologyName); err != nil {
			return res, err
		}
		res.Activated = true
	}

	res.Duration = e.opts.Now().Sub(start)
	logger.Info("Topology seeded", "topology", g.TopologyName, "deleted", res.Deleted, "written", res.Written,
		"batches", res.Batches, "retries", res.Retries, "duration", res.Duration)
	return res, nil
}

func checkName(name string) error {
	if name == "" || strings.ContainsAny(name, "#/") {
		return fmt.Errorf("%q: %w", name, ErrInvalidTopology)
	}
	if name == ActiveTopologyKey.PK || name == topologyPartition {
		return fmt.Errorf("%q is reserved: %w", name, ErrInvalidTopology)
	}
	return nil
}
