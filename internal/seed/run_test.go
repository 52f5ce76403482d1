package seed

import (
	"context"
	"errors"
	"testing"

	"github.com/martinsuchenak/toposeed/internal/config"
	"github.com/martinsuchenak/toposeed/internal/registry"
	"github.com/martinsuchenak/toposeed/internal/topology"
)

func labRegistry(t *testing.T) *registry.Registry {
	t.Helper()

	r := registry.New()
	for _, name := range []string{"lab_a", "lab_b"} {
		if err := r.Register(topology.Registered(labDefinition(name))); err != nil {
			t.Fatal(err)
		}
	}
	return r
}

func TestRun(t *testing.T) {
	tests := []struct {
		name       string
		opts       RunOptions
		wantSeeded []string
		wantActive string
	}{
		{"all registered", RunOptions{Active: "lab_b"}, []string{"lab_a", "lab_b"}, "lab_b"},
		{"one topology", RunOptions{Topologies: []string{"lab_a"}, Active: "lab_a"}, []string{"lab_a"}, "lab_a"},
		{"activate unseeded", RunOptions{Topologies: []string{"lab_a"}, Active: "lab_b"}, []string{"lab_a"}, "lab_b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine(setupStore(t), testOptions())
			ctx := context.Background()

			results, err := e.Run(ctx, labRegistry(t), tt.opts)
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if len(results) != len(tt.wantSeeded) {
				t.Fatalf("seeded %d topologies, want %d", len(results), len(tt.wantSeeded))
			}
			for i, res := range results {
				if res.Topology != tt.wantSeeded[i] || res.Written == 0 {
					t.Errorf("result %d = %+v", i, res)
				}
			}
			active, err := e.ActiveTopology(ctx)
			if err != nil || active != tt.wantActive {
				t.Errorf("ActiveTopology() = %q, %v", active, err)
			}
		})
	}
}

func TestRun_SeedOverride(t *testing.T) {
	e := NewEngine(setupStore(t), testOptions())
	ctx := context.Background()

	seed := int64(99)
	if _, err := e.Run(ctx, labRegistry(t), RunOptions{Topologies: []string{"lab_a"}, Seed: &seed}); err != nil {
		t.Fatal(err)
	}
	metas, err := e.ListTopologies(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(metas) != 1 || metas[0].Seed != 99 {
		t.Errorf("metadata = %+v", metas)
	}
}

func TestRun_UnknownTopology(t *testing.T) {
	s := setupStore(t)
	e := NewEngine(s, testOptions())

	tests := []RunOptions{
		{Topologies: []string{"lab_a", "ring"}},
		{Topologies: []string{"lab_a"}, Active: "ring"},
	}
	for _, opts := range tests {
		_, err := e.Run(context.Background(), labRegistry(t), opts)
		if !errors.Is(err, registry.ErrNotFound) {
			t.Errorf("Run(%+v) error = %v, want ErrNotFound", opts, err)
		}
	}
	if got := scan(t, s, ""); len(got) != 0 {
		t.Errorf("store has %d records after a failed lookup", len(got))
	}
}

func TestOpenEngine(t *testing.T) {
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.Backend = config.BackendFile
	cfg.BatchSize = 7

	e, err := OpenEngine(context.Background(), cfg)
	if err != nil {
		t.Fatalf("OpenEngine() error = %v", err)
	}
	defer e.Store().Close()

	if e.opts.BatchSize != 7 || e.opts.MaxAttempts != cfg.MaxAttempts {
		t.Errorf("opts = %+v", e.opts)
	}
	if err := e.SetActiveTopology(context.Background(), "lab_a"); err != nil {
		t.Errorf("SetActiveTopology() error = %v", err)
	}
}
