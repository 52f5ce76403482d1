package topology

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/martinsuchenak/toposeed/internal/model"
	"github.com/martinsuchenak/toposeed/internal/registry"
	"github.com/martinsuchenak/toposeed/internal/seed"
	"github.com/martinsuchenak/toposeed/internal/topology"
)

func builtins(t *testing.T) *registry.Registry {
	t.Helper()

	r := registry.New()
	if err := topology.RegisterBuiltins(r); err != nil {
		t.Fatal(err)
	}
	return r
}

func TestExport(t *testing.T) {
	r := builtins(t)

	var a, b bytes.Buffer
	if err := export(&a, r, "mesh", ""); err != nil {
		t.Fatalf("export() error = %v", err)
	}
	if err := export(&b, r, "mesh", "43"); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a.Bytes(), b.Bytes()) {
		t.Error("default seed and explicit seed 43 differ")
	}

	var g model.TopologyGraph
	if err := json.Unmarshal(a.Bytes(), &g); err != nil {
		t.Fatalf("export is not a graph: %v", err)
	}
	if g.TopologyName != "mesh" || len(g.Networks) != 8 {
		t.Errorf("graph = %s with %d networks", g.TopologyName, len(g.Networks))
	}

	if err := export(&a, r, "ring", ""); !errors.Is(err, registry.ErrNotFound) {
		t.Errorf("export(ring) error = %v", err)
	}
	if err := export(&a, r, "mesh", "x"); err == nil {
		t.Error("export with a bad seed should fail")
	}
}

func TestExportTo(t *testing.T) {
	r := builtins(t)
	dir := t.TempDir()

	path := filepath.Join(dir, "hub_spoke.json")
	if err := exportTo(path, r, "hub_spoke", ""); err != nil {
		t.Fatalf("exportTo() error = %v", err)
	}
	written, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var want bytes.Buffer
	if err := export(&want, r, "hub_spoke", ""); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(written, want.Bytes()) {
		t.Error("file content differs from export output")
	}

	if err := exportTo(filepath.Join(dir, "missing", "out.json"), r, "hub_spoke", ""); err == nil {
		t.Error("exportTo() into a missing directory should fail")
	}
	if err := exportTo(filepath.Join(dir, "ring.json"), r, "ring", ""); !errors.Is(err, registry.ErrNotFound) {
		t.Errorf("exportTo(ring) error = %v", err)
	}
}

func TestValidate(t *testing.T) {
	var out bytes.Buffer
	if err := validate(&out, builtins(t), "", ""); err != nil {
		t.Fatalf("validate() error = %v\n%s", err, out.String())
	}
	if got := strings.Count(out.String(), "ok "); got != 3 {
		t.Errorf("validated %d topologies, want 3:\n%s", got, out.String())
	}

	r := registry.New()
	r.Register(registry.Topology{Name: "broken", Assemble: func(int64) (*model.TopologyGraph, error) {
		return model.NewTopologyGraph("broken", "", 1), nil
	}})
	out.Reset()
	if err := validate(&out, r, "broken", ""); err == nil {
		t.Error("empty graph should fail validation")
	}
	if !strings.Contains(out.String(), "FAIL broken") {
		t.Errorf("output = %s", out.String())
	}
}

func TestPrintList(t *testing.T) {
	r := builtins(t)
	metas := []seed.Metadata{
		{Name: "mesh", Seed: 5, Records: 1234, SeededAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)},
		{Name: "custom", Description: "from yaml", Seed: 9, Records: 10},
	}

	var out bytes.Buffer
	printList(&out, r.All(), metas, "mesh")
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 5 {
		t.Fatalf("got %d lines:\n%s", len(lines), out.String())
	}

	var mesh string
	for _, l := range lines {
		if strings.Contains(l, " mesh ") {
			mesh = l
		}
	}
	if !strings.HasPrefix(mesh, "* mesh") || !strings.Contains(mesh, "1234") || !strings.Contains(mesh, "2026-01-02 03:04:05") {
		t.Errorf("mesh row = %q", mesh)
	}
	if !strings.Contains(out.String(), "custom") {
		t.Error("seeded but unregistered topology missing")
	}
}
