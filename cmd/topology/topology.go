package topology

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/paularlott/cli"

	"github.com/martinsuchenak/toposeed/internal/config"
	"github.com/martinsuchenak/toposeed/internal/model"
	"github.com/martinsuchenak/toposeed/internal/registry"
	"github.com/martinsuchenak/toposeed/internal/seed"
	"github.com/martinsuchenak/toposeed/internal/storage"
	"github.com/martinsuchenak/toposeed/internal/topology"
)

// Commands returns the topology sub-commands
func Commands() []*cli.Command {
	return []*cli.Command{
		ListCommand(),
		ActivateCommand(),
		ValidateCommand(),
		ExportCommand(),
	}
}

// ListCommand lists registered topologies and what the store holds for them
func ListCommand() *cli.Command {
	return &cli.Command{
		Name:        "list",
		Usage:       "List registered and seeded topologies",
		Description: "Show every registered topology with its seeded record count and the active topology",
		Run: func(ctx context.Context, cmd *cli.Command) error {
			e, err := seed.OpenEngine(ctx, config.Load(cmd))
			if err != nil {
				return err
			}
			defer e.Store().Close()

			metas, err := e.ListTopologies(ctx)
			if err != nil {
				return err
			}
			active, err := e.ActiveTopology(ctx)
			if err != nil && !errors.Is(err, storage.ErrNotFound) {
				return err
			}
			printList(os.Stdout, registry.GetRegistry().All(), metas, active)
			return nil
		},
	}
}

func printList(w io.Writer, registered []registry.Topology, metas []seed.Metadata, active string) {
	seeded := make(map[string]seed.Metadata, len(metas))
	for _, m := range metas {
		seeded[m.Name] = m
	}

	fmt.Fprintf(w, "  %-16s %-8s %-8s %-20s %s\n", "NAME", "SEED", "RECORDS", "SEEDED", "DESCRIPTION")
	row := func(name, description string, defaultSeed int64) {
		marker := " "
		if name == active {
			marker = "*"
		}
		records, seededAt, seedValue := "-", "-", strconv.FormatInt(defaultSeed, 10)
		if m, ok := seeded[name]; ok {
			records = strconv.Itoa(m.Records)
			seededAt = m.SeededAt.Format("2006-01-02 15:04:05")
			seedValue = strconv.FormatInt(m.Seed, 10)
			delete(seeded, name)
		}
		fmt.Fprintf(w, "%s %-16s %-8s %-8s %-20s %s\n", marker, name, seedValue, records, seededAt, description)
	}

	for _, t := range registered {
		row(t.Name, t.Description, t.DefaultSeed)
	}
	// seeded by another definition set
	for _, m := range metas {
		if _, ok := seeded[m.Name]; ok {
			row(m.Name, m.Description, m.Seed)
		}
	}
}

// ActivateCommand points the active topology at a registered or seeded topology
func ActivateCommand() *cli.Command {
	return &cli.Command{
		Name:        "activate",
		Usage:       "Set the active topology",
		Description: "Write the active-topology pointer read by the serving API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "name",
				Usage:    "Topology name",
				Required: true,
			},
		},
		Run: func(ctx context.Context, cmd *cli.Command) error {
			name := cmd.GetString("name")

			e, err := seed.OpenEngine(ctx, config.Load(cmd))
			if err != nil {
				return err
			}
			defer e.Store().Close()

			if _, ok := registry.GetRegistry().Get(name); !ok {
				metas, err := e.ListTopologies(ctx)
				if err != nil {
					return err
				}
				if !seededNames(metas)[name] {
					return fmt.Errorf("%s: %w", name, registry.ErrNotFound)
				}
			}
			if err := e.SetActiveTopology(ctx, name); err != nil {
				return err
			}
			fmt.Printf("Active topology: %s\n", name)
			return nil
		},
	}
}

func seededNames(metas []seed.Metadata) map[string]bool {
	names := make(map[string]bool, len(metas))
	for _, m := range metas {
		names[m.Name] = true
	}
	return names
}

// ValidateCommand assembles topologies and checks their integrity
func ValidateCommand() *cli.Command {
	return &cli.Command{
		Name:        "validate",
		Usage:       "Assemble topologies and check referential integrity",
		Description: "Assemble one or every registered topology and report dangling references, containment and uniqueness problems",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "name",
				Usage: "Topology name (default: all)",
			},
			&cli.StringFlag{
				Name:  "seed",
				Usage: "Seed overriding the default",
			},
		},
		Run: func(ctx context.Context, cmd *cli.Command) error {
			return validate(os.Stdout, registry.GetRegistry(), cmd.GetString("name"), cmd.GetString("seed"))
		},
	}
}

func validate(w io.Writer, r *registry.Registry, name, seedFlag string) error {
	topologies := r.All()
	if name != "" {
		t, err := r.Lookup(name)
		if err != nil {
			return err
		}
		topologies = []registry.Topology{t}
	}

	failed := 0
	for _, t := range topologies {
		g, err := assemble(t, seedFlag)
		if err == nil {
			err = topology.Validate(g)
		}
		if err != nil {
			failed++
			fmt.Fprintf(w, "FAIL %s: %v\n", t.Name, err)
			continue
		}
		s := g.Stats
		fmt.Fprintf(w, "ok   %s: %d orgs, %d networks, %d devices, %d vlans, %d clients\n",
			t.Name, s.Organizations, s.Networks, s.Devices, s.VLANs, s.Clients)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d topologies failed validation", failed, len(topologies))
	}
	return nil
}

// ExportCommand writes an assembled topology graph as JSON
func ExportCommand() *cli.Command {
	return &cli.Command{
		Name:        "export",
		Usage:       "Write an assembled topology graph as JSON",
		Description: "Assemble a topology without touching the store and print the graph",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "name",
				Usage:    "Topology name",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "seed",
				Usage: "Seed overriding the default",
			},
			&cli.StringFlag{
				Name:  "output",
				Usage: "Output file (default: stdout)",
			},
		},
		Run: func(ctx context.Context, cmd *cli.Command) error {
			return exportTo(cmd.GetString("output"), registry.GetRegistry(), cmd.GetString("name"), cmd.GetString("seed"))
		},
	}
}

// exportTo writes the graph to path, or stdout when path is empty
func exportTo(path string, r *registry.Registry, name, seedFlag string) error {
	if path == "" {
		return export(os.Stdout, r, name, seedFlag)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := export(f, r, name, seedFlag); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func export(w io.Writer, r *registry.Registry, name, seedFlag string) error {
	t, err := r.Lookup(name)
	if err != nil {
		return err
	}
	g, err := assemble(t, seedFlag)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(g)
}

func assemble(t registry.Topology, seedFlag string) (*model.TopologyGraph, error) {
	n, err := config.ParseSeed(seedFlag)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return t.Assemble(t.DefaultSeed)
	}
	return t.Assemble(*n)
}
