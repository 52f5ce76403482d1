package seed

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/paularlott/cli"

	"github.com/martinsuchenak/toposeed/internal/config"
	"github.com/martinsuchenak/toposeed/internal/log"
	"github.com/martinsuchenak/toposeed/internal/registry"
	engine "github.com/martinsuchenak/toposeed/internal/seed"
	"github.com/martinsuchenak/toposeed/internal/topology"
	"github.com/martinsuchenak/toposeed/internal/worker"
)

// Command returns the seed command
func Command() *cli.Command {
	return &cli.Command{
		Name:        "seed",
		Usage:       "Generate topologies and write them to the store",
		Description: "Assemble one or all registered topologies, replace their records in the store and set the active topology",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:         "topology",
				Usage:        "Comma separated topology names, or all",
				DefaultValue: "all",
			},
			&cli.StringFlag{
				Name:  "seed",
				Usage: "Seed overriding each topology's default",
			},
			&cli.StringFlag{
				Name:         "active",
				Usage:        "Topology to activate after seeding (empty to leave unchanged)",
				DefaultValue: topology.DefaultActive,
			},
			&cli.StringFlag{
				Name:  "schedule",
				Usage: "Cron expression; reseed on this schedule until interrupted",
			},
		},
		Run: run,
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	cfg := config.Load(cmd)

	opts, err := runOptions(cmd.GetString("topology"), cmd.GetString("seed"), cmd.GetString("active"))
	if err != nil {
		return err
	}

	e, err := engine.OpenEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer e.Store().Close()

	reg := registry.GetRegistry()
	schedule := cmd.GetString("schedule")
	if schedule == "" {
		return seedOnce(ctx, e, reg, opts)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s := worker.NewScheduler(ctx)
	err = s.RegisterTask("reseed", "Reseed topologies", schedule, func(ctx context.Context, taskID string) error {
		return seedOnce(ctx, e, reg, opts)
	})
	if err != nil {
		return err
	}
	if err := s.RunNow("reseed"); err != nil {
		return err
	}
	if ctx.Err() != nil {
		return nil
	}
	s.Start()
	next, _ := s.NextRun("reseed")
	log.Info("Waiting for next reseed", "schedule", schedule, "next", next)

	<-ctx.Done()
	s.Stop()
	return nil
}

func seedOnce(ctx context.Context, e *engine.Engine, reg *registry.Registry, opts engine.RunOptions) error {
	results, err := e.Run(ctx, reg, opts)
	for _, res := range results {
		fmt.Printf("%-16s %6d records  %4d batches  %3d retries  run %s\n",
			res.Topology, res.Written, res.Batches, res.Retries, res.RunID)
	}
	if err != nil {
		return err
	}
	if opts.Active != "" {
		fmt.Printf("Active topology: %s\n", opts.Active)
	}
	return nil
}

// runOptions parses the seed command's selection flags
func runOptions(topologies, seed, active string) (engine.RunOptions, error) {
	opts := engine.RunOptions{Active: strings.TrimSpace(active)}

	topologies = strings.TrimSpace(topologies)
	if topologies != "" && topologies != "all" {
		for _, name := range strings.Split(topologies, ",") {
			if name = strings.TrimSpace(name); name != "" {
				opts.Topologies = append(opts.Topologies, name)
			}
		}
	}

	n, err := config.ParseSeed(seed)
	if err != nil {
		return opts, err
	}
	opts.Seed = n
	return opts, nil
}
