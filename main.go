package main

import (
	"context"
	"os"

	"github.com/paularlott/cli"
	"github.com/paularlott/cli/env"

	"github.com/martinsuchenak/toposeed/cmd/seed"
	"github.com/martinsuchenak/toposeed/cmd/topology"
	"github.com/martinsuchenak/toposeed/internal/config"
	"github.com/martinsuchenak/toposeed/internal/log"
	"github.com/martinsuchenak/toposeed/internal/registry"
	topo "github.com/martinsuchenak/toposeed/internal/topology"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// Load .env file if it exists
	env.Load()

	log.Configure("info", log.DefaultFormat())

	if err := topo.RegisterBuiltins(registry.GetRegistry()); err != nil {
		log.Error("Failed to register built-in topologies", "error", err)
		os.Exit(1)
	}

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:         "log-level",
			Usage:        "Log level (trace, debug, info, warn, error)",
			DefaultValue: "info",
			EnvVars:      []string{"TOPOSEED_LOG_LEVEL"},
			Global:       true,
		},
		&cli.StringFlag{
			Name:         "log-format",
			Usage:        "Log format (console, json)",
			DefaultValue: log.DefaultFormat(),
			EnvVars:      []string{"TOPOSEED_LOG_FORMAT"},
			Global:       true,
		},
	}

	rootCmd := &cli.Command{
		Name:        "toposeed",
		Version:     version,
		Usage:       "Deterministic mock network inventory seeder",
		Description: "Generates seeded organization, network, device and client inventories and writes them to a namespaced store",
		Flags:       append(flags, config.GetFlags()...),
		PreRun: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			log.Configure(cmd.GetString("log-level"), cmd.GetString("log-format"))
			log.Debug("Starting toposeed", "version", version, "commit", commit, "date", date)

			if dir := cmd.GetString("topology-dir"); dir != "" {
				names, err := topo.RegisterDir(registry.GetRegistry(), dir)
				if err != nil {
					return ctx, err
				}
				log.Info("Registered topology definitions", "dir", dir, "topologies", names)
			}
			return ctx, nil
		},
		Commands: []*cli.Command{
			seed.Command(),
			{
				Name:        "topology",
				Usage:       "Topology commands",
				Description: "List, activate, validate and export topologies",
				Commands:    topology.Commands(),
			},
		},
	}

	if err := rootCmd.Execute(context.Background()); err != nil {
		log.Error("Command execution failed", "error", err)
		os.Exit(1)
	}
}
