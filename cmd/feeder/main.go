// Feeder - Home Assistant discovery bridge for the cat feeder.
//
// The process connects the feeder's local message bus to an MQTT broker and
// announces the feeder's sensors and switches to Home Assistant through MQTT
// auto-discovery.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Cancel on Ctrl+C and SIGTERM for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newCommand().Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newCommand builds the command tree. The root action runs the service.
func newCommand() *cli.Command {
	return &cli.Command{
		Name:    "feeder",
		Usage:   "Home Assistant discovery bridge for the cat feeder",
		Version: fmt.Sprintf("%s (%s, %s)", version, commit, date),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   defaultConfigPath,
				Usage:   "path to the YAML configuration file",
				Sources: cli.NewValueSourceChain(
					cli.EnvVar("FEEDER_CONFIG"),
				),
			},
			&cli.BoolFlag{
				Name:    "debug",
				Aliases: []string{"d"},
				Usage:   "enable debug logs",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return run(ctx, c.String("config"), c.Bool("debug"))
		},
		Commands: []*cli.Command{
			migrateCommand(),
			tokenCommand(),
		},
	}
}
