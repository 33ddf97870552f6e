// Command replaykit is the offline toolbox: it validates, optimizes and
// exports action files without a server or a browser.
package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/replaykit/replaykit/pkg/log"
)

func main() {
	logger := log.WithModule("cli")

	command := &cli.Command{
		Name:                  "replaykit",
		Usage:                 "Inspect and transform recorded action files",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Commands: []*cli.Command{
			validateCommand(logger),
			optimizeCommand(logger),
			exportCommand(logger),
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		logger.Error("Command failed", "error", err)
		os.Exit(1)
	}
}
