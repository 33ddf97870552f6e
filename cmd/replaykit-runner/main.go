package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/replaykit/replaykit/pkg/cmd"
	"github.com/replaykit/replaykit/pkg/log"
	"github.com/replaykit/replaykit/pkg/matcher"
	"github.com/replaykit/replaykit/pkg/otelhelper"
	"github.com/replaykit/replaykit/pkg/replay"
	"go.opentelemetry.io/otel/trace"
)

var errReplayFailed = errors.New("replay did not complete")

func main() {
	logger := log.WithModule("runner")

	command := &cli.Command{
		Name:                  "replaykit-runner",
		Usage:                 "Replay a recorded workflow against a live page",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "workflow-id",
				Aliases:  []string{"w"},
				Usage:    "ID of the workflow to replay",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence (file:// or redis://)",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "driver",
				Usage:   "Interaction driver to replay with",
				Value:   "dryrun",
				Sources: cli.EnvVars("REPLAY_DRIVER"),
			},
			&cli.StringFlag{
				Name:    "scorer",
				Usage:   "Similarity scorer for visual matching",
				Value:   "heuristic-exact",
				Sources: cli.EnvVars("REPLAY_SCORER"),
			},
			&cli.StringFlag{
				Name:    "matcher-config",
				Usage:   "Path to the matcher calibration file (JSON)",
				Sources: cli.EnvVars("MATCHER_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus provider (gochannel, kafka)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS"),
			},
			&cli.StringFlag{
				Name:  "plugins-path",
				Usage: "Path to the directory containing driver and scorer plugins",
				Value: "",
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Export OpenTelemetry traces for the replay",
				Sources: cli.EnvVars("REPLAY_TRACING"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			return runReplay(ctx, logger, command)
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		logger.Error("Runner exited", "error", err)
		os.Exit(1)
	}
}

func runReplay(ctx context.Context, logger *slog.Logger, command *cli.Command) error {
	store, err := cmd.NewPersistence(command.String("database-url"))
	if err != nil {
		return err
	}

	defer func() {
		if err := store.Close(ctx); err != nil {
			logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
		}
	}()

	reg, err := cmd.NewRegistry(logger, command.String("plugins-path"))
	if err != nil {
		return err
	}

	bus, err := cmd.NewEventBus(command.String("event-bus"), logger)
	if err != nil {
		return err
	}

	defer func() {
		if err := bus.Close(); err != nil {
			logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
		}
	}()

	cfg := matcher.DefaultConfig()
	if path := command.String("matcher-config"); path != "" {
		cfg, err = matcher.LoadConfig(path)
		if err != nil {
			return err
		}
	}

	scorer, err := reg.CreateScorer(command.String("scorer"), nil)
	if err != nil {
		return err
	}

	m, err := matcher.New(cfg, scorer, logger)
	if err != nil {
		return err
	}

	driver, err := reg.CreateDriver(command.String("driver"), nil)
	if err != nil {
		return err
	}

	var tracer trace.Tracer
	if command.Bool("tracing") {
		tracer, err = otelhelper.NewTracer(ctx, "replaykit-runner")
		if err != nil {
			return err
		}
	}

	runner := replay.NewRunner(store, m, driver, bus, tracer, logger)

	result, err := runner.Run(ctx, command.String("workflow-id"))
	if err != nil {
		return err
	}

	report, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}

	fmt.Println(string(report))

	if !result.Success {
		return fmt.Errorf("%w: step %d did not match", errReplayFailed, result.FailedStep)
	}

	return nil
}
