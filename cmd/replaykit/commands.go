package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/replaykit/replaykit/pkg/fingerprint"
	"github.com/replaykit/replaykit/pkg/log"
	"github.com/replaykit/replaykit/pkg/models"
)

var errValidationFailed = errors.New("size validation failed")

const actionFileMode = 0o600

func validateCommand(logger *slog.Logger) *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Check an action file against the storage size budgets",
		ArgsUsage: "<actions.json>",
		Flags: []cli.Flag{
			&cli.Float64Flag{
				Name:  "soft-limit-kb",
				Usage: "Per-action warning threshold in KB",
			},
			&cli.Float64Flag{
				Name:  "hard-limit-kb",
				Usage: "Per-action rejection threshold in KB",
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			actions, err := loadActions(command.Args().First())
			if err != nil {
				return err
			}

			validator := fingerprint.NewValidator(fingerprint.Limits{
				SoftLimitKB: command.Float64("soft-limit-kb"),
				HardLimitKB: command.Float64("hard-limit-kb"),
			})

			batch := validator.ValidateTotal(actions)

			report, err := json.MarshalIndent(batch, "", "  ")
			if err != nil {
				return err
			}

			fmt.Println(string(report))

			if !batch.Valid {
				return errValidationFailed
			}

			return nil
		},
	}
}

func optimizeCommand(logger *slog.Logger) *cli.Command {
	return &cli.Command{
		Name:      "optimize",
		Usage:     "Shrink fingerprint screenshots in an action file",
		ArgsUsage: "<actions.json>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file (defaults to rewriting the input)",
			},
			&cli.IntFlag{
				Name:  "quality",
				Usage: "JPEG quality of the optimized screenshots",
				Value: fingerprint.DefaultOptimizeOptions().Quality,
			},
			&cli.IntFlag{
				Name:  "max-width",
				Usage: "Maximum screenshot width in pixels",
				Value: fingerprint.DefaultOptimizeOptions().MaxWidth,
			},
			&cli.IntFlag{
				Name:  "max-height",
				Usage: "Maximum screenshot height in pixels",
				Value: fingerprint.DefaultOptimizeOptions().MaxHeight,
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			path := command.Args().First()

			actions, err := loadActions(path)
			if err != nil {
				return err
			}

			opts := fingerprint.OptimizeOptions{
				Quality:   command.Int("quality"),
				MaxWidth:  command.Int("max-width"),
				MaxHeight: command.Int("max-height"),
			}

			for _, action := range actions {
				action.Params = fingerprint.OptimizeParams(action.Params, opts, logger)
			}

			output := command.String("output")
			if output == "" {
				output = path
			}

			return writeActions(output, actions)
		},
	}
}

func exportCommand(logger *slog.Logger) *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Externalize inline screenshots into standalone files",
		ArgsUsage: "<actions.json>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "dir",
				Aliases: []string{"d"},
				Usage:   "Directory to write screenshot files into",
				Value:   "screenshots",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file (defaults to rewriting the input)",
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			path := command.Args().First()

			actions, err := loadActions(path)
			if err != nil {
				return err
			}

			dir := command.String("dir")

			for _, action := range actions {
				if err := fingerprint.ExternalizeScreenshots(action, dir); err != nil {
					return err
				}
			}

			logger.Info("Externalized screenshots", "actions", len(actions), "dir", dir)

			output := command.String("output")
			if output == "" {
				output = path
			}

			return writeActions(output, actions)
		},
	}
}

// loadActions reads an action file holding either a JSON array of actions or
// a single action object.
func loadActions(path string) ([]*models.Action, error) {
	if path == "" {
		return nil, errors.New("an action file argument is required")
	}

	raw, err := os.ReadFile(path) // #nosec G304 -- operator-supplied input path
	if err != nil {
		return nil, fmt.Errorf("failed to read action file: %w", err)
	}

	var actions []*models.Action
	if err := json.Unmarshal(raw, &actions); err == nil {
		return actions, nil
	}

	var action models.Action
	if err := json.Unmarshal(raw, &action); err != nil {
		return nil, fmt.Errorf("failed to parse action file %s: %w", path, err)
	}

	return []*models.Action{&action}, nil
}

func writeActions(path string, actions []*models.Action) error {
	raw, err := json.MarshalIndent(actions, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode actions: %w", err)
	}

	if err := os.WriteFile(path, raw, actionFileMode); err != nil {
		return fmt.Errorf("failed to write action file %s: %w", path, err)
	}

	return nil
}
