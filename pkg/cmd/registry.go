// Package cmd provides common initialization functions for command-line
// applications.
package cmd

import (
	"log/slog"

	"github.com/replaykit/replaykit/pkg/matcher"
	"github.com/replaykit/replaykit/pkg/registry"
	"github.com/replaykit/replaykit/pkg/replay"
)

// NewRegistry builds a registry with the native scorer registered and, when a
// plugins path is given, driver and scorer plugins loaded from it.
func NewRegistry(logger *slog.Logger, pluginsPath string) (*registry.Registry, error) {
	reg := registry.NewRegistry(logger)

	registerNativeScorers(reg)
	registerNativeDrivers(reg)

	if pluginsPath == "" {
		return reg, nil
	}

	driverPlugins, err := reg.LoadDriverPlugins(pluginsPath)
	if err != nil {
		return nil, err
	}

	for _, plugin := range driverPlugins {
		reg.RegisterDriver(plugin)
	}

	scorerPlugins, err := reg.LoadScorerPlugins(pluginsPath)
	if err != nil {
		return nil, err
	}

	for _, plugin := range scorerPlugins {
		reg.RegisterScorer(plugin)
	}

	return reg, nil
}

func registerNativeScorers(reg *registry.Registry) {
	reg.RegisterScorer(heuristicScorerFactory{})
	reg.RegisterScorer(heuristicExactScorerFactory{})
}

func registerNativeDrivers(reg *registry.Registry) {
	reg.RegisterDriver(dryRunDriverFactory{})
}

type heuristicScorerFactory struct{}

func (heuristicScorerFactory) ID() string {
	return "heuristic"
}

func (heuristicScorerFactory) Create(_ map[string]any) (matcher.Scorer, error) {
	return &matcher.HeuristicScorer{}, nil
}

// heuristicExactScorerFactory adds byte-exact screenshot comparison, enough
// for dry runs where the page echoes recorded fingerprints back.
type heuristicExactScorerFactory struct{}

func (heuristicExactScorerFactory) ID() string {
	return "heuristic-exact"
}

func (heuristicExactScorerFactory) Create(_ map[string]any) (matcher.Scorer, error) {
	return &matcher.HeuristicScorer{Images: matcher.ExactImageComparator{}}, nil
}

type dryRunDriverFactory struct{}

func (dryRunDriverFactory) ID() string {
	return "dryrun"
}

func (dryRunDriverFactory) Create(_ map[string]any, logger *slog.Logger) (replay.InteractionDriver, error) {
	return replay.NewDryRunDriver(logger), nil
}
