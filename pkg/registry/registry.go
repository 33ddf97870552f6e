// Package registry resolves interaction drivers and visual scorers by name,
// including ones shipped as Go plugins.
package registry

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"plugin"
	"strings"

	"github.com/replaykit/replaykit/pkg/matcher"
	"github.com/replaykit/replaykit/pkg/replay"
)

// DriverFactory builds a browser interaction driver from configuration.
type DriverFactory interface {
	ID() string
	Create(config map[string]any, logger *slog.Logger) (replay.InteractionDriver, error)
}

// ScorerFactory builds a visual similarity scorer from configuration.
type ScorerFactory interface {
	ID() string
	Create(config map[string]any) (matcher.Scorer, error)
}

type Registry struct {
	logger          *slog.Logger
	driverFactories map[string]DriverFactory
	scorerFactories map[string]ScorerFactory
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		logger:          log,
		driverFactories: make(map[string]DriverFactory),
		scorerFactories: make(map[string]ScorerFactory),
	}
}

func (r *Registry) LoadDriverPlugins(pluginsPath string) ([]DriverFactory, error) {
	return loadPlugin[DriverFactory](r.logger, pluginsPath, "Driver")
}

func (r *Registry) LoadScorerPlugins(pluginsPath string) ([]ScorerFactory, error) {
	return loadPlugin[ScorerFactory](r.logger, pluginsPath, "Scorer")
}

func (r *Registry) RegisterDriver(factory DriverFactory) {
	r.driverFactories[factory.ID()] = factory
}

func (r *Registry) RegisterScorer(factory ScorerFactory) {
	r.scorerFactories[factory.ID()] = factory
}

func (r *Registry) CreateDriver(driverID string, config map[string]any) (replay.InteractionDriver, error) {
	factory, ok := r.driverFactories[driverID]
	if !ok {
		return nil, fmt.Errorf("driver '%s' not registered", driverID)
	}

	return factory.Create(config, r.logger)
}

func (r *Registry) CreateScorer(scorerID string, config map[string]any) (matcher.Scorer, error) {
	factory, ok := r.scorerFactories[scorerID]
	if !ok {
		return nil, fmt.Errorf("scorer '%s' not registered", scorerID)
	}

	return factory.Create(config)
}

func (r *Registry) AvailableDrivers() []string {
	ids := make([]string, 0, len(r.driverFactories))
	for id := range r.driverFactories {
		ids = append(ids, id)
	}

	return ids
}

func (r *Registry) AvailableScorers() []string {
	ids := make([]string, 0, len(r.scorerFactories))
	for id := range r.scorerFactories {
		ids = append(ids, id)
	}

	return ids
}

func loadPlugin[T any](logger *slog.Logger, pluginsPath string, symbolName string) ([]T, error) {
	rootPath := pluginsPath + "/" + strings.ToLower(symbolName) + "s"
	root := os.DirFS(rootPath)

	pluginPathList, err := fs.Glob(root, "**/*.so")
	if err != nil {
		return nil, err
	}

	l := logger.With(slog.String("path", pluginsPath), slog.String("type", symbolName))
	l.Info("Loading plugins")

	pluginList := make([]T, 0, len(pluginPathList))

	for _, p := range pluginPathList {
		plg, err := plugin.Open(rootPath + "/" + p)
		if err != nil {
			return nil, fmt.Errorf("failed to open plugin %s: %w", p, err)
		}

		v, err := plg.Lookup(symbolName)
		if err != nil {
			return nil, fmt.Errorf("plugin %s has no %s symbol: %w", p, symbolName, err)
		}

		castV, ok := v.(T)
		if !ok {
			return nil, fmt.Errorf("plugin %s symbol %s has unexpected type", p, symbolName)
		}

		pluginList = append(pluginList, castV)

		l.Info("Loaded plugin", slog.String("plugin", p))
	}

	return pluginList, nil
}
