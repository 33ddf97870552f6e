// Package matcher relocates fingerprinted elements on a live page through a
// prioritized fallback strategy chain. It only locates targets; performing
// the interaction is the caller's responsibility.
package matcher

import (
	"encoding/json"
	"fmt"
	"os"
)

// Weights distribute the composite visual confidence across the fingerprint
// signals. They must sum to 1.
type Weights struct {
	Screenshot      float64 `json:"screenshot"`
	Text            float64 `json:"text"`
	Position        float64 `json:"position"`
	Size            float64 `json:"size"`
	SurroundingText float64 `json:"surroundingText"`
}

// Config is required, documented configuration: the acceptance threshold and
// signal weighting are deployment calibration, not constants of the engine.
type Config struct {
	// AcceptThreshold is the minimum composite confidence for a visual match.
	AcceptThreshold float64 `json:"acceptThreshold"`
	Weights         Weights `json:"weights"`
}

// DefaultConfig returns the calibration starting point. Operators are
// expected to tune it per fleet.
func DefaultConfig() Config {
	return Config{
		AcceptThreshold: 0.75,
		Weights: Weights{
			Screenshot:      0.40,
			Text:            0.25,
			Position:        0.15,
			Size:            0.10,
			SurroundingText: 0.10,
		},
	}
}

const weightSumTolerance = 1e-6

// Validate rejects configurations the chain cannot interpret.
func (c Config) Validate() error {
	if c.AcceptThreshold <= 0 || c.AcceptThreshold > 1 {
		return fmt.Errorf("acceptance threshold %v is outside (0, 1]", c.AcceptThreshold)
	}

	sum := c.Weights.Screenshot + c.Weights.Text + c.Weights.Position +
		c.Weights.Size + c.Weights.SurroundingText
	if diff := sum - 1; diff > weightSumTolerance || diff < -weightSumTolerance {
		return fmt.Errorf("signal weights sum to %v, want 1", sum)
	}

	return nil
}

// LoadConfig reads a config file, filling absent fields from defaults.
func LoadConfig(path string) (Config, error) {
	raw, err := os.ReadFile(path) // #nosec G304 -- operator-supplied config path
	if err != nil {
		return Config{}, fmt.Errorf("failed to read matcher config: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse matcher config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
