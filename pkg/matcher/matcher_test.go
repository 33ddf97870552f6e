package matcher_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/replaykit/replaykit/pkg/log"
	"github.com/replaykit/replaykit/pkg/matcher"
	"github.com/replaykit/replaykit/pkg/models"
)

// fakePage serves canned selector lookups and visual candidates.
type fakePage struct {
	selectors  map[string]*matcher.Candidate
	candidates []matcher.Candidate
	queryErr   error
}

func (p *fakePage) QuerySelector(_ context.Context, selector string) (*matcher.Candidate, error) {
	if p.queryErr != nil {
		return nil, p.queryErr
	}

	return p.selectors[selector], nil
}

func (p *fakePage) Candidates(_ context.Context, _ *models.Fingerprint) ([]matcher.Candidate, error) {
	return p.candidates, nil
}

// fixedScorer returns preset signals per candidate selector.
type fixedScorer struct {
	signals map[string]matcher.Signals
}

func (s *fixedScorer) Score(_ context.Context, _ *models.Fingerprint, candidate matcher.Candidate) (matcher.Signals, error) {
	return s.signals[candidate.Selector], nil
}

func newMatcher(t *testing.T, scorer matcher.Scorer) *matcher.Matcher {
	t.Helper()

	m, err := matcher.New(matcher.DefaultConfig(), scorer, log.Discard())
	require.NoError(t, err)

	return m
}

func fingerprintAt(x, y float64) *models.Fingerprint {
	return &models.Fingerprint{
		Text: "Pay now",
		Position: models.Position{
			Absolute: models.Point{X: x, Y: y},
			Relative: models.RelativePoint{XPercent: 50, YPercent: 50},
		},
		BoundingBox: models.BoundingBox{Width: 120, Height: 40},
	}
}

func TestMatcher_SelectorFirstUsesUniqueSelector(t *testing.T) {
	t.Parallel()

	page := &fakePage{selectors: map[string]*matcher.Candidate{
		"#pay": {
			Selector: "#pay",
			Position: models.Position{Absolute: models.Point{X: 300, Y: 400}},
		},
	}}
	m := newMatcher(t, &fixedScorer{})

	result, err := m.Match(t.Context(), page, matcher.Request{
		Fingerprint:     fingerprintAt(300, 400),
		BackupSelector:  "#pay",
		ExecutionMethod: models.ExecutionSelectorFirst,
	})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, models.StrategySelector, result.StrategyUsed)
	assert.Equal(t, 1.0, result.Confidence)
	require.NotNil(t, result.ResolvedPosition)
	assert.Equal(t, 300.0, result.ResolvedPosition.X)
}

func TestMatcher_SelectorFirstFallsBackToVisual(t *testing.T) {
	t.Parallel()

	page := &fakePage{
		selectors: map[string]*matcher.Candidate{},
		candidates: []matcher.Candidate{{
			Selector: "button.checkout",
			Position: models.Position{Absolute: models.Point{X: 310, Y: 390}},
		}},
	}
	scorer := &fixedScorer{signals: map[string]matcher.Signals{
		"button.checkout": {Screenshot: 0.9, Text: 1, Position: 0.9, Size: 1, SurroundingText: 1},
	}}
	m := newMatcher(t, scorer)

	result, err := m.Match(t.Context(), page, matcher.Request{
		Fingerprint:     fingerprintAt(300, 400),
		BackupSelector:  "#gone",
		ExecutionMethod: models.ExecutionSelectorFirst,
	})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, models.StrategyVisual, result.StrategyUsed)
	assert.Greater(t, result.Confidence, 0.75)
}

func TestMatcher_VisualFirstFallsBackToSelector(t *testing.T) {
	t.Parallel()

	page := &fakePage{
		selectors: map[string]*matcher.Candidate{
			"#pay": {Selector: "#pay", Position: models.Position{Absolute: models.Point{X: 5, Y: 6}}},
		},
		candidates: []matcher.Candidate{{Selector: "div.noise"}},
	}
	// The visual candidate scores poorly; the chain falls through.
	scorer := &fixedScorer{signals: map[string]matcher.Signals{
		"div.noise": {Text: 0.1},
	}}
	m := newMatcher(t, scorer)

	result, err := m.Match(t.Context(), page, matcher.Request{
		Fingerprint:     fingerprintAt(300, 400),
		BackupSelector:  "#pay",
		ExecutionMethod: models.ExecutionVisualFirst,
	})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, models.StrategySelector, result.StrategyUsed)
}

func TestMatcher_EmptyExecutionMethodDefaultsToVisualFirst(t *testing.T) {
	t.Parallel()

	page := &fakePage{
		candidates: []matcher.Candidate{{
			Selector: "button",
			Position: models.Position{Absolute: models.Point{X: 1, Y: 2}},
		}},
	}
	scorer := &fixedScorer{signals: map[string]matcher.Signals{
		"button": {Screenshot: 1, Text: 1, Position: 1, Size: 1, SurroundingText: 1},
	}}
	m := newMatcher(t, scorer)

	result, err := m.Match(t.Context(), page, matcher.Request{Fingerprint: fingerprintAt(1, 2)})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, models.StrategyVisual, result.StrategyUsed)
}

func TestMatcher_VisualOnlyNeverFallsBack(t *testing.T) {
	t.Parallel()

	// A perfectly good selector exists, but visualOnly must ignore it.
	page := &fakePage{
		selectors: map[string]*matcher.Candidate{
			"#pay": {Selector: "#pay"},
		},
		candidates: []matcher.Candidate{{Selector: "div.noise"}},
	}
	scorer := &fixedScorer{signals: map[string]matcher.Signals{
		"div.noise": {Text: 0.2},
	}}
	m := newMatcher(t, scorer)

	result, err := m.Match(t.Context(), page, matcher.Request{
		Fingerprint:     fingerprintAt(300, 400),
		BackupSelector:  "#pay",
		ExecutionMethod: models.ExecutionVisualOnly,
	})
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, models.StrategyVisual, result.StrategyUsed)
	assert.NotEmpty(t, result.Error)
}

func TestMatcher_MissIsDataNotError(t *testing.T) {
	t.Parallel()

	page := &fakePage{}
	m := newMatcher(t, &fixedScorer{})

	result, err := m.Match(t.Context(), page, matcher.Request{
		Fingerprint:     fingerprintAt(0, 0),
		ExecutionMethod: models.ExecutionVisualOnly,
	})
	require.NoError(t, err, "an unmatched target is a structured result, not an error")

	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Error)
}

func TestMatcher_TransportFaultIsAnError(t *testing.T) {
	t.Parallel()

	page := &fakePage{queryErr: errors.New("browser connection lost")}
	m := newMatcher(t, &fixedScorer{})

	_, err := m.Match(t.Context(), page, matcher.Request{
		BackupSelector:  "#pay",
		ExecutionMethod: models.ExecutionSelectorFirst,
	})
	require.Error(t, err)
}

func TestMatcher_TieBreaksOnRelativePositionDistance(t *testing.T) {
	t.Parallel()

	near := matcher.Candidate{
		Selector: "button.near",
		Position: models.Position{
			Absolute: models.Point{X: 100, Y: 100},
			Relative: models.RelativePoint{XPercent: 52, YPercent: 50},
		},
	}
	far := matcher.Candidate{
		Selector: "button.far",
		Position: models.Position{
			Absolute: models.Point{X: 900, Y: 900},
			Relative: models.RelativePoint{XPercent: 90, YPercent: 90},
		},
	}

	equal := matcher.Signals{Screenshot: 1, Text: 1, Position: 1, Size: 1, SurroundingText: 1}
	scorer := &fixedScorer{signals: map[string]matcher.Signals{
		"button.near": equal,
		"button.far":  equal,
	}}
	m := newMatcher(t, scorer)

	// Same confidence either way around; the closer candidate must win.
	for _, candidates := range [][]matcher.Candidate{{far, near}, {near, far}} {
		page := &fakePage{candidates: candidates}

		result, err := m.Match(t.Context(), page, matcher.Request{
			Fingerprint:     fingerprintAt(100, 100),
			ExecutionMethod: models.ExecutionVisualOnly,
		})
		require.NoError(t, err)

		require.True(t, result.Success)
		assert.Equal(t, 100.0, result.ResolvedPosition.X)
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*matcher.Config)
		wantErr bool
	}{
		{name: "defaults are valid", mutate: func(*matcher.Config) {}},
		{
			name:    "threshold above one",
			mutate:  func(c *matcher.Config) { c.AcceptThreshold = 1.5 },
			wantErr: true,
		},
		{
			name:    "zero threshold",
			mutate:  func(c *matcher.Config) { c.AcceptThreshold = 0 },
			wantErr: true,
		},
		{
			name:    "weights not summing to one",
			mutate:  func(c *matcher.Config) { c.Weights.Screenshot = 0.9 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := matcher.DefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
