package matcher

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/replaykit/replaykit/pkg/models"
)

// Request is one relocation attempt: the evidence from a resolved action plus
// the policy selecting the strategy chain.
type Request struct {
	Fingerprint     *models.Fingerprint
	BackupSelector  string
	ExecutionMethod models.ExecutionMethod
}

// Matcher drives the fallback strategy chain. A failed match is a structured
// result the caller branches on, never an error: Match errors only on
// transport faults talking to the page.
type Matcher struct {
	cfg    Config
	scorer Scorer
	logger *slog.Logger
}

// New builds a matcher. The scorer supplies the similarity signals; the
// config supplies threshold and weighting.
func New(cfg Config, scorer Scorer, logger *slog.Logger) (*Matcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid matcher config: %w", err)
	}

	return &Matcher{
		cfg:    cfg,
		scorer: scorer,
		logger: logger,
	}, nil
}

// Match relocates the request's target on the live page using the strategy
// chain selected by the execution method.
func (m *Matcher) Match(ctx context.Context, page LivePage, req Request) (models.MatchResult, error) {
	switch req.ExecutionMethod {
	case models.ExecutionSelectorFirst:
		return m.selectorFirst(ctx, page, req)
	case models.ExecutionVisualOnly:
		return m.visualOnly(ctx, page, req)
	case models.ExecutionVisualFirst, "":
		return m.visualFirst(ctx, page, req)
	default:
		return models.MatchResult{}, fmt.Errorf("unknown execution method %q", req.ExecutionMethod)
	}
}

func (m *Matcher) selectorFirst(ctx context.Context, page LivePage, req Request) (models.MatchResult, error) {
	result, err := m.bySelector(ctx, page, req.BackupSelector)
	if err != nil {
		return models.MatchResult{}, err
	}

	if result.Success {
		return result, nil
	}

	// Fall through to the visual strategy only when a fingerprint exists.
	if req.Fingerprint == nil {
		return models.MatchResult{
			Success: false,
			Error:   "selector did not match and no fingerprint is available",
		}, nil
	}

	return m.byFingerprint(ctx, page, req.Fingerprint)
}

func (m *Matcher) visualFirst(ctx context.Context, page LivePage, req Request) (models.MatchResult, error) {
	if req.Fingerprint != nil {
		result, err := m.byFingerprint(ctx, page, req.Fingerprint)
		if err != nil {
			return models.MatchResult{}, err
		}

		if result.Success {
			return result, nil
		}
	}

	if req.BackupSelector != "" {
		return m.bySelector(ctx, page, req.BackupSelector)
	}

	return models.MatchResult{
		Success: false,
		Error:   "no visual candidate met the threshold and no backup selector is available",
	}, nil
}

func (m *Matcher) visualOnly(ctx context.Context, page LivePage, req Request) (models.MatchResult, error) {
	if req.Fingerprint == nil {
		return models.MatchResult{
			Success: false,
			Error:   "visualOnly requires a fingerprint",
		}, nil
	}

	// No selector fallback, even when one is present.
	return m.byFingerprint(ctx, page, req.Fingerprint)
}

func (m *Matcher) bySelector(ctx context.Context, page LivePage, selector string) (models.MatchResult, error) {
	if selector == "" {
		return models.MatchResult{
			Success: false,
			Error:   "no backup selector recorded",
		}, nil
	}

	candidate, err := page.QuerySelector(ctx, selector)
	if err != nil {
		return models.MatchResult{}, fmt.Errorf("selector lookup failed: %w", err)
	}

	if candidate == nil {
		return models.MatchResult{
			Success:      false,
			StrategyUsed: models.StrategySelector,
			Error:        fmt.Sprintf("selector %q matched nothing", selector),
		}, nil
	}

	position := candidate.Position.Absolute

	return models.MatchResult{
		Success:          true,
		StrategyUsed:     models.StrategySelector,
		Confidence:       1.0,
		ResolvedPosition: &position,
	}, nil
}

func (m *Matcher) byFingerprint(ctx context.Context, page LivePage, fp *models.Fingerprint) (models.MatchResult, error) {
	candidates, err := page.Candidates(ctx, fp)
	if err != nil {
		return models.MatchResult{}, fmt.Errorf("candidate enumeration failed: %w", err)
	}

	if len(candidates) == 0 {
		return models.MatchResult{
			Success:      false,
			StrategyUsed: models.StrategyVisual,
			Error:        "page offered no candidates",
		}, nil
	}

	var (
		best           *Candidate
		bestConfidence float64
		bestDistance   float64
	)

	for i := range candidates {
		candidate := candidates[i]

		signals, err := m.scorer.Score(ctx, fp, candidate)
		if err != nil {
			m.logger.Warn("Scorer failed on candidate, skipping", "error", err, "selector", candidate.Selector)

			continue
		}

		confidence := m.composite(signals)
		distance := relativeDistance(fp.Position.Relative, candidate.Position.Relative)

		// Highest composite confidence wins; ties break toward the candidate
		// closest to the recorded relative position.
		better := confidence > bestConfidence ||
			(confidence == bestConfidence && best != nil && distance < bestDistance)
		if best == nil || better {
			best = &candidates[i]
			bestConfidence = confidence
			bestDistance = distance
		}
	}

	if best == nil || bestConfidence < m.cfg.AcceptThreshold {
		return models.MatchResult{
			Success:      false,
			StrategyUsed: models.StrategyVisual,
			Confidence:   bestConfidence,
			Error: fmt.Sprintf("best candidate confidence %.3f is below threshold %.3f",
				bestConfidence, m.cfg.AcceptThreshold),
		}, nil
	}

	position := best.Position.Absolute

	return models.MatchResult{
		Success:          true,
		StrategyUsed:     models.StrategyVisual,
		Confidence:       bestConfidence,
		ResolvedPosition: &position,
	}, nil
}

func (m *Matcher) composite(s Signals) float64 {
	w := m.cfg.Weights

	return w.Screenshot*clamp01(s.Screenshot) +
		w.Text*clamp01(s.Text) +
		w.Position*clamp01(s.Position) +
		w.Size*clamp01(s.Size) +
		w.SurroundingText*clamp01(s.SurroundingText)
}

func relativeDistance(a, b models.RelativePoint) float64 {
	return math.Hypot(a.XPercent-b.XPercent, a.YPercent-b.YPercent)
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}
