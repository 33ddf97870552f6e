package matcher

import (
	"context"
	"math"
	"strings"

	"github.com/replaykit/replaykit/pkg/models"
)

// ImageComparator is the external pixel-similarity capability. Its numeric
// internals are outside this engine; the matcher only consumes the score.
type ImageComparator interface {
	// Compare returns similarity in [0, 1] between two images, either of
	// which may be inline data or a file path.
	Compare(ctx context.Context, recorded, live models.ImageRef) (float64, error)
}

// HeuristicScorer derives the non-pixel signals from fingerprint geometry and
// text, and delegates screenshot similarity to an ImageComparator. A nil
// comparator scores the screenshot signal as zero, which simply shifts weight
// to the remaining signals.
type HeuristicScorer struct {
	Images ImageComparator
}

func (s *HeuristicScorer) Score(ctx context.Context, fp *models.Fingerprint, candidate Candidate) (Signals, error) {
	signals := Signals{
		Text:            textSimilarity(fp.Text, candidate.Text),
		Position:        positionProximity(fp.Position.Relative, candidate.Position.Relative),
		Size:            sizeProximity(fp.BoundingBox, candidate.BoundingBox),
		SurroundingText: surroundingOverlap(fp.SurroundingText, candidate.SurroundingText),
	}

	if s.Images != nil && !fp.Screenshot.IsZero() && !candidate.Screenshot.IsZero() {
		score, err := s.Images.Compare(ctx, fp.Screenshot, candidate.Screenshot)
		if err != nil {
			return Signals{}, err
		}

		signals.Screenshot = score
	}

	return signals, nil
}

func textSimilarity(recorded, live string) float64 {
	recorded = normalizeText(recorded)
	live = normalizeText(live)

	switch {
	case recorded == "" && live == "":
		return 1
	case recorded == "" || live == "":
		return 0
	case recorded == live:
		return 1
	case strings.Contains(live, recorded) || strings.Contains(recorded, live):
		return 0.8
	default:
		return tokenOverlap(strings.Fields(recorded), strings.Fields(live))
	}
}

// positionProximity decays linearly with relative-position distance; a full
// viewport diagonal away scores zero.
func positionProximity(recorded, live models.RelativePoint) float64 {
	distance := math.Hypot(recorded.XPercent-live.XPercent, recorded.YPercent-live.YPercent)
	diagonal := math.Hypot(100, 100)

	return clamp01(1 - distance/diagonal)
}

func sizeProximity(recorded, live models.BoundingBox) float64 {
	return ratioScore(recorded.Width, live.Width) * ratioScore(recorded.Height, live.Height)
}

func ratioScore(a, b float64) float64 {
	if a <= 0 || b <= 0 {
		return 0
	}

	return math.Min(a, b) / math.Max(a, b)
}

func surroundingOverlap(recorded, live []string) float64 {
	if len(recorded) == 0 {
		return 1
	}

	normalized := make(map[string]struct{}, len(live))
	for _, snippet := range live {
		normalized[normalizeText(snippet)] = struct{}{}
	}

	matched := 0

	for _, snippet := range recorded {
		if _, ok := normalized[normalizeText(snippet)]; ok {
			matched++
		}
	}

	return float64(matched) / float64(len(recorded))
}

func tokenOverlap(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	set := make(map[string]struct{}, len(a))
	for _, token := range a {
		set[token] = struct{}{}
	}

	shared := 0

	for _, token := range b {
		if _, ok := set[token]; ok {
			shared++
		}
	}

	return float64(shared) / math.Max(float64(len(a)), float64(len(b)))
}

func normalizeText(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
