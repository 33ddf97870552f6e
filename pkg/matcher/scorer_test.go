package matcher_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/replaykit/replaykit/pkg/matcher"
	"github.com/replaykit/replaykit/pkg/models"
)

func TestHeuristicScorer_IdenticalElementScoresFullSignals(t *testing.T) {
	t.Parallel()

	fp := &models.Fingerprint{
		Text: "Place order",
		Position: models.Position{
			Relative: models.RelativePoint{XPercent: 40, YPercent: 60},
		},
		BoundingBox:     models.BoundingBox{Width: 200, Height: 50},
		SurroundingText: []string{"Subtotal", "Shipping"},
		Screenshot:      models.NewInlineImage("image/png", []byte("pixels")),
	}

	candidate := matcher.Candidate{
		Text:            "Place order",
		Position:        fp.Position,
		BoundingBox:     fp.BoundingBox,
		SurroundingText: fp.SurroundingText,
		Screenshot:      fp.Screenshot,
	}

	scorer := &matcher.HeuristicScorer{Images: matcher.ExactImageComparator{}}

	signals, err := scorer.Score(t.Context(), fp, candidate)
	require.NoError(t, err)

	assert.Equal(t, 1.0, signals.Text)
	assert.Equal(t, 1.0, signals.Position)
	assert.Equal(t, 1.0, signals.Size)
	assert.Equal(t, 1.0, signals.SurroundingText)
	assert.Equal(t, 1.0, signals.Screenshot)
}

func TestHeuristicScorer_PartialSignals(t *testing.T) {
	t.Parallel()

	fp := &models.Fingerprint{
		Text: "Place order",
		Position: models.Position{
			Relative: models.RelativePoint{XPercent: 0, YPercent: 0},
		},
		BoundingBox:     models.BoundingBox{Width: 100, Height: 100},
		SurroundingText: []string{"Subtotal", "Shipping"},
	}

	candidate := matcher.Candidate{
		Text: "Click here to place order today",
		Position: models.Position{
			Relative: models.RelativePoint{XPercent: 100, YPercent: 100},
		},
		BoundingBox:     models.BoundingBox{Width: 50, Height: 100},
		SurroundingText: []string{"Shipping", "Totally different"},
	}

	scorer := &matcher.HeuristicScorer{}

	signals, err := scorer.Score(t.Context(), fp, candidate)
	require.NoError(t, err)

	assert.InDelta(t, 0.8, signals.Text, 1e-9, "containment scores 0.8")
	assert.InDelta(t, 0.0, signals.Position, 1e-9, "full diagonal apart")
	assert.InDelta(t, 0.5, signals.Size, 1e-9)
	assert.InDelta(t, 0.5, signals.SurroundingText, 1e-9)
	assert.Zero(t, signals.Screenshot, "no comparator configured")
}

func TestHeuristicScorer_TextTokenOverlap(t *testing.T) {
	t.Parallel()

	fp := &models.Fingerprint{Text: "Add to cart"}
	candidate := matcher.Candidate{
		Text:        "Add item basket",
		BoundingBox: models.BoundingBox{Width: 1, Height: 1},
	}

	scorer := &matcher.HeuristicScorer{}

	signals, err := scorer.Score(t.Context(), fp, candidate)
	require.NoError(t, err)

	assert.InDelta(t, 1.0/3.0, signals.Text, 1e-9)
}

func TestExactImageComparator(t *testing.T) {
	t.Parallel()

	img := models.NewInlineImage("image/png", []byte("pixels"))
	other := models.NewInlineImage("image/png", []byte("different"))

	comparator := matcher.ExactImageComparator{}

	score, err := comparator.Compare(t.Context(), img, img)
	require.NoError(t, err)
	assert.Equal(t, 1.0, score)

	score, err = comparator.Compare(t.Context(), img, other)
	require.NoError(t, err)
	assert.Zero(t, score)

	score, err = comparator.Compare(t.Context(), img, models.ImageRef(""))
	require.NoError(t, err)
	assert.Zero(t, score)
}
