package matcher

import (
	"context"

	"github.com/replaykit/replaykit/pkg/models"
)

// Candidate is a live element considered as a match for a stored fingerprint.
type Candidate struct {
	Selector        string
	Text            string
	Position        models.Position
	BoundingBox     models.BoundingBox
	SurroundingText []string
	Screenshot      models.ImageRef
}

// LivePage is the handle the external page-automation driver exposes to the
// matcher.
type LivePage interface {
	// QuerySelector resolves a CSS selector to a unique candidate. A selector
	// that matches nothing returns (nil, nil); only transport faults error.
	QuerySelector(ctx context.Context, selector string) (*Candidate, error)

	// Candidates proposes live elements plausibly matching the fingerprint.
	Candidates(ctx context.Context, fp *models.Fingerprint) ([]Candidate, error)
}

// Signals are the per-modality similarity scores for one candidate, each in
// [0, 1]. Producing them, pixel and text similarity internals included, is an
// external capability; the matcher only combines them.
type Signals struct {
	Screenshot      float64
	Text            float64
	Position        float64
	Size            float64
	SurroundingText float64
}

// Scorer computes similarity signals between a stored fingerprint and a live
// candidate.
type Scorer interface {
	Score(ctx context.Context, fp *models.Fingerprint, candidate Candidate) (Signals, error)
}
