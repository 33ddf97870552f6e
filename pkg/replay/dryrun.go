package replay

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/replaykit/replaykit/pkg/matcher"
	"github.com/replaykit/replaykit/pkg/models"
)

// DryRunDriver walks a workflow without a browser. Its page echoes each
// fingerprint back as a perfect candidate, so every recorded step resolves
// and the workflow's structure can be verified end to end.
type DryRunDriver struct {
	logger *slog.Logger
}

func NewDryRunDriver(logger *slog.Logger) *DryRunDriver {
	return &DryRunDriver{logger: logger}
}

func (d *DryRunDriver) Page() matcher.LivePage {
	return echoPage{}
}

func (d *DryRunDriver) Click(_ context.Context, position models.Point) error {
	d.logger.Info("dry-run: click", "x", position.X, "y", position.Y)

	return nil
}

func (d *DryRunDriver) TypeText(_ context.Context, position models.Point, text string) error {
	d.logger.Info("dry-run: type", "x", position.X, "y", position.Y, "chars", len(text))

	return nil
}

func (d *DryRunDriver) Navigate(_ context.Context, url string) error {
	d.logger.Info("dry-run: navigate", "url", url)

	return nil
}

func (d *DryRunDriver) Upload(_ context.Context, position models.Point, file string) error {
	d.logger.Info("dry-run: upload", "x", position.X, "y", position.Y, "file", file)

	return nil
}

func (d *DryRunDriver) Scroll(_ context.Context, direction string, amount float64) error {
	d.logger.Info("dry-run: scroll", "direction", direction, "amount", amount)

	return nil
}

func (d *DryRunDriver) Extract(_ context.Context, selector string) (string, error) {
	d.logger.Info("dry-run: extract", "selector", selector)

	return "", nil
}

func (d *DryRunDriver) Screenshot(_ context.Context) (models.ImageRef, error) {
	d.logger.Info("dry-run: screenshot")

	return models.ImageRef(""), nil
}

func (d *DryRunDriver) Wait(ctx context.Context, durationMS int, jitter bool) error {
	duration := time.Duration(durationMS) * time.Millisecond
	if jitter {
		duration += time.Duration(rand.Int63n(int64(duration)/4 + 1))
	}

	d.logger.Info("dry-run: wait", "duration", duration)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(duration):
		return nil
	}
}

// echoPage resolves every selector and mirrors fingerprints back as perfect
// candidates.
type echoPage struct{}

func (echoPage) QuerySelector(_ context.Context, selector string) (*matcher.Candidate, error) {
	return &matcher.Candidate{Selector: selector}, nil
}

func (echoPage) Candidates(_ context.Context, fp *models.Fingerprint) ([]matcher.Candidate, error) {
	if fp == nil {
		return nil, nil
	}

	return []matcher.Candidate{{
		Text:            fp.Text,
		Position:        fp.Position,
		BoundingBox:     fp.BoundingBox,
		SurroundingText: fp.SurroundingText,
		Screenshot:      fp.Screenshot,
	}}, nil
}
