// Package replay executes expanded workflows step by step against a live
// page, delegating interactions to an external driver.
package replay

import (
	"context"

	"github.com/replaykit/replaykit/pkg/matcher"
	"github.com/replaykit/replaykit/pkg/models"
)

// InteractionDriver performs the actual interaction against a located
// target. The matcher finds the element; the driver touches it.
type InteractionDriver interface {
	// Page returns the live page handle the matcher runs against.
	Page() matcher.LivePage

	Click(ctx context.Context, position models.Point) error
	TypeText(ctx context.Context, position models.Point, text string) error
	Navigate(ctx context.Context, url string) error
	Upload(ctx context.Context, position models.Point, file string) error
	Scroll(ctx context.Context, direction string, amount float64) error
	Extract(ctx context.Context, selector string) (string, error)
	Screenshot(ctx context.Context) (models.ImageRef, error)
	Wait(ctx context.Context, durationMS int, jitter bool) error
}
