package matcher

import (
	"bytes"
	"context"

	"github.com/replaykit/replaykit/pkg/models"
)

// ExactImageComparator scores byte-identical images as 1 and everything else
// as 0. It has no perceptual tolerance, which makes it only suitable for dry
// runs and tests; production deployments plug in a pixel comparator.
type ExactImageComparator struct{}

func (ExactImageComparator) Compare(_ context.Context, recorded, live models.ImageRef) (float64, error) {
	if recorded.IsZero() || live.IsZero() {
		return 0, nil
	}

	if recorded == live {
		return 1, nil
	}

	if bytes.Equal(recorded.InlineData(), live.InlineData()) {
		return 1, nil
	}

	return 0, nil
}
