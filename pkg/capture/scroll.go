package capture

import (
	"context"
	"math"

	"github.com/replaykit/replaykit/pkg/models"
)

// handleScroll accumulates deltas and records a scroll action only once the
// cumulative movement crosses the threshold, so individual scroll ticks are
// never recorded.
func (s *Session) handleScroll(ctx context.Context, ev PageEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.scrollX += ev.DeltaX
	s.scrollY += ev.DeltaY

	magnitude := math.Max(math.Abs(s.scrollX), math.Abs(s.scrollY))
	if magnitude < s.cfg.ScrollThresholdPx {
		return
	}

	direction := scrollDirection(s.scrollX, s.scrollY)
	s.scrollX = 0
	s.scrollY = 0

	s.emitLocked(ctx, &models.RawRecord{
		Kind:      string(models.ActionTypeScroll),
		Timestamp: ev.Timestamp,
		Direction: direction,
		Amount:    magnitude,
	})
}

func scrollDirection(x, y float64) string {
	if math.Abs(y) >= math.Abs(x) {
		if y >= 0 {
			return "down"
		}

		return "up"
	}

	if x >= 0 {
		return "right"
	}

	return "left"
}
