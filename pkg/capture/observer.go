package capture

import "context"

// handleContainer attaches capture to a newly observed overlay subtree or
// iframe exactly once, deduplicated by node identity so long sessions never
// accumulate duplicate hooks. Cross-origin frames cannot be captured from
// the page; they are skipped and logged, not treated as errors.
func (s *Session) handleContainer(ctx context.Context, ev PageEvent) {
	s.mu.Lock()

	if _, ok := s.seen[ev.Target.NodeID]; ok {
		s.mu.Unlock()

		return
	}

	s.seen[ev.Target.NodeID] = struct{}{}
	s.mu.Unlock()

	if ev.Target.CrossOrigin {
		s.logger.Info("Skipping cross-origin frame", "node_id", ev.Target.NodeID)

		return
	}

	attacher, ok := s.source.(ContainerAttacher)
	if !ok {
		return
	}

	if err := attacher.Attach(ctx, ev.Target); err != nil {
		s.logger.Warn("Failed to attach capture to container", "error", err, "node_id", ev.Target.NodeID)
	}
}
