package capture

import (
	"context"

	"github.com/replaykit/replaykit/pkg/events"
	"github.com/replaykit/replaykit/pkg/models"
)

// handleClick records the click synchronously with a skeleton fingerprint
// (position, bounding box, text, surrounding text, viewport). Screenshots are
// captured asynchronously and attached to the same record afterward, joined
// by the record's identity key, never by positional index, which rapid
// consecutive clicks would cross-attribute.
func (s *Session) handleClick(ctx context.Context, ev PageEvent) {
	skeleton := skeletonFingerprint(ev)

	rec := &models.RawRecord{
		Kind:        string(models.ActionTypeClick),
		Timestamp:   ev.Timestamp,
		Selector:    ev.Target.Selector,
		Fingerprint: skeleton,
	}

	s.mu.Lock()
	key := s.emitLocked(ctx, rec)
	s.mu.Unlock()

	s.enrichAsync(ctx, key, ev.Target)
}

// enrichAsync captures element and context screenshots off the interaction
// path and joins them to the record identified by key.
func (s *Session) enrichAsync(ctx context.Context, key int64, target ElementInfo) {
	if s.shots == nil {
		return
	}

	s.shotWG.Add(1)

	go func() {
		defer s.shotWG.Done()

		shot, err := s.shots.CaptureElement(ctx, target)
		if err != nil {
			s.logger.Warn("Element screenshot capture failed", "error", err, "record_key", key)

			shot = ""
		}

		contextShot, err := s.shots.CaptureContext(ctx, target)
		if err != nil {
			s.logger.Warn("Context screenshot capture failed", "error", err, "record_key", key)

			contextShot = ""
		}

		if shot.IsZero() && contextShot.IsZero() {
			return
		}

		s.attachScreenshots(ctx, key, shot, contextShot)
	}()
}

func (s *Session) attachScreenshots(ctx context.Context, key int64, shot, contextShot models.ImageRef) {
	s.mu.Lock()

	fp := s.lookupFingerprintLocked(key)
	if fp == nil {
		s.mu.Unlock()
		s.logger.Warn("No record for screenshot enrichment", "record_key", key)

		return
	}

	if !shot.IsZero() {
		fp.Screenshot = shot
	}

	if !contextShot.IsZero() {
		fp.ContextScreenshot = contextShot
	}

	s.mu.Unlock()

	s.publish(ctx, events.FingerprintAttached{
		BaseEvent:  s.baseEvent(events.FingerprintAttachedEvent),
		RecordKey:  key,
		HasContext: !contextShot.IsZero(),
	})
}

// lookupFingerprintLocked finds the fingerprint owning the key: either an
// already-emitted record or a pending debounced field whose record will be
// emitted later. Both share the same Fingerprint pointer, so attaching works
// regardless of which side wins the race.
func (s *Session) lookupFingerprintLocked(key int64) *models.Fingerprint {
	if rec, ok := s.records[key]; ok {
		return rec.Fingerprint
	}

	for _, field := range s.fields {
		if field.key == key {
			return field.fingerprint
		}
	}

	return nil
}

func skeletonFingerprint(ev PageEvent) *models.Fingerprint {
	return &models.Fingerprint{
		Text:            ev.Target.Text,
		Position:        ev.Target.Position,
		BoundingBox:     ev.Target.BoundingBox,
		SurroundingText: append([]string(nil), ev.Target.SurroundingText...),
		Timestamp:       ev.Timestamp,
		Viewport:        ev.Viewport,
	}
}
