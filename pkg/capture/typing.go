package capture

import (
	"context"
	"time"

	"github.com/replaykit/replaykit/pkg/models"
)

// fieldState tracks one input field with pending edits. The real value lives
// only here, in transient memory; sensitive fields are redacted before
// anything is emitted.
type fieldState struct {
	value          string
	class          fieldClass
	key            int64
	startTime      int64
	visualCaptured bool
	fingerprint    *models.Fingerprint
	timer          *time.Timer
	target         ElementInfo
}

// handleInput implements per-field debounced type capture: the fingerprint is
// captured once per field on the first keystroke, and a fixed debounce window
// collapses consecutive edits into one emitted action carrying the final
// value. Each field has an independent timer, so concurrent typing into
// different fields is supported; renewed activity on a field resets only that
// field's timer.
func (s *Session) handleInput(ctx context.Context, ev PageEvent) {
	key := fieldKey(ev.Target)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}

	field, ok := s.fields[key]
	if !ok {
		field = &fieldState{
			class: classifyField(ev.Target),
			// The record's identity key is allocated on the first keystroke,
			// so enrichment started now still finds the record emitted at
			// flush time.
			key:         s.newRecordKeyLocked(ev.Timestamp),
			startTime:   ev.Timestamp,
			fingerprint: skeletonFingerprint(ev),
			target:      ev.Target,
		}
		s.fields[key] = field
	}

	field.value = ev.Value

	if !field.visualCaptured {
		// One screenshot per field, not per keystroke.
		field.visualCaptured = true
		s.enrichAsync(ctx, field.key, ev.Target)
	}

	if field.timer != nil {
		field.timer.Stop()
	}

	field.timer = time.AfterFunc(s.cfg.DebounceWindow, func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		s.flushFieldLocked(s.runCtx, key)
	})
}

// flushFieldLocked emits the pending type action for one field. Callers must
// hold s.mu.
func (s *Session) flushFieldLocked(ctx context.Context, key string) {
	field, ok := s.fields[key]
	if !ok {
		return
	}

	delete(s.fields, key)

	if field.timer != nil {
		field.timer.Stop()
	}

	value, redacted := redactValue(field.class, field.value)

	s.emitKeyedLocked(ctx, field.key, &models.RawRecord{
		Kind:        string(models.ActionTypeType),
		Timestamp:   field.startTime,
		FieldKey:    key,
		Value:       value,
		Redacted:    redacted,
		Selector:    field.target.Selector,
		Fingerprint: field.fingerprint,
	})
}

// flushFieldsLocked drains every pending field. Callers must hold s.mu.
func (s *Session) flushFieldsLocked(ctx context.Context) {
	for key := range s.fields {
		s.flushFieldLocked(ctx, key)
	}
}

// fieldKey identifies a field across events. Prefer stable markup identity
// over the selector, which dynamic pages rewrite.
func fieldKey(target ElementInfo) string {
	switch {
	case target.InputID != "":
		return "id:" + target.InputID
	case target.InputName != "":
		return "name:" + target.InputName
	default:
		return "sel:" + target.Selector
	}
}
