// Package converter normalizes heterogeneous recorded input into canonical
// actions and expands workflows into flat, resolved, executable sequences.
package converter

// RecordKind tags the two admissible shapes a session record can take.
type RecordKind string

const (
	// KindRaw is a low-level interaction record emitted by the recorder.
	KindRaw RecordKind = "raw"
	// KindCanonical is an already-normalized action.
	KindCanonical RecordKind = "canonical"
)

// Classify decides which shape a record is before any further processing.
// Canonical actions carry a params object; everything else is treated as a
// raw interaction record.
func Classify(record map[string]any) RecordKind {
	if record == nil {
		return KindRaw
	}

	if _, ok := record["params"].(map[string]any); ok {
		return KindCanonical
	}

	return KindRaw
}
