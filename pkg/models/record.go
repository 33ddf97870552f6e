package models

import "time"

// RawRecord is a low-level interaction record as emitted by the capture
// recorder, before normalization into a canonical Action. Asynchronous
// screenshot enrichment joins on a session-unique identity key derived from
// Timestamp, never on a positional index.
type RawRecord struct {
	Kind        string       `json:"type"`
	Timestamp   int64        `json:"timestamp"`
	Name        string       `json:"name,omitempty"`
	Value       string       `json:"value,omitempty"`
	FieldKey    string       `json:"fieldKey,omitempty"`
	Redacted    bool         `json:"redacted,omitempty"`
	URL         string       `json:"url,omitempty"`
	Direction   string       `json:"direction,omitempty"`
	Amount      float64      `json:"amount,omitempty"`
	DurationMS  int          `json:"duration,omitempty"`
	File        string       `json:"file,omitempty"`
	Selector    string       `json:"selector,omitempty"`
	Fingerprint *Fingerprint `json:"fingerprint,omitempty"`

	// Visual is the legacy top-level fingerprint slot some exports carry.
	// Normalization relocates it into params.visual.
	Visual *Fingerprint `json:"visual,omitempty"`
}

// RecordingSession is the export document produced by one capture session:
// session metadata plus the ordered records. Records may be raw or already
// canonical; the converter classifies each one.
type RecordingSession struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	Platform   string           `json:"platform"`
	StartURL   string           `json:"startUrl"`
	RecordedAt time.Time        `json:"recorded_at"`
	Records    []map[string]any `json:"records"`
}
