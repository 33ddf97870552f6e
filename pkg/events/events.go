// Package events defines event types for capture and replay lifecycle
// notifications.
package events

import (
	"time"

	"github.com/replaykit/replaykit/pkg/models"
)

type EventType string

// Topic carries all capture and replay events.
const Topic = "replaykit.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Capture lifecycle events.
	SessionStartedEvent      EventType = "capture.session.started"
	ActionRecordedEvent      EventType = "capture.action.recorded"
	FingerprintAttachedEvent EventType = "capture.fingerprint.attached"
	SessionFinishedEvent     EventType = "capture.session.finished"

	// Replay lifecycle events.
	StepMatchedEvent     EventType = "replay.step.matched"
	StepMatchFailedEvent EventType = "replay.step.match_failed"
	ReplayFinishedEvent  EventType = "replay.finished"
	ReplayFailedEvent    EventType = "replay.failed"
)

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	SessionID string         `json:"session_id,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

type SessionStarted struct {
	BaseEvent

	SessionName string `json:"session_name"`
	Platform    string `json:"platform"`
	StartURL    string `json:"start_url"`
}

func (e SessionStarted) GetType() EventType {
	return SessionStartedEvent
}

type ActionRecorded struct {
	BaseEvent

	RecordKind string `json:"record_kind"`
	RecordKey  int64  `json:"record_key"`
}

func (e ActionRecorded) GetType() EventType {
	return ActionRecordedEvent
}

// FingerprintAttached signals that asynchronous screenshot enrichment joined
// an already-emitted record, identified by its session-unique record key.
type FingerprintAttached struct {
	BaseEvent

	RecordKey  int64 `json:"record_key"`
	HasContext bool  `json:"has_context"`
}

func (e FingerprintAttached) GetType() EventType {
	return FingerprintAttachedEvent
}

type SessionFinished struct {
	BaseEvent

	RecordCount int           `json:"record_count"`
	Duration    time.Duration `json:"duration"`
}

func (e SessionFinished) GetType() EventType {
	return SessionFinishedEvent
}

type StepMatched struct {
	BaseEvent

	WorkflowID string             `json:"workflow_id"`
	StepIndex  int                `json:"step_index"`
	ActionID   string             `json:"action_id"`
	Result     models.MatchResult `json:"result"`
}

func (e StepMatched) GetType() EventType {
	return StepMatchedEvent
}

type StepMatchFailed struct {
	BaseEvent

	WorkflowID string             `json:"workflow_id"`
	StepIndex  int                `json:"step_index"`
	ActionID   string             `json:"action_id"`
	Result     models.MatchResult `json:"result"`
}

func (e StepMatchFailed) GetType() EventType {
	return StepMatchFailedEvent
}

type ReplayFinished struct {
	BaseEvent

	WorkflowID string        `json:"workflow_id"`
	Steps      int           `json:"steps"`
	Duration   time.Duration `json:"duration"`
}

func (e ReplayFinished) GetType() EventType {
	return ReplayFinishedEvent
}

type ReplayFailed struct {
	BaseEvent

	WorkflowID string `json:"workflow_id"`
	StepIndex  int    `json:"step_index"`
	Reason     string `json:"reason"`
}

func (e ReplayFailed) GetType() EventType {
	return ReplayFailedEvent
}
