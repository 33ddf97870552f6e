package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// ActionType enumerates the recordable interaction kinds.
type ActionType string

const (
	ActionTypeClick      ActionType = "click"
	ActionTypeType       ActionType = "type"
	ActionTypeWait       ActionType = "wait"
	ActionTypeNavigate   ActionType = "navigate"
	ActionTypeUpload     ActionType = "upload"
	ActionTypeExtract    ActionType = "extract"
	ActionTypeScroll     ActionType = "scroll"
	ActionTypeScreenshot ActionType = "screenshot"
)

// ExecutionMethod selects the relocation strategy chain used during replay.
type ExecutionMethod string

const (
	// ExecutionVisualFirst tries the visual strategy, then the backup selector.
	ExecutionVisualFirst ExecutionMethod = "visualFirst"
	// ExecutionSelectorFirst tries the backup selector, then the visual strategy.
	ExecutionSelectorFirst ExecutionMethod = "selectorFirst"
	// ExecutionVisualOnly never falls back to the selector.
	ExecutionVisualOnly ExecutionMethod = "visualOnly"
)

// Well-known params keys. Params is a map rather than a struct because
// workflow steps shallow-merge partial overrides over it, key by key.
const (
	ParamFingerprint     = "fingerprint"
	ParamBackupSelector  = "backupSelector"
	ParamExecutionMethod = "executionMethod"
	ParamText            = "text"
	ParamURL             = "url"
	ParamWaitForLoad     = "waitForLoad"
	ParamDirection       = "direction"
	ParamAmount          = "amount"
	ParamDuration        = "duration"
	ParamJitter          = "jitter"
	ParamFile            = "file"
	ParamSelector        = "selector"
	ParamVisual          = "visual"
)

// PlatformAll is the platform default applied during normalization.
const PlatformAll = "all"

// Action is a single reusable recorded interaction. After normalization,
// Name, Type, Platform and Params are never empty.
type Action struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"     validate:"required"`
	Type      ActionType     `json:"type"     validate:"required"`
	Platform  string         `json:"platform" validate:"required"`
	Params    map[string]any `json:"params"   validate:"required"`
	Version   int            `json:"version"`
	IsActive  bool           `json:"isActive"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Fingerprint extracts the fingerprint from the action's params. The value
// may be a typed *Fingerprint (straight from the recorder) or a plain map
// (after a JSON round-trip through persistence); both are accepted.
func (a *Action) Fingerprint() (*Fingerprint, error) {
	if a.Params == nil {
		return nil, nil
	}

	return DecodeFingerprint(a.Params[ParamFingerprint])
}

// DecodeFingerprint coerces a params entry into a *Fingerprint. A nil value
// yields (nil, nil).
func DecodeFingerprint(value any) (*Fingerprint, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case *Fingerprint:
		return v, nil
	case Fingerprint:
		return &v, nil
	case map[string]any:
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to re-encode fingerprint: %w", err)
		}

		var fp Fingerprint
		if err := json.Unmarshal(raw, &fp); err != nil {
			return nil, fmt.Errorf("failed to decode fingerprint: %w", err)
		}

		return &fp, nil
	default:
		return nil, fmt.Errorf("unsupported fingerprint representation %T", value)
	}
}

// StringParam returns a string-typed params entry, or "" when absent.
func StringParam(params map[string]any, key string) string {
	if params == nil {
		return ""
	}

	if s, ok := params[key].(string); ok {
		return s
	}

	return ""
}
