package converter

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/replaykit/replaykit/pkg/models"
)

// Defaults applied during normalization.
const (
	DefaultWaitDurationMS = 1000
	defaultNamePrefix     = "Recorded"
)

// Normalize converts a recording session's records, raw or canonical, into
// canonical actions. The output always satisfies the normalization
// invariant: Name, Type, Platform and Params are non-null for every action.
func Normalize(session *models.RecordingSession) ([]*models.Action, error) {
	actions := make([]*models.Action, 0, len(session.Records))

	for i, record := range session.Records {
		var (
			action *models.Action
			err    error
		)

		switch Classify(record) {
		case KindCanonical:
			action, err = normalizeCanonical(record)
		case KindRaw:
			action, err = normalizeRaw(record)
		}

		if err != nil {
			return nil, fmt.Errorf("failed to normalize record %d: %w", i, err)
		}

		applyDefaults(action, session.Platform)
		actions = append(actions, action)
	}

	return actions, nil
}

func normalizeCanonical(record map[string]any) (*models.Action, error) {
	raw, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to re-encode canonical record: %w", err)
	}

	var action models.Action
	if err := json.Unmarshal(raw, &action); err != nil {
		return nil, fmt.Errorf("failed to decode canonical record: %w", err)
	}

	if action.Params == nil {
		action.Params = map[string]any{}
	}

	// Exports from older recorders place the visual fingerprint next to
	// params instead of inside it. Relocate it.
	if visual, ok := record[models.ParamVisual]; ok {
		if _, exists := action.Params[models.ParamVisual]; !exists {
			action.Params[models.ParamVisual] = visual
		}
	}

	return &action, nil
}

func normalizeRaw(record map[string]any) (*models.Action, error) {
	raw, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to re-encode raw record: %w", err)
	}

	var rec models.RawRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode raw record: %w", err)
	}

	return FromRawRecord(&rec), nil
}

// FromRawRecord builds a canonical action from one raw interaction record.
func FromRawRecord(rec *models.RawRecord) *models.Action {
	params := map[string]any{
		models.ParamExecutionMethod: string(models.ExecutionVisualFirst),
	}

	if rec.Fingerprint != nil {
		params[models.ParamFingerprint] = rec.Fingerprint
	}

	if rec.Visual != nil {
		params[models.ParamVisual] = rec.Visual
	}

	if rec.Selector != "" {
		params[models.ParamBackupSelector] = rec.Selector
	}

	actionType := models.ActionType(rec.Kind)

	switch actionType {
	case models.ActionTypeClick:
		// Nothing beyond the shared evidence fields.
	case models.ActionTypeType:
		params[models.ParamText] = rec.Value
	case models.ActionTypeNavigate:
		params[models.ParamURL] = rec.URL
		params[models.ParamWaitForLoad] = true
	case models.ActionTypeUpload:
		params[models.ParamFile] = rec.File
	case models.ActionTypeScroll:
		params[models.ParamDirection] = rec.Direction
		params[models.ParamAmount] = rec.Amount
	case models.ActionTypeWait:
		duration := rec.DurationMS
		if duration <= 0 {
			duration = DefaultWaitDurationMS
		}

		params[models.ParamDuration] = duration
		params[models.ParamJitter] = true
	case models.ActionTypeExtract, models.ActionTypeScreenshot:
		if rec.Selector != "" {
			params[models.ParamSelector] = rec.Selector
		}
	default:
		actionType = models.ActionTypeClick
	}

	name := rec.Name
	if name == "" {
		name = fmt.Sprintf("%s %s", defaultNamePrefix, strings.ToLower(string(actionType)))
	}

	return &models.Action{
		ID:       uuid.New().String(),
		Name:     name,
		Type:     actionType,
		Params:   params,
		Version:  1,
		IsActive: true,
	}
}

func applyDefaults(action *models.Action, platform string) {
	if action.ID == "" {
		action.ID = uuid.New().String()
	}

	if action.Name == "" {
		action.Name = fmt.Sprintf("%s %s", defaultNamePrefix, strings.ToLower(string(action.Type)))
	}

	if action.Type == "" {
		action.Type = models.ActionTypeClick
	}

	if action.Platform == "" {
		if platform != "" {
			action.Platform = platform
		} else {
			action.Platform = models.PlatformAll
		}
	}

	if action.Params == nil {
		action.Params = map[string]any{}
	}

	if models.StringParam(action.Params, models.ParamExecutionMethod) == "" {
		action.Params[models.ParamExecutionMethod] = string(models.ExecutionVisualFirst)
	}
}
