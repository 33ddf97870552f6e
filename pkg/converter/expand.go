package converter

import (
	"errors"
	"fmt"
	"maps"

	"github.com/replaykit/replaykit/pkg/models"
)

// ErrActionNotPopulated indicates a workflow step references an action the
// caller did not pre-populate. This is a caller precondition, fatal to the
// whole conversion.
var ErrActionNotPopulated = errors.New("step references an unpopulated action")

// ResolvedAction is one flat, executable step of an expanded workflow.
type ResolvedAction struct {
	StepIndex       int
	Action          *models.Action
	Params          map[string]any
	Fingerprint     *models.Fingerprint
	BackupSelector  string
	ExecutionMethod models.ExecutionMethod
}

// Expand turns a workflow's ordered step references into a flat sequence of
// resolved actions. Each step's final params are a single-level shallow merge
// of the base action's params under the step's override: an override of
// "fingerprint" replaces the entire fingerprint object rather than merging
// its inner fields.
func Expand(workflow *models.Workflow) ([]*ResolvedAction, error) {
	resolved := make([]*ResolvedAction, 0, len(workflow.Steps))

	for i, step := range workflow.Steps {
		if step.Action == nil {
			return nil, fmt.Errorf("workflow %s step %d (action %s): %w",
				workflow.ID, i, step.ActionID, ErrActionNotPopulated)
		}

		params := shallowMerge(step.Action.Params, step.ParamsOverride)

		fingerprint, err := models.DecodeFingerprint(params[models.ParamFingerprint])
		if err != nil {
			return nil, fmt.Errorf("workflow %s step %d: %w", workflow.ID, i, err)
		}

		method := models.ExecutionMethod(models.StringParam(params, models.ParamExecutionMethod))
		if method == "" {
			method = models.ExecutionVisualFirst
		}

		resolved = append(resolved, &ResolvedAction{
			StepIndex:       i,
			Action:          step.Action,
			Params:          params,
			Fingerprint:     fingerprint,
			BackupSelector:  models.StringParam(params, models.ParamBackupSelector),
			ExecutionMethod: method,
		})
	}

	return resolved, nil
}

func shallowMerge(base, override map[string]any) map[string]any {
	merged := make(map[string]any, len(base)+len(override))
	maps.Copy(merged, base)
	maps.Copy(merged, override)

	return merged
}
