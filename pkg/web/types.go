package web

import "github.com/replaykit/replaykit/pkg/models"

// CreateWorkflowRequest composes persisted actions into a replayable workflow.
type CreateWorkflowRequest struct {
	Name           string                `json:"name"            validate:"required,min=1,max=255"`
	Platform       string                `json:"platform"`
	Type           string                `json:"workflowType"`
	Steps          []WorkflowStepRequest `json:"steps"           validate:"required,min=1,dive"`
	RequiresAuth   bool                  `json:"requiresAuth"`
	AuthWorkflowID string                `json:"authWorkflowId"`
}

type WorkflowStepRequest struct {
	ActionID       string         `json:"actionId"                 validate:"required"`
	ParamsOverride map[string]any `json:"paramsOverride,omitempty"`
}

// IngestResponse reports what a recording upload produced.
type IngestResponse struct {
	SessionID  string                           `json:"sessionId"`
	ActionIDs  []string                         `json:"actionIds"`
	Validation models.BatchSizeValidationResult `json:"validation"`
}
