package models

import "time"

// WorkflowStep references a reusable action and carries a partial params
// override. ParamsOverride is shallow-merged over the referenced action's
// base params: overriding "fingerprint" replaces the whole fingerprint
// object, it does not merge its inner fields.
type WorkflowStep struct {
	ActionID       string         `json:"actionId" validate:"required"`
	ParamsOverride map[string]any `json:"paramsOverride,omitempty"`

	// Action is the pre-populated join target. Filling it is a caller
	// precondition for expansion; a nil Action fails the conversion.
	Action *Action `json:"-"`
}

// Workflow is an ordered composition of actions. Step order is semantically
// significant and preserved everywhere.
type Workflow struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"     validate:"required,min=3"`
	Platform     string          `json:"platform" validate:"required"`
	Type         string          `json:"type"`
	Steps        []*WorkflowStep `json:"steps"`
	RequiresAuth bool            `json:"requiresAuth"`
	// AuthWorkflowID references the workflow that establishes a session
	// before this one runs. Only meaningful when RequiresAuth is set.
	AuthWorkflowID string    `json:"authWorkflowId,omitempty"`
	Version        int       `json:"version"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
