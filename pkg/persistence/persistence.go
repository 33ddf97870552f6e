package persistence

import (
	"context"

	"github.com/replaykit/replaykit/pkg/models"
)

// ActionRepository stores reusable actions. Save enforces the hard
// fingerprint size limit: oversized actions are rejected with
// ErrActionTooLarge.
type ActionRepository interface {
	Actions(ctx context.Context) ([]*models.Action, error)
	ActionByID(ctx context.Context, id string) (*models.Action, error)
	SaveAction(ctx context.Context, action *models.Action) error
	DeleteAction(ctx context.Context, id string) error
}

// WorkflowRepository stores workflows. Step order is preserved exactly.
type WorkflowRepository interface {
	Workflows(ctx context.Context) ([]*models.Workflow, error)
	WorkflowByID(ctx context.Context, id string) (*models.Workflow, error)
	SaveWorkflow(ctx context.Context, workflow *models.Workflow) error
	DeleteWorkflow(ctx context.Context, id string) error
}

// SessionRepository stores recording session export documents.
type SessionRepository interface {
	Sessions(ctx context.Context) ([]*models.RecordingSession, error)
	SessionByID(ctx context.Context, id string) (*models.RecordingSession, error)
	SaveSession(ctx context.Context, session *models.RecordingSession) error
	DeleteSession(ctx context.Context, id string) error
}

type Persistence interface {
	ActionRepository
	WorkflowRepository
	SessionRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// PopulateSteps joins each workflow step to its referenced action so the
// converter's expansion precondition holds. A missing action is returned as
// ErrActionNotFound via the repository.
func PopulateSteps(ctx context.Context, repo ActionRepository, workflow *models.Workflow) error {
	for _, step := range workflow.Steps {
		action, err := repo.ActionByID(ctx, step.ActionID)
		if err != nil {
			return err
		}

		step.Action = action
	}

	return nil
}
