package file_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/replaykit/replaykit/pkg/models"
	"github.com/replaykit/replaykit/pkg/persistence"
	"github.com/replaykit/replaykit/pkg/persistence/file"
)

func testAction(id string) *models.Action {
	return &models.Action{
		ID:       id,
		Name:     "Click pay",
		Type:     models.ActionTypeClick,
		Platform: "shop",
		Params: map[string]any{
			models.ParamBackupSelector: "#pay",
		},
		Version:  1,
		IsActive: true,
	}
}

func TestFilePersistence_ActionRoundTrip(t *testing.T) {
	t.Parallel()

	store := file.NewPersistence(t.TempDir())
	action := testAction("a-1")

	require.NoError(t, store.SaveAction(t.Context(), action))

	loaded, err := store.ActionByID(t.Context(), "a-1")
	require.NoError(t, err)

	assert.Equal(t, action.Name, loaded.Name)
	assert.Equal(t, action.Type, loaded.Type)
	assert.Equal(t, "#pay", models.StringParam(loaded.Params, models.ParamBackupSelector))

	actions, err := store.Actions(t.Context())
	require.NoError(t, err)
	assert.Len(t, actions, 1)

	require.NoError(t, store.DeleteAction(t.Context(), "a-1"))

	_, err = store.ActionByID(t.Context(), "a-1")
	assert.True(t, persistence.IsActionNotFound(err))
}

func TestFilePersistence_SaveActionRejectsOversizedPayload(t *testing.T) {
	t.Parallel()

	store := file.NewPersistence(t.TempDir())

	oversized := testAction("a-big")
	oversized.Params["data"] = strings.Repeat("x", 600*1024)

	err := store.SaveAction(t.Context(), oversized)
	require.Error(t, err)
	assert.True(t, persistence.IsActionTooLarge(err))

	// The rejected action was never written.
	_, err = store.ActionByID(t.Context(), "a-big")
	assert.True(t, persistence.IsActionNotFound(err))
}

func TestFilePersistence_WorkflowRoundTrip(t *testing.T) {
	t.Parallel()

	store := file.NewPersistence(t.TempDir())

	workflow := &models.Workflow{
		ID:       "w-1",
		Name:     "Checkout flow",
		Platform: "shop",
		Steps: []*models.WorkflowStep{
			{ActionID: "a-1"},
			{ActionID: "a-2", ParamsOverride: map[string]any{models.ParamText: "blue"}},
		},
	}

	require.NoError(t, store.SaveWorkflow(t.Context(), workflow))

	loaded, err := store.WorkflowByID(t.Context(), "w-1")
	require.NoError(t, err)

	require.Len(t, loaded.Steps, 2)
	assert.Equal(t, "a-1", loaded.Steps[0].ActionID, "step order survives the round trip")
	assert.Equal(t, "a-2", loaded.Steps[1].ActionID)
	assert.Equal(t, "blue", models.StringParam(loaded.Steps[1].ParamsOverride, models.ParamText))

	_, err = store.WorkflowByID(t.Context(), "w-nope")
	assert.True(t, persistence.IsWorkflowNotFound(err))
}

func TestFilePersistence_SessionRoundTrip(t *testing.T) {
	t.Parallel()

	store := file.NewPersistence(t.TempDir())

	session := &models.RecordingSession{
		ID:   "s-1",
		Name: "checkout run",
		Records: []map[string]any{
			{"type": "click", "timestamp": float64(1)},
		},
	}

	require.NoError(t, store.SaveSession(t.Context(), session))

	loaded, err := store.SessionByID(t.Context(), "s-1")
	require.NoError(t, err)
	assert.Equal(t, "checkout run", loaded.Name)
	require.Len(t, loaded.Records, 1)

	require.NoError(t, store.DeleteSession(t.Context(), "s-1"))

	_, err = store.SessionByID(t.Context(), "s-1")
	assert.True(t, persistence.IsSessionNotFound(err))
}

func TestFilePersistence_ListOnEmptyStore(t *testing.T) {
	t.Parallel()

	store := file.NewPersistence(t.TempDir())

	actions, err := store.Actions(t.Context())
	require.NoError(t, err)
	assert.Empty(t, actions)

	workflows, err := store.Workflows(t.Context())
	require.NoError(t, err)
	assert.Empty(t, workflows)
}

func TestFilePersistence_SaveWithoutIDFails(t *testing.T) {
	t.Parallel()

	store := file.NewPersistence(t.TempDir())

	err := store.SaveAction(t.Context(), testAction(""))
	assert.Error(t, err)
}

func TestFilePersistence_AcceptsFileURL(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := file.NewPersistence("file://" + dir)

	require.NoError(t, store.SaveAction(t.Context(), testAction("a-1")))
	require.NoError(t, store.HealthCheck(t.Context()))
}

func TestPopulateSteps(t *testing.T) {
	t.Parallel()

	store := file.NewPersistence(t.TempDir())
	require.NoError(t, store.SaveAction(t.Context(), testAction("a-1")))

	workflow := &models.Workflow{
		ID:    "w-1",
		Steps: []*models.WorkflowStep{{ActionID: "a-1"}},
	}

	require.NoError(t, persistence.PopulateSteps(t.Context(), store, workflow))
	require.NotNil(t, workflow.Steps[0].Action)
	assert.Equal(t, "a-1", workflow.Steps[0].Action.ID)

	dangling := &models.Workflow{
		ID:    "w-2",
		Steps: []*models.WorkflowStep{{ActionID: "a-gone"}},
	}

	err := persistence.PopulateSteps(t.Context(), store, dangling)
	assert.True(t, persistence.IsActionNotFound(err))
}
