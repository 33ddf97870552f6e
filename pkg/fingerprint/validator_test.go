package fingerprint_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/replaykit/replaykit/pkg/fingerprint"
	"github.com/replaykit/replaykit/pkg/models"
)

// actionOfSize builds an action whose params payload is roughly kb kilobytes
// of JSON.
func actionOfSize(name string, kb int) *models.Action {
	return &models.Action{
		ID:   name,
		Name: name,
		Type: models.ActionTypeClick,
		Params: map[string]any{
			"data": strings.Repeat("x", kb*1024),
		},
	}
}

func TestValidator_UnderSoftLimitIsClean(t *testing.T) {
	t.Parallel()

	validator := fingerprint.NewValidator(fingerprint.DefaultLimits())

	result := validator.Validate(actionOfSize("small", 80))

	assert.True(t, result.Valid)
	assert.Empty(t, result.Warnings)
	assert.Empty(t, result.Errors)
	assert.InDelta(t, 80, result.SizeKB, 1)
}

func TestValidator_BetweenSoftAndHardWarnsButPasses(t *testing.T) {
	t.Parallel()

	validator := fingerprint.NewValidator(fingerprint.DefaultLimits())

	result := validator.Validate(actionOfSize("medium", 300))

	assert.True(t, result.Valid, "soft limit violations never reject")
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "medium")
	assert.Empty(t, result.Errors)
}

func TestValidator_AboveHardLimitRejects(t *testing.T) {
	t.Parallel()

	validator := fingerprint.NewValidator(fingerprint.DefaultLimits())

	result := validator.Validate(actionOfSize("huge", 600))

	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "hard limit")
}

func TestValidator_EmptyParams(t *testing.T) {
	t.Parallel()

	validator := fingerprint.NewValidator(fingerprint.DefaultLimits())

	result := validator.Validate(&models.Action{Name: "bare"})

	assert.True(t, result.Valid)
	assert.Zero(t, result.SizeKB)
}

func TestValidator_AggregateAdvisoryNeverFailsBatch(t *testing.T) {
	t.Parallel()

	validator := fingerprint.NewValidator(fingerprint.DefaultLimits())

	// 30 actions of ~200KB each: every one passes individually (with a soft
	// warning), and the ~6MB total crosses the 5MB advisory budget.
	actions := make([]*models.Action, 0, 30)
	for i := 0; i < 30; i++ {
		actions = append(actions, actionOfSize("step", 200))
	}

	batch := validator.ValidateTotal(actions)

	assert.True(t, batch.Valid, "the aggregate advisory alone never fails a batch")
	assert.Empty(t, batch.Errors)
	assert.Greater(t, batch.TotalSizeKB, 5.0*1024)

	var advisory bool

	for _, warning := range batch.Warnings {
		if strings.Contains(warning, "splitting") {
			advisory = true
		}
	}

	assert.True(t, advisory, "the batch carries the workflow-split suggestion")
	assert.Len(t, batch.PerAction, 30)
}

func TestValidator_IndividualHardFailureFailsBatch(t *testing.T) {
	t.Parallel()

	validator := fingerprint.NewValidator(fingerprint.DefaultLimits())

	batch := validator.ValidateTotal([]*models.Action{
		actionOfSize("fine", 10),
		actionOfSize("oversized", 600),
	})

	assert.False(t, batch.Valid)
	require.Len(t, batch.Errors, 1)
	assert.Contains(t, batch.Errors[0], "oversized")
}

func TestNewValidator_ZeroLimitsFallBackToDefaults(t *testing.T) {
	t.Parallel()

	validator := fingerprint.NewValidator(fingerprint.Limits{})

	// Defaults apply: 300KB is only a warning, not a rejection.
	result := validator.Validate(actionOfSize("medium", 300))

	assert.True(t, result.Valid)
	assert.NotEmpty(t, result.Warnings)
}
