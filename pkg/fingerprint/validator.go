package fingerprint

import (
	"encoding/json"
	"fmt"

	"github.com/replaykit/replaykit/pkg/models"
)

// Limits holds the storage budgets enforced at the persistence boundary.
type Limits struct {
	// SoftLimitKB triggers an advisory warning; persistence proceeds.
	SoftLimitKB float64
	// HardLimitKB rejects the action outright.
	HardLimitKB float64
	// AggregateAdvisoryKB triggers a workflow-split suggestion for a batch.
	// It alone never fails the batch.
	AggregateAdvisoryKB float64
}

// DefaultLimits returns the standard budgets: 100KB soft, 500KB hard per
// action, 5MB advisory per workflow.
func DefaultLimits() Limits {
	return Limits{
		SoftLimitKB:         100,
		HardLimitKB:         500,
		AggregateAdvisoryKB: 5 * 1024,
	}
}

// Validator checks action payload sizes against the configured limits.
type Validator struct {
	limits Limits
}

// NewValidator creates a validator. Zero-valued limits fall back to defaults.
func NewValidator(limits Limits) *Validator {
	defaults := DefaultLimits()

	if limits.SoftLimitKB <= 0 {
		limits.SoftLimitKB = defaults.SoftLimitKB
	}

	if limits.HardLimitKB <= 0 {
		limits.HardLimitKB = defaults.HardLimitKB
	}

	if limits.AggregateAdvisoryKB <= 0 {
		limits.AggregateAdvisoryKB = defaults.AggregateAdvisoryKB
	}

	return &Validator{limits: limits}
}

// Validate measures one action's params payload against the per-action
// budgets.
func (v *Validator) Validate(action *models.Action) models.SizeValidationResult {
	result := models.SizeValidationResult{
		Valid:    true,
		Warnings: []string{},
		Errors:   []string{},
	}

	result.SizeKB = paramsSizeKB(action.Params)

	switch {
	case result.SizeKB > v.limits.HardLimitKB:
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf(
			"action %q payload is %.1fKB, above the %.0fKB hard limit; it cannot be persisted",
			action.Name, result.SizeKB, v.limits.HardLimitKB))
	case result.SizeKB > v.limits.SoftLimitKB:
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"action %q payload is %.1fKB, above the %.0fKB soft target; consider re-optimizing its fingerprint",
			action.Name, result.SizeKB, v.limits.SoftLimitKB))
	}

	return result
}

// ValidateTotal validates a batch of actions. Any individual hard failure
// makes the whole batch invalid. When the aggregate exceeds the advisory
// budget an extra warning suggests splitting the workflow; that warning alone
// never fails the batch.
func (v *Validator) ValidateTotal(actions []*models.Action) models.BatchSizeValidationResult {
	batch := models.BatchSizeValidationResult{
		Valid:     true,
		Warnings:  []string{},
		Errors:    []string{},
		PerAction: make([]models.SizeValidationResult, 0, len(actions)),
	}

	for _, action := range actions {
		result := v.Validate(action)
		batch.PerAction = append(batch.PerAction, result)
		batch.TotalSizeKB += result.SizeKB
		batch.Warnings = append(batch.Warnings, result.Warnings...)
		batch.Errors = append(batch.Errors, result.Errors...)

		if !result.Valid {
			batch.Valid = false
		}
	}

	if batch.TotalSizeKB > v.limits.AggregateAdvisoryKB {
		batch.Warnings = append(batch.Warnings, fmt.Sprintf(
			"workflow payload totals %.1fKB, above the %.0fKB advisory budget; consider splitting it into smaller workflows",
			batch.TotalSizeKB, v.limits.AggregateAdvisoryKB))
	}

	return batch
}

// paramsSizeKB measures the persisted JSON representation, which is what the
// storage boundary actually accounts for.
func paramsSizeKB(params map[string]any) float64 {
	if params == nil {
		return 0
	}

	raw, err := json.Marshal(params)
	if err != nil {
		return 0
	}

	return float64(len(raw)) / 1024
}
