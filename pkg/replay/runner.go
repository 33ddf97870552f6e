package replay

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/replaykit/replaykit/pkg/converter"
	"github.com/replaykit/replaykit/pkg/eventbus"
	"github.com/replaykit/replaykit/pkg/events"
	"github.com/replaykit/replaykit/pkg/matcher"
	"github.com/replaykit/replaykit/pkg/models"
	"github.com/replaykit/replaykit/pkg/otelhelper"
	"github.com/replaykit/replaykit/pkg/persistence"
)

// StepResult is the outcome of one replayed step.
type StepResult struct {
	StepIndex int                `json:"stepIndex"`
	ActionID  string             `json:"actionId"`
	Type      models.ActionType  `json:"type"`
	Match     models.MatchResult `json:"match"`
	Extracted string             `json:"extracted,omitempty"`
}

// Result is the outcome of one workflow replay. A match miss stops the
// workflow, since the following steps' targets depend on page state the miss
// never produced, but it is reported here as data, not as an error.
type Result struct {
	WorkflowID string        `json:"workflowId"`
	Success    bool          `json:"success"`
	FailedStep int           `json:"failedStep"`
	Steps      []StepResult  `json:"steps"`
	Duration   time.Duration `json:"duration"`
}

// Runner replays workflows strictly sequentially: no cross-step parallelism,
// and no two concurrent replays on one runner.
type Runner struct {
	store   persistence.Persistence
	matcher *matcher.Matcher
	driver  InteractionDriver
	bus     eventbus.EventPublisher
	tracer  trace.Tracer
	logger  *slog.Logger

	mu sync.Mutex
}

// NewRunner builds a runner. The event publisher and tracer are optional.
func NewRunner(
	store persistence.Persistence,
	m *matcher.Matcher,
	driver InteractionDriver,
	bus eventbus.EventPublisher,
	tracer trace.Tracer,
	logger *slog.Logger,
) *Runner {
	return &Runner{
		store:   store,
		matcher: m,
		driver:  driver,
		bus:     bus,
		tracer:  tracer,
		logger:  logger,
	}
}

// Run replays the workflow, executing its auth workflow first when required.
func (r *Runner) Run(ctx context.Context, workflowID string) (*Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.run(ctx, workflowID, map[string]bool{})
}

func (r *Runner) run(ctx context.Context, workflowID string, visited map[string]bool) (*Result, error) {
	if visited[workflowID] {
		return nil, fmt.Errorf("auth workflow cycle detected at %s", workflowID)
	}

	visited[workflowID] = true

	workflow, err := r.store.WorkflowByID(ctx, workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch workflow %s: %w", workflowID, err)
	}

	logger := r.logger.With("workflow_id", workflow.ID, "workflow_name", workflow.Name)

	if workflow.RequiresAuth && workflow.AuthWorkflowID != "" {
		logger.Info("Running auth workflow first", "auth_workflow_id", workflow.AuthWorkflowID)

		authResult, err := r.run(ctx, workflow.AuthWorkflowID, visited)
		if err != nil {
			return nil, fmt.Errorf("auth workflow %s failed: %w", workflow.AuthWorkflowID, err)
		}

		if !authResult.Success {
			return &Result{
				WorkflowID: workflowID,
				Success:    false,
				FailedStep: -1,
			}, nil
		}
	}

	if err := persistence.PopulateSteps(ctx, r.store, workflow); err != nil {
		return nil, fmt.Errorf("failed to populate workflow steps: %w", err)
	}

	resolved, err := converter.Expand(workflow)
	if err != nil {
		return nil, err
	}

	ctx, span := r.startSpan(ctx, "replay.workflow",
		attribute.String(otelhelper.WorkflowIDKey, workflow.ID),
		attribute.String(otelhelper.WorkflowNameKey, workflow.Name),
	)
	defer span.End()

	started := time.Now()
	result := &Result{
		WorkflowID: workflowID,
		Success:    true,
		FailedStep: -1,
		Steps:      make([]StepResult, 0, len(resolved)),
	}

	for _, step := range resolved {
		logger.Info("Replaying step", "step_index", step.StepIndex, "action_type", step.Action.Type)

		stepResult, err := r.runStep(ctx, workflow.ID, step)
		if err != nil {
			otelhelper.SetError(span, err,
				attribute.String(otelhelper.ActionIDKey, step.Action.ID),
				attribute.Int(otelhelper.StepIndexKey, step.StepIndex),
			)

			return nil, fmt.Errorf("step %d (%s) failed: %w", step.StepIndex, step.Action.ID, err)
		}

		result.Steps = append(result.Steps, *stepResult)

		if !stepResult.Match.Success {
			result.Success = false
			result.FailedStep = step.StepIndex
			result.Duration = time.Since(started)

			r.publish(ctx, events.ReplayFailed{
				BaseEvent:  r.baseEvent(events.ReplayFailedEvent),
				WorkflowID: workflowID,
				StepIndex:  step.StepIndex,
				Reason:     stepResult.Match.Error,
			})

			logger.Warn("Stopping replay on unmatched step",
				"step_index", step.StepIndex, "reason", stepResult.Match.Error)

			return result, nil
		}
	}

	result.Duration = time.Since(started)

	r.publish(ctx, events.ReplayFinished{
		BaseEvent:  r.baseEvent(events.ReplayFinishedEvent),
		WorkflowID: workflowID,
		Steps:      len(result.Steps),
		Duration:   result.Duration,
	})

	logger.Info("Replay finished", "steps", len(result.Steps), "duration", result.Duration)

	return result, nil
}

func (r *Runner) runStep(ctx context.Context, workflowID string, step *converter.ResolvedAction) (*StepResult, error) {
	ctx, span := r.startSpan(ctx, "replay.step",
		attribute.String(otelhelper.ActionIDKey, step.Action.ID),
		attribute.String(otelhelper.ActionTypeKey, string(step.Action.Type)),
		attribute.Int(otelhelper.StepIndexKey, step.StepIndex),
	)
	defer span.End()

	result := &StepResult{
		StepIndex: step.StepIndex,
		ActionID:  step.Action.ID,
		Type:      step.Action.Type,
		// Steps without a page target count as trivially matched.
		Match: models.MatchResult{Success: true, Confidence: 1.0},
	}

	switch step.Action.Type {
	case models.ActionTypeNavigate:
		return result, r.driver.Navigate(ctx, models.StringParam(step.Params, models.ParamURL))

	case models.ActionTypeWait:
		return result, r.driver.Wait(ctx,
			intParam(step.Params, models.ParamDuration, converter.DefaultWaitDurationMS),
			boolParam(step.Params, models.ParamJitter))

	case models.ActionTypeScroll:
		return result, r.driver.Scroll(ctx,
			models.StringParam(step.Params, models.ParamDirection),
			floatParam(step.Params, models.ParamAmount))

	case models.ActionTypeScreenshot:
		_, err := r.driver.Screenshot(ctx)

		return result, err

	case models.ActionTypeExtract:
		selector := models.StringParam(step.Params, models.ParamSelector)
		if selector == "" {
			selector = step.BackupSelector
		}

		extracted, err := r.driver.Extract(ctx, selector)
		result.Extracted = extracted

		return result, err

	case models.ActionTypeClick, models.ActionTypeType, models.ActionTypeUpload:
		return r.runTargetedStep(ctx, span, workflowID, step, result)

	default:
		return nil, fmt.Errorf("unsupported action type %q", step.Action.Type)
	}
}

// runTargetedStep relocates the target through the matcher, then performs
// the interaction at the resolved position.
func (r *Runner) runTargetedStep(ctx context.Context, span trace.Span, workflowID string, step *converter.ResolvedAction, result *StepResult) (*StepResult, error) {
	match, err := r.matcher.Match(ctx, r.driver.Page(), matcher.Request{
		Fingerprint:     step.Fingerprint,
		BackupSelector:  step.BackupSelector,
		ExecutionMethod: step.ExecutionMethod,
	})
	if err != nil {
		return nil, fmt.Errorf("matcher fault: %w", err)
	}

	result.Match = match
	span.SetAttributes(
		attribute.String(otelhelper.StrategyKey, match.StrategyUsed),
		attribute.Float64(otelhelper.ConfidenceKey, match.Confidence),
	)

	if !match.Success {
		r.publish(ctx, events.StepMatchFailed{
			BaseEvent:  r.baseEvent(events.StepMatchFailedEvent),
			WorkflowID: workflowID,
			StepIndex:  step.StepIndex,
			ActionID:   step.Action.ID,
			Result:     match,
		})

		return result, nil
	}

	r.publish(ctx, events.StepMatched{
		BaseEvent:  r.baseEvent(events.StepMatchedEvent),
		WorkflowID: workflowID,
		StepIndex:  step.StepIndex,
		ActionID:   step.Action.ID,
		Result:     match,
	})

	position := *match.ResolvedPosition

	switch step.Action.Type {
	case models.ActionTypeClick:
		return result, r.driver.Click(ctx, position)
	case models.ActionTypeType:
		return result, r.driver.TypeText(ctx, position, models.StringParam(step.Params, models.ParamText))
	case models.ActionTypeUpload:
		return result, r.driver.Upload(ctx, position, models.StringParam(step.Params, models.ParamFile))
	default:
		return result, nil
	}
}

func (r *Runner) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if r.tracer == nil {
		return noop.NewTracerProvider().Tracer("replay").Start(ctx, name)
	}

	return otelhelper.StartSpan(ctx, r.tracer, name, attrs...)
}

func (r *Runner) publish(ctx context.Context, event eventbus.Event) {
	if r.bus == nil {
		return
	}

	if err := r.bus.Publish(ctx, uuid.New().String(), event); err != nil {
		r.logger.Warn("Failed to publish replay event", "error", err, "event_type", event.GetType())
	}
}

func (r *Runner) baseEvent(eventType events.EventType) events.BaseEvent {
	return events.BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now(),
	}
}

func intParam(params map[string]any, key string, fallback int) int {
	switch v := params[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return fallback
	}
}

func floatParam(params map[string]any, key string) float64 {
	switch v := params[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return 0
	}
}

func boolParam(params map[string]any, key string) bool {
	v, _ := params[key].(bool)

	return v
}
