// Package web provides HTTP handlers for ingesting recordings and managing
// actions and workflows.
package web

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/replaykit/replaykit/pkg/converter"
	"github.com/replaykit/replaykit/pkg/fingerprint"
	"github.com/replaykit/replaykit/pkg/models"
	"github.com/replaykit/replaykit/pkg/persistence"
)

type APIHandlers struct {
	store     persistence.Persistence
	validate  *validator.Validate
	sizes     *fingerprint.Validator
	optimizer fingerprint.OptimizeOptions
	logger    *slog.Logger
}

func NewAPIHandlers(
	store persistence.Persistence,
	validate *validator.Validate,
	sizes *fingerprint.Validator,
	optimizer fingerprint.OptimizeOptions,
	logger *slog.Logger,
) *APIHandlers {
	return &APIHandlers{
		store:     store,
		validate:  validate,
		sizes:     sizes,
		optimizer: optimizer,
		logger:    logger,
	}
}

// IngestSession accepts a recording export document, normalizes its records
// into canonical actions, optimizes their fingerprints, enforces the size
// budgets, and persists both the session and the resulting actions.
func (h *APIHandlers) IngestSession(c fiber.Ctx) error {
	raw := c.Body()

	violations, err := validateSessionDocument(raw)
	if err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if len(violations) > 0 {
		return unprocessable(c, "schema_violation", violations)
	}

	var session models.RecordingSession
	if err := c.Bind().JSON(&session); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if session.ID == "" {
		session.ID = uuid.New().String()
	}

	if session.RecordedAt.IsZero() {
		session.RecordedAt = time.Now().UTC()
	}

	actions, err := converter.Normalize(&session)
	if err != nil {
		return unprocessable(c, "normalization_error", []string{err.Error()})
	}

	for _, action := range actions {
		action.Params = fingerprint.OptimizeParams(action.Params, h.optimizer, h.logger)
	}

	batch := h.sizes.ValidateTotal(actions)
	if !batch.Valid {
		return unprocessable(c, "size_limit_exceeded", batch.Errors)
	}

	if err := h.store.SaveSession(c.Context(), &session); err != nil {
		return handleStoreError(c, err)
	}

	actionIDs := make([]string, 0, len(actions))

	for _, action := range actions {
		if err := h.store.SaveAction(c.Context(), action); err != nil {
			return handleStoreError(c, err)
		}

		actionIDs = append(actionIDs, action.ID)
	}

	h.logger.Info("Ingested recording session",
		"session_id", session.ID, "actions", len(actionIDs),
		"total_size_kb", batch.TotalSizeKB, "warnings", len(batch.Warnings))

	return c.Status(fiber.StatusCreated).JSON(IngestResponse{
		SessionID:  session.ID,
		ActionIDs:  actionIDs,
		Validation: batch,
	})
}

func (h *APIHandlers) GetSessions(c fiber.Ctx) error {
	sessions, err := h.store.Sessions(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(sessions)
}

func (h *APIHandlers) GetSession(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Session ID is required")
	}

	session, err := h.store.SessionByID(c.Context(), id)
	if err != nil {
		return handleStoreError(c, err)
	}

	return c.JSON(session)
}

func (h *APIHandlers) GetActions(c fiber.Ctx) error {
	actions, err := h.store.Actions(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(actions)
}

func (h *APIHandlers) GetAction(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Action ID is required")
	}

	action, err := h.store.ActionByID(c.Context(), id)
	if err != nil {
		return handleStoreError(c, err)
	}

	return c.JSON(action)
}

func (h *APIHandlers) DeleteAction(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Action ID is required")
	}

	if err := h.store.DeleteAction(c.Context(), id); err != nil {
		return handleStoreError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// CreateWorkflow composes persisted actions into a workflow. Every referenced
// action must already exist; a dangling reference rejects the whole request.
func (h *APIHandlers) CreateWorkflow(c fiber.Ctx) error {
	var req CreateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validate.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	steps := make([]*models.WorkflowStep, 0, len(req.Steps))

	for _, step := range req.Steps {
		if _, err := h.store.ActionByID(c.Context(), step.ActionID); err != nil {
			return handleStoreError(c, err)
		}

		steps = append(steps, &models.WorkflowStep{
			ActionID:       step.ActionID,
			ParamsOverride: step.ParamsOverride,
		})
	}

	platform := req.Platform
	if platform == "" {
		platform = models.PlatformAll
	}

	now := time.Now().UTC()
	workflow := &models.Workflow{
		ID:             uuid.New().String(),
		Name:           req.Name,
		Platform:       platform,
		Type:           req.Type,
		Steps:          steps,
		RequiresAuth:   req.RequiresAuth,
		AuthWorkflowID: req.AuthWorkflowID,
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := h.store.SaveWorkflow(c.Context(), workflow); err != nil {
		return handleStoreError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(workflow)
}

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	workflows, err := h.store.Workflows(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(workflows)
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	workflow, err := h.store.WorkflowByID(c.Context(), id)
	if err != nil {
		return handleStoreError(c, err)
	}

	return c.JSON(workflow)
}

func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	if err := h.store.DeleteWorkflow(c.Context(), id); err != nil {
		return handleStoreError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	status := "healthy"
	message := "ReplayKit API is healthy"
	httpStatus := http.StatusOK

	if err := h.store.HealthCheck(c.Context()); err != nil {
		status = "unhealthy"
		message = "ReplayKit API is unhealthy: " + err.Error()
		httpStatus = http.StatusInternalServerError
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":    status,
		"message":   message,
		"timestamp": time.Now().UTC(),
	})
}
