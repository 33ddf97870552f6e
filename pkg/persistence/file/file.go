// Package file provides file-based persistence: every entity is one JSON
// document on disk.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/replaykit/replaykit/pkg/fingerprint"
	"github.com/replaykit/replaykit/pkg/models"
	"github.com/replaykit/replaykit/pkg/persistence"
)

const (
	actionsDir   = "actions"
	workflowsDir = "workflows"
	sessionsDir  = "sessions"

	fileMode = 0o600
	dirMode  = 0o750
)

// Persistence implements persistence.Persistence on the local file system.
type Persistence struct {
	root      string
	validator *fingerprint.Validator
}

// NewPersistence creates file persistence rooted at the given directory. The
// "file://" prefix of a database URL is accepted and stripped.
func NewPersistence(root string) *Persistence {
	return &Persistence{
		root:      strings.Replace(root, "file://", "", 1),
		validator: fingerprint.NewValidator(fingerprint.DefaultLimits()),
	}
}

// Close performs cleanup. File persistence holds no resources.
func (p *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck verifies the root directory exists.
func (p *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(p.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

func (p *Persistence) Actions(ctx context.Context) ([]*models.Action, error) {
	return listDocuments[models.Action](p.root, actionsDir)
}

func (p *Persistence) ActionByID(_ context.Context, id string) (*models.Action, error) {
	action, err := readDocument[models.Action](p.root, actionsDir, id)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, persistence.NewStoreError("ActionByID", id, persistence.ErrActionNotFound)
	}

	return action, err
}

// SaveAction persists an action, rejecting payloads above the hard size
// limit. Oversized actions must be re-optimized by the caller first.
func (p *Persistence) SaveAction(_ context.Context, action *models.Action) error {
	if result := p.validator.Validate(action); !result.Valid {
		return persistence.NewStoreError("SaveAction", action.ID,
			fmt.Errorf("%w: %s", persistence.ErrActionTooLarge, strings.Join(result.Errors, "; ")))
	}

	return writeDocument(p.root, actionsDir, action.ID, action)
}

func (p *Persistence) DeleteAction(_ context.Context, id string) error {
	return deleteDocument(p.root, actionsDir, id, persistence.ErrActionNotFound)
}

func (p *Persistence) Workflows(ctx context.Context) ([]*models.Workflow, error) {
	return listDocuments[models.Workflow](p.root, workflowsDir)
}

func (p *Persistence) WorkflowByID(_ context.Context, id string) (*models.Workflow, error) {
	workflow, err := readDocument[models.Workflow](p.root, workflowsDir, id)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, persistence.NewStoreError("WorkflowByID", id, persistence.ErrWorkflowNotFound)
	}

	return workflow, err
}

func (p *Persistence) SaveWorkflow(_ context.Context, workflow *models.Workflow) error {
	return writeDocument(p.root, workflowsDir, workflow.ID, workflow)
}

func (p *Persistence) DeleteWorkflow(_ context.Context, id string) error {
	return deleteDocument(p.root, workflowsDir, id, persistence.ErrWorkflowNotFound)
}

func (p *Persistence) Sessions(ctx context.Context) ([]*models.RecordingSession, error) {
	return listDocuments[models.RecordingSession](p.root, sessionsDir)
}

func (p *Persistence) SessionByID(_ context.Context, id string) (*models.RecordingSession, error) {
	session, err := readDocument[models.RecordingSession](p.root, sessionsDir, id)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, persistence.NewStoreError("SessionByID", id, persistence.ErrSessionNotFound)
	}

	return session, err
}

func (p *Persistence) SaveSession(_ context.Context, session *models.RecordingSession) error {
	return writeDocument(p.root, sessionsDir, session.ID, session)
}

func (p *Persistence) DeleteSession(_ context.Context, id string) error {
	return deleteDocument(p.root, sessionsDir, id, persistence.ErrSessionNotFound)
}

func documentPath(root, kind, id string) string {
	return filepath.Join(root, kind, id+".json")
}

func readDocument[T any](root, kind, id string) (*T, error) {
	raw, err := os.ReadFile(documentPath(root, kind, id)) // #nosec G304 -- path is built from our own root
	if err != nil {
		return nil, err
	}

	var doc T
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode %s document %s: %w", kind, id, err)
	}

	return &doc, nil
}

func writeDocument[T any](root, kind, id string, doc *T) error {
	if id == "" {
		return fmt.Errorf("cannot persist %s document without an id", kind)
	}

	if err := os.MkdirAll(filepath.Join(root, kind), dirMode); err != nil {
		return fmt.Errorf("failed to create %s directory: %w", kind, err)
	}

	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s document %s: %w", kind, id, err)
	}

	return os.WriteFile(documentPath(root, kind, id), raw, fileMode)
}

func listDocuments[T any](root, kind string) ([]*T, error) {
	path := filepath.Join(root, kind)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return []*T{}, nil
	}

	files, err := fs.Glob(os.DirFS(path), "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list %s documents: %w", kind, err)
	}

	docs := make([]*T, 0, len(files))

	for _, file := range files {
		id := strings.TrimSuffix(file, ".json")

		doc, err := readDocument[T](root, kind, id)
		if err != nil {
			return nil, err
		}

		docs = append(docs, doc)
	}

	return docs, nil
}

func deleteDocument(root, kind, id string, notFound error) error {
	err := os.Remove(documentPath(root, kind, id))
	if errors.Is(err, fs.ErrNotExist) {
		return persistence.NewStoreError("Delete", id, notFound)
	}

	return err
}
