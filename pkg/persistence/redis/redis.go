// Package redis provides Redis-backed persistence for deployments sharing
// actions and workflows across runner instances.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"github.com/replaykit/replaykit/pkg/fingerprint"
	"github.com/replaykit/replaykit/pkg/models"
	"github.com/replaykit/replaykit/pkg/persistence"
)

const (
	actionPrefix   = "replaykit:actions:"
	workflowPrefix = "replaykit:workflows:"
	sessionPrefix  = "replaykit:sessions:"
)

// Persistence implements persistence.Persistence on Redis. Each entity is a
// JSON value under a typed key prefix.
type Persistence struct {
	client    *goredis.Client
	validator *fingerprint.Validator
}

// NewPersistence connects to the Redis URL (redis://...).
func NewPersistence(url string) (*Persistence, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	return &Persistence{
		client:    goredis.NewClient(opts),
		validator: fingerprint.NewValidator(fingerprint.DefaultLimits()),
	}, nil
}

// NewPersistenceWithClient wraps an existing client, mainly for tests.
func NewPersistenceWithClient(client *goredis.Client) *Persistence {
	return &Persistence{
		client:    client,
		validator: fingerprint.NewValidator(fingerprint.DefaultLimits()),
	}
}

func (p *Persistence) Close(_ context.Context) error {
	return p.client.Close()
}

func (p *Persistence) HealthCheck(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

func (p *Persistence) Actions(ctx context.Context) ([]*models.Action, error) {
	return list[models.Action](ctx, p.client, actionPrefix)
}

func (p *Persistence) ActionByID(ctx context.Context, id string) (*models.Action, error) {
	return get[models.Action](ctx, p.client, actionPrefix, id, persistence.ErrActionNotFound)
}

func (p *Persistence) SaveAction(ctx context.Context, action *models.Action) error {
	if result := p.validator.Validate(action); !result.Valid {
		return persistence.NewStoreError("SaveAction", action.ID,
			fmt.Errorf("%w: %s", persistence.ErrActionTooLarge, strings.Join(result.Errors, "; ")))
	}

	return set(ctx, p.client, actionPrefix, action.ID, action)
}

func (p *Persistence) DeleteAction(ctx context.Context, id string) error {
	return del(ctx, p.client, actionPrefix, id, persistence.ErrActionNotFound)
}

func (p *Persistence) Workflows(ctx context.Context) ([]*models.Workflow, error) {
	return list[models.Workflow](ctx, p.client, workflowPrefix)
}

func (p *Persistence) WorkflowByID(ctx context.Context, id string) (*models.Workflow, error) {
	return get[models.Workflow](ctx, p.client, workflowPrefix, id, persistence.ErrWorkflowNotFound)
}

func (p *Persistence) SaveWorkflow(ctx context.Context, workflow *models.Workflow) error {
	return set(ctx, p.client, workflowPrefix, workflow.ID, workflow)
}

func (p *Persistence) DeleteWorkflow(ctx context.Context, id string) error {
	return del(ctx, p.client, workflowPrefix, id, persistence.ErrWorkflowNotFound)
}

func (p *Persistence) Sessions(ctx context.Context) ([]*models.RecordingSession, error) {
	return list[models.RecordingSession](ctx, p.client, sessionPrefix)
}

func (p *Persistence) SessionByID(ctx context.Context, id string) (*models.RecordingSession, error) {
	return get[models.RecordingSession](ctx, p.client, sessionPrefix, id, persistence.ErrSessionNotFound)
}

func (p *Persistence) SaveSession(ctx context.Context, session *models.RecordingSession) error {
	return set(ctx, p.client, sessionPrefix, session.ID, session)
}

func (p *Persistence) DeleteSession(ctx context.Context, id string) error {
	return del(ctx, p.client, sessionPrefix, id, persistence.ErrSessionNotFound)
}

func get[T any](ctx context.Context, client *goredis.Client, prefix, id string, notFound error) (*T, error) {
	raw, err := client.Get(ctx, prefix+id).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, persistence.NewStoreError("Get", id, notFound)
	}

	if err != nil {
		return nil, fmt.Errorf("redis get failed for %s: %w", id, err)
	}

	var doc T
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document %s: %w", id, err)
	}

	return &doc, nil
}

func set[T any](ctx context.Context, client *goredis.Client, prefix, id string, doc *T) error {
	if id == "" {
		return errors.New("cannot persist document without an id")
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document %s: %w", id, err)
	}

	return client.Set(ctx, prefix+id, raw, 0).Err()
}

func del(ctx context.Context, client *goredis.Client, prefix, id string, notFound error) error {
	removed, err := client.Del(ctx, prefix+id).Result()
	if err != nil {
		return fmt.Errorf("redis delete failed for %s: %w", id, err)
	}

	if removed == 0 {
		return persistence.NewStoreError("Delete", id, notFound)
	}

	return nil
}

func list[T any](ctx context.Context, client *goredis.Client, prefix string) ([]*T, error) {
	var (
		cursor uint64
		docs   []*T
	)

	for {
		keys, next, err := client.Scan(ctx, cursor, prefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("redis scan failed: %w", err)
		}

		for _, key := range keys {
			raw, err := client.Get(ctx, key).Bytes()
			if errors.Is(err, goredis.Nil) {
				continue
			}

			if err != nil {
				return nil, fmt.Errorf("redis get failed for %s: %w", key, err)
			}

			var doc T
			if err := json.Unmarshal(raw, &doc); err != nil {
				return nil, fmt.Errorf("failed to decode document %s: %w", key, err)
			}

			docs = append(docs, &doc)
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	if docs == nil {
		docs = []*T{}
	}

	return docs, nil
}
