// Package activity keeps a log of the mutations performed through the dashboard.
package activity

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Actions
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// Entities
const (
	EntityClass   = "class"
	EntitySubject = "subject"
	EntityUser    = "user"
)

type Entry struct {
	ID        string    `json:"id" db:"id"`
	Actor     string    `json:"actor" db:"actor"`
	Action    string    `json:"action" db:"action"`
	Entity    string    `json:"entity" db:"entity"`
	EntityID  string    `json:"entity_id" db:"entity_id"`
	Summary   string    `json:"summary" db:"summary"`
	CreatedAt time.Time `json:"created_at" db:"created_at"` // UTC
}

type Repository interface {
	Record(ctx context.Context, e Entry) error
	// Recent returns the latest entries, newest first.
	Recent(ctx context.Context, limit int) ([]Entry, error)
}

var NowFunc = time.Now // mockable

// NewEntry fills in the id and timestamp of an entry.
func NewEntry(actor, action, entity, entityID, summary string) Entry {
	return Entry{
		ID:        uuid.New().String(),
		Actor:     actor,
		Action:    action,
		Entity:    entity,
		EntityID:  entityID,
		Summary:   summary,
		CreatedAt: NowFunc().UTC(),
	}
}

type actorKey struct{}

// WithActor attaches the username performing the request to ctx.
func WithActor(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, actorKey{}, username)
}

// ActorFrom returns the username attached by WithActor.
func ActorFrom(ctx context.Context) string {
	if s, ok := ctx.Value(actorKey{}).(string); ok {
		return s
	}
	return ""
}
