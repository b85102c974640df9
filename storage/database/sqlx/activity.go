package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Shin40411/Lms-client/core/activity"
)

const defaultRecent = 50

type activityRow struct {
	ID        string      `db:"id"`
	Actor     string      `db:"actor"`
	Action    string      `db:"action"`
	Entity    string      `db:"entity"`
	EntityID  string      `db:"entity_id"`
	Summary   null.String `db:"summary"`
	CreatedAt time.Time   `db:"created_at"`
}

func (r activityRow) entry() activity.Entry {
	return activity.Entry{
		ID:        r.ID,
		Actor:     r.Actor,
		Action:    r.Action,
		Entity:    r.Entity,
		EntityID:  r.EntityID,
		Summary:   r.Summary.String,
		CreatedAt: r.CreatedAt.UTC(),
	}
}

type activityRepository struct {
	db *sqlx.DB
}

var _ activity.Repository = (*activityRepository)(nil)

func NewActivityRepository(db *sqlx.DB) activity.Repository {
	return &activityRepository{db: db}
}

func (repo *activityRepository) Record(ctx context.Context, e activity.Entry) error {
	row := activityRow{
		ID:        e.ID,
		Actor:     e.Actor,
		Action:    e.Action,
		Entity:    e.Entity,
		EntityID:  e.EntityID,
		Summary:   null.NewString(e.Summary, e.Summary != ""),
		CreatedAt: e.CreatedAt.UTC(),
	}
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO activity (id, actor, action, entity, entity_id, summary, created_at)
		VALUES (:id, :actor, :action, :entity, :entity_id, :summary, :created_at)`, row)
	return errors.Wrap(err, "inserting activity")
}

func (repo *activityRepository) Recent(ctx context.Context, limit int) ([]activity.Entry, error) {
	if limit <= 0 {
		limit = defaultRecent
	}
	var rows []activityRow
	err := repo.db.SelectContext(ctx, &rows, `
		SELECT id, actor, action, entity, entity_id, summary, created_at
		FROM activity ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "selecting activity")
	}
	entries := make([]activity.Entry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, r.entry())
	}
	return entries, nil
}
