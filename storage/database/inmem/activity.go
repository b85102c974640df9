package inmemdb

import (
	"context"

	"github.com/Shin40411/Lms-client/core/activity"
)

// maxActivity bounds the in-memory log; the oldest entries are dropped first.
const maxActivity = 1000

type activityRepository struct {
	db *activityTable
}

var _ activity.Repository = (*activityRepository)(nil)

func NewActivityRepository(db *DB) activity.Repository {
	return &activityRepository{db: db.activity}
}

func (repo *activityRepository) Record(_ context.Context, e activity.Entry) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.rows = append(repo.db.rows, e)
	if over := len(repo.db.rows) - maxActivity; over > 0 {
		repo.db.rows = append(repo.db.rows[:0:0], repo.db.rows[over:]...)
	}
	return nil
}

func (repo *activityRepository) Recent(_ context.Context, limit int) ([]activity.Entry, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	n := len(repo.db.rows)
	if limit <= 0 || limit > n {
		limit = n
	}
	entries := make([]activity.Entry, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		entries = append(entries, repo.db.rows[i])
	}
	return entries, nil
}
