package inmemdb

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shin40411/Lms-client/core/activity"
	"github.com/Shin40411/Lms-client/core/auth"
)

func TestActivityRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewActivityRepository(Open())

	entries, err := repo.Recent(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, entries)

	for i := 0; i < maxActivity+3; i++ {
		require.NoError(t, repo.Record(ctx, activity.Entry{ID: fmt.Sprintf("e%d", i)}))
	}

	tests := []struct {
		name    string
		limit   int
		wantLen int
		wantIDs []string
	}{
		{name: "newest first", limit: 2, wantLen: 2, wantIDs: []string{fmt.Sprintf("e%d", maxActivity+2), fmt.Sprintf("e%d", maxActivity+1)}},
		{name: "no limit", limit: 0, wantLen: maxActivity},
		{name: "limit over size", limit: maxActivity * 2, wantLen: maxActivity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := repo.Recent(ctx, tt.limit)
			require.NoError(t, err)
			assert.Len(t, entries, tt.wantLen)
			if tt.wantIDs != nil {
				for i, id := range tt.wantIDs {
					assert.Equal(t, id, entries[i].ID)
				}
			}
			if tt.wantLen == maxActivity {
				assert.Equal(t, "e3", entries[len(entries)-1].ID, "the oldest entries are dropped")
			}
		})
	}
}

func TestSessionStore(t *testing.T) {
	defer func(f func() time.Time) { auth.NowFunc = f }(auth.NowFunc)
	now := time.Date(2024, 9, 1, 8, 0, 0, 0, time.UTC)
	auth.NowFunc = func() time.Time { return now }

	ctx := context.Background()
	store := NewSessionStore(Open())
	sess := auth.Session{ID: "s1", AccessToken: "tok", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, store.SaveSession(ctx, sess))

	got, err := store.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, sess, got)

	_, err = store.GetSession(ctx, "s2")
	assert.Equal(t, auth.ErrSessionNotFound, err)

	now = now.Add(time.Hour)
	_, err = store.GetSession(ctx, "s1")
	assert.Equal(t, auth.ErrSessionNotFound, err, "expired")

	require.NoError(t, store.SaveSession(ctx, auth.Session{ID: "s3", ExpiresAt: now.Add(time.Minute)}))
	require.NoError(t, store.DeleteSession(ctx, "s3"))
	_, err = store.GetSession(ctx, "s3")
	assert.Equal(t, auth.ErrSessionNotFound, err)
}
