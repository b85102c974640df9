package inmemdb

import (
	"context"

	"github.com/Shin40411/Lms-client/core/auth"
)

type sessionStore struct {
	db *sessionTable
}

var _ auth.SessionStore = (*sessionStore)(nil)

// NewSessionStore keeps sessions in memory; used when no redis is configured.
// Expired sessions are dropped when read.
func NewSessionStore(db *DB) auth.SessionStore {
	return &sessionStore{db: db.session}
}

func (s *sessionStore) SaveSession(_ context.Context, sess auth.Session) error {
	s.db.mutex.Lock()
	defer s.db.mutex.Unlock()
	s.db.table[sess.ID] = sess
	return nil
}

func (s *sessionStore) GetSession(_ context.Context, id string) (auth.Session, error) {
	s.db.mutex.Lock()
	defer s.db.mutex.Unlock()

	sess, ok := s.db.table[id]
	if !ok {
		return auth.Session{}, auth.ErrSessionNotFound
	}
	if sess.Expired(auth.NowFunc().UTC()) {
		delete(s.db.table, id)
		return auth.Session{}, auth.ErrSessionNotFound
	}
	return sess, nil
}

func (s *sessionStore) DeleteSession(_ context.Context, id string) error {
	s.db.mutex.Lock()
	defer s.db.mutex.Unlock()
	delete(s.db.table, id)
	return nil
}
