// Package redisstore keeps dashboard sessions in redis, so that they survive restarts and are
// shared by every instance of the API.
package redisstore

import (
	"context"
	"encoding/json"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"

	"github.com/Shin40411/Lms-client/core"
	"github.com/Shin40411/Lms-client/core/auth"
)

const keyPrefix = "lms:session:"

// Open connects to the configured redis server.
func Open(ctx context.Context, conf *core.Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     conf.Redis.Address,
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrap(err, "pinging redis")
	}
	return rdb, nil
}

type sessionStore struct {
	rdb *redis.Client
}

var _ auth.SessionStore = (*sessionStore)(nil)

func NewSessionStore(rdb *redis.Client) auth.SessionStore {
	return &sessionStore{rdb: rdb}
}

func (s *sessionStore) SaveSession(ctx context.Context, sess auth.Session) error {
	ttl := sess.ExpiresAt.Sub(auth.NowFunc().UTC())
	if ttl <= 0 {
		return nil
	}
	b, err := json.Marshal(sess)
	if err != nil {
		return errors.Wrap(err, "encoding session")
	}
	return errors.Wrap(s.rdb.Set(ctx, keyPrefix+sess.ID, b, ttl).Err(), "saving session")
}

func (s *sessionStore) GetSession(ctx context.Context, id string) (auth.Session, error) {
	b, err := s.rdb.Get(ctx, keyPrefix+id).Bytes()
	if err == redis.Nil {
		return auth.Session{}, auth.ErrSessionNotFound
	}
	if err != nil {
		return auth.Session{}, errors.Wrap(err, "getting session")
	}
	var sess auth.Session
	if err = json.Unmarshal(b, &sess); err != nil {
		return auth.Session{}, errors.Wrap(err, "decoding session")
	}
	return sess, nil
}

func (s *sessionStore) DeleteSession(ctx context.Context, id string) error {
	return errors.Wrap(s.rdb.Del(ctx, keyPrefix+id).Err(), "deleting session")
}
