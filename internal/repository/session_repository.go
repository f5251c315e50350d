package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shiva/wayfarer/internal/model"
	"github.com/shiva/wayfarer/internal/service"
)

const (
	sessionKeyPrefix = "planning:session:"
	sessionTTL       = 30 * time.Minute // Refreshed on every write.
	maxUpdateRetries = 5
)

// SessionRepository keeps planning sessions as JSON values in Redis.
type SessionRepository struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewSessionRepository creates a new session store.
func NewSessionRepository(client *redis.Client) *SessionRepository {
	return &SessionRepository{redis: client, ttl: sessionTTL}
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

// Create stores a new session. An existing id is not overwritten.
func (r *SessionRepository) Create(ctx context.Context, s *model.PlanningSession) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	ok, err := r.redis.SetNX(ctx, sessionKey(s.ID), data, r.ttl).Result()
	if err != nil {
		return fmt.Errorf("create session %s: %w", s.ID, err)
	}
	if !ok {
		return fmt.Errorf("create session %s: id already in use", s.ID)
	}
	return nil
}

// Get loads a session, or service.ErrSessionNotFound.
func (r *SessionRepository) Get(ctx context.Context, id string) (*model.PlanningSession, error) {
	raw, err := r.redis.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, service.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	return decodeSession(raw)
}

// Update applies fn inside an optimistic WATCH/MULTI transaction, retrying
// when another writer touched the session in between.
func (r *SessionRepository) Update(
	ctx context.Context,
	id string,
	fn func(*model.PlanningSession) error,
) (*model.PlanningSession, error) {

	key := sessionKey(id)
	var updated *model.PlanningSession

	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return service.ErrSessionNotFound
		}
		if err != nil {
			return err
		}
		s, err := decodeSession(raw)
		if err != nil {
			return err
		}
		if err := fn(s); err != nil {
			return err
		}
		data, err := json.Marshal(s)
		if err != nil {
			return fmt.Errorf("encode session: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, r.ttl)
			return nil
		})
		if err == nil {
			updated = s
		}
		return err
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err := r.redis.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return updated, nil
	}
	return nil, fmt.Errorf("update session %s: too much contention", id)
}

// Delete removes a session. Deleting an unknown id is a no-op.
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	if err := r.redis.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}

func decodeSession(raw []byte) (*model.PlanningSession, error) {
	s := &model.PlanningSession{}
	if err := json.Unmarshal(raw, s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return s, nil
}
