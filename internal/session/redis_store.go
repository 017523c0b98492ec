package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	redisv9 "github.com/redis/go-redis/v9"

	"pdfchat/internal/model"
)

// RedisStore keeps each session as one JSON value that expires after the TTL.
// Turn locks are process-local, so a deployment needs a single replica or
// sticky sessions.
type RedisStore struct {
	client *redisv9.Client
	ttl    time.Duration
	locks  *turnLocks
}

func NewRedisStore(client *redisv9.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 4 * time.Hour
	}
	return &RedisStore{
		client: client,
		ttl:    ttl,
		locks:  newTurnLocks(),
	}
}

func (s *RedisStore) Create(ctx context.Context) (*State, error) {
	state := NewState(uuid.NewString())
	payload, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("marshal session failed: %w", err)
	}
	ok, err := s.client.SetNX(ctx, s.key(state.ID), payload, s.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis create session failed: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("session id collision: %s", state.ID)
	}
	return state, nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*State, error) {
	raw, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err == redisv9.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get session failed: %w", err)
	}

	state := NewState(id)
	if err := json.Unmarshal(raw, state); err != nil {
		return nil, fmt.Errorf("unmarshal session failed: %w", err)
	}
	if state.Archive == nil {
		state.Archive = make(map[string][]model.Message)
	}
	return state, nil
}

func (s *RedisStore) Update(ctx context.Context, id string, fn func(*State) error) error {
	unlock := s.locks.lock(id)
	defer unlock()

	state, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := fn(state); err != nil {
		return err
	}

	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal session failed: %w", err)
	}
	// A finished turn is saved even if the caller has gone away.
	if err := s.client.Set(context.WithoutCancel(ctx), s.key(id), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set session failed: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	unlock := s.locks.lock(id)
	defer unlock()

	n, err := s.client.Del(ctx, s.key(id)).Result()
	if err != nil {
		return fmt.Errorf("redis delete session failed: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *RedisStore) key(id string) string {
	return fmt.Sprintf("pdfchat:session:%s", id)
}
