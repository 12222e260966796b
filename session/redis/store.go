// Package redis provides a Redis-backed session.Store for multi-process
// hosts that need conversation checkpoints to survive past a single
// orchestrator process, at the cost of the host being responsible for
// serializing calls per threadId (session/redis does not itself lock;
// see SPEC_FULL.md §7).
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/chatfield-dev/chatfield/session"
)

// Store is a Redis-backed implementation of session.Store. Checkpoints are
// stored as JSON under "chatfield:checkpoint:<threadId>".
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// New wraps an existing redis.Client. ttl, if non-zero, expires idle
// checkpoints (abandoned conversation threads) after the given duration; a
// zero ttl keeps checkpoints indefinitely.
func New(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

func key(threadID string) string {
	return "chatfield:checkpoint:" + threadID
}

// Load implements session.Store.
func (s *Store) Load(ctx context.Context, threadID string) (*session.Checkpoint, error) {
	raw, err := s.client.Get(ctx, key(threadID)).Bytes()
	if err == redis.Nil {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("session/redis: get %q: %w", threadID, err)
	}
	var cp session.Checkpoint
	if err := json.Unmarshal(raw, &cp); err != nil {
		return nil, fmt.Errorf("session/redis: decode checkpoint %q: %w", threadID, err)
	}
	return &cp, nil
}

// Save implements session.Store.
func (s *Store) Save(ctx context.Context, threadID string, cp *session.Checkpoint) error {
	raw, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("session/redis: encode checkpoint %q: %w", threadID, err)
	}
	if err := s.client.Set(ctx, key(threadID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("session/redis: set %q: %w", threadID, err)
	}
	return nil
}

// Delete implements session.Store.
func (s *Store) Delete(ctx context.Context, threadID string) error {
	if err := s.client.Del(ctx, key(threadID)).Err(); err != nil {
		return fmt.Errorf("session/redis: del %q: %w", threadID, err)
	}
	return nil
}
