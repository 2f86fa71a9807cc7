package task

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"lingo/internal/store"
)

// keyPrefix namespaces task records inside the shared KV store.
const keyPrefix = "ai_task:"

// ErrNotFound is returned by Get for absent or expired task ids.
var ErrNotFound = store.ErrNotFound

// Store persists task records as JSON values with a fixed TTL.
type Store struct {
	kv  store.KV
	ttl time.Duration
}

// NewStore wraps kv with task record serialization. ttl bounds how long a
// record stays pollable; zero or negative falls back to one hour.
func NewStore(kv store.KV, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Store{kv: kv, ttl: ttl}
}

func taskKey(id string) string {
	return keyPrefix + id
}

// Save writes the full record, resetting its TTL. Every state transition
// goes through here; last write wins.
func (s *Store) Save(ctx context.Context, t *Task) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal task %s: %w", t.ID, err)
	}
	if err := s.kv.SetWithExpiry(ctx, taskKey(t.ID), data, s.ttl); err != nil {
		return fmt.Errorf("store task %s: %w", t.ID, err)
	}
	return nil
}

// Get returns the record for id, or ErrNotFound when absent or expired.
func (s *Store) Get(ctx context.Context, id string) (*Task, error) {
	data, err := s.kv.Get(ctx, taskKey(id))
	if err != nil {
		return nil, err
	}
	var t Task
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decode task %s: %w", id, err)
	}
	return &t, nil
}

// Delete removes the record for id. Deleting an absent id is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.kv.Delete(ctx, taskKey(id)); err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	return nil
}

// Count reports how many task records are currently live.
func (s *Store) Count(ctx context.Context) (int, error) {
	keys, err := s.kv.Keys(ctx, keyPrefix)
	if err != nil {
		return 0, fmt.Errorf("list task keys: %w", err)
	}
	return len(keys), nil
}
