package store

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"lingo/internal/config"
	"lingo/internal/logging"
)

func TestMemorySetGet(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	ctx := context.Background()

	if err := m.SetWithExpiry(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := m.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != "v" {
		t.Fatalf("got %q, want %q", got, "v")
	}
}

func TestMemoryGetMissing(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	if _, err := m.Get(context.Background(), "absent"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryExpiry(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	ctx := context.Background()

	current := time.Now()
	m.now = func() time.Time { return current }

	if err := m.SetWithExpiry(ctx, "short", []byte("v"), time.Second); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, err := m.Get(ctx, "short"); err != nil {
		t.Fatalf("fresh key should exist: %v", err)
	}

	current = current.Add(2 * time.Second)
	if _, err := m.Get(ctx, "short"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expired key should be absent, got %v", err)
	}
}

func TestMemoryDelete(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	ctx := context.Background()

	_ = m.SetWithExpiry(ctx, "k", []byte("v"), time.Minute)
	if err := m.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := m.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("deleted key should be absent, got %v", err)
	}
	if err := m.Delete(ctx, "k"); err != nil {
		t.Fatalf("deleting an absent key: %v", err)
	}
}

func TestMemoryKeysPrefixAndSweep(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	ctx := context.Background()

	current := time.Now()
	m.now = func() time.Time { return current }

	_ = m.SetWithExpiry(ctx, "task:1", []byte("a"), time.Minute)
	_ = m.SetWithExpiry(ctx, "task:2", []byte("b"), time.Second)
	_ = m.SetWithExpiry(ctx, "other:3", []byte("c"), time.Minute)

	current = current.Add(30 * time.Second)

	keys, err := m.Keys(ctx, "task:")
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	sort.Strings(keys)
	if len(keys) != 1 || keys[0] != "task:1" {
		t.Fatalf("got keys %v, want [task:1]", keys)
	}
}

func TestMemoryOverwriteSameKey(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	ctx := context.Background()

	_ = m.SetWithExpiry(ctx, "k", []byte("first"), time.Minute)
	_ = m.SetWithExpiry(ctx, "k", []byte("second"), time.Minute)

	got, err := m.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != "second" {
		t.Fatalf("last write should win, got %q", got)
	}
}

func TestNewFallsBackWhenRedisUnreachable(t *testing.T) {
	t.Parallel()

	// Port 1 is never a redis server; the probe must fail fast and degrade.
	kv := New(context.Background(), config.RedisConfig{Host: "127.0.0.1", Port: 1}, logging.Nop())
	if kv.Name() != "memory" {
		t.Fatalf("expected memory fallback, got %s", kv.Name())
	}
}
