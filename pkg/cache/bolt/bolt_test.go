package bolt

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestBoltCache(t *testing.T) {
	ctx := context.Background()
	c, err := New(filepath.Join(t.TempDir(), "cache.db"), time.Minute)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer c.Close(ctx)

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	if _, ok, err := c.Get(ctx, "q"); err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
	if err := c.Set(ctx, "q", "first"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := c.Set(ctx, "q", "second"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if answer, ok, _ := c.Get(ctx, "q"); !ok || answer != "second" {
		t.Errorf("expected last write to win, got %q ok=%v", answer, ok)
	}

	now = now.Add(2 * time.Minute)
	if _, ok, _ := c.Get(ctx, "q"); ok {
		t.Error("expected expired entry to miss")
	}
}

func TestBoltCache_NoTTL(t *testing.T) {
	ctx := context.Background()
	c, err := New(filepath.Join(t.TempDir(), "cache.db"), 0)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer c.Close(ctx)

	if err := c.Set(ctx, "q", "a"); err != nil {
		t.Fatal(err)
	}
	c.now = func() time.Time { return time.Now().Add(24 * 365 * time.Hour) }
	if _, ok, _ := c.Get(ctx, "q"); !ok {
		t.Error("entries without TTL must not expire")
	}
}
