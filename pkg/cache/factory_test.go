package cache

import (
	"context"
	"path/filepath"
	"testing"
)

func TestNewFactory(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"file", Config{Type: TypeFile, ConnectionString: filepath.Join(dir, "cache.json")}, false},
		{"bolt", Config{Type: TypeBolt, ConnectionString: filepath.Join(dir, "cache.db")}, false},
		{"sqlite", Config{Type: TypeSQLite, ConnectionString: filepath.Join(dir, "cache.sqlite")}, false},
		{"inmemory", Config{Type: TypeInMemory}, false},
		{"none", Config{Type: TypeNone}, false},
		{"unknown", Config{Type: "memcached"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewFactory(ctx, tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewFactory failed: %v", err)
			}
			if err := c.Set(ctx, "q", "a"); err != nil {
				t.Fatalf("Set failed: %v", err)
			}
			answer, ok, err := c.Get(ctx, "q")
			if err != nil {
				t.Fatalf("Get failed: %v", err)
			}
			if err := Close(ctx, c); err != nil {
				t.Errorf("Close failed: %v", err)
			}
			if tt.cfg.Type == TypeNone {
				if ok {
					t.Error("none cache must never hit")
				}
				return
			}
			if !ok || answer != "a" {
				t.Errorf("expected hit, got %q ok=%v", answer, ok)
			}
		})
	}
}

func TestClose_ReleasesBackend(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	for _, cfg := range []Config{
		{Type: TypeBolt, ConnectionString: filepath.Join(dir, "cache.db")},
		{Type: TypeSQLite, ConnectionString: filepath.Join(dir, "cache.sqlite")},
	} {
		t.Run(string(cfg.Type), func(t *testing.T) {
			c, err := NewFactory(ctx, cfg)
			if err != nil {
				t.Fatalf("NewFactory failed: %v", err)
			}
			if _, ok := c.(Closer); !ok {
				t.Fatalf("%T holds a connection and must implement Closer", c)
			}
			if err := Close(ctx, c); err != nil {
				t.Fatalf("Close failed: %v", err)
			}
			if err := c.Set(ctx, "q", "a"); err == nil {
				t.Error("expected writes to fail after Close")
			}
		})
	}

	if err := Close(ctx, Nop{}); err != nil {
		t.Errorf("closing a backend without resources must be a no-op, got %v", err)
	}
}
