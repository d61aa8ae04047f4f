package gorm

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/barekit/kbchat/pkg/gormdb"
	"github.com/barekit/kbchat/pkg/querylog/record"
)

func TestLog_SQLite(t *testing.T) {
	db, err := gormdb.Open(gormdb.DialectSQLite, filepath.Join(t.TempDir(), "log.db"))
	if err != nil {
		t.Fatal(err)
	}
	l, err := New(db)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	e := record.New("Where did Pratik work?")
	e.Cached = true
	e.Chunks = []record.ChunkRef{{Index: 1, Title: "Acme", Score: 0.9}}
	if err := l.Append(context.Background(), e); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	var got QueryModel
	if err := db.First(&got, "id = ?", e.ID.String()).Error; err != nil {
		t.Fatalf("row not found: %v", err)
	}
	if !got.Cached || got.Query != e.Query || len(got.Chunks) != 1 || got.Chunks[0].Title != "Acme" {
		t.Errorf("unexpected row %+v", got)
	}
}
