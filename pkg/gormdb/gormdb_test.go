package gormdb

import (
	"path/filepath"
	"testing"
)

func TestOpen_SQLite(t *testing.T) {
	db, err := Open(DialectSQLite, filepath.Join(t.TempDir(), "kbchat.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := db.Exec("SELECT 1").Error; err != nil {
		t.Errorf("query failed: %v", err)
	}
}

func TestOpen_Unsupported(t *testing.T) {
	if _, err := Open("oracle", ""); err == nil {
		t.Error("expected error for unsupported dialect")
	}
	if IsDialect("oracle") || !IsDialect("mssql") {
		t.Error("IsDialect disagrees with Open")
	}
}
