package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/barekit/kbchat/pkg/apperror"
	"github.com/barekit/kbchat/pkg/knowledge"
)

func testSnapshot() *Snapshot {
	return &Snapshot{
		Chunks: []knowledge.Chunk{
			{Text: "Pratik worked at Acme Corp.", Metadata: knowledge.Metadata{Title: "Acme", Tags: []string{"experience"}}},
			{Text: "Pratik studied at State University.", Metadata: knowledge.Metadata{Title: "Education"}},
		},
		Embeddings: [][]float32{{1, 0}, {0, 1}},
		Model:      "test@2",
		Dimension:  2,
	}
}

func TestWriteRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "embeddings.json")
	if err := Write(path, testSnapshot()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(got.Chunks) != 2 || got.Chunks[0].Metadata.Title != "Acme" || got.Model != "test@2" {
		t.Errorf("unexpected snapshot %+v", got)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("temporary files left behind: %v", entries)
	}
}

func TestRead_LegacyStringChunks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "embeddings.json")
	if err := os.WriteFile(path, []byte(`{"chunks":["one","two"],"embeddings":[[1,0],[0,1]]}`), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if got.Chunks[1].Text != "two" || got.Chunks[1].Metadata.Title != "" {
		t.Errorf("unexpected legacy chunk %+v", got.Chunks[1])
	}
}

func TestRead_Invalid(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		body string
	}{
		{"missing", ""},
		{"not json", `{"chunks":`},
		{"length mismatch", `{"chunks":["a","b"],"embeddings":[[1,0]]}`},
		{"ragged vectors", `{"chunks":["a","b"],"embeddings":[[1,0],[1]]}`},
		{"empty object", `{}`},
		{"unrelated keys", `{"foo":1}`},
		{"null arrays", `{"chunks":null,"embeddings":null}`},
		{"missing embeddings", `{"chunks":["a"]}`},
		{"missing chunks", `{"embeddings":[[1,0]]}`},
		{"empty arrays", `{"chunks":[],"embeddings":[]}`},
		{"top-level array", `[]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".json")
			if tt.body != "" {
				if err := os.WriteFile(path, []byte(tt.body), 0o644); err != nil {
					t.Fatal(err)
				}
			}
			_, err := Read(path)
			if !apperror.Is(err, apperror.KindConfiguration) {
				t.Errorf("expected configuration error, got %v", err)
			}
		})
	}
}

func TestLoader_SingleFlight(t *testing.T) {
	var reads int32
	release := make(chan struct{})
	l := NewLoader("kb.json", WithReadFunc(func(string) (*Snapshot, error) {
		atomic.AddInt32(&reads, 1)
		<-release
		return testSnapshot(), nil
	}))

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.Load(context.Background())
			errs <- err
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("Load failed: %v", err)
		}
	}
	if _, err := l.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if n := atomic.LoadInt32(&reads); n != 1 {
		t.Errorf("expected a single read, got %d", n)
	}
}

func TestLoader_ErrorsAreNotMemoized(t *testing.T) {
	path := filepath.Join(t.TempDir(), "embeddings.json")
	l := NewLoader(path)

	for i := 0; i < 2; i++ {
		if _, err := l.Load(context.Background()); !apperror.Is(err, apperror.KindConfiguration) {
			t.Fatalf("attempt %d: expected configuration error, got %v", i, err)
		}
	}

	if err := Write(path, testSnapshot()); err != nil {
		t.Fatal(err)
	}
	if _, err := l.Load(context.Background()); err != nil {
		t.Errorf("expected load to succeed once the file exists, got %v", err)
	}
}

func TestLoader_ModelMismatch(t *testing.T) {
	l := NewLoader("kb.json",
		WithExpectedModel("other@384"),
		WithReadFunc(func(string) (*Snapshot, error) { return testSnapshot(), nil }))

	if _, err := l.Load(context.Background()); !apperror.Is(err, apperror.KindConfiguration) {
		t.Errorf("expected configuration error, got %v", err)
	}
}

func TestStore_Search(t *testing.T) {
	path := filepath.Join(t.TempDir(), "embeddings.json")
	if err := Write(path, testSnapshot()); err != nil {
		t.Fatal(err)
	}
	s := NewStore(path)

	matches, err := s.Search(context.Background(), []float32{0.9, 0.1}, 1)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(matches) != 1 || matches[0].Index != 0 {
		t.Fatalf("unexpected matches %+v", matches)
	}

	if _, err := s.Search(context.Background(), []float32{1, 0, 0}, 1); !apperror.Is(err, apperror.KindConfiguration) {
		t.Errorf("expected configuration error for dimension mismatch, got %v", err)
	}
}

func TestStore_SearchRejectsEmptySnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "embeddings.json")
	if err := os.WriteFile(path, []byte(`{}`), 0o644); err != nil {
		t.Fatal(err)
	}

	matches, err := NewStore(path).Search(context.Background(), []float32{1, 0}, 4)
	if !apperror.Is(err, apperror.KindConfiguration) {
		t.Errorf("expected configuration error, got %v", err)
	}
	if matches != nil {
		t.Errorf("expected no matches, got %+v", matches)
	}
}

func TestStore_UpsertRejectsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "embeddings.json")
	err := NewStore(path).Upsert(context.Background(), nil, nil)
	if !apperror.Is(err, apperror.KindConfiguration) {
		t.Errorf("expected configuration error, got %v", err)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Error("an empty snapshot must not be written")
	}
}

func TestStore_Upsert(t *testing.T) {
	path := filepath.Join(t.TempDir(), "embeddings.json")
	s := NewStore(path, WithExpectedModel("test@2"))

	snap := testSnapshot()
	if err := s.Upsert(context.Background(), snap.Embeddings, snap.Chunks); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if n, err := s.Len(context.Background()); err != nil || n != 2 {
		t.Errorf("expected 2 chunks, got %d (%v)", n, err)
	}

	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if got.Model != "test@2" || got.Dimension != 2 {
		t.Errorf("snapshot metadata not recorded: %+v", got)
	}

	if err := s.Upsert(context.Background(), snap.Embeddings[:1], snap.Chunks); !apperror.Is(err, apperror.KindConfiguration) {
		t.Errorf("expected configuration error for mismatched lengths, got %v", err)
	}
}
