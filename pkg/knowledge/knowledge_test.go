package knowledge

import (
	"context"
	"encoding/json"
	"testing"
)

func TestChunk_UnmarshalJSON(t *testing.T) {
	var chunks []Chunk
	data := `["bare text", {"text": "body", "metadata": {"title": "Title", "tags": ["a"]}}]`
	if err := json.Unmarshal([]byte(data), &chunks); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if chunks[0].Text != "bare text" || chunks[0].Metadata.Title != "" {
		t.Errorf("unexpected legacy chunk %+v", chunks[0])
	}
	if chunks[1].Text != "body" || chunks[1].Metadata.Title != "Title" || len(chunks[1].Metadata.Tags) != 1 {
		t.Errorf("unexpected chunk %+v", chunks[1])
	}
}

func TestChunk_EmbeddingText(t *testing.T) {
	tests := []struct {
		chunk Chunk
		want  string
	}{
		{Chunk{Text: "body"}, "body"},
		{Chunk{Text: "body", Metadata: Metadata{Title: "Title"}}, "Title\nbody"},
		{Chunk{Text: "Title repeated", Metadata: Metadata{Title: "Title"}}, "Title repeated"},
	}
	for _, tt := range tests {
		if got := tt.chunk.EmbeddingText(); got != tt.want {
			t.Errorf("EmbeddingText() = %q, want %q", got, tt.want)
		}
	}
}

type fixedEmbedder struct {
	vectors [][]float32
	texts   []string
}

func (e *fixedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	e.texts = append(e.texts, texts...)
	return e.vectors, nil
}

func (e *fixedEmbedder) ModelInfo() string { return "fixed" }

type sliceStore struct {
	chunks  []Chunk
	vectors [][]float32
}

func (s *sliceStore) Upsert(ctx context.Context, vectors [][]float32, chunks []Chunk) error {
	s.chunks, s.vectors = chunks, vectors
	return nil
}

func (s *sliceStore) Search(ctx context.Context, query []float32, limit int) ([]Match, error) {
	return Retrieve(query, s.chunks, s.vectors, limit), nil
}

func TestKnowledgeBase_IngestRetrieve(t *testing.T) {
	ctx := context.Background()
	emb := &fixedEmbedder{vectors: [][]float32{{1, 0}, {0, 1}}}
	store := &sliceStore{}
	kb := NewKnowledgeBase(emb, store)

	chunks := []Chunk{
		{Text: "Acme Corp", Metadata: Metadata{Title: "Work"}},
		{Text: "State University"},
	}
	if err := kb.Ingest(ctx, chunks); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if emb.texts[0] != "Work\nAcme Corp" {
		t.Errorf("ingest must embed title and body, got %q", emb.texts[0])
	}

	emb.vectors = [][]float32{{0.1, 0.9}}
	matches, err := kb.Retrieve(ctx, "where did he study", 1)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if len(matches) != 1 || matches[0].Index != 1 {
		t.Errorf("unexpected matches %+v", matches)
	}
}

func TestKnowledgeBase_IngestCountMismatch(t *testing.T) {
	kb := NewKnowledgeBase(&fixedEmbedder{vectors: [][]float32{{1}}}, &sliceStore{})
	if err := kb.Ingest(context.Background(), []Chunk{{Text: "a"}, {Text: "b"}}); err == nil {
		t.Error("expected error when vector count differs from chunk count")
	}
}
