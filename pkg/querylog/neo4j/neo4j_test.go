package neo4j

import (
	"strings"
	"testing"

	"github.com/barekit/kbchat/pkg/querylog/record"
)

func TestAppendParams(t *testing.T) {
	e := record.New("Where did Pratik work?")
	e.Chunks = []record.ChunkRef{{Index: 3, Title: "Acme", Score: 0.5}, {Index: 0, Score: 0.25}}

	params := appendParams(e)
	if params["id"] != e.ID.String() || params["query"] != e.Query {
		t.Errorf("unexpected params %v", params)
	}
	chunks := params["chunks"].([]any)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunk params, got %d", len(chunks))
	}
	second := chunks[1].(map[string]any)
	if second["index"] != int64(0) || second["rank"] != int64(1) || second["score"] != 0.25 {
		t.Errorf("unexpected chunk params %v", second)
	}
}

func TestAppendCypher(t *testing.T) {
	q := appendCypher()
	for _, want := range []string{"CREATE (q:Query", "MERGE (k:Chunk", "[:RETRIEVED"} {
		if !strings.Contains(q, want) {
			t.Errorf("cypher missing %q:\n%s", want, q)
		}
	}
}
