package neo4j

import (
	"context"
	"fmt"
	"time"

	"github.com/barekit/kbchat/pkg/consts"
	"github.com/barekit/kbchat/pkg/querylog/record"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Neo4jLog records each query as a node linked to the chunks it retrieved.
type Neo4jLog struct {
	driver neo4j.DriverWithContext
	dbName string
}

// New creates a new Neo4jLog adapter.
func New(ctx context.Context, uri, username, password, dbName string) (*Neo4jLog, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, err
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, err
	}

	return &Neo4jLog{
		driver: driver,
		dbName: dbName,
	}, nil
}

func (l *Neo4jLog) Append(ctx context.Context, e record.Entry) error {
	session := l.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: l.dbName})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, appendCypher(), appendParams(e))
		return nil, err
	})
	return err
}

func (l *Neo4jLog) Close(ctx context.Context) error {
	return l.driver.Close(ctx)
}

func appendCypher() string {
	return fmt.Sprintf(`
	CREATE (q:%s {
		id: $id,
		query: $query,
		answer: $answer,
		cached: $cached,
		context_tokens: $contextTokens,
		error_kind: $errorKind,
		%s: datetime($timestamp)
	})
	WITH q
	UNWIND $chunks AS c
	MERGE (k:%s {index: c.index})
	SET k.title = c.title
	CREATE (q)-[:%s {rank: c.rank, score: c.score}]->(k)
	`, consts.LabelQuery, consts.ColCreatedAt, consts.LabelChunk, consts.RelRetrieved)
}

func appendParams(e record.Entry) map[string]any {
	chunks := make([]any, len(e.Chunks))
	for i, c := range e.Chunks {
		chunks[i] = map[string]any{
			"index": int64(c.Index),
			"title": c.Title,
			"rank":  int64(i),
			"score": float64(c.Score),
		}
	}
	return map[string]any{
		"id":            e.ID.String(),
		"query":         e.Query,
		"answer":        e.Answer,
		"cached":        e.Cached,
		"contextTokens": int64(e.ContextTokens),
		"errorKind":     e.ErrorKind,
		"timestamp":     e.Timestamp.Format(time.RFC3339Nano),
		"chunks":        chunks,
	}
}
