package qdrant

import (
	"context"
	"fmt"
	"strings"

	"github.com/barekit/kbchat/pkg/knowledge"
	"github.com/qdrant/go-client/qdrant"
)

const listSep = "|"

// QdrantStore implements knowledge.VectorStore using Qdrant. Point IDs are
// the chunk positions in the knowledge base.
type QdrantStore struct {
	client         *qdrant.Client
	collectionName string
	vectorSize     uint64
}

// New connects to Qdrant and creates the collection if it does not exist.
func New(ctx context.Context, host string, port int, collectionName string, vectorSize uint64) (*QdrantStore, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: create client: %w", err)
	}

	store := &QdrantStore{
		client:         client,
		collectionName: collectionName,
		vectorSize:     vectorSize,
	}

	if err := store.initCollection(ctx); err != nil {
		return nil, err
	}

	return store, nil
}

func (s *QdrantStore) initCollection(ctx context.Context) error {
	exists, err := s.client.CollectionExists(ctx, s.collectionName)
	if err != nil {
		return fmt.Errorf("qdrant: check collection: %w", err)
	}
	if exists {
		return nil
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     s.vectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("qdrant: create collection: %w", err)
	}
	return nil
}

// Upsert writes chunk i as point i.
func (s *QdrantStore) Upsert(ctx context.Context, vectors [][]float32, chunks []knowledge.Chunk) error {
	if len(vectors) != len(chunks) {
		return fmt.Errorf("qdrant: upsert: %d vectors for %d chunks", len(vectors), len(chunks))
	}

	points := make([]*qdrant.PointStruct, len(vectors))
	for i, c := range chunks {
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDNum(uint64(i)),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: map[string]*qdrant.Value{
				"text":  qdrant.NewValueString(c.Text),
				"title": qdrant.NewValueString(c.Metadata.Title),
				"tags":  qdrant.NewValueString(strings.Join(c.Metadata.Tags, listSep)),
				"dates": qdrant.NewValueString(strings.Join(c.Metadata.Dates, listSep)),
			},
		}
	}

	wait := true
	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collectionName,
		Points:         points,
		Wait:           &wait,
	})
	if err != nil {
		return fmt.Errorf("qdrant: upsert: %w", err)
	}
	return nil
}

func (s *QdrantStore) Search(ctx context.Context, query []float32, limit int) ([]knowledge.Match, error) {
	limit64 := uint64(limit)
	res, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collectionName,
		Query:          qdrant.NewQuery(query...),
		Limit:          &limit64,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: query: %w", err)
	}

	matches := make([]knowledge.Match, len(res))
	for i, hit := range res {
		matches[i] = knowledge.Match{
			Index: int(hit.Id.GetNum()),
			Chunk: knowledge.Chunk{
				Text: payloadString(hit.Payload, "text"),
				Metadata: knowledge.Metadata{
					Title: payloadString(hit.Payload, "title"),
					Tags:  splitList(payloadString(hit.Payload, "tags")),
					Dates: splitList(payloadString(hit.Payload, "dates")),
				},
			},
			Score:      hit.Score,
			Similarity: hit.Score,
		}
	}
	return matches, nil
}

func (s *QdrantStore) Close(ctx context.Context) error {
	return s.client.Close()
}

func payloadString(payload map[string]*qdrant.Value, key string) string {
	if v, ok := payload[key]; ok {
		return v.GetStringValue()
	}
	return ""
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, listSep)
}
