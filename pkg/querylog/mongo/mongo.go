package mongo

import (
	"context"

	"github.com/barekit/kbchat/pkg/querylog/record"
	"go.mongodb.org/mongo-driver/mongo"
)

type MongoLog struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// entryDoc stores the UUID as its string form.
type entryDoc struct {
	ID           string `bson:"_id"`
	record.Entry `bson:",inline"`
}

// New creates a new MongoLog adapter.
func New(client *mongo.Client, dbName, collectionName string) *MongoLog {
	return &MongoLog{
		client:     client,
		collection: client.Database(dbName).Collection(collectionName),
	}
}

func (l *MongoLog) Append(ctx context.Context, e record.Entry) error {
	_, err := l.collection.InsertOne(ctx, newDoc(e))
	return err
}

func newDoc(e record.Entry) entryDoc {
	return entryDoc{ID: e.ID.String(), Entry: e}
}

func (l *MongoLog) Close(ctx context.Context) error {
	return l.client.Disconnect(ctx)
}
