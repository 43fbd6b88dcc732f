package slot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	defaultMongoDatabase   = "whattodo"
	defaultMongoCollection = "slots"
)

// Mongo keeps the slot as one document keyed by _id.
type Mongo struct {
	client *mongo.Client
	coll   *mongo.Collection
	key    string
}

type mongoSlot struct {
	Name      string    `bson:"_id"`
	Payload   string    `bson:"payload"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func OpenMongo(ctx context.Context, uri, database, collection, key string) (*Mongo, error) {
	if uri == "" {
		return nil, errors.New("mongo backend needs storage.dsn")
	}
	if database == "" {
		database = defaultMongoDatabase
	}
	if collection == "" {
		collection = defaultMongoCollection
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to reach mongo: %w", err)
	}

	return &Mongo{
		client: client,
		coll:   client.Database(database).Collection(collection),
		key:    key,
	}, nil
}

func (m *Mongo) Read(ctx context.Context) ([]byte, error) {
	var doc mongoSlot
	err := m.coll.FindOne(ctx, bson.D{{Key: "_id", Value: m.key}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read slot %q: %w", m.key, err)
	}
	return []byte(doc.Payload), nil
}

func (m *Mongo) Write(ctx context.Context, data []byte) error {
	doc := mongoSlot{Name: m.key, Payload: string(data), UpdatedAt: time.Now().UTC()}
	_, err := m.coll.ReplaceOne(ctx, bson.D{{Key: "_id", Value: m.key}}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to write slot %q: %w", m.key, err)
	}
	return nil
}

func (m *Mongo) Close() error {
	return m.client.Disconnect(context.Background())
}
