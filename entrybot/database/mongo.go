package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoConfig struct {
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

type mongoDocument struct {
	Name      string    `bson:"_id"`
	Body      string    `bson:"body"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// MongoBackend keeps each collection as one document keyed by name.
type MongoBackend struct {
	client *mongo.Client
	coll   *mongo.Collection
}

func NewMongo(ctx context.Context, cfg MongoConfig) (*MongoBackend, error) {
	if cfg.URI == "" {
		return nil, errors.New("mongo uri is required")
	}
	if cfg.Database == "" {
		cfg.Database = "entrybot"
	}
	if cfg.Collection == "" {
		cfg.Collection = "documents"
	}

	connectCtx, cancel := context.WithTimeout(ctx, defaultConnTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	return &MongoBackend{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

func (m *MongoBackend) Name() string { return "mongo" }

func (m *MongoBackend) Read(ctx context.Context, collection string) ([]byte, error) {
	var doc mongoDocument
	err := m.coll.FindOne(ctx, bson.M{"_id": collection}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []byte(doc.Body), nil
}

func (m *MongoBackend) Write(ctx context.Context, collection string, data []byte) error {
	doc := mongoDocument{
		Name:      collection,
		Body:      string(data),
		UpdatedAt: time.Now(),
	}
	_, err := m.coll.ReplaceOne(ctx, bson.M{"_id": collection}, doc, options.Replace().SetUpsert(true))
	return err
}

func (m *MongoBackend) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
