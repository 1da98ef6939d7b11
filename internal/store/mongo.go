package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// MongoStore keeps the feedback document as a single document of the
// "documents" collection. ReplaceOne is atomic per document.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

type mongoDocument struct {
	Name      string    `bson:"_id"`
	Document  `bson:",inline"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func NewMongoStore(uri, dbName string) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	log.Printf("Connected to MongoDB database %s", dbName)
	return &MongoStore{
		client:     client,
		collection: client.Database(dbName).Collection("documents"),
	}, nil
}

func (s *MongoStore) Load(ctx context.Context) (Document, error) {
	var stored mongoDocument
	err := s.collection.FindOne(ctx, bson.M{"_id": feedbackDocumentName}).Decode(&stored)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Document{NextID: 1, Feedback: []Feedback{}}, nil
		}
		return Document{}, fmt.Errorf("failed to find document: %w", err)
	}
	return normalizeDocument(stored.Document), nil
}

func (s *MongoStore) Replace(ctx context.Context, doc Document) error {
	if doc.Feedback == nil {
		doc.Feedback = []Feedback{}
	}
	doc.NextID = doc.nextID()
	replacement := mongoDocument{
		Name:      feedbackDocumentName,
		Document:  doc,
		UpdatedAt: time.Now(),
	}
	_, err := s.collection.ReplaceOne(ctx, bson.M{"_id": feedbackDocumentName}, replacement, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to replace document: %w", err)
	}
	return nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
