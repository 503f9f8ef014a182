package db

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ClaimsCollectionName is the collection claim documents live in.
const ClaimsCollectionName = "claims"

// Store owns the MongoDB client. It is created once at process start and
// closed at shutdown.
type Store struct {
	client   *mongo.Client
	database *mongo.Database
	timeout  time.Duration
}

// Connect connects to MongoDB and verifies the connection with a ping.
func Connect(ctx context.Context, uri, database string, timeout time.Duration) (*Store, error) {
	if database == "" {
		return nil, fmt.Errorf("mongo database name is empty")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetConnectTimeout(timeout))
	if err != nil {
		return nil, fmt.Errorf("mongo.Connect error: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo.Ping error: %w", err)
	}
	log.WithFields(log.Fields{"database": database}).Info("Connected to MongoDB")
	return &Store{client: client, database: client.Database(database), timeout: timeout}, nil
}

// Claims returns the claim collection backed by this store.
func (s *Store) Claims() *MongoClaimCollection {
	return &MongoClaimCollection{Collection: s.database.Collection(ClaimsCollectionName)}
}

// EnsureIndexes creates the unique index on claimNumber.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.database.Collection(ClaimsCollectionName).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "claimNumber", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("claimNumber_unique"),
	})
	if err != nil {
		return fmt.Errorf("create claimNumber index: %w", err)
	}
	return nil
}

// Ping checks that the server is still reachable.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.client.Ping(ctx, nil)
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	if s == nil || s.client == nil {
		return nil
	}
	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("mongo.Disconnect error: %w", err)
	}
	log.Info("Disconnected from MongoDB")
	return nil
}
