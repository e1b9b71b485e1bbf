// Package mongostore implements store.Store on a MongoDB collection.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/Lllllllleong/pdfdigest/internal/models"
	"github.com/Lllllllleong/pdfdigest/internal/retry"
	"github.com/Lllllllleong/pdfdigest/internal/store"
)

// Config locates the collection.
type Config struct {
	URI        string
	Database   string
	Collection string
}

// Store is a store.Store backed by one MongoDB collection.
type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// ConnectPolicy is the retry policy Open uses while the server comes up.
func ConnectPolicy() retry.Policy {
	return retry.Policy{MaxAttempts: 3, BaseDelay: 3 * time.Second, Multiplier: 1}
}

// Open connects and pings the server, retrying per policy.
func Open(ctx context.Context, cfg Config, policy retry.Policy, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	policy.OnRetry = func(attempt int, wait time.Duration, err error) {
		logger.Warn("MongoDB connection failed, will retry.", "attempt", attempt, "backoff", wait.String(), "error", err)
	}

	var client *mongo.Client
	err := policy.Do(ctx, func(ctx context.Context, _ int) error {
		c, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
		if err != nil {
			return err
		}
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := c.Ping(pingCtx, readpref.Primary()); err != nil {
			_ = c.Disconnect(context.Background())
			return err
		}
		client = c
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: could not connect to MongoDB: %v", store.ErrUnavailable, err)
	}

	logger.Info("Connected to MongoDB.", "database", cfg.Database, "collection", cfg.Collection)
	return &Store{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

// Close implements store.Store.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// Upsert implements store.Store. createdAt is only written when the record is inserted.
func (s *Store) Upsert(ctx context.Context, id string, fields store.Fields) error {
	_, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, buildUpdate(fields), options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("%w: failed to upsert %s: %v", store.ErrUnavailable, id, err)
	}
	return nil
}

// Find implements store.Store.
func (s *Store) Find(ctx context.Context, id string) (models.Document, bool, error) {
	var doc models.Document
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Document{}, false, nil
	}
	if err != nil {
		return models.Document{}, false, fmt.Errorf("%w: failed to find %s: %v", store.ErrUnavailable, id, err)
	}
	return doc, true, nil
}

// Count implements store.Store.
func (s *Store) Count(ctx context.Context, status models.Status) (int, error) {
	n, err := s.coll.CountDocuments(ctx, bson.M{models.FieldStatus: string(status)})
	if err != nil {
		return 0, fmt.Errorf("%w: failed to count %s documents: %v", store.ErrUnavailable, status, err)
	}
	return int(n), nil
}

func buildUpdate(fields store.Fields) bson.M {
	set := bson.M{}
	onInsert := bson.M{}
	for k, v := range fields {
		if k == models.FieldCreatedAt {
			onInsert[k] = v
			continue
		}
		set[k] = v
	}
	update := bson.M{}
	if len(set) > 0 {
		update["$set"] = set
	}
	if len(onInsert) > 0 {
		update["$setOnInsert"] = onInsert
	}
	return update
}
