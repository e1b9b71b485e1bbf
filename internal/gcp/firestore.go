package gcp

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Lllllllleong/pdfdigest/internal/models"
	"github.com/Lllllllleong/pdfdigest/internal/store"
)

// NewFirestoreClient creates and returns a new Firestore client for the given project ID.
func NewFirestoreClient(ctx context.Context, projectID string) (*firestore.Client, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID must be provided to create a firestore client")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}

	return client, nil
}

// FirestoreStore keeps one Firestore document per record, named by the record id.
type FirestoreStore struct {
	client     *firestore.Client
	collection string
}

// NewFirestoreStore wraps client. The store owns the client and closes it on Close.
func NewFirestoreStore(client *firestore.Client, collection string) *FirestoreStore {
	return &FirestoreStore{client: client, collection: collection}
}

// Upsert implements store.Store with a merging Set, so concurrent stage writes
// for different fields never clobber each other.
func (s *FirestoreStore) Upsert(ctx context.Context, id string, fields store.Fields) error {
	_, err := s.client.Collection(s.collection).Doc(id).Set(ctx, map[string]interface{}(fields), firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("%w: failed to upsert document %s: %v", store.ErrUnavailable, id, err)
	}
	return nil
}

// Find implements store.Store.
func (s *FirestoreStore) Find(ctx context.Context, id string) (models.Document, bool, error) {
	snap, err := s.client.Collection(s.collection).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return models.Document{}, false, nil
	}
	if err != nil {
		return models.Document{}, false, fmt.Errorf("%w: failed to get document %s: %v", store.ErrUnavailable, id, err)
	}
	var doc models.Document
	if err := snap.DataTo(&doc); err != nil {
		return models.Document{}, false, fmt.Errorf("failed to decode document %s: %w", id, err)
	}
	doc.ID = snap.Ref.ID
	return doc, true, nil
}

// Count implements store.Store. Only document references are read.
func (s *FirestoreStore) Count(ctx context.Context, st models.Status) (int, error) {
	iter := s.client.Collection(s.collection).Where(models.FieldStatus, "==", string(st)).Select().Documents(ctx)
	defer iter.Stop()

	n := 0
	for {
		_, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("%w: failed to count %s documents: %v", store.ErrUnavailable, st, err)
		}
		n++
	}
	return n, nil
}

// Close implements store.Store.
func (s *FirestoreStore) Close() error {
	return s.client.Close()
}
