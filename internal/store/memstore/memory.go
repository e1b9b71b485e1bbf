// Package memstore is an in-memory store.Store for tests and local runs.
package memstore

import (
	"context"
	"sync"

	"github.com/Lllllllleong/pdfdigest/internal/models"
	"github.com/Lllllllleong/pdfdigest/internal/store"
)

// Store keeps records in a map guarded by a RWMutex.
type Store struct {
	mu      sync.RWMutex
	docs    map[string]models.Document
	upserts int
}

// New creates an empty store.
func New() *Store {
	return &Store{docs: make(map[string]models.Document)}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// Upsert implements store.Store.
func (s *Store) Upsert(_ context.Context, id string, fields store.Fields) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[id]
	if !ok {
		doc = models.Document{ID: id}
	}
	fields.ApplyTo(&doc)
	s.docs[id] = doc
	s.upserts++
	return nil
}

// Find implements store.Store.
func (s *Store) Find(_ context.Context, id string) (models.Document, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[id]
	if !ok {
		return models.Document{}, false, nil
	}
	return copyDoc(doc), true, nil
}

// Count implements store.Store.
func (s *Store) Count(_ context.Context, status models.Status) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, doc := range s.docs {
		if doc.Status == status {
			n++
		}
	}
	return n, nil
}

// Upserts returns how many writes the store has accepted.
func (s *Store) Upserts() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.upserts
}

func copyDoc(d models.Document) models.Document {
	if d.Keywords != nil {
		d.Keywords = append([]string{}, d.Keywords...)
	}
	return d
}
