package memstore_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/pdfdigest/internal/models"
	"github.com/Lllllllleong/pdfdigest/internal/store"
	"github.com/Lllllllleong/pdfdigest/internal/store/memstore"
)

func TestUpsertMergesFields(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.Upsert(ctx, "doc-1", store.Fields{
		models.FieldSource:       "https://example.com/a.pdf",
		models.FieldDocumentName: "a.pdf",
		models.FieldSize:         int64(2048),
		models.FieldStatus:       string(models.StatusDownloaded),
		models.FieldCreatedAt:    created,
	}))
	require.NoError(t, s.Upsert(ctx, "doc-1", store.Fields{
		models.FieldStatus:         string(models.StatusProcessed),
		models.FieldSummary:        "A summary.",
		models.FieldKeywords:       []string{"summary"},
		models.FieldProcessingTime: 1.5,
		models.FieldErrorMessage:   nil,
		models.FieldCreatedAt:      created.Add(time.Hour),
	}))

	doc, ok, err := s.Find(ctx, "doc-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "doc-1", doc.ID)
	require.Equal(t, "a.pdf", doc.DocumentName)
	require.Equal(t, int64(2048), doc.Size)
	require.Equal(t, models.StatusProcessed, doc.Status)
	require.NotNil(t, doc.Summary)
	require.Equal(t, "A summary.", *doc.Summary)
	require.Equal(t, []string{"summary"}, doc.Keywords)
	require.Nil(t, doc.ErrorMessage)
	require.Equal(t, created, doc.CreatedAt)
	require.Equal(t, 2, s.Upserts())
}

func TestFindMissing(t *testing.T) {
	_, ok, err := memstore.New().Find(context.Background(), "nope")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestFindReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	require.NoError(t, s.Upsert(ctx, "doc", store.Fields{models.FieldKeywords: []string{"alpha"}}))

	doc, _, _ := s.Find(ctx, "doc")
	doc.Keywords[0] = "mutated"

	again, _, _ := s.Find(ctx, "doc")
	require.Equal(t, []string{"alpha"}, again.Keywords)
}

func TestCountByStatus(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			status := models.StatusProcessed
			if i%4 == 0 {
				status = models.StatusError
			}
			_ = s.Upsert(ctx, string(rune('a'+i)), store.Fields{models.FieldStatus: string(status)})
		}(i)
	}
	wg.Wait()

	processed, err := s.Count(ctx, models.StatusProcessed)
	require.NoError(t, err)
	require.Equal(t, 15, processed)

	failed, err := s.Count(ctx, models.StatusError)
	require.NoError(t, err)
	require.Equal(t, 5, failed)
}
