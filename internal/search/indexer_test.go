package search_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/pdfdigest/internal/models"
	"github.com/Lllllllleong/pdfdigest/internal/search"
)

type recorded struct {
	method string
	path   string
	body   []byte
}

func fakeElasticsearch(t *testing.T, status int) (*httptest.Server, func() []recorded) {
	t.Helper()
	var (
		mu   sync.Mutex
		reqs []recorded
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		reqs = append(reqs, recorded{method: r.Method, path: r.URL.Path, body: body})
		mu.Unlock()

		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"result":"created"}`))
	}))
	t.Cleanup(srv.Close)
	return srv, func() []recorded {
		mu.Lock()
		defer mu.Unlock()
		return append([]recorded(nil), reqs...)
	}
}

func processedDoc() models.Document {
	summary := "Workers process documents."
	elapsed := 1.25
	return models.Document{
		ID:             "abc123",
		Source:         "https://example.com/a.pdf",
		DocumentName:   "a.pdf",
		Status:         models.StatusProcessed,
		LengthClass:    "short",
		PageCount:      3,
		Summary:        &summary,
		Keywords:       []string{"workers", "documents"},
		ProcessingTime: &elapsed,
	}
}

func TestPublishIndexesDocument(t *testing.T) {
	srv, requests := fakeElasticsearch(t, http.StatusCreated)

	idx, err := search.New(srv.URL, "pdf-summaries", nil)
	require.NoError(t, err)
	require.Equal(t, "elasticsearch", idx.Name())

	require.NoError(t, idx.Publish(context.Background(), processedDoc(), "full text"))

	reqs := requests()
	require.Len(t, reqs, 1)
	require.Equal(t, http.MethodPut, reqs[0].method)
	require.Equal(t, "/pdf-summaries/_doc/abc123", reqs[0].path)

	var entry search.Entry
	require.NoError(t, json.Unmarshal(reqs[0].body, &entry))
	require.Equal(t, "a.pdf", entry.DocumentName)
	require.Equal(t, "Workers process documents.", entry.Summary)
	require.Equal(t, []string{"workers", "documents"}, entry.Keywords)
	require.Equal(t, 1.25, entry.ProcessingTime)
}

func TestPublishSurfacesErrors(t *testing.T) {
	srv, _ := fakeElasticsearch(t, http.StatusBadRequest)

	idx, err := search.New(srv.URL, "pdf-summaries", nil)
	require.NoError(t, err)
	require.Error(t, idx.Publish(context.Background(), processedDoc(), ""))
}

func TestNewEntryDefaults(t *testing.T) {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	e := search.NewEntry(models.Document{ID: "x"}, now)
	require.NotNil(t, e.Keywords)
	require.Empty(t, e.Summary)
	require.Equal(t, now, e.IndexedAt)
}
