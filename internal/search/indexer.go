// Package search publishes processed documents to Elasticsearch.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/Lllllllleong/pdfdigest/internal/models"
)

// Indexer writes one search document per processed PDF.
type Indexer struct {
	es    *elasticsearch.Client
	index string
	log   *slog.Logger
}

// Entry is the indexed representation of a processed document.
type Entry struct {
	DocumentName   string    `json:"documentName"`
	Source         string    `json:"source"`
	LengthClass    string    `json:"lengthClass"`
	PageCount      int       `json:"pageCount"`
	Summary        string    `json:"summary"`
	Keywords       []string  `json:"keywords"`
	ProcessingTime float64   `json:"processingTime"`
	IndexedAt      time.Time `json:"indexedAt"`
}

// New instantiates the Elasticsearch client.
func New(addr, index string, logger *slog.Logger) (*Indexer, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{addr},
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Indexer{es: es, index: index, log: logger}, nil
}

func (i *Indexer) Name() string { return "elasticsearch" }

// Publish indexes doc under its record id, so reprocessing overwrites.
func (i *Indexer) Publish(ctx context.Context, doc models.Document, _ string) error {
	payload, err := json.Marshal(NewEntry(doc, time.Now().UTC()))
	if err != nil {
		return fmt.Errorf("marshal doc: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      i.index,
		DocumentID: doc.ID,
		Body:       bytes.NewReader(payload),
		Refresh:    "false",
	}
	res, err := req.Do(ctx, i.es)
	if err != nil {
		return fmt.Errorf("index doc: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("index doc failed: %s", strings.TrimSpace(string(body)))
	}
	i.log.Debug("Indexed document.", "documentId", doc.ID, "index", i.index)
	return nil
}

// NewEntry converts a stored record into its search form.
func NewEntry(doc models.Document, now time.Time) Entry {
	e := Entry{
		DocumentName: doc.DocumentName,
		Source:       doc.Source,
		LengthClass:  doc.LengthClass,
		PageCount:    doc.PageCount,
		Keywords:     doc.Keywords,
		IndexedAt:    now,
	}
	if doc.Summary != nil {
		e.Summary = *doc.Summary
	}
	if doc.ProcessingTime != nil {
		e.ProcessingTime = *doc.ProcessingTime
	}
	if e.Keywords == nil {
		e.Keywords = []string{}
	}
	return e
}
