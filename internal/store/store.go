// Package store defines the persistence contract for document records.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/Lllllllleong/pdfdigest/internal/models"
)

// ErrUnavailable wraps every backend failure so callers can classify it.
var ErrUnavailable = errors.New("store unavailable")

// Fields is a partial record update keyed by models.Field* names.
// A nil value clears the field.
type Fields map[string]any

// Store persists document records keyed by a stable identifier.
// Implementations must be safe for concurrent use.
type Store interface {
	// Upsert merges fields into the record, creating it if needed.
	Upsert(ctx context.Context, id string, fields Fields) error
	// Find returns the record and whether it exists.
	Find(ctx context.Context, id string) (models.Document, bool, error)
	// Count returns how many records have the given status.
	Count(ctx context.Context, status models.Status) (int, error)
	Close() error
}

// ApplyTo merges f into d. Unknown keys and values of the wrong type are ignored.
func (f Fields) ApplyTo(d *models.Document) {
	for key, value := range f {
		switch key {
		case models.FieldSource:
			d.Source, _ = value.(string)
		case models.FieldDocumentName:
			d.DocumentName, _ = value.(string)
		case models.FieldSize:
			d.Size = toInt64(value)
		case models.FieldStatus:
			switch v := value.(type) {
			case string:
				d.Status = models.Status(v)
			case models.Status:
				d.Status = v
			}
		case models.FieldLengthClass:
			d.LengthClass, _ = value.(string)
		case models.FieldPageCount:
			d.PageCount = int(toInt64(value))
		case models.FieldSummary:
			d.Summary = stringPtr(value)
		case models.FieldSummaryLength:
			d.SummaryLength = int(toInt64(value))
		case models.FieldKeywords:
			if kw, ok := value.([]string); ok {
				d.Keywords = append([]string{}, kw...)
			} else {
				d.Keywords = nil
			}
		case models.FieldKeywordsCount:
			d.KeywordsCount = int(toInt64(value))
		case models.FieldProcessingTime:
			if v, ok := value.(float64); ok {
				d.ProcessingTime = &v
			} else {
				d.ProcessingTime = nil
			}
		case models.FieldErrorMessage:
			d.ErrorMessage = stringPtr(value)
		case models.FieldCreatedAt:
			if ts, ok := value.(time.Time); ok && d.CreatedAt.IsZero() {
				d.CreatedAt = ts
			}
		case models.FieldLastUpdated:
			if ts, ok := value.(time.Time); ok {
				d.LastUpdated = ts
			}
		}
	}
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case int64:
		return n
	case float64:
		return int64(n)
	}
	return 0
}

func stringPtr(v any) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	return &s
}
