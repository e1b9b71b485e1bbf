package models

import "time"

// Status is the persisted lifecycle state of a document record.
type Status string

const (
	StatusDownloaded Status = "downloaded"
	StatusUploaded   Status = "uploaded"
	StatusProcessed  Status = "processed"
	StatusError      Status = "error"
)

// Statuses lists every persisted status in reporting order.
var Statuses = []Status{StatusDownloaded, StatusUploaded, StatusProcessed, StatusError}

// Field names shared by the Firestore and MongoDB representations.
const (
	FieldSource         = "source"
	FieldDocumentName   = "documentName"
	FieldSize           = "size"
	FieldStatus         = "status"
	FieldLengthClass    = "lengthClass"
	FieldPageCount      = "pageCount"
	FieldSummary        = "summary"
	FieldSummaryLength  = "summaryLength"
	FieldKeywords       = "keywords"
	FieldKeywordsCount  = "keywordsCount"
	FieldProcessingTime = "processingTime"
	FieldErrorMessage   = "errorMessage"
	FieldCreatedAt      = "createdAt"
	FieldLastUpdated    = "lastUpdated"
)

// Document is the persisted record for one PDF reference.
// It tracks the pipeline status and, once processed, the analysis results.
type Document struct {
	ID             string    `firestore:"-" bson:"_id" json:"id"`
	Source         string    `firestore:"source" bson:"source" json:"source"`
	DocumentName   string    `firestore:"documentName" bson:"documentName" json:"documentName"`
	Size           int64     `firestore:"size" bson:"size" json:"size"`
	Status         Status    `firestore:"status" bson:"status" json:"status"`
	LengthClass    string    `firestore:"lengthClass,omitempty" bson:"lengthClass,omitempty" json:"lengthClass,omitempty"`
	PageCount      int       `firestore:"pageCount,omitempty" bson:"pageCount,omitempty" json:"pageCount,omitempty"`
	Summary        *string   `firestore:"summary" bson:"summary" json:"summary"`
	SummaryLength  int       `firestore:"summaryLength,omitempty" bson:"summaryLength,omitempty" json:"summaryLength,omitempty"`
	Keywords       []string  `firestore:"keywords" bson:"keywords" json:"keywords"`
	KeywordsCount  int       `firestore:"keywordsCount,omitempty" bson:"keywordsCount,omitempty" json:"keywordsCount,omitempty"`
	ProcessingTime *float64  `firestore:"processingTime" bson:"processingTime" json:"processingTime"`
	ErrorMessage   *string   `firestore:"errorMessage" bson:"errorMessage" json:"errorMessage"`
	CreatedAt      time.Time `firestore:"createdAt,omitempty" bson:"createdAt,omitempty" json:"createdAt"`
	LastUpdated    time.Time `firestore:"lastUpdated" bson:"lastUpdated" json:"lastUpdated"`
}

// Skippable reports whether an existing record means the reference needs no further work.
func (d Document) Skippable() bool {
	return d.Status == StatusProcessed || d.Status == StatusDownloaded
}
