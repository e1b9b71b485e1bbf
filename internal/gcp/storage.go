package gcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"

	"github.com/Lllllllleong/pdfdigest/internal/models"
)

// GetEnv is a helper to read an environment variable or return a default value.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// SaveToGCSAtomically writes content to a GCS object only if it doesn't already exist.
func SaveToGCSAtomically(ctx context.Context, bucket *storage.BucketHandle, objectName, content string) error {
	writer := bucket.Object(objectName).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)

	if _, err := io.Copy(writer, strings.NewReader(content)); err != nil {
		_ = writer.Close()
		if isPreconditionFailed(err) {
			slog.Info("SKIPPING: Object already exists.", "gcsObject", objectName)
			return nil
		}
		return fmt.Errorf("failed to write to GCS: %w", err)
	}

	if err := writer.Close(); err != nil {
		// the precondition is usually reported on finalize
		if isPreconditionFailed(err) {
			slog.Info("SKIPPING: Object already exists.", "gcsObject", objectName)
			return nil
		}
		return fmt.Errorf("failed to finalize GCS write: %w", err)
	}
	return nil
}

func isPreconditionFailed(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == 412
}

// ArtifactSink stores the extracted text and the analysis result of each
// processed document in a bucket:
//
//	<lengthClass>/texts/<id>.txt
//	json/<id>.json
type ArtifactSink struct {
	client *storage.Client
	bucket string
}

// NewArtifactSink writes into bucketName using client.
func NewArtifactSink(client *storage.Client, bucketName string) *ArtifactSink {
	return &ArtifactSink{client: client, bucket: bucketName}
}

// artifactResult is the JSON written alongside the text.
type artifactResult struct {
	DocumentName   string   `json:"document_name"`
	Summary        string   `json:"summary"`
	Keywords       []string `json:"keywords"`
	ProcessingTime float64  `json:"processing_time"`
}

func (s *ArtifactSink) Name() string { return "gcs-artifacts" }

// Publish writes both artifacts. Existing objects are left untouched.
func (s *ArtifactSink) Publish(ctx context.Context, doc models.Document, text string) error {
	textPath, jsonPath := ArtifactPaths(doc)
	payload, err := marshalArtifact(doc)
	if err != nil {
		return err
	}

	bucket := s.client.Bucket(s.bucket)
	if err := SaveToGCSAtomically(ctx, bucket, textPath, text); err != nil {
		return fmt.Errorf("failed to save text artifact %s: %w", textPath, err)
	}
	if err := SaveToGCSAtomically(ctx, bucket, jsonPath, payload); err != nil {
		return fmt.Errorf("failed to save result artifact %s: %w", jsonPath, err)
	}
	return nil
}

// Close releases the storage client.
func (s *ArtifactSink) Close() error {
	return s.client.Close()
}

// ArtifactPaths returns the object names for doc's text and result JSON.
func ArtifactPaths(doc models.Document) (textPath, jsonPath string) {
	class := doc.LengthClass
	if class == "" {
		class = "unclassified"
	}
	return fmt.Sprintf("%s/texts/%s.txt", class, doc.ID), fmt.Sprintf("json/%s.json", doc.ID)
}

func marshalArtifact(doc models.Document) (string, error) {
	res := artifactResult{
		DocumentName: doc.DocumentName,
		Keywords:     doc.Keywords,
	}
	if doc.Summary != nil {
		res.Summary = *doc.Summary
	}
	if doc.ProcessingTime != nil {
		res.ProcessingTime = *doc.ProcessingTime
	}
	if res.Keywords == nil {
		res.Keywords = []string{}
	}
	b, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal artifact for %s: %w", doc.ID, err)
	}
	return string(b), nil
}
