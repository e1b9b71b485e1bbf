package services

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Lllllllleong/pdfdigest/internal/analysis"
	"github.com/Lllllllleong/pdfdigest/internal/gcp"
	"github.com/Lllllllleong/pdfdigest/internal/retry"
)

// Store backends accepted in STORE_BACKEND.
const (
	BackendFirestore = "firestore"
	BackendMongo     = "mongo"
	BackendMemory    = "memory"
)

// Config is the environment-driven configuration shared by every entry point.
type Config struct {
	StoreBackend        string
	ProjectID           string
	FirestoreCollection string
	MongoURI            string
	MongoDatabase       string
	MongoCollection     string

	Workers          int
	RetryMaxAttempts int
	RetryBaseDelay   time.Duration
	RetryMultiplier  float64
	DownloadTimeout  time.Duration
	Segmenter        string

	ArtifactsBucket    string
	WorkflowID         string
	WorkflowLocation   string
	ElasticsearchAddr  string
	ElasticsearchIndex string

	MaxUploadBytes int64
	BindAddr       string
}

// ConfigOption overrides a value read from the environment.
type ConfigOption func(*Config)

// WithWorkers sets the batch concurrency. Non-positive n keeps WORKER_COUNT.
func WithWorkers(n int) ConfigOption {
	return func(c *Config) {
		if n > 0 {
			c.Workers = n
		}
	}
}

// LoadConfig reads Config from the environment, applies opts and validates the result.
func LoadConfig(opts ...ConfigOption) (Config, error) {
	c := Config{
		StoreBackend:        strings.ToLower(gcp.GetEnv("STORE_BACKEND", BackendFirestore)),
		ProjectID:           gcp.GetEnv("PROJECT_ID", ""),
		FirestoreCollection: gcp.GetEnv("FIRESTORE_COLLECTION", "pdf_documents"),
		MongoURI:            gcp.GetEnv("MONGO_URI", "mongodb://localhost:27017/"),
		MongoDatabase:       gcp.GetEnv("MONGO_DATABASE", "pdf_database"),
		MongoCollection:     gcp.GetEnv("MONGO_COLLECTION", "pdf_documents"),

		Workers:          getInt("WORKER_COUNT", 5),
		RetryMaxAttempts: getInt("RETRY_MAX_ATTEMPTS", 3),
		RetryBaseDelay:   getDuration("RETRY_BASE_DELAY", 5*time.Second),
		RetryMultiplier:  getFloat("RETRY_MULTIPLIER", 2),
		DownloadTimeout:  getDuration("DOWNLOAD_TIMEOUT", 10*time.Second),
		Segmenter:        gcp.GetEnv("SENTENCE_SEGMENTER", analysis.SegmenterPunkt),

		ArtifactsBucket:    gcp.GetEnv("ARTIFACTS_BUCKET", ""),
		WorkflowID:         gcp.GetEnv("WORKFLOW_ID", ""),
		WorkflowLocation:   gcp.GetEnv("WORKFLOW_LOCATION", "us-central1"),
		ElasticsearchAddr:  gcp.GetEnv("ELASTICSEARCH_ADDR", ""),
		ElasticsearchIndex: gcp.GetEnv("ELASTICSEARCH_INDEX", "pdf-summaries"),

		MaxUploadBytes: int64(getInt("MAX_UPLOAD_BYTES", 5*1024*1024)),
		BindAddr:       gcp.GetEnv("BIND_ADDR", "0.0.0.0:8080"),
	}
	for _, opt := range opts {
		opt(&c)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks the cross-field rules LoadConfig enforces.
func (c Config) Validate() error {
	switch c.StoreBackend {
	case BackendFirestore:
		if c.ProjectID == "" {
			return fmt.Errorf("PROJECT_ID environment variable must be set for the firestore backend")
		}
	case BackendMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGO_URI environment variable must be set for the mongo backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("WORKER_COUNT must be positive")
	}
	if c.RetryMaxAttempts <= 0 {
		return fmt.Errorf("RETRY_MAX_ATTEMPTS must be positive")
	}
	if c.RetryBaseDelay < 0 {
		return fmt.Errorf("RETRY_BASE_DELAY cannot be negative")
	}
	if c.RetryMultiplier < 1 {
		return fmt.Errorf("RETRY_MULTIPLIER must be at least 1")
	}
	if c.DownloadTimeout <= 0 {
		return fmt.Errorf("DOWNLOAD_TIMEOUT must be positive")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}
	if c.WorkflowID != "" && c.ProjectID == "" {
		return fmt.Errorf("PROJECT_ID environment variable must be set when WORKFLOW_ID is")
	}
	return nil
}

// RetryPolicy is the acquisition retry policy described by c.
func (c Config) RetryPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts: c.RetryMaxAttempts,
		BaseDelay:   c.RetryBaseDelay,
		Multiplier:  c.RetryMultiplier,
	}
}

// DefaultConfig is the configuration LoadConfig yields for an empty environment,
// with the in-memory backend.
func DefaultConfig() Config {
	return Config{
		StoreBackend:       BackendMemory,
		Workers:            5,
		RetryMaxAttempts:   3,
		RetryBaseDelay:     5 * time.Second,
		RetryMultiplier:    2,
		DownloadTimeout:    10 * time.Second,
		Segmenter:          analysis.SegmenterPunkt,
		WorkflowLocation:   "us-central1",
		ElasticsearchIndex: "pdf-summaries",
		MaxUploadBytes:     5 * 1024 * 1024,
		BindAddr:           "0.0.0.0:8080",
	}
}

func getInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
