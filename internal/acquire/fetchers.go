package acquire

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"

	"github.com/Lllllllleong/pdfdigest/internal/retry"
)

// StatusError reports a non-2xx HTTP response.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.Code)
}

// HTTPFetcher downloads over HTTP with a per-request timeout.
type HTTPFetcher struct {
	client  *http.Client
	timeout time.Duration
}

// NewHTTPFetcher returns a fetcher whose requests give up after timeout.
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPFetcher{client: &http.Client{}, timeout: timeout}
}

// Fetch implements Fetcher. Transport failures and timeouts are retryable;
// any non-2xx response is not.
func (f *HTTPFetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, location, nil)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("invalid request for %s: %w", location, err))
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", location, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, retry.Permanent(&StatusError{URL: location, Code: resp.StatusCode})
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read body of %s: %w", location, err)
	}
	return body, nil
}

// GCSFetcher reads gs://bucket/object references from Cloud Storage.
type GCSFetcher struct {
	client *storage.Client
}

// NewGCSFetcher wraps an existing storage client.
func NewGCSFetcher(client *storage.Client) *GCSFetcher {
	return &GCSFetcher{client: client}
}

// Fetch implements Fetcher.
func (f *GCSFetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	bucket, object, err := ParseGCSURI(location)
	if err != nil {
		return nil, retry.Permanent(err)
	}
	reader, err := f.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		err = fmt.Errorf("failed to get GCS object reader for gs://%s/%s: %w", bucket, object, err)
		if isPermanentGCSError(err) {
			return nil, retry.Permanent(err)
		}
		return nil, err
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read GCS object gs://%s/%s: %w", bucket, object, err)
	}
	return data, nil
}

// ParseGCSURI splits gs://bucket/path/to/object into bucket and object name.
func ParseGCSURI(uri string) (bucket, object string, err error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", "", fmt.Errorf("invalid GCS URI %q: %w", uri, err)
	}
	if u.Scheme != "gs" || u.Host == "" {
		return "", "", fmt.Errorf("invalid GCS URI %q: want gs://bucket/object", uri)
	}
	object = strings.TrimPrefix(u.Path, "/")
	if object == "" {
		return "", "", fmt.Errorf("invalid GCS URI %q: missing object name", uri)
	}
	return u.Host, object, nil
}

func isPermanentGCSError(err error) bool {
	if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
		return true
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code >= 400 && gerr.Code < 500 &&
			gerr.Code != http.StatusRequestTimeout && gerr.Code != http.StatusTooManyRequests
	}
	return false
}

// FileFetcher reads local paths. Local failures never improve on retry.
type FileFetcher struct{}

// Fetch implements Fetcher.
func (FileFetcher) Fetch(_ context.Context, location string) ([]byte, error) {
	path := strings.TrimPrefix(location, "file://")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("failed to read %s: %w", path, err))
	}
	return data, nil
}
