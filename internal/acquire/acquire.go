// Package acquire turns a document reference into raw PDF bytes.
//
// Remote fetches run under a retry.Policy. Fetchers mark failures that cannot
// succeed on a later attempt (missing objects, non-2xx responses) as permanent
// so the policy gives up immediately.
package acquire

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/Lllllllleong/pdfdigest/internal/models"
	"github.com/Lllllllleong/pdfdigest/internal/retry"
)

// ErrUnsupportedScheme is returned for remote references no fetcher can serve.
var ErrUnsupportedScheme = errors.New("unsupported reference scheme")

// Fetcher loads the bytes behind one location.
type Fetcher interface {
	Fetch(ctx context.Context, location string) ([]byte, error)
}

// Acquirer dispatches references to fetchers by URL scheme.
type Acquirer struct {
	policy   retry.Policy
	fetchers map[string]Fetcher
	local    Fetcher
	logger   *slog.Logger
	onRetry  func()
}

// Option customizes an Acquirer.
type Option func(*Acquirer)

// WithFetcher registers f for the given URL scheme, replacing any existing one.
func WithFetcher(scheme string, f Fetcher) Option {
	return func(a *Acquirer) {
		a.fetchers[strings.ToLower(scheme)] = f
	}
}

// WithRetryHook is called once per retried attempt.
func WithRetryHook(fn func()) Option {
	return func(a *Acquirer) {
		a.onRetry = fn
	}
}

// NewAcquirer returns an Acquirer with an HTTP fetcher for http/https and a
// local file fetcher. Cloud Storage is only available when registered with
// WithFetcher("gs", ...).
func NewAcquirer(policy retry.Policy, downloadTimeout time.Duration, logger *slog.Logger, opts ...Option) *Acquirer {
	if logger == nil {
		logger = slog.Default()
	}
	httpFetcher := NewHTTPFetcher(downloadTimeout)
	a := &Acquirer{
		policy: policy,
		fetchers: map[string]Fetcher{
			"http":  httpFetcher,
			"https": httpFetcher,
		},
		local:  FileFetcher{},
		logger: logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Acquire returns the document bytes for ref. Upload references carry their
// bytes already; everything else goes through the retry policy.
func (a *Acquirer) Acquire(ctx context.Context, ref models.Reference) ([]byte, error) {
	if ref.Origin == models.OriginUpload {
		if len(ref.Data) == 0 {
			return nil, fmt.Errorf("upload %q carried no data", ref.Name)
		}
		return ref.Data, nil
	}

	fetcher, err := a.fetcherFor(ref)
	if err != nil {
		return nil, err
	}

	policy := a.policy
	policy.OnRetry = func(attempt int, wait time.Duration, err error) {
		a.logger.Warn("Acquisition failed, will retry.",
			"source", ref.Name,
			"attempt", attempt,
			"maxAttempts", policy.MaxAttempts,
			"backoff", wait.String(),
			"error", err,
		)
		if a.onRetry != nil {
			a.onRetry()
		}
	}

	var data []byte
	err = policy.Do(ctx, func(ctx context.Context, _ int) error {
		b, err := fetcher.Fetch(ctx, ref.Name)
		if err != nil {
			return err
		}
		data = b
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to acquire %s: %w", ref.Name, err)
	}
	return data, nil
}

func (a *Acquirer) fetcherFor(ref models.Reference) (Fetcher, error) {
	if ref.Origin == models.OriginLocal {
		return a.local, nil
	}
	u, err := url.Parse(ref.Name)
	if err != nil || u.Scheme == "" || u.Scheme == "file" {
		return a.local, nil
	}
	f, ok := a.fetchers[strings.ToLower(u.Scheme)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
	return f, nil
}

// Identify returns the stable document identifier for ref: the hex SHA-256 of its name.
func Identify(ref models.Reference) string {
	sum := sha256.Sum256([]byte(ref.Name))
	return hex.EncodeToString(sum[:])
}
