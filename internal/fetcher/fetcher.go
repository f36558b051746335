// Package fetcher downloads rendered documents from the reporting backend.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/Lllllllleong/reportlabeler/internal/failure"
)

// DefaultMaxBytes caps a fetched body when Config.MaxBytes is unset.
const DefaultMaxBytes int64 = 64 << 20

// Config controls the HTTP client used for fetches.
type Config struct {
	// Timeout of zero keeps the transport default.
	Timeout  time.Duration
	MaxBytes int64
}

// Fetcher performs single, unretried GETs against the backend.
type Fetcher struct {
	client   *http.Client
	maxBytes int64
	logger   *zap.Logger
}

// New builds a Fetcher. A nil client gets a fresh http.Client.
func New(cfg Config, client *http.Client, logger *zap.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Fetcher{client: client, maxBytes: maxBytes, logger: logger}
}

// Fetch retrieves the body at url. Non-2xx statuses and transport errors are
// failure.KindFetch errors; identical URLs are always re-fetched.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	op := "GET " + url
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, failure.New(failure.KindFetch, op, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "application/pdf")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, failure.New(failure.KindFetch, op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, failure.Status(failure.KindFetch, op, resp.StatusCode,
			fmt.Errorf("backend returned %s", resp.Status))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, failure.New(failure.KindFetch, op, fmt.Errorf("read body: %w", err))
	}
	if int64(len(body)) > f.maxBytes {
		return nil, failure.New(failure.KindFetch, op, fmt.Errorf("document exceeds %d bytes", f.maxBytes))
	}

	f.logger.Debug("Fetched document.",
		zap.String("url", url),
		zap.Int("bytes", len(body)),
		zap.String("contentType", resp.Header.Get("Content-Type")),
	)
	return body, nil
}
