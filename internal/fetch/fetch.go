// Package fetch downloads manuals and external definitions over HTTP.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	derrors "github.com/TeXLuaCATS/manager/internal/errors"
	"github.com/TeXLuaCATS/manager/internal/logfields"
	"github.com/TeXLuaCATS/manager/internal/retry"
)

// DefaultTimeout bounds a single request.
const DefaultTimeout = 60 * time.Second

// Fetcher performs GET requests. Connection failures, 429 and 5xx
// responses are retried according to Policy.
type Fetcher struct {
	Client *http.Client
	Policy retry.Policy
}

// New returns a fetcher with DefaultTimeout and the default retry policy.
func New() *Fetcher {
	return NewWithPolicy(DefaultTimeout, retry.DefaultPolicy())
}

// NewWithPolicy returns a fetcher with the given request timeout and
// retry policy.
func NewWithPolicy(timeout time.Duration, policy retry.Policy) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Fetcher{Client: &http.Client{Timeout: timeout}, Policy: policy}
}

// retryableError marks failures worth another attempt.
type retryableError struct{ error }

func (e retryableError) Unwrap() error { return e.error }

func isRetryable(err error) bool {
	var re retryableError
	return errors.As(err, &re)
}

// Fetch returns the body of url. Any status outside 2xx is a network error.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	var body []byte
	err := f.Policy.Do(ctx, func(ctx context.Context) error {
		var err error
		body, err = f.fetchOnce(ctx, url)
		return err
	}, isRetryable)
	if err != nil {
		var re retryableError
		if errors.As(err, &re) {
			err = re.error
		}
		return nil, err
	}
	return body, nil
}

func (f *Fetcher) fetchOnce(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, derrors.FetchFailed(url, err)
	}
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, derrors.FetchFailed(url, err)
		}
		return nil, retryableError{derrors.FetchFailed(url, err)}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		ferr := derrors.FetchFailed(url, fmt.Errorf("unexpected status %s", resp.Status)).
			WithContext("status", resp.StatusCode)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, retryableError{ferr}
		}
		return nil, ferr
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, derrors.FetchFailed(url, err)
	}
	slog.Debug("Fetched", logfields.URL(url), logfields.Count(len(body)), logfields.Duration(time.Since(start)))
	return body, nil
}

// Download writes the body of url to dest, creating parent directories.
func (f *Fetcher) Download(ctx context.Context, url, dest string) error {
	body, err := f.Fetch(ctx, url)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return derrors.IOFailed("mkdir", filepath.Dir(dest), err)
	}
	if err := os.WriteFile(dest, body, 0o644); err != nil {
		return derrors.IOFailed("write", dest, err)
	}
	slog.Info("Downloaded", logfields.URL(url), logfields.Dest(dest))
	return nil
}
