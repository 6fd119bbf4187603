// Package fetch downloads remote images into request-scoped temporary files.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"billboard-vision/internal/logger"
)

// Fetcher downloads images over HTTP(S).
type Fetcher struct {
	client   *http.Client
	maxBytes int64
	tempDir  string
}

// NewFetcher creates a Fetcher with its own HTTP client.
// An empty tempDir selects the OS default.
func NewFetcher(timeout time.Duration, maxBytes int64, tempDir string) *Fetcher {
	return NewFetcherWithClient(&http.Client{Timeout: timeout}, maxBytes, tempDir)
}

// NewFetcherWithClient creates a Fetcher around an explicit client (for testing).
func NewFetcherWithClient(client *http.Client, maxBytes int64, tempDir string) *Fetcher {
	return &Fetcher{
		client:   client,
		maxBytes: maxBytes,
		tempDir:  tempDir,
	}
}

// Fetch downloads rawURL into a new temporary file and returns its path.
// The caller owns the file and must remove it. On error no file is left
// behind.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	const op = "Fetch"
	log := logger.FromContext(ctx, "fetch")

	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", &FetchError{Op: op, Err: ErrInvalidURL, Details: rawURL}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", &FetchError{Op: op, Err: ErrInvalidURL, Details: err.Error()}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", &FetchError{Op: op, Err: ctx.Err()}
		}
		return "", &FetchError{Op: op, Err: ErrUnreachable, Details: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Warn().
			Str("url", rawURL).
			Int("status", resp.StatusCode).
			Msg("Image download returned non-success status")
		return "", &FetchError{Op: op, Err: ErrUnexpectedStatus, Details: fmt.Sprintf("status %d", resp.StatusCode)}
	}
	if f.maxBytes > 0 && resp.ContentLength > f.maxBytes {
		return "", &FetchError{Op: op, Err: ErrTooLarge, Details: fmt.Sprintf("content length %d", resp.ContentLength)}
	}

	tmp, err := os.CreateTemp(f.tempDir, "fetch-*.img")
	if err != nil {
		return "", &FetchError{Op: op, Err: err, Details: "failed to create temp file"}
	}
	path := tmp.Name()

	n, err := copyLimited(tmp, resp.Body, f.maxBytes)
	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		if rmErr := os.Remove(path); rmErr != nil {
			log.Warn().Err(rmErr).Str("path", path).Msg("Failed to remove temp file")
		}
		if errors.Is(err, ErrTooLarge) {
			return "", &FetchError{Op: op, Err: ErrTooLarge, Details: fmt.Sprintf("limit %d bytes", f.maxBytes)}
		}
		return "", &FetchError{Op: op, Err: err, Details: "failed to read response body"}
	}

	log.Debug().
		Str("url", rawURL).
		Str("path", path).
		Int64("bytes", n).
		Msg("Image downloaded")
	return path, nil
}

// copyLimited copies src to dst and fails with ErrTooLarge once more than
// limit bytes arrive. A non-positive limit disables the check.
func copyLimited(dst io.Writer, src io.Reader, limit int64) (int64, error) {
	if limit <= 0 {
		return io.Copy(dst, src)
	}
	n, err := io.Copy(dst, io.LimitReader(src, limit+1))
	if err != nil {
		return n, err
	}
	if n > limit {
		return n, ErrTooLarge
	}
	return n, nil
}
