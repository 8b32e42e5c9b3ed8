package render

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/eas-platform/eas/internal/shared"
)

// ImageFetcher resolves an image reference to raw bytes. Implementations are
// provided by the media-storage collaborator.
type ImageFetcher interface {
	Fetch(ctx context.Context, ref string) ([]byte, error)
}

// FetcherFunc adapts a function to ImageFetcher.
type FetcherFunc func(ctx context.Context, ref string) ([]byte, error)

// Fetch implements ImageFetcher.
func (f FetcherFunc) Fetch(ctx context.Context, ref string) ([]byte, error) {
	return f(ctx, ref)
}

// HTTPFetcher loads images from the media service over HTTP.
type HTTPFetcher struct {
	BaseURL string
	Client  *http.Client
}

const maxImageBytes = 4 << 20

// Fetch retrieves the image at BaseURL/ref.
func (f *HTTPFetcher) Fetch(ctx context.Context, ref string) ([]byte, error) {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	url := strings.TrimRight(f.BaseURL, "/") + "/" + strings.TrimLeft(ref, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s: status %d", shared.ErrMissingAsset, ref, resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
}

const (
	defaultFetchConcurrency = 4
	defaultFetchTimeout     = 5 * time.Second
)

// prefetch resolves every unique reference ahead of layout, bounded in
// concurrency and with a mandatory per-fetch timeout. A failed fetch leaves
// its ref out of the result map; the caller degrades that cell to a
// placeholder. Only context cancellation aborts the whole prefetch.
func prefetch(ctx context.Context, fetcher ImageFetcher, refs []string, concurrency int, timeout time.Duration, logger *slog.Logger) (map[string][]byte, error) {
	images := make(map[string][]byte, len(refs))
	if fetcher == nil || len(refs) == 0 {
		return images, ctx.Err()
	}
	if concurrency <= 0 {
		concurrency = defaultFetchConcurrency
	}
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}

	seen := make(map[string]struct{}, len(refs))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, ref := range refs {
		if ref == "" {
			continue
		}
		if _, ok := seen[ref]; ok {
			continue
		}
		seen[ref] = struct{}{}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fctx, cancel := context.WithTimeout(gctx, timeout)
			defer cancel()
			data, err := fetcher.Fetch(fctx, ref)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				if logger != nil {
					logger.Warn("image fetch failed, using placeholder",
						slog.String("ref", ref), slog.Any("error", err))
				}
				return nil
			}
			mu.Lock()
			images[ref] = data
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return images, ctx.Err()
}
