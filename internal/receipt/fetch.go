package receipt

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

// maxImageBytes bounds attachment downloads.
const maxImageBytes = 20 << 20

// Fetcher downloads the image behind a PhotoRef.
type Fetcher interface {
	Fetch(ctx context.Context, ref PhotoRef) (data []byte, contentType string, err error)
}

// HTTPFetcher downloads attachments from their CDN URL.
type HTTPFetcher struct {
	client *http.Client
}

func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{client: &http.Client{Timeout: timeout}}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, ref PhotoRef) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref.URL, nil)
	if err != nil {
		return nil, "", errors.Wrap(err, "build image request")
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", errors.Wrap(err, "download image")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", errors.Errorf("image download returned status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, "", errors.Wrap(err, "read image")
	}
	if len(data) > maxImageBytes {
		return nil, "", errors.Errorf("image larger than %d bytes", maxImageBytes)
	}

	contentType := ref.ContentType
	if contentType == "" {
		contentType = resp.Header.Get("Content-Type")
	}
	return data, contentType, nil
}
