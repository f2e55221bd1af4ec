package extraction

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"
)

// maxImageBytes caps the downloaded payload to handle high-resolution phone
// photos without letting a bad URL exhaust memory.
const maxImageBytes = 50 << 20 // 50MB

// ImagePayload is a self-describing inline image ready to embed in a model
// prompt. After fetching, Data is always PNG.
type ImagePayload struct {
	MIMEType string
	Data     []byte
}

// Base64 returns the payload body encoded for transports that carry images
// as text (e.g. the Ollama chat API).
func (p ImagePayload) Base64() string {
	return base64.StdEncoding.EncodeToString(p.Data)
}

// Fetcher retrieves remote receipt images and prepares them for prompting.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (ImagePayload, error)
}

// HTTPFetcher fetches images over HTTP(S). No filesystem or persistent
// storage is involved; the payload lives only for the pipeline invocation.
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher creates an HTTPFetcher with a sane default timeout.
func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// NewHTTPFetcherWithClient creates an HTTPFetcher with a custom client for
// testing.
func NewHTTPFetcherWithClient(client *http.Client) *HTTPFetcher {
	return &HTTPFetcher{client: client}
}

// Fetch downloads the resource at url, verifies it is an image (or a PDF
// receipt, which is rendered to an image), and returns it as an inline PNG
// payload.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (ImagePayload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return ImagePayload{}, &FetchError{URL: url, Err: err}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return ImagePayload{}, &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return ImagePayload{}, &FetchError{URL: url, StatusCode: resp.StatusCode}
	}

	contentType := normalizeContentType(resp.Header.Get("Content-Type"))
	if !isSupportedMediaType(contentType) {
		return ImagePayload{}, &UnsupportedMediaError{URL: url, ContentType: contentType}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return ImagePayload{}, &FetchError{URL: url, Err: err}
	}
	if len(data) > maxImageBytes {
		return ImagePayload{}, &FetchError{URL: url, Err: fmt.Errorf("image exceeds %d bytes", maxImageBytes)}
	}

	pngData, _, err := convertToPNG(data, contentType)
	if err != nil {
		return ImagePayload{}, &FetchError{URL: url, Err: err}
	}

	return ImagePayload{MIMEType: "image/png", Data: pngData}, nil
}

func normalizeContentType(header string) string {
	mediaType, _, err := mime.ParseMediaType(header)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(header))
	}
	return strings.ToLower(mediaType)
}

func isSupportedMediaType(contentType string) bool {
	if strings.HasPrefix(contentType, "image/") {
		return true
	}
	// PDF receipts are accepted and rendered to a PNG before prompting.
	return contentType == "application/pdf"
}
