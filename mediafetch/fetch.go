// Package mediafetch downloads remote media for media fields that reference an https URL.
// Model APIs receive media as inline base64, so the bytes must be fetched before formatting.
package mediafetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"slices"
	"strings"
)

// DefaultMaxBodySize is the default limit for media download (10 MiB).
const DefaultMaxBodySize = 10 << 20

var (
	// ErrUnsafeScheme is returned when the URL scheme is not https.
	ErrUnsafeScheme = errors.New("mediafetch: only https scheme is allowed")
	// ErrBodyTooLarge is returned when the payload exceeds the size limit.
	ErrBodyTooLarge = errors.New("mediafetch: response body exceeds size limit")
	// ErrUnsupportedType is returned when Content-Type is not allowed (e.g. not image/*).
	ErrUnsupportedType = errors.New("mediafetch: unsupported content type")
	// ErrStatus is returned for non-200 responses.
	ErrStatus = errors.New("mediafetch: unexpected HTTP status")
)

// Media is a downloaded payload with its declared MIME type (parameters stripped).
type Media struct {
	Data        []byte
	ContentType string
}

// Fetcher downloads media over https. The zero value uses http.DefaultClient,
// DefaultMaxBodySize and accepts image/* content types.
type Fetcher struct {
	Client          *http.Client
	MaxBytes        int64
	AllowedPrefixes []string
}

// DefaultFetcher is used by FetchImage. Tests may replace its Client (e.g. with an httptest TLS client).
var DefaultFetcher = &Fetcher{}

var defaultAllowedPrefixes = []string{"image/"}

// Fetch downloads rawURL. A missing Content-Type is accepted; a present one must match AllowedPrefixes.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (Media, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Media{}, fmt.Errorf("mediafetch: parse URL: %w", err)
	}
	if u.Scheme != "https" {
		return Media{}, ErrUnsafeScheme
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Media{}, fmt.Errorf("mediafetch: new request: %w", err)
	}
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return Media{}, fmt.Errorf("mediafetch: do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return Media{}, fmt.Errorf("%w: %s", ErrStatus, resp.Status)
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType != "" {
		if mt, _, err := mime.ParseMediaType(contentType); err == nil {
			contentType = mt
		}
		if !f.allowed(contentType) {
			return Media{}, fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
		}
	}
	limit := f.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBodySize
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return Media{}, fmt.Errorf("mediafetch: read body: %w", err)
	}
	if int64(len(data)) > limit {
		return Media{}, ErrBodyTooLarge
	}
	return Media{Data: data, ContentType: contentType}, nil
}

func (f *Fetcher) allowed(contentType string) bool {
	prefixes := f.AllowedPrefixes
	if len(prefixes) == 0 {
		prefixes = defaultAllowedPrefixes
	}
	return slices.ContainsFunc(prefixes, func(p string) bool { return strings.HasPrefix(contentType, p) })
}

// FetchImage downloads an image with DefaultFetcher's client and the given size limit.
func FetchImage(ctx context.Context, rawURL string, maxBytes int64) (data []byte, contentType string, err error) {
	f := *DefaultFetcher
	if maxBytes > 0 {
		f.MaxBytes = maxBytes
	}
	m, err := f.Fetch(ctx, rawURL)
	if err != nil {
		return nil, "", err
	}
	return m.Data, m.ContentType, nil
}
