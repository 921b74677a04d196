package fieldchat

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/skosovsky/fieldchat/mediafetch"
)

// jpegDataURIPrefix is the fixed prefix for embedded media parts.
const jpegDataURIPrefix = "data:image/jpeg;base64,"

// MediaEncoder converts a media field value into a URI suitable for a MediaPart.
type MediaEncoder interface {
	EncodeMedia(ctx context.Context, value any) (string, error)
}

// MediaEncoderFunc adapts a function to MediaEncoder.
type MediaEncoderFunc func(ctx context.Context, value any) (string, error)

// EncodeMedia implements MediaEncoder.
func (f MediaEncoderFunc) EncodeMedia(ctx context.Context, value any) (string, error) {
	return f(ctx, value)
}

var (
	errUnsupportedMedia = errors.New("unsupported media value type")
	errEmptyMediaURI    = errors.New("encoder returned an empty URI")
)

// DataURIEncoder embeds media as data URIs. Raw bytes, readers, images, downloads and file
// contents always get the data:image/jpeg;base64 prefix. Values that are already data URIs,
// directly or in a MediaPart, are passed through with their own media type.
// Accepted values: []byte, io.Reader, image.Image (re-encoded as JPEG), MediaPart, data: URIs,
// https:// URLs (downloaded via mediafetch) and local file paths.
// The zero value is ready to use.
type DataURIEncoder struct {
	// MaxBytes limits downloads and file reads; <= 0 uses mediafetch.DefaultMaxBodySize.
	MaxBytes int64
	// Client is used for https downloads; nil uses mediafetch.DefaultFetcher's client.
	Client *http.Client
}

// EncodeMedia implements MediaEncoder.
func (e DataURIEncoder) EncodeMedia(ctx context.Context, value any) (string, error) {
	limit := e.MaxBytes
	if limit <= 0 {
		limit = mediafetch.DefaultMaxBodySize
	}
	switch v := value.(type) {
	case MediaPart:
		return e.EncodeMedia(ctx, v.URL)
	case []byte:
		return encodeBytes(v)
	case io.Reader:
		data, err := io.ReadAll(io.LimitReader(v, limit+1))
		if err != nil {
			return "", fmt.Errorf("read media: %w", err)
		}
		if int64(len(data)) > limit {
			return "", mediafetch.ErrBodyTooLarge
		}
		return encodeBytes(data)
	case image.Image:
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, v, nil); err != nil {
			return "", fmt.Errorf("encode jpeg: %w", err)
		}
		return encodeBytes(buf.Bytes())
	case string:
		return e.encodeString(ctx, v, limit)
	default:
		return "", fmt.Errorf("%w: %T", errUnsupportedMedia, value)
	}
}

func (e DataURIEncoder) encodeString(ctx context.Context, s string, limit int64) (string, error) {
	switch {
	case strings.HasPrefix(s, "data:"):
		return s, nil
	case strings.HasPrefix(s, "https://"), strings.HasPrefix(s, "http://"):
		if e.Client == nil {
			data, _, err := mediafetch.FetchImage(ctx, s, limit)
			if err != nil {
				return "", err
			}
			return encodeBytes(data)
		}
		f := &mediafetch.Fetcher{Client: e.Client, MaxBytes: limit}
		m, err := f.Fetch(ctx, s)
		if err != nil {
			return "", err
		}
		return encodeBytes(m.Data)
	default:
		info, err := os.Stat(s)
		if err != nil {
			return "", fmt.Errorf("stat media file: %w", err)
		}
		if info.Size() > limit {
			return "", mediafetch.ErrBodyTooLarge
		}
		data, err := os.ReadFile(s) // #nosec G304 -- path is a caller-supplied field value
		if err != nil {
			return "", fmt.Errorf("read media file: %w", err)
		}
		return encodeBytes(data)
	}
}

func encodeBytes(data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty media payload")
	}
	return jpegDataURIPrefix + base64.StdEncoding.EncodeToString(data), nil
}
