package adapter

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/skosovsky/fieldchat"
	"github.com/skosovsky/fieldchat/internal/cast"
)

// Sentinel errors for model implementations. Callers should use errors.Is.
var (
	ErrUnsupportedRole        = errors.New("adapter: unsupported message role for this provider")
	ErrUnsupportedContentType = errors.New("adapter: unsupported ContentPart type for this provider")
	ErrEmptyResponse          = errors.New("adapter: response contains no content")
	ErrInvalidDataURI         = errors.New("adapter: media URL is not a base64 data URI")
	ErrNilClient              = errors.New("adapter: provider client must not be nil")
)

// ModelParams holds well-known parameters extracted from a request's params map.
// Use ExtractModelConfig to populate from map[string]any.
type ModelParams struct {
	Model       string
	Temperature *float64
	MaxTokens   *int64
	TopP        *float64
	Stop        []string
	N           *int64
}

// ExtractModelConfig reads well-known keys and returns typed ModelParams.
// Keys: "model" (string), "temperature", "top_p" (float), "max_tokens", "n" (integer),
// "stop" (string or list of strings). Values of the wrong type are ignored.
func ExtractModelConfig(cfg map[string]any) ModelParams {
	var out ModelParams
	if cfg == nil {
		return out
	}
	if s, ok := cfg["model"].(string); ok {
		out.Model = s
	}
	if f, ok := cast.ToFloat64(cfg["temperature"]); ok {
		out.Temperature = &f
	}
	if i, ok := cast.ToInt64(cfg["max_tokens"]); ok {
		out.MaxTokens = &i
	}
	if f, ok := cast.ToFloat64(cfg["top_p"]); ok {
		out.TopP = &f
	}
	if ss, ok := cast.ToStringSlice(cfg["stop"]); ok {
		out.Stop = ss
	}
	if i, ok := cast.ToInt64(cfg["n"]); ok && i > 0 {
		out.N = &i
	}
	return out
}

// Candidates returns the requested number of completions, defaulting to 1.
func (p ModelParams) Candidates() int {
	if p.N == nil {
		return 1
	}
	return int(*p.N)
}

// TextFromParts extracts concatenated text from parts, ignoring media.
func TextFromParts(parts []fieldchat.ContentPart) string {
	var b strings.Builder
	for _, p := range parts {
		if t, ok := p.(fieldchat.TextPart); ok {
			b.WriteString(t.Text)
		}
	}
	return b.String()
}

// SplitSystem joins the text of all system messages and returns the remaining messages
// in order. Providers with a dedicated system parameter (Anthropic) use it.
func SplitSystem(messages []fieldchat.ChatMessage) (string, []fieldchat.ChatMessage) {
	var system []string
	rest := make([]fieldchat.ChatMessage, 0, len(messages))
	for _, m := range messages {
		if m.Role == fieldchat.RoleSystem {
			system = append(system, m.TextContent())
			continue
		}
		rest = append(rest, m)
	}
	return strings.Join(system, "\n\n"), rest
}

// SplitDataURI splits "data:<mediatype>;base64,<data>" into its media type and base64 payload.
func SplitDataURI(uri string) (mediaType, data string, err error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", "", fmt.Errorf("%w: missing data: prefix", ErrInvalidDataURI)
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", "", fmt.Errorf("%w: missing payload", ErrInvalidDataURI)
	}
	mediaType, ok = strings.CutSuffix(meta, ";base64")
	if !ok {
		return "", "", fmt.Errorf("%w: payload is not base64", ErrInvalidDataURI)
	}
	if mediaType == "" || payload == "" {
		return "", "", fmt.Errorf("%w: empty media type or payload", ErrInvalidDataURI)
	}
	return mediaType, payload, nil
}

// DecodeDataURI is SplitDataURI followed by base64 decoding, for providers that take raw bytes.
func DecodeDataURI(uri string) (mediaType string, data []byte, err error) {
	mediaType, payload, err := SplitDataURI(uri)
	if err != nil {
		return "", nil, err
	}
	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrInvalidDataURI, err)
	}
	return mediaType, data, nil
}
