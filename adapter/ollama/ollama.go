package ollama

import (
	"context"
	"fmt"
	"strings"

	"github.com/ollama/ollama/api"

	"github.com/skosovsky/fieldchat"
	"github.com/skosovsky/fieldchat/adapter"
)

// Chatter is the subset of the Ollama client used by Model. *api.Client satisfies it.
type Chatter interface {
	Chat(ctx context.Context, req *api.ChatRequest, fn api.ChatResponseFunc) error
}

var _ Chatter = (*api.Client)(nil)

// Model implements fieldchat.Model for a local Ollama server.
type Model struct {
	client       Chatter
	defaultModel string
}

// Option configures a Model.
type Option func(*Model)

// WithModel sets the model used when the request params carry no "model" key.
func WithModel(m string) Option {
	return func(a *Model) { a.defaultModel = m }
}

// New returns a Model over c with default model "llama3.2".
func New(c Chatter, opts ...Option) (*Model, error) {
	if c == nil {
		return nil, adapter.ErrNilClient
	}
	a := &Model{client: c, defaultModel: "llama3.2"}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Complete implements fieldchat.Model.
func (a *Model) Complete(ctx context.Context, messages []fieldchat.ChatMessage, params map[string]any) ([]string, error) {
	req, err := a.Translate(messages, params)
	if err != nil {
		return nil, err
	}
	n := adapter.ExtractModelConfig(params).Candidates()
	out := make([]string, 0, n)
	for range n {
		var b strings.Builder
		err := a.client.Chat(ctx, req, func(resp api.ChatResponse) error {
			b.WriteString(resp.Message.Content)
			return nil
		})
		if err != nil {
			return nil, err
		}
		if b.Len() == 0 {
			return nil, adapter.ErrEmptyResponse
		}
		out = append(out, b.String())
	}
	return out, nil
}

// Translate builds the chat request for messages and params.
func (a *Model) Translate(messages []fieldchat.ChatMessage, params map[string]any) (*api.ChatRequest, error) {
	stream := false
	mp := adapter.ExtractModelConfig(params)
	req := &api.ChatRequest{
		Model:    a.defaultModel,
		Messages: make([]api.Message, 0, len(messages)),
		Stream:   &stream,
	}
	if mp.Model != "" {
		req.Model = mp.Model
	}
	if mp.Temperature != nil || mp.MaxTokens != nil || mp.TopP != nil || len(mp.Stop) > 0 {
		req.Options = make(map[string]any)
		if mp.Temperature != nil {
			req.Options["temperature"] = *mp.Temperature
		}
		if mp.MaxTokens != nil {
			req.Options["num_predict"] = *mp.MaxTokens
		}
		if mp.TopP != nil {
			req.Options["top_p"] = *mp.TopP
		}
		if len(mp.Stop) > 0 {
			req.Options["stop"] = mp.Stop
		}
	}
	for i, msg := range messages {
		m, err := translateMessage(msg)
		if err != nil {
			return nil, fmt.Errorf("ollama: message %d: %w", i, err)
		}
		req.Messages = append(req.Messages, m)
	}
	return req, nil
}

func translateMessage(msg fieldchat.ChatMessage) (api.Message, error) {
	switch msg.Role {
	case fieldchat.RoleSystem, fieldchat.RoleAssistant:
		for _, p := range msg.Parts {
			if _, ok := p.(fieldchat.MediaPart); ok {
				return api.Message{}, fmt.Errorf("%w: Ollama does not support images in %s messages", adapter.ErrUnsupportedContentType, msg.Role)
			}
		}
		return api.Message{Role: string(msg.Role), Content: msg.TextContent()}, nil
	case fieldchat.RoleUser:
		var images []api.ImageData
		for _, p := range msg.Parts {
			switch x := p.(type) {
			case fieldchat.TextPart:
			case fieldchat.MediaPart:
				_, data, err := adapter.DecodeDataURI(x.URL)
				if err != nil {
					return api.Message{}, err
				}
				images = append(images, api.ImageData(data))
			default:
				return api.Message{}, fmt.Errorf("%w: %T", adapter.ErrUnsupportedContentType, p)
			}
		}
		return api.Message{Role: "user", Content: msg.TextContent(), Images: images}, nil
	default:
		return api.Message{}, fmt.Errorf("%w: %q", adapter.ErrUnsupportedRole, msg.Role)
	}
}

var _ fieldchat.Model = (*Model)(nil)
