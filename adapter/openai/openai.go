package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"github.com/skosovsky/fieldchat"
	"github.com/skosovsky/fieldchat/adapter"
)

// Completer is the subset of the SDK used by Model. *openai.ChatCompletionService
// (client.Chat.Completions) satisfies it.
type Completer interface {
	New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

var _ Completer = (*openai.ChatCompletionService)(nil)

// Model implements fieldchat.Model. Safe for concurrent use when the Completer is.
type Model struct {
	completions  Completer
	defaultModel shared.ChatModel
	reqOpts      []option.RequestOption
}

// Option configures a Model.
type Option func(*Model)

// WithModel sets the model used when the request params carry no "model" key.
func WithModel(m shared.ChatModel) Option {
	return func(a *Model) { a.defaultModel = m }
}

// WithRequestOptions appends SDK request options applied to every call.
func WithRequestOptions(opts ...option.RequestOption) Option {
	return func(a *Model) { a.reqOpts = append(a.reqOpts, opts...) }
}

// New returns a Model over c with default model gpt-4o.
func New(c Completer, opts ...Option) (*Model, error) {
	if c == nil {
		return nil, adapter.ErrNilClient
	}
	m := &Model{completions: c, defaultModel: openai.ChatModelGPT4o}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Complete implements fieldchat.Model. Provider errors are returned unwrapped so callers can
// inspect *openai.Error.
func (m *Model) Complete(ctx context.Context, messages []fieldchat.ChatMessage, params map[string]any) ([]string, error) {
	body, err := m.Translate(messages, params)
	if err != nil {
		return nil, err
	}
	resp, err := m.completions.New(ctx, *body, m.reqOpts...)
	if err != nil {
		return nil, err
	}
	return Texts(resp)
}

// Translate builds the request body for messages and params.
func (m *Model) Translate(messages []fieldchat.ChatMessage, params map[string]any) (*openai.ChatCompletionNewParams, error) {
	body := &openai.ChatCompletionNewParams{
		Messages: make([]openai.ChatCompletionMessageParamUnion, 0, len(messages)),
		Model:    m.defaultModel,
	}
	mp := adapter.ExtractModelConfig(params)
	if mp.Model != "" {
		body.Model = shared.ChatModel(mp.Model)
	}
	if mp.Temperature != nil {
		body.Temperature = openai.Float(*mp.Temperature)
	}
	if mp.MaxTokens != nil {
		body.MaxTokens = openai.Int(*mp.MaxTokens)
	}
	if mp.TopP != nil {
		body.TopP = openai.Float(*mp.TopP)
	}
	if len(mp.Stop) > 0 {
		body.Stop = openai.ChatCompletionNewParamsStopUnion{OfStringArray: mp.Stop}
	}
	if mp.N != nil {
		body.N = openai.Int(*mp.N)
	}
	for i, msg := range messages {
		union, err := toUnion(msg)
		if err != nil {
			return nil, fmt.Errorf("openai: message %d: %w", i, err)
		}
		body.Messages = append(body.Messages, union)
	}
	return body, nil
}

func toUnion(msg fieldchat.ChatMessage) (openai.ChatCompletionMessageParamUnion, error) {
	switch msg.Role {
	case fieldchat.RoleSystem:
		return openai.SystemMessage(msg.TextContent()), nil
	case fieldchat.RoleAssistant:
		return openai.AssistantMessage(msg.TextContent()), nil
	case fieldchat.RoleUser:
		return userMessage(msg)
	default:
		return openai.ChatCompletionMessageParamUnion{}, fmt.Errorf("%w: %q", adapter.ErrUnsupportedRole, msg.Role)
	}
}

// userMessage sends plain text when there is no media, otherwise ordered content parts.
func userMessage(msg fieldchat.ChatMessage) (openai.ChatCompletionMessageParamUnion, error) {
	hasMedia := false
	parts := make([]openai.ChatCompletionContentPartUnionParam, 0, len(msg.Parts))
	for _, p := range msg.Parts {
		switch x := p.(type) {
		case fieldchat.TextPart:
			parts = append(parts, openai.TextContentPart(x.Text))
		case fieldchat.MediaPart:
			hasMedia = true
			parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
				URL:    x.URL,
				Detail: "auto",
			}))
		default:
			return openai.ChatCompletionMessageParamUnion{}, fmt.Errorf("%w: %T", adapter.ErrUnsupportedContentType, p)
		}
	}
	if !hasMedia {
		return openai.UserMessage(msg.TextContent()), nil
	}
	return openai.UserMessage(parts), nil
}

// Texts returns the message content of every choice, in order.
func Texts(resp *openai.ChatCompletion) ([]string, error) {
	if resp == nil || len(resp.Choices) == 0 {
		return nil, adapter.ErrEmptyResponse
	}
	out := make([]string, len(resp.Choices))
	for i, c := range resp.Choices {
		out[i] = c.Message.Content
	}
	return out, nil
}

var _ fieldchat.Model = (*Model)(nil)
