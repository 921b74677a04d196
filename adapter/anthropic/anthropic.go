package anthropic

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"golang.org/x/sync/errgroup"

	"github.com/skosovsky/fieldchat"
	"github.com/skosovsky/fieldchat/adapter"
	"github.com/skosovsky/fieldchat/mediafetch"
)

const defaultMaxTokens int64 = 1024

// Messenger is the subset of the SDK used by Model. *anthropic.MessageService
// (client.Messages) satisfies it.
type Messenger interface {
	New(ctx context.Context, body anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

var _ Messenger = (*anthropic.MessageService)(nil)

// Model implements fieldchat.Model for Claude models.
type Model struct {
	messages     Messenger
	defaultModel anthropic.Model
	fetcher      *mediafetch.Fetcher
	reqOpts      []option.RequestOption
}

// Option configures a Model.
type Option func(*Model)

// WithModel sets the model used when the request params carry no "model" key.
func WithModel(m anthropic.Model) Option {
	return func(a *Model) { a.defaultModel = m }
}

// WithMediaFetcher sets the fetcher used for https media parts.
func WithMediaFetcher(f *mediafetch.Fetcher) Option {
	return func(a *Model) { a.fetcher = f }
}

// WithRequestOptions appends SDK request options applied to every call.
func WithRequestOptions(opts ...option.RequestOption) Option {
	return func(a *Model) { a.reqOpts = append(a.reqOpts, opts...) }
}

// New returns a Model over m.
func New(m Messenger, opts ...Option) (*Model, error) {
	if m == nil {
		return nil, adapter.ErrNilClient
	}
	a := &Model{
		messages:     m,
		defaultModel: anthropic.ModelClaudeSonnet4_5_20250929,
		fetcher:      mediafetch.DefaultFetcher,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Complete implements fieldchat.Model. Provider errors are returned unwrapped.
func (a *Model) Complete(ctx context.Context, messages []fieldchat.ChatMessage, params map[string]any) ([]string, error) {
	body, err := a.Translate(ctx, messages, params)
	if err != nil {
		return nil, err
	}
	n := adapter.ExtractModelConfig(params).Candidates()
	out := make([]string, n)
	g, gctx := errgroup.WithContext(ctx)
	for i := range n {
		g.Go(func() error {
			msg, err := a.messages.New(gctx, *body, a.reqOpts...)
			if err != nil {
				return err
			}
			text, err := Text(msg)
			if err != nil {
				return err
			}
			out[i] = text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Translate builds the request body. ctx bounds media downloads.
func (a *Model) Translate(ctx context.Context, messages []fieldchat.ChatMessage, params map[string]any) (*anthropic.MessageNewParams, error) {
	body := &anthropic.MessageNewParams{
		MaxTokens: defaultMaxTokens,
		Model:     a.defaultModel,
	}
	mp := adapter.ExtractModelConfig(params)
	if mp.Model != "" {
		body.Model = anthropic.Model(mp.Model)
	}
	if mp.MaxTokens != nil {
		body.MaxTokens = *mp.MaxTokens
	}
	if mp.Temperature != nil {
		body.Temperature = anthropic.Float(*mp.Temperature)
	}
	if mp.TopP != nil {
		body.TopP = anthropic.Float(*mp.TopP)
	}
	if len(mp.Stop) > 0 {
		body.StopSequences = mp.Stop
	}

	system, rest := adapter.SplitSystem(messages)
	if system != "" {
		body.System = []anthropic.TextBlockParam{{Text: system}}
	}
	body.Messages = make([]anthropic.MessageParam, 0, len(rest))
	for i, msg := range rest {
		var (
			m   anthropic.MessageParam
			err error
		)
		switch msg.Role {
		case fieldchat.RoleUser:
			m, err = a.userMessage(ctx, msg)
		case fieldchat.RoleAssistant:
			m = anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.TextContent()))
		default:
			err = fmt.Errorf("%w: %q", adapter.ErrUnsupportedRole, msg.Role)
		}
		if err != nil {
			return nil, fmt.Errorf("anthropic: message %d: %w", i, err)
		}
		body.Messages = append(body.Messages, m)
	}
	return body, nil
}

func (a *Model) userMessage(ctx context.Context, msg fieldchat.ChatMessage) (anthropic.MessageParam, error) {
	if msg.IsPlain() {
		return anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Text)), nil
	}
	blocks := make([]anthropic.ContentBlockParamUnion, 0, len(msg.Parts))
	for _, p := range msg.Parts {
		switch x := p.(type) {
		case fieldchat.TextPart:
			blocks = append(blocks, anthropic.NewTextBlock(x.Text))
		case fieldchat.MediaPart:
			mediaType, data, err := a.inlineMedia(ctx, x.URL)
			if err != nil {
				return anthropic.MessageParam{}, err
			}
			blocks = append(blocks, anthropic.NewImageBlockBase64(mediaType, data))
		default:
			return anthropic.MessageParam{}, fmt.Errorf("%w: %T", adapter.ErrUnsupportedContentType, p)
		}
	}
	return anthropic.NewUserMessage(blocks...), nil
}

// inlineMedia returns the media type and base64 payload for a data URI or https URL.
func (a *Model) inlineMedia(ctx context.Context, ref string) (string, string, error) {
	if !strings.HasPrefix(ref, "https://") {
		return adapter.SplitDataURI(ref)
	}
	m, err := a.fetcher.Fetch(ctx, ref)
	if err != nil {
		return "", "", fmt.Errorf("%w: fetch image URL: %w", adapter.ErrUnsupportedContentType, err)
	}
	mediaType := m.ContentType
	if mediaType == "" {
		mediaType = "image/jpeg"
	}
	return mediaType, base64.StdEncoding.EncodeToString(m.Data), nil
}

// Text concatenates the text blocks of msg.
func Text(msg *anthropic.Message) (string, error) {
	if msg == nil {
		return "", adapter.ErrEmptyResponse
	}
	var b strings.Builder
	found := false
	for _, block := range msg.Content {
		if block.Type == "text" {
			found = true
			b.WriteString(block.Text)
		}
	}
	if !found {
		return "", adapter.ErrEmptyResponse
	}
	return b.String(), nil
}

var _ fieldchat.Model = (*Model)(nil)
