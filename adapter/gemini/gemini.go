package gemini

import (
	"context"
	"fmt"
	"math"
	"strings"

	"google.golang.org/genai"

	"github.com/skosovsky/fieldchat"
	"github.com/skosovsky/fieldchat/adapter"
)

// Generator is the subset of the SDK used by Model. client.Models satisfies it.
type Generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

var _ Generator = (*genai.Models)(nil)

// Request is a translated GenerateContent call.
type Request struct {
	Model    string
	Contents []*genai.Content
	Config   *genai.GenerateContentConfig
}

// Model implements fieldchat.Model for Gemini models.
type Model struct {
	models       Generator
	defaultModel string
}

// Option configures a Model.
type Option func(*Model)

// WithModel sets the model used when the request params carry no "model" key.
func WithModel(m string) Option {
	return func(a *Model) { a.defaultModel = m }
}

// New returns a Model over g with default model gemini-2.5-flash.
func New(g Generator, opts ...Option) (*Model, error) {
	if g == nil {
		return nil, adapter.ErrNilClient
	}
	a := &Model{models: g, defaultModel: "gemini-2.5-flash"}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Complete implements fieldchat.Model. Provider errors are returned unwrapped.
func (a *Model) Complete(ctx context.Context, messages []fieldchat.ChatMessage, params map[string]any) ([]string, error) {
	req, err := a.Translate(messages, params)
	if err != nil {
		return nil, err
	}
	resp, err := a.models.GenerateContent(ctx, req.Model, req.Contents, req.Config)
	if err != nil {
		return nil, err
	}
	return Texts(resp)
}

// Translate builds the GenerateContent arguments for messages and params.
func (a *Model) Translate(messages []fieldchat.ChatMessage, params map[string]any) (*Request, error) {
	mp := adapter.ExtractModelConfig(params)
	req := &Request{Model: a.defaultModel, Config: &genai.GenerateContentConfig{}}
	if mp.Model != "" {
		req.Model = mp.Model
	}
	config := req.Config
	if mp.Temperature != nil {
		t := float32(*mp.Temperature)
		config.Temperature = &t
	}
	if mp.MaxTokens != nil {
		config.MaxOutputTokens = int32(min(*mp.MaxTokens, math.MaxInt32))
	}
	if mp.TopP != nil {
		p := float32(*mp.TopP)
		config.TopP = &p
	}
	if len(mp.Stop) > 0 {
		config.StopSequences = mp.Stop
	}
	if mp.N != nil {
		config.CandidateCount = int32(min(*mp.N, math.MaxInt32))
	}

	system, rest := adapter.SplitSystem(messages)
	if system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	req.Contents = make([]*genai.Content, 0, len(rest))
	for i, msg := range rest {
		var (
			c   *genai.Content
			err error
		)
		switch msg.Role {
		case fieldchat.RoleUser:
			c, err = userContent(msg)
		case fieldchat.RoleAssistant:
			c = genai.NewContentFromText(msg.TextContent(), genai.RoleModel)
		default:
			err = fmt.Errorf("%w: %q", adapter.ErrUnsupportedRole, msg.Role)
		}
		if err != nil {
			return nil, fmt.Errorf("gemini: message %d: %w", i, err)
		}
		req.Contents = append(req.Contents, c)
	}
	return req, nil
}

func userContent(msg fieldchat.ChatMessage) (*genai.Content, error) {
	if msg.IsPlain() {
		return genai.NewContentFromText(msg.Text, genai.RoleUser), nil
	}
	parts := make([]*genai.Part, 0, len(msg.Parts))
	for _, p := range msg.Parts {
		switch x := p.(type) {
		case fieldchat.TextPart:
			parts = append(parts, genai.NewPartFromText(x.Text))
		case fieldchat.MediaPart:
			mediaType, data, err := adapter.DecodeDataURI(x.URL)
			if err != nil {
				return nil, err
			}
			parts = append(parts, genai.NewPartFromBytes(data, mediaType))
		default:
			return nil, fmt.Errorf("%w: %T", adapter.ErrUnsupportedContentType, p)
		}
	}
	return genai.NewContentFromParts(parts, genai.RoleUser), nil
}

// Texts returns the text of every candidate, in order. Thought parts are skipped.
func Texts(resp *genai.GenerateContentResponse) ([]string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, adapter.ErrEmptyResponse
	}
	out := make([]string, 0, len(resp.Candidates))
	for _, c := range resp.Candidates {
		var b strings.Builder
		if c.Content != nil {
			for _, p := range c.Content.Parts {
				if p != nil && !p.Thought {
					b.WriteString(p.Text)
				}
			}
		}
		out = append(out, b.String())
	}
	return out, nil
}

var _ fieldchat.Model = (*Model)(nil)
