package fieldchat

import (
	"context"
	"slices"
)

// ChatAdapter is the primary marker-based encoding. The zero value is usable and embeds
// media with DataURIEncoder.
type ChatAdapter struct {
	media MediaEncoder
}

// ChatAdapterOption configures a ChatAdapter.
type ChatAdapterOption func(*ChatAdapter)

// WithMediaEncoder sets the encoder used for media fields. Nil keeps the default.
func WithMediaEncoder(enc MediaEncoder) ChatAdapterOption {
	return func(a *ChatAdapter) {
		if enc != nil {
			a.media = enc
		}
	}
}

// NewChatAdapter returns a ChatAdapter with options applied.
func NewChatAdapter(opts ...ChatAdapterOption) *ChatAdapter {
	a := &ChatAdapter{}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Name implements Adapter.
func (a *ChatAdapter) Name() string { return "chat" }

func (a *ChatAdapter) encoder() MediaEncoder {
	if a == nil || a.media == nil {
		return DataURIEncoder{}
	}
	return a.media
}

// Format renders one system message, a (user, assistant) pair per demo and a final user
// message for inputs. Demo answers get a trailing empty "completed" marker. Demos missing
// some output fields are rendered as-is without validation.
func (a *ChatAdapter) Format(ctx context.Context, sig *Signature, demos []Values, inputs Values) ([]ChatMessage, error) {
	if sig == nil {
		return nil, ErrNilSignature
	}
	enc := a.encoder()
	messages := make([]ChatMessage, 0, 2+2*len(demos))
	messages = append(messages, ChatMessage{Role: RoleSystem, Text: BuildInstructions(sig)})

	answerFields := append(slices.Clone(sig.OutputFields), TextField(completedField, ""))
	for _, demo := range demos {
		user, err := renderTurn(ctx, sig.InputFields, demo, enc)
		if err != nil {
			return nil, err
		}
		assistant, err := renderTurn(ctx, answerFields, demo.with(completedField, ""), enc)
		if err != nil {
			return nil, err
		}
		messages = append(messages,
			ChatMessage{Role: RoleUser, Parts: user},
			ChatMessage{Role: RoleAssistant, Parts: assistant},
		)
	}

	final, err := renderTurn(ctx, sig.InputFields, inputs, enc)
	if err != nil {
		return nil, err
	}
	return append(messages, ChatMessage{Role: RoleUser, Parts: final}), nil
}

// Parse implements Adapter using the marker grammar; see ParseSections.
func (a *ChatAdapter) Parse(sig *Signature, completion string) (ParsedFields, error) {
	if sig == nil {
		return nil, ErrNilSignature
	}
	fields, order := reduceSections(sig, ParseSections(completion))
	if len(fields) != len(sig.OutputFields) {
		return nil, &MismatchError{
			Adapter:  a.Name(),
			Expected: sig.OutputNames(),
			Actual:   order,
			Raw:      completion,
		}
	}
	return fields, nil
}

var _ Adapter = (*ChatAdapter)(nil)
