package fieldchat

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Role is the message role in a chat (system, user, assistant).
type Role string

// Chat message roles.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ContentPart is a sealed interface for message parts. Only package types implement it via isContentPart().
type ContentPart interface {
	isContentPart()
}

// TextPart holds plain text content.
type TextPart struct {
	Text string
}

func (TextPart) isContentPart() {}

// MediaPart holds an embedded media reference, normally a data URI (data:image/jpeg;base64,...).
type MediaPart struct {
	URL string
}

func (MediaPart) isContentPart() {}

// ChatMessage is a single message. Parts == nil means plain string content held in Text
// (used for the system message); otherwise Parts is the ordered multimodal content and
// always ends with exactly one TextPart.
type ChatMessage struct {
	Role  Role
	Text  string
	Parts []ContentPart
}

// IsPlain reports whether the message carries plain string content.
func (m ChatMessage) IsPlain() bool { return m.Parts == nil }

// TextContent returns the message text: Text for plain messages, concatenated TextParts otherwise.
func (m ChatMessage) TextContent() string {
	if m.IsPlain() {
		return m.Text
	}
	var b strings.Builder
	for _, p := range m.Parts {
		if t, ok := p.(TextPart); ok {
			b.WriteString(t.Text)
		}
	}
	return b.String()
}

type wireImageURL struct {
	URL string `json:"url"`
}

type wirePart struct {
	Type     string        `json:"type"`
	Text     *string       `json:"text,omitempty"`
	ImageURL *wireImageURL `json:"image_url,omitempty"`
}

type wireMessage struct {
	Role    Role `json:"role"`
	Content any  `json:"content"`
}

// MarshalJSON encodes the message in the OpenAI-compatible wire shape:
// content is a string for plain messages, otherwise a list of text/image_url parts.
func (m ChatMessage) MarshalJSON() ([]byte, error) {
	if m.IsPlain() {
		return json.Marshal(wireMessage{Role: m.Role, Content: m.Text})
	}
	parts := make([]wirePart, 0, len(m.Parts))
	for _, p := range m.Parts {
		switch x := p.(type) {
		case TextPart:
			text := x.Text
			parts = append(parts, wirePart{Type: "text", Text: &text})
		case MediaPart:
			parts = append(parts, wirePart{Type: "image_url", ImageURL: &wireImageURL{URL: x.URL}})
		default:
			return nil, fmt.Errorf("fieldchat: unsupported content part %T", p)
		}
	}
	return json.Marshal(wireMessage{Role: m.Role, Content: parts})
}

// UnmarshalJSON decodes the wire shape produced by MarshalJSON.
func (m *ChatMessage) UnmarshalJSON(data []byte) error {
	var raw struct {
		Role    Role            `json:"role"`
		Content json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	m.Role = raw.Role
	m.Text = ""
	m.Parts = nil
	var text string
	if err := json.Unmarshal(raw.Content, &text); err == nil {
		m.Text = text
		return nil
	}
	var parts []wirePart
	if err := json.Unmarshal(raw.Content, &parts); err != nil {
		return fmt.Errorf("fieldchat: message content: %w", err)
	}
	m.Parts = make([]ContentPart, 0, len(parts))
	for _, p := range parts {
		switch p.Type {
		case "text":
			var t string
			if p.Text != nil {
				t = *p.Text
			}
			m.Parts = append(m.Parts, TextPart{Text: t})
		case "image_url":
			if p.ImageURL == nil {
				return fmt.Errorf("fieldchat: image_url part without url")
			}
			m.Parts = append(m.Parts, MediaPart{URL: p.ImageURL.URL})
		default:
			return fmt.Errorf("fieldchat: unsupported content part type %q", p.Type)
		}
	}
	return nil
}
