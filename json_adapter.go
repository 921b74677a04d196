package fieldchat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"maps"
	"slices"
	"strings"
)

var errNoJSONObject = errors.New("no JSON object found in completion")

// JSONAdapter is the stricter fallback encoding: inputs keep the marker format, while
// outputs are requested and parsed as a single JSON object keyed by output field names.
type JSONAdapter struct {
	media MediaEncoder
}

// NewJSONAdapter returns a JSONAdapter. It accepts the same options as NewChatAdapter.
func NewJSONAdapter(opts ...ChatAdapterOption) *JSONAdapter {
	c := NewChatAdapter(opts...)
	return &JSONAdapter{media: c.media}
}

// Name implements Adapter.
func (a *JSONAdapter) Name() string { return "json" }

func (a *JSONAdapter) encoder() MediaEncoder {
	if a == nil || a.media == nil {
		return DataURIEncoder{}
	}
	return a.media
}

// Format renders the same turn structure as ChatAdapter, with demo answers as JSON objects
// and a closing reminder of the expected JSON keys on the final user turn.
func (a *JSONAdapter) Format(ctx context.Context, sig *Signature, demos []Values, inputs Values) ([]ChatMessage, error) {
	if sig == nil {
		return nil, ErrNilSignature
	}
	enc := a.encoder()
	messages := make([]ChatMessage, 0, 2+2*len(demos))
	messages = append(messages, ChatMessage{Role: RoleSystem, Text: buildJSONInstructions(sig)})
	for _, demo := range demos {
		user, err := renderTurn(ctx, sig.InputFields, demo, enc)
		if err != nil {
			return nil, err
		}
		answer, err := jsonObject(sig.OutputFields, demo)
		if err != nil {
			return nil, err
		}
		messages = append(messages,
			ChatMessage{Role: RoleUser, Parts: user},
			ChatMessage{Role: RoleAssistant, Parts: []ContentPart{TextPart{Text: answer}}},
		)
	}
	final, err := renderTurn(ctx, sig.InputFields, inputs, enc)
	if err != nil {
		return nil, err
	}
	last := len(final) - 1
	text := final[last].(TextPart).Text
	final[last] = TextPart{Text: strings.TrimSpace(text + "\n\n" + jsonReminder(sig))}
	return append(messages, ChatMessage{Role: RoleUser, Parts: final}), nil
}

// Parse decodes the first JSON object in completion, trying each '{' in turn. Markdown fences and surrounding prose
// are tolerated. String values are returned verbatim; other JSON values as compact JSON text.
func (a *JSONAdapter) Parse(sig *Signature, completion string) (ParsedFields, error) {
	if sig == nil {
		return nil, ErrNilSignature
	}
	mismatch := func(actual []string, err error) *MismatchError {
		return &MismatchError{
			Adapter:  a.Name(),
			Expected: sig.OutputNames(),
			Actual:   actual,
			Raw:      completion,
			Err:      err,
		}
	}
	obj, err := firstJSONObject(completion)
	if err != nil {
		return nil, mismatch(nil, err)
	}
	keys := slices.Sorted(maps.Keys(obj))
	if len(obj) != len(sig.OutputFields) {
		return nil, mismatch(keys, nil)
	}
	fields := make(ParsedFields, len(obj))
	for _, f := range sig.OutputFields {
		raw, ok := obj[f.Name]
		if !ok {
			return nil, mismatch(keys, nil)
		}
		fields[f.Name] = jsonText(raw)
	}
	return fields, nil
}

// firstJSONObject returns the object decoded at the earliest '{' that starts a valid one.
// When every candidate fails, the first decode error is returned.
func firstJSONObject(completion string) (map[string]json.RawMessage, error) {
	var firstErr error
	for i := range len(completion) {
		if completion[i] != '{' {
			continue
		}
		var obj map[string]json.RawMessage
		err := json.NewDecoder(strings.NewReader(completion[i:])).Decode(&obj)
		if err == nil {
			return obj, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	if firstErr == nil {
		return nil, errNoJSONObject
	}
	return nil, firstErr
}

func jsonText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

// jsonObject renders fields as a JSON object in signature order. Absent fields are skipped.
func jsonObject(fields []Field, values Values) (string, error) {
	var b strings.Builder
	b.WriteString("{")
	n := 0
	for _, f := range fields {
		v, ok := values[f.Name]
		if !ok {
			continue
		}
		key, err := json.Marshal(f.Name)
		if err != nil {
			return "", err
		}
		val, err := json.Marshal(renderValue(v))
		if err != nil {
			return "", err
		}
		if n > 0 {
			b.WriteString(",")
		}
		b.WriteString("\n  ")
		b.Write(key)
		b.WriteString(": ")
		b.Write(val)
		n++
	}
	if n > 0 {
		b.WriteString("\n")
	}
	b.WriteString("}")
	return b.String(), nil
}

func buildJSONInstructions(sig *Signature) string {
	placeholders := make(Values, len(sig.OutputFields))
	for _, f := range sig.OutputFields {
		placeholders[f.Name] = "{" + f.Name + "}"
	}
	schema, _ := jsonObject(sig.OutputFields, placeholders)

	var objective strings.Builder
	for _, line := range splitLines(sig.Instructions) {
		objective.WriteString("\n" + objectiveIndent + line)
	}
	parts := []string{
		"Your input fields are:\n" + enumerateFields(sig.InputFields),
		"Your output fields are:\n" + enumerateFields(sig.OutputFields),
		"All interactions will be structured in the following way, with the appropriate values filled in.",
		"Inputs will have the following structure:\n\n" + formatFields(placeholderBlocks(sig.InputFields)),
		"Outputs will be a JSON object with the following fields.\n\n" + schema,
		"In adhering to this structure, your objective is: " + objective.String(),
	}
	return strings.TrimSpace(strings.Join(parts, "\n\n"))
}

func jsonReminder(sig *Signature) string {
	quoted := make([]string, len(sig.OutputFields))
	for i, f := range sig.OutputFields {
		quoted[i] = "`" + f.Name + "`"
	}
	return "Respond with a JSON object in the following order of fields: " + strings.Join(quoted, ", then ") + "."
}

var _ Adapter = (*JSONAdapter)(nil)
