package fieldchat

import (
	"fmt"
	"regexp"
	"slices"
)

// FieldKind selects how a field value is encoded into a chat turn.
type FieldKind int

const (
	// KindText fields are written into the marked text block.
	KindText FieldKind = iota
	// KindMedia fields are embedded as separate media content parts.
	KindMedia
)

// String returns the kind name used in manifests ("text", "media").
func (k FieldKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindMedia:
		return "media"
	default:
		return fmt.Sprintf("FieldKind(%d)", int(k))
	}
}

// FieldSpec describes a single field. Type is the display name used in instructions;
// when empty it defaults to "str" for text and "Image" for media.
type FieldSpec struct {
	Kind        FieldKind
	Type        string
	Description string
}

// Field is a named FieldSpec. Signatures keep fields as ordered slices, so declaration order is preserved.
type Field struct {
	Name string
	Spec FieldSpec
}

// TextField is shorthand for a text field with the given description.
func TextField(name, description string) Field {
	return Field{Name: name, Spec: FieldSpec{Kind: KindText, Description: description}}
}

// MediaField is shorthand for a media field with the given description.
func MediaField(name, description string) Field {
	return Field{Name: name, Spec: FieldSpec{Kind: KindMedia, Description: description}}
}

// typeName returns the display type for instructions.
func (f Field) typeName() string {
	if f.Spec.Type != "" {
		return f.Spec.Type
	}
	if f.Spec.Kind == KindMedia {
		return "Image"
	}
	return "str"
}

// Signature is an ordered, typed description of inputs and outputs plus a free-text objective.
// Construct with NewSignature; a Signature must not be mutated after construction, which makes
// it safe to share across concurrent exchanges.
type Signature struct {
	InputFields  []Field
	OutputFields []Field
	Instructions string
}

var fieldNameRe = regexp.MustCompile(`^\w+$`)

// completedField is the synthetic trailing marker appended to every demo answer.
const completedField = "completed"

// NewSignature validates field names and returns a Signature holding its own copies of the field slices.
// Names must match \w+ and be unique across inputs and outputs. Empty descriptions
// default to the placeholder "${name}".
func NewSignature(inputs, outputs []Field, instructions string) (*Signature, error) {
	seen := make(map[string]bool, len(inputs)+len(outputs))
	check := func(fields []Field) ([]Field, error) {
		out := slices.Clone(fields)
		for i, f := range out {
			if !fieldNameRe.MatchString(f.Name) {
				return nil, fmt.Errorf("%w: field name %q must match \\w+", ErrInvalidSignature, f.Name)
			}
			if seen[f.Name] {
				return nil, fmt.Errorf("%w: duplicate field %q", ErrInvalidSignature, f.Name)
			}
			if f.Spec.Kind != KindText && f.Spec.Kind != KindMedia {
				return nil, fmt.Errorf("%w: field %q has unknown kind %v", ErrInvalidSignature, f.Name, f.Spec.Kind)
			}
			seen[f.Name] = true
			if f.Spec.Description == "" {
				out[i].Spec.Description = placeholderDescription(f.Name)
			}
		}
		return out, nil
	}
	in, err := check(inputs)
	if err != nil {
		return nil, err
	}
	out, err := check(outputs)
	if err != nil {
		return nil, err
	}
	for _, f := range out {
		if f.Name == completedField {
			return nil, fmt.Errorf("%w: output field name %q is reserved", ErrInvalidSignature, completedField)
		}
	}
	return &Signature{InputFields: in, OutputFields: out, Instructions: instructions}, nil
}

// MustSignature is like NewSignature but panics on error. Intended for package-level declarations and tests.
func MustSignature(inputs, outputs []Field, instructions string) *Signature {
	sig, err := NewSignature(inputs, outputs, instructions)
	if err != nil {
		panic(err)
	}
	return sig
}

func placeholderDescription(name string) string {
	return "${" + name + "}"
}

// InputNames returns input field names in declaration order.
func (s *Signature) InputNames() []string { return fieldNames(s.InputFields) }

// OutputNames returns output field names in declaration order.
func (s *Signature) OutputNames() []string { return fieldNames(s.OutputFields) }

// HasOutput reports whether name is a declared output field.
func (s *Signature) HasOutput(name string) bool {
	_, ok := s.Output(name)
	return ok
}

// Output returns the declared output field with the given name.
func (s *Signature) Output(name string) (Field, bool) {
	for _, f := range s.OutputFields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// CloneSignature returns a deep copy of s.
func CloneSignature(s *Signature) *Signature {
	if s == nil {
		return nil
	}
	return &Signature{
		InputFields:  slices.Clone(s.InputFields),
		OutputFields: slices.Clone(s.OutputFields),
		Instructions: s.Instructions,
	}
}

func fieldNames(fields []Field) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.Name
	}
	return out
}
