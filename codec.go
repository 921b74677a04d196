package fieldchat

import (
	"context"
	"strings"
)

// FieldHeader returns the marker line that opens a field's section: "[[[ ### name ### ]]]".
func FieldHeader(name string) string {
	return "[[[ ### " + name + " ### ]]]"
}

// fieldBlock is one rendered (name, value) pair of a marked text block.
type fieldBlock struct {
	name  string
	value string
}

// formatFields joins blocks as "marker\nvalue" separated by a blank line, trimmed.
func formatFields(blocks []fieldBlock) string {
	var b strings.Builder
	for i, fb := range blocks {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(FieldHeader(fb.name))
		b.WriteByte('\n')
		b.WriteString(fb.value)
	}
	return strings.TrimSpace(b.String())
}

// isRationaleField reports whether name follows the optional-reasoning naming convention.
func isRationaleField(name string) bool {
	return strings.Contains(name, "rationale")
}

// renderTurn encodes fields against values as one chat turn: media parts in field order
// followed by exactly one TextPart holding the marked text block (possibly empty).
// Absent text fields render with an empty value, except rationale fields which are skipped.
func renderTurn(ctx context.Context, fields []Field, values Values, enc MediaEncoder) ([]ContentPart, error) {
	var blocks []fieldBlock
	var parts []ContentPart
	for _, f := range fields {
		v, present := values[f.Name]
		switch f.Spec.Kind {
		case KindMedia:
			if isZeroValue(v) {
				continue
			}
			uri, err := enc.EncodeMedia(ctx, v)
			if err != nil {
				return nil, &MediaError{Field: f.Name, Err: err}
			}
			if uri == "" {
				return nil, &MediaError{Field: f.Name, Err: errEmptyMediaURI}
			}
			parts = append(parts, MediaPart{URL: uri})
		default:
			if isRationaleField(f.Name) && !present {
				continue
			}
			blocks = append(blocks, fieldBlock{name: f.Name, value: renderValue(v)})
		}
	}
	return append(parts, TextPart{Text: formatFields(blocks)}), nil
}
