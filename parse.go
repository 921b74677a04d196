package fieldchat

import (
	"regexp"
	"strings"
)

// headerRe matches a marker line after surrounding whitespace is trimmed.
var headerRe = regexp.MustCompile(`^\[\[\[ ### (\w+) ### \]\]\]$`)

// Section is one labeled span of a completion. The preamble before the first marker has
// Label == "" and Tagged == false.
type Section struct {
	Label  string
	Tagged bool
	Text   string
}

// ParseSections splits completion into sections at marker lines "[[[ ### name ### ]]]".
// The first section is always the (possibly empty) untagged preamble. Section text is the
// joined lines with surrounding whitespace trimmed; inner blank lines are kept.
func ParseSections(completion string) []Section {
	type acc struct {
		label  string
		tagged bool
		lines  []string
	}
	accs := []acc{{}}
	for _, line := range splitLines(completion) {
		if m := headerRe.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			accs = append(accs, acc{label: m[1], tagged: true})
			continue
		}
		last := &accs[len(accs)-1]
		last.lines = append(last.lines, line)
	}
	out := make([]Section, len(accs))
	for i, a := range accs {
		out[i] = Section{
			Label:  a.label,
			Tagged: a.tagged,
			Text:   strings.TrimSpace(strings.Join(a.lines, "\n")),
		}
	}
	return out
}

// reduceSections keeps the first section for each declared output field and drops the
// preamble, duplicates and undeclared labels. order lists recovered names in completion order.
func reduceSections(sig *Signature, sections []Section) (fields ParsedFields, order []string) {
	fields = make(ParsedFields, len(sig.OutputFields))
	for _, s := range sections {
		if !s.Tagged {
			continue
		}
		if _, dup := fields[s.Label]; dup || !sig.HasOutput(s.Label) {
			continue
		}
		fields[s.Label] = s.Text
		order = append(order, s.Label)
	}
	return fields, order
}
