package fieldchat

import (
	"fmt"
	"strings"
)

// objectiveIndent prefixes every line of the objective in the instructions.
const objectiveIndent = "        "

// BuildInstructions renders the system message for sig. The output is a pure function of
// the signature, so identical signatures always yield byte-identical instructions.
func BuildInstructions(sig *Signature) string {
	parts := []string{
		"Your input fields are:\n" + enumerateFields(sig.InputFields),
		"Your output fields are:\n" + enumerateFields(sig.OutputFields),
		"All interactions will be structured in the following way, with the appropriate values filled in.",
		formatFields(placeholderBlocks(sig.InputFields)),
		formatFields(placeholderBlocks(sig.OutputFields)),
		formatFields([]fieldBlock{{name: completedField}}),
	}

	var objective strings.Builder
	for _, line := range splitLines(sig.Instructions) {
		objective.WriteString("\n" + objectiveIndent + line)
	}
	parts = append(parts, "In adhering to this structure, your objective is: "+objective.String())

	quoted := make([]string, len(sig.OutputFields))
	for i, f := range sig.OutputFields {
		quoted[i] = "`" + f.Name + "`"
	}
	parts = append(parts, "You will receive some input fields in each interaction. "+
		"Respond only with the corresponding output fields, starting with the field "+
		strings.Join(quoted, ", then ")+
		", and then ending with the marker for `completed`.")

	return strings.TrimSpace(strings.Join(parts, "\n\n"))
}

// enumerateFields renders "1. `name` (type): description", omitting placeholder descriptions.
func enumerateFields(fields []Field) string {
	lines := make([]string, len(fields))
	for i, f := range fields {
		line := fmt.Sprintf("%d. `%s` (%s)", i+1, f.Name, f.typeName())
		if desc := f.Spec.Description; desc != "" && desc != placeholderDescription(f.Name) {
			line += ": " + desc
		}
		lines[i] = line
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func placeholderBlocks(fields []Field) []fieldBlock {
	out := make([]fieldBlock, len(fields))
	for i, f := range fields {
		out[i] = fieldBlock{name: f.Name, value: "{" + f.Name + "}"}
	}
	return out
}

// splitLines splits on \n, \r\n and \r without yielding a trailing empty line.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}
