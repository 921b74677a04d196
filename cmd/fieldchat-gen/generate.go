package main

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode"

	"github.com/dave/jennifer/jen"

	"github.com/skosovsky/fieldchat"
	"github.com/skosovsky/fieldchat/manifest"
)

const fieldchatPath = "github.com/skosovsky/fieldchat"

var errDuplicateTask = errors.New("fieldchat-gen: duplicate task id")

var initialisms = map[string]string{
	"api": "API", "html": "HTML", "http": "HTTP", "id": "ID", "json": "JSON",
	"qa": "QA", "sql": "SQL", "uri": "URI", "url": "URL",
}

// collectTasks loads a single manifest, or every base manifest under a directory.
func collectTasks(path string) ([]*fieldchat.Task, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		t, err := manifest.ParseFile(path)
		if err != nil {
			return nil, err
		}
		return []*fieldchat.Task{t}, nil
	}
	var tasks []*fieldchat.Task
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		ext := filepath.Ext(p)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if strings.Contains(strings.TrimSuffix(d.Name(), ext), ".") {
			return nil
		}
		t, err := manifest.ParseFile(p)
		if err != nil {
			return err
		}
		tasks = append(tasks, t)
		return nil
	})
	return tasks, err
}

// Generate renders bindings for tasks, sorted by task ID.
func Generate(pkg string, tasks []*fieldchat.Task) ([]byte, error) {
	sorted := slices.Clone(tasks)
	slices.SortFunc(sorted, func(a, b *fieldchat.Task) int { return strings.Compare(a.Metadata.ID, b.Metadata.ID) })

	f := jen.NewFile(pkg)
	f.HeaderComment("Code generated by fieldchat-gen. DO NOT EDIT.")
	for i, t := range sorted {
		if i > 0 && sorted[i-1].Metadata.ID == t.Metadata.ID {
			return nil, fmt.Errorf("%w: %q", errDuplicateTask, t.Metadata.ID)
		}
		genTask(f, t)
	}
	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return nil, fmt.Errorf("fieldchat-gen: render: %w", err)
	}
	return buf.Bytes(), nil
}

func genTask(f *jen.File, t *fieldchat.Task) {
	name := goIdent(t.Metadata.ID)
	inputs, outputs := name+"Inputs", name+"Outputs"
	sig := t.Signature

	f.Commentf("%sTaskID is the manifest id of the %s task.", name, t.Metadata.ID)
	f.Const().Id(name + "TaskID").Op("=").Lit(t.Metadata.ID)

	inFields := make([]jen.Code, 0, len(sig.InputFields))
	inValues := jen.Dict{}
	for _, fld := range sig.InputFields {
		id := goIdent(fld.Name)
		typ := jen.String()
		if fld.Spec.Kind == fieldchat.KindMedia {
			typ = jen.Id("any")
		}
		field := jen.Id(id).Add(typ).Tag(map[string]string{"field": fld.Name})
		if fld.Spec.Description != "" && !strings.HasPrefix(fld.Spec.Description, "${") {
			field = jen.Comment(fld.Spec.Description).Line().Add(field)
		}
		inFields = append(inFields, field)
		inValues[jen.Lit(fld.Name)] = jen.Id("in").Dot(id)
	}
	f.Commentf("%s holds the input fields of %s.", inputs, t.Metadata.ID)
	f.Type().Id(inputs).Struct(inFields...)

	f.Comment("Values returns the inputs keyed by field name.")
	f.Func().Params(jen.Id("in").Id(inputs)).Id("Values").Params().Qual(fieldchatPath, "Values").Block(
		jen.Return(jen.Qual(fieldchatPath, "Values").Values(inValues)),
	)

	outFields := make([]jen.Code, 0, len(sig.OutputFields))
	outValues := jen.Dict{}
	for _, fld := range sig.OutputFields {
		id := goIdent(fld.Name)
		outFields = append(outFields, jen.Id(id).String())
		outValues[jen.Id(id)] = jen.Id("p").Index(jen.Lit(fld.Name))
	}
	f.Commentf("%s holds the output fields of %s.", outputs, t.Metadata.ID)
	f.Type().Id(outputs).Struct(outFields...)

	f.Commentf("%sFrom copies parsed completion fields into %s.", outputs, outputs)
	f.Func().Id(outputs+"From").Params(jen.Id("p").Qual(fieldchatPath, "ParsedFields")).Id(outputs).Block(
		jen.Return(jen.Id(outputs).Values(outValues)),
	)
}

// goIdent converts a snake, kebab or dotted name to an exported Go identifier.
func goIdent(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	var b strings.Builder
	for _, p := range parts {
		if up, ok := initialisms[strings.ToLower(p)]; ok {
			b.WriteString(up)
			continue
		}
		rs := []rune(p)
		rs[0] = unicode.ToUpper(rs[0])
		b.WriteString(string(rs))
	}
	out := b.String()
	if out == "" || unicode.IsDigit([]rune(out)[0]) {
		out = "T" + out
	}
	return out
}
