// Command fieldchat-gen generates typed Go bindings for task manifests: an Inputs struct
// with `field` tags (usable with fieldchat.ValuesFromStruct), an Outputs struct and a
// constructor from fieldchat.ParsedFields.
//
// Usage:
//
//	fieldchat-gen -in ./tasks -pkg tasks -out tasks_gen.go
//
// Environment overrides (name.env.yaml) share the base task's bindings and are skipped.
package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/chainguard-dev/clog"
)

func main() {
	in := flag.String("in", ".", "manifest file or directory")
	out := flag.String("out", "-", "output file, - for stdout")
	pkg := flag.String("pkg", "tasks", "package name of the generated file")
	flag.Parse()

	logger := clog.New(slog.NewTextHandler(os.Stderr, nil))
	if err := run(*in, *out, *pkg); err != nil {
		logger.With("in", *in).With("error", err).Error("Generating task bindings failed")
		os.Exit(1)
	}
}

func run(in, out, pkg string) error {
	tasks, err := collectTasks(in)
	if err != nil {
		return err
	}
	src, err := Generate(pkg, tasks)
	if err != nil {
		return err
	}
	if out == "-" {
		_, err = os.Stdout.Write(src)
		return err
	}
	return os.WriteFile(out, src, 0o644)
}
