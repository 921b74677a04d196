// Package manifest loads fieldchat tasks from YAML manifests: a signature (inputs, outputs,
// instructions), demonstrations and default model parameters.
package manifest

import (
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/skosovsky/fieldchat"
)

// fileManifest is the YAML manifest shape.
type fileManifest struct {
	ID           string                  `yaml:"id"`
	Version      string                  `yaml:"version"`
	Description  string                  `yaml:"description"`
	Metadata     struct{ Tags []string } `yaml:"metadata"`
	Instructions string                  `yaml:"instructions"`
	Inputs       []fieldEntry            `yaml:"inputs"`
	Outputs      []fieldEntry            `yaml:"outputs"`
	Demos        []map[string]any        `yaml:"demos"`
	ModelConfig  map[string]any          `yaml:"model_config"`
}

type fieldEntry struct {
	Name string `yaml:"name"`
	Desc string `yaml:"desc"`
	Type string `yaml:"type"`
	Kind string `yaml:"kind"`
}

// ParseBytes parses a YAML manifest and returns a Task.
func ParseBytes(data []byte) (*fieldchat.Task, error) {
	var m fileManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %w", fieldchat.ErrInvalidManifest, err)
	}
	return buildTask(&m)
}

// ParseFile reads and parses a manifest file.
func ParseFile(path string) (*fieldchat.Task, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is validated by caller
	if err != nil {
		return nil, fmt.Errorf("manifest: read file: %w", err)
	}
	return ParseBytes(data)
}

// ParseFS reads and parses a manifest from fs.FS (e.g. embed.FS).
func ParseFS(fsys fs.FS, name string) (*fieldchat.Task, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("manifest: read fs: %w", err)
	}
	return ParseBytes(data)
}

func buildTask(m *fileManifest) (*fieldchat.Task, error) {
	if m.ID == "" {
		return nil, fmt.Errorf("%w: missing id", fieldchat.ErrInvalidManifest)
	}
	if len(m.Outputs) == 0 {
		return nil, fmt.Errorf("%w: missing outputs", fieldchat.ErrInvalidManifest)
	}
	inputs, err := toFields("inputs", m.Inputs)
	if err != nil {
		return nil, err
	}
	outputs, err := toFields("outputs", m.Outputs)
	if err != nil {
		return nil, err
	}
	sig, err := fieldchat.NewSignature(inputs, outputs, m.Instructions)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", fieldchat.ErrInvalidManifest, err)
	}
	var demos []fieldchat.Values
	if len(m.Demos) > 0 {
		demos = make([]fieldchat.Values, len(m.Demos))
		for i, d := range m.Demos {
			demos[i] = fieldchat.Values(d)
		}
	}
	return &fieldchat.Task{
		Metadata: fieldchat.TaskMetadata{
			ID:          m.ID,
			Version:     m.Version,
			Description: m.Description,
			Tags:        m.Metadata.Tags,
		},
		Signature:   sig,
		Demos:       demos,
		ModelConfig: m.ModelConfig,
	}, nil
}

func toFields(section string, entries []fieldEntry) ([]fieldchat.Field, error) {
	out := make([]fieldchat.Field, 0, len(entries))
	for i, e := range entries {
		var kind fieldchat.FieldKind
		switch e.Kind {
		case "", "text":
			kind = fieldchat.KindText
		case "media", "image":
			kind = fieldchat.KindMedia
		default:
			return nil, fmt.Errorf("%w: %s[%d]: invalid kind %q", fieldchat.ErrInvalidManifest, section, i, e.Kind)
		}
		out = append(out, fieldchat.Field{
			Name: e.Name,
			Spec: fieldchat.FieldSpec{Kind: kind, Type: e.Type, Description: e.Desc},
		})
	}
	return out, nil
}
