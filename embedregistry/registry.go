package embedregistry

import (
	"context"
	"fmt"
	"io/fs"
	"maps"
	"path"
	"slices"
	"strings"

	"github.com/skosovsky/fieldchat"
	"github.com/skosovsky/fieldchat/manifest"
)

var _ fieldchat.TaskRegistry = (*Registry)(nil)

// Registry serves tasks parsed eagerly from an fs.FS. It is immutable after New.
type Registry struct {
	tasks map[string]*fieldchat.Task // key "name:env"; env empty for base files
}

// New walks fsys under root and parses every .yaml/.yml file. Any invalid manifest or file
// name fails construction, so broken embedded tasks surface at startup.
func New(fsys fs.FS, root string) (*Registry, error) {
	r := &Registry{tasks: make(map[string]*fieldchat.Task)}
	err := fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := path.Ext(p)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		name, env, _ := strings.Cut(strings.TrimSuffix(path.Base(p), ext), ".")
		if err := fieldchat.ValidateName(name, env); err != nil {
			return fmt.Errorf("embedregistry: %s: %w", p, err)
		}
		task, err := manifest.ParseFS(fsys, p)
		if err != nil {
			return fmt.Errorf("embedregistry: %s: %w", p, err)
		}
		r.tasks[name+":"+env] = task
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// GetTask returns a clone of the task for name and env, falling back to the base file.
func (r *Registry) GetTask(ctx context.Context, name, env string) (*fieldchat.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	task, ok := r.tasks[name+":"+env]
	if !ok {
		task, ok = r.tasks[name+":"]
	}
	if !ok {
		return nil, fmt.Errorf("%w: %q", fieldchat.ErrTaskNotFound, name)
	}
	out := fieldchat.CloneTask(task)
	out.Metadata.Environment = env
	return out, nil
}

// Names returns the distinct task names in the registry, sorted.
func (r *Registry) Names() []string {
	set := make(map[string]struct{}, len(r.tasks))
	for key := range r.tasks {
		name, _, _ := strings.Cut(key, ":")
		set[name] = struct{}{}
	}
	return slices.Sorted(maps.Keys(set))
}
