package fileregistry

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"sync"

	"github.com/skosovsky/fieldchat"
	"github.com/skosovsky/fieldchat/manifest"
)

var _ fieldchat.TaskRegistry = (*Registry)(nil)

var defaultExtensions = []string{".yaml", ".yml"}

// Registry loads tasks from YAML manifests in a directory (lazy, cached).
type Registry struct {
	dir        string
	extensions []string
	mu         sync.RWMutex
	cache      map[string]*fieldchat.Task
}

// Option configures a Registry.
type Option func(*Registry)

// WithExtensions replaces the manifest extensions tried in order (default ".yaml", ".yml").
func WithExtensions(exts ...string) Option {
	return func(r *Registry) {
		if len(exts) > 0 {
			r.extensions = slices.Clone(exts)
		}
	}
}

// New creates a Registry that reads manifests from dir.
func New(dir string, opts ...Option) *Registry {
	r := &Registry{
		dir:        dir,
		extensions: defaultExtensions,
		cache:      make(map[string]*fieldchat.Task),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// candidates lists manifest paths for (name, env) in resolution order.
func (r *Registry) candidates(name, env string) []string {
	stems := []string{name}
	if env != "" {
		stems = []string{name + "." + env, name}
	}
	paths := make([]string, 0, len(stems)*len(r.extensions))
	for _, stem := range stems {
		for _, ext := range r.extensions {
			paths = append(paths, filepath.Join(r.dir, stem+ext))
		}
	}
	return paths
}

// GetTask returns a clone of the task for name and env, loading it on first use.
func (r *Registry) GetTask(ctx context.Context, name, env string) (*fieldchat.Task, error) {
	if err := fieldchat.ValidateName(name, env); err != nil {
		return nil, err
	}
	key := name + ":" + env
	r.mu.RLock()
	task, ok := r.cache[key]
	r.mu.RUnlock()
	if ok {
		return fieldchat.CloneTask(task), nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if task, ok = r.cache[key]; ok {
		return fieldchat.CloneTask(task), nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, path := range r.candidates(name, env) {
		task, err := manifest.ParseFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("fileregistry: %s: %w", filepath.Base(path), err)
		}
		task.Metadata.Environment = env
		r.cache[key] = task
		return fieldchat.CloneTask(task), nil
	}
	return nil, fmt.Errorf("%w: %q", fieldchat.ErrTaskNotFound, name)
}

// Reload drops all cached tasks so the next GetTask re-reads the files.
func (r *Registry) Reload() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.cache)
}
