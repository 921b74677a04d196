package fieldchat

import (
	"context"
	"maps"
	"slices"
)

// TaskMetadata holds observability metadata for a task loaded from a manifest.
type TaskMetadata struct {
	ID          string
	Version     string
	Description string
	Tags        []string
	Environment string // set by registries when loading by env; not from the manifest
}

// Task bundles a signature with its demos and default model parameters.
// Registries return clones, so callers may modify the result freely.
type Task struct {
	Metadata    TaskMetadata
	Signature   *Signature
	Demos       []Values
	ModelConfig map[string]any
}

// TaskRegistry returns tasks by name and environment.
type TaskRegistry interface {
	GetTask(ctx context.Context, name, env string) (*Task, error)
}

// CloneTask returns a copy of t with cloned signature, demos, config and tags.
func CloneTask(t *Task) *Task {
	if t == nil {
		return nil
	}
	out := &Task{
		Metadata:    t.Metadata,
		Signature:   CloneSignature(t.Signature),
		ModelConfig: maps.Clone(t.ModelConfig),
	}
	out.Metadata.Tags = slices.Clone(t.Metadata.Tags)
	if t.Demos != nil {
		out.Demos = make([]Values, len(t.Demos))
		for i, d := range t.Demos {
			out.Demos[i] = maps.Clone(d)
		}
	}
	return out
}

// Run executes task against inputs. params override the task's ModelConfig key by key.
func (c *Client) Run(ctx context.Context, model Model, task *Task, inputs Values, mode ExecutionMode, params map[string]any) ([]ParsedFields, error) {
	if task == nil {
		return nil, ErrNilTask
	}
	merged := maps.Clone(task.ModelConfig)
	if merged == nil {
		merged = make(map[string]any, len(params))
	}
	maps.Copy(merged, params)
	return c.Exchange(ctx, Request{
		Model:     model,
		Params:    merged,
		Signature: task.Signature,
		Demos:     task.Demos,
		Inputs:    inputs,
		Mode:      mode,
	})
}
