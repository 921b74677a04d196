package remoteregistry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chainguard-dev/clog"
	"golang.org/x/sync/singleflight"

	"github.com/skosovsky/fieldchat"
	"github.com/skosovsky/fieldchat/manifest"
)

const defaultTTL = 5 * time.Minute

var _ fieldchat.TaskRegistry = (*Registry)(nil)

// detachCancel returns a context that outlives parent's cancellation but keeps its deadline,
// so a fetch shared through singleflight is not aborted by whichever caller gives up first.
func detachCancel(parent context.Context) (context.Context, context.CancelFunc) {
	ctx := context.WithoutCancel(parent)
	if dl, ok := parent.Deadline(); ok {
		return context.WithDeadline(ctx, dl)
	}
	return context.WithCancel(ctx)
}

type cacheEntry struct {
	task      *fieldchat.Task
	expiresAt time.Time // zero means never
}

func (e *cacheEntry) fresh(now time.Time) bool {
	return e.expiresAt.IsZero() || now.Before(e.expiresAt)
}

// Registry loads tasks via a Fetcher and caches them with a TTL. GetTask returns clones.
type Registry struct {
	fetcher    Fetcher
	ttl        time.Duration
	serveStale bool
	now        func() time.Time
	mu         sync.RWMutex
	cache      map[string]*cacheEntry
	sf         singleflight.Group
}

// New creates a Registry over fetcher. Panics if fetcher is nil.
func New(fetcher Fetcher, opts ...Option) *Registry {
	if fetcher == nil {
		panic("remoteregistry: Fetcher must not be nil")
	}
	r := &Registry{
		fetcher:    fetcher,
		ttl:        defaultTTL,
		serveStale: true,
		now:        time.Now,
		cache:      make(map[string]*cacheEntry),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// GetTask returns the task for name and env, fetching on a cache miss or expiry.
func (r *Registry) GetTask(ctx context.Context, name, env string) (*fieldchat.Task, error) {
	if err := fieldchat.ValidateName(name, env); err != nil {
		return nil, err
	}
	key := name + ":" + env

	r.mu.RLock()
	ent, ok := r.cache[key]
	r.mu.RUnlock()
	if ok && ent.fresh(r.now()) {
		return fieldchat.CloneTask(ent.task), nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	v, err, _ := r.sf.Do(key, func() (any, error) {
		fetchCtx, cancel := detachCancel(ctx)
		defer cancel()
		data, err := r.fetcher.Fetch(fetchCtx, name, env)
		if err != nil {
			return nil, err
		}
		task, err := manifest.ParseBytes(data)
		if err != nil {
			return nil, err
		}
		task.Metadata.Environment = env
		r.store(key, task)
		return task, nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: %q: %w", fieldchat.ErrTaskNotFound, name, err)
		}
		if ok && r.serveStale {
			clog.FromContext(ctx).With("task", name).
				With("env", env).
				With("error", err.Error()).
				Warn("Refreshing task failed, serving cached copy")
			return fieldchat.CloneTask(ent.task), nil
		}
		return nil, err
	}
	return fieldchat.CloneTask(v.(*fieldchat.Task)), nil
}

func (r *Registry) store(key string, task *fieldchat.Task) {
	var expiresAt time.Time
	if r.ttl > 0 {
		expiresAt = r.now().Add(r.ttl)
	}
	r.mu.Lock()
	r.cache[key] = &cacheEntry{task: task, expiresAt: expiresAt}
	r.mu.Unlock()
}

// List returns task names from the Fetcher if it implements Lister; otherwise nil, nil.
func (r *Registry) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if lister, ok := r.fetcher.(Lister); ok {
		return lister.ListNames(ctx)
	}
	return nil, nil
}

// Evict removes one cached task. Safe for concurrent use.
func (r *Registry) Evict(name, env string) {
	r.mu.Lock()
	delete(r.cache, name+":"+env)
	r.mu.Unlock()
}

// EvictAll clears the cache. Safe for concurrent use.
func (r *Registry) EvictAll() {
	r.mu.Lock()
	clear(r.cache)
	r.mu.Unlock()
}

// Close calls Close on the Fetcher if it implements io.Closer.
func (r *Registry) Close() error {
	if c, ok := r.fetcher.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
