package git

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/chainguard-dev/clog"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"

	"github.com/skosovsky/fieldchat"
	"github.com/skosovsky/fieldchat/remoteregistry"
)

var (
	_ remoteregistry.Fetcher = (*Fetcher)(nil)
	_ remoteregistry.Lister  = (*Fetcher)(nil)
)

// Fetcher reads task manifests from a Git working tree. Safe for concurrent use.
type Fetcher struct {
	repoURL   string
	branch    string
	dir       string
	depth     int
	authToken string

	mu       sync.Mutex
	localDir string
	repo     *git.Repository
}

// NewFetcher creates a Fetcher for repoURL. Nothing is cloned until the first Fetch.
func NewFetcher(repoURL string, opts ...Option) (*Fetcher, error) {
	if strings.TrimSpace(repoURL) == "" {
		return nil, errors.New("remoteregistry/git: repo URL must not be empty")
	}
	g := &Fetcher{
		repoURL: repoURL,
		branch:  "main",
		depth:   1,
	}
	for _, opt := range opts {
		opt(g)
	}
	if strings.TrimSpace(g.branch) == "" {
		return nil, errors.New("remoteregistry/git: branch must not be empty")
	}
	if !filepath.IsLocal(filepath.FromSlash(g.dir)) && g.dir != "" {
		return nil, fmt.Errorf("remoteregistry/git: dir %q must be a relative path inside the repo", g.dir)
	}
	return g, nil
}

// Fetch implements remoteregistry.Fetcher, trying remoteregistry.CandidatePaths in order.
func (g *Fetcher) Fetch(ctx context.Context, name, env string) ([]byte, error) {
	if err := fieldchat.ValidateName(name, env); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.sync(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", remoteregistry.ErrFetchFailed, err)
	}
	root := filepath.Join(g.localDir, filepath.FromSlash(g.dir))
	for _, file := range remoteregistry.CandidatePaths(name, env) {
		data, err := os.ReadFile(filepath.Join(root, file)) // #nosec G304 -- file is built from a validated name
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %w", remoteregistry.ErrFetchFailed, file, err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("%w: %q", remoteregistry.ErrNotFound, name)
}

// ListNames implements remoteregistry.Lister: the distinct base names of manifests in the
// configured directory, sorted.
func (g *Fetcher) ListNames(ctx context.Context) ([]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.sync(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", remoteregistry.ErrFetchFailed, err)
	}
	entries, err := os.ReadDir(filepath.Join(g.localDir, filepath.FromSlash(g.dir)))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", remoteregistry.ErrFetchFailed, err)
	}
	var names []string
	for _, e := range entries {
		ext := filepath.Ext(e.Name())
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		name, _, _ := strings.Cut(strings.TrimSuffix(e.Name(), ext), ".")
		if !slices.Contains(names, name) {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names, nil
}

func (g *Fetcher) auth() transport.AuthMethod {
	if g.authToken == "" {
		return nil
	}
	return &http.BasicAuth{Username: "x-access-token", Password: g.authToken}
}

// sync clones on first use and pulls afterwards. A failed pull keeps the existing tree.
func (g *Fetcher) sync(ctx context.Context) error {
	if g.repo != nil {
		wt, err := g.repo.Worktree()
		if err != nil {
			return fmt.Errorf("worktree: %w", err)
		}
		err = wt.PullContext(ctx, &git.PullOptions{
			ReferenceName: plumbing.NewBranchReferenceName(g.branch),
			SingleBranch:  true,
			Auth:          g.auth(),
		})
		if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
			clog.FromContext(ctx).With("repo", g.repoURL).
				With("error", err.Error()).
				Warn("Git pull failed, reading tasks from existing clone")
		}
		return nil
	}
	dir, err := os.MkdirTemp("", "fieldchat-git-*")
	if err != nil {
		return fmt.Errorf("temp dir: %w", err)
	}
	opts := &git.CloneOptions{
		URL:           g.repoURL,
		ReferenceName: plumbing.NewBranchReferenceName(g.branch),
		SingleBranch:  true,
		Auth:          g.auth(),
	}
	if g.depth > 0 {
		opts.Depth = g.depth
	}
	repo, err := git.PlainCloneContext(ctx, dir, false, opts)
	if err != nil {
		_ = os.RemoveAll(dir)
		return fmt.Errorf("clone: %w", err)
	}
	g.localDir = dir
	g.repo = repo
	return nil
}

// Close removes the local clone. Safe to call multiple times.
func (g *Fetcher) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.localDir == "" {
		return nil
	}
	dir := g.localDir
	g.localDir = ""
	g.repo = nil
	return os.RemoveAll(dir)
}
