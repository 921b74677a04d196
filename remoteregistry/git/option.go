package git

// Option configures Fetcher.
type Option func(*Fetcher)

// WithBranch sets the branch to clone. Default is "main".
func WithBranch(branch string) Option {
	return func(g *Fetcher) {
		g.branch = branch
	}
}

// WithDir sets the subdirectory holding task manifests (e.g. "tasks"). Default is the repo root.
func WithDir(dir string) Option {
	return func(g *Fetcher) {
		g.dir = dir
	}
}

// WithDepth sets the clone depth. Default is 1 (shallow); 0 clones full history.
func WithDepth(depth int) Option {
	return func(g *Fetcher) {
		g.depth = depth
	}
}

// WithAuth sets an HTTPS access token, sent as basic auth user "x-access-token".
func WithAuth(token string) Option {
	return func(g *Fetcher) {
		g.authToken = token
	}
}
