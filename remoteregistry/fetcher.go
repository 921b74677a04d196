package remoteregistry

import "context"

// Fetcher returns raw YAML manifest bytes for a task name and optional environment.
// Implementations resolve the environment fallback themselves (see CandidatePaths).
//
// Return ErrNotFound when no manifest exists; wrap other failures in ErrFetchFailed.
type Fetcher interface {
	Fetch(ctx context.Context, name, env string) ([]byte, error)
}

// Lister is optional. When the Fetcher implements it, Registry.List uses it.
type Lister interface {
	ListNames(ctx context.Context) ([]string, error)
}

// CandidatePaths returns manifest file names in resolution order:
// {name}.{env}.yaml, {name}.{env}.yml, then {name}.yaml, {name}.yml. With env empty only the
// last two are returned. Call fieldchat.ValidateName first.
func CandidatePaths(name, env string) []string {
	var out []string
	if env != "" {
		out = append(out, name+"."+env+".yaml", name+"."+env+".yml")
	}
	return append(out, name+".yaml", name+".yml")
}
