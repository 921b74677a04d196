// Package fileregistry provides a filesystem-based task registry that loads YAML task
// manifests on demand and caches them. GetTask resolves (name, env) to
// {dir}/{name}.{env}.yaml, falling back to {dir}/{name}.yaml.
package fileregistry
