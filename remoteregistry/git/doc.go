// Package git provides a remoteregistry.Fetcher that reads task manifests from a Git
// repository. The repository is cloned on first use into a temporary directory and pulled on
// later fetches; Close removes the clone.
package git
