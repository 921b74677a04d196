// Package remoteregistry provides a task registry that loads YAML task manifests through a
// Fetcher (HTTPFetcher is included). Parsed tasks are cached with a TTL, concurrent misses
// for the same task share one fetch, and an expired entry keeps being served when a refresh
// fails so a flaky manifest server does not take exchanges down with it.
package remoteregistry
