package remoteregistry

import "time"

// Option configures a Registry (functional options pattern).
type Option func(*Registry)

// WithTTL sets the cache TTL. Tasks are refetched after this duration.
// Default is 5 minutes. TTL <= 0 means entries never expire.
func WithTTL(d time.Duration) Option {
	return func(r *Registry) {
		r.ttl = d
	}
}

// WithoutStale disables serving an expired task when its refresh fails.
func WithoutStale() Option {
	return func(r *Registry) {
		r.serveStale = false
	}
}
