// Package snapshot provides persistence sinks for variable store snapshots.
//
// A snapshot is the JSON materialization of the whole store at one
// transactional instant. Sinks only move bytes; what the bytes mean is
// decided by the store.
package snapshot

// Sink persists and recalls the latest snapshot payload.
type Sink interface {
	// Load returns the last stored payload. The boolean reports whether
	// a payload exists; a missing payload is not an error.
	Load() ([]byte, bool, error)

	// Store replaces the persisted payload wholesale. The replacement
	// must be atomic: a crash mid-store leaves either the old or the
	// new payload readable, never a torn mix.
	Store(data []byte) error

	// Close releases any resources held by the sink.
	Close() error
}
