package access

import (
	"github.com/yndnr/varmesh-go/internal/core/domain"
	"github.com/yndnr/varmesh-go/pkg/cmap"
)

// Registry holds the exposed entries keyed by external name. It is safe for
// concurrent use; entries are expected to be installed at startup and looked
// up for the lifetime of the process.
type Registry struct {
	entries *cmap.Map[Entry]
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: cmap.New[Entry]()}
}

// Expose installs an entry under name. Exposing the same name twice is a
// wiring bug and fails with AlreadyRegisteredError.
func (r *Registry) Expose(name string, e Entry) error {
	if !r.entries.SetIfAbsent(name, e) {
		return domain.ErrAlreadyRegistered.WithDetails(name)
	}
	return nil
}

// MustExpose is Expose for static wiring done at startup, where a duplicate
// name cannot be handled and should stop the program.
func (r *Registry) MustExpose(name string, e Entry) {
	if err := r.Expose(name, e); err != nil {
		panic(err)
	}
}

// Lookup returns the entry for name.
func (r *Registry) Lookup(name string) (Entry, bool) {
	return r.entries.Get(name)
}

// Remove deletes the entry for name, if any.
func (r *Registry) Remove(name string) {
	r.entries.Delete(name)
}

// Names returns the exposed names in no particular order.
func (r *Registry) Names() []string {
	return r.entries.Keys()
}

// Len returns the number of exposed entries.
func (r *Registry) Len() int {
	return r.entries.Count()
}
