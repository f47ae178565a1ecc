// Package store implements the hierarchical transactional variable store.
//
// A Root owns a tree of Stores. Each Store level maps names to items:
// persisted JSON blobs recalled from the last snapshot, live variables
// registered by the hosting application, or nested subtree stores. All
// access runs inside transactions created by Root.View / Root.Update;
// a background persister materializes the whole tree periodically and
// once more on close.
package store

import (
	"encoding/json"
	"fmt"

	"github.com/yndnr/varmesh-go/internal/core/domain"
)

// Store is one level of the hierarchical namespace. Keys are unique
// within a level; names inside different subtrees may coincide freely.
// A Store is only safe to touch inside a transaction of its Root.
type Store struct {
	items map[string]item
}

func newStore() *Store {
	return &Store{items: make(map[string]item)}
}

// newStoreFromObject builds a store whose entries are all persisted,
// decoded from a JSON object.
func newStoreFromObject(raw json.RawMessage) (*Store, error) {
	var entries map[string]json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, err
	}
	st := newStore()
	for name, value := range entries {
		st.items[name] = persistedItem(value)
	}
	return st, nil
}

// setItem installs an item under name, recording the previous slot
// state for rollback.
func (s *Store) setItem(tx *Tx, name string, it item) {
	prev, existed := s.items[name]
	tx.onRollback(func() {
		if existed {
			s.items[name] = prev
		} else {
			delete(s.items, name)
		}
	})
	s.items[name] = it
}

// Len returns the number of entries at this level.
func (s *Store) Len(tx *Tx) int {
	_ = tx // access is only legal inside a transaction
	return len(s.items)
}

// Var is a handle to a live variable of type T. The value lives behind
// the Root's transaction lock; Get and Set are only legal inside a
// transaction.
type Var[T any] struct {
	val T
}

// Get returns the current value.
func (v *Var[T]) Get(tx *Tx) T {
	_ = tx
	return v.val
}

// Set replaces the current value. The previous value is restored if the
// transaction aborts.
func (v *Var[T]) Set(tx *Tx, val T) {
	prev := v.val
	tx.onRollback(func() { v.val = prev })
	v.val = val
}

// Register installs a live variable under name.
//
// Resolution: an absent slot is seeded with def. A persisted slot is
// claimed by decoding its blob as T; a blob that does not decode fails
// with a DecodeError naming the key. A slot already live or holding a
// subtree fails with AlreadyRegistered.
func Register[T any](tx *Tx, st *Store, name string, def T) (*Var[T], error) {
	v := &Var[T]{val: def}

	if it, ok := st.items[name]; ok {
		switch it.kind {
		case kindPersisted:
			var decoded T
			if err := json.Unmarshal(it.raw, &decoded); err != nil {
				return nil, domain.ErrDecode.WithDetails(name).WithCause(err)
			}
			v.val = decoded
		default:
			return nil, domain.ErrAlreadyRegistered.WithDetails(name)
		}
	}

	st.setItem(tx, name, liveItem(func(tx *Tx) (json.RawMessage, error) {
		data, err := json.Marshal(v.val)
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", name, err)
		}
		return data, nil
	}))
	return v, nil
}

// RegisterSubtree installs a nested store under name.
//
// Resolution follows Register, with an empty object as the default: a
// persisted slot must hold a JSON object, whose keys become persisted
// entries of the child.
func RegisterSubtree(tx *Tx, st *Store, name string) (*Store, error) {
	child := newStore()

	if it, ok := st.items[name]; ok {
		switch it.kind {
		case kindPersisted:
			decoded, err := newStoreFromObject(it.raw)
			if err != nil {
				return nil, domain.ErrDecode.WithDetails(name).WithCause(err)
			}
			child = decoded
		default:
			return nil, domain.ErrAlreadyRegistered.WithDetails(name)
		}
	}

	st.setItem(tx, name, subtreeItem(child))
	return child, nil
}

// RegisterRaw installs a live entry backed by an arbitrary read action
// instead of a typed variable. The slot must be empty or persisted; a
// persisted blob is discarded since the action supersedes it.
func RegisterRaw(tx *Tx, st *Store, name string, read ReadAction) error {
	if it, ok := st.items[name]; ok && it.kind != kindPersisted {
		return domain.ErrAlreadyRegistered.WithDetails(name)
	}
	st.setItem(tx, name, liveItem(read))
	return nil
}

// Purge recursively removes every entry still persisted at every level,
// leaving live and subtree entries untouched. Intended for one-time
// cleanup after all expected registrations have completed.
func (s *Store) Purge(tx *Tx) {
	for name, it := range s.items {
		switch it.kind {
		case kindPersisted:
			prev := it
			key := name
			tx.onRollback(func() { s.items[key] = prev })
			delete(s.items, name)
		case kindSubtree:
			it.sub.Purge(tx)
		}
	}
}

// Materialize recursively evaluates every live action and subtree into
// a pure JSON object. Calling it inside one transaction makes the whole
// tree reflect one consistent instant.
func (s *Store) Materialize(tx *Tx) (json.RawMessage, error) {
	values := make(map[string]json.RawMessage, len(s.items))
	for name, it := range s.items {
		switch it.kind {
		case kindPersisted:
			values[name] = it.raw
		case kindLive:
			data, err := it.read(tx)
			if err != nil {
				return nil, err
			}
			values[name] = data
		case kindSubtree:
			data, err := it.sub.Materialize(tx)
			if err != nil {
				return nil, err
			}
			values[name] = data
		}
	}
	return json.Marshal(values)
}
