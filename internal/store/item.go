package store

import "encoding/json"

// itemKind discriminates the closed item variant. Dispatch on the kind
// is exhaustive and fixed; new kinds are a breaking change.
type itemKind uint8

const (
	// kindPersisted is an inert JSON blob loaded from the last snapshot,
	// not yet claimed by any live variable.
	kindPersisted itemKind = iota

	// kindLive binds the entry to a transactional accessor that
	// recomputes the current value on demand.
	kindLive

	// kindSubtree nests a child store, exclusively owned by this entry.
	kindSubtree
)

// ReadAction recomputes the current JSON value of a live entry. It runs
// inside the transaction that materializes the snapshot.
type ReadAction func(tx *Tx) (json.RawMessage, error)

// item is the tagged variant stored per name.
type item struct {
	kind itemKind
	raw  json.RawMessage // kindPersisted
	read ReadAction      // kindLive
	sub  *Store          // kindSubtree
}

func persistedItem(raw json.RawMessage) item {
	return item{kind: kindPersisted, raw: raw}
}

func liveItem(read ReadAction) item {
	return item{kind: kindLive, read: read}
}

func subtreeItem(sub *Store) item {
	return item{kind: kindSubtree, sub: sub}
}
