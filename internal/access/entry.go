package access

import (
	"encoding/json"

	"github.com/yndnr/varmesh-go/internal/core/domain"
	"github.com/yndnr/varmesh-go/internal/store"
)

// ReadFunc produces the externally visible value of an entry inside a
// transaction.
type ReadFunc func(tx *store.Tx) (json.RawMessage, error)

// WriteFunc applies an externally supplied value to an entry inside a
// transaction. Decoding happens here so that a bad payload fails the whole
// transaction before any effect runs.
type WriteFunc func(tx *store.Tx, raw json.RawMessage) error

// Entry is one exposed name. A nil Read or Write denies that direction.
type Entry struct {
	Read  ReadFunc
	Write WriteFunc
}

// Readable reports whether the entry permits reads.
func (e Entry) Readable() bool { return e.Read != nil }

// Writable reports whether the entry permits writes.
func (e Entry) Writable() bool { return e.Write != nil }

func readVar[T any](v *store.Var[T]) ReadFunc {
	return func(tx *store.Tx) (json.RawMessage, error) {
		data, err := json.Marshal(v.Get(tx))
		if err != nil {
			return nil, err
		}
		return data, nil
	}
}

func writeVar[T any](v *store.Var[T]) WriteFunc {
	return func(tx *store.Tx, raw json.RawMessage) error {
		var val T
		if err := json.Unmarshal(raw, &val); err != nil {
			return domain.ErrDecode.WithCause(err)
		}
		v.Set(tx, val)
		return nil
	}
}

// ReadOnly exposes a variable for reading and denies writes.
func ReadOnly[T any](v *store.Var[T]) Entry {
	return Entry{Read: readVar(v)}
}

// WriteOnly exposes a variable for writing and denies reads.
func WriteOnly[T any](v *store.Var[T]) Entry {
	return Entry{Write: writeVar(v)}
}

// ReadWrite exposes a variable in both directions.
func ReadWrite[T any](v *store.Var[T]) Entry {
	return Entry{Read: readVar(v), Write: writeVar(v)}
}

// Action exposes a write-only side effect. The payload is decoded as T and
// handed to fn; an error from fn aborts the surrounding transaction, undoing
// every other write batched with it.
func Action[T any](fn func(tx *store.Tx, val T) error) Entry {
	return Entry{
		Write: func(tx *store.Tx, raw json.RawMessage) error {
			var val T
			if err := json.Unmarshal(raw, &val); err != nil {
				return domain.ErrDecode.WithCause(err)
			}
			return fn(tx, val)
		},
	}
}

// RawRead exposes a computed read-only value. The function runs inside the
// read transaction and may consult any part of the store, so the caller is
// responsible for keeping it cheap and side effect free.
func RawRead(fn ReadFunc) Entry {
	return Entry{Read: fn}
}
