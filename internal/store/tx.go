package store

// Tx is a transaction against a Root. All store reads and writes happen
// inside one; the Root's View and Update methods create them.
//
// Isolation comes from the Root's single lock: at most one transaction
// runs at a time, so every transaction observes and produces a
// consistent point-in-time state. Atomicity comes from the undo log:
// every mutation registers an inverse, and an error or panic inside the
// transaction body rewinds them all in reverse order.
//
// A Tx must not outlive the closure it was handed to, and must not be
// held across a wait on another goroutine's progress.
type Tx struct {
	root *Root
	undo []func()
}

// onRollback registers an inverse operation to run if the transaction
// aborts. Mutating accessors call this before applying their change.
func (tx *Tx) onRollback(fn func()) {
	tx.undo = append(tx.undo, fn)
}

// rollback rewinds all staged mutations in reverse order.
func (tx *Tx) rollback() {
	for i := len(tx.undo) - 1; i >= 0; i-- {
		tx.undo[i]()
	}
	tx.undo = nil
}

// commit discards the undo log, making the staged mutations final.
func (tx *Tx) commit() {
	tx.undo = nil
}
