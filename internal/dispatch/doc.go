// Package dispatch decodes client requests, resolves the named entries
// through the access registry, and executes reads and writes against the
// store. A request is either a read ("r") naming one or more entries, or a
// write ("w") carrying a name-to-value object. Writes are applied in a single
// transaction; any failure undoes the whole batch.
package dispatch
