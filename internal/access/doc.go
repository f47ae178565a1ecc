// Package access maps external names to store variables with an explicit
// exposure mode per name. An entry carries an optional read function and an
// optional write function; a nil side means that direction is denied. The
// registry is the only path by which protocol clients reach the store.
package access
