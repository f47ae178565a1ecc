// Package confloader loads layered configuration for varmesh processes.
//
// Sources are merged with increasing priority:
//
//  1. Defaults baked into the target struct
//  2. A YAML configuration file
//  3. VARMESH_-prefixed environment variables
//
// The package also provides a file watcher for configuration hot reload
// (currently used for runtime log-level changes).
package confloader
