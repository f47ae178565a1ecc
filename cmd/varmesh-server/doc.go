// Package main provides the entry point for varmesh-server.
//
// The server hosts the varmesh variable store and provides:
//
//   - Newline delimited JSON protocol over TCP
//   - Local Unix socket for management access
//   - Periodic JSON snapshot persistence (file or badger backend)
//   - Optional Prometheus metrics endpoint
//
// Usage:
//
//	varmesh-server [flags]
//	varmesh-server --config /path/to/config.yaml
//
// The server loads configuration, opens the store from its last snapshot,
// and starts all configured listeners.
package main
