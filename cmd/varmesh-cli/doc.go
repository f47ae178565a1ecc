// Package main provides the entry point for varmesh-cli.
//
// varmesh-cli is the command-line management tool for varmesh. It reads
// and writes variables through the line protocol over TCP or the local
// Unix socket.
//
// Usage:
//
//	varmesh-cli get NAME [NAME...]
//	varmesh-cli set NAME VALUE [NAME VALUE...]
//	varmesh-cli request '{"method":"r","params":"x"}'
package main
