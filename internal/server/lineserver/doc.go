// Package lineserver provides the newline delimited JSON protocol server.
//
// Each connection carries a sequence of request lines; every line is decoded
// and dispatched independently and answered with exactly one response line.
// The server listens on TCP and on a local Unix domain socket, applies
// read, write and idle deadlines, and can rate limit requests per
// connection.
package lineserver
