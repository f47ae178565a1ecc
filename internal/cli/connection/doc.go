// Package connection provides server connectivity for varmesh-cli.
//
// A client dials the line protocol endpoint over TCP or a local Unix
// socket, exchanges one request line per call, and decodes the response.
package connection
