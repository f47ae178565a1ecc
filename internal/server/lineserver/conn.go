package lineserver

import (
	"bufio"
	"net"
	"sync/atomic"

	"github.com/oklog/ulid/v2"
	"golang.org/x/time/rate"
)

// maxLineBytes bounds a single request line. Anything longer is treated as
// a protocol violation and closes the connection.
const maxLineBytes = 1 << 20

// Conn represents a single client connection.
type Conn struct {
	id      string
	netConn net.Conn
	br      *bufio.Reader
	bw      *bufio.Writer
	limiter *rate.Limiter

	closed atomic.Bool
}

func newConn(c net.Conn, limit float64, burst int) *Conn {
	conn := &Conn{
		id:      ulid.Make().String(),
		netConn: c,
		br:      bufio.NewReaderSize(c, 64*1024),
		bw:      bufio.NewWriter(c),
	}
	if limit > 0 {
		conn.limiter = rate.NewLimiter(rate.Limit(limit), burst)
	}
	return conn
}

// ID returns the connection identifier assigned at accept time.
func (c *Conn) ID() string {
	return c.id
}

func (c *Conn) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.netConn.Close()
}

func (c *Conn) RemoteAddr() net.Addr {
	return c.netConn.RemoteAddr()
}

// allow reports whether the connection is within its request budget.
func (c *Conn) allow() bool {
	return c.limiter == nil || c.limiter.Allow()
}
