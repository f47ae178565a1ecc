package lineserver

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/varmesh-go/internal/dispatch"
	"github.com/yndnr/varmesh-go/internal/telemetry/logger"
	"github.com/yndnr/varmesh-go/internal/telemetry/metric"
	"github.com/yndnr/varmesh-go/pkg/cmap"
)

// Config holds the line protocol server configuration.
type Config struct {
	// TCPEnabled enables the TCP listener.
	TCPEnabled bool
	// TCPAddress is the TCP listen address.
	TCPAddress string
	// SocketPath is the Unix domain socket path. Empty disables the
	// local listener.
	SocketPath string
	// ReadTimeout is the timeout for reading one request line (default: 30s).
	ReadTimeout time.Duration
	// WriteTimeout is the timeout for writing a response (default: 10s).
	WriteTimeout time.Duration
	// IdleTimeout is the timeout for idle connections (default: 5m).
	IdleTimeout time.Duration
	// RateLimit is the maximum number of requests per second per
	// connection. Set to 0 to disable rate limiting.
	RateLimit float64
	// RateBurst is the burst allowance when RateLimit is set.
	RateBurst int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		TCPEnabled:   true,
		TCPAddress:   "127.0.0.1:5390",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  5 * time.Minute,
	}
}

// Server accepts line protocol connections and feeds them to a dispatcher.
type Server struct {
	cfg     *Config
	disp    *dispatch.Dispatcher
	log     logger.Logger
	metrics *metric.Registry

	tcpLn  net.Listener
	unixLn net.Listener

	conns   *cmap.Map[*Conn]
	running atomic.Bool
	wg      sync.WaitGroup
}

// New creates a new line protocol server.
func New(cfg *Config, disp *dispatch.Dispatcher, log logger.Logger, metrics *metric.Registry) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if log == nil {
		log = logger.Default()
	}
	return &Server{
		cfg:     cfg,
		disp:    disp,
		log:     log,
		metrics: metrics,
		conns:   cmap.New[*Conn](),
	}
}

// Start starts the configured listeners. It returns once the listeners are
// bound; accept loops run in background goroutines.
func (s *Server) Start(ctx context.Context) error {
	if !s.cfg.TCPEnabled && s.cfg.SocketPath == "" {
		return errors.New("no listener enabled")
	}

	s.running.Store(true)

	if s.cfg.TCPEnabled {
		ln, err := net.Listen("tcp", s.cfg.TCPAddress)
		if err != nil {
			return err
		}
		s.tcpLn = ln
		s.log.Info("line server listening", "transport", "tcp", "address", ln.Addr().String())
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if err := s.acceptLoop(ctx, ln); err != nil && s.running.Load() {
				s.log.Error("tcp accept loop failed", "error", err)
			}
		}()
	}

	if s.cfg.SocketPath != "" {
		// A previous unclean shutdown can leave the socket file behind.
		if err := os.Remove(s.cfg.SocketPath); err != nil && !os.IsNotExist(err) {
			return err
		}
		ln, err := net.Listen("unix", s.cfg.SocketPath)
		if err != nil {
			return err
		}
		s.unixLn = ln
		s.log.Info("line server listening", "transport", "unix", "address", s.cfg.SocketPath)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if err := s.acceptLoop(ctx, ln); err != nil && s.running.Load() {
				s.log.Error("unix accept loop failed", "error", err)
			}
		}()
	}

	return nil
}

// TCPAddr returns the bound TCP address, useful when the configured address
// had port 0.
func (s *Server) TCPAddr() net.Addr {
	if s.tcpLn == nil {
		return nil
	}
	return s.tcpLn.Addr()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.running.Store(false)

	var firstErr error
	if s.tcpLn != nil {
		if err := s.tcpLn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if s.unixLn != nil {
		if err := s.unixLn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	// Close open connections so their serve loops wind down.
	s.conns.Range(func(_ string, c *Conn) bool {
		_ = c.Close()
		return true
	})

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	return firstErr
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) error {
	for {
		c, err := ln.Accept()
		if err != nil {
			if !s.running.Load() {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			return err
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.serveConn(ctx, newConn(c, s.cfg.RateLimit, s.cfg.RateBurst))
		}()
	}
}

func (s *Server) serveConn(ctx context.Context, c *Conn) {
	defer c.Close()

	s.conns.Set(c.id, c)
	defer s.conns.Delete(c.id)

	if s.metrics != nil {
		s.metrics.ActiveConnections.Inc()
		defer s.metrics.ActiveConnections.Dec()
	}

	readTimeout := s.cfg.ReadTimeout
	if readTimeout == 0 {
		readTimeout = 30 * time.Second
	}
	writeTimeout := s.cfg.WriteTimeout
	if writeTimeout == 0 {
		writeTimeout = 10 * time.Second
	}
	idleTimeout := s.cfg.IdleTimeout
	if idleTimeout == 0 {
		idleTimeout = 5 * time.Minute
	}

	ctx = logger.WithConnID(ctx, c.id)
	log := s.log.With("conn", c.id, "remote", c.RemoteAddr().String())
	log.Debug("connection accepted")

	for {
		// First byte: allow the connection to idle between requests.
		if err := c.netConn.SetReadDeadline(time.Now().Add(idleTimeout)); err != nil {
			return
		}
		if _, err := c.br.Peek(1); err != nil {
			if errors.Is(err, io.EOF) {
				log.Debug("connection closed by peer")
				return
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				log.Debug("connection idle timeout")
				return
			}
			log.Debug("connection read error", "error", err)
			return
		}

		// After first byte: tighten to the per-request read timeout.
		if err := c.netConn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
			return
		}

		line, err := readLine(c.br)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				log.Debug("request read timeout")
				return
			}
			if errors.Is(err, errLineTooLong) {
				log.Warn("request line too long")
				s.writeResponse(c, writeTimeout, []byte(`{"jsonrpc":"2.0","error":"Request line too long"}`))
				return
			}
			log.Debug("request read error", "error", err)
			return
		}

		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		if !c.allow() {
			if !s.writeResponse(c, writeTimeout, []byte(`{"jsonrpc":"2.0","error":"Rate limit exceeded"}`)) {
				return
			}
			continue
		}

		reqCtx := logger.WithRequestID(ctx, ulid.Make().String())
		resp := s.disp.Dispatch(reqCtx, line)
		if !s.writeResponse(c, writeTimeout, resp) {
			return
		}
	}
}

func (s *Server) writeResponse(c *Conn, writeTimeout time.Duration, resp []byte) bool {
	if err := c.netConn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return false
	}
	if _, err := c.bw.Write(resp); err != nil {
		return false
	}
	if err := c.bw.WriteByte('\n'); err != nil {
		return false
	}
	return c.bw.Flush() == nil
}

var errLineTooLong = errors.New("line exceeds protocol limit")

// readLine reads one newline terminated request, enforcing maxLineBytes.
func readLine(br *bufio.Reader) ([]byte, error) {
	var line []byte
	for {
		chunk, err := br.ReadSlice('\n')
		line = append(line, chunk...)
		if len(line) > maxLineBytes {
			return nil, errLineTooLong
		}
		if err == nil {
			return bytes.TrimRight(line, "\r\n"), nil
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return bytes.TrimRight(line, "\r\n"), nil
		}
		return nil, err
	}
}
