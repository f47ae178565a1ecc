package lineserver

import (
	"bufio"
	"context"
	"net"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/yndnr/varmesh-go/internal/access"
	"github.com/yndnr/varmesh-go/internal/dispatch"
	"github.com/yndnr/varmesh-go/internal/store"
	"github.com/yndnr/varmesh-go/internal/store/snapshot"
)

func newDispatcher(t *testing.T) *dispatch.Dispatcher {
	t.Helper()
	sink, err := snapshot.NewFileSink(filepath.Join(t.TempDir(), "vars.json"))
	if err != nil {
		t.Fatalf("NewFileSink: %v", err)
	}
	root, err := store.Open(store.Config{Sink: sink, FlushInterval: time.Hour})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { root.Close() })

	reg := access.NewRegistry()
	err = root.Update(func(tx *store.Tx) error {
		v, err := store.Register(tx, root.Store(), "x", 5)
		if err != nil {
			return err
		}
		return reg.Expose("x", access.ReadWrite(v))
	})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	return dispatch.New(root, reg)
}

func startTCP(t *testing.T, cfg *Config) *Server {
	t.Helper()
	if cfg == nil {
		cfg = DefaultConfig()
	}
	cfg.TCPEnabled = true
	cfg.TCPAddress = "127.0.0.1:0"
	srv := New(cfg, newDispatcher(t), nil, nil)
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	})
	return srv
}

func roundTrip(t *testing.T, conn net.Conn, br *bufio.Reader, line string) string {
	t.Helper()
	if _, err := conn.Write([]byte(line + "\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	resp, err := br.ReadString('\n')
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return strings.TrimRight(resp, "\n")
}

func TestServer_TCPRequestCycle(t *testing.T) {
	srv := startTCP(t, nil)

	conn, err := net.Dial("tcp", srv.TCPAddr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	br := bufio.NewReader(conn)

	if got := roundTrip(t, conn, br, `{"method":"w","params":{"x":7}}`); got != `{"jsonrpc":"2.0"}` {
		t.Fatalf("write ack = %s", got)
	}
	if got := roundTrip(t, conn, br, `{"method":"r","params":"x"}`); got != `{"jsonrpc":"2.0","result":{"x":7}}` {
		t.Fatalf("read = %s", got)
	}
	if got := roundTrip(t, conn, br, `{"method":"r","params":"missing"}`); got != `{"jsonrpc":"2.0","error":"Key not found: missing"}` {
		t.Fatalf("missing = %s", got)
	}
}

func TestServer_UnixSocket(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TCPEnabled = false
	cfg.SocketPath = filepath.Join(t.TempDir(), "varmesh.sock")
	srv := New(cfg, newDispatcher(t), nil, nil)
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}()

	conn, err := net.Dial("unix", cfg.SocketPath)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	br := bufio.NewReader(conn)

	if got := roundTrip(t, conn, br, `{"method":"r","params":"x"}`); got != `{"jsonrpc":"2.0","result":{"x":5}}` {
		t.Fatalf("read = %s", got)
	}
}

func TestServer_SkipsBlankLines(t *testing.T) {
	srv := startTCP(t, nil)

	conn, err := net.Dial("tcp", srv.TCPAddr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	br := bufio.NewReader(conn)

	if _, err := conn.Write([]byte("\n\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := roundTrip(t, conn, br, `{"method":"r","params":"x"}`); got != `{"jsonrpc":"2.0","result":{"x":5}}` {
		t.Fatalf("read after blanks = %s", got)
	}
}

func TestServer_RateLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RateLimit = 1
	cfg.RateBurst = 1
	srv := startTCP(t, cfg)

	conn, err := net.Dial("tcp", srv.TCPAddr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	br := bufio.NewReader(conn)

	// The burst admits one request; the immediate follow-up is rejected.
	if got := roundTrip(t, conn, br, `{"method":"r","params":"x"}`); !strings.Contains(got, "result") {
		t.Fatalf("first request = %s", got)
	}
	got := roundTrip(t, conn, br, `{"method":"r","params":"x"}`)
	if got != `{"jsonrpc":"2.0","error":"Rate limit exceeded"}` {
		t.Fatalf("second request = %s", got)
	}
}

func TestServer_ShutdownClosesConnections(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TCPEnabled = true
	cfg.TCPAddress = "127.0.0.1:0"
	srv := New(cfg, newDispatcher(t), nil, nil)
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	conn, err := net.Dial("tcp", srv.TCPAddr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 1)
	if _, err := conn.Read(buf); err == nil {
		t.Fatal("connection should be closed after shutdown")
	}

	if _, err := net.Dial("tcp", srv.TCPAddr().String()); err == nil {
		t.Fatal("listener should be closed after shutdown")
	}
}

func TestServer_StartWithoutListeners(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TCPEnabled = false
	srv := New(cfg, newDispatcher(t), nil, nil)
	if err := srv.Start(context.Background()); err == nil {
		t.Fatal("Start with no listeners should fail")
	}
}
