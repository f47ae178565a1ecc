package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/yndnr/varmesh-go/internal/core/domain"
	"github.com/yndnr/varmesh-go/internal/store/snapshot"
)

// countingSink records every stored payload in memory.
type countingSink struct {
	mu     sync.Mutex
	stores [][]byte
	seed   []byte
	fail   error
}

func (c *countingSink) Load() ([]byte, bool, error) {
	if c.seed == nil {
		return nil, false, nil
	}
	return c.seed, true, nil
}

func (c *countingSink) Store(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail != nil {
		return c.fail
	}
	c.stores = append(c.stores, append([]byte(nil), data...))
	return nil
}

func (c *countingSink) Close() error { return nil }

func (c *countingSink) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.stores)
}

func (c *countingSink) last() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.stores) == 0 {
		return nil
	}
	return c.stores[len(c.stores)-1]
}

func TestOpen_NilSink(t *testing.T) {
	if _, err := Open(Config{}); err == nil {
		t.Fatal("Open with nil sink should fail")
	}
}

func TestOpen_MalformedSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vars.json")
	if err := os.WriteFile(path, []byte(`[1,2,3]`), 0o600); err != nil {
		t.Fatalf("seed file: %v", err)
	}
	sink, err := snapshot.NewFileSink(path)
	if err != nil {
		t.Fatalf("NewFileSink: %v", err)
	}
	_, err = Open(Config{Sink: sink, FlushInterval: time.Hour})
	if !errors.Is(err, domain.ErrFileLoad) {
		t.Fatalf("err = %v, want FileLoadError", err)
	}
}

func TestRoundTrip_FileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vars.json")

	open := func() *Root {
		t.Helper()
		sink, err := snapshot.NewFileSink(path)
		if err != nil {
			t.Fatalf("NewFileSink: %v", err)
		}
		root, err := Open(Config{Sink: sink, FlushInterval: time.Hour})
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		return root
	}

	root := open()
	err := root.Update(func(tx *Tx) error {
		v, err := Register(tx, root.Store(), "x", 0)
		if err != nil {
			return err
		}
		v.Set(tx, 7)
		sub, err := RegisterSubtree(tx, root.Store(), "child")
		if err != nil {
			return err
		}
		s, err := Register(tx, sub, "name", "")
		if err != nil {
			return err
		}
		s.Set(tx, "hello")
		return nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := root.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Fresh process: everything comes back as persisted state.
	root = open()
	defer root.Close()
	err = root.Update(func(tx *Tx) error {
		v, err := Register(tx, root.Store(), "x", 0)
		if err != nil {
			return err
		}
		if got := v.Get(tx); got != 7 {
			t.Errorf("x = %d, want 7", got)
		}
		sub, err := RegisterSubtree(tx, root.Store(), "child")
		if err != nil {
			return err
		}
		s, err := Register(tx, sub, "name", "")
		if err != nil {
			return err
		}
		if got := s.Get(tx); got != "hello" {
			t.Errorf("child.name = %q, want hello", got)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Update after reopen: %v", err)
	}
}

func TestClose_FlushesExactlyOnceMore(t *testing.T) {
	sink := &countingSink{}
	root, err := Open(Config{Sink: sink, FlushInterval: time.Hour})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	root.Update(func(tx *Tx) error {
		v, err := Register(tx, root.Store(), "x", 0)
		if err != nil {
			return err
		}
		v.Set(tx, 7)
		return nil
	})

	if got := sink.count(); got != 0 {
		t.Fatalf("stores before Close = %d, want 0", got)
	}
	if err := root.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if got := sink.count(); got != 1 {
		t.Fatalf("stores after Close = %d, want exactly 1", got)
	}
	if got := root.State(); got != StateStopped {
		t.Fatalf("state = %v, want Stopped", got)
	}

	var tree map[string]int
	if err := json.Unmarshal(sink.last(), &tree); err != nil {
		t.Fatalf("final snapshot not JSON: %v", err)
	}
	if tree["x"] != 7 {
		t.Fatalf("final snapshot = %s, want x=7", sink.last())
	}

	// Idempotent.
	if err := root.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if got := sink.count(); got != 1 {
		t.Fatalf("stores after second Close = %d, want 1", got)
	}
}

func TestPersistLoop_PeriodicFlush(t *testing.T) {
	sink := &countingSink{}
	root, err := Open(Config{Sink: sink, FlushInterval: 10 * time.Millisecond})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer root.Close()

	root.Update(func(tx *Tx) error {
		_, err := Register(tx, root.Store(), "x", 1)
		return err
	})

	deadline := time.Now().Add(2 * time.Second)
	for sink.count() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("only %d periodic flushes observed", sink.count())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestClose_ReportsFlushError(t *testing.T) {
	boom := errors.New("disk full")
	sink := &countingSink{fail: boom}
	root, err := Open(Config{Sink: sink, FlushInterval: time.Hour})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := root.Close(); !errors.Is(err, boom) {
		t.Fatalf("Close err = %v, want %v", err, boom)
	}
}

func TestWith_ClosesOnError(t *testing.T) {
	sink := &countingSink{}
	boom := errors.New("boom")
	err := With(Config{Sink: sink, FlushInterval: time.Hour}, func(root *Root) error {
		root.Update(func(tx *Tx) error {
			_, err := Register(tx, root.Store(), "x", 1)
			return err
		})
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("With err = %v, want %v", err, boom)
	}
	if got := sink.count(); got != 1 {
		t.Fatalf("stores = %d, want final flush despite error", got)
	}
}

func TestState_Strings(t *testing.T) {
	for s, want := range map[State]string{
		StateRunning:  "running",
		StateStopping: "stopping",
		StateStopped:  "stopped",
	} {
		if got := s.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", s, got, want)
		}
	}
}

func TestOpen_LoadsSeededState(t *testing.T) {
	sink := &countingSink{seed: []byte(`{"x":42}`)}
	root, err := Open(Config{Sink: sink, FlushInterval: time.Hour})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer root.Close()

	root.Update(func(tx *Tx) error {
		v, err := Register(tx, root.Store(), "x", 0)
		if err != nil {
			return err
		}
		if got := v.Get(tx); got != 42 {
			t.Errorf("x = %d, want 42", got)
		}
		return nil
	})
}
