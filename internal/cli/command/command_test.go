package command

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/yndnr/varmesh-go/internal/access"
	"github.com/yndnr/varmesh-go/internal/dispatch"
	"github.com/yndnr/varmesh-go/internal/server/lineserver"
	"github.com/yndnr/varmesh-go/internal/store"
	"github.com/yndnr/varmesh-go/internal/store/snapshot"
)

func TestApp(t *testing.T) {
	app := App()
	if app == nil {
		t.Fatal("App() returned nil")
	}
	if app.Name != "varmesh-cli" {
		t.Errorf("Name = %q, want %q", app.Name, "varmesh-cli")
	}

	commandNames := make(map[string]bool)
	for _, cmd := range app.Commands {
		commandNames[cmd.Name] = true
	}
	for _, name := range []string{"get", "set", "request"} {
		if !commandNames[name] {
			t.Errorf("missing required command: %s", name)
		}
	}
}

func TestApp_GlobalFlags(t *testing.T) {
	app := App()

	flagNames := make(map[string]bool)
	for _, flag := range app.Flags {
		flagNames[flag.Names()[0]] = true
	}
	for _, name := range []string{"server", "compact"} {
		if !flagNames[name] {
			t.Errorf("missing required flag: %s", name)
		}
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"7", "7"},
		{"true", "true"},
		{`"quoted"`, `"quoted"`},
		{`{"a":1}`, `{"a":1}`},
		{"alice", `"alice"`},
		{"not json", `"not json"`},
	}

	for _, tt := range tests {
		if got := string(parseValue(tt.input)); got != tt.expected {
			t.Errorf("parseValue(%q) = %s, want %s", tt.input, got, tt.expected)
		}
	}
}

// startServer brings up a full in-process server for command round trips.
func startServer(t *testing.T) string {
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

	cfg := lineserver.DefaultConfig()
	cfg.TCPAddress = "127.0.0.1:0"
	srv := lineserver.New(cfg, dispatch.New(root, reg), nil, nil)
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	})
	return srv.TCPAddr().String()
}

func TestSetAndGet_RoundTrip(t *testing.T) {
	addr := startServer(t)

	app := App()
	var out bytes.Buffer
	app.Writer = &out

	args := []string{"varmesh-cli", "--server", addr, "set", "x", "7"}
	if err := app.Run(args); err != nil {
		t.Fatalf("set: %v", err)
	}

	args = []string{"varmesh-cli", "--server", addr, "--compact", "get", "x"}
	if err := app.Run(args); err != nil {
		t.Fatalf("get: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != `{"x":7}` {
		t.Fatalf("get output = %q", got)
	}
}

func TestGet_UnknownName(t *testing.T) {
	addr := startServer(t)

	app := App()
	app.Writer = new(bytes.Buffer)

	err := app.Run([]string{"varmesh-cli", "--server", addr, "get", "missing"})
	if err == nil || !strings.Contains(err.Error(), "Key not found: missing") {
		t.Fatalf("err = %v", err)
	}
}

func TestRequest_Raw(t *testing.T) {
	addr := startServer(t)

	app := App()
	var out bytes.Buffer
	app.Writer = &out

	err := app.Run([]string{"varmesh-cli", "--server", addr, "--compact", "request", `{"method":"r","params":"x"}`})
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != `{"x":5}` {
		t.Fatalf("output = %q", got)
	}
}
