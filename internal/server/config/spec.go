// Package config defines the server configuration structure.
package config

import "time"

// ServerConfig is the root configuration for varmesh-server.
type ServerConfig struct {
	Server   ServerSection   `koanf:"server"`
	Snapshot SnapshotSection `koanf:"snapshot"`
	Security SecuritySection `koanf:"security"`
	Log      LogSection      `koanf:"log"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	TCP     TCPConfig     `koanf:"tcp"`
	Local   LocalConfig   `koanf:"local"`
	Metrics MetricsConfig `koanf:"metrics"`

	// ReadTimeout bounds a single request line; IdleTimeout closes
	// connections with no traffic.
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	IdleTimeout  time.Duration `koanf:"idle_timeout"`

	// RateLimit is the per-connection request budget in requests per
	// second; RateBurst is the burst allowance. Zero disables limiting.
	RateLimit float64 `koanf:"rate_limit"`
	RateBurst int     `koanf:"rate_burst"`
}

// TCPConfig configures the TCP line protocol listener.
type TCPConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
}

// LocalConfig configures the local management socket.
type LocalConfig struct {
	Path string `koanf:"path"`
}

// MetricsConfig configures the Prometheus metrics endpoint.
type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
}

// SnapshotSection configures variable persistence.
type SnapshotSection struct {
	// Backend selects the snapshot store: "file" or "badger".
	Backend string `koanf:"backend"`

	// Path is the snapshot file path when Backend is "file".
	Path string `koanf:"path"`

	// DataDir is the database directory when Backend is "badger".
	DataDir string `koanf:"data_dir"`

	// FlushInterval is the cadence of the background snapshot writer.
	FlushInterval time.Duration `koanf:"flush_interval"`
}

// SecuritySection configures security settings.
type SecuritySection struct {
	// EncryptionKey enables snapshot encryption when non-empty.
	// Must be 32 bytes, hex or raw.
	EncryptionKey string `koanf:"encryption_key"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
