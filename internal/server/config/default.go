// Package config defines the server configuration structure.
package config

import "time"

// Default configuration values.
const (
	DefaultTCPAddr     = "127.0.0.1:5390"
	DefaultMetricsAddr = "127.0.0.1:5391"
	DefaultLocalSocket = "/var/run/varmesh-server/varmesh-server.sock"

	DefaultSnapshotBackend = "file"
	DefaultSnapshotPath    = "/var/lib/varmesh-server/vars.json"
	DefaultSnapshotDataDir = "/var/lib/varmesh-server/badger"
	DefaultFlushInterval   = time.Minute

	DefaultReadTimeout  = 30 * time.Second
	DefaultWriteTimeout = 10 * time.Second
	DefaultIdleTimeout  = 5 * time.Minute

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			TCP: TCPConfig{
				Enabled: true,
				Addr:    DefaultTCPAddr,
			},
			Local: LocalConfig{
				Path: DefaultLocalSocket,
			},
			Metrics: MetricsConfig{
				Enabled: false,
				Addr:    DefaultMetricsAddr,
			},
			ReadTimeout:  DefaultReadTimeout,
			WriteTimeout: DefaultWriteTimeout,
			IdleTimeout:  DefaultIdleTimeout,
		},
		Snapshot: SnapshotSection{
			Backend:       DefaultSnapshotBackend,
			Path:          DefaultSnapshotPath,
			DataDir:       DefaultSnapshotDataDir,
			FlushInterval: DefaultFlushInterval,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
