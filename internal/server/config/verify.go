// Package config defines the server configuration structure.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	if err := verifySnapshot(&cfg.Snapshot); err != nil {
		return err
	}
	return verifySecurity(&cfg.Security)
}

func verifyServer(cfg *ServerSection) error {
	if !cfg.TCP.Enabled && cfg.Local.Path == "" {
		return errors.New("at least one of server.tcp or server.local must be enabled")
	}
	if cfg.TCP.Enabled && cfg.TCP.Addr == "" {
		return errors.New("server.tcp.addr is required when TCP is enabled")
	}
	if cfg.RateLimit < 0 {
		return errors.New("server.rate_limit must not be negative")
	}
	if cfg.RateLimit > 0 && cfg.RateBurst < 1 {
		return errors.New("server.rate_burst must be at least 1 when rate limiting is enabled")
	}
	return nil
}

func verifySnapshot(cfg *SnapshotSection) error {
	switch cfg.Backend {
	case "file":
		if cfg.Path == "" {
			return errors.New("snapshot.path is required for the file backend")
		}
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0750); err != nil {
			return errors.New("cannot create snapshot directory: " + err.Error())
		}
	case "badger":
		if cfg.DataDir == "" {
			return errors.New("snapshot.data_dir is required for the badger backend")
		}
		if err := os.MkdirAll(cfg.DataDir, 0750); err != nil {
			return errors.New("cannot create snapshot data directory: " + err.Error())
		}
	default:
		return fmt.Errorf("unknown snapshot.backend %q", cfg.Backend)
	}
	if cfg.FlushInterval <= 0 {
		return errors.New("snapshot.flush_interval must be positive")
	}
	return nil
}

func verifySecurity(cfg *SecuritySection) error {
	if cfg.EncryptionKey == "" {
		return nil
	}
	if _, err := DecodeKey(cfg.EncryptionKey); err != nil {
		return err
	}
	return nil
}
