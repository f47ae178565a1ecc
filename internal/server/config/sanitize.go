// Package config defines the server configuration structure.
package config

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Sanitize returns a copy of the config with sensitive fields masked.
//
// This is used for logging configuration without exposing secrets.
func Sanitize(cfg *ServerConfig) *ServerConfig {
	// Create a shallow copy
	sanitized := *cfg

	if sanitized.Security.EncryptionKey != "" {
		sanitized.Security.EncryptionKey = maskSecret(sanitized.Security.EncryptionKey)
	}

	return &sanitized
}

// maskSecret masks a secret value for safe logging.
func maskSecret(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}

// DecodeKey turns the configured encryption key into key material. A 64
// character hex string decodes to 32 bytes; a raw 32 byte string is used
// as is.
func DecodeKey(s string) ([]byte, error) {
	if len(s) == 64 {
		key, err := hex.DecodeString(s)
		if err == nil {
			return key, nil
		}
	}
	if len(s) == 32 {
		return []byte(s), nil
	}
	return nil, fmt.Errorf("security.encryption_key must be 32 bytes raw or 64 hex characters, got %d characters", len(s))
}
