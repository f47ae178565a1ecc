// Package logger provides structured logging for varmesh.
package logger

import (
	"log/slog"
	"strings"
)

// Sensitive key patterns that should be redacted. The snapshot
// encryption key is the main secret this process handles.
var sensitiveKeyPatterns = []string{
	"password",
	"passphrase",
	"secret",
	"encryption_key",
	"credential",
}

// redactedValue is the placeholder for redacted sensitive data.
const redactedValue = "***REDACTED***"

// redactSensitive checks if an attribute carries sensitive data
// and redacts it if necessary.
func redactSensitive(a slog.Attr) slog.Attr {
	if a.Value.Kind() != slog.KindString {
		return a
	}

	lowerKey := strings.ToLower(a.Key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(lowerKey, pattern) {
			return slog.String(a.Key, redactedValue)
		}
	}

	return a
}
