package logging

import (
	"log/slog"
	"strings"
)

// RedactedValue is the placeholder emitted in place of credential material.
const RedactedValue = "[REDACTED]"

// Credential-bearing log keys. The webhook shared secret, the platform access
// token, and admin bearer tokens must never reach the log stream, even when a
// call site passes them by mistake.
var sensitiveKeys = map[string]struct{}{
	"secret":        {},
	"token":         {},
	"authorization": {},
	"signature":     {},
	"api_key":       {},
}

// IsSensitive reports whether values logged under the key must be masked.
func IsSensitive(key string) bool {
	_, ok := sensitiveKeys[strings.ToLower(strings.TrimSpace(key))]
	return ok
}

// Redact masks the attribute's value when its key is credential-bearing.
func Redact(attr slog.Attr) slog.Attr {
	if IsSensitive(attr.Key) {
		return slog.String(attr.Key, RedactedValue)
	}
	return attr
}
