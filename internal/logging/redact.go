package logging

import (
	"log/slog"
	"strings"
)

// Redacted replaces sensitive values.
const Redacted = "[REDACTED]"

var sensitiveKeys = []string{"password", "token", "api_key", "apikey", "secret", "auth", "credential"}

// IsSensitive reports whether a key names a secret. Matching is by
// case-insensitive substring.
func IsSensitive(key string) bool {
	k := strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(k, s) {
			return true
		}
	}
	return false
}

// RedactAttr is a slog ReplaceAttr hook that hides sensitive values.
func RedactAttr(_ []string, a slog.Attr) slog.Attr {
	if IsSensitive(a.Key) {
		return slog.String(a.Key, Redacted)
	}
	return a
}

// Redact returns a copy of m with sensitive values hidden, recursing into
// nested maps and slices of maps.
func Redact(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if IsSensitive(k) {
			out[k] = Redacted
			continue
		}
		out[k] = redactValue(v)
	}
	return out
}

func redactValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return Redact(t)
	case []any:
		items := make([]any, len(t))
		for i, item := range t {
			items[i] = redactValue(item)
		}
		return items
	default:
		return v
	}
}
