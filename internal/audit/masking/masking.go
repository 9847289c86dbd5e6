// Package masking redacts personal identifiers before they land in the
// audit trail.
package masking

import "strings"

const maskToken = "****"

// Keys whose string values carry personal identifiers.
var sensitiveKeys = map[string]bool{
	"passport_id":        true,
	"phone_number":       true,
	"extra_phone_number": true,
}

// Mask redacts a value keeping the last four characters so entries stay
// matchable by eye.
func Mask(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	if len(trimmed) <= 4 {
		return maskToken
	}
	return maskToken + trimmed[len(trimmed)-4:]
}

// Metadata returns a copy of the input with sensitive values redacted.
// Nested maps and slices are walked; non-sensitive values pass through.
func Metadata(input map[string]any) map[string]any {
	if len(input) == 0 {
		return nil
	}

	out := make(map[string]any, len(input))
	for key, value := range input {
		trimmedKey := strings.TrimSpace(key)
		if trimmedKey == "" {
			continue
		}
		out[trimmedKey] = maskValue(trimmedKey, value)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func maskValue(key string, value any) any {
	switch cast := value.(type) {
	case string:
		if sensitiveKeys[key] {
			return Mask(cast)
		}
		return cast
	case map[string]any:
		return Metadata(cast)
	case []any:
		out := make([]any, 0, len(cast))
		for _, item := range cast {
			out = append(out, maskValue(key, item))
		}
		return out
	default:
		return value
	}
}
