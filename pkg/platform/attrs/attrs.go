// Package attrs provides helpers for slog-style alternating key/value
// attribute lists.
package attrs

// ExtractString scans an alternating key/value attribute list for the given
// key and returns its string value. Returns "" when the key is absent or the
// value is not a string.
func ExtractString(attributes []any, key string) string {
	for i := 0; i+1 < len(attributes); i += 2 {
		k, ok := attributes[i].(string)
		if !ok || k != key {
			continue
		}
		if v, ok := attributes[i+1].(string); ok {
			return v
		}
		return ""
	}
	return ""
}
