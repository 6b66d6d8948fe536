package entities

// MergeProperties merges incoming into base key-by-key, with incoming values
// overriding base values for the same key. Keys present only in base are
// preserved. Neither input map is modified; the result is always a fresh map.
func MergeProperties(base, incoming map[string]any) map[string]any {
	merged := make(map[string]any, len(base)+len(incoming))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range incoming {
		merged[k] = v
	}
	return merged
}

// IsEmptyValue reports whether a property value counts as absent for merge
// purposes: nil, empty string, empty map, or empty slice.
func IsEmptyValue(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case map[string]any:
		return len(val) == 0
	case []any:
		return len(val) == 0
	default:
		return false
	}
}
