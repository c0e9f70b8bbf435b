// Package utils provides safe accessors for decoded JSON-style objects.
// Raw session attributes and metadata documents arrive as map[string]interface{};
// these helpers extract typed values without panicking on missing keys or
// unexpected types.
package utils

import "strconv"

// GetString safely extracts a string from a map, returning defaultVal if not found.
// Numeric values are formatted as strings: some recording rigs store identifiers
// (e.g. mouse ids) as numbers rather than strings.
func GetString(m map[string]interface{}, key, defaultVal string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case float64:
		// JSON numbers are float64; ids are integral
		return strconv.FormatInt(int64(v), 10)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	}
	return defaultVal
}

// GetStringSlice safely extracts a string slice from a map.
// Handles both []string and []interface{} cases.
func GetStringSlice(m map[string]interface{}, key string) []string {
	if v, ok := m[key].([]string); ok {
		return v
	}
	// Handle []interface{} case (common from JSON unmarshaling)
	if v, ok := m[key].([]interface{}); ok {
		result := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				result = append(result, s)
			}
		}
		return result
	}
	return nil
}

// GetFloat64 safely extracts a float64 from a map.
// Also handles int and int64 values from fixture maps built in Go code.
func GetFloat64(m map[string]interface{}, key string, defaultVal float64) float64 {
	if v, ok := AsFloat64(m[key]); ok {
		return v
	}
	return defaultVal
}

// GetInt64 safely extracts an int64 from a map.
// Also handles float64 (common from JSON) by converting.
func GetInt64(m map[string]interface{}, key string, defaultVal int64) int64 {
	switch v := m[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		// JSON numbers are float64
		return int64(v)
	}
	return defaultVal
}

// GetFloat64Slice safely extracts a float64 slice from a map.
// Handles both []float64 and []interface{} cases.
func GetFloat64Slice(m map[string]interface{}, key string) []float64 {
	if v, ok := m[key].([]float64); ok {
		return v
	}
	if v, ok := m[key].([]interface{}); ok {
		result := make([]float64, 0, len(v))
		for _, item := range v {
			if f, ok := AsFloat64(item); ok {
				result = append(result, f)
			}
		}
		return result
	}
	return nil
}

// AsFloat64 converts a scalar of any numeric type to float64.
// Returns false for non-numeric values.
func AsFloat64(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
