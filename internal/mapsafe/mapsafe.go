// Package mapsafe reads typed values out of loosely typed maps, such as the
// ones produced by decoding JSON or a google.protobuf.Struct.
package mapsafe

import "math"

// Get retrieves a typed value from a map[string]any.
// If the key is missing or the type cannot be converted, it returns the default value.
func Get[T any](m map[string]any, key string, defaultValue T) T {
	if v, ok := Lookup[T](m, key); ok {
		return v
	}
	return defaultValue
}

// Lookup is Get reporting whether m[key] held a value convertible to T.
// Numbers decoded as float64 convert to int only when they are integral.
func Lookup[T any](m map[string]any, key string) (T, bool) {
	var zero T

	val, ok := m[key]
	if !ok {
		return zero, false
	}

	switch any(zero).(type) {
	case int:
		switch x := val.(type) {
		case int:
			return any(x).(T), true
		case int64:
			return any(int(x)).(T), true
		case float64:
			if x != math.Trunc(x) {
				return zero, false
			}
			return any(int(x)).(T), true
		}
		return zero, false
	case float64:
		switch x := val.(type) {
		case float64:
			return any(x).(T), true
		case int:
			return any(float64(x)).(T), true
		}
		return zero, false
	}

	v, ok := val.(T)
	return v, ok
}

// Objects returns the elements of the list m[key] that are objects.
func Objects(m map[string]any, key string) []map[string]any {
	list, ok := m[key].([]any)
	if !ok {
		return nil
	}

	out := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if obj, ok := item.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	return out
}
