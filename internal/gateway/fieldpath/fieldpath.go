// Package fieldpath implements dotted-path addressing on nested
// map[string]interface{} structures: get, set, delete, rename, pick and omit.
// A path like "user.address.city" is parsed once into segments and applied
// uniformly by every operation.
package fieldpath

import "strings"

// Parse splits a dotted path into its segments. An empty path yields nil.
func Parse(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}

// Get fetches the value at path. The second result is false when any segment
// is missing or a non-map value is traversed.
func Get(obj map[string]interface{}, path string) (interface{}, bool) {
	segments := Parse(path)
	if obj == nil || len(segments) == 0 {
		return nil, false
	}
	current := obj
	for i, seg := range segments {
		value, ok := current[seg]
		if !ok {
			return nil, false
		}
		if i == len(segments)-1 {
			return value, true
		}
		next, ok := value.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current = next
	}
	return nil, false
}

// Set stores value at path, creating intermediate maps as needed. A non-map
// intermediate value is replaced by a fresh map.
func Set(obj map[string]interface{}, path string, value interface{}) {
	segments := Parse(path)
	if obj == nil || len(segments) == 0 {
		return
	}
	current := obj
	for _, seg := range segments[:len(segments)-1] {
		next, ok := current[seg].(map[string]interface{})
		if !ok {
			next = map[string]interface{}{}
			current[seg] = next
		}
		current = next
	}
	current[segments[len(segments)-1]] = value
}

// Delete removes the value at path. Missing segments are a no-op.
func Delete(obj map[string]interface{}, path string) {
	segments := Parse(path)
	if obj == nil || len(segments) == 0 {
		return
	}
	current := obj
	for _, seg := range segments[:len(segments)-1] {
		next, ok := current[seg].(map[string]interface{})
		if !ok {
			return
		}
		current = next
	}
	delete(current, segments[len(segments)-1])
}

// Rename moves every entry of renames (old path -> new path) inside obj.
// A missing source path is a silent no-op for that one rename. The input
// object is returned for chaining; a nil rename table leaves it untouched.
func Rename(obj map[string]interface{}, renames map[string]string) map[string]interface{} {
	if obj == nil || len(renames) == 0 {
		return obj
	}
	for oldPath, newPath := range renames {
		value, ok := Get(obj, oldPath)
		if !ok {
			continue
		}
		Delete(obj, oldPath)
		Set(obj, newPath, value)
	}
	return obj
}

// Pick returns a new map holding only the listed top-level keys of obj.
func Pick(obj map[string]interface{}, keys []string) map[string]interface{} {
	out := map[string]interface{}{}
	for _, key := range keys {
		if value, ok := obj[key]; ok {
			out[key] = value
		}
	}
	return out
}

// Omit returns a new map holding every top-level entry of obj except the
// listed keys.
func Omit(obj map[string]interface{}, keys []string) map[string]interface{} {
	skip := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		skip[key] = struct{}{}
	}
	out := map[string]interface{}{}
	for key, value := range obj {
		if _, ok := skip[key]; ok {
			continue
		}
		out[key] = value
	}
	return out
}

// Clone returns a copy of obj with every nested map copied as well. Leaf
// values and slices are shared with the original.
func Clone(obj map[string]interface{}) map[string]interface{} {
	if obj == nil {
		return nil
	}
	out := make(map[string]interface{}, len(obj))
	for key, value := range obj {
		if nested, ok := value.(map[string]interface{}); ok {
			out[key] = Clone(nested)
			continue
		}
		out[key] = value
	}
	return out
}
