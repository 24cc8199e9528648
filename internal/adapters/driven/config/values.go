// Package config holds the dotted-key value map shared by the config stores.
package config

import (
	"sort"
	"strings"
)

// Values maps dotted keys such as "llm.model" to decoded TOML values.
type Values map[string]any

// String returns the value at key when it is a string.
func (v Values) String(key string) string {
	s, _ := v[key].(string)
	return s
}

// Int returns the value at key when it is an integer.
// TOML integers decode as int64.
func (v Values) Int(key string) int {
	switch n := v[key].(type) {
	case int64:
		return int(n)
	case int:
		return n
	case float64:
		return int(n)
	default:
		return 0
	}
}

// Bool returns the value at key when it is a boolean.
func (v Values) Bool(key string) bool {
	b, _ := v[key].(bool)
	return b
}

// StringSlice returns the value at key when it is a list of strings.
// TOML arrays decode as []any; non-string items are skipped.
func (v Values) StringSlice(key string) []string {
	switch list := v[key].(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// Keys returns the keys in sorted order.
func (v Values) Keys() []string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Flatten converts nested tables to dotted keys.
// {"llm": {"model": "x"}} becomes {"llm.model": "x"}.
func Flatten(m map[string]any) Values {
	out := make(Values)
	flattenInto(out, m, "")
	return out
}

func flattenInto(out Values, m map[string]any, prefix string) {
	for key, value := range m {
		if prefix != "" {
			key = prefix + "." + key
		}
		if nested, ok := value.(map[string]any); ok {
			flattenInto(out, nested, key)
			continue
		}
		out[key] = value
	}
}

// Nest is the inverse of Flatten, producing one table per key segment.
// A scalar that collides with a table keeps its dotted key at that level.
func Nest(v Values) map[string]any {
	root := make(map[string]any)
	for _, key := range v.Keys() {
		parts := strings.Split(key, ".")
		table := root
		for i, part := range parts[:len(parts)-1] {
			next, ok := table[part].(map[string]any)
			if !ok {
				if _, taken := table[part]; taken {
					table[strings.Join(parts[i:], ".")] = v[key]
					table = nil
					break
				}
				next = make(map[string]any)
				table[part] = next
			}
			table = next
		}
		if table != nil {
			table[parts[len(parts)-1]] = v[key]
		}
	}
	return root
}
