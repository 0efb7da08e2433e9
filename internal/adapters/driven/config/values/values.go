// Package values converts loosely typed config values. TOML decodes
// integers as int64 and arrays as []any; callers setting values in code
// use int and []string.
package values

import "strings"

// String returns v when it is a string.
func String(v any) string {
	s, _ := v.(string)
	return s
}

// Int accepts any of the integer shapes decoders produce.
func Int(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}

// Bool returns v when it is a bool.
func Bool(v any) bool {
	b, _ := v.(bool)
	return b
}

// Strings copies a string list, dropping non-string items.
func Strings(v any) []string {
	switch list := v.(type) {
	case []string:
		return append([]string(nil), list...)
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Section collects the keys of flat that sit under prefix, with the prefix
// and its dot removed.
func Section(flat map[string]any, prefix string) map[string]any {
	prefix += "."
	out := make(map[string]any)
	for key, v := range flat {
		if rest, ok := strings.CutPrefix(key, prefix); ok && rest != "" {
			out[rest] = v
		}
	}
	return out
}
