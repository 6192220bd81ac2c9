package model

import "strconv"

// Parameters holds structured (dropdown-sourced) field values on a decision
// or assumption. Values are strings, string lists, or numbers; anything else
// is ignored by the accessors, which degrade to "absent" rather than fail.
type Parameters map[string]any

// String returns the string value for key, or "" if absent or not a string.
func (p Parameters) String(key string) string {
	if p == nil {
		return ""
	}
	if s, ok := p[key].(string); ok {
		return s
	}
	return ""
}

// Number returns the numeric value for key. Numeric strings are accepted
// because parameter maps round-trip through JSON and YAML.
func (p Parameters) Number(key string) (float64, bool) {
	if p == nil {
		return 0, false
	}
	switch v := p[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// StringList returns the list value for key. A scalar string is returned as
// a single-element list.
func (p Parameters) StringList(key string) []string {
	if p == nil {
		return nil
	}
	switch v := p[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		return []string{v}
	default:
		return nil
	}
}

// Has reports whether key is present with a non-empty value.
func (p Parameters) Has(key string) bool {
	if p == nil {
		return false
	}
	v, ok := p[key]
	if !ok || v == nil {
		return false
	}
	if s, isStr := v.(string); isStr {
		return s != ""
	}
	return true
}
