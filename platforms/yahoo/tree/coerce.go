package tree

import (
	"strconv"
	"strings"
)

// String returns the text of v, or "" when v is absent or not text.
func String(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case map[string]any:
		if s, ok := t[TextKey].(string); ok {
			return s
		}
	}
	return ""
}

func OptString(v any) *string {
	s := strings.TrimSpace(String(v))
	if s == "" {
		return nil
	}
	return &s
}

// Flag is true only for "1".
func Flag(v any) bool {
	return strings.TrimSpace(String(v)) == "1"
}

// Int parses v, returning 0 when absent or unparsable.
func Int(v any) int {
	if p := OptInt(v); p != nil {
		return *p
	}
	return 0
}

func OptInt(v any) *int {
	s := strings.TrimSpace(String(v))
	if s == "" {
		return nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return &n
	}
	// Counters occasionally come back as "10.0".
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	n := int(f)
	return &n
}

// Float parses v, returning 0 when absent or unparsable.
func Float(v any) float64 {
	if p := OptFloat(v); p != nil {
		return *p
	}
	return 0
}

func OptFloat(v any) *float64 {
	s := strings.TrimSpace(String(v))
	if s == "" {
		return nil
	}
	// ".325" style percentages parse fine; "-" means not available.
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

// StatLookup maps a stat's meaning to the provider's stat_id.
type StatLookup map[string]string

// Value finds name's stat in stats, which may be the stat list itself or a
// node holding it under "stat". Order of the list does not matter.
func (l StatLookup) Value(stats any, name string) any {
	id, ok := l[name]
	if !ok {
		return nil
	}
	if m, ok := stats.(map[string]any); ok {
		if inner, ok := m["stat"]; ok {
			stats = inner
		}
	}
	for _, s := range AsArray(stats) {
		if String(Get(s, "stat_id")) == id {
			return Get(s, "value")
		}
	}
	return nil
}

func (l StatLookup) Int(stats any, name string) int {
	return Int(l.Value(stats, name))
}

func (l StatLookup) Float(stats any, name string) float64 {
	return Float(l.Value(stats, name))
}

func (l StatLookup) OptInt(stats any, name string) *int {
	return OptInt(l.Value(stats, name))
}

func (l StatLookup) OptFloat(stats any, name string) *float64 {
	return OptFloat(l.Value(stats, name))
}
