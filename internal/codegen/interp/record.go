package interp

import (
	"fmt"
	"sort"
	"strings"
)

// Record is the in-memory value of one struct instance. Field values use
// int64, uint64, float32, float64, bool, string (fixed strings), *string
// (string pointers), *Record (inline and pointed-to structs) and []any
// (arrays). A missing field reads as the zero value of its member type.
type Record struct {
	Fields map[string]any
}

func NewRecord() *Record {
	return &Record{Fields: make(map[string]any)}
}

// Set assigns a field and returns r for chaining.
func (r *Record) Set(name string, v any) *Record {
	if r.Fields == nil {
		r.Fields = make(map[string]any)
	}
	r.Fields[name] = v
	return r
}

// Get returns a field value.
func (r *Record) Get(name string) (any, bool) {
	v, ok := r.Fields[name]
	return v, ok
}

func (r *Record) String() string {
	if r == nil {
		return "null"
	}
	names := make([]string, 0, len(r.Fields))
	for n := range r.Fields {
		names = append(names, n)
	}
	sort.Strings(names)
	var b strings.Builder
	b.WriteByte('{')
	for i, n := range names {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s: %s", n, formatValue(r.Fields[n]))
	}
	b.WriteByte('}')
	return b.String()
}

func formatValue(v any) string {
	switch t := v.(type) {
	case *string:
		if t == nil {
			return "null"
		}
		return fmt.Sprintf("&%q", *t)
	case string:
		return fmt.Sprintf("%q", t)
	case *Record:
		return t.String()
	case []any:
		parts := make([]string, len(t))
		for i, e := range t {
			parts[i] = formatValue(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return fmt.Sprint(v)
	}
}

// Str returns a pointer to s, for StringPointer fields.
func Str(s string) *string { return &s }
