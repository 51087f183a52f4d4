package series

import (
	"fmt"
	"time"
)

// Row is a single record in a Series: a mapping from column key to value
// that remembers the order columns were first set in. A column can be
// written once; a second write is an OverwriteError.
type Row struct {
	keys []string
	vals map[string]any
}

func NewRow() *Row {
	return &Row{vals: make(map[string]any)}
}

// RowOf builds a row from alternating key/value pairs, preserving pair order.
// It panics on a duplicate key or an odd pair count; it is meant for
// literal construction in engine code and tests.
func RowOf(pairs ...any) *Row {
	if len(pairs)%2 != 0 {
		panic("series: RowOf requires key/value pairs")
	}
	r := NewRow()
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			panic(fmt.Sprintf("series: RowOf key %v is not a string", pairs[i]))
		}
		if err := r.Set(key, pairs[i+1]); err != nil {
			panic(err)
		}
	}
	return r
}

// Set writes a column. Writing a key that is already present returns an
// OverwriteError; existing values are never silently replaced.
func (r *Row) Set(key string, v any) error {
	if _, ok := r.vals[key]; ok {
		return &OverwriteError{Key: key}
	}
	r.keys = append(r.keys, key)
	r.vals[key] = v
	return nil
}

func (r *Row) Get(key string) (any, bool) {
	v, ok := r.vals[key]
	return v, ok
}

func (r *Row) Has(key string) bool {
	_, ok := r.vals[key]
	return ok
}

// Float reads a numeric column, converting integer values as needed.
func (r *Row) Float(key string) (float64, bool) {
	v, ok := r.vals[key]
	if !ok {
		return 0, false
	}
	return toFloat(v)
}

// Time reads a time.Time column.
func (r *Row) Time(key string) (time.Time, bool) {
	v, ok := r.vals[key]
	if !ok {
		return time.Time{}, false
	}
	t, ok := v.(time.Time)
	return t, ok
}

// Keys returns the column keys in insertion order.
func (r *Row) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

func (r *Row) Len() int {
	return len(r.keys)
}

// Clone returns an independent copy. Values are copied shallowly; rows are
// treated as immutable once appended, so shared values are fine.
func (r *Row) Clone() *Row {
	c := &Row{
		keys: make([]string, len(r.keys)),
		vals: make(map[string]any, len(r.vals)),
	}
	copy(c.keys, r.keys)
	for k, v := range r.vals {
		c.vals[k] = v
	}
	return c
}

func toFloat(v any) (float64, bool) {
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
