package core

import "fmt"

// Row is one record read from a source. Each adapter documents the concrete
// value types it places in a Row.
type Row []any

// Strings renders every value with fmt's default formatting. Nil values
// become the empty string.
func (r Row) Strings() []string {
	out := make([]string, len(r))
	for i, v := range r {
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok {
			out[i] = s
			continue
		}
		out[i] = fmt.Sprint(v)
	}
	return out
}

// Record is an ordered name→value mapping. Go maps do not keep insertion
// order, so writers that must honor the caller's field order take a Record.
type Record struct {
	Names  []string
	Values []any
}

// NewRecord pairs names with values. Both slices must have the same length.
func NewRecord(names []string, values []any) (Record, error) {
	if len(names) != len(values) {
		return Record{}, fmt.Errorf("record has %d names but %d values", len(names), len(values))
	}
	return Record{Names: names, Values: values}, nil
}

// Len returns the number of fields in the record.
func (r Record) Len() int {
	return len(r.Names)
}

// Get returns the value stored under name.
func (r Record) Get(name string) (any, bool) {
	for i, n := range r.Names {
		if n == name {
			return r.Values[i], true
		}
	}
	return nil, false
}
