package model

import (
	"sort"
	"strings"
)

// Row is a sparse vehicle record keyed by lowercase column name. Missing keys
// are absent values.
type Row map[string]Value

// NewRow returns an empty row.
func NewRow() Row { return make(Row) }

// Get returns the value for col, absent if unset.
func (r Row) Get(col string) Value {
	if r == nil {
		return Value{}
	}
	return r[col]
}

// Set stores v under col. Absent values delete the column.
func (r Row) Set(col string, v Value) {
	if v.IsAbsent() {
		delete(r, col)
		return
	}
	r[col] = v
}

// SetNum stores a number.
func (r Row) SetNum(col string, f float64) { r.Set(col, Number(f)) }

// SetStr stores a string; blank strings delete the column.
func (r Row) SetStr(col, s string) {
	if strings.TrimSpace(s) == "" {
		delete(r, col)
		return
	}
	r[col] = String(s)
}

// SetBool stores a boolean.
func (r Row) SetBool(col string, b bool) { r.Set(col, Bool(b)) }

// Delete removes col.
func (r Row) Delete(col string) { delete(r, col) }

// Num returns the column as a number if it holds one.
func (r Row) Num(col string) (float64, bool) {
	return r.Get(col).AsNumber()
}

// Str returns the column rendered as text ("" when absent).
func (r Row) Str(col string) string {
	return r.Get(col).Text()
}

// Missing reports whether col is absent or a blank string.
func (r Row) Missing(col string) bool {
	v := r.Get(col)
	if v.IsAbsent() {
		return true
	}
	if s, ok := v.AsString(); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

// Year returns the model year as an int.
func (r Row) Year() (int, bool) {
	f, ok := r.Num(ColYear)
	if !ok {
		return 0, false
	}
	return int(f), true
}

// Clone returns a shallow copy; values are immutable so this is a full copy.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Columns returns the row's columns sorted.
func (r Row) Columns() []string {
	cols := make([]string, 0, len(r))
	for k := range r {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}
