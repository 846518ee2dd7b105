// Package transformer turns wide source rows into normalized flight legs.
// This file defines the pooled Row shared by the readers and the segmenter
// to keep heap churn low on large spreadsheets.
package transformer

import "sync"

// Row is a pooled positional row aligned to Layout.Columns.
//
// Contract:
//   - The reader writes raw cell text into V[i] (string) or nil for missing.
//   - The consumer calls Free once it no longer needs the row.
//   - Do not retain r or r.V after Free.
type Row struct {
	V     []any
	Line  int    // 1-based source line; the header is line 1
	Sheet string // workbook sheet, empty for CSV
}

var rowPool sync.Pool

// GetRow returns a pooled Row with len(V) == colCount, all elements nil.
func GetRow(colCount int) *Row {
	if v := rowPool.Get(); v != nil {
		r := v.(*Row)
		if cap(r.V) < colCount {
			r.V = make([]any, colCount)
		}
		r.V = r.V[:colCount]
		for i := range r.V {
			r.V[i] = nil
		}
		r.Line, r.Sheet = 0, ""
		return r
	}
	return &Row{V: make([]any, colCount)}
}

// Free returns the Row to the pool.
func (r *Row) Free() {
	rowPool.Put(r)
}

// Str returns V[i] as a string; nil, out of range and negative i yield "".
func (r *Row) Str(i int) string {
	if i < 0 || i >= len(r.V) {
		return ""
	}
	s, _ := r.V[i].(string)
	return s
}
