// Copyright 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package sheets

import (
	"bytes"

	jsoniter "github.com/json-iterator/go"
)

// Table is the header-indexed materialization of a grid.
//
// len(Formats) == len(Headers), and every Row has one key per distinct header.
type Table struct {
	Title   string    `json:"title"`
	Headers []string  `json:"headers"`
	Formats []*Format `json:"formats"`
	Rows    []Row     `json:"rows"`
}

// Row maps the header names to the Cells, in header order.
//
// When a header name occurs more than once, the key keeps its first
// position and the last column's value wins; At still returns every column.
type Row struct {
	keys  []string
	cells map[string]Cell
	cols  []Cell
}

// Keys returns the header names of the row, in order.
func (r Row) Keys() []string { return r.keys }

// Len returns the number of keys.
func (r Row) Len() int { return len(r.keys) }

// Get returns the Cell under the header. Unknown headers return the empty Cell.
func (r Row) Get(header string) Cell { return r.cells[header] }

// At returns the Cell of the i-th header column, or the empty Cell if out of range.
func (r Row) At(i int) Cell {
	if i < 0 || i >= len(r.cols) {
		return Cell{}
	}
	return r.cols[i]
}

// Values returns the cells in key order.
func (r Row) Values() []Cell {
	cells := make([]Cell, len(r.keys))
	for i, k := range r.keys {
		cells[i] = r.cells[k]
	}
	return cells
}

func (r *Row) set(k string, c Cell) {
	if r.cells == nil {
		r.cells = make(map[string]Cell, cap(r.keys))
	}
	if _, ok := r.cells[k]; !ok {
		r.keys = append(r.keys, k)
	}
	r.cells[k] = c
}

// MarshalJSON encodes the row as an object, keeping the key order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i != 0 {
			buf.WriteByte(',')
		}
		b, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(b)
		buf.WriteByte(':')
		if b, err = jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(r.cells[k]); err != nil {
			return nil, err
		}
		buf.Write(b)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// BuildTable materializes the grid: the first row is the header,
// trailing empty header cells are dropped, and so are the data rows
// without any content in the header columns.
//
// formats may be nil, then every Cell's Value is its display string.
func BuildTable(title string, raw RawGrid, formats FormatGrid) Table {
	t := Table{Title: title, Headers: []string{}, Formats: []*Format{}, Rows: []Row{}}
	if len(raw) == 0 {
		return t
	}
	header := raw[0]
	n := len(header)
	for n > 0 && header[n-1] == "" {
		n--
	}
	t.Headers = append(t.Headers, header[:n]...)
	t.Formats = make([]*Format, n)
	if len(formats) != 0 {
		for i := range t.Formats {
			if fc := formatAt(formats, 0, i); fc != nil {
				t.Formats[i] = fc.Format
			}
		}
	}

	for r := 1; r < len(raw); r++ {
		row := Row{keys: make([]string, 0, n), cols: make([]Cell, n)}
		var hasContent bool
		for i, h := range t.Headers {
			var s string
			if i < len(raw[r]) {
				s = raw[r][i]
			}
			c := NormalizeCell(s, formatAt(formats, r, i))
			hasContent = hasContent || !c.IsEmpty()
			row.cols[i] = c
			row.set(h, c)
		}
		if hasContent {
			t.Rows = append(t.Rows, row)
		}
	}
	return t
}

func formatAt(formats FormatGrid, r, i int) *FormatCell {
	if r >= len(formats) || i >= len(formats[r]) {
		return nil
	}
	return formats[r][i]
}

// Column is one header's cells of a Table.
type Column struct {
	Header string  `json:"header"`
	Format *Format `json:"format,omitempty"`
	Cells  []Cell  `json:"cells"`
}

// Columns returns the column-oriented view of the table:
// Columns()[i].Cells[r] == t.Rows[r].Get(t.Headers[i]).
func (t Table) Columns() []Column {
	cols := make([]Column, len(t.Headers))
	for i, h := range t.Headers {
		cols[i] = Column{Header: h, Format: t.Formats[i], Cells: make([]Cell, len(t.Rows))}
		for r, row := range t.Rows {
			cols[i].Cells[r] = row.Get(h)
		}
	}
	return cols
}
