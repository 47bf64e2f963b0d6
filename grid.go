// Copyright 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package sheets

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Rect is a 1-based, inclusive cell rectangle. Zero bounds are open.
type Rect struct {
	Col0, Row0, Col1, Row1 int
}

// ParseRect parses the cell part of an A1 range: "A1:E3", "B2", "A:C", "A2:C".
// The empty string is the whole sheet.
func ParseRect(cells string) (Rect, error) {
	if cells == "" {
		return Rect{}, nil
	}
	from, to, ok := strings.Cut(cells, ":")
	if !ok {
		to = from
	}
	var r Rect
	var err error
	if r.Col0, r.Row0, err = parseCellRef(from); err != nil {
		return r, fmt.Errorf("%q: %w", cells, err)
	}
	if r.Col1, r.Row1, err = parseCellRef(to); err != nil {
		return r, fmt.Errorf("%q: %w", cells, err)
	}
	if !ok && r.Row0 == 0 {
		r.Row0 = 1
	}
	return r, nil
}

func parseCellRef(s string) (col, row int, err error) {
	s = strings.ReplaceAll(s, "$", "")
	if strings.IndexAny(s, "0123456789") < 0 {
		col, err = excelize.ColumnNameToNumber(s)
		return col, 0, err
	}
	if strings.IndexFunc(s, func(r rune) bool { return r < '0' || '9' < r }) < 0 {
		// row only ("2:5")
		_, row, err = excelize.CellNameToCoordinates("A" + s)
		return 0, row, err
	}
	return excelize.CellNameToCoordinates(s)
}

// Slice returns the part of the grid inside the rectangle.
func (g RawGrid) Slice(r Rect) RawGrid {
	rows := sliceRows(g, r)
	out := make(RawGrid, len(rows))
	for i, row := range rows {
		out[i] = sliceCols(row, r)
	}
	return out
}

// Slice returns the part of the grid inside the rectangle.
func (g FormatGrid) Slice(r Rect) FormatGrid {
	rows := sliceRows(g, r)
	out := make(FormatGrid, len(rows))
	for i, row := range rows {
		out[i] = sliceCols(row, r)
	}
	return out
}

func sliceRows[T any](rows []T, r Rect) []T {
	from, to := 0, len(rows)
	if r.Row0 > 0 {
		from = min(r.Row0-1, len(rows))
	}
	if r.Row1 > 0 {
		to = min(r.Row1, len(rows))
	}
	if from >= to {
		return nil
	}
	return rows[from:to]
}

func sliceCols[T any](row []T, r Rect) []T {
	from, to := 0, len(row)
	if r.Col0 > 0 {
		from = min(r.Col0-1, len(row))
	}
	if r.Col1 > 0 {
		to = min(r.Col1, len(row))
	}
	if from >= to {
		return nil
	}
	return row[from:to]
}
