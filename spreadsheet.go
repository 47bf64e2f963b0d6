// Copyright 2020, 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

// Package sheets materializes the cell grids of a remote spreadsheet
// into header-indexed tables.
package sheets

import (
	"errors"
	"fmt"
	"io"
)

var (
	// ErrConfiguration is returned for a missing or invalid spreadsheet identifier.
	ErrConfiguration = errors.New("configuration error")
	// ErrAuthorization is returned when the credentials are missing or invalid,
	// or a fetch is attempted before authorization.
	ErrAuthorization = errors.New("not authorized")
	// ErrRangeNotFound is returned when a descriptor matches neither
	// a sheet nor a named range.
	ErrRangeNotFound = errors.New("range not found")

	ErrTooManyRows = errors.New("too many rows")
)

// RangeNotFoundError names the descriptor that could not be resolved.
type RangeNotFoundError struct {
	Name string
}

func (e *RangeNotFoundError) Error() string {
	return fmt.Sprintf("%q: %s", e.Name, ErrRangeNotFound)
}
func (e *RangeNotFoundError) Is(target error) bool { return target == ErrRangeNotFound }

// Writer writes the spreadsheet consisting of the sheets created
// with NewSheet. The write finishes when Close is called.
//
// The writer SHOULD allow writing to separate sheets concurrently,
// and document if it does not provide this functionality.
type Writer interface {
	io.Closer
	NewSheet(name string, cols []ColumnSpec) (SheetWriter, error)
}

// SheetWriter should be Closed when finished.
type SheetWriter interface {
	io.Closer
	AppendRow(values ...any) error
}

// Style is a style for a column/row/cell.
type Style struct {
	// Format is the number format
	Format string
	// FontBold is true if the font is bold
	FontBold bool
}

// ColumnSpec contains the Name of the column and header's style and column's style.
type ColumnSpec struct {
	Name           string
	Header, Column Style
}

// WriteTables writes each table as a separate sheet of w,
// the headers in bold, the columns with their number format pattern.
// Cells are written by column position, so duplicate headers keep their own values.
//
// w is not closed.
func WriteTables(w Writer, tables ...Table) error {
	for _, t := range tables {
		cols := make([]ColumnSpec, len(t.Headers))
		for i, h := range t.Headers {
			cols[i].Name = h
			cols[i].Header.FontBold = true
			if i < len(t.Formats) && t.Formats[i] != nil {
				f := t.Formats[i]
				cols[i].Column.Format = f.NumberFormat.Pattern
			}
		}
		sheet, err := w.NewSheet(t.Title, cols)
		if err != nil {
			return fmt.Errorf("%q: %w", t.Title, err)
		}
		values := make([]any, len(t.Headers))
		for _, row := range t.Rows {
			for i := range values {
				values[i] = row.At(i).Value
			}
			if err = sheet.AppendRow(values...); err != nil {
				sheet.Close()
				return fmt.Errorf("%q: %w", t.Title, err)
			}
		}
		if err = sheet.Close(); err != nil {
			return fmt.Errorf("%q: %w", t.Title, err)
		}
	}
	return nil
}
