// Copyright 2020, 2023, 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

// Package xlsx reads and writes tables as Excel workbooks.
package xlsx

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/UNO-SOFT/sheets"
	"github.com/xuri/excelize/v2"
)

var _ = (sheets.Writer)((*XLSXWriter)(nil))

type XLSXWriter struct {
	w      io.Writer
	xl     *excelize.File
	styles map[string]int
	sheets []string
	mu     sync.Mutex
}

type XLSXSheet struct {
	xl   *excelize.File
	Name string
	row  int64
	mu   sync.Mutex
}

// NewWriter returns a new sheets.Writer.
//
// This writer allows concurrent writes to separate sheets.
//
// This writer collects everything in memory, so big sheets may impose problems.
func NewWriter(w io.Writer) *XLSXWriter {
	return &XLSXWriter{w: w, xl: excelize.NewFile()}
}

func (xlw *XLSXWriter) Close() error {
	if xlw == nil {
		return nil
	}
	xlw.mu.Lock()
	defer xlw.mu.Unlock()
	xl, w := xlw.xl, xlw.w
	xlw.xl, xlw.w = nil, nil
	if xl == nil || w == nil {
		return nil
	}
	defer xl.Close()
	_, err := xl.WriteTo(w)
	return err
}

// MaxSheetNameLength is the maximum length of a sheet name in Excel.
const MaxSheetNameLength = 31

func (xlw *XLSXWriter) NewSheet(name string, columns []sheets.ColumnSpec) (sheets.SheetWriter, error) {
	xlw.mu.Lock()
	defer xlw.mu.Unlock()
	if r := []rune(name); len(r) > MaxSheetNameLength {
		name = string(r[:MaxSheetNameLength])
	}
	xlw.sheets = append(xlw.sheets, name)
	if len(xlw.sheets) == 1 { // first
		if err := xlw.xl.SetSheetName("Sheet1", name); err != nil {
			return nil, err
		}
	} else if _, err := xlw.xl.NewSheet(name); err != nil {
		return nil, fmt.Errorf("%q: %w", name, err)
	}
	var hasHeader bool
	for i, c := range columns {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		s, err := xlw.getStyle(c.Column)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", c.Name, err)
		}
		if s != 0 {
			if err = xlw.xl.SetColStyle(name, col, s); err != nil {
				return nil, err
			}
		}
		if s, err = xlw.getStyle(c.Header); err != nil {
			return nil, fmt.Errorf("%q: %w", c.Name, err)
		}
		if s != 0 {
			if err = xlw.xl.SetCellStyle(name, col+"1", col+"1", s); err != nil {
				return nil, err
			}
		}
		if c.Name != "" {
			hasHeader = true
			if err = xlw.xl.SetCellStr(name, col+"1", c.Name); err != nil {
				return nil, err
			}
		}
	}
	xls := &XLSXSheet{xl: xlw.xl, Name: name}
	if hasHeader {
		xls.row++
	}
	return xls, nil
}

func (xlw *XLSXWriter) getStyle(style sheets.Style) (int, error) {
	if !style.FontBold && style.Format == "" {
		return 0, nil
	}
	k := fmt.Sprintf("%t\t%s", style.FontBold, style.Format)
	s, ok := xlw.styles[k]
	if ok {
		return s, nil
	}
	var st excelize.Style
	if style.FontBold {
		st.Font = &excelize.Font{Bold: true}
	}
	if style.Format != "" {
		st.CustomNumFmt = &style.Format
	}
	s, err := xlw.xl.NewStyle(&st)
	if err != nil {
		return 0, err
	}
	if xlw.styles == nil {
		xlw.styles = make(map[string]int)
	}
	xlw.styles[k] = s
	return s, nil
}

// MaxRowCount is the number of maximum rows.
const MaxRowCount = 1_048_576

func (xls *XLSXSheet) Close() error { return nil }
func (xls *XLSXSheet) AppendRow(values ...any) error {
	xls.mu.Lock()
	defer xls.mu.Unlock()
	if xls.row >= MaxRowCount {
		return sheets.ErrTooManyRows
	}
	xls.row++
	for i, v := range values {
		if v == nil {
			continue
		}
		axis, err := excelize.CoordinatesToCellName(i+1, int(xls.row))
		if err != nil {
			return fmt.Errorf("%d/%d: %w", i, int(xls.row), err)
		}
		switch x := v.(type) {
		case time.Time:
			if x.IsZero() {
				continue
			}
			err = xls.xl.SetCellValue(xls.Name, axis, x)
		case float64:
			err = xls.xl.SetCellFloat(xls.Name, axis, x, -1, 64)
		case int64:
			err = xls.xl.SetCellInt(xls.Name, axis, x)
		case bool:
			err = xls.xl.SetCellBool(xls.Name, axis, x)
		case string:
			err = xls.xl.SetCellStr(xls.Name, axis, x)
		case fmt.Stringer:
			err = xls.xl.SetCellStr(xls.Name, axis, x.String())
		default:
			err = xls.xl.SetCellValue(xls.Name, axis, v)
		}
		if err != nil {
			return fmt.Errorf("%s[%s]: %w", xls.Name, axis, err)
		}
	}
	return nil
}
