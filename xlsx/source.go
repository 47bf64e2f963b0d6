// Copyright 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package xlsx

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/UNO-SOFT/sheets"
	"github.com/xuri/excelize/v2"
)

var _ = (sheets.DataSource)((*Source)(nil))

// Source is a sheets.DataSource over a local workbook.
//
// Defined names are the named ranges, the document properties
// provide the last modification time.
type Source struct {
	xl     *excelize.File
	styles map[int]*sheets.Format
	mu     sync.Mutex
}

// Open the workbook.
func Open(fn string) (*Source, error) {
	xl, err := excelize.OpenFile(fn)
	if err != nil {
		return nil, fmt.Errorf("%q: %w", fn, err)
	}
	return NewSource(xl), nil
}

// OpenReader reads the workbook from r.
func OpenReader(r io.Reader) (*Source, error) {
	xl, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	return NewSource(xl), nil
}

// NewSource wraps the opened workbook.
func NewSource(xl *excelize.File) *Source { return &Source{xl: xl} }

func (src *Source) Close() error {
	src.mu.Lock()
	defer src.mu.Unlock()
	return src.xl.Close()
}

func (src *Source) SheetNames(context.Context) ([]string, error) {
	src.mu.Lock()
	defer src.mu.Unlock()
	return src.xl.GetSheetList(), nil
}

func (src *Source) LastModified(context.Context) (string, error) {
	src.mu.Lock()
	props, err := src.xl.GetDocProps()
	src.mu.Unlock()
	if err != nil {
		return "", err
	}
	if props.Modified != "" {
		return props.Modified, nil
	}
	return props.Created, nil
}

func (src *Source) ResolveNamedRange(_ context.Context, name string) (string, error) {
	src.mu.Lock()
	defer src.mu.Unlock()
	for _, dn := range src.xl.GetDefinedName() {
		if dn.Name == name {
			return strings.TrimPrefix(dn.RefersTo, "="), nil
		}
	}
	return "", &sheets.RangeNotFoundError{Name: name}
}

func (src *Source) locate(rng string) (string, sheets.Rect, error) {
	sheet, cells := sheets.SplitA1(rng)
	if idx, err := src.xl.GetSheetIndex(sheet); err != nil || idx < 0 {
		return "", sheets.Rect{}, &sheets.RangeNotFoundError{Name: rng}
	}
	r, err := sheets.ParseRect(cells)
	return sheet, r, err
}

func (src *Source) FetchGrid(_ context.Context, rng string) (sheets.RawGrid, error) {
	src.mu.Lock()
	defer src.mu.Unlock()
	sheet, r, err := src.locate(rng)
	if err != nil {
		return nil, err
	}
	rows, err := src.xl.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%q: %w", sheet, err)
	}
	return sheets.RawGrid(rows).Slice(r), nil
}

func (src *Source) FetchGridWithFormats(_ context.Context, rng string) (sheets.RawGrid, sheets.FormatGrid, error) {
	src.mu.Lock()
	defer src.mu.Unlock()
	sheet, r, err := src.locate(rng)
	if err != nil {
		return nil, nil, err
	}
	rows, err := src.xl.GetRows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("%q: %w", sheet, err)
	}
	rawRows, err := src.xl.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, nil, fmt.Errorf("%q: %w", sheet, err)
	}
	display := sheets.RawGrid(rows).Slice(r)
	raw := sheets.RawGrid(rawRows).Slice(r)
	col0, row0 := max(r.Col0, 1), max(r.Row0, 1)
	formats := make(sheets.FormatGrid, len(display))
	for i, row := range display {
		formats[i] = make([]*sheets.FormatCell, len(row))
		for j, s := range row {
			axis, err := excelize.CoordinatesToCellName(col0+j, row0+i)
			if err != nil {
				return nil, nil, err
			}
			var rawValue string
			if i < len(raw) && j < len(raw[i]) {
				rawValue = raw[i][j]
			}
			fc, err := src.formatCell(sheet, axis, s, rawValue)
			if err != nil {
				return nil, nil, fmt.Errorf("%s!%s: %w", sheet, axis, err)
			}
			formats[i][j] = fc
		}
	}
	return display, formats, nil
}

func (src *Source) formatCell(sheet, axis, display, raw string) (*sheets.FormatCell, error) {
	styleID, err := src.xl.GetCellStyle(sheet, axis)
	if err != nil {
		return nil, err
	}
	f, err := src.format(styleID)
	if err != nil {
		return nil, err
	}
	fc := sheets.FormatCell{Format: f, StringValue: display}
	if raw == "" && display == "" {
		return &fc, nil
	}
	typ, err := src.xl.GetCellType(sheet, axis)
	if err != nil {
		return nil, err
	}
	switch typ {
	case excelize.CellTypeBool:
		fc.Value = raw == "1" || strings.EqualFold(raw, "true")
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeError:
		fc.Value = raw
	case excelize.CellTypeDate:
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			fc.Value = t
		} else {
			fc.Value = raw
		}
	default:
		// numbers and formula results
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			fc.Value = raw
			break
		}
		fc.Value = n
		switch f.NumberFormat.Type {
		case sheets.FormatDate, sheets.FormatTime, sheets.FormatDateTime:
			if t, err := excelize.ExcelDateToTime(n, false); err == nil {
				fc.Value = t
			}
		}
	}
	return &fc, nil
}

func (src *Source) format(styleID int) (*sheets.Format, error) {
	if f, ok := src.styles[styleID]; ok {
		return f, nil
	}
	style, err := src.xl.GetStyle(styleID)
	if err != nil {
		return nil, err
	}
	var f sheets.Format
	if style.CustomNumFmt != nil && *style.CustomNumFmt != "" {
		f.NumberFormat = sheets.NumberFormat{
			Type:    ClassifyPattern(*style.CustomNumFmt),
			Pattern: *style.CustomNumFmt,
		}
	} else {
		f.NumberFormat = builtinFormat(style.NumFmt)
	}
	if src.styles == nil {
		src.styles = make(map[int]*sheets.Format)
	}
	src.styles[styleID] = &f
	return &f, nil
}

func builtinFormat(id int) sheets.NumberFormat {
	pattern := builtinPatterns[id]
	switch {
	case id == 0:
		return sheets.NumberFormat{Type: sheets.FormatNone}
	case 5 <= id && id <= 8, 41 <= id && id <= 44:
		return sheets.NumberFormat{Type: sheets.FormatCurrency, Pattern: pattern}
	case id == 9 || id == 10:
		return sheets.NumberFormat{Type: sheets.FormatPercent, Pattern: pattern}
	case id == 11 || id == 48:
		return sheets.NumberFormat{Type: sheets.FormatScientific, Pattern: pattern}
	case 14 <= id && id <= 17:
		return sheets.NumberFormat{Type: sheets.FormatDate, Pattern: pattern}
	case 18 <= id && id <= 21, 45 <= id && id <= 47:
		return sheets.NumberFormat{Type: sheets.FormatTime, Pattern: pattern}
	case id == 22:
		return sheets.NumberFormat{Type: sheets.FormatDateTime, Pattern: pattern}
	case id == 49:
		return sheets.NumberFormat{Type: sheets.FormatText, Pattern: pattern}
	default:
		return sheets.NumberFormat{Type: sheets.FormatNumber, Pattern: pattern}
	}
}

var builtinPatterns = map[int]string{
	1: "0", 2: "0.00", 3: "#,##0", 4: "#,##0.00",
	9: "0%", 10: "0.00%", 11: "0.00E+00",
	14: "m/d/yyyy", 15: "d-mmm-yy", 16: "d-mmm", 17: "mmm-yy",
	18: "h:mm AM/PM", 19: "h:mm:ss AM/PM", 20: "h:mm", 21: "h:mm:ss",
	22: "m/d/yyyy h:mm",
	45: "mm:ss", 46: "[h]:mm:ss", 47: "mm:ss.0", 48: "##0.0E+0", 49: "@",
}

// ClassifyPattern returns the number format type of the custom format pattern.
func ClassifyPattern(pattern string) sheets.NumberFormatType {
	// drop quoted literals and escapes
	var b strings.Builder
	var inQuote bool
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		switch {
		case c == '"':
			inQuote = !inQuote
		case inQuote:
		case c == '\\' || c == '_' || c == '*':
			i++
		case c == '[':
			if j := strings.IndexByte(pattern[i:], ']'); j >= 0 {
				if tag := pattern[i+1 : i+j]; strings.HasPrefix(tag, "$") {
					b.WriteByte('$')
				} else if strings.Trim(strings.ToLower(tag), "hms") == "" {
					b.WriteString(tag)
				}
				i += j
			}
		default:
			b.WriteByte(c)
		}
	}
	p := strings.ToLower(b.String())
	hasDate := strings.ContainsAny(p, "yd") || strings.Contains(p, "mmm")
	hasTime := strings.ContainsAny(p, "hs")
	switch {
	case p == "general" || p == "":
		return sheets.FormatNone
	case p == "@":
		return sheets.FormatText
	case hasDate && hasTime:
		return sheets.FormatDateTime
	case hasDate:
		return sheets.FormatDate
	case hasTime:
		return sheets.FormatTime
	case strings.ContainsAny(p, "$€£¥"):
		return sheets.FormatCurrency
	case strings.Contains(p, "%"):
		return sheets.FormatPercent
	case strings.Contains(p, "e+") || strings.Contains(p, "e-"):
		return sheets.FormatScientific
	case strings.Contains(p, "m") && !strings.ContainsAny(p, "0#?"):
		return sheets.FormatDate
	default:
		return sheets.FormatNumber
	}
}
