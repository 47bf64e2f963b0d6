// Copyright 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package sheets

import "time"

// NumberFormatType is the number-format classification of a cell, as the data source reports it.
type NumberFormatType string

const (
	FormatNone       = NumberFormatType("NONE")
	FormatText       = NumberFormatType("TEXT")
	FormatNumber     = NumberFormatType("NUMBER")
	FormatPercent    = NumberFormatType("PERCENT")
	FormatCurrency   = NumberFormatType("CURRENCY")
	FormatDate       = NumberFormatType("DATE")
	FormatTime       = NumberFormatType("TIME")
	FormatDateTime   = NumberFormatType("DATE_TIME")
	FormatScientific = NumberFormatType("SCIENTIFIC")
)

// NumberFormat is the type and the pattern of a number format.
type NumberFormat struct {
	Type    NumberFormatType `json:"type"`
	Pattern string           `json:"pattern,omitempty"`
}

// Format describes the display formatting of a cell.
type Format struct {
	NumberFormat NumberFormat `json:"numberFormat"`
}

// FormatCell is one entry of a FormatGrid: the cell's format,
// its typed value (float64, time.Time, bool or string) and its display string.
type FormatCell struct {
	Format      *Format
	Value       any
	StringValue string
}

// RawGrid is the row-major grid of display strings as returned by the data source.
// Rows may be shorter than others.
type RawGrid [][]string

// FormatGrid is parallel to a RawGrid. Missing entries are nil.
type FormatGrid [][]*FormatCell

// Cell is a typed cell value with its display string.
//
// The zero Cell is the empty cell.
// Without format metadata Value is the display string itself.
type Cell struct {
	Value       any    `json:"value,omitempty"`
	StringValue string `json:"stringValue,omitempty"`
}

// IsEmpty reports whether the cell has no content.
func (c Cell) IsEmpty() bool { return c.Value == nil && c.StringValue == "" }

// NormalizeCell packs the display string and the optional format entry into a Cell.
//
// The typed value of fc (float64, int64, bool, string or time.Time) is taken verbatim,
// and a typed value without display string gets its FormatValue as one.
// An entry without a typed value, or with any other type, degrades to the display string.
func NormalizeCell(raw string, fc *FormatCell) Cell {
	if fc == nil {
		if raw == "" {
			return Cell{}
		}
		return Cell{Value: raw, StringValue: raw}
	}
	s := fc.StringValue
	if s == "" {
		s = raw
	}
	switch v := fc.Value.(type) {
	case string:
		if v == "" && s == "" {
			return Cell{}
		}
		return Cell{Value: v, StringValue: s}
	case float64, bool, int64, time.Time:
		if s == "" {
			// hidden by the number format (";;;")
			s = FormatValue(fc.Value)
		}
		return Cell{Value: fc.Value, StringValue: s}
	}
	// no typed value, or an unexpected shape
	if s == "" {
		return Cell{}
	}
	return Cell{Value: s, StringValue: s}
}
