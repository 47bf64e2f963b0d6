// Copyright 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package sheets

import (
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCell(t *testing.T) {
	date := time.Date(2016, 1, 25, 0, 0, 0, 0, time.UTC)
	for name, tc := range map[string]struct {
		raw  string
		fc   *FormatCell
		want Cell
	}{
		"empty":         {want: Cell{}},
		"plain":         {raw: "Ann", want: Cell{Value: "Ann", StringValue: "Ann"}},
		"currency":      {raw: "$0.41", fc: &FormatCell{Format: &Format{NumberFormat{Type: FormatCurrency}}, Value: 0.41, StringValue: "$0.41"}, want: Cell{Value: 0.41, StringValue: "$0.41"}},
		"date":          {raw: "1/25/2016", fc: &FormatCell{Value: date, StringValue: "1/25/2016"}, want: Cell{Value: date, StringValue: "1/25/2016"}},
		"bool":          {raw: "TRUE", fc: &FormatCell{Value: true}, want: Cell{Value: true, StringValue: "TRUE"}},
		"empty format":  {fc: &FormatCell{Format: &Format{}}, want: Cell{}},
		"empty string":  {fc: &FormatCell{Value: ""}, want: Cell{}},
		"no value":      {raw: "x", fc: &FormatCell{StringValue: "x"}, want: Cell{Value: "x", StringValue: "x"}},
		"hidden number": {fc: &FormatCell{Format: &Format{NumberFormat{Type: FormatNumber, Pattern: ";;;"}}, Value: 5.0}, want: Cell{Value: 5.0, StringValue: "5"}},
		"unknown shape": {raw: "[1 2]", fc: &FormatCell{Value: []int{1, 2}}, want: Cell{Value: "[1 2]", StringValue: "[1 2]"}},
	} {
		t.Run(name, func(t *testing.T) {
			got := NormalizeCell(tc.raw, tc.fc)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.want.IsEmpty(), got.IsEmpty())
		})
	}
}

func TestBuildTablePlain(t *testing.T) {
	tbl := BuildTable("People", RawGrid{{"Name", "Age"}, {"Ann", "5"}, {"", ""}}, nil)
	assert.Equal(t, "People", tbl.Title)
	assert.Equal(t, []string{"Name", "Age"}, tbl.Headers)
	assert.Equal(t, []*Format{nil, nil}, tbl.Formats)
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, []string{"Name", "Age"}, tbl.Rows[0].Keys())
	assert.Equal(t, Cell{Value: "Ann", StringValue: "Ann"}, tbl.Rows[0].Get("Name"))
	assert.Equal(t, Cell{Value: "5", StringValue: "5"}, tbl.Rows[0].Get("Age"))
}

func TestBuildTableTrailingHeaders(t *testing.T) {
	tbl := BuildTable("x", RawGrid{{"A", "B", "", ""}, {"1", "2", "3"}}, nil)
	assert.Equal(t, []string{"A", "B"}, tbl.Headers)
	assert.Len(t, tbl.Formats, 2)
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, 2, tbl.Rows[0].Len())
}

func TestBuildTableSparse(t *testing.T) {
	grid := RawGrid{
		{"Name", "Gender", "Class", "State", "Major"},
		{"Alexandra", "Female", "4. Senior", "CA", "English"},
		{"Andrew", "", "1. Freshman", "SD", "Math"},
		{},
		{"Anna", "Female"},
		{"", "", "", "", "Art"},
		{"", ""},
		{},
	}
	tbl := BuildTable("Table with empty cells", grid, nil)
	assert.Len(t, tbl.Headers, 5)
	require.Len(t, tbl.Rows, 4)
	values := func(r Row) []any {
		var vs []any
		for _, c := range r.Values() {
			vs = append(vs, c.Value)
		}
		return vs
	}
	assert.Equal(t, []any{"Andrew", nil, "1. Freshman", "SD", "Math"}, values(tbl.Rows[1]))
	assert.Equal(t, []any{"Anna", "Female", nil, nil, nil}, values(tbl.Rows[2]))
	assert.Equal(t, []any{nil, nil, nil, nil, "Art"}, values(tbl.Rows[3]))
	for _, r := range tbl.Rows {
		assert.Equal(t, tbl.Headers, r.Keys())
	}
}

func TestBuildTableEmpty(t *testing.T) {
	for _, grid := range []RawGrid{nil, {}, {{}}, {{"", ""}}} {
		tbl := BuildTable("Empty", grid, nil)
		assert.Empty(t, tbl.Headers)
		assert.Empty(t, tbl.Formats)
		assert.Empty(t, tbl.Rows)
		assert.NotNil(t, tbl.Rows)
	}
}

func TestBuildTableHeaderOnly(t *testing.T) {
	tbl := BuildTable("A02", RawGrid{{"Thomas"}}, nil)
	assert.Equal(t, []string{"Thomas"}, tbl.Headers)
	assert.Empty(t, tbl.Rows)
}

func TestBuildTableFormats(t *testing.T) {
	f := func(typ NumberFormatType) *Format { return &Format{NumberFormat{Type: typ}} }
	date := time.Date(2016, 1, 25, 0, 0, 0, 0, time.UTC)
	raw := RawGrid{
		{"Automatic", "Currency", "Date", "Number", "Plain Text"},
		{"Oil", "$0.41", "1/25/2016", "123.00", "This is some text"},
		{"Gas", "$1.00"},
	}
	formats := FormatGrid{
		{{Format: f(FormatNone)}, {Format: f(FormatCurrency)}, {Format: f(FormatDate)}, {Format: f(FormatNumber)}, {Format: f(FormatText)}},
		{
			{Format: f(FormatNone), Value: "Oil", StringValue: "Oil"},
			{Format: f(FormatCurrency), Value: 0.41, StringValue: "$0.41"},
			{Format: f(FormatDate), Value: date, StringValue: "1/25/2016"},
			{Format: f(FormatNumber), Value: 123.0, StringValue: "123.00"},
			{Format: f(FormatText), Value: "This is some text", StringValue: "This is some text"},
		},
		{
			{Format: f(FormatNone), Value: "Gas", StringValue: "Gas"},
			{Format: f(FormatCurrency), Value: 1.0, StringValue: "$1.00"},
		},
	}
	tbl := BuildTable("Formats", raw, formats)
	require.Len(t, tbl.Formats, 5)
	var types []NumberFormatType
	for _, f := range tbl.Formats {
		types = append(types, f.NumberFormat.Type)
	}
	assert.Equal(t, []NumberFormatType{FormatNone, FormatCurrency, FormatDate, FormatNumber, FormatText}, types)
	require.Len(t, tbl.Rows, 2)
	r := tbl.Rows[0]
	assert.Equal(t, Cell{Value: "Oil", StringValue: "Oil"}, r.Get("Automatic"))
	assert.Equal(t, Cell{Value: 0.41, StringValue: "$0.41"}, r.Get("Currency"))
	assert.Equal(t, Cell{Value: date, StringValue: "1/25/2016"}, r.Get("Date"))
	assert.Equal(t, Cell{Value: 123.0, StringValue: "123.00"}, r.Get("Number"))
	assert.Equal(t, Cell{}, tbl.Rows[1].Get("Date"))
}

func TestBuildTableDuplicateHeaders(t *testing.T) {
	tbl := BuildTable("dup", RawGrid{{"A", "B", "A"}, {"1", "2", "3"}}, nil)
	assert.Equal(t, []string{"A", "B", "A"}, tbl.Headers)
	assert.Len(t, tbl.Formats, 3)
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, []string{"A", "B"}, tbl.Rows[0].Keys())
	assert.Equal(t, "3", tbl.Rows[0].Get("A").Value)
	assert.Equal(t, "1", tbl.Rows[0].At(0).Value)
	assert.Equal(t, "2", tbl.Rows[0].At(1).Value)
	assert.Equal(t, "3", tbl.Rows[0].At(2).Value)
	assert.Equal(t, Cell{}, tbl.Rows[0].At(3))
}

func TestColumns(t *testing.T) {
	tbl := BuildTable("t", RawGrid{{"Name", "Age"}, {"Ann", "5"}, {"Bob"}, {"", "7"}}, nil)
	cols := tbl.Columns()
	require.Len(t, cols, len(tbl.Headers))
	for i, c := range cols {
		assert.Equal(t, tbl.Headers[i], c.Header)
		require.Len(t, c.Cells, len(tbl.Rows))
		for r, row := range tbl.Rows {
			assert.Equal(t, row.Get(tbl.Headers[i]), c.Cells[r])
		}
	}
	assert.Equal(t, Cell{}, cols[1].Cells[1])
}

func TestRowJSON(t *testing.T) {
	tbl := BuildTable("t", RawGrid{{"Z", "A"}, {"z", ""}}, nil)
	b, err := jsoniter.Marshal(tbl.Rows[0])
	require.NoError(t, err)
	assert.Equal(t, `{"Z":{"value":"z","stringValue":"z"},"A":{}}`, string(b))
}
