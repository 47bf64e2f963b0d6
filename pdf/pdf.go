// Copyright 2021, 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

// Package pdf renders tables as PDF table lists.
package pdf

import (
	"encoding/hex"
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontfamily"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/UNO-SOFT/sheets"
)

var _ = (sheets.Writer)((*PDFWriter)(nil))

// Options of the rendering.
type Options struct {
	// AlternateColor is the background of every second row, nil for none.
	AlternateColor *Color
	FontSize       float64
	Landscape      bool
}

// PDFWriter collects the sheets and renders them on Close.
//
// This writer allows concurrent writes to separate sheets.
type PDFWriter struct {
	w      io.Writer
	opts   Options
	sheets []*pdfSheet
	mu     sync.Mutex
}

type pdfSheet struct {
	name    string
	headers []string
	rows    [][]string
	mu      sync.Mutex
}

// NewWriter returns a new sheets.Writer rendering into w.
func NewWriter(w io.Writer, opts Options) *PDFWriter {
	if opts.FontSize <= 0 {
		opts.FontSize = 8
	}
	return &PDFWriter{w: w, opts: opts}
}

func (pw *PDFWriter) NewSheet(name string, cols []sheets.ColumnSpec) (sheets.SheetWriter, error) {
	ps := pdfSheet{name: name, headers: make([]string, len(cols))}
	for i, c := range cols {
		ps.headers[i] = c.Name
	}
	pw.mu.Lock()
	pw.sheets = append(pw.sheets, &ps)
	pw.mu.Unlock()
	return &ps, nil
}

func (ps *pdfSheet) AppendRow(values ...any) error {
	row := make([]string, len(values))
	for i, v := range values {
		row[i] = sheets.FormatValue(v)
	}
	ps.mu.Lock()
	ps.rows = append(ps.rows, row)
	ps.mu.Unlock()
	return nil
}
func (ps *pdfSheet) Close() error { return nil }

// gridSizes distributes the grid by the average cell width of the columns.
func (ps *pdfSheet) gridSizes() []int {
	widths := make([]float64, len(ps.headers))
	var avg float64
	for i, s := range ps.headers {
		widths[i] = float64(len(s))
		avg += widths[i]
	}
	for _, row := range ps.rows {
		for i, s := range row {
			if i < len(widths) {
				widths[i] += float64(len(s))
				avg += float64(len(s))
			}
		}
	}
	gridSize := make([]int, len(widths))
	if len(widths) == 0 {
		return gridSize
	}
	avg /= float64(len(widths))
	for i, w := range widths {
		if avg > 0 {
			gridSize[i] = int(math.Round(4 * w / avg))
		}
		if gridSize[i] == 0 {
			gridSize[i] = 1
		}
	}
	return gridSize
}

// Close renders the collected sheets into the underlying writer.
func (pw *PDFWriter) Close() error {
	pw.mu.Lock()
	defer pw.mu.Unlock()
	if pw.w == nil {
		return nil
	}
	w := pw.w
	pw.w = nil

	sizes := make([][]int, len(pw.sheets))
	maxGrid := 1
	for i, ps := range pw.sheets {
		sizes[i] = ps.gridSizes()
		var sum int
		for _, n := range sizes[i] {
			sum += n
		}
		maxGrid = max(maxGrid, sum)
	}
	orient := orientation.Vertical
	if pw.opts.Landscape {
		orient = orientation.Horizontal
	}
	m := maroto.New(config.NewBuilder().
		WithOrientation(orient).
		WithMaxGridSize(maxGrid).
		Build())

	fontSize := pw.opts.FontSize
	titleProp := props.Text{Family: fontfamily.Arial, Style: fontstyle.Bold, Size: fontSize * 1.75}
	headerProp := props.Text{Family: fontfamily.Arial, Style: fontstyle.Bold, Size: fontSize * 1.375, Align: align.Center}
	contentProp := props.Text{Family: fontfamily.Courier, Style: fontstyle.Normal, Size: fontSize, Align: align.Center}
	var alternate *props.Cell
	if c := pw.opts.AlternateColor; c != nil {
		alternate = &props.Cell{BackgroundColor: &props.Color{Red: c.Red, Green: c.Green, Blue: c.Blue}}
	}
	for i, ps := range pw.sheets {
		if i != 0 {
			m.AddRow(fontSize * 1.2)
		}
		m.AddRow(fontSize*1.75, text.NewCol(maxGrid, ps.name, titleProp))
		m.AddRow(fontSize*1.2, textCols(sizes[i], ps.headers, headerProp)...)
		for j, row := range ps.rows {
			r := m.AddRow(fontSize*0.75, textCols(sizes[i], row, contentProp)...)
			if alternate != nil && j%2 == 1 {
				r.WithStyle(alternate)
			}
		}
	}
	doc, err := m.Generate()
	if err != nil {
		return err
	}
	_, err = w.Write(doc.GetBytes())
	return err
}

func textCols(sizes []int, values []string, prop props.Text) []core.Col {
	cols := make([]core.Col, len(sizes))
	for i, n := range sizes {
		var s string
		if i < len(values) {
			s = values[i]
		}
		cols[i] = text.NewCol(n, s, prop)
	}
	return cols
}

// Color is an RGB color, in hex form: e6e6e6.
type Color struct {
	Red, Green, Blue int
}

func (c *Color) String() string {
	return fmt.Sprintf("%02x%02x%02x", c.Red, c.Green, c.Blue)
}
func (c *Color) Set(s string) error { return c.Parse(s) }
func (c *Color) Parse(s string) error {
	b, err := hex.DecodeString(s)
	if err != nil {
		return err
	}
	if len(b) != 3 {
		return fmt.Errorf("%q: color needs 3 bytes, got %d", s, len(b))
	}
	c.Red, c.Green, c.Blue = int(b[0]), int(b[1]), int(b[2])
	return nil
}
