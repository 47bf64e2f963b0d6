// Copyright 2020, 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package sheets

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

var EncName = "utf-8"

func init() {
	EncName = os.Getenv("LANG")
	if i := strings.IndexByte(EncName, '.'); i >= 0 {
		EncName = strings.ToLower(EncName[i+1:])
	}
	if EncName == "" || EncName == "c" || EncName == "posix" {
		EncName = "utf-8"
	}
}

func GetEncoding(encName string) (encoding.Encoding, error) {
	encName = strings.ToLower(encName)
	if encName == "" || encName == "utf-8" || encName == "utf8" {
		return nil, nil
	}
	enc, err := htmlindex.Get(encName)
	if err != nil {
		err = fmt.Errorf("%q: %w", encName, err)
	}
	return enc, err
}

type csvReadCloser struct {
	*csv.Reader
	io.Closer
}

// OpenCsv opens the file (stdin for "" or "-") as CSV,
// decoding it from encName, and guessing the separator from the first line.
func OpenCsv(fn, encName string) (csvReadCloser, error) {
	var enc encoding.Encoding
	if encName != "" {
		var err error
		if enc, err = GetEncoding(encName); err != nil {
			return csvReadCloser{}, err
		}
	}
	fh := os.Stdin
	if !(fn == "" || fn == "-") {
		var err error
		if fh, err = os.Open(fn); err != nil {
			return csvReadCloser{}, err
		}
	}
	r := io.ReadCloser(fh)
	if enc != nil {
		r = struct {
			io.Reader
			io.Closer
		}{enc.NewDecoder().Reader(r), r}
	}
	br := bufio.NewReaderSize(r, 1<<20)
	b, err := br.Peek(1024)
	if err != nil && len(b) == 0 && !errors.Is(err, io.EOF) {
		r.Close()
		return csvReadCloser{}, err
	}
	sep := rune(',')
	for _, r := range string(b) {
		if r == '"' || r == '_' || r == ' ' || unicode.IsLetter(r) || unicode.IsNumber(r) {
			continue
		}
		sep = r
		break
	}

	cr := csv.NewReader(br)
	cr.ReuseRecord = true
	cr.FieldsPerRecord = -1
	cr.Comma = sep
	return csvReadCloser{cr, r}, nil
}

var _ = DataSource((*CSVSource)(nil))

// CSVSource is a one-sheet DataSource over a CSV file.
// It has no formats and no named ranges.
type CSVSource struct {
	name     string
	modified time.Time
	grid     RawGrid
}

// NewCSVSource reads the whole CSV file into memory.
// The sheet is named after the file, without the extension.
func NewCSVSource(fn, encName string) (*CSVSource, error) {
	cr, err := OpenCsv(fn, encName)
	if err != nil {
		return nil, err
	}
	defer cr.Close()
	src := CSVSource{name: strings.TrimSuffix(filepath.Base(fn), filepath.Ext(fn)), modified: time.Now()}
	if fn == "" || fn == "-" {
		src.name = "Sheet1"
	} else if fi, err := os.Stat(fn); err == nil {
		src.modified = fi.ModTime()
	}
	for {
		row, err := cr.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("%q: %w", fn, err)
		}
		src.grid = append(src.grid, append([]string(nil), row...))
	}
	return &src, nil
}

func (src *CSVSource) SheetNames(context.Context) ([]string, error) { return []string{src.name}, nil }
func (src *CSVSource) LastModified(context.Context) (string, error) {
	return src.modified.UTC().Format(time.RFC3339Nano), nil
}
func (src *CSVSource) ResolveNamedRange(_ context.Context, name string) (string, error) {
	return "", &RangeNotFoundError{Name: name}
}
func (src *CSVSource) FetchGrid(_ context.Context, rng string) (RawGrid, error) {
	sheet, cells := SplitA1(rng)
	if sheet != src.name {
		return nil, &RangeNotFoundError{Name: rng}
	}
	r, err := ParseRect(cells)
	if err != nil {
		return nil, err
	}
	return src.grid.Slice(r), nil
}
func (src *CSVSource) FetchGridWithFormats(ctx context.Context, rng string) (RawGrid, FormatGrid, error) {
	grid, err := src.FetchGrid(ctx, rng)
	return grid, nil, err
}

var _ = Writer((*CSVWriter)(nil))

// CSVWriter writes the sheets one after the other, separated by an empty line.
//
// This writer does not allow concurrent writes.
type CSVWriter struct {
	w      *csv.Writer
	closer io.Closer
	sheets int
}

// NewCSVWriter returns a CSV Writer, encoding into encName.
func NewCSVWriter(w io.Writer, encName string) (*CSVWriter, error) {
	enc, err := GetEncoding(encName)
	if err != nil {
		return nil, err
	}
	cw := CSVWriter{}
	if enc != nil {
		w = enc.NewEncoder().Writer(w)
		cw.closer, _ = w.(io.Closer)
	}
	cw.w = csv.NewWriter(w)
	return &cw, nil
}

func (cw *CSVWriter) NewSheet(name string, cols []ColumnSpec) (SheetWriter, error) {
	if cw.sheets != 0 {
		if err := cw.w.Write(nil); err != nil {
			return nil, err
		}
	}
	cw.sheets++
	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = c.Name
	}
	if err := cw.w.Write(header); err != nil {
		return nil, fmt.Errorf("%q: %w", name, err)
	}
	return &csvSheet{w: cw.w}, nil
}

func (cw *CSVWriter) Close() error {
	cw.w.Flush()
	if err := cw.w.Error(); err != nil {
		return err
	}
	if cw.closer != nil {
		return cw.closer.Close()
	}
	return nil
}

type csvSheet struct {
	w      *csv.Writer
	record []string
}

func (cs *csvSheet) AppendRow(values ...any) error {
	cs.record = cs.record[:0]
	for _, v := range values {
		cs.record = append(cs.record, FormatValue(v))
	}
	return cs.w.Write(cs.record)
}
func (cs *csvSheet) Close() error {
	cs.w.Flush()
	return cs.w.Error()
}

// FormatValue returns the plain text form of a Cell's Value:
// dates as 2006-01-02 (with time if not midnight), numbers without exponent.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		if x.IsZero() {
			return ""
		}
		if h, m, s := x.Clock(); h == 0 && m == 0 && s == 0 {
			return x.Format("2006-01-02")
		}
		return x.Format("2006-01-02 15:04:05")
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(v)
	}
}
