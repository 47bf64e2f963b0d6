// Copyright 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

// Package google is the Google Sheets API transport for sheets.Client.
package google

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/UNO-SOFT/sheets"
	"github.com/xuri/excelize/v2"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"
)

var _ = (sheets.DataSource)((*Source)(nil))

// Source reads one spreadsheet through the Google Sheets and Drive APIs.
type Source struct {
	id     string
	sheets *sheetsapi.Service
	drive  *drive.Service
}

// NewJWT authorizes with the service account's JSON key.
func NewJWT(ctx context.Context, spreadsheetID string, jsonKey []byte, opts ...option.ClientOption) (*Source, error) {
	if len(jsonKey) == 0 {
		return nil, fmt.Errorf("empty JWT key: %w", sheets.ErrAuthorization)
	}
	return New(ctx, spreadsheetID, append([]option.ClientOption{
		option.WithCredentialsJSON(jsonKey),
		option.WithScopes(sheetsapi.SpreadsheetsReadonlyScope, drive.DriveMetadataReadonlyScope),
	}, opts...)...)
}

// NewAPIKey authorizes with the API key. The spreadsheet must be public.
func NewAPIKey(ctx context.Context, spreadsheetID, apiKey string, opts ...option.ClientOption) (*Source, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("empty API key: %w", sheets.ErrAuthorization)
	}
	return New(ctx, spreadsheetID, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
}

// New returns a Source using the given client options.
func New(ctx context.Context, spreadsheetID string, opts ...option.ClientOption) (*Source, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("empty spreadsheet id: %w", sheets.ErrConfiguration)
	}
	ss, err := sheetsapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("building sheets service: %w", mapError(err))
	}
	ds, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("building drive service: %w", mapError(err))
	}
	return &Source{id: spreadsheetID, sheets: ss, drive: ds}, nil
}

func (src *Source) SheetNames(ctx context.Context) ([]string, error) {
	resp, err := src.sheets.Spreadsheets.Get(src.id).
		Fields("sheets.properties.title").
		Context(ctx).Do()
	if err != nil {
		return nil, mapError(err)
	}
	names := make([]string, 0, len(resp.Sheets))
	for _, s := range resp.Sheets {
		if s.Properties != nil {
			names = append(names, s.Properties.Title)
		}
	}
	return names, nil
}

func (src *Source) LastModified(ctx context.Context) (string, error) {
	f, err := src.drive.Files.Get(src.id).
		Fields("modifiedTime").
		SupportsAllDrives(true).
		Context(ctx).Do()
	if err != nil {
		return "", mapError(err)
	}
	return f.ModifiedTime, nil
}

func (src *Source) ResolveNamedRange(ctx context.Context, name string) (string, error) {
	resp, err := src.sheets.Spreadsheets.Get(src.id).
		Fields("namedRanges,sheets.properties(sheetId,title)").
		Context(ctx).Do()
	if err != nil {
		return "", mapError(err)
	}
	for _, nr := range resp.NamedRanges {
		if nr.Name != name || nr.Range == nil {
			continue
		}
		for _, s := range resp.Sheets {
			if s.Properties != nil && s.Properties.SheetId == nr.Range.SheetId {
				return GridRangeA1(s.Properties.Title, nr.Range)
			}
		}
	}
	return "", &sheets.RangeNotFoundError{Name: name}
}

func (src *Source) FetchGrid(ctx context.Context, rng string) (sheets.RawGrid, error) {
	vr, err := src.sheets.Spreadsheets.Values.Get(src.id, rng).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).Do()
	if err != nil {
		return nil, mapError(err)
	}
	grid := make(sheets.RawGrid, len(vr.Values))
	for i, row := range vr.Values {
		grid[i] = make([]string, len(row))
		for j, v := range row {
			if v != nil {
				grid[i][j] = fmt.Sprint(v)
			}
		}
	}
	return grid, nil
}

func (src *Source) FetchGridWithFormats(ctx context.Context, rng string) (sheets.RawGrid, sheets.FormatGrid, error) {
	resp, err := src.sheets.Spreadsheets.Get(src.id).
		Ranges(rng).
		IncludeGridData(true).
		Fields("sheets(data(rowData(values(formattedValue,effectiveValue,effectiveFormat/numberFormat,userEnteredFormat/numberFormat))))").
		Context(ctx).Do()
	if err != nil {
		return nil, nil, mapError(err)
	}
	if len(resp.Sheets) == 0 || len(resp.Sheets[0].Data) == 0 {
		return sheets.RawGrid{}, sheets.FormatGrid{}, nil
	}
	raw, formats := ConvertGridData(resp.Sheets[0].Data[0])
	return raw, formats, nil
}

// ConvertGridData converts the API's grid data into the display and the format grid.
func ConvertGridData(data *sheetsapi.GridData) (sheets.RawGrid, sheets.FormatGrid) {
	raw := make(sheets.RawGrid, len(data.RowData))
	formats := make(sheets.FormatGrid, len(data.RowData))
	for i, rd := range data.RowData {
		if rd == nil {
			continue
		}
		raw[i] = make([]string, len(rd.Values))
		formats[i] = make([]*sheets.FormatCell, len(rd.Values))
		for j, cd := range rd.Values {
			if cd == nil {
				continue
			}
			raw[i][j] = cd.FormattedValue
			formats[i][j] = convertCell(cd)
		}
	}
	return raw, formats
}

func convertCell(cd *sheetsapi.CellData) *sheets.FormatCell {
	nf := sheets.NumberFormat{Type: sheets.FormatNone}
	for _, cf := range []*sheetsapi.CellFormat{cd.EffectiveFormat, cd.UserEnteredFormat} {
		if cf != nil && cf.NumberFormat != nil && cf.NumberFormat.Type != "" {
			nf = sheets.NumberFormat{
				Type:    sheets.NumberFormatType(cf.NumberFormat.Type),
				Pattern: cf.NumberFormat.Pattern,
			}
			break
		}
	}
	fc := sheets.FormatCell{
		Format:      &sheets.Format{NumberFormat: nf},
		StringValue: cd.FormattedValue,
	}
	ev := cd.EffectiveValue
	if ev == nil {
		return &fc
	}
	switch {
	case ev.NumberValue != nil:
		n := *ev.NumberValue
		fc.Value = n
		switch nf.Type {
		case sheets.FormatDate, sheets.FormatTime, sheets.FormatDateTime:
			fc.Value = SerialToTime(n)
		}
	case ev.StringValue != nil:
		fc.Value = *ev.StringValue
	case ev.BoolValue != nil:
		fc.Value = *ev.BoolValue
	case ev.ErrorValue != nil:
		fc.Value = cd.FormattedValue
	}
	return &fc
}

var serialEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// SerialToTime converts the spreadsheet's serial day number to time.
func SerialToTime(serial float64) time.Time {
	days, frac := math.Modf(serial)
	// a Duration only spans ~292 years, so whole days go through AddDate
	return serialEpoch.AddDate(0, 0, int(days)).
		Add(time.Duration(frac * float64(24*time.Hour))).
		Round(time.Millisecond)
}

// GridRangeA1 returns the A1 notation of the grid range on the named sheet.
// The end indexes are exclusive, zero end indexes are unbounded.
func GridRangeA1(sheet string, gr *sheetsapi.GridRange) (string, error) {
	quoted := sheets.QuoteSheetName(sheet)
	if gr.EndColumnIndex == 0 && gr.EndRowIndex == 0 && gr.StartColumnIndex == 0 && gr.StartRowIndex == 0 {
		return quoted, nil
	}
	from, err := cellRef(gr.StartColumnIndex+1, gr.StartRowIndex+1, gr.StartRowIndex == 0 && gr.EndRowIndex == 0)
	if err != nil {
		return "", err
	}
	endCol := gr.EndColumnIndex
	if endCol == 0 {
		// there is no way to express an open column range in A1
		endCol = excelize.MaxColumns
	}
	to, err := cellRef(endCol, gr.EndRowIndex, gr.EndRowIndex == 0)
	if err != nil {
		return "", err
	}
	return quoted + "!" + from + ":" + to, nil
}

func cellRef(col, row int64, colOnly bool) (string, error) {
	if colOnly {
		return excelize.ColumnNumberToName(int(col))
	}
	return excelize.CoordinatesToCellName(int(col), int(row))
}

func mapError(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) &&
		(gerr.Code == http.StatusUnauthorized || gerr.Code == http.StatusForbidden) {
		return fmt.Errorf("%w: %w", sheets.ErrAuthorization, err)
	}
	return err
}
