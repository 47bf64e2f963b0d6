// Copyright 2021, 2026 Tamás Gulácsi. All rights reserved.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/UNO-SOFT/zlog/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/klauspost/compress/gzip"
	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"

	"github.com/UNO-SOFT/sheets"
	"github.com/UNO-SOFT/sheets/google"
	"github.com/UNO-SOFT/sheets/pdf"
	"github.com/UNO-SOFT/sheets/xlsx"
)

var verbose zlog.VerboseVar
var logger = zlog.NewLogger(zlog.MaybeConsoleHandler(&verbose, os.Stderr)).SLog()

func main() {
	if err := Main(); err != nil {
		logger.Error("MAIN", "error", err)
		os.Exit(1)
	}
}

type globalConfig struct {
	SpreadsheetID, APIKey, JWTFile, File string
	Charset                              string
	NoFormats                            bool
	Concurrency                          int
}

func Main() error {
	var cfg globalConfig
	fs := flag.NewFlagSet("sheets", flag.ContinueOnError)
	fs.Var(&verbose, "v", "logging verbosity")
	fs.StringVar(&cfg.SpreadsheetID, "spreadsheet", "", "Google spreadsheet id")
	fs.StringVar(&cfg.APIKey, "api-key", "", "Google API key (for public spreadsheets)")
	fs.StringVar(&cfg.JWTFile, "jwt", "", "service account JSON key file")
	fs.StringVar(&cfg.File, "file", "", "local .xlsx or .csv file instead of Google")
	fs.StringVar(&cfg.Charset, "charset", sheets.EncName, "csv charset name")
	fs.BoolVar(&cfg.NoFormats, "no-formats", false, "fetch display values only")
	fs.IntVar(&cfg.Concurrency, "concurrency", 0, "concurrent fetches (0: unlimited)")

	namesCmd := ffcli.Command{Name: "names", ShortUsage: "names",
		ShortHelp: "list the sheet names",
		Exec: func(ctx context.Context, args []string) error {
			client, closer, err := cfg.connect(ctx)
			if err != nil {
				return err
			}
			defer closer()
			names, err := client.SheetNames(ctx)
			if err != nil {
				return err
			}
			for _, nm := range names {
				fmt.Println(nm)
			}
			return nil
		},
	}

	updatedCmd := ffcli.Command{Name: "updated", ShortUsage: "updated",
		ShortHelp: "print the last modification time",
		Exec: func(ctx context.Context, args []string) error {
			client, closer, err := cfg.connect(ctx)
			if err != nil {
				return err
			}
			defer closer()
			s, err := client.LastUpdate(ctx)
			if err != nil {
				return err
			}
			fmt.Println(s)
			return nil
		},
	}

	var dc dumpConfig
	alternateColor := pdf.Color{Red: 230, Green: 230, Blue: 230}
	dumpFS := flag.NewFlagSet("dump", flag.ContinueOnError)
	dumpFS.StringVar(&dc.Format, "format", "", "output format: json, csv, xlsx or pdf (default: from -o, or json)")
	dumpFS.StringVar(&dc.Out, "o", "-", "output file name (.gz suffix compresses)")
	dumpFS.BoolVar(&dc.Cols, "cols", false, "column-oriented json")
	dumpFS.BoolVar(&dc.PDF.Landscape, "L", false, "landscape orientation (pdf)")
	dumpFS.Float64Var(&dc.PDF.FontSize, "f", 8, "font size (pdf)")
	dumpFS.Var(&alternateColor, "alternate-color", "alternate row color (pdf)")
	dumpCmd := ffcli.Command{Name: "dump", FlagSet: dumpFS,
		ShortUsage: "dump [flags] [sheet | Sheet!A1:B2 | named range]...",
		ShortHelp:  "dump the tables (all sheets by default)",
		Exec: func(ctx context.Context, args []string) error {
			dc.PDF.AlternateColor = &alternateColor
			dc.Charset = cfg.Charset
			client, closer, err := cfg.connect(ctx)
			if err != nil {
				return err
			}
			defer closer()
			return dc.dump(ctx, client, args)
		},
	}

	app := ffcli.Command{Name: "sheets", FlagSet: fs,
		ShortUsage:  "sheets [flags] <subcommand>",
		Options:     []ff.Option{ff.WithEnvVarPrefix("SHEETS")},
		Subcommands: []*ffcli.Command{&namesCmd, &updatedCmd, &dumpCmd},
		Exec: func(ctx context.Context, args []string) error {
			return flag.ErrHelp
		},
	}
	if err := app.Parse(os.Args[1:]); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()
	return app.Run(ctx)
}

func (cfg globalConfig) connect(ctx context.Context) (*sheets.Client, func(), error) {
	id := cfg.SpreadsheetID
	if id == "" {
		id = cfg.File
	}
	client, err := sheets.New(id,
		sheets.WithFormats(!cfg.NoFormats),
		sheets.WithConcurrency(cfg.Concurrency),
		sheets.WithLogger(logger),
	)
	if err != nil {
		return nil, nil, err
	}
	closer := func() {}
	var src sheets.DataSource
	switch {
	case cfg.File != "" && strings.EqualFold(filepath.Ext(cfg.File), ".csv"):
		src, err = sheets.NewCSVSource(cfg.File, cfg.Charset)
	case cfg.File != "":
		var xs *xlsx.Source
		if xs, err = xlsx.Open(cfg.File); err == nil {
			src, closer = xs, func() { xs.Close() }
		}
	case cfg.JWTFile != "":
		var key []byte
		if key, err = os.ReadFile(cfg.JWTFile); err != nil {
			return nil, nil, fmt.Errorf("%q: %w", cfg.JWTFile, err)
		}
		src, err = google.NewJWT(ctx, id, key)
	default:
		src, err = google.NewAPIKey(ctx, id, cfg.APIKey)
	}
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("connect", "id", id, "source", fmt.Sprintf("%T", src))
	if err = client.Authorize(src); err != nil {
		closer()
		return nil, nil, err
	}
	return client, closer, nil
}

type dumpConfig struct {
	Format, Out, Charset string
	Cols                 bool
	PDF                  pdf.Options
}

func (dc dumpConfig) dump(ctx context.Context, client *sheets.Client, args []string) error {
	var ds []sheets.Descriptor
	if len(args) == 0 {
		names, err := client.SheetNames(ctx)
		if err != nil {
			return err
		}
		for _, nm := range names {
			ds = append(ds, sheets.Sheet{Name: nm})
		}
	} else {
		for _, a := range args {
			ds = append(ds, sheets.Ref(a))
		}
	}
	tables, err := client.Tables(ctx, ds...)
	if err != nil {
		return err
	}

	format := dc.Format
	if format == "" {
		format = strings.TrimPrefix(filepath.Ext(strings.TrimSuffix(dc.Out, ".gz")), ".")
	}
	if format == "" {
		format = "json"
	}
	logger.Debug("dump", "tables", len(tables), "format", format, "out", dc.Out)

	var w io.Writer = os.Stdout
	var fh *os.File
	if !(dc.Out == "" || dc.Out == "-") {
		if fh, err = os.Create(dc.Out); err != nil {
			return err
		}
		defer fh.Close()
		w = fh
	}
	var zw *gzip.Writer
	if strings.HasSuffix(dc.Out, ".gz") {
		zw = gzip.NewWriter(w)
		w = zw
	}

	switch format {
	case "json":
		enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(w)
		enc.SetIndent("", "  ")
		if dc.Cols {
			cols := make([][]sheets.Column, len(tables))
			for i, t := range tables {
				cols[i] = t.Columns()
			}
			err = enc.Encode(cols)
		} else {
			err = enc.Encode(tables)
		}
	case "csv":
		var cw *sheets.CSVWriter
		if cw, err = sheets.NewCSVWriter(w, dc.Charset); err == nil {
			err = writeAndClose(cw, tables)
		}
	case "xlsx":
		err = writeAndClose(xlsx.NewWriter(w), tables)
	case "pdf":
		err = writeAndClose(pdf.NewWriter(w, dc.PDF), tables)
	default:
		err = fmt.Errorf("unknown format %q", format)
	}
	if err != nil {
		return err
	}
	if zw != nil {
		if err = zw.Close(); err != nil {
			return err
		}
	}
	if fh != nil {
		return fh.Close()
	}
	return nil
}

func writeAndClose(w sheets.Writer, tables []sheets.Table) error {
	err := sheets.WriteTables(w, tables...)
	if closeErr := w.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil && errors.Is(err, sheets.ErrTooManyRows) {
		return fmt.Errorf("table too big for the format: %w", err)
	}
	return err
}
