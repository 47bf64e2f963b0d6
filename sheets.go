// Copyright 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
)

// DataSource is the transport to the spreadsheet service.
//
// All methods must be safe for concurrent use.
type DataSource interface {
	NamedRangeResolver
	// SheetNames returns the current sheet names, in order.
	SheetNames(ctx context.Context) ([]string, error)
	// LastModified returns the time of the last modification, as an ISO-8601 string.
	LastModified(ctx context.Context) (string, error)
	// FetchGrid returns the display values of the range.
	FetchGrid(ctx context.Context, rng string) (RawGrid, error)
	// FetchGridWithFormats returns the display values and the formats/typed values of the range.
	FetchGridWithFormats(ctx context.Context, rng string) (RawGrid, FormatGrid, error)
}

// Client reads tables of one spreadsheet.
type Client struct {
	mu          sync.RWMutex
	src         DataSource
	id          string
	logger      *slog.Logger
	formats     bool
	concurrency int
}

// Option configures a Client.
type Option func(*Client)

// WithFormats sets whether the format metadata and the typed values are fetched (default: true).
func WithFormats(formats bool) Option { return func(c *Client) { c.formats = formats } }

// WithConcurrency limits the number of concurrent fetches of Tables. n <= 0 means no limit.
func WithConcurrency(n int) Option { return func(c *Client) { c.concurrency = n } }

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option { return func(c *Client) { c.logger = logger } }

// New returns a Client for the spreadsheet.
// The Client must be authorized before fetching anything.
func New(spreadsheetID string, options ...Option) (*Client, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("empty spreadsheet id: %w", ErrConfiguration)
	}
	c := &Client{id: spreadsheetID, formats: true}
	for _, o := range options {
		o(c)
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	return c, nil
}

// ID returns the spreadsheet's id.
func (c *Client) ID() string { return c.id }

// Authorize sets the (already authorized) data source.
func (c *Client) Authorize(src DataSource) error {
	if src == nil {
		return fmt.Errorf("nil data source: %w", ErrAuthorization)
	}
	c.mu.Lock()
	c.src = src
	c.mu.Unlock()
	return nil
}

func (c *Client) source() (DataSource, error) {
	c.mu.RLock()
	src := c.src
	c.mu.RUnlock()
	if src == nil {
		return nil, fmt.Errorf("%s: %w", c.id, ErrAuthorization)
	}
	return src, nil
}

// SheetNames returns the names of the sheets.
func (c *Client) SheetNames(ctx context.Context) ([]string, error) {
	src, err := c.source()
	if err != nil {
		return nil, err
	}
	return src.SheetNames(ctx)
}

// LastUpdate returns the last modification time of the spreadsheet, as an ISO-8601 string.
func (c *Client) LastUpdate(ctx context.Context) (string, error) {
	src, err := c.source()
	if err != nil {
		return "", err
	}
	return src.LastModified(ctx)
}

// Table fetches one table.
func (c *Client) Table(ctx context.Context, d Descriptor) (Table, error) {
	tables, err := c.Tables(ctx, d)
	if err != nil {
		return Table{}, err
	}
	return tables[0], nil
}

// Tables fetches the tables concurrently, and returns them in the order of the descriptors.
//
// The first error fails the whole batch and is returned as soon as it happens;
// the other fetches are not cancelled, but their results are dropped.
func (c *Client) Tables(ctx context.Context, ds ...Descriptor) ([]Table, error) {
	src, err := c.source()
	if err != nil {
		return nil, err
	}
	if len(ds) == 0 {
		return []Table{}, nil
	}
	var names []string
	if needsSheetNames(ds) {
		if names, err = src.SheetNames(ctx); err != nil {
			return nil, err
		}
	}

	tables := make([]Table, len(ds))
	errCh := make(chan error, len(ds))
	done := make(chan struct{})
	var grp errgroup.Group
	if c.concurrency > 0 {
		grp.SetLimit(c.concurrency)
	}
	go func() {
		defer close(done)
		for i, d := range ds {
			grp.Go(func() error {
				t, err := c.fetch(ctx, src, d, names)
				if err != nil {
					errCh <- err
					return err
				}
				tables[i] = t
				return nil
			})
		}
		_ = grp.Wait()
	}()
	select {
	case err := <-errCh:
		return nil, err
	case <-done:
	}
	select {
	case err := <-errCh:
		return nil, err
	default:
		return tables, nil
	}
}

func (c *Client) fetch(ctx context.Context, src DataSource, d Descriptor, names []string) (Table, error) {
	fr, err := Resolve(ctx, d, names, src)
	if err != nil {
		return Table{}, err
	}
	logger := c.logger.With("range", fr.Range)
	logger.Debug("fetch", "formats", c.formats)
	var raw RawGrid
	var formats FormatGrid
	if c.formats {
		raw, formats, err = src.FetchGridWithFormats(ctx, fr.Range)
	} else {
		raw, err = src.FetchGrid(ctx, fr.Range)
	}
	if err != nil {
		logger.Debug("fetch", "error", err)
		return Table{}, err
	}
	t := BuildTable(fr.Title, raw, formats)
	logger.Debug("fetched", "headers", len(t.Headers), "rows", len(t.Rows))
	return t, nil
}

// TableCols fetches the table and returns its column-oriented view.
func (c *Client) TableCols(ctx context.Context, d Descriptor) ([]Column, error) {
	t, err := c.Table(ctx, d)
	if err != nil {
		return nil, err
	}
	return t.Columns(), nil
}

func needsSheetNames(ds []Descriptor) bool {
	for _, d := range ds {
		if _, ok := d.(Ref); ok {
			return true
		}
	}
	return false
}
