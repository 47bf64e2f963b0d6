// Copyright 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package sheets

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

// Descriptor selects the table to fetch: Ref, Sheet, A1 or NamedRange.
type Descriptor interface {
	descriptor()
}

// Ref is a plain string descriptor: an A1 range if it contains a '!',
// a sheet name if such a sheet exists, a named range otherwise.
type Ref string

// Sheet is a sheet with an optional A1 sub-range (such as "A1:E3").
type Sheet struct {
	Name, Range string
}

// A1 is a sheet-qualified range, such as "Formats!A1:E3".
type A1 string

// NamedRange is the name of a named range of the spreadsheet.
type NamedRange string

func (Ref) descriptor()        {}
func (Sheet) descriptor()      {}
func (A1) descriptor()         {}
func (NamedRange) descriptor() {}

// FetchRange is a resolved descriptor.
type FetchRange struct {
	// Title is the sheet's title.
	Title string
	// Range is the A1 range to fetch.
	Range string
}

// NamedRangeResolver resolves a named range to its A1 range,
// or returns an ErrRangeNotFound error.
type NamedRangeResolver interface {
	ResolveNamedRange(ctx context.Context, name string) (string, error)
}

// Resolve maps the descriptor to a concrete range.
//
// A string equal to a known sheet name is a sheet, even if a named range
// has the same name.
func Resolve(ctx context.Context, d Descriptor, knownSheetNames []string, nr NamedRangeResolver) (FetchRange, error) {
	switch x := d.(type) {
	case Sheet:
		if x.Name == "" {
			return FetchRange{}, &RangeNotFoundError{Name: x.Name}
		}
		rng := QuoteSheetName(x.Name)
		if x.Range != "" {
			rng += "!" + x.Range
		}
		return FetchRange{Title: x.Name, Range: rng}, nil
	case A1:
		sheet, _ := SplitA1(string(x))
		if sheet == "" {
			return FetchRange{}, &RangeNotFoundError{Name: string(x)}
		}
		return FetchRange{Title: sheet, Range: string(x)}, nil
	case NamedRange:
		if nr == nil {
			return FetchRange{}, &RangeNotFoundError{Name: string(x)}
		}
		rng, err := nr.ResolveNamedRange(ctx, string(x))
		if err != nil {
			return FetchRange{}, err
		}
		sheet, _ := SplitA1(rng)
		return FetchRange{Title: sheet, Range: rng}, nil
	case Ref:
		s := string(x)
		if strings.IndexByte(s, '!') >= 0 {
			return Resolve(ctx, A1(s), knownSheetNames, nr)
		}
		if slices.Contains(knownSheetNames, s) {
			return Resolve(ctx, Sheet{Name: s}, knownSheetNames, nr)
		}
		return Resolve(ctx, NamedRange(s), knownSheetNames, nr)
	case nil:
		return FetchRange{}, fmt.Errorf("nil descriptor: %w", ErrRangeNotFound)
	default:
		return FetchRange{}, fmt.Errorf("%T: unknown descriptor", d)
	}
}

// QuoteSheetName returns the sheet name quoted for use in an A1 range:
// 'Class Data', with the inner apostrophes doubled.
// Simple names are returned as is.
func QuoteSheetName(name string) string {
	if name != "" && strings.IndexFunc(name, func(r rune) bool {
		return !(r == '_' || '0' <= r && r <= '9' || 'a' <= r && r <= 'z' || 'A' <= r && r <= 'Z')
	}) < 0 {
		return name
	}
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

// SplitA1 splits the A1 range into the unquoted sheet name and the cell range.
// A range without '!' is a sheet name alone.
func SplitA1(rng string) (sheet, cells string) {
	if strings.HasPrefix(rng, "'") {
		for i := 1; i < len(rng); i++ {
			if rng[i] != '\'' {
				continue
			}
			if i+1 < len(rng) && rng[i+1] == '\'' {
				i++
				continue
			}
			sheet = strings.ReplaceAll(rng[1:i], "''", "'")
			rest := rng[i+1:]
			return sheet, strings.TrimPrefix(rest, "!")
		}
		return strings.ReplaceAll(rng[1:], "''", "'"), ""
	}
	if i := strings.LastIndexByte(rng, '!'); i >= 0 {
		return rng[:i], rng[i+1:]
	}
	return rng, ""
}
