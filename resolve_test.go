// Copyright 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package sheets

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type namedRanges map[string]string

func (nr namedRanges) ResolveNamedRange(_ context.Context, name string) (string, error) {
	if rng, ok := nr[name]; ok {
		return rng, nil
	}
	return "", &RangeNotFoundError{Name: name}
}

func TestResolve(t *testing.T) {
	ctx := context.Background()
	known := []string{"Class Data", "Formats", "A02"}
	nr := namedRanges{"A02": "'Class Data'!A3", "Prices": "Formats!B1:B3"}
	for name, tc := range map[string]struct {
		d    Descriptor
		want FetchRange
	}{
		"sheet":            {Ref("Class Data"), FetchRange{Title: "Class Data", Range: "'Class Data'"}},
		"a1":               {Ref("Formats!A1:E3"), FetchRange{Title: "Formats", Range: "Formats!A1:E3"}},
		"quoted a1":        {Ref("'Class Data'!A1:B2"), FetchRange{Title: "Class Data", Range: "'Class Data'!A1:B2"}},
		"named":            {Ref("Prices"), FetchRange{Title: "Formats", Range: "Formats!B1:B3"}},
		"sheet wins":       {Ref("A02"), FetchRange{Title: "A02", Range: "A02"}},
		"explicit named":   {NamedRange("A02"), FetchRange{Title: "Class Data", Range: "'Class Data'!A3"}},
		"struct":           {Sheet{Name: "Formats"}, FetchRange{Title: "Formats", Range: "Formats"}},
		"struct range":     {Sheet{Name: "Class Data", Range: "A1:C"}, FetchRange{Title: "Class Data", Range: "'Class Data'!A1:C"}},
		"explicit a1":      {A1("Formats!A1"), FetchRange{Title: "Formats", Range: "Formats!A1"}},
		"unknown sheet a1": {A1("Nope!A1"), FetchRange{Title: "Nope", Range: "Nope!A1"}},
	} {
		t.Run(name, func(t *testing.T) {
			got, err := Resolve(ctx, tc.d, known, nr)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestResolveNotFound(t *testing.T) {
	ctx := context.Background()
	for _, d := range []Descriptor{Ref("Missing"), NamedRange("Missing"), Sheet{}, nil} {
		_, err := Resolve(ctx, d, []string{"Formats"}, namedRanges{})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrRangeNotFound), "%v", err)
	}
	_, err := Resolve(ctx, Ref("Missing"), nil, nil)
	var rnf *RangeNotFoundError
	require.True(t, errors.As(err, &rnf))
	assert.Equal(t, "Missing", rnf.Name)
}

func TestQuoteSplit(t *testing.T) {
	for _, tc := range []struct{ name, quoted string }{
		{"Formats", "Formats"},
		{"Class Data", "'Class Data'"},
		{"Bob's", "'Bob''s'"},
		{"D001", "D001"},
		{"", "''"},
	} {
		assert.Equal(t, tc.quoted, QuoteSheetName(tc.name))
		sheet, cells := SplitA1(tc.quoted + "!A1:B2")
		assert.Equal(t, tc.name, sheet)
		assert.Equal(t, "A1:B2", cells)
	}
	sheet, cells := SplitA1("'Class Data'")
	assert.Equal(t, "Class Data", sheet)
	assert.Equal(t, "", cells)
}

func TestParseRect(t *testing.T) {
	for in, want := range map[string]Rect{
		"":      {},
		"A1:E3": {1, 1, 5, 3},
		"B2":    {2, 2, 2, 2},
		"A:C":   {1, 0, 3, 0},
		"A2:C":  {1, 2, 3, 0},
		"$A$3":  {1, 3, 1, 3},
	} {
		got, err := ParseRect(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseRect("1A:??")
	assert.Error(t, err)

	g := RawGrid{{"a", "b", "c"}, {"d", "e"}, {"f", "g", "h"}}
	assert.Equal(t, RawGrid{{"b", "c"}, {"e"}}, g.Slice(Rect{2, 1, 3, 2}))
	assert.Equal(t, RawGrid{{"f", "g", "h"}}, g.Slice(Rect{Row0: 3}))
	assert.Empty(t, g.Slice(Rect{Row0: 5}))
}
