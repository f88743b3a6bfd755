package table

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"
)

func people(t *testing.T) *Table {
	t.Helper()
	tb, err := Load(Rows{
		Source: "people.xlsx",
		Header: []string{"name", "age"},
		Records: [][]string{
			{"Ann", "34"},
			{"bob", "22"},
			{"Annie", "40"},
		},
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return tb
}

func TestParseCell(t *testing.T) {
	tests := []struct {
		in   string
		kind Kind
		num  float64
		raw  string
	}{
		{"34", Numeric, 34, "34"},
		{" -1.5e3 ", Numeric, -1500, "-1.5e3"},
		{"", Missing, 0, ""},
		{"   ", Missing, 0, ""},
		{"NaN", Missing, 0, ""},
		{"N/A", Missing, 0, ""},
		{"Inf", Text, 0, "Inf"},
		{"0x1p-2", Text, 0, "0x1p-2"},
		{"1_000", Text, 0, "1_000"},
		{"12%", Text, 0, "12%"},
		{"Ann", Text, 0, "Ann"},
	}
	for _, tt := range tests {
		got := ParseCell(tt.in)
		if got.Kind != tt.kind || got.Num != tt.num || got.Raw != tt.raw {
			t.Errorf("ParseCell(%q) = %+v, want kind=%v num=%v raw=%q", tt.in, got, tt.kind, tt.num, tt.raw)
		}
	}
}

func TestLoadRejectsBadSources(t *testing.T) {
	cases := map[string]Rows{
		"empty":     {},
		"ragged":    {Header: []string{"a", "b"}, Records: [][]string{{"1", "2"}, {"3"}}},
		"duplicate": {Header: []string{"a", "a"}},
		"blank":     {Header: []string{"a", " "}},
	}
	for name, rows := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(rows)
			if !errors.Is(err, ErrLoad) {
				t.Fatalf("expected ErrLoad, got %v", err)
			}
			var le *LoadError
			if !errors.As(err, &le) {
				t.Fatalf("expected *LoadError, got %T", err)
			}
		})
	}
}

func TestLoadHeaderOnlyIsEmptyTable(t *testing.T) {
	tb, err := Load(Rows{Header: []string{"a", "b"}})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tb.Len() != 0 || tb.Width() != 2 {
		t.Fatalf("unexpected shape %dx%d", tb.Len(), tb.Width())
	}
}

func TestColumnsKeepOrder(t *testing.T) {
	tb := people(t)
	if got := tb.Columns(); !reflect.DeepEqual(got, []string{"name", "age"}) {
		t.Fatalf("Columns() = %v", got)
	}
	// returned slice is a copy
	tb.Columns()[0] = "x"
	if tb.Columns()[0] != "name" {
		t.Fatalf("Columns() leaked internal state")
	}
}

func TestFilterCaseInsensitiveSubstring(t *testing.T) {
	tb := people(t)
	out, err := Filter(tb, "name", "ann")
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	if out.Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", out.Len())
	}
	want := [][]string{{"Ann", "34"}, {"Annie", "40"}}
	if got := out.Records(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Records() = %v, want %v", got, want)
	}
	if !reflect.DeepEqual(out.Columns(), tb.Columns()) {
		t.Fatalf("columns changed: %v", out.Columns())
	}
}

func TestFilterNumericColumnUsesSourceText(t *testing.T) {
	tb := people(t)
	out, err := Filter(tb, "age", "4")
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	if out.Len() != 2 { // 34, 40
		t.Fatalf("expected 2 rows, got %d", out.Len())
	}
}

func TestFilterUnicodeFolding(t *testing.T) {
	tb, err := Load(Rows{Header: []string{"city"}, Records: [][]string{{"STRASSE"}, {"Straße"}, {"Köln"}}})
	if err != nil {
		t.Fatal(err)
	}
	out, err := Filter(tb, "city", "KÖL")
	if err != nil {
		t.Fatal(err)
	}
	if out.Len() != 1 || out.Row(0)[0] != "Köln" {
		t.Fatalf("unexpected rows: %v", out.Records())
	}
}

func TestFilterMissingNeverMatches(t *testing.T) {
	tb, err := Load(Rows{Header: []string{"a"}, Records: [][]string{{""}, {"NA"}, {"x"}}})
	if err != nil {
		t.Fatal(err)
	}
	out, err := Filter(tb, "a", "a")
	if err != nil {
		t.Fatal(err)
	}
	if out.Len() != 0 {
		t.Fatalf("missing cells matched: %v", out.Records())
	}
}

func TestFilterErrors(t *testing.T) {
	tb := people(t)
	if _, err := Filter(tb, "name", ""); !errors.Is(err, ErrEmptyPattern) {
		t.Fatalf("expected ErrEmptyPattern, got %v", err)
	}
	if _, err := Filter(tb, "nope", ""); !errors.Is(err, ErrEmptyPattern) {
		t.Fatalf("expected ErrEmptyPattern for unknown column, got %v", err)
	}
	if _, err := Filter(tb, "Name", "ann"); !errors.Is(err, ErrInvalidColumn) {
		t.Fatalf("expected ErrInvalidColumn, got %v", err)
	}
}

func TestFilterZeroMatchesKeepsColumns(t *testing.T) {
	tb := people(t)
	out, err := Filter(tb, "name", "zzz")
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	if out.Len() != 0 || !reflect.DeepEqual(out.Columns(), tb.Columns()) {
		t.Fatalf("unexpected result %v / %v", out.Columns(), out.Records())
	}
}

func TestFilterIdempotent(t *testing.T) {
	tb := people(t)
	once, err := Filter(tb, "name", "an")
	if err != nil {
		t.Fatal(err)
	}
	twice, err := Filter(once, "name", "an")
	if err != nil {
		t.Fatal(err)
	}
	if !once.Equal(twice) {
		t.Fatalf("filter not idempotent: %v vs %v", once.Records(), twice.Records())
	}
}

func TestFilterDoesNotAliasSource(t *testing.T) {
	tb := people(t)
	out, err := Filter(tb, "name", "bob")
	if err != nil {
		t.Fatal(err)
	}
	out.cols[0].Cells[0] = TextCell("changed")
	if tb.Row(1)[0] != "bob" {
		t.Fatalf("source table mutated")
	}
}

func TestSummaryMarkdown(t *testing.T) {
	tb := people(t)
	md := Summarize("people.xlsx", tb, 2).Markdown()
	for _, want := range []string{
		"Source: people.xlsx",
		"Rows: 3",
		"- name: categorical (non-null 3, missing 0.0%)",
		"- age: numeric",
		"| name | age |",
		"| Ann | 34 |",
		"(1 more rows)",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestSummaryTruncatesOnRuneBoundary(t *testing.T) {
	long := strings.Repeat("é", 100)
	tb, err := Load(Rows{Header: []string{"note"}, Records: [][]string{{long}}})
	if err != nil {
		t.Fatal(err)
	}
	md := Summarize("notes.csv", tb, 1).Markdown()
	if !utf8.ValidString(md) {
		t.Fatalf("preview split a multi-byte character:\n%q", md)
	}
	if want := "| " + strings.Repeat("é", 77) + "... |"; !strings.Contains(md, want) {
		t.Fatalf("markdown missing truncated cell %q:\n%s", want, md)
	}
}

func TestIsNumericColumn(t *testing.T) {
	if IsNumericColumn([]Cell{{Kind: Missing}}) {
		t.Fatalf("all-missing column must not be numeric")
	}
	if IsNumericColumn(nil) {
		t.Fatalf("empty column must not be numeric")
	}
	if !IsNumericColumn([]Cell{NumberCell(1), {Kind: Missing}}) {
		t.Fatalf("numeric with gaps should be numeric")
	}
	if IsNumericColumn([]Cell{NumberCell(1), TextCell("x")}) {
		t.Fatalf("mixed column should be categorical")
	}
}
