package loader_test

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/KaramelBytes/tabsift/internal/loader"
	"github.com/KaramelBytes/tabsift/internal/table"
	"github.com/KaramelBytes/tabsift/internal/xlsx"
)

func write(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

func TestLoadCSVWithBOM(t *testing.T) {
	p := write(t, "people.csv", "\ufeffname,age\nAnn,34\nbob,22\n")
	tb, err := loader.LoadFile(p, loader.Options{})
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if got := tb.Columns(); !reflect.DeepEqual(got, []string{"name", "age"}) {
		t.Fatalf("columns = %q", got)
	}
	if tb.Len() != 2 || tb.Cell(0, 1).Kind != table.Numeric {
		t.Fatalf("unexpected table %v", tb.Records())
	}
}

func TestLoadTSV(t *testing.T) {
	p := write(t, "data.tsv", "a\tb\n1\tx y\n")
	tb, err := loader.LoadFile(p, loader.Options{})
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if tb.Row(0)[1] != "x y" {
		t.Fatalf("row = %q", tb.Row(0))
	}
}

func TestLoadCSVCustomDelimiter(t *testing.T) {
	p := write(t, "semi.csv", "a;b\n1;2\n")
	tb, err := loader.LoadFile(p, loader.Options{Delimiter: ';'})
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if tb.Width() != 2 {
		t.Fatalf("width = %d", tb.Width())
	}
}

func TestLoadErrors(t *testing.T) {
	cases := map[string]string{
		"ragged": write(t, "ragged.csv", "a,b\n1,2\n3\n"),
		"empty":  write(t, "empty.csv", ""),
		"format": write(t, "notes.pdf", "%PDF"),
		"broken": write(t, "broken.xlsx", "not a zip"),
	}
	cases["missing"] = filepath.Join(t.TempDir(), "nope.csv")
	for name, p := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := loader.LoadFile(p, loader.Options{})
			if !errors.Is(err, table.ErrLoad) {
				t.Fatalf("expected ErrLoad, got %v", err)
			}
		})
	}
	_, err := loader.LoadFile(cases["format"], loader.Options{})
	if !errors.Is(err, loader.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestLoadXLSXPadsSparseRows(t *testing.T) {
	p := filepath.Join(t.TempDir(), "sheet.xlsx")
	f, err := os.Create(p)
	if err != nil {
		t.Fatal(err)
	}
	err = xlsx.Write(f, "Data", [][]xlsx.Value{
		{{Text: "name"}, {Text: "age"}, {Text: "city"}},
		{{Text: "Ann"}, {Text: "34", Numeric: true}},
		{{Text: "bob"}, {}, {Text: "Oslo"}},
	})
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		t.Fatalf("write xlsx: %v", err)
	}

	tb, err := loader.LoadFile(p, loader.Options{SheetName: "Data"})
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	want := [][]string{{"Ann", "34", ""}, {"bob", "", "Oslo"}}
	if got := tb.Records(); !reflect.DeepEqual(got, want) {
		t.Fatalf("records = %q, want %q", got, want)
	}
	if !tb.Cell(1, 1).IsMissing() {
		t.Fatalf("blank cell should be missing")
	}
}

func TestLoadHTMLTable(t *testing.T) {
	p := write(t, "report.html", `<html><body>
<p>intro</p>
<table id="main">
  <tr><th>Name</th><th>Score</th></tr>
  <tr><td>Ann</td><td> 9.5 </td></tr>
  <tr><td>Bob
     Smith</td><td>7</td></tr>
</table>
<table><tr><th>other</th></tr></table>
</body></html>`)
	tb, err := loader.LoadFile(p, loader.Options{Selector: "#main"})
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	want := [][]string{{"Ann", "9.5"}, {"Bob Smith", "7"}}
	if got := tb.Records(); !reflect.DeepEqual(got, want) {
		t.Fatalf("records = %q, want %q", got, want)
	}
	if !reflect.DeepEqual(tb.Columns(), []string{"Name", "Score"}) {
		t.Fatalf("columns = %q", tb.Columns())
	}
}

func TestLoadXLSXDateCellsAsText(t *testing.T) {
	ns := `xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"`
	parts := []struct{ name, body string }{
		{"xl/workbook.xml", `<workbook ` + ns + ` xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">` +
			`<sheets><sheet name="Visits" sheetId="1" r:id="rId1"/></sheets></workbook>`},
		{"xl/_rels/workbook.xml.rels", `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
			`<Relationship Id="rId1" Target="worksheets/sheet1.xml"/></Relationships>`},
		{"xl/styles.xml", `<styleSheet ` + ns + `><cellXfs count="2"><xf numFmtId="0"/><xf numFmtId="14"/></cellXfs></styleSheet>`},
		{"xl/worksheets/sheet1.xml", `<worksheet ` + ns + `><sheetData>` +
			`<row r="1"><c r="A1" t="inlineStr"><is><t>name</t></is></c><c r="B1" t="inlineStr"><is><t>visited</t></is></c></row>` +
			`<row r="2"><c r="A2" t="inlineStr"><is><t>Ann</t></is></c><c r="B2" s="1"><v>45292</v></c></row>` +
			`<row r="3"><c r="A3" t="inlineStr"><is><t>Bob</t></is></c><c r="B3" s="1"><v>44927</v></c></row>` +
			`</sheetData></worksheet>`},
	}
	p := filepath.Join(t.TempDir(), "visits.xlsx")
	f, err := os.Create(p)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	for _, part := range parts {
		w, err := zw.Create(part.name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(part.body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	tb, err := loader.LoadFile(p, loader.Options{})
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	want := [][]string{{"Ann", "2024-01-01 00:00:00"}, {"Bob", "2023-01-01 00:00:00"}}
	if got := tb.Records(); !reflect.DeepEqual(got, want) {
		t.Fatalf("records = %q, want %q", got, want)
	}
	cells, _ := tb.Column("visited")
	if table.IsNumericColumn(cells) {
		t.Fatal("date column classified as numeric")
	}
	hits, err := table.Filter(tb, "visited", "2024")
	if err != nil {
		t.Fatal(err)
	}
	if hits.Len() != 1 || hits.Row(0)[0] != "Ann" {
		t.Fatalf("filter on date text: %q", hits.Records())
	}
}
