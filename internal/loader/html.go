package loader

import (
	"fmt"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/KaramelBytes/tabsift/internal/table"
)

type htmlLoader struct{}

func (htmlLoader) CanLoad(path string) bool { return hasExt(path, ".html", ".htm") }

// Read takes the first matching <table>; its first row supplies the header.
func (htmlLoader) Read(path string, opt Options) (table.Rows, error) {
	f, err := os.Open(path)
	if err != nil {
		return table.Rows{}, fmt.Errorf("open html: %w", err)
	}
	defer f.Close()
	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return table.Rows{}, fmt.Errorf("parse html: %w", err)
	}
	sel := opt.Selector
	if sel == "" {
		sel = "table"
	}
	tbl := doc.Find(sel).First()
	if tbl.Length() == 0 {
		return table.Rows{}, fmt.Errorf("no table matches %q", sel)
	}
	var records [][]string
	tbl.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		// skip rows of nested tables
		if tr.Closest("table").Get(0) != tbl.Get(0) {
			return
		}
		var rec []string
		tr.ChildrenFiltered("th,td").Each(func(_ int, cell *goquery.Selection) {
			rec = append(rec, strings.Join(strings.Fields(cell.Text()), " "))
		})
		if len(rec) > 0 {
			records = append(records, rec)
		}
	})
	return splitHeader(records)
}
