package loader

import (
	"encoding/csv"
	"fmt"
	"os"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/KaramelBytes/tabsift/internal/table"
)

type csvLoader struct{}

func (csvLoader) CanLoad(path string) bool { return hasExt(path, ".csv", ".tsv") }

func (csvLoader) Read(path string, opt Options) (table.Rows, error) {
	f, err := os.Open(path)
	if err != nil {
		return table.Rows{}, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(path)
	}
	// spreadsheet exports often carry a UTF-8 BOM
	r := csv.NewReader(transform.NewReader(f, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	records, err := r.ReadAll()
	if err != nil {
		return table.Rows{}, fmt.Errorf("read csv: %w", err)
	}
	return splitHeader(records)
}

func sniffDelimiter(path string) rune {
	if hasExt(path, ".tsv") {
		return '\t'
	}
	return ','
}
