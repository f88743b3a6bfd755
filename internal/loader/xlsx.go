package loader

import (
	"github.com/KaramelBytes/tabsift/internal/table"
	"github.com/KaramelBytes/tabsift/internal/xlsx"
)

type xlsxLoader struct{}

func (xlsxLoader) CanLoad(path string) bool { return hasExt(path, ".xlsx") }

func (xlsxLoader) Read(path string, opt Options) (table.Rows, error) {
	wb, err := xlsx.Open(path)
	if err != nil {
		return table.Rows{}, err
	}
	records, err := wb.Rows(opt.SheetName, opt.SheetIndex)
	if err != nil {
		return table.Rows{}, err
	}
	rows, err := splitHeader(records)
	if err != nil {
		return table.Rows{}, err
	}
	// sparse sheets omit trailing blank cells
	width := len(rows.Header)
	for i, rec := range rows.Records {
		if len(rec) < width {
			padded := make([]string, width)
			copy(padded, rec)
			rows.Records[i] = padded
		}
	}
	return rows, nil
}
