package table

import (
	"strings"

	"golang.org/x/text/cases"
)

// Filter keeps the rows whose cell in column contains pattern, compared
// case-insensitively. Missing cells never match. All columns are kept in their
// original order; a result with zero rows is valid. An empty pattern is
// rejected before the column is looked up.
func Filter(t *Table, column, pattern string) (*Table, error) {
	if pattern == "" {
		return nil, ErrEmptyPattern
	}
	j, ok := t.index[column]
	if !ok {
		return nil, invalidColumn(column)
	}
	fold := cases.Fold()
	needle := fold.String(pattern)
	keep := make([]int, 0, t.n)
	for i, c := range t.cols[j].Cells {
		if c.IsMissing() {
			continue
		}
		if strings.Contains(fold.String(c.String()), needle) {
			keep = append(keep, i)
		}
	}
	return t.selectRows(keep), nil
}
