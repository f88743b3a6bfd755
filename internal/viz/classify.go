package viz

import "github.com/KaramelBytes/tabsift/internal/table"

// Classification partitions a table's columns, each list in table order.
type Classification struct {
	Numeric     []string
	Categorical []string
}

// Classify splits columns into numeric (every present cell numeric, at least
// one present) and categorical (everything else, including all-missing
// columns). It is recomputed on every call.
func Classify(t *table.Table) Classification {
	var c Classification
	for _, name := range t.Columns() {
		cells, _ := t.Column(name)
		if table.IsNumericColumn(cells) {
			c.Numeric = append(c.Numeric, name)
		} else {
			c.Categorical = append(c.Categorical, name)
		}
	}
	return c
}
