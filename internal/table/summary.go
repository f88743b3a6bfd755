package table

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// IsNumericColumn reports whether every non-missing cell is numeric. A column
// with no values at all is not numeric.
func IsNumericColumn(cells []Cell) bool {
	seen := false
	for _, c := range cells {
		switch c.Kind {
		case Missing:
			continue
		case Numeric:
			seen = true
		default:
			return false
		}
	}
	return seen
}

// Summary is a display-oriented digest of a table.
type Summary struct {
	Name    string
	Rows    int
	Cols    []ColumnSummary
	Samples [][]string
}

// ColumnSummary captures the inferred kind and statistics per column.
type ColumnSummary struct {
	Name    string
	Kind    string // numeric|categorical
	NonNull int
	Missing int
	Unique  int
	// Numeric stats
	Min  float64
	Max  float64
	Mean float64
	Std  float64
	// Categorical top values
	TopValues []CategoryCount
}

type CategoryCount struct {
	Value string
	Count int
}

// Summarize computes per-column statistics and keeps the first sampleRows rows.
func Summarize(name string, t *Table, sampleRows int) Summary {
	s := Summary{Name: name, Rows: t.n}
	for _, c := range t.cols {
		s.Cols = append(s.Cols, summarizeColumn(c))
	}
	if sampleRows > t.n {
		sampleRows = t.n
	}
	for i := 0; i < sampleRows; i++ {
		s.Samples = append(s.Samples, t.Row(i))
	}
	return s
}

func summarizeColumn(c Column) ColumnSummary {
	cs := ColumnSummary{Name: c.Name, Kind: "categorical"}
	for _, cell := range c.Cells {
		if cell.IsMissing() {
			cs.Missing++
		} else {
			cs.NonNull++
		}
	}
	if IsNumericColumn(c.Cells) {
		cs.Kind = "numeric"
		// Welford
		var n int
		var mean, m2 float64
		cs.Min, cs.Max = math.Inf(1), math.Inf(-1)
		for _, cell := range c.Cells {
			if cell.Kind != Numeric {
				continue
			}
			x := cell.Num
			n++
			if x < cs.Min {
				cs.Min = x
			}
			if x > cs.Max {
				cs.Max = x
			}
			delta := x - mean
			mean += delta / float64(n)
			m2 += delta * (x - mean)
		}
		cs.Mean = mean
		if n > 1 {
			cs.Std = math.Sqrt(m2 / float64(n-1))
		}
		return cs
	}
	counts := map[string]int{}
	for _, cell := range c.Cells {
		if !cell.IsMissing() {
			counts[cell.String()]++
		}
	}
	tops := make([]CategoryCount, 0, len(counts))
	for k, v := range counts {
		tops = append(tops, CategoryCount{Value: k, Count: v})
	}
	sort.Slice(tops, func(i, j int) bool {
		if tops[i].Count == tops[j].Count {
			return tops[i].Value < tops[j].Value
		}
		return tops[i].Count > tops[j].Count
	})
	if len(tops) > 8 {
		tops = tops[:8]
	}
	cs.TopValues = tops
	cs.Unique = len(counts)
	return cs
}

// Markdown renders the summary and sample rows for terminal display.
func (s Summary) Markdown() string {
	var b strings.Builder
	b.WriteString("[TABLE]\n")
	if s.Name != "" {
		b.WriteString(fmt.Sprintf("Source: %s\n", s.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", s.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d\n\n", len(s.Cols)))

	b.WriteString("[SCHEMA]\n")
	for _, c := range s.Cols {
		total := c.NonNull + c.Missing
		missPct := 0.0
		if total > 0 {
			missPct = float64(c.Missing) * 100.0 / float64(total)
		}
		b.WriteString(fmt.Sprintf("- %s: %s (non-null %d, missing %.1f%%)", safeVal(c.Name), c.Kind, c.NonNull, missPct))
		switch c.Kind {
		case "numeric":
			b.WriteString(fmt.Sprintf(" — min %.4g, max %.4g, mean %.4g, std %.4g", c.Min, c.Max, c.Mean, c.Std))
		case "categorical":
			if len(c.TopValues) > 0 {
				b.WriteString(" — top: ")
				for i, kv := range c.TopValues {
					if i > 0 {
						b.WriteString(", ")
					}
					b.WriteString(fmt.Sprintf("%s(%d)", safeVal(kv.Value), kv.Count))
				}
				if c.Unique > len(c.TopValues) {
					b.WriteString(fmt.Sprintf("; unique=%d", c.Unique))
				}
			}
		}
		b.WriteString("\n")
	}
	if len(s.Samples) > 0 {
		b.WriteString("\n[ROWS]\n")
		b.WriteString("| ")
		for i, c := range s.Cols {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(safeVal(c.Name))
		}
		b.WriteString(" |\n| ")
		for i := range s.Cols {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString("---")
		}
		b.WriteString(" |\n")
		for _, row := range s.Samples {
			b.WriteString("| ")
			for i, val := range row {
				if i > 0 {
					b.WriteString(" | ")
				}
				if r := []rune(val); len(r) > 80 {
					val = string(r[:77]) + "..."
				}
				b.WriteString(safeVal(val))
			}
			b.WriteString(" |\n")
		}
		if s.Rows > len(s.Samples) {
			b.WriteString(fmt.Sprintf("\n(%d more rows)\n", s.Rows-len(s.Samples)))
		}
	} else if s.Rows == 0 {
		b.WriteString("\n(no rows)\n")
	}
	return b.String()
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
