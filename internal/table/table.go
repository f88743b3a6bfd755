package table

import (
	"fmt"
	"strings"
)

// Rows is the rectangular dataset a loader hands to Load.
type Rows struct {
	// Source names the origin (file path, handle) for error messages.
	Source  string
	Header  []string
	Records [][]string
}

// Column is a named sequence of cells.
type Column struct {
	Name  string
	Cells []Cell
}

// Table is an ordered set of uniquely named, equal-length columns. A Table is
// never mutated after construction; Filter and friends return new tables.
type Table struct {
	cols  []Column
	index map[string]int
	n     int
}

// Load builds a Table from raw rows, tagging every cell. Empty sources, blank
// or duplicate column names and ragged rows are rejected with a *LoadError.
func Load(rows Rows) (*Table, error) {
	if len(rows.Header) == 0 {
		return nil, NewLoadError(rows.Source, "no columns", nil)
	}
	names := make([]string, len(rows.Header))
	for i, h := range rows.Header {
		names[i] = strings.TrimSpace(h)
	}
	for i, rec := range rows.Records {
		if len(rec) != len(names) {
			return nil, NewLoadError(rows.Source,
				fmt.Sprintf("row %d has %d fields, header has %d", i+1, len(rec), len(names)), nil)
		}
	}
	cols := make([]Column, len(names))
	for j, name := range names {
		cells := make([]Cell, len(rows.Records))
		for i, rec := range rows.Records {
			cells[i] = ParseCell(rec[j])
		}
		cols[j] = Column{Name: name, Cells: cells}
	}
	t, err := New(cols)
	if err != nil {
		return nil, NewLoadError(rows.Source, "invalid header", err)
	}
	return t, nil
}

// New assembles a Table from already-tagged columns. The cells are copied.
func New(cols []Column) (*Table, error) {
	if len(cols) == 0 {
		return nil, fmt.Errorf("table has no columns")
	}
	t := &Table{
		cols:  make([]Column, len(cols)),
		index: make(map[string]int, len(cols)),
		n:     len(cols[0].Cells),
	}
	for i, c := range cols {
		if c.Name == "" {
			return nil, fmt.Errorf("column %d has no name", i+1)
		}
		if _, dup := t.index[c.Name]; dup {
			return nil, fmt.Errorf("duplicate column name %q", c.Name)
		}
		if len(c.Cells) != t.n {
			return nil, fmt.Errorf("column %q has %d cells, expected %d", c.Name, len(c.Cells), t.n)
		}
		cells := make([]Cell, len(c.Cells))
		copy(cells, c.Cells)
		t.cols[i] = Column{Name: c.Name, Cells: cells}
		t.index[c.Name] = i
	}
	return t, nil
}

// Columns returns the column names in original order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.cols))
	for i, c := range t.cols {
		out[i] = c.Name
	}
	return out
}

// Len returns the number of rows.
func (t *Table) Len() int { return t.n }

// Width returns the number of columns.
func (t *Table) Width() int { return len(t.cols) }

// HasColumn reports whether name is one of the table's columns.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Column returns a copy of the named column's cells.
func (t *Table) Column(name string) ([]Cell, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	out := make([]Cell, t.n)
	copy(out, t.cols[i].Cells)
	return out, true
}

// Cell returns the cell at row r, column c (both 0-based).
func (t *Table) Cell(r, c int) Cell { return t.cols[c].Cells[r] }

// Row returns the text form of row r across all columns.
func (t *Table) Row(r int) []string {
	out := make([]string, len(t.cols))
	for j := range t.cols {
		out[j] = t.cols[j].Cells[r].String()
	}
	return out
}

// Records returns every row in text form, header excluded.
func (t *Table) Records() [][]string {
	out := make([][]string, t.n)
	for i := range out {
		out[i] = t.Row(i)
	}
	return out
}

// Equal reports whether both tables hold the same columns, in the same order,
// with the same cell kinds and values.
func (t *Table) Equal(o *Table) bool {
	if t == nil || o == nil {
		return t == o
	}
	if t.n != o.n || len(t.cols) != len(o.cols) {
		return false
	}
	for j := range t.cols {
		a, b := t.cols[j], o.cols[j]
		if a.Name != b.Name {
			return false
		}
		for i := range a.Cells {
			if !sameCell(a.Cells[i], b.Cells[i]) {
				return false
			}
		}
	}
	return true
}

func sameCell(a, b Cell) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case Missing:
		return true
	case Numeric:
		return a.Num == b.Num
	default:
		return a.Raw == b.Raw
	}
}

// selectRows copies the given rows into a new table with identical columns.
func (t *Table) selectRows(keep []int) *Table {
	out := &Table{cols: make([]Column, len(t.cols)), index: make(map[string]int, len(t.cols)), n: len(keep)}
	for j, c := range t.cols {
		cells := make([]Cell, len(keep))
		for k, r := range keep {
			cells[k] = c.Cells[r]
		}
		out.cols[j] = Column{Name: c.Name, Cells: cells}
		out.index[c.Name] = j
	}
	return out
}
