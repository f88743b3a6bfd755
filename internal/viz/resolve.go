package viz

import (
	"fmt"
	"math"
	"sort"

	"github.com/KaramelBytes/tabsift/internal/table"
)

// Resolve maps a chart request onto a spec for t. When the table lacks the
// columns the chart needs, the Resolution carries a human-readable reason
// instead; Resolve never fails.
func Resolve(t *table.Table, kind ChartKind) Resolution {
	cls := Classify(t)
	switch kind {
	case BoxPlot:
		if len(cls.Numeric) == 0 {
			return notApplicable("box plot needs at least one numeric column")
		}
		return Resolution{Spec: boxPlot(t, cls.Numeric)}
	case Histogram:
		if len(cls.Numeric) == 0 {
			return notApplicable("histogram needs at least one numeric column")
		}
		return Resolution{Spec: histogram(t, cls.Numeric[0])}
	case BarChart:
		if len(cls.Numeric) == 0 {
			return notApplicable("bar chart needs at least one numeric column")
		}
		return Resolution{Spec: barChart(t, cls.Numeric)}
	case PieChart:
		if len(cls.Categorical) == 0 {
			return notApplicable("pie chart needs at least one categorical column")
		}
		return Resolution{Spec: pieChart(t, cls.Categorical[0])}
	case PairPlot:
		if len(cls.Numeric) < 2 {
			return notApplicable(fmt.Sprintf("pair plot needs at least two numeric columns, found %d", len(cls.Numeric)))
		}
		return Resolution{Spec: pairPlot(t, cls.Numeric)}
	}
	return notApplicable(fmt.Sprintf("unsupported chart kind %v", kind))
}

func boxPlot(t *table.Table, cols []string) *ChartSpec {
	spec := &ChartSpec{
		Kind:    BoxPlot,
		Title:   "Box Plot of Numeric Columns",
		YLabel:  "Value",
		Columns: append([]string(nil), cols...),
	}
	for _, name := range cols {
		spec.Boxes = append(spec.Boxes, boxStats(name, numbers(t, name)))
	}
	return spec
}

func histogram(t *table.Table, col string) *ChartSpec {
	return &ChartSpec{
		Kind:    Histogram,
		Title:   fmt.Sprintf("Histogram of %s", col),
		XLabel:  col,
		YLabel:  "Frequency",
		Columns: []string{col},
		Bins:    bins(numbers(t, col), HistogramBins),
	}
}

func barChart(t *table.Table, cols []string) *ChartSpec {
	spec := &ChartSpec{
		Kind:    BarChart,
		Title:   "Average Values of Numeric Columns",
		YLabel:  "Mean",
		Columns: append([]string(nil), cols...),
	}
	for _, name := range cols {
		spec.Bars = append(spec.Bars, Bar{Label: name, Value: mean(numbers(t, name))})
	}
	return spec
}

func pieChart(t *table.Table, col string) *ChartSpec {
	cells, _ := t.Column(col)
	counts := map[string]int{}
	var order []string
	total := 0
	for _, c := range cells {
		if c.IsMissing() {
			continue
		}
		v := c.String()
		if _, ok := counts[v]; !ok {
			order = append(order, v)
		}
		counts[v]++
		total++
	}
	slices := make([]Slice, 0, len(order))
	for _, v := range order {
		slices = append(slices, Slice{Label: v, Count: counts[v], Percent: float64(counts[v]) * 100 / float64(total)})
	}
	// stable: ties keep first-appearance order
	sort.SliceStable(slices, func(i, j int) bool { return slices[i].Count > slices[j].Count })
	return &ChartSpec{
		Kind:    PieChart,
		Title:   fmt.Sprintf("Pie Chart of %s", col),
		Columns: []string{col},
		Slices:  slices,
	}
}

func pairPlot(t *table.Table, cols []string) *ChartSpec {
	spec := &ChartSpec{
		Kind:    PairPlot,
		Title:   "Pairwise Relationships in Numeric Data",
		Columns: append([]string(nil), cols...),
	}
	cells := make([][]table.Cell, len(cols))
	for i, name := range cols {
		cells[i], _ = t.Column(name)
		spec.Diagonal = append(spec.Diagonal, Series{Name: name, Values: numbers(t, name)})
	}
	for i := 0; i < len(cols); i++ {
		for j := i + 1; j < len(cols); j++ {
			p := Pair{X: cols[i], Y: cols[j], XValues: []float64{}, YValues: []float64{}}
			for r := 0; r < t.Len(); r++ {
				x, y := cells[i][r], cells[j][r]
				if x.Kind != table.Numeric || y.Kind != table.Numeric {
					continue
				}
				p.XValues = append(p.XValues, x.Num)
				p.YValues = append(p.YValues, y.Num)
			}
			spec.Pairs = append(spec.Pairs, p)
		}
	}
	return spec
}

// numbers returns the numeric values of a column in row order, skipping missing.
func numbers(t *table.Table, col string) []float64 {
	cells, _ := t.Column(col)
	out := make([]float64, 0, len(cells))
	for _, c := range cells {
		if c.Kind == table.Numeric {
			out = append(out, c.Num)
		}
	}
	return out
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}
