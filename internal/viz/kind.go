package viz

import (
	"fmt"
	"strings"
)

// ChartKind is the closed set of charts the selector knows how to resolve.
type ChartKind int

const (
	BoxPlot ChartKind = iota + 1
	Histogram
	BarChart
	PieChart
	PairPlot
)

// Kinds lists every chart kind in menu order.
var Kinds = []ChartKind{BoxPlot, Histogram, BarChart, PieChart, PairPlot}

func (k ChartKind) String() string {
	switch k {
	case BoxPlot:
		return "BoxPlot"
	case Histogram:
		return "Histogram"
	case BarChart:
		return "BarChart"
	case PieChart:
		return "PieChart"
	case PairPlot:
		return "PairPlot"
	default:
		return fmt.Sprintf("ChartKind(%d)", int(k))
	}
}

// Label is the human-facing menu label.
func (k ChartKind) Label() string {
	switch k {
	case BoxPlot:
		return "Box Plot"
	case BarChart:
		return "Bar Chart"
	case PieChart:
		return "Pie Chart"
	case PairPlot:
		return "Pairplot"
	default:
		return k.String()
	}
}

// ParseChartKind maps a user gesture (enum name, menu label or short alias)
// onto a ChartKind. Matching ignores case, spaces, dashes and underscores.
func ParseChartKind(s string) (ChartKind, error) {
	key := strings.NewReplacer(" ", "", "-", "", "_", "").Replace(strings.ToLower(strings.TrimSpace(s)))
	switch key {
	case "boxplot", "box":
		return BoxPlot, nil
	case "histogram", "hist":
		return Histogram, nil
	case "barchart", "bar":
		return BarChart, nil
	case "piechart", "pie":
		return PieChart, nil
	case "pairplot", "pair", "pairs", "scatter":
		return PairPlot, nil
	}
	return 0, fmt.Errorf("unknown chart kind %q (use box|histogram|bar|pie|pairplot)", s)
}
