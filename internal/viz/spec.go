package viz

// HistogramBins is the fixed bin count for histograms.
const HistogramBins = 20

// ChartSpec is a fully resolved, renderer-ready chart description. Only the
// field matching Kind is populated.
type ChartSpec struct {
	Kind    ChartKind `json:"kind"`
	Title   string    `json:"title"`
	XLabel  string    `json:"x_label,omitempty"`
	YLabel  string    `json:"y_label,omitempty"`
	Columns []string  `json:"columns"`

	Boxes  []BoxStats `json:"boxes,omitempty"`
	Bins   []Bin      `json:"bins,omitempty"`
	Bars   []Bar      `json:"bars,omitempty"`
	Slices []Slice    `json:"slices,omitempty"`
	Pairs  []Pair     `json:"pairs,omitempty"`
	// Diagonal holds per-column values for pair plots.
	Diagonal []Series `json:"diagonal,omitempty"`
}

// BoxStats is the five-number summary of one column plus Tukey whiskers.
type BoxStats struct {
	Column    string    `json:"column"`
	Count     int       `json:"count"`
	Min       float64   `json:"min"`
	Q1        float64   `json:"q1"`
	Median    float64   `json:"median"`
	Q3        float64   `json:"q3"`
	Max       float64   `json:"max"`
	WhiskerLo float64   `json:"whisker_lo"`
	WhiskerHi float64   `json:"whisker_hi"`
	Outliers  []float64 `json:"outliers,omitempty"`
}

// Bin is one half-open histogram interval [Lo, Hi); the last bin is closed.
type Bin struct {
	Lo    float64 `json:"lo"`
	Hi    float64 `json:"hi"`
	Count int     `json:"count"`
}

// Bar is a labeled scalar.
type Bar struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Slice is one category of a pie chart.
type Slice struct {
	Label   string  `json:"label"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// Pair holds row-aligned values of two numeric columns (rows where either is
// missing are dropped).
type Pair struct {
	X       string    `json:"x"`
	Y       string    `json:"y"`
	XValues []float64 `json:"x_values"`
	YValues []float64 `json:"y_values"`
}

// Series is a named list of values.
type Series struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

// Resolution is the outcome of Resolve: either a Spec or the reason the chart
// does not apply to the table.
type Resolution struct {
	Spec   *ChartSpec
	Reason string
}

// Applicable reports whether a spec was produced.
func (r Resolution) Applicable() bool { return r.Spec != nil }

func notApplicable(reason string) Resolution { return Resolution{Reason: reason} }
