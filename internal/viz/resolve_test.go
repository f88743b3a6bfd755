package viz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/tabsift/internal/table"
)

func load(t *testing.T, header []string, records ...[]string) *table.Table {
	t.Helper()
	tb, err := table.Load(table.Rows{Header: header, Records: records})
	require.NoError(t, err)
	return tb
}

func people(t *testing.T) *table.Table {
	return load(t, []string{"name", "age"},
		[]string{"Ann", "34"},
		[]string{"bob", "22"},
		[]string{"Annie", "40"},
	)
}

func TestClassify(t *testing.T) {
	tb := load(t, []string{"id", "city", "score", "empty", "mixed"},
		[]string{"1", "Oslo", "3.5", "", "1"},
		[]string{"2", "Bergen", "", "", "two"},
		[]string{"3", "Oslo", "4", "NA", "3"},
	)
	cls := Classify(tb)
	assert.Equal(t, []string{"id", "score"}, cls.Numeric)
	assert.Equal(t, []string{"city", "empty", "mixed"}, cls.Categorical)
}

func TestResolvePieAndPairOnPeople(t *testing.T) {
	tb := people(t)

	pie := Resolve(tb, PieChart)
	require.True(t, pie.Applicable(), pie.Reason)
	assert.Equal(t, []string{"name"}, pie.Spec.Columns)
	assert.Equal(t, "Pie Chart of name", pie.Spec.Title)
	require.Len(t, pie.Spec.Slices, 3)
	assert.Equal(t, Slice{Label: "Ann", Count: 1, Percent: 100.0 / 3}, pie.Spec.Slices[0])

	pair := Resolve(tb, PairPlot)
	assert.False(t, pair.Applicable())
	assert.Contains(t, pair.Reason, "two numeric columns")
}

func TestResolveHistogramFirstNumericColumn(t *testing.T) {
	tb := load(t, []string{"label", "a", "b"},
		[]string{"x", "0", "100"},
		[]string{"y", "10", "200"},
		[]string{"z", "5", "300"},
	)
	res := Resolve(tb, Histogram)
	require.True(t, res.Applicable())
	assert.Equal(t, []string{"a"}, res.Spec.Columns)
	require.Len(t, res.Spec.Bins, HistogramBins)
	assert.Equal(t, 0.0, res.Spec.Bins[0].Lo)
	assert.Equal(t, 10.0, res.Spec.Bins[HistogramBins-1].Hi)
	total := 0
	for _, b := range res.Spec.Bins {
		total += b.Count
	}
	assert.Equal(t, 3, total)
	assert.Equal(t, 1, res.Spec.Bins[HistogramBins-1].Count, "max value lands in the closed last bin")
}

func TestResolveHistogramConstantColumn(t *testing.T) {
	tb := load(t, []string{"v"}, []string{"7"}, []string{"7"})
	res := Resolve(tb, Histogram)
	require.True(t, res.Applicable())
	assert.Equal(t, 6.5, res.Spec.Bins[0].Lo)
	assert.Equal(t, 7.5, res.Spec.Bins[HistogramBins-1].Hi)
}

func TestResolveBarChartMeansSkipMissing(t *testing.T) {
	tb := load(t, []string{"a", "b", "tag"},
		[]string{"1", "", "x"},
		[]string{"3", "10", "y"},
	)
	res := Resolve(tb, BarChart)
	require.True(t, res.Applicable())
	assert.Equal(t, []Bar{{Label: "a", Value: 2}, {Label: "b", Value: 10}}, res.Spec.Bars)
	assert.Equal(t, "Average Values of Numeric Columns", res.Spec.Title)
}

func TestResolveBoxPlot(t *testing.T) {
	tb := load(t, []string{"v"},
		[]string{"1"}, []string{"2"}, []string{"3"}, []string{"4"}, []string{"100"},
	)
	res := Resolve(tb, BoxPlot)
	require.True(t, res.Applicable())
	require.Len(t, res.Spec.Boxes, 1)
	b := res.Spec.Boxes[0]
	assert.Equal(t, 2.0, b.Q1)
	assert.Equal(t, 3.0, b.Median)
	assert.Equal(t, 4.0, b.Q3)
	assert.Equal(t, 1.0, b.WhiskerLo)
	assert.Equal(t, 4.0, b.WhiskerHi)
	assert.Equal(t, []float64{100}, b.Outliers)
}

func TestResolvePairPlotAlignsRows(t *testing.T) {
	tb := load(t, []string{"a", "b", "c"},
		[]string{"1", "2", "3"},
		[]string{"4", "", "6"},
		[]string{"7", "8", "9"},
	)
	res := Resolve(tb, PairPlot)
	require.True(t, res.Applicable())
	require.Len(t, res.Spec.Pairs, 3)
	assert.Equal(t, "a", res.Spec.Pairs[0].X)
	assert.Equal(t, "b", res.Spec.Pairs[0].Y)
	assert.Equal(t, []float64{1, 7}, res.Spec.Pairs[0].XValues)
	assert.Equal(t, []float64{2, 8}, res.Spec.Pairs[0].YValues)
	assert.Equal(t, "c", res.Spec.Pairs[2].Y)
	assert.Len(t, res.Spec.Pairs[2].XValues, 2)
}

func TestResolvePieTiesKeepFirstAppearance(t *testing.T) {
	tb := load(t, []string{"c"},
		[]string{"b"}, []string{"a"}, []string{"a"}, []string{"c"}, []string{"b"}, []string{"z"},
	)
	res := Resolve(tb, PieChart)
	require.True(t, res.Applicable())
	var labels []string
	for _, s := range res.Spec.Slices {
		labels = append(labels, s.Label)
	}
	assert.Equal(t, []string{"b", "a", "c", "z"}, labels)
}

func TestResolveEmptyFilteredTable(t *testing.T) {
	filtered, err := table.Filter(people(t), "name", "nobody")
	require.NoError(t, err)
	require.Equal(t, 0, filtered.Len())

	cls := Classify(filtered)
	assert.Empty(t, cls.Numeric)
	assert.Equal(t, []string{"name", "age"}, cls.Categorical)

	for _, k := range []ChartKind{BoxPlot, Histogram, BarChart, PairPlot} {
		res := Resolve(filtered, k)
		assert.False(t, res.Applicable(), k.String())
		assert.NotEmpty(t, res.Reason)
	}
	pie := Resolve(filtered, PieChart)
	require.True(t, pie.Applicable())
	assert.Empty(t, pie.Spec.Slices)
}

func TestResolveIsDeterministic(t *testing.T) {
	tb := load(t, []string{"g", "x", "y"},
		[]string{"a", "1", "2"},
		[]string{"b", "3", "5"},
		[]string{"a", "2", "9"},
	)
	for _, k := range Kinds {
		first := Resolve(tb, k)
		second := Resolve(tb, k)
		assert.Equal(t, first, second, k.String())
	}
}

func TestParseChartKind(t *testing.T) {
	cases := map[string]ChartKind{
		"Box Plot":  BoxPlot,
		"boxplot":   BoxPlot,
		"hist":      Histogram,
		"Bar Chart": BarChart,
		"pie-chart": PieChart,
		"Pairplot":  PairPlot,
		"PairPlot":  PairPlot,
	}
	for in, want := range cases {
		got, err := ParseChartKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseChartKind("radar")
	assert.Error(t, err)
}
