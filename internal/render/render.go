// Package render draws viz.ChartSpec values as PNG files with go-chart.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"unicode"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/KaramelBytes/tabsift/internal/utils"
	"github.com/KaramelBytes/tabsift/internal/viz"
)

// ErrEmptyChart is returned when a spec has nothing to draw.
var ErrEmptyChart = errors.New("chart has no data to draw")

const (
	DefaultWidth  = 1024
	DefaultHeight = 640
)

var palette = []drawing.Color{
	drawing.ColorFromHex("1f77b4"),
	drawing.ColorFromHex("ff7f0e"),
	drawing.ColorFromHex("2ca02c"),
	drawing.ColorFromHex("d62728"),
	drawing.ColorFromHex("9467bd"),
	drawing.ColorFromHex("8c564b"),
	drawing.ColorFromHex("e377c2"),
	drawing.ColorFromHex("7f7f7f"),
}

// Renderer writes charts into Dir.
type Renderer struct {
	Dir    string
	Width  int
	Height int
}

// New returns a Renderer with default dimensions where width/height are <= 0.
func New(dir string, width, height int) *Renderer {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	return &Renderer{Dir: dir, Width: width, Height: height}
}

// Image is one rendered PNG.
type Image struct {
	Name string
	PNG  []byte
}

// Render draws spec and writes every image to Dir, returning the file paths.
func (r *Renderer) Render(spec *viz.ChartSpec) ([]string, error) {
	images, err := r.Draw(spec)
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(images))
	for _, img := range images {
		p := filepath.Join(r.Dir, img.Name)
		if err := utils.SafeWriteFile(p, img.PNG); err != nil {
			return paths, fmt.Errorf("write %s: %w", img.Name, err)
		}
		paths = append(paths, p)
	}
	return paths, nil
}

// Draw renders spec in memory. Pair plots yield one image per column pair;
// every other kind yields exactly one.
func (r *Renderer) Draw(spec *viz.ChartSpec) (out []Image, err error) {
	if spec == nil {
		return nil, ErrEmptyChart
	}
	// go-chart panics on some degenerate inputs; surface those as errors
	defer func() {
		if rec := recover(); rec != nil {
			out, err = nil, fmt.Errorf("render %s: %v", spec.Kind, rec)
		}
	}()
	switch spec.Kind {
	case viz.BoxPlot:
		b, err := r.boxPlot(spec)
		return single(spec, "box_plot", b, err)
	case viz.Histogram:
		b, err := r.histogram(spec)
		return single(spec, "histogram_"+slug(first(spec.Columns)), b, err)
	case viz.BarChart:
		b, err := r.barChart(spec)
		return single(spec, "bar_chart", b, err)
	case viz.PieChart:
		b, err := r.pieChart(spec)
		return single(spec, "pie_chart_"+slug(first(spec.Columns)), b, err)
	case viz.PairPlot:
		return r.pairPlot(spec)
	}
	return nil, fmt.Errorf("unsupported chart kind %v", spec.Kind)
}

func single(spec *viz.ChartSpec, name string, b []byte, err error) ([]Image, error) {
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", spec.Kind.Label(), err)
	}
	return []Image{{Name: name + ".png", PNG: b}}, nil
}

func (r *Renderer) barChart(spec *viz.ChartSpec) ([]byte, error) {
	if len(spec.Bars) == 0 {
		return nil, ErrEmptyChart
	}
	bars := make([]chart.Value, len(spec.Bars))
	vals := make([]float64, len(spec.Bars))
	for i, b := range spec.Bars {
		if !finite(b.Value) {
			return nil, fmt.Errorf("bar %q has no finite value", b.Label)
		}
		bars[i] = chart.Value{Label: b.Label, Value: b.Value, Style: fill(i)}
		vals[i] = b.Value
	}
	return r.bars(spec.Title, spec.YLabel, bars, vals)
}

func (r *Renderer) histogram(spec *viz.ChartSpec) ([]byte, error) {
	if len(spec.Bins) == 0 {
		return nil, ErrEmptyChart
	}
	bars := make([]chart.Value, len(spec.Bins))
	vals := make([]float64, len(spec.Bins))
	for i, b := range spec.Bins {
		bars[i] = chart.Value{Label: chart.FloatValueFormatter(b.Lo), Value: float64(b.Count), Style: fill(0)}
		vals[i] = float64(b.Count)
	}
	return r.bars(spec.Title, spec.YLabel, bars, vals)
}

func (r *Renderer) bars(title, yName string, bars []chart.Value, vals []float64) ([]byte, error) {
	lo, hi := bounds(vals)
	lo, hi = math.Min(lo, 0), math.Max(hi, 0)
	lo, hi = pad(lo, hi)
	width := (r.Width - 120) / len(bars)
	if width > 80 {
		width = 80
	}
	if width < 4 {
		width = 4
	}
	bc := chart.BarChart{
		Title:      title,
		Width:      r.Width,
		Height:     r.Height,
		BarWidth:   width * 3 / 4,
		BarSpacing: width / 4,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 12, Bottom: 16}},
		YAxis:      chart.YAxis{Name: yName, Range: &chart.ContinuousRange{Min: lo, Max: hi}},
		Bars:       bars,
	}
	var buf bytes.Buffer
	if err := bc.Render(chart.PNG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (r *Renderer) pieChart(spec *viz.ChartSpec) ([]byte, error) {
	values := make([]chart.Value, 0, len(spec.Slices))
	for _, s := range spec.Slices {
		if s.Count <= 0 {
			continue
		}
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s (%.1f%%)", s.Label, s.Percent),
			Value: float64(s.Count),
		})
	}
	if len(values) == 0 {
		return nil, ErrEmptyChart
	}
	pc := chart.PieChart{
		Title:  spec.Title,
		Width:  r.Width,
		Height: r.Height,
		Values: values,
	}
	var buf bytes.Buffer
	if err := pc.Render(chart.PNG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// boxPlot draws each column at x = 1..n: whiskers as a vertical line, the
// interquartile box as a closed outline, the median as a horizontal line and
// outliers as dots.
func (r *Renderer) boxPlot(spec *viz.ChartSpec) ([]byte, error) {
	var series []chart.Series
	var ticks []chart.Tick
	var all []float64
	pos := 0
	for _, b := range spec.Boxes {
		if b.Count == 0 {
			continue
		}
		pos++
		x := float64(pos)
		col := palette[(pos-1)%len(palette)]
		line := chart.Style{StrokeWidth: 2, StrokeColor: col}
		series = append(series,
			chart.ContinuousSeries{
				Name:    b.Column,
				XValues: []float64{x - 0.3, x + 0.3, x + 0.3, x - 0.3, x - 0.3},
				YValues: []float64{b.Q1, b.Q1, b.Q3, b.Q3, b.Q1},
				Style:   line,
			},
			chart.ContinuousSeries{XValues: []float64{x, x}, YValues: []float64{b.WhiskerLo, b.Q1}, Style: line},
			chart.ContinuousSeries{XValues: []float64{x, x}, YValues: []float64{b.Q3, b.WhiskerHi}, Style: line},
			chart.ContinuousSeries{XValues: []float64{x - 0.15, x + 0.15}, YValues: []float64{b.WhiskerLo, b.WhiskerLo}, Style: line},
			chart.ContinuousSeries{XValues: []float64{x - 0.15, x + 0.15}, YValues: []float64{b.WhiskerHi, b.WhiskerHi}, Style: line},
			chart.ContinuousSeries{
				XValues: []float64{x - 0.3, x + 0.3},
				YValues: []float64{b.Median, b.Median},
				Style:   chart.Style{StrokeWidth: 3, StrokeColor: drawing.ColorBlack},
			},
		)
		if len(b.Outliers) > 0 {
			xs := make([]float64, len(b.Outliers))
			for i := range xs {
				xs[i] = x
			}
			series = append(series, chart.ContinuousSeries{XValues: xs, YValues: b.Outliers, Style: pointStyle(col)})
		}
		ticks = append(ticks, chart.Tick{Value: x, Label: b.Column})
		all = append(all, b.Min, b.Max, b.WhiskerLo, b.WhiskerHi)
	}
	if pos == 0 {
		return nil, ErrEmptyChart
	}
	lo, hi := pad(bounds(all))
	ticks = append([]chart.Tick{{Value: 0}}, append(ticks, chart.Tick{Value: float64(pos + 1)})...)
	ch := chart.Chart{
		Title:      spec.Title,
		Width:      r.Width,
		Height:     r.Height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 12, Bottom: 16}},
		XAxis:      chart.XAxis{Ticks: ticks, Range: &chart.ContinuousRange{Min: 0, Max: float64(pos + 1)}},
		YAxis:      chart.YAxis{Name: spec.YLabel, Range: &chart.ContinuousRange{Min: lo, Max: hi}},
		Series:     series,
	}
	return renderChart(ch)
}

func (r *Renderer) pairPlot(spec *viz.ChartSpec) ([]Image, error) {
	if len(spec.Pairs) == 0 {
		return nil, ErrEmptyChart
	}
	var out []Image
	for i, p := range spec.Pairs {
		if len(p.XValues) == 0 || len(p.XValues) != len(p.YValues) {
			return nil, fmt.Errorf("render %s: pair %s/%s: %w", spec.Kind.Label(), p.X, p.Y, ErrEmptyChart)
		}
		xlo, xhi := pad(bounds(p.XValues))
		ylo, yhi := pad(bounds(p.YValues))
		ch := chart.Chart{
			Title:      fmt.Sprintf("%s: %s vs %s", spec.Title, p.Y, p.X),
			Width:      r.Width,
			Height:     r.Height,
			Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 12, Bottom: 16}},
			XAxis:      chart.XAxis{Name: p.X, Range: &chart.ContinuousRange{Min: xlo, Max: xhi}},
			YAxis:      chart.YAxis{Name: p.Y, Range: &chart.ContinuousRange{Min: ylo, Max: yhi}},
			Series: []chart.Series{chart.ContinuousSeries{
				Name:    p.Y + " vs " + p.X,
				XValues: p.XValues,
				YValues: p.YValues,
				Style:   pointStyle(palette[i%len(palette)]),
			}},
		}
		b, err := renderChart(ch)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", spec.Kind.Label(), err)
		}
		out = append(out, Image{Name: fmt.Sprintf("pairplot_%s_vs_%s.png", slug(p.X), slug(p.Y)), PNG: b})
	}
	return out, nil
}

func renderChart(ch chart.Chart) ([]byte, error) {
	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// pointStyle renders points only (no connecting line).
func pointStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeWidth: chart.Disabled,
		DotWidth:    4,
		DotColor:    col,
	}
}

func fill(i int) chart.Style {
	col := palette[i%len(palette)]
	return chart.Style{FillColor: col, StrokeColor: col, StrokeWidth: 1}
}

func bounds(vals []float64) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range vals {
		if !finite(v) {
			continue
		}
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	if lo > hi {
		return 0, 1
	}
	return lo, hi
}

// pad widens [lo, hi] by 5% so no range is ever zero-width.
func pad(lo, hi float64) (float64, float64) {
	span := hi - lo
	if span == 0 {
		span = math.Max(math.Abs(lo), 1)
		return lo - span/2, hi + span/2
	}
	return lo - span*0.05, hi + span*0.05
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func first(s []string) string {
	if len(s) == 0 {
		return "chart"
	}
	return s[0]
}

// slug turns a column name into a file-name fragment.
func slug(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case b.Len() > 0 && !strings.HasSuffix(b.String(), "_"):
			b.WriteByte('_')
		}
	}
	out := strings.TrimSuffix(b.String(), "_")
	if out == "" {
		return "column"
	}
	return out
}
