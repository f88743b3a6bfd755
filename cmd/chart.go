package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/tabsift/internal/render"
	"github.com/KaramelBytes/tabsift/internal/utils"
	"github.com/KaramelBytes/tabsift/internal/viz"
)

var (
	chartKind   string
	chartRender bool
	chartJSON   bool
	chartOut    string
)

var chartCmd = &cobra.Command{
	Use:   "chart",
	Short: "Resolve a chart over the current table and optionally render it to PNG",
	Long: `Resolve one of: box plot, histogram, bar chart, pie chart, pairplot.
Numeric charts use the numeric columns (histogram: the first one); the pie chart
counts values of the first categorical column. --render writes PNG files.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := viz.ParseChartKind(chartKind)
		if err != nil {
			return err
		}
		s, done, err := loadSession(cmd.Context())
		if err != nil {
			return err
		}
		defer done()

		res := viz.Resolve(s.Current(), kind)
		if !res.Applicable() {
			warn(cmd, "%s not applicable: %s", kind.Label(), res.Reason)
			return nil
		}
		spec := res.Spec
		out := cmd.OutOrStdout()
		if chartJSON {
			b, err := utils.PrettyJSON(spec)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(b))
		} else {
			describeSpec(cmd, spec)
		}
		if !chartRender {
			return nil
		}
		dir := cfg.ChartDir
		if chartOut != "" {
			dir = chartOut
		}
		paths, err := render.New(dir, cfg.ChartWidth, cfg.ChartHeight).Render(spec)
		if err != nil {
			return err
		}
		for _, p := range paths {
			success(cmd, "Wrote %s", p)
		}
		return nil
	},
}

func describeSpec(cmd *cobra.Command, spec *viz.ChartSpec) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s\n", spec.Title)
	fmt.Fprintf(out, "Columns: %s\n", strings.Join(spec.Columns, ", "))
	switch spec.Kind {
	case viz.BoxPlot:
		for _, b := range spec.Boxes {
			fmt.Fprintf(out, "  %s: min %.4g, q1 %.4g, median %.4g, q3 %.4g, max %.4g (n=%d, outliers %d)\n",
				b.Column, b.Min, b.Q1, b.Median, b.Q3, b.Max, b.Count, len(b.Outliers))
		}
	case viz.Histogram:
		for _, b := range spec.Bins {
			fmt.Fprintf(out, "  [%.4g, %.4g): %d\n", b.Lo, b.Hi, b.Count)
		}
	case viz.BarChart:
		for _, b := range spec.Bars {
			fmt.Fprintf(out, "  %s: %.4g\n", b.Label, b.Value)
		}
	case viz.PieChart:
		if len(spec.Slices) == 0 {
			fmt.Fprintln(out, "  (no values)")
		}
		for _, sl := range spec.Slices {
			fmt.Fprintf(out, "  %s: %d (%.1f%%)\n", sl.Label, sl.Count, sl.Percent)
		}
	case viz.PairPlot:
		for _, p := range spec.Pairs {
			fmt.Fprintf(out, "  %s vs %s: %d points\n", p.Y, p.X, len(p.XValues))
		}
	}
}

func init() {
	rootCmd.AddCommand(chartCmd)
	chartCmd.Flags().StringVarP(&chartKind, "kind", "k", "", `chart kind: "box plot", histogram, "bar chart", "pie chart", pairplot`)
	chartCmd.Flags().BoolVar(&chartRender, "render", false, "write PNG files to chart_dir")
	chartCmd.Flags().BoolVar(&chartJSON, "json", false, "print the resolved chart spec as JSON")
	chartCmd.Flags().StringVarP(&chartOut, "out", "o", "", "directory for rendered charts (overrides chart_dir)")
	_ = chartCmd.MarkFlagRequired("kind")
}
