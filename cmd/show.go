package cmd

import (
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/tabsift/internal/table"
)

var (
	showRows     int
	showPretty   bool
	showOriginal bool
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display the current table: schema summary and the first rows",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, done, err := loadSession(cmd.Context())
		if err != nil {
			return err
		}
		defer done()
		t := s.Current()
		if showOriginal {
			t = s.Original()
		}
		rows := cfg.PreviewRows
		if cmd.Flags().Changed("rows") {
			rows = showRows
		}
		md := table.Summarize(s.Source(), t, rows).Markdown()
		if f := s.Filters(); len(f) > 0 && !showOriginal {
			md = fmt.Sprintf("Filtered: %s\n\n", describeFilters(f)) + md
		}
		if showPretty {
			r, err := glamour.NewTermRenderer(
				glamour.WithAutoStyle(),
				glamour.WithWordWrap(120),
			)
			if err != nil {
				return fmt.Errorf("init markdown renderer: %w", err)
			}
			out, err := r.Render(md)
			if err != nil {
				return fmt.Errorf("render markdown: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		}
		fmt.Fprint(cmd.OutOrStdout(), md)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().IntVar(&showRows, "rows", 10, "number of rows to preview (overrides preview_rows)")
	showCmd.Flags().BoolVar(&showPretty, "pretty", false, "render the summary as styled terminal markdown")
	showCmd.Flags().BoolVar(&showOriginal, "original", false, "show the table as loaded, ignoring filters")
}
