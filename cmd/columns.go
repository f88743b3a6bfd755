package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/tabsift/internal/viz"
)

var columnsCmd = &cobra.Command{
	Use:   "columns",
	Short: "List the columns of the current table",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, done, err := loadSession(cmd.Context())
		if err != nil {
			return err
		}
		defer done()
		t := s.Current()
		cls := viz.Classify(t)
		numeric := make(map[string]bool, len(cls.Numeric))
		for _, n := range cls.Numeric {
			numeric[n] = true
		}
		header := lipgloss.NewStyle().Bold(true).Padding(0, 1)
		cell := lipgloss.NewStyle().Padding(0, 1)
		tbl := table.New().
			Border(lipgloss.NormalBorder()).
			Headers("#", "COLUMN", "KIND").
			StyleFunc(func(row, _ int) lipgloss.Style {
				if row == table.HeaderRow {
					return header
				}
				return cell
			})
		for i, name := range t.Columns() {
			kind := "categorical"
			if numeric[name] {
				kind = "numeric"
			}
			tbl.Row(strconv.Itoa(i+1), name, kind)
		}
		fmt.Fprintln(cmd.OutOrStdout(), tbl.Render())
		return nil
	},
}

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Split the current table's columns into numeric and categorical",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, done, err := loadSession(cmd.Context())
		if err != nil {
			return err
		}
		defer done()
		cls := viz.Classify(s.Current())
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Numeric (%d): %s\n", len(cls.Numeric), joinOrNone(cls.Numeric))
		fmt.Fprintf(out, "Categorical (%d): %s\n", len(cls.Categorical), joinOrNone(cls.Categorical))
		return nil
	},
}

func joinOrNone(names []string) string {
	if len(names) == 0 {
		return "(none)"
	}
	return strings.Join(names, ", ")
}

func init() {
	rootCmd.AddCommand(columnsCmd)
	rootCmd.AddCommand(classifyCmd)
}
