package cmd

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/tabsift/internal/loader"
	"github.com/KaramelBytes/tabsift/internal/session"
)

var (
	openSheet      string
	openSheetIndex int
	openDelimiter  string
	openSelector   string
)

var openCmd = &cobra.Command{
	Use:   "open <file>",
	Short: "Load a dataset (CSV, TSV, XLSX, HTML) as the current table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !loader.Supported(args[0]) {
			return fmt.Errorf("unsupported file type %q (use .csv, .tsv, .xlsx, .html or .htm)", filepath.Ext(args[0]))
		}
		ctx := cmd.Context()
		st, closeStore, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer closeStore()

		// continue the saved session so a stale snapshot gets cleaned up
		s, err := session.Load(ctx, st, cfg.WorkspaceDir)
		if err != nil {
			if !errors.Is(err, session.ErrNoSession) {
				warn(cmd, "previous session could not be restored: %v", err)
			}
			s = session.New(st, cfg.WorkspaceDir)
		}

		opt := session.SourceOptions{
			SheetName:  cfg.SheetName,
			SheetIndex: cfg.SheetIndex,
			Delimiter:  cfg.Delimiter(),
			Selector:   openSelector,
		}
		if cmd.Flags().Changed("sheet") {
			opt.SheetName = openSheet
		}
		if cmd.Flags().Changed("sheet-index") {
			opt.SheetName, opt.SheetIndex = "", openSheetIndex
		}
		if cmd.Flags().Changed("delimiter") {
			opt.Delimiter = openDelimiter
			if openDelimiter == `\t` {
				opt.Delimiter = "\t"
			}
		}
		if err := s.OpenFile(ctx, args[0], opt); err != nil {
			return err
		}
		if err := s.Save(); err != nil {
			return fmt.Errorf("save session: %w", err)
		}
		t := s.Current()
		success(cmd, "Loaded %s: %d rows, %d columns", s.Source(), t.Len(), t.Width())
		fmt.Fprintf(cmd.OutOrStdout(), "Columns: %s\n", strings.Join(t.Columns(), ", "))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(openCmd)
	openCmd.Flags().StringVar(&openSheet, "sheet", "", "XLSX sheet name")
	openCmd.Flags().IntVar(&openSheetIndex, "sheet-index", 1, "XLSX sheet position (1-based)")
	openCmd.Flags().StringVar(&openDelimiter, "delimiter", "", `CSV delimiter (default by extension; use \t for tab)`)
	openCmd.Flags().StringVar(&openSelector, "selector", "", "CSS selector of the HTML table (default: first table)")
}
