package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/tabsift/internal/session"
)

var discardCmd = &cobra.Command{
	Use:   "discard",
	Short: "Delete the filtered snapshot and restore the original table",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, done, err := loadSession(ctx)
		if err != nil {
			return err
		}
		defer done()
		h, _ := s.Handle()
		if err := s.Discard(ctx); err != nil {
			if isWarning(err, session.ErrNothingToDiscard) {
				warn(cmd, "No filtered data to discard")
				return nil
			}
			return err
		}
		if err := s.Save(); err != nil {
			return err
		}
		success(cmd, "Discarded %s; restored %d rows", h.Location, s.Current().Len())
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the session: source, filters and snapshot",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, done, err := loadSession(cmd.Context())
		if err != nil {
			return err
		}
		defer done()
		out := cmd.OutOrStdout()
		printf := func(format string, a ...any) { fmt.Fprintf(out, format, a...) }
		printf("Session: %s\n", s.ID())
		printf("Source: %s (%d rows)\n", s.Source(), s.Original().Len())
		if f := s.Filters(); len(f) > 0 {
			printf("Filters: %s\n", describeFilters(f))
		} else {
			printf("Filters: (none)\n")
		}
		if h, ok := s.Handle(); ok {
			printf("Snapshot: %s (%d rows)\n", h, s.Current().Len())
		}
		printf("Workspace: %s\n", cfg.WorkspaceDir)
		return nil
	},
}

var closeCmd = &cobra.Command{
	Use:   "close",
	Short: "Forget the current dataset and delete its filtered snapshot",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, done, err := loadSession(ctx)
		switch {
		case errors.Is(err, session.ErrNoTable):
			warn(cmd, "No dataset is open")
			return nil
		case err != nil:
			// the source may be gone; the saved state is useless either way
			warn(cmd, "session could not be restored: %v", err)
			if err := session.Clear(cfg.WorkspaceDir); err != nil {
				return err
			}
			success(cmd, "Cleared session state")
			return nil
		}
		defer done()
		if err := s.Discard(ctx); err != nil && !errors.Is(err, session.ErrNothingToDiscard) {
			return err
		}
		if err := session.Clear(cfg.WorkspaceDir); err != nil {
			return err
		}
		success(cmd, "Closed %s", s.Source())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(discardCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(closeCmd)
}
