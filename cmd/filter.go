package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/tabsift/internal/session"
	"github.com/KaramelBytes/tabsift/internal/table"
	"github.com/KaramelBytes/tabsift/internal/voice"
)

var (
	filterColumn  string
	filterPattern string
	filterAudio   string
	filterQuiet   bool
)

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Keep rows whose column contains the pattern (case-insensitive)",
	Long: `Filter the current table to the rows whose --column contains --pattern,
ignoring case. The pattern can also be spoken: --audio transcribes a recording
through the configured transcription endpoint. The filtered rows are saved as a
snapshot and become the current table until 'tabsift discard'.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if filterPattern != "" && filterAudio != "" {
			return errors.New("use either --pattern or --audio, not both")
		}
		ctx := cmd.Context()
		s, done, err := loadSession(ctx)
		if err != nil {
			return err
		}
		defer done()

		pattern := filterPattern
		if filterAudio != "" {
			// no point paying for a transcription the filter would reject
			if !s.Current().HasColumn(filterColumn) {
				return unknownColumn(s, filterColumn)
			}
			pattern, err = transcriber(filterAudio).Transcribe(ctx)
			if err != nil {
				if errors.Is(err, voice.ErrNoSpeech) {
					warn(cmd, "Could not understand the voice input")
					return nil
				}
				return fmt.Errorf("transcribe %s: %w", filterAudio, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Heard: %q\n", pattern)
		}

		before := s.Current().Len()
		got, err := s.ApplyFilter(ctx, filterColumn, pattern)
		if err != nil {
			if isWarning(err, table.ErrEmptyPattern) {
				warn(cmd, "Please enter a valid filter text")
				return nil
			}
			if errors.Is(err, table.ErrInvalidColumn) {
				return unknownColumn(s, filterColumn)
			}
			return err
		}
		if err := s.Save(); err != nil {
			return fmt.Errorf("save session: %w", err)
		}
		success(cmd, "Filtered %s containing %q: %d of %d rows", filterColumn, pattern, got.Len(), before)
		if h, ok := s.Handle(); ok {
			fmt.Fprintf(cmd.OutOrStdout(), "Saved snapshot: %s\n", h.Location)
		}
		if got.Len() == 0 {
			warn(cmd, "no rows matched; the current table is now empty (run 'tabsift discard' to restore)")
		}
		if !filterQuiet && got.Len() > 0 {
			fmt.Fprint(cmd.OutOrStdout(), "\n"+table.Summarize("", got, cfg.PreviewRows).Markdown())
		}
		return nil
	},
}

func transcriber(path string) voice.Transcriber {
	client := voice.NewClient(voice.Options{
		BaseURL:          cfg.TranscribeURL,
		APIKey:           cfg.APIKey,
		Model:            cfg.TranscribeModel,
		Language:         cfg.TranscribeLanguage,
		HTTPTimeout:      time.Duration(cfg.HTTPTimeoutSec) * time.Second,
		RetryMaxAttempts: cfg.RetryMaxAttempts,
		RetryBaseDelay:   time.Duration(cfg.RetryBaseDelayMs) * time.Millisecond,
		RetryMaxDelay:    time.Duration(cfg.RetryMaxDelayMs) * time.Millisecond,
	})
	return voice.FileTranscriber{Client: client, Path: path}
}

func unknownColumn(s *session.Session, name string) error {
	return fmt.Errorf("%w: %q (available: %s)", table.ErrInvalidColumn, name, strings.Join(s.Current().Columns(), ", "))
}

func describeFilters(fs []session.Filter) string {
	parts := make([]string, len(fs))
	for i, f := range fs {
		parts[i] = fmt.Sprintf("%s contains %q", f.Column, f.Pattern)
	}
	return strings.Join(parts, ", then ")
}

func init() {
	rootCmd.AddCommand(filterCmd)
	filterCmd.Flags().StringVarP(&filterColumn, "column", "c", "", "column to search")
	filterCmd.Flags().StringVarP(&filterPattern, "pattern", "p", "", "text the cell must contain")
	filterCmd.Flags().StringVar(&filterAudio, "audio", "", "audio file with the spoken pattern")
	filterCmd.Flags().BoolVarP(&filterQuiet, "quiet", "q", false, "do not print the filtered rows")
	_ = filterCmd.MarkFlagRequired("column")
}
