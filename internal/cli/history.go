package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rc-tools/rccalllog/internal/config"
	"github.com/rc-tools/rccalllog/internal/journal"
	"github.com/rc-tools/rccalllog/internal/models"
)

type historyOptions struct {
	path  string
	runID string
	limit int
}

func newHistoryCmd(env *environment) *cobra.Command {
	opts := &historyOptions{}
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show call logs deleted by earlier runs",
		Long: `Show the deletion journal, newest entry last. The journal path defaults to
RC_JOURNAL_PATH. No credentials are needed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.runHistory(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.path, "journal", "", "journal file (default: RC_JOURNAL_PATH)")
	cmd.Flags().StringVar(&opts.runID, "run", "", "only show entries from this run id")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "only show the last n entries")
	return cmd
}

func (env *environment) runHistory(cmd *cobra.Command, opts *historyOptions) error {
	path := opts.path
	if path == "" {
		settings, err := config.LoadSettings(env.envFile)
		if err != nil {
			return err
		}
		path = settings.JournalPath
	}
	if path == "" {
		return fmt.Errorf("no journal configured: set %s or pass --journal", config.KeyJournalPath)
	}

	entries, err := journal.ReadEntries(path)
	if err != nil {
		return err
	}

	var shown []journal.Entry
	for _, e := range entries {
		if opts.runID == "" || e.RunID == opts.runID {
			shown = append(shown, e)
		}
	}
	if opts.limit > 0 && len(shown) > opts.limit {
		shown = shown[len(shown)-opts.limit:]
	}

	w := cmd.OutOrStdout()
	if len(shown) == 0 {
		fmt.Fprintln(w, "No deleted call logs.")
		return nil
	}
	for _, e := range shown {
		fmt.Fprintf(w, "%s  %s  %s  %s -> %s  %s\n",
			styleLabel.Render(models.FormatTimestamp(e.Timestamp)),
			styleValue.Render(e.RecordID),
			models.FormatTimestamp(e.StartTime),
			orDash(e.From), orDash(e.To),
			styleHint.Render(e.Status+" run="+e.RunID),
		)
	}
	fmt.Fprintf(w, "\n%d entries in %s\n", len(shown), path)
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
