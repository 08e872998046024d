package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rc-tools/rccalllog/internal/models"
)

type purgeOptions struct {
	olderThan int
	dateFrom  string
	confirm   bool
}

func newPurgeCmd(env *environment) *cobra.Command {
	opts := &purgeOptions{}
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete recorded call logs older than a number of days",
		Long: `Delete the recorded call logs that started more than --older_than days ago.
The sweep looks back one year from that cut-off unless --date_from is given.`,
		Example: `  rccalllog purge --older_than 90`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.runPurge(cmd, opts)
		},
	}
	cmd.Flags().IntVar(&opts.olderThan, "older_than", 30, "age in days of the newest record to delete")
	cmd.Flags().StringVar(&opts.dateFrom, "date_from", "", "start of the range, ISO-8601 (default: one year before the cut-off)")
	cmd.Flags().BoolVar(&opts.confirm, "confirm", false, "ask before deleting each record")
	return cmd
}

func (env *environment) runPurge(cmd *cobra.Command, opts *purgeOptions) error {
	q, err := purgeQuery(env.clock.Now(), opts)
	if err != nil {
		return err
	}
	return env.sweep(cmd, "purge", q, opts.confirm, false)
}

// purgeQuery resolves the purge window: it ends olderThan days before now and
// starts at --date_from or one year before its end.
func purgeQuery(now time.Time, opts *purgeOptions) (models.CallLogQuery, error) {
	if opts.olderThan < 0 {
		return models.CallLogQuery{}, fmt.Errorf("%w: --older_than must not be negative, got %d", models.ErrInvalidQuery, opts.olderThan)
	}
	dateTo := now.UTC().AddDate(0, 0, -opts.olderThan)
	dateFrom := dateTo.AddDate(-1, 0, 0)
	if opts.dateFrom != "" {
		t, err := models.ParseTimestamp(opts.dateFrom)
		if err != nil {
			return models.CallLogQuery{}, fmt.Errorf("date_from: %w", err)
		}
		dateFrom = t
	}

	q := models.CallLogQuery{DateFrom: dateFrom, DateTo: dateTo, View: models.ViewSimple}
	return q, q.Validate()
}
