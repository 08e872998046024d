package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rc-tools/rccalllog/internal/calllog"
	"github.com/rc-tools/rccalllog/internal/models"
	"github.com/rc-tools/rccalllog/internal/render"
)

type fetchOptions struct {
	dateFrom string
	dateTo   string
	view     string
	recorded bool
}

func newFetchCmd(env *environment) *cobra.Command {
	opts := &fetchOptions{}
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "List call logs in a date range",
		Long: `List every call-log record in a date range, oldest page first.

Without --date_from the last 30 days are listed.`,
		Example: `  rccalllog fetch --date_from 2023-10-01 --date_to 2023-10-31
  rccalllog fetch --view Detailed --recorded`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.runFetch(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.dateFrom, "date_from", "", "start of the range, ISO-8601 (default: 30 days ago)")
	cmd.Flags().StringVar(&opts.dateTo, "date_to", "", "end of the range, ISO-8601 (default: now)")
	cmd.Flags().StringVar(&opts.view, "view", string(models.ViewSimple), "Simple or Detailed")
	cmd.Flags().BoolVar(&opts.recorded, "recorded", false, "only list calls with a recording")
	return cmd
}

func (env *environment) runFetch(cmd *cobra.Command, opts *fetchOptions) error {
	q, err := models.BuildQuery(env.clock, models.FetchLookback, models.QueryArgs{
		DateFrom: opts.dateFrom,
		DateTo:   opts.dateTo,
		View:     opts.view,
	})
	if err != nil {
		return err
	}
	return env.list(cmd, q, calllog.ModeFetch, opts.recorded)
}

// list runs a fetch or search and prints every record it yields.
func (env *environment) list(cmd *cobra.Command, q models.CallLogQuery, mode calllog.Mode, recordedOnly bool) error {
	s, err := env.open(cmd, string(mode))
	if err != nil {
		return err
	}
	defer s.close()

	s.logger.Info("listing call logs",
		zap.String("date_from", models.FormatTimestamp(q.DateFrom)),
		zap.String("date_to", models.FormatTimestamp(q.DateTo)),
		zap.String("phone_number", q.PhoneNumber),
		zap.String("view", string(q.View)),
	)

	out := render.New(cmd.OutOrStdout())
	pager := calllog.NewPager(s.client, q, calllog.PagerOptions{
		Mode:         mode,
		PerPage:      s.cfg.Settings.PageSize,
		PhoneRegion:  s.cfg.Settings.PhoneRegion,
		RecordedOnly: recordedOnly,
		Logger:       s.logger,
	})

	n := 0
	for pager.Next(cmd.Context()) {
		out.Record(pager.Record(), q.View)
		n++
	}
	s.metrics.ObserveRecords(string(mode), n)
	if err := pager.Err(); err != nil {
		return err
	}

	out.Count(n, "call logs")
	return nil
}
