package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rc-tools/rccalllog/internal/calllog"
	"github.com/rc-tools/rccalllog/internal/models"
)

type searchOptions struct {
	dateFrom    string
	dateTo      string
	phoneNumber string
	view        string
}

func newSearchCmd(env *environment) *cobra.Command {
	opts := &searchOptions{}
	cmd := &cobra.Command{
		Use:   "search",
		Short: "List call logs involving a phone number",
		Long: `List the call-log records in a date range where any participant, on the
call or on one of its legs, has the given phone number.

Numbers are compared in E.164 form; numbers without a country code are read in
RC_PHONE_REGION (default US).`,
		Example: `  rccalllog search --phone_number +16505550100
  rccalllog search --phone_number "(650) 555-0100" --view Detailed --date_from 2023-10-01`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.runSearch(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.dateFrom, "date_from", "", "start of the range, ISO-8601 (default: 30 days ago)")
	cmd.Flags().StringVar(&opts.dateTo, "date_to", "", "end of the range, ISO-8601 (default: now)")
	cmd.Flags().StringVar(&opts.phoneNumber, "phone_number", "", "phone number to search for (required)")
	cmd.Flags().StringVar(&opts.view, "view", string(models.ViewSimple), "Simple or Detailed")
	return cmd
}

func (env *environment) runSearch(cmd *cobra.Command, opts *searchOptions) error {
	if strings.TrimSpace(opts.phoneNumber) == "" {
		return fmt.Errorf("%w: --phone_number is required", models.ErrInvalidQuery)
	}
	q, err := models.BuildQuery(env.clock, models.FetchLookback, models.QueryArgs{
		DateFrom:    opts.dateFrom,
		DateTo:      opts.dateTo,
		PhoneNumber: opts.phoneNumber,
		View:        opts.view,
	})
	if err != nil {
		return err
	}
	return env.list(cmd, q, calllog.ModeSearch, false)
}
