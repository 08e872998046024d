package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rc-tools/rccalllog/internal/calllog"
	"github.com/rc-tools/rccalllog/internal/journal"
	"github.com/rc-tools/rccalllog/internal/models"
	"github.com/rc-tools/rccalllog/internal/render"
)

type deleteOptions struct {
	dateFrom    string
	dateTo      string
	phoneNumber string
	confirm     bool
	inline      bool
}

func newDeleteCmd(env *environment) *cobra.Command {
	opts := &deleteOptions{}
	cmd := &cobra.Command{
		Use:     "delete",
		Aliases: []string{"rm"},
		Short:   "Delete recorded call logs in a date range",
		Long: `Delete the call-log records in a date range that carry a call recording.
Records without a recording are left alone and reported as skipped.

Without --date_from the last 24 hours are swept. --phone_number narrows the
sweep to calls involving that number. Every deleted record is appended to the
journal file (RC_JOURNAL_PATH).`,
		Example: `  rccalllog delete
  rccalllog delete --date_from 2023-10-01 --date_to 2023-10-31 --phone_number +16505550100 --confirm`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.runDelete(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.dateFrom, "date_from", "", "start of the range, ISO-8601 (default: 24 hours ago)")
	cmd.Flags().StringVar(&opts.dateTo, "date_to", "", "end of the range, ISO-8601 (default: now)")
	cmd.Flags().StringVar(&opts.phoneNumber, "phone_number", "", "only delete calls involving this number")
	cmd.Flags().BoolVar(&opts.confirm, "confirm", false, "ask before deleting each record")
	cmd.Flags().BoolVar(&opts.inline, "inline", false, "delete while paging instead of reading every page first")
	return cmd
}

func (env *environment) runDelete(cmd *cobra.Command, opts *deleteOptions) error {
	q, err := models.BuildQuery(env.clock, models.DeleteLookback, models.QueryArgs{
		DateFrom:    opts.dateFrom,
		DateTo:      opts.dateTo,
		PhoneNumber: opts.phoneNumber,
	})
	if err != nil {
		return err
	}
	return env.sweep(cmd, "delete", q, opts.confirm, opts.inline)
}

// sweep deletes the recorded calls matching q, printing one line per record
// and a summary.
func (env *environment) sweep(cmd *cobra.Command, command string, q models.CallLogQuery, confirm, inline bool) error {
	if confirm && !env.isTerminal(cmd.InOrStdin()) {
		return errors.New("--confirm needs an interactive terminal on stdin")
	}

	s, err := env.open(cmd, command)
	if err != nil {
		return err
	}
	defer s.close()

	var jrnl *journal.Journal
	if path := s.cfg.Settings.JournalPath; path != "" {
		jrnl, err = journal.Open(path, s.runID, env.clock)
		if err != nil {
			return err
		}
		defer func() {
			if err := jrnl.Close(); err != nil {
				s.logger.Warn("failed to close journal", zap.Error(err))
			}
		}()
	}

	s.logger.Info("sweeping call logs",
		zap.String("date_from", models.FormatTimestamp(q.DateFrom)),
		zap.String("date_to", models.FormatTimestamp(q.DateTo)),
		zap.String("phone_number", q.PhoneNumber),
		zap.Bool("inline", inline),
	)

	out := render.New(cmd.OutOrStdout())
	sweepOpts := calllog.SweepOptions{
		PerPage:     s.cfg.Settings.PageSize,
		PhoneRegion: s.cfg.Settings.PhoneRegion,
		Inline:      inline,
		Logger:      s.logger,
	}
	if confirm {
		sweepOpts.Confirm = confirmer(out, cmd.InOrStdin())
	}

	sweeper := calllog.NewSweeper(s.client, q, sweepOpts)
	var summary models.DeletionSummary
	for sweeper.Next(cmd.Context()) {
		o := sweeper.Outcome()
		out.Outcome(o)
		summary.Add(o)
		s.metrics.ObserveDeletion(string(o.Status))
		if err := jrnl.Record(o); err != nil {
			s.logger.Warn("failed to journal deletion", zap.String("record_id", o.Record.ID), zap.Error(err))
		}
	}
	s.metrics.ObserveRecords(command, summary.Total())
	if err := sweeper.Err(); err != nil {
		if summary.Total() > 0 {
			out.Summary(summary)
		}
		return err
	}

	out.Summary(summary)
	s.logger.Info("sweep finished",
		zap.Int("deleted", summary.Deleted),
		zap.Int("absent", summary.Absent),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
	)
	if summary.Failed > 0 {
		return fmt.Errorf("%w: %d of %d (%s)", ErrDeletionsFailed, summary.Failed, summary.Total(), strings.Join(summary.FailedIDs, ", "))
	}
	return nil
}

// confirmer shows each recorded call in full and asks before deleting it.
func confirmer(out *render.Printer, in io.Reader) calllog.ConfirmFunc {
	reader := bufio.NewReader(in)
	return func(rec models.CallLogRecord) (bool, error) {
		out.Record(rec, models.ViewDetailed)
		out.Prompt("Are you sure you want to delete this call log? (yes/no):")
		answer, err := reader.ReadString('\n')
		if err != nil && (answer == "" || !errors.Is(err, io.EOF)) {
			return false, fmt.Errorf("read answer: %w", err)
		}
		answer = strings.TrimSpace(strings.ToLower(answer))
		return answer == "y" || answer == "yes", nil
	}
}
