package calllog

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/rc-tools/rccalllog/internal/models"
	"github.com/rc-tools/rccalllog/internal/ringcentral"
)

// ConfirmFunc asks whether a record may be deleted. Returning an error stops
// the sweep.
type ConfirmFunc func(rec models.CallLogRecord) (bool, error)

// SweepOptions configure a Sweeper.
type SweepOptions struct {
	PerPage     int
	PhoneRegion string
	// Inline deletes while paging. By default every page is read first:
	// the API pages by offset, so deleting during the walk shifts later
	// records onto pages that were already read.
	Inline bool
	// Confirm, when set, is asked before each delete.
	Confirm ConfirmFunc
	Logger  *zap.Logger
}

// Sweeper deletes the recorded calls matching a query and yields one
// DeletionOutcome per record, in API order. A failed delete is reported and
// the sweep moves on; only a failed page fetch, rejected credentials or a
// cancelled context stop it.
type Sweeper struct {
	api     Deleter
	pager   *Pager
	opts    SweepOptions
	logger  *zap.Logger
	loaded  bool
	pending []models.CallLogRecord
	cur     models.DeletionOutcome
	err     error
	done    bool
}

// NewSweeper prepares a delete sweep over q. A phone number on the query
// narrows the sweep to calls involving that number.
func NewSweeper(api API, q models.CallLogQuery, opts SweepOptions) *Sweeper {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeper{
		api: api,
		pager: NewPager(api, q, PagerOptions{
			Mode:        ModeDelete,
			PerPage:     opts.PerPage,
			PhoneRegion: opts.PhoneRegion,
			Logger:      logger,
		}),
		opts:   opts,
		logger: logger,
	}
}

// Next processes the next record. It returns false when every record has
// been processed or the sweep failed; check Err.
func (s *Sweeper) Next(ctx context.Context) bool {
	if s.done {
		return false
	}
	if !s.opts.Inline && !s.loaded {
		s.loaded = true
		for s.pager.Next(ctx) {
			s.pending = append(s.pending, s.pager.Record())
		}
		if err := s.pager.Err(); err != nil {
			return s.fail(err)
		}
		s.logger.Info("snapshot complete", zap.Int("pages", s.pager.Pages()), zap.Int("records", len(s.pending)))
	}

	rec, ok := s.nextRecord(ctx)
	if !ok {
		s.done = true
		return false
	}
	return s.process(ctx, rec)
}

func (s *Sweeper) nextRecord(ctx context.Context) (models.CallLogRecord, bool) {
	if !s.opts.Inline {
		if len(s.pending) == 0 {
			return models.CallLogRecord{}, false
		}
		rec := s.pending[0]
		s.pending = s.pending[1:]
		return rec, true
	}
	if !s.pager.Next(ctx) {
		if err := s.pager.Err(); err != nil {
			s.fail(err)
		}
		return models.CallLogRecord{}, false
	}
	return s.pager.Record(), true
}

func (s *Sweeper) process(ctx context.Context, rec models.CallLogRecord) bool {
	if !rec.HasRecording() {
		s.cur = models.DeletionOutcome{Record: rec, Status: models.DeletionSkipped}
		return true
	}

	if s.opts.Confirm != nil {
		ok, err := s.opts.Confirm(rec)
		if err != nil {
			return s.fail(fmt.Errorf("confirm delete of record %s: %w", rec.ID, err))
		}
		if !ok {
			s.cur = models.DeletionOutcome{Record: rec, Status: models.DeletionDeclined}
			return true
		}
	}

	err := s.api.DeleteCallLog(ctx, rec.ID)
	switch {
	case err == nil:
		s.logger.Info("deleted call log", zap.String("record_id", rec.ID))
		s.cur = models.DeletionOutcome{Record: rec, Status: models.DeletionDeleted}
	case ringcentral.IsNotFound(err):
		s.logger.Info("call log already deleted", zap.String("record_id", rec.ID))
		s.cur = models.DeletionOutcome{Record: rec, Status: models.DeletionAbsent}
	case ringcentral.IsAuthentication(err), ctx.Err() != nil:
		return s.fail(fmt.Errorf("delete record %s: %w", rec.ID, err))
	default:
		s.logger.Warn("delete failed", zap.String("record_id", rec.ID), zap.Error(err))
		s.cur = models.DeletionOutcome{Record: rec, Status: models.DeletionFailed, Err: err}
	}
	return true
}

func (s *Sweeper) fail(err error) bool {
	s.err = err
	s.done = true
	return false
}

// Outcome returns the outcome Next produced.
func (s *Sweeper) Outcome() models.DeletionOutcome {
	return s.cur
}

// Err returns the error that stopped the sweep, if any.
func (s *Sweeper) Err() error {
	return s.err
}
