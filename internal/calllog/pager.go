// Package calllog walks the call-log API page by page and sweeps recorded
// calls for deletion.
package calllog

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/rc-tools/rccalllog/internal/models"
	"github.com/rc-tools/rccalllog/internal/ringcentral"
)

// Lister reads call-log pages.
type Lister interface {
	ListCallLog(ctx context.Context, req ringcentral.ListCallLogRequest) (*models.Page, error)
}

// Deleter removes call-log records.
type Deleter interface {
	DeleteCallLog(ctx context.Context, id string) error
}

// API is everything a delete sweep needs.
type API interface {
	Lister
	Deleter
}

// Mode selects what a run does with the records it walks.
type Mode string

const (
	ModeFetch  Mode = "fetch"
	ModeSearch Mode = "search"
	ModeDelete Mode = "delete"
)

// State is the position of a Pager in its lifecycle.
type State int

const (
	StateStart State = iota
	StateFetchingPage
	StateProcessingPage
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateFetchingPage:
		return "fetching_page"
	case StateProcessingPage:
		return "processing_page"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// PagerOptions configure a Pager.
type PagerOptions struct {
	Mode    Mode
	PerPage int
	// PhoneRegion is used to normalize the query's phone number outside
	// ModeFetch.
	PhoneRegion string
	// RecordedOnly keeps only records with an attached recording.
	RecordedOnly bool
	Logger       *zap.Logger
}

// Pager is a lazy, forward-only sequence of the records matching a query.
// It is not restartable: build a new Pager to query again.
//
//	p := calllog.NewPager(client, q, opts)
//	for p.Next(ctx) {
//		rec := p.Record()
//	}
//	if err := p.Err(); err != nil { ... }
type Pager struct {
	api    Lister
	req    ringcentral.ListCallLogRequest
	keep   Filter
	logger *zap.Logger

	state State
	token string
	pages int
	buf   []models.CallLogRecord
	cur   models.CallLogRecord
	err   error
}

// NewPager prepares a pager; no request is made until the first Next.
func NewPager(api Lister, q models.CallLogQuery, opts PagerOptions) *Pager {
	filters := []Filter{InRange(q)}
	if opts.Mode != ModeFetch {
		filters = append(filters, MatchesPhone(q.PhoneNumber, opts.PhoneRegion))
	}
	if opts.RecordedOnly {
		filters = append(filters, HasRecording())
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	// the API matches phone numbers itself, so send it the normalized form
	wire := q
	if wire.PhoneNumber != "" {
		wire.PhoneNumber = NormalizePhone(wire.PhoneNumber, opts.PhoneRegion)
	}

	return &Pager{
		api:    api,
		req:    ringcentral.NewListCallLogRequest(wire, opts.PerPage),
		keep:   All(filters...),
		logger: logger,
		state:  StateStart,
	}
}

// Next advances to the next matching record, fetching pages as needed. It
// returns false once the sequence is exhausted or a page fetch failed.
func (p *Pager) Next(ctx context.Context) bool {
	for {
		switch p.state {
		case StateDone, StateFailed:
			return false
		}

		if len(p.buf) > 0 {
			p.cur = p.buf[0]
			p.buf = p.buf[1:]
			return true
		}

		if p.state == StateProcessingPage && p.token == "" {
			p.state = StateDone
			return false
		}

		p.fetch(ctx)
	}
}

func (p *Pager) fetch(ctx context.Context) {
	p.state = StateFetchingPage
	n := p.pages + 1

	req := p.req
	if p.token != "" {
		req = req.WithPageToken(p.token)
	}

	page, err := p.api.ListCallLog(ctx, req)
	if err != nil {
		p.err = fmt.Errorf("fetch page %d: %w", n, err)
		p.state = StateFailed
		return
	}

	p.pages = n
	p.token = page.NextToken
	if len(page.Records) == 0 {
		// an empty page ends the walk even if a next link was sent
		p.token = ""
	}
	kept := make([]models.CallLogRecord, 0, len(page.Records))
	for i := range page.Records {
		if p.keep(&page.Records[i]) {
			kept = append(kept, page.Records[i])
		}
	}
	p.buf = kept
	p.state = StateProcessingPage

	p.logger.Info("fetched page",
		zap.Int("page", n),
		zap.Int("records", len(page.Records)),
		zap.Int("kept", len(kept)),
		zap.Bool("has_next", page.HasNext()),
	)
}

// Record returns the record Next advanced to.
func (p *Pager) Record() models.CallLogRecord {
	return p.cur
}

// Err returns the error that stopped the sequence, if any.
func (p *Pager) Err() error {
	return p.err
}

// State reports the pager's lifecycle state.
func (p *Pager) State() State {
	return p.state
}

// Pages returns how many pages have been fetched.
func (p *Pager) Pages() int {
	return p.pages
}
