package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rc-tools/rccalllog/internal/clock"
)

// ErrInvalidQuery is wrapped by every query validation failure.
var ErrInvalidQuery = errors.New("invalid query")

// View selects how much detail the call-log API returns.
type View string

const (
	ViewSimple   View = "Simple"
	ViewDetailed View = "Detailed"
)

// ParseView parses a view name case-insensitively. Empty means Simple.
func ParseView(s string) (View, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "simple":
		return ViewSimple, nil
	case "detailed":
		return ViewDetailed, nil
	}
	return "", fmt.Errorf("%w: view must be 'Simple' or 'Detailed', got %q", ErrInvalidQuery, s)
}

// Default look-back windows applied when --date_from is omitted.
const (
	FetchLookback  = 30 * 24 * time.Hour
	DeleteLookback = 24 * time.Hour
)

// CallLogQuery describes which records a run is interested in.
type CallLogQuery struct {
	DateFrom    time.Time
	DateTo      time.Time
	PhoneNumber string
	View        View
}

// Validate rejects unset or inverted ranges and unknown views.
func (q CallLogQuery) Validate() error {
	if q.DateFrom.IsZero() || q.DateTo.IsZero() {
		return fmt.Errorf("%w: date range is not set", ErrInvalidQuery)
	}
	if q.DateFrom.After(q.DateTo) {
		return fmt.Errorf("%w: date_from %s is after date_to %s", ErrInvalidQuery,
			FormatTimestamp(q.DateFrom), FormatTimestamp(q.DateTo))
	}
	if q.View != ViewSimple && q.View != ViewDetailed {
		return fmt.Errorf("%w: unknown view %q", ErrInvalidQuery, q.View)
	}
	return nil
}

// Contains reports whether t lies within [DateFrom, DateTo].
func (q CallLogQuery) Contains(t time.Time) bool {
	return !t.Before(q.DateFrom) && !t.After(q.DateTo)
}

// QueryArgs are the raw command-line values a query is built from.
type QueryArgs struct {
	DateFrom    string
	DateTo      string
	PhoneNumber string
	View        string
}

// BuildQuery resolves raw arguments into a validated query. Missing dates
// default relative to clk: DateTo to now and DateFrom to DateTo minus lookback.
func BuildQuery(clk clock.Clock, lookback time.Duration, args QueryArgs) (CallLogQuery, error) {
	now := clk.Now().UTC()

	dateTo := now
	if args.DateTo != "" {
		t, err := ParseTimestamp(args.DateTo)
		if err != nil {
			return CallLogQuery{}, fmt.Errorf("date_to: %w", err)
		}
		dateTo = t
	}

	dateFrom := now.Add(-lookback)
	if args.DateFrom != "" {
		t, err := ParseTimestamp(args.DateFrom)
		if err != nil {
			return CallLogQuery{}, fmt.Errorf("date_from: %w", err)
		}
		dateFrom = t
	}

	view, err := ParseView(args.View)
	if err != nil {
		return CallLogQuery{}, err
	}

	q := CallLogQuery{
		DateFrom:    dateFrom,
		DateTo:      dateTo,
		PhoneNumber: strings.TrimSpace(args.PhoneNumber),
		View:        view,
	}
	return q, q.Validate()
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTimestamp accepts RFC 3339 timestamps, plus naive date-times and bare
// dates which are read as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q is not an ISO-8601 timestamp (e.g. 2025-11-01T00:00:00.000Z)", ErrInvalidQuery, s)
}

// FormatTimestamp renders t the way the call-log API expects it.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}
