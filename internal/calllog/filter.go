package calllog

import (
	"strings"
	"unicode"

	"github.com/nyaruka/phonenumbers"

	"github.com/rc-tools/rccalllog/internal/models"
)

// Filter decides whether a record is kept. Filters are pure: no I/O, no
// blocking, so they never count against the request budget.
type Filter func(rec *models.CallLogRecord) bool

// All keeps a record only when every filter keeps it. Nil filters are ignored.
func All(filters ...Filter) Filter {
	return func(rec *models.CallLogRecord) bool {
		for _, f := range filters {
			if f != nil && !f(rec) {
				return false
			}
		}
		return true
	}
}

// InRange keeps records whose start time lies within the query's date range.
func InRange(q models.CallLogQuery) Filter {
	return func(rec *models.CallLogRecord) bool {
		return q.Contains(rec.StartTime)
	}
}

// HasRecording keeps records with at least one attached recording.
func HasRecording() Filter {
	return func(rec *models.CallLogRecord) bool {
		return rec.HasRecording()
	}
}

// MatchesPhone keeps records where any participant number equals number
// after normalization. An empty number keeps everything.
func MatchesPhone(number, region string) Filter {
	want := NormalizePhone(number, region)
	if want == "" {
		return nil
	}
	return func(rec *models.CallLogRecord) bool {
		for _, n := range rec.ParticipantNumbers() {
			if NormalizePhone(n, region) == want {
				return true
			}
		}
		return false
	}
}

// NormalizePhone converts a phone number to E.164. Numbers without a country
// code are read in region. Values libphonenumber cannot parse (short
// extensions, SIP handles) fall back to their digits, keeping a leading "+".
func NormalizePhone(raw, region string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if num, err := phonenumbers.Parse(raw, region); err == nil {
		return phonenumbers.Format(num, phonenumbers.E164)
	}
	return digitsOnly(raw)
}

func digitsOnly(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r == '+' && i == 0 {
			b.WriteRune(r)
			continue
		}
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	if b.String() == "+" {
		return ""
	}
	return b.String()
}
