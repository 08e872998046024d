package calllog

import (
	"testing"
	"time"

	"github.com/rc-tools/rccalllog/internal/models"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{raw: "+16505550100", want: "+16505550100"},
		{raw: "(650) 555-0100", want: "+16505550100"},
		{raw: "650.555.0100", want: "+16505550100"},
		{raw: "1-650-555-0100", want: "+16505550100"},
		{raw: "+44 20 7946 0958", want: "+442079460958"},
		{raw: "  ", want: ""},
		{raw: "+", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := NormalizePhone(tt.raw, "US"); got != tt.want {
				t.Errorf("NormalizePhone(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestMatchesPhoneExactness(t *testing.T) {
	first := models.CallLogRecord{ID: "1", From: &models.Party{PhoneNumber: "+16505550100"}}
	second := models.CallLogRecord{ID: "2", From: &models.Party{PhoneNumber: "+16505550199"}}

	keep := MatchesPhone("+16505550100", "US")
	if !keep(&first) {
		t.Error("expected exact number to match")
	}
	if keep(&second) {
		t.Error("expected different number to be dropped")
	}
}

func TestMatchesPhoneChecksEveryParticipant(t *testing.T) {
	keep := MatchesPhone("(650) 555-0100", "US")

	tests := []struct {
		name string
		rec  models.CallLogRecord
		want bool
	}{
		{name: "callee", rec: models.CallLogRecord{To: &models.Party{PhoneNumber: "+16505550100"}}, want: true},
		{name: "leg", rec: models.CallLogRecord{Legs: []models.Leg{{From: &models.Party{PhoneNumber: "+16505550100"}}}}, want: true},
		{name: "no parties", rec: models.CallLogRecord{}, want: false},
		{name: "extension only", rec: models.CallLogRecord{From: &models.Party{ExtensionNumber: "101"}}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := keep(&tt.rec); got != tt.want {
				t.Errorf("MatchesPhone(%s) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestMatchesPhoneEmptyKeepsAll(t *testing.T) {
	if MatchesPhone("", "US") != nil {
		t.Fatal("expected nil filter for empty number")
	}
	if !All(MatchesPhone("", "US"))(&models.CallLogRecord{}) {
		t.Fatal("All should ignore nil filters")
	}
}

func TestHasRecordingAndInRange(t *testing.T) {
	q := models.CallLogQuery{
		DateFrom: time.Date(2023, 10, 1, 0, 0, 0, 0, time.UTC),
		DateTo:   time.Date(2023, 10, 31, 23, 59, 59, 0, time.UTC),
		View:     models.ViewSimple,
	}
	inside := models.CallLogRecord{StartTime: time.Date(2023, 10, 5, 0, 0, 0, 0, time.UTC), Recording: &models.Recording{ID: "r"}}
	outside := models.CallLogRecord{StartTime: time.Date(2023, 11, 1, 0, 0, 0, 0, time.UTC)}

	keep := All(InRange(q), HasRecording())
	if !keep(&inside) {
		t.Error("expected recorded in-range record to be kept")
	}
	if keep(&outside) {
		t.Error("expected out-of-range record to be dropped")
	}
}
