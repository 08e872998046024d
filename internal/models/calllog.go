package models

import "time"

// Direction of a call relative to the account.
type Direction string

const (
	DirectionInbound  Direction = "Inbound"
	DirectionOutbound Direction = "Outbound"
)

// Party is one side of a call (the "from" or "to" participant).
type Party struct {
	PhoneNumber     string `json:"phoneNumber,omitempty"`
	ExtensionNumber string `json:"extensionNumber,omitempty"`
	Name            string `json:"name,omitempty"`
	Location        string `json:"location,omitempty"`
}

// Recording references the audio attached to a call.
type Recording struct {
	ID         string `json:"id"`
	URI        string `json:"uri,omitempty"`
	Type       string `json:"type,omitempty"` // "Automatic" | "OnDemand"
	ContentURI string `json:"contentUri,omitempty"`
}

// ExtensionRef points at the extension that handled a leg.
type ExtensionRef struct {
	ID  int64  `json:"id"`
	URI string `json:"uri,omitempty"`
}

// Leg is one hop of a call. Legs are only returned by the Detailed view.
type Leg struct {
	StartTime          time.Time     `json:"startTime"`
	Duration           int           `json:"duration"`
	Type               string        `json:"type,omitempty"`
	Direction          Direction     `json:"direction,omitempty"`
	Action             string        `json:"action,omitempty"`
	Result             string        `json:"result,omitempty"`
	To                 *Party        `json:"to,omitempty"`
	From               *Party        `json:"from,omitempty"`
	TelephonySessionID string        `json:"telephonySessionId,omitempty"`
	Transport          string        `json:"transport,omitempty"`
	LegType            string        `json:"legType,omitempty"`
	Extension          *ExtensionRef `json:"extension,omitempty"`
	Recording          *Recording    `json:"recording,omitempty"`
}

// CallLogRecord is one logged call event as returned by the call-log API.
type CallLogRecord struct {
	ID               string     `json:"id"`
	URI              string     `json:"uri,omitempty"`
	SessionID        string     `json:"sessionId,omitempty"`
	StartTime        time.Time  `json:"startTime"`
	Duration         int        `json:"duration"`
	Type             string     `json:"type,omitempty"`
	Direction        Direction  `json:"direction,omitempty"`
	Action           string     `json:"action,omitempty"`
	Result           string     `json:"result,omitempty"`
	To               *Party     `json:"to,omitempty"`
	From             *Party     `json:"from,omitempty"`
	Transport        string     `json:"transport,omitempty"`
	LastModifiedTime *time.Time `json:"lastModifiedTime,omitempty"`
	Recording        *Recording `json:"recording,omitempty"`
	Legs             []Leg      `json:"legs,omitempty"`
}

// HasRecording reports whether the record or any of its legs references a recording.
func (r *CallLogRecord) HasRecording() bool {
	return r.PrimaryRecording() != nil
}

// PrimaryRecording returns the record's own recording, or else the first
// recording found on a leg.
func (r *CallLogRecord) PrimaryRecording() *Recording {
	if r.Recording != nil {
		return r.Recording
	}
	for i := range r.Legs {
		if r.Legs[i].Recording != nil {
			return r.Legs[i].Recording
		}
	}
	return nil
}

// Counterpart returns the party on the other end of the call: the caller for
// inbound calls and the callee otherwise.
func (r *CallLogRecord) Counterpart() *Party {
	if r.Direction == DirectionInbound {
		return r.From
	}
	return r.To
}

// ParticipantNumbers lists every phone number on the record and its legs, in
// record order, skipping empty values.
func (r *CallLogRecord) ParticipantNumbers() []string {
	var numbers []string
	add := func(p *Party) {
		if p != nil && p.PhoneNumber != "" {
			numbers = append(numbers, p.PhoneNumber)
		}
	}
	add(r.From)
	add(r.To)
	for _, leg := range r.Legs {
		add(leg.From)
		add(leg.To)
	}
	return numbers
}

// Page is one page of call-log records. NextToken is empty on the final page.
type Page struct {
	Number    int
	Records   []CallLogRecord
	NextToken string
}

// HasNext reports whether more pages follow this one.
func (p *Page) HasNext() bool {
	return p.NextToken != ""
}
