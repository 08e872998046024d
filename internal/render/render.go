// Package render prints call-log records and deletion results to the console.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/rc-tools/rccalllog/internal/models"
)

// Printer writes styled, human-readable output. It only reads the records it
// is given.
type Printer struct {
	w io.Writer
	s styles
}

// New returns a Printer writing to w.
func New(w io.Writer) *Printer {
	return &Printer{w: w, s: newStyles(w)}
}

// Record prints rec in the given view. Simple is a single line; Detailed is
// a block with every field, the recording and the legs.
func (p *Printer) Record(rec models.CallLogRecord, view models.View) {
	if view == models.ViewDetailed {
		p.detailed(rec)
		return
	}
	p.simple(rec)
}

func (p *Printer) simple(rec models.CallLogRecord) {
	number := "-"
	if party := rec.Counterpart(); party != nil && party.PhoneNumber != "" {
		number = party.PhoneNumber
	}
	line := fmt.Sprintf("%s  %s  %s",
		p.s.dim.Render(models.FormatTimestamp(rec.StartTime)),
		p.direction(rec.Direction),
		p.s.value.Render(number),
	)
	if rec.HasRecording() {
		line += "  " + p.s.warning.Render("[recorded]")
	}
	fmt.Fprintln(p.w, line)
}

func (p *Printer) direction(d models.Direction) string {
	label := fmt.Sprintf("%-8s", string(d))
	if d == models.DirectionInbound {
		return p.s.inbound.Render(label)
	}
	return p.s.outward.Render(label)
}

func (p *Printer) detailed(rec models.CallLogRecord) {
	fmt.Fprintln(p.w, p.s.header.Render("--------- Call Log Record ---------"))
	p.field("id", rec.ID)
	p.field("uri", rec.URI)
	p.field("sessionId", rec.SessionID)
	p.field("startTime", models.FormatTimestamp(rec.StartTime))
	p.field("duration", fmt.Sprintf("%ds", rec.Duration))
	p.field("type", rec.Type)
	p.field("direction", string(rec.Direction))
	p.field("action", rec.Action)
	p.field("result", rec.Result)
	p.field("to", party(rec.To))
	p.field("from", party(rec.From))
	p.field("transport", rec.Transport)
	if rec.LastModifiedTime != nil {
		p.field("lastModifiedTime", models.FormatTimestamp(*rec.LastModifiedTime))
	}
	p.field("recording", recording(rec.Recording))

	for i, leg := range rec.Legs {
		fmt.Fprintln(p.w, p.s.label.Render(fmt.Sprintf("leg %d:", i+1)))
		p.indented("legType", leg.LegType)
		if !leg.StartTime.IsZero() {
			p.indented("startTime", models.FormatTimestamp(leg.StartTime))
		}
		p.indented("duration", fmt.Sprintf("%ds", leg.Duration))
		p.indented("direction", string(leg.Direction))
		p.indented("action", leg.Action)
		p.indented("result", leg.Result)
		p.indented("to", party(leg.To))
		p.indented("from", party(leg.From))
		p.indented("telephonySessionId", leg.TelephonySessionID)
		p.indented("transport", leg.Transport)
		if leg.Extension != nil {
			p.indented("extension", fmt.Sprintf("%d", leg.Extension.ID))
		}
		if leg.Recording != nil {
			p.indented("recording", recording(leg.Recording))
		}
	}
	fmt.Fprintln(p.w, p.s.header.Render("-----------------------------------"))
}

func (p *Printer) field(name, value string) {
	if value == "" {
		value = "None"
	}
	fmt.Fprintf(p.w, "%s %s\n", p.s.label.Render(name+":"), p.s.value.Render(value))
}

func (p *Printer) indented(name, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(p.w, "  %s %s\n", p.s.label.Render(name+":"), p.s.value.Render(value))
}

func party(pt *models.Party) string {
	if pt == nil {
		return ""
	}
	number := pt.PhoneNumber
	if number == "" {
		number = pt.ExtensionNumber
	}
	s := number
	if pt.Name != "" {
		s = fmt.Sprintf("%s (%s)", number, pt.Name)
	}
	if pt.Location != "" {
		s += " | location: " + pt.Location
	}
	return strings.TrimSpace(s)
}

func recording(r *models.Recording) string {
	if r == nil {
		return ""
	}
	s := fmt.Sprintf("id=%s, type=%s", r.ID, r.Type)
	if r.ContentURI != "" {
		s += ", contentUri=" + r.ContentURI
	}
	return s
}

// Outcome prints what a delete sweep did with one record.
func (p *Printer) Outcome(o models.DeletionOutcome) {
	id := o.Record.ID
	switch o.Status {
	case models.DeletionDeleted:
		fmt.Fprintf(p.w, "%s call log %s\n", p.s.success.Render("Deleted"), id)
	case models.DeletionAbsent:
		fmt.Fprintf(p.w, "%s call log %s %s\n", p.s.success.Render("Deleted"), id, p.s.dim.Render("(already gone)"))
	case models.DeletionSkipped:
		fmt.Fprintf(p.w, "%s call log %s %s\n", p.s.dim.Render("Skipped"), id, p.s.dim.Render("(no recording)"))
	case models.DeletionDeclined:
		fmt.Fprintf(p.w, "%s call log %s\n", p.s.dim.Render("Skipped"), id)
	case models.DeletionFailed:
		fmt.Fprintf(p.w, "%s call log %s: %v\n", p.s.failure.Render("Failed to delete"), id, o.Err)
	}
}

// Count prints the number of records a fetch or search returned.
func (p *Printer) Count(n int, what string) {
	if n == 0 {
		fmt.Fprintf(p.w, "\nNo %s found.\n", what)
		return
	}
	fmt.Fprintf(p.w, "\n%s %s\n", p.s.header.Render(fmt.Sprintf("Total %s:", what)), p.s.value.Render(fmt.Sprintf("%d", n)))
}

// Summary prints the totals of a delete sweep and lists the ids that failed.
func (p *Printer) Summary(s models.DeletionSummary) {
	fmt.Fprintln(p.w)
	fmt.Fprintln(p.w, p.s.header.Render("Finished processing call logs."))
	fmt.Fprintf(p.w, "  %s %d\n", p.s.label.Render("processed:"), s.Total())
	fmt.Fprintf(p.w, "  %s %s\n", p.s.label.Render("deleted:  "), p.s.success.Render(fmt.Sprintf("%d", s.Deleted)))
	fmt.Fprintf(p.w, "  %s %d\n", p.s.label.Render("absent:   "), s.Absent)
	fmt.Fprintf(p.w, "  %s %d\n", p.s.label.Render("skipped:  "), s.Skipped)
	if s.Failed == 0 {
		fmt.Fprintf(p.w, "  %s 0\n", p.s.label.Render("failed:   "))
		return
	}
	fmt.Fprintf(p.w, "  %s %s\n", p.s.label.Render("failed:   "), p.s.failure.Render(fmt.Sprintf("%d", s.Failed)))
	fmt.Fprintf(p.w, "  %s %s\n", p.s.label.Render("failed ids:"), strings.Join(s.FailedIDs, ", "))
}

// Prompt writes a question without a trailing newline.
func (p *Printer) Prompt(question string) {
	fmt.Fprint(p.w, p.s.warning.Render(question)+" ")
}
