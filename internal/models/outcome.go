package models

// DeletionStatus is the per-record result of a delete sweep.
type DeletionStatus string

const (
	DeletionDeleted  DeletionStatus = "deleted"
	DeletionSkipped  DeletionStatus = "skipped"  // no recording attached
	DeletionDeclined DeletionStatus = "declined" // operator answered "no"
	DeletionAbsent   DeletionStatus = "absent"   // already gone on the provider side
	DeletionFailed   DeletionStatus = "failed"
)

// DeletionOutcome records what happened to one record.
type DeletionOutcome struct {
	Record CallLogRecord
	Status DeletionStatus
	Err    error
}

// DeletionSummary aggregates the outcomes of a run.
type DeletionSummary struct {
	Deleted   int
	Skipped   int
	Absent    int
	Failed    int
	FailedIDs []string
}

// Add folds one outcome into the summary. Declined records count as skipped.
func (s *DeletionSummary) Add(o DeletionOutcome) {
	switch o.Status {
	case DeletionDeleted:
		s.Deleted++
	case DeletionSkipped, DeletionDeclined:
		s.Skipped++
	case DeletionAbsent:
		s.Absent++
	case DeletionFailed:
		s.Failed++
		s.FailedIDs = append(s.FailedIDs, o.Record.ID)
	}
}

// Total is the number of records processed.
func (s DeletionSummary) Total() int {
	return s.Deleted + s.Skipped + s.Absent + s.Failed
}
