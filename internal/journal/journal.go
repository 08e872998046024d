// Package journal keeps an append-only audit trail of deleted call logs, one
// YAML document per record.
package journal

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rc-tools/rccalllog/internal/clock"
	"github.com/rc-tools/rccalllog/internal/models"
)

// Entry is one deleted record as written to the journal.
type Entry struct {
	RunID     string           `yaml:"run_id"`
	Timestamp time.Time        `yaml:"timestamp"`
	RecordID  string           `yaml:"record_id"`
	Status    string           `yaml:"status"`
	StartTime time.Time        `yaml:"start_time"`
	Direction models.Direction `yaml:"direction,omitempty"`
	From      string           `yaml:"from,omitempty"`
	To        string           `yaml:"to,omitempty"`
	Recording string           `yaml:"recording_id,omitempty"`
}

// Journal appends entries to a file. A nil *Journal discards everything.
type Journal struct {
	mu    sync.Mutex
	f     *os.File
	runID string
	clock clock.Clock
}

// Open opens path for appending, creating it and its directory as needed.
func Open(path, runID string, clk clock.Clock) (*Journal, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal %s: %w", path, err)
	}
	return &Journal{f: f, runID: runID, clock: clk}, nil
}

// Record appends an entry for an outcome. Only deleted and absent records
// are journaled.
func (j *Journal) Record(o models.DeletionOutcome) error {
	if j == nil {
		return nil
	}
	if o.Status != models.DeletionDeleted && o.Status != models.DeletionAbsent {
		return nil
	}

	rec := o.Record
	e := Entry{
		RunID:     j.runID,
		Timestamp: j.clock.Now().UTC(),
		RecordID:  rec.ID,
		Status:    string(o.Status),
		StartTime: rec.StartTime.UTC(),
		Direction: rec.Direction,
	}
	if rec.From != nil {
		e.From = rec.From.PhoneNumber
	}
	if rec.To != nil {
		e.To = rec.To.PhoneNumber
	}
	if r := rec.PrimaryRecording(); r != nil {
		e.Recording = r.ID
	}

	data, err := yaml.Marshal(&e)
	if err != nil {
		return fmt.Errorf("failed to marshal journal entry: %w", err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if _, err := j.f.Write(append([]byte("---\n"), data...)); err != nil {
		return fmt.Errorf("failed to write journal entry for %s: %w", rec.ID, err)
	}
	return nil
}

// Close flushes and closes the file.
func (j *Journal) Close() error {
	if j == nil {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.f.Sync(); err != nil {
		_ = j.f.Close()
		return err
	}
	return j.f.Close()
}

// ReadEntries decodes every entry in the journal at path, oldest first. A
// missing file has no entries.
func ReadEntries(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open journal %s: %w", path, err)
	}
	defer f.Close()

	var entries []Entry
	dec := yaml.NewDecoder(f)
	for {
		var e Entry
		err := dec.Decode(&e)
		if errors.Is(err, io.EOF) {
			return entries, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse journal %s: %w", path, err)
		}
		entries = append(entries, e)
	}
}
