// Package timelapse provides the navigation core of the trap image browser:
// a bounded bitmap cache centred on a cursor, an image differencing state
// machine and adjacency clustering over an ordered file sequence.
package timelapse

import (
	"fmt"
	"time"
)

// FileRecord describes one image or video in the ordered sequence
type FileRecord struct {
	ID           int64
	RelativePath string
	FileName     string
	CaptureTime  time.Time
	IsVideo      bool
}

// Identity is the pair used to detect records describing the same physical file
type Identity struct {
	RelativePath string
	FileName     string
}

// Identity returns the (relative path, file name) pair of the record
func (r FileRecord) Identity() Identity {
	return Identity{RelativePath: r.RelativePath, FileName: r.FileName}
}

func (r FileRecord) String() string {
	if r.RelativePath == "" {
		return r.FileName
	}
	return fmt.Sprintf("%s/%s", r.RelativePath, r.FileName)
}

// Sequence is an ordered, 0-based, randomly indexable view of file records.
// Version must change whenever the selection or the sort order changes.
type Sequence interface {
	Len() int
	At(index int) FileRecord
	Version() uint64
}

// Records is a slice-backed Sequence
type Records struct {
	records []FileRecord
	version uint64
}

// NewRecords creates a sequence over the given, already sorted, records
func NewRecords(records []FileRecord) *Records {
	return &Records{records: records, version: 1}
}

func (r *Records) Len() int {
	return len(r.records)
}

func (r *Records) At(index int) FileRecord {
	return r.records[index]
}

func (r *Records) Version() uint64 {
	return r.version
}

// Replace swaps the underlying records and bumps the version
func (r *Records) Replace(records []FileRecord) {
	r.records = records
	r.version++
}

// Touch bumps the version without changing the records, e.g. after a re-sort in place
func (r *Records) Touch() {
	r.version++
}

// Direction is the scan direction used for run navigation
type Direction int

const (
	Forward Direction = iota
	Backward
)

func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

// step returns +1 or -1 for the direction
func (d Direction) step() int {
	if d == Backward {
		return -1
	}
	return 1
}

func inRange(seq Sequence, index int) bool {
	return seq != nil && index >= 0 && index < seq.Len()
}
