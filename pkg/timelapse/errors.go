package timelapse

import (
	"errors"
	"fmt"
)

var (
	// ErrIndexOutOfRange is returned when a navigation target lies outside the sequence
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrNoCursor is returned when the cache is asked for the current file before any move
	ErrNoCursor = errors.New("no current file")

	// ErrFileNotDisplayable marks a video, missing or corrupt file
	ErrFileNotDisplayable = errors.New("file not displayable")

	// ErrCacheInvariant is a programming error inside the bitmap cache
	ErrCacheInvariant = errors.New("cache invariant violation")
)

// DiffStatus reports the outcome of a difference computation
type DiffStatus int

const (
	DiffOK DiffStatus = iota
	CurrentImageNotAvailable
	PreviousImageNotAvailable
	NextImageNotAvailable
	NotCalculable
)

func (s DiffStatus) String() string {
	switch s {
	case DiffOK:
		return "ok"
	case CurrentImageNotAvailable:
		return "current image not available"
	case PreviousImageNotAvailable:
		return "previous image not available"
	case NextImageNotAvailable:
		return "next image not available"
	case NotCalculable:
		return "difference not calculable"
	default:
		return fmt.Sprintf("DiffStatus(%d)", int(s))
	}
}

// DiffError is the typed failure of a difference computation
type DiffError struct {
	Status DiffStatus
	Reason string
}

func (e *DiffError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s: %s", e.Status, e.Reason)
	}
	return e.Status.String()
}

// Is lets errors.Is match ErrFileNotDisplayable for the neighbour and current variants
func (e *DiffError) Is(target error) bool {
	if target != ErrFileNotDisplayable {
		return false
	}
	return e.Status == CurrentImageNotAvailable ||
		e.Status == PreviousImageNotAvailable ||
		e.Status == NextImageNotAvailable
}

// StatusOf extracts the DiffStatus from an error, DiffOK for nil
func StatusOf(err error) DiffStatus {
	if err == nil {
		return DiffOK
	}
	var de *DiffError
	if errors.As(err, &de) {
		return de.Status
	}
	return NotCalculable
}

func diffErr(status DiffStatus, format string, args ...any) *DiffError {
	return &DiffError{Status: status, Reason: fmt.Sprintf(format, args...)}
}
