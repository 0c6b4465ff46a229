package timelapse

import (
	"errors"
	"fmt"
	"image"

	"go.uber.org/zap"
)

// DifferenceState is what the difference engine currently shows
type DifferenceState int

const (
	Unaltered DifferenceState = iota
	Previous
	Next
	Combined
)

func (s DifferenceState) String() string {
	switch s {
	case Unaltered:
		return "unaltered"
	case Previous:
		return "previous"
	case Next:
		return "next"
	case Combined:
		return "combined"
	default:
		return fmt.Sprintf("DifferenceState(%d)", int(s))
	}
}

// CycleKind selects which of the two cycles Advance steps through
type CycleKind int

const (
	// CyclePreviousNext tours Unaltered -> Previous -> Next -> Unaltered
	CyclePreviousNext CycleKind = iota
	// CycleCombined toggles Combined on and off
	CycleCombined
)

func (k CycleKind) String() string {
	if k == CycleCombined {
		return "combined"
	}
	return "previous/next"
}

// transitions is total over every (state, kind) pair
var transitions = [...][2]DifferenceState{
	Unaltered: {CyclePreviousNext: Previous, CycleCombined: Combined},
	Previous:  {CyclePreviousNext: Next, CycleCombined: Combined},
	Next:      {CyclePreviousNext: Unaltered, CycleCombined: Combined},
	Combined:  {CyclePreviousNext: Unaltered, CycleCombined: Unaltered},
}

// Transition returns the state reached from s by one step of kind
func Transition(s DifferenceState, kind CycleKind) DifferenceState {
	return transitions[s][kind]
}

// Display is the image to show for the current state. Status is DiffOK unless
// the difference could not be computed, in which case Image is the unaltered
// bitmap.
type Display struct {
	State  DifferenceState
	Image  image.Image
	Status DiffStatus
}

type differenceMemo struct {
	index     int
	version   uint64
	state     DifferenceState
	threshold int
	image     *image.Gray
}

// DifferenceEngine computes difference images between the cursor file and its
// neighbours, remembering a single result until the cursor moves.
type DifferenceEngine struct {
	cache     *NavigableCache
	threshold int
	logger    *zap.Logger

	state     DifferenceState
	cursor    CursorState
	hasCursor bool
	moves     uint64
	memo      *differenceMemo
}

// NewDifferenceEngine creates an engine over cache using threshold, clamped to [0,255]
func NewDifferenceEngine(cache *NavigableCache, threshold int, logger *zap.Logger) *DifferenceEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DifferenceEngine{
		cache:     cache,
		threshold: clampThreshold(threshold),
		logger:    logger,
	}
}

// State returns the current state, Unaltered after any cursor move
func (e *DifferenceEngine) State() DifferenceState {
	e.syncCursor()
	return e.state
}

// Threshold returns the per-channel threshold
func (e *DifferenceEngine) Threshold() int {
	return e.threshold
}

// SetThreshold changes the threshold and forgets any computed image
func (e *DifferenceEngine) SetThreshold(threshold int) {
	threshold = clampThreshold(threshold)
	if threshold != e.threshold {
		e.threshold = threshold
		e.memo = nil
	}
}

// Reset returns to Unaltered and forgets any computed image
func (e *DifferenceEngine) Reset() {
	e.state = Unaltered
	e.memo = nil
}

// Advance steps the given cycle and returns what should be displayed
func (e *DifferenceEngine) Advance(kind CycleKind) (Display, error) {
	e.syncCursor()
	if !e.hasCursor {
		return Display{}, ErrNoCursor
	}
	current, err := e.cache.CurrentBitmap()
	if err != nil {
		return Display{}, err
	}

	e.state = Transition(e.state, kind)
	display := Display{State: e.state, Image: current.Image}
	if e.state == Unaltered {
		return display, nil
	}

	var diff *image.Gray
	switch e.state {
	case Previous:
		diff, err = e.ComputeDifference(-1)
	case Next:
		diff, err = e.ComputeDifference(+1)
	case Combined:
		diff, err = e.ComputeCombinedDifference(e.threshold)
	}
	if err != nil {
		display.Status = StatusOf(err)
		e.logger.Debug("Difference not shown", zap.Stringer("state", e.state), zap.Error(err))
		return display, nil
	}
	display.Image = diff
	return display, nil
}

// ComputeDifference returns the thresholded difference between the cursor
// image and the neighbour at offset -1 or +1.
func (e *DifferenceEngine) ComputeDifference(offset int) (*image.Gray, error) {
	var state DifferenceState
	switch offset {
	case -1:
		state = Previous
	case 1:
		state = Next
	default:
		return nil, diffErr(NotCalculable, "neighbour offset must be -1 or +1, got %d", offset)
	}

	e.syncCursor()
	if img := e.remembered(state, e.threshold); img != nil {
		return img, nil
	}

	current, err := e.currentPixels()
	if err != nil {
		return nil, err
	}
	neighbour, err := e.neighbourPixels(offset)
	if err != nil {
		return nil, err
	}
	if !sameSize(current, neighbour) {
		return nil, diffErr(NotCalculable, "%s image is %v, current is %v",
			state, neighbour.Rect.Size(), current.Rect.Size())
	}

	diff := differenceMask(current, neighbour, e.threshold)
	e.remember(state, e.threshold, diff)
	return diff, nil
}

// ComputeCombinedDifference lights pixels that differ from both neighbours by
// more than threshold.
func (e *DifferenceEngine) ComputeCombinedDifference(threshold int) (*image.Gray, error) {
	threshold = clampThreshold(threshold)
	e.syncCursor()
	if img := e.remembered(Combined, threshold); img != nil {
		return img, nil
	}

	current, err := e.currentPixels()
	if err != nil {
		return nil, err
	}
	previous, err := e.neighbourPixels(-1)
	if err != nil {
		return nil, err
	}
	next, err := e.neighbourPixels(+1)
	if err != nil {
		return nil, err
	}
	if !sameSize(current, previous) || !sameSize(current, next) {
		return nil, diffErr(NotCalculable, "sizes differ: previous %v, current %v, next %v",
			previous.Rect.Size(), current.Rect.Size(), next.Rect.Size())
	}

	diff := combinedMask(previous, current, next, threshold)
	e.remember(Combined, threshold, diff)
	return diff, nil
}

func (e *DifferenceEngine) currentPixels() (*image.NRGBA, error) {
	record, err := e.cache.Record()
	if err != nil {
		return nil, diffErr(CurrentImageNotAvailable, "%v", err)
	}
	if record.IsVideo {
		return nil, diffErr(CurrentImageNotAvailable, "%s is a video", record)
	}
	bitmap, err := e.cache.CurrentBitmap()
	if err != nil || bitmap == nil || !bitmap.Displayable || bitmap.Image == nil {
		return nil, diffErr(CurrentImageNotAvailable, "%s is not displayable", record)
	}
	return bitmap.Image, nil
}

func (e *DifferenceEngine) neighbourPixels(offset int) (*image.NRGBA, error) {
	status := NextImageNotAvailable
	if offset < 0 {
		status = PreviousImageNotAvailable
	}

	index := e.cursor.CurrentIndex + offset
	seq := e.cache.Sequence()
	if !inRange(seq, index) {
		return nil, diffErr(status, "no file at %d", index)
	}
	record := seq.At(index)
	if record.IsVideo {
		return nil, diffErr(status, "%s is a video", record)
	}
	bitmap, err := e.cache.BitmapAt(offset)
	if err != nil {
		if errors.Is(err, ErrIndexOutOfRange) {
			return nil, diffErr(status, "%v", err)
		}
		return nil, err
	}
	if !bitmap.Displayable || bitmap.Image == nil {
		return nil, diffErr(status, "%s is %s", record, bitmap.Placeholder)
	}
	return bitmap.Image, nil
}

func (e *DifferenceEngine) remembered(state DifferenceState, threshold int) *image.Gray {
	m := e.memo
	if m == nil || m.state != state || m.threshold != threshold ||
		m.index != e.cursor.CurrentIndex || m.version != e.cursor.SequenceVersion {
		return nil
	}
	return m.image
}

func (e *DifferenceEngine) remember(state DifferenceState, threshold int, img *image.Gray) {
	e.memo = &differenceMemo{
		index:     e.cursor.CurrentIndex,
		version:   e.cursor.SequenceVersion,
		state:     state,
		threshold: threshold,
		image:     img,
	}
}

// syncCursor resets the state machine when the cache cursor or sequence moved
func (e *DifferenceEngine) syncCursor() {
	cursor := e.cache.Cursor()
	_, ok := e.cache.Current()
	moves := e.cache.Moves()
	if ok != e.hasCursor || cursor != e.cursor || moves != e.moves {
		e.Reset()
		e.cursor = cursor
		e.hasCursor = ok
		e.moves = moves
	}
}
