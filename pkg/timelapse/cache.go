package timelapse

import (
	"fmt"
	"sort"

	"go.uber.org/zap"
)

const (
	// DefaultCacheCapacity keeps a small neighbourhood of images resident for back/forward scrubbing
	DefaultCacheCapacity = 9

	// minCacheCapacity holds previous, current and next for combined differencing
	minCacheCapacity = 3
)

// CursorState is the cache position together with the sequence version it refers to
type CursorState struct {
	CurrentIndex    int
	SequenceVersion uint64
}

type cacheSlot struct {
	index    int
	recordID int64
	bitmap   *Bitmap
	lastUsed uint64
}

// NavigableCache owns the cursor into a Sequence and a bounded LRU of decoded
// bitmaps. The slot under the cursor is pinned while it is current.
// It is not safe for concurrent use.
type NavigableCache struct {
	seq      Sequence
	source   BitmapSource
	capacity int
	logger   *zap.Logger

	slots     []cacheSlot
	tick      uint64
	cursor    CursorState
	hasCursor bool
	currentID int64
	moves     uint64
}

// NewNavigableCache creates a cache over seq. Capacities below 3 are raised to 3.
func NewNavigableCache(seq Sequence, source BitmapSource, capacity int, logger *zap.Logger) *NavigableCache {
	if capacity < minCacheCapacity {
		capacity = minCacheCapacity
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NavigableCache{
		seq:      seq,
		source:   source,
		capacity: capacity,
		logger:   logger,
		slots:    make([]cacheSlot, 0, capacity),
		cursor:   CursorState{CurrentIndex: -1, SequenceVersion: seq.Version()},
	}
}

// TryMoveTo moves the cursor to index and makes its bitmap resident. changed
// reports whether the file under the cursor differs from the previous one.
// An out-of-range index leaves the cursor untouched and returns ErrIndexOutOfRange.
func (c *NavigableCache) TryMoveTo(index int) (changed bool, err error) {
	c.sync()
	if !inRange(c.seq, index) {
		return false, fmt.Errorf("%w: %d not in [0,%d)", ErrIndexOutOfRange, index, c.seq.Len())
	}

	record := c.seq.At(index)
	changed = !c.hasCursor || record.ID != c.currentID

	c.cursor.CurrentIndex = index
	c.hasCursor = true
	c.currentID = record.ID
	c.moves++

	if pos := c.find(index); pos >= 0 && c.slots[pos].recordID != record.ID {
		c.release(pos)
	}
	c.load(index)
	return changed, nil
}

// CurrentBitmap returns the bitmap under the cursor, loading it if needed
func (c *NavigableCache) CurrentBitmap() (*Bitmap, error) {
	c.sync()
	if !c.hasCursor {
		return nil, ErrNoCursor
	}
	return c.load(c.cursor.CurrentIndex), nil
}

// BitmapAt returns the bitmap at the given offset from the cursor, loading it
// into the cache without disturbing the cursor slot.
func (c *NavigableCache) BitmapAt(offset int) (*Bitmap, error) {
	c.sync()
	if !c.hasCursor {
		return nil, ErrNoCursor
	}
	index := c.cursor.CurrentIndex + offset
	if !inRange(c.seq, index) {
		return nil, fmt.Errorf("%w: %d not in [0,%d)", ErrIndexOutOfRange, index, c.seq.Len())
	}
	return c.load(index), nil
}

// Record returns the file record under the cursor
func (c *NavigableCache) Record() (FileRecord, error) {
	c.sync()
	if !c.hasCursor {
		return FileRecord{}, ErrNoCursor
	}
	return c.seq.At(c.cursor.CurrentIndex), nil
}

// Adopt inserts a bitmap decoded elsewhere. It is dropped when the sequence
// changed since the decode started, the record no longer sits at index, or
// the index is already resident.
func (c *NavigableCache) Adopt(index int, version uint64, record FileRecord, bitmap *Bitmap) bool {
	c.sync()
	if bitmap == nil || version != c.cursor.SequenceVersion || !inRange(c.seq, index) {
		return false
	}
	if c.seq.At(index).ID != record.ID || c.find(index) >= 0 {
		return false
	}
	c.insert(index, record.ID, bitmap)
	return true
}

// Refresh decodes the file under the cursor again
func (c *NavigableCache) Refresh() {
	c.sync()
	if !c.hasCursor {
		return
	}
	if pos := c.find(c.cursor.CurrentIndex); pos >= 0 {
		c.release(pos)
	}
	c.load(c.cursor.CurrentIndex)
}

// Invalidate releases every slot. The cursor index is kept if still in range
// and its bitmap is loaded again.
func (c *NavigableCache) Invalidate() {
	c.reset(c.seq.Version())
}

// Close releases every slot and forgets the cursor
func (c *NavigableCache) Close() {
	c.releaseAll()
	c.hasCursor = false
	c.cursor.CurrentIndex = -1
}

// Current returns the cursor index, false before the first move
func (c *NavigableCache) Current() (int, bool) {
	c.sync()
	return c.cursor.CurrentIndex, c.hasCursor
}

// Cursor returns a copy of the cursor state
func (c *NavigableCache) Cursor() CursorState {
	c.sync()
	return c.cursor
}

// Moves counts successful cursor moves, including moves to the same index
func (c *NavigableCache) Moves() uint64 {
	return c.moves
}

// Sequence returns the sequence the cache navigates
func (c *NavigableCache) Sequence() Sequence {
	return c.seq
}

// Capacity returns the maximum number of resident bitmaps
func (c *NavigableCache) Capacity() int {
	return c.capacity
}

// Len returns the number of resident bitmaps
func (c *NavigableCache) Len() int {
	c.sync()
	return len(c.slots)
}

// Resident returns the resident indices in ascending order
func (c *NavigableCache) Resident() []int {
	c.sync()
	indices := make([]int, 0, len(c.slots))
	for _, s := range c.slots {
		indices = append(indices, s.index)
	}
	sort.Ints(indices)
	return indices
}

// Contains reports whether index is resident
func (c *NavigableCache) Contains(index int) bool {
	c.sync()
	return c.find(index) >= 0
}

func (c *NavigableCache) sync() {
	if v := c.seq.Version(); v != c.cursor.SequenceVersion {
		c.logger.Debug("Sequence version changed, dropping bitmaps",
			zap.Uint64("from", c.cursor.SequenceVersion), zap.Uint64("to", v))
		c.reset(v)
	}
}

func (c *NavigableCache) reset(version uint64) {
	c.releaseAll()
	c.cursor.SequenceVersion = version
	if !c.hasCursor {
		return
	}
	if !inRange(c.seq, c.cursor.CurrentIndex) {
		c.hasCursor = false
		c.cursor.CurrentIndex = -1
		return
	}
	c.load(c.cursor.CurrentIndex)
}

func (c *NavigableCache) load(index int) *Bitmap {
	if pos := c.find(index); pos >= 0 {
		c.touch(pos)
		return c.slots[pos].bitmap
	}

	record := c.seq.At(index)
	bitmap := c.source.Load(record)
	if bitmap == nil {
		bitmap = Placeholder(CorruptPlaceholder)
	}
	if !bitmap.Displayable {
		c.logger.Warn("File not displayable, using placeholder",
			zap.String("file", record.String()), zap.Stringer("placeholder", bitmap.Placeholder))
	}
	c.insert(index, record.ID, bitmap)
	return bitmap
}

func (c *NavigableCache) insert(index int, recordID int64, bitmap *Bitmap) {
	for len(c.slots) >= c.capacity {
		c.evict()
	}
	c.tick++
	c.slots = append(c.slots, cacheSlot{index: index, recordID: recordID, bitmap: bitmap, lastUsed: c.tick})
	c.logger.Debug("Bitmap cached", zap.Int("index", index), zap.Int("resident", len(c.slots)))
}

// evict drops the least recently used slot that is not under the cursor
func (c *NavigableCache) evict() {
	victim := -1
	for pos, s := range c.slots {
		if c.hasCursor && s.index == c.cursor.CurrentIndex {
			continue
		}
		if victim < 0 || s.lastUsed < c.slots[victim].lastUsed {
			victim = pos
		}
	}
	if victim < 0 {
		panic(fmt.Errorf("%w: no evictable slot among %d (cursor %d pinned)",
			ErrCacheInvariant, len(c.slots), c.cursor.CurrentIndex))
	}
	c.logger.Debug("Bitmap evicted", zap.Int("index", c.slots[victim].index))
	c.release(victim)
}

func (c *NavigableCache) release(pos int) {
	last := len(c.slots) - 1
	c.slots[pos] = c.slots[last]
	c.slots[last] = cacheSlot{}
	c.slots = c.slots[:last]
}

func (c *NavigableCache) releaseAll() {
	for i := range c.slots {
		c.slots[i] = cacheSlot{}
	}
	c.slots = c.slots[:0]
}

func (c *NavigableCache) touch(pos int) {
	c.tick++
	c.slots[pos].lastUsed = c.tick
}

func (c *NavigableCache) find(index int) int {
	for pos, s := range c.slots {
		if s.index == index {
			return pos
		}
	}
	return -1
}
