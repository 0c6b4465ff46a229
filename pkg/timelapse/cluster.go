package timelapse

import (
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
)

const (
	// SizeUnknown marks a run that extends beyond the search range
	SizeUnknown = math.MaxInt

	DefaultEpisodeGap = 2 * time.Minute
	MinEpisodeGap     = 15 * time.Second
	MaxEpisodeGap     = 10 * time.Minute

	// DefaultMaxEpisodeSearch bounds the episode scan in each direction
	DefaultMaxEpisodeSearch = 40
)

// Adjacency decides whether two sequence-adjacent records belong to the same run.
// It is only ever applied to neighbours, never transitively across a break.
type Adjacency func(prev, cur FileRecord) bool

// EpisodeAdjacency joins records whose capture times are at most gap apart
func EpisodeAdjacency(gap time.Duration) Adjacency {
	return func(prev, cur FileRecord) bool {
		d := cur.CaptureTime.Sub(prev.CaptureTime)
		if d < 0 {
			d = -d
		}
		return d <= gap
	}
}

// DuplicateAdjacency joins records that describe the same physical file
func DuplicateAdjacency() Adjacency {
	return func(prev, cur FileRecord) bool {
		return prev.Identity() == cur.Identity()
	}
}

// ClampEpisodeGap limits gap to the supported [15s, 10m] range
func ClampEpisodeGap(gap time.Duration) time.Duration {
	return max(MinEpisodeGap, min(MaxEpisodeGap, gap))
}

// ClusterEntry is the 1-based rank of a record within its run and the run size.
// The zero value means there is nothing to show.
type ClusterEntry struct {
	Index   int
	Rank    int
	RunSize int
}

// Known reports whether both rank and size were resolved
func (e ClusterEntry) Known() bool {
	return e.Rank != SizeUnknown && e.RunSize != SizeUnknown
}

// InRun reports whether the record shares its run with at least one other record
func (e ClusterEntry) InRun() bool {
	return e.RunSize > 1
}

// ClusterIndex partitions a sequence into runs of adjacent records and
// memoises the answer per index until the sequence version changes.
type ClusterIndex struct {
	seq      Sequence
	adjacent Adjacency
	maxRange int
	logger   *zap.Logger

	entries map[int]ClusterEntry
	version uint64
}

// NewClusterIndex creates an index over seq. A maxRange of 0 scans without bound.
func NewClusterIndex(seq Sequence, adjacent Adjacency, maxRange int, logger *zap.Logger) *ClusterIndex {
	if maxRange < 0 {
		maxRange = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClusterIndex{
		seq:      seq,
		adjacent: adjacent,
		maxRange: maxRange,
		logger:   logger,
		entries:  make(map[int]ClusterEntry),
		version:  seq.Version(),
	}
}

// MaxRange returns the per-direction scan bound, 0 when unbounded
func (c *ClusterIndex) MaxRange() int {
	return c.maxRange
}

// Query returns the run position of index. An empty sequence or an index out
// of range yields the zero entry.
func (c *ClusterIndex) Query(index int) ClusterEntry {
	c.sync()
	if !inRange(c.seq, index) {
		return ClusterEntry{}
	}
	if entry, ok := c.entries[index]; ok {
		return entry
	}

	back, backCapped := c.scan(index, Backward)
	fwd, fwdCapped := c.scan(index, Forward)

	entry := ClusterEntry{Index: index, Rank: back + 1, RunSize: back + fwd + 1}
	if backCapped {
		entry.Rank = SizeUnknown
	}
	if backCapped || fwdCapped || (c.maxRange > 0 && entry.RunSize > c.maxRange) {
		entry.RunSize = SizeUnknown
	}

	if !entry.Known() {
		c.entries[index] = entry
		return entry
	}
	first := index - back
	for i := first; i <= index+fwd; i++ {
		c.entries[i] = ClusterEntry{Index: i, Rank: i - first + 1, RunSize: entry.RunSize}
	}
	return entry
}

// Invalidate forgets every memoised entry
func (c *ClusterIndex) Invalidate() {
	if len(c.entries) > 0 {
		c.logger.Debug("Cluster cache cleared", zap.Int("entries", len(c.entries)))
	}
	c.entries = make(map[int]ClusterEntry)
	c.version = c.seq.Version()
}

// Cached returns the number of memoised entries
func (c *ClusterIndex) Cached() int {
	return len(c.entries)
}

// Format renders an entry as "3/7", "3/40+" or "?/40+"; empty for the zero entry
func (c *ClusterIndex) Format(entry ClusterEntry) string {
	switch {
	case entry.RunSize == 0:
		return ""
	case entry.Known():
		return fmt.Sprintf("%d/%d", entry.Rank, entry.RunSize)
	case entry.Rank == SizeUnknown:
		return fmt.Sprintf("?/%d+", c.maxRange)
	default:
		return fmt.Sprintf("%d/%d+", entry.Rank, max(c.maxRange, entry.Rank))
	}
}

// scan counts the records adjacent to index in dir. capped is true when the
// bound was reached and the run still continues.
func (c *ClusterIndex) scan(index int, dir Direction) (count int, capped bool) {
	for i := index; ; i += dir.step() {
		if !c.adjacentStep(i, dir) {
			return count, false
		}
		if c.maxRange > 0 && count == c.maxRange {
			return count, true
		}
		count++
	}
}

// adjacentStep reports whether the record one step from i in dir joins i's run
func (c *ClusterIndex) adjacentStep(i int, dir Direction) bool {
	j := i + dir.step()
	if !inRange(c.seq, j) {
		return false
	}
	if dir == Backward {
		return c.adjacent(c.seq.At(j), c.seq.At(i))
	}
	return c.adjacent(c.seq.At(i), c.seq.At(j))
}

func (c *ClusterIndex) sync() {
	if c.seq.Version() != c.version {
		c.Invalidate()
	}
}

// EpisodeNavigator turns episode runs into navigation increments
type EpisodeNavigator struct {
	episodes *ClusterIndex
}

// NewEpisodeNavigator creates a navigator over an episode ClusterIndex
func NewEpisodeNavigator(episodes *ClusterIndex) *EpisodeNavigator {
	return &EpisodeNavigator{episodes: episodes}
}

// IncrementToNextRun returns how many records to move from `from` in dir to
// reach the first record outside its run. The result is at least 1 and never
// reaches past the ends of the sequence, except that 1 is returned at an end.
func (n *EpisodeNavigator) IncrementToNextRun(from int, dir Direction) int {
	seq := n.episodes.seq
	if !inRange(seq, from) {
		return 1
	}

	entry := n.episodes.Query(from)
	var dist int
	switch {
	case dir == Forward && entry.Known():
		dist = entry.RunSize - entry.Rank + 1
	case dir == Backward && entry.Rank != SizeUnknown:
		dist = entry.Rank
	default:
		steps, _ := n.episodes.scan(from, dir)
		dist = steps + 1
	}

	limit := from
	if dir == Forward {
		limit = seq.Len() - 1 - from
	}
	return max(1, min(dist, limit))
}
