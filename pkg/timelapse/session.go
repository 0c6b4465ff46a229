package timelapse

import (
	"go.uber.org/zap"
)

// Session bundles the navigation core for one open file set. Create it with
// a SessionBuilder and Close it when the file set is closed.
type Session struct {
	Sequence    Sequence
	Cache       *NavigableCache
	Differences *DifferenceEngine
	Duplicates  *ClusterIndex
	Episodes    *ClusterIndex
	Navigator   *EpisodeNavigator

	logger *zap.Logger
}

// MoveTo moves the cursor to index and resets the difference view
func (s *Session) MoveTo(index int) (changed bool, err error) {
	changed, err = s.Cache.TryMoveTo(index)
	if err != nil {
		return false, err
	}
	s.Differences.Reset()
	return changed, nil
}

// Step moves the cursor by delta records
func (s *Session) Step(delta int) (changed bool, err error) {
	current, ok := s.Cache.Current()
	if !ok {
		return s.MoveTo(0)
	}
	return s.MoveTo(current + delta)
}

// JumpEpisode moves to the first record outside the current episode in dir
func (s *Session) JumpEpisode(dir Direction) (changed bool, err error) {
	current, ok := s.Cache.Current()
	if !ok {
		return false, ErrNoCursor
	}
	increment := s.Navigator.IncrementToNextRun(current, dir)
	return s.MoveTo(current + dir.step()*increment)
}

// EpisodeInfo returns the episode position of the cursor
func (s *Session) EpisodeInfo() ClusterEntry {
	current, ok := s.Cache.Current()
	if !ok {
		return ClusterEntry{}
	}
	return s.Episodes.Query(current)
}

// DuplicateInfo returns the duplicate-run position of the cursor
func (s *Session) DuplicateInfo() ClusterEntry {
	current, ok := s.Cache.Current()
	if !ok {
		return ClusterEntry{}
	}
	return s.Duplicates.Query(current)
}

// Invalidate must be called whenever the sequence selection or order changed.
// Every bitmap, difference and cluster result is recomputed afterwards.
func (s *Session) Invalidate() {
	s.logger.Debug("Session invalidated", zap.Uint64("version", s.Sequence.Version()))
	s.Cache.Invalidate()
	s.Differences.Reset()
	s.Duplicates.Invalidate()
	s.Episodes.Invalidate()
}

// Close releases every cached bitmap and result
func (s *Session) Close() {
	s.Cache.Close()
	s.Differences.Reset()
	s.Duplicates.Invalidate()
	s.Episodes.Invalidate()
}
