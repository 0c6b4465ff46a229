package timelapse

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// SessionBuilder provides a fluent interface for creating sessions
type SessionBuilder struct {
	sequence         Sequence
	source           BitmapSource
	cacheCapacity    int
	threshold        int
	episodeGap       time.Duration
	maxEpisodeSearch int
	logger           *zap.Logger
}

// NewSessionBuilder creates a builder with the default settings
func NewSessionBuilder() *SessionBuilder {
	return &SessionBuilder{
		cacheCapacity:    DefaultCacheCapacity,
		threshold:        DefaultDifferenceThreshold,
		episodeGap:       DefaultEpisodeGap,
		maxEpisodeSearch: DefaultMaxEpisodeSearch,
	}
}

// WithSequence sets the ordered records to navigate
func (b *SessionBuilder) WithSequence(seq Sequence) *SessionBuilder {
	b.sequence = seq
	return b
}

// WithSource sets the bitmap decoder
func (b *SessionBuilder) WithSource(source BitmapSource) *SessionBuilder {
	b.source = source
	return b
}

// WithCacheCapacity sets how many bitmaps stay resident
func (b *SessionBuilder) WithCacheCapacity(capacity int) *SessionBuilder {
	b.cacheCapacity = capacity
	return b
}

// WithDifferenceThreshold sets the per-channel difference threshold
func (b *SessionBuilder) WithDifferenceThreshold(threshold int) *SessionBuilder {
	b.threshold = threshold
	return b
}

// WithEpisodeGap sets the largest capture-time gap inside an episode
func (b *SessionBuilder) WithEpisodeGap(gap time.Duration) *SessionBuilder {
	b.episodeGap = gap
	return b
}

// WithMaxEpisodeSearch sets the episode scan bound in each direction
func (b *SessionBuilder) WithMaxEpisodeSearch(records int) *SessionBuilder {
	b.maxEpisodeSearch = records
	return b
}

// WithLogger sets the logger used by every component
func (b *SessionBuilder) WithLogger(logger *zap.Logger) *SessionBuilder {
	b.logger = logger
	return b
}

// Build creates the session
func (b *SessionBuilder) Build() (*Session, error) {
	if b.sequence == nil {
		return nil, fmt.Errorf("sequence is required")
	}
	if b.source == nil {
		return nil, fmt.Errorf("bitmap source is required")
	}
	if b.maxEpisodeSearch <= 0 {
		return nil, fmt.Errorf("episode search range must be positive, got %d", b.maxEpisodeSearch)
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	cache := NewNavigableCache(b.sequence, b.source, b.cacheCapacity, logger.Named("cache"))
	episodes := NewClusterIndex(b.sequence, EpisodeAdjacency(ClampEpisodeGap(b.episodeGap)),
		b.maxEpisodeSearch, logger.Named("episodes"))

	return &Session{
		Sequence:    b.sequence,
		Cache:       cache,
		Differences: NewDifferenceEngine(cache, b.threshold, logger.Named("difference")),
		Duplicates:  NewClusterIndex(b.sequence, DuplicateAdjacency(), 0, logger.Named("duplicates")),
		Episodes:    episodes,
		Navigator:   NewEpisodeNavigator(episodes),
		logger:      logger,
	}, nil
}
