package timelapse_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Banh-Canh/trapview/pkg/timelapse"
)

func TestSessionBuilder_Validation(t *testing.T) {
	seq := timelapse.NewRecords(makeRecords(3))

	_, err := timelapse.NewSessionBuilder().WithSource(newFakeSource()).Build()
	assert.ErrorContains(t, err, "sequence is required")

	_, err = timelapse.NewSessionBuilder().WithSequence(seq).Build()
	assert.ErrorContains(t, err, "bitmap source is required")

	_, err = timelapse.NewSessionBuilder().WithSequence(seq).WithSource(newFakeSource()).WithMaxEpisodeSearch(0).Build()
	assert.ErrorContains(t, err, "search range must be positive")
}

func TestSessionBuilder_Defaults(t *testing.T) {
	session, err := timelapse.NewSessionBuilder().
		WithSequence(timelapse.NewRecords(makeRecords(3))).
		WithSource(newFakeSource()).
		WithLogger(zap.NewNop()).
		Build()
	require.NoError(t, err)

	assert.Equal(t, timelapse.DefaultCacheCapacity, session.Cache.Capacity())
	assert.Equal(t, timelapse.DefaultDifferenceThreshold, session.Differences.Threshold())
	assert.Equal(t, timelapse.DefaultMaxEpisodeSearch, session.Episodes.MaxRange())
	assert.Zero(t, session.Duplicates.MaxRange())
}

func newEpisodeSession(t *testing.T) *timelapse.Session {
	t.Helper()
	records := recordsWithGaps(0, 30*time.Second, 30*time.Second, 5*time.Minute, 10*time.Second)
	session, err := timelapse.NewSessionBuilder().
		WithSequence(timelapse.NewRecords(records)).
		WithSource(distinctSource(records)).
		WithEpisodeGap(time.Minute).
		Build()
	require.NoError(t, err)
	return session
}

func TestSession_JumpEpisode(t *testing.T) {
	session := newEpisodeSession(t)

	_, err := session.JumpEpisode(timelapse.Forward)
	assert.ErrorIs(t, err, timelapse.ErrNoCursor)

	_, err = session.MoveTo(0)
	require.NoError(t, err)

	changed, err := session.JumpEpisode(timelapse.Forward)
	require.NoError(t, err)
	assert.True(t, changed)
	current, _ := session.Cache.Current()
	assert.Equal(t, 3, current)
	assert.Equal(t, "1/2", session.Episodes.Format(session.EpisodeInfo()))

	_, err = session.MoveTo(4)
	require.NoError(t, err)
	_, err = session.JumpEpisode(timelapse.Backward)
	require.NoError(t, err)
	current, _ = session.Cache.Current()
	assert.Equal(t, 2, current, "lands on the last record of the previous episode")

	_, err = session.MoveTo(0)
	require.NoError(t, err)
	_, err = session.JumpEpisode(timelapse.Backward)
	assert.ErrorIs(t, err, timelapse.ErrIndexOutOfRange)
	current, _ = session.Cache.Current()
	assert.Equal(t, 0, current)
}

func TestSession_StepResetsDifference(t *testing.T) {
	session := newEpisodeSession(t)

	_, err := session.Step(1)
	require.NoError(t, err)
	current, _ := session.Cache.Current()
	assert.Equal(t, 0, current, "first step starts at the beginning")

	_, err = session.Step(1)
	require.NoError(t, err)
	_, err = session.Differences.Advance(timelapse.CycleCombined)
	require.NoError(t, err)
	require.Equal(t, timelapse.Combined, session.Differences.State())

	_, err = session.MoveTo(1)
	require.NoError(t, err)
	assert.Equal(t, timelapse.Unaltered, session.Differences.State(), "redisplaying resets the view")
}

func TestSession_DuplicateInfo(t *testing.T) {
	records := recordsWithNames("A.JPG", "B.JPG", "B.JPG")
	session, err := timelapse.NewSessionBuilder().
		WithSequence(timelapse.NewRecords(records)).
		WithSource(distinctSource(records)).
		Build()
	require.NoError(t, err)

	assert.Equal(t, timelapse.ClusterEntry{}, session.DuplicateInfo())

	_, _ = session.MoveTo(2)
	entry := session.DuplicateInfo()
	assert.True(t, entry.InRun())
	assert.Equal(t, "2/2", session.Duplicates.Format(entry))

	_, _ = session.MoveTo(0)
	assert.False(t, session.DuplicateInfo().InRun())
}

func TestSession_InvalidateAndClose(t *testing.T) {
	session := newEpisodeSession(t)
	_, _ = session.MoveTo(1)
	_, _ = session.Cache.CurrentBitmap()
	session.EpisodeInfo()
	require.NotZero(t, session.Episodes.Cached())

	memo, err := session.Differences.ComputeDifference(1)
	require.NoError(t, err)
	again, err := session.Differences.ComputeDifference(1)
	require.NoError(t, err)
	require.Same(t, memo, again)

	session.Invalidate()
	assert.Equal(t, []int{1}, session.Cache.Resident(), "only the cursor slot is reloaded")
	assert.Zero(t, session.Episodes.Cached())

	recomputed, err := session.Differences.ComputeDifference(1)
	require.NoError(t, err)
	assert.NotSame(t, memo, recomputed, "invalidation forces a new difference")
	current, ok := session.Cache.Current()
	assert.True(t, ok)
	assert.Equal(t, 1, current)

	session.Close()
	_, ok = session.Cache.Current()
	assert.False(t, ok)
	assert.Equal(t, timelapse.ClusterEntry{}, session.EpisodeInfo())
}
