package cmd

import (
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Banh-Canh/trapview/internal/config"
	"github.com/Banh-Canh/trapview/pkg/timelapse"
)

func TestRenderRuns(t *testing.T) {
	base := time.Date(2024, 6, 1, 6, 0, 0, 0, time.UTC)
	records := []timelapse.FileRecord{
		{ID: 1, FileName: "a.jpg", CaptureTime: base},
		{ID: 2, FileName: "b.jpg", CaptureTime: base.Add(time.Minute)},
		{ID: 3, FileName: "c.jpg", CaptureTime: base.Add(time.Hour)},
	}
	seq := timelapse.NewRecords(records)
	settings := config.Settings{EpisodeTimeGap: 2 * time.Minute}

	episodes := timelapse.NewClusterIndex(seq, timelapse.EpisodeAdjacency(settings.EpisodeTimeGap), 0, nil)
	out := renderRuns(seq, episodes, false, settings)
	assert.Contains(t, out, "2 episodes (gap 2m0s)")
	assert.Contains(t, out, "1m0s")

	duplicates := timelapse.NewClusterIndex(seq, timelapse.DuplicateAdjacency(), 0, nil)
	assert.Equal(t, "No runs found.", renderRuns(seq, duplicates, true, settings))
}

func TestComputeDiff(t *testing.T) {
	records := []timelapse.FileRecord{{ID: 1, FileName: "a.jpg"}, {ID: 2, FileName: "b.jpg"}}
	source := timelapse.BitmapSourceFunc(func(r timelapse.FileRecord) *timelapse.Bitmap {
		img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
		if r.ID == 2 {
			img.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})
		}
		return timelapse.NewBitmap(img)
	})
	session, err := timelapse.NewSessionBuilder().
		WithSequence(timelapse.NewRecords(records)).
		WithSource(source).
		Build()
	require.NoError(t, err)
	_, err = session.MoveTo(1)
	require.NoError(t, err)

	img, err := computeDiff(session.Differences, "previous")
	require.NoError(t, err)
	assert.Equal(t, 1, litPixels(img))

	_, err = computeDiff(session.Differences, "next")
	assert.Equal(t, timelapse.NextImageNotAvailable, timelapse.StatusOf(err))

	_, err = computeDiff(session.Differences, "sideways")
	assert.ErrorContains(t, err, "unknown mode")
}
