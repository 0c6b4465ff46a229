package library

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Banh-Canh/trapview/pkg/timelapse"
)

func writeFile(t *testing.T, path string, modTime time.Time) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	require.NoError(t, os.Chtimes(path, modTime, modTime))
}

func TestScan(t *testing.T) {
	root := t.TempDir()
	base := time.Date(2024, 6, 1, 6, 0, 0, 0, time.UTC)

	writeFile(t, filepath.Join(root, "IMG_0002.JPG"), base.Add(2*time.Minute))
	writeFile(t, filepath.Join(root, "cam2", "IMG_0001.png"), base)
	writeFile(t, filepath.Join(root, "cam2", "CLIP_0001.MP4"), base.Add(time.Minute))
	writeFile(t, filepath.Join(root, "notes.txt"), base)
	writeFile(t, filepath.Join(root, ".thumbs", "IMG_0009.JPG"), base)

	records, err := Scan(root)
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "cam2/IMG_0001.png", records[0].String())
	assert.Equal(t, "cam2/CLIP_0001.MP4", records[1].String())
	assert.True(t, records[1].IsVideo)
	assert.Equal(t, "", records[2].RelativePath)
	assert.Equal(t, "IMG_0002.JPG", records[2].FileName)

	for i, r := range records {
		assert.Equal(t, int64(i+1), r.ID)
	}
	assert.True(t, records[0].CaptureTime.Equal(base))
}

func TestScan_MissingRoot(t *testing.T) {
	records, err := Scan(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestSortByCaptureTime_TieBreak(t *testing.T) {
	at := time.Date(2024, 6, 1, 6, 0, 0, 0, time.UTC)
	records := []timelapse.FileRecord{
		{RelativePath: "b", FileName: "1.jpg", CaptureTime: at},
		{RelativePath: "a", FileName: "2.jpg", CaptureTime: at},
		{RelativePath: "a", FileName: "1.jpg", CaptureTime: at},
		{RelativePath: "z", FileName: "0.jpg", CaptureTime: at.Add(-time.Second)},
	}
	SortByCaptureTime(records)

	var got []string
	for _, r := range records {
		got = append(got, r.String())
	}
	assert.Equal(t, []string{"z/0.jpg", "a/1.jpg", "a/2.jpg", "b/1.jpg"}, got)
}

func TestExtensions(t *testing.T) {
	assert.True(t, IsImage("a.JPEG"))
	assert.True(t, IsImage("a.webp"))
	assert.False(t, IsImage("a.mp4"))
	assert.True(t, IsVideo("a.AVI"))
	assert.False(t, IsVideo("a.txt"))
}
