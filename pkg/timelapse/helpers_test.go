package timelapse_test

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"time"

	"github.com/Banh-Canh/trapview/pkg/timelapse"
)

var baseTime = time.Date(2024, 6, 1, 6, 0, 0, 0, time.UTC)

// fakeSource serves fixed bitmaps by record ID and counts loads
type fakeSource struct {
	bitmaps map[int64]*timelapse.Bitmap
	loads   map[int64]int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		bitmaps: make(map[int64]*timelapse.Bitmap),
		loads:   make(map[int64]int),
	}
}

func (f *fakeSource) Load(record timelapse.FileRecord) *timelapse.Bitmap {
	f.loads[record.ID]++
	if b, ok := f.bitmaps[record.ID]; ok {
		return b
	}
	if record.IsVideo {
		return timelapse.Placeholder(timelapse.VideoPlaceholder)
	}
	return timelapse.Placeholder(timelapse.MissingPlaceholder)
}

func (f *fakeSource) totalLoads() int {
	total := 0
	for _, n := range f.loads {
		total += n
	}
	return total
}

// makeRecords returns n records captured 10 seconds apart
func makeRecords(n int) []timelapse.FileRecord {
	records := make([]timelapse.FileRecord, n)
	for i := range records {
		records[i] = timelapse.FileRecord{
			ID:           int64(i + 1),
			RelativePath: "site-a",
			FileName:     fmt.Sprintf("IMG_%04d.JPG", i+1),
			CaptureTime:  baseTime.Add(time.Duration(i) * 10 * time.Second),
		}
	}
	return records
}

// recordsWithGaps returns records whose capture times advance by the given gaps,
// the first gap being relative to baseTime.
func recordsWithGaps(gaps ...time.Duration) []timelapse.FileRecord {
	records := make([]timelapse.FileRecord, len(gaps))
	t := baseTime
	for i, gap := range gaps {
		t = t.Add(gap)
		records[i] = timelapse.FileRecord{
			ID:           int64(i + 1),
			RelativePath: "site-a",
			FileName:     fmt.Sprintf("IMG_%04d.JPG", i+1),
			CaptureTime:  t,
		}
	}
	return records
}

// recordsWithNames returns one record per file name, all captured at the same time
func recordsWithNames(names ...string) []timelapse.FileRecord {
	records := make([]timelapse.FileRecord, len(names))
	for i, name := range names {
		records[i] = timelapse.FileRecord{
			ID:           int64(i + 1),
			RelativePath: "site-a",
			FileName:     name,
			CaptureTime:  baseTime,
		}
	}
	return records
}

func solidImage(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
	return img
}

func solidBitmap(w, h int, c color.NRGBA) *timelapse.Bitmap {
	return timelapse.NewBitmap(solidImage(w, h, c))
}

// distinctSource gives every record its own solid 8x8 colour
func distinctSource(records []timelapse.FileRecord) *fakeSource {
	src := newFakeSource()
	for _, r := range records {
		v := uint8(r.ID * 7)
		src.bitmaps[r.ID] = solidBitmap(8, 8, color.NRGBA{R: v, G: v, B: v, A: 255})
	}
	return src
}

var (
	black = color.NRGBA{A: 255}
	white = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
)
