package ui

import (
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/blacktop/go-termimg"
	"github.com/cespare/xxhash/v2"
	"github.com/nfnt/resize"
	"go.uber.org/zap"

	"github.com/Banh-Canh/trapview/internal/utils"
)

const (
	// cell size in pixels used to scale frames for halfblock output
	cellPixelWidth  = 9
	cellPixelHeight = 18

	maxRenderedFrames = 50
)

// frameRenderer turns images into halfblock strings, caching the scaled JPEG
// on disk and the rendered text in memory.
type frameRenderer struct {
	dir      string
	filter   resize.InterpolationFunction
	quality  int
	rendered map[uint64]string
	order    []uint64
}

func newFrameRenderer(dir string, filter resize.InterpolationFunction, quality int) *frameRenderer {
	return &frameRenderer{
		dir:      dir,
		filter:   filter,
		quality:  quality,
		rendered: make(map[uint64]string),
	}
}

// frameKey identifies a frame by what it shows and the cell box it is drawn in
func frameKey(identity string, width, height int) uint64 {
	return xxhash.Sum64String(fmt.Sprintf("%s|%dx%d", identity, width, height))
}

// Render draws img into a width x height cell box
func (r *frameRenderer) Render(img image.Image, identity string, width, height int) (string, error) {
	if img == nil {
		return "", fmt.Errorf("no image to render")
	}
	if width < 4 || height < 2 {
		return "", nil
	}

	key := frameKey(identity, width, height)
	if out, ok := r.rendered[key]; ok {
		return out, nil
	}

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create frame cache: %w", err)
	}
	processed := filepath.Join(r.dir, fmt.Sprintf("%016x.jpg", key))
	if _, err := os.Stat(processed); os.IsNotExist(err) {
		if err := r.writeScaled(img, processed, width, height); err != nil {
			return "", err
		}
	}

	frame, err := termimg.Open(processed)
	if err != nil {
		os.Remove(processed)
		return "", fmt.Errorf("failed to open processed frame: %w", err)
	}
	out, err := frame.Width(width).Height(height).Protocol(termimg.Halfblocks).Render()
	if err != nil {
		return "", fmt.Errorf("failed to render frame: %w", err)
	}

	out = clipLines(out, height)
	r.remember(key, out)
	return out, nil
}

func (r *frameRenderer) remember(key uint64, out string) {
	if len(r.order) >= maxRenderedFrames {
		oldest := r.order[0]
		r.order = r.order[1:]
		delete(r.rendered, oldest)
	}
	r.rendered[key] = out
	r.order = append(r.order, key)
}

// Forget drops every rendered frame, e.g. after the folder was rescanned
func (r *frameRenderer) Forget() {
	r.rendered = make(map[uint64]string)
	r.order = nil
}

func (r *frameRenderer) writeScaled(img image.Image, path string, width, height int) error {
	b := img.Bounds()
	w, h := fitDimensions(b.Dx(), b.Dy(), width*cellPixelWidth, height*cellPixelHeight)

	scaled := img
	if w != b.Dx() || h != b.Dy() {
		scaled = resize.Resize(uint(w), uint(h), img, r.filter)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create frame file: %w", err)
	}
	defer file.Close()
	if err := jpeg.Encode(file, scaled, &jpeg.Options{Quality: r.quality}); err != nil {
		os.Remove(path)
		return fmt.Errorf("failed to encode frame: %w", err)
	}
	return nil
}

// clipLines keeps at most height lines of out
func clipLines(out string, height int) string {
	lines := strings.Split(out, "\n")
	if len(lines) > height {
		out = strings.Join(lines[:height], "\n")
	}
	return out
}

// fitDimensions scales (w, h) down to fit (maxW, maxH), preserving the aspect ratio
func fitDimensions(w, h, maxW, maxH int) (int, int) {
	if w <= maxW && h <= maxH {
		return w, h
	}
	ratio := float64(maxW) / float64(w)
	if hr := float64(maxH) / float64(h); hr < ratio {
		ratio = hr
	}
	return max(1, int(float64(w)*ratio)), max(1, int(float64(h)*ratio))
}

// cleanupFrameCache removes frames older than two days
func cleanupFrameCache(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	cutoff := time.Now().Add(-48 * time.Hour)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".jpg") {
			continue
		}
		if info, err := entry.Info(); err == nil && info.ModTime().Before(cutoff) {
			if os.Remove(filepath.Join(dir, entry.Name())) == nil {
				removed++
			}
		}
	}
	utils.Logger.Debug("Frame cache cleaned", zap.String("dir", dir), zap.Int("removed", removed))
}
