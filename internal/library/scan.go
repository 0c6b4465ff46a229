package library

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/Banh-Canh/trapview/internal/utils"
	"github.com/Banh-Canh/trapview/pkg/timelapse"
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
	".webp": true,
}

var videoExtensions = map[string]bool{
	".mp4": true,
	".avi": true,
	".mov": true,
	".asf": true,
	".wmv": true,
	".mkv": true,
}

// IsImage reports whether name has a supported image extension
func IsImage(name string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(name))]
}

// IsVideo reports whether name has a supported video extension
func IsVideo(name string) bool {
	return videoExtensions[strings.ToLower(filepath.Ext(name))]
}

// Scan walks root and returns its images and videos sorted by capture time.
// The capture time is the file modification time. Hidden directories are skipped.
func Scan(root string) ([]timelapse.FileRecord, error) {
	root = filepath.Clean(root)
	var records []timelapse.FileRecord

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			utils.Logger.Warn("Skipping unreadable path", zap.String("path", path), zap.Error(err))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		name := d.Name()
		video := IsVideo(name)
		if !video && !IsImage(name) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		rel, err := filepath.Rel(root, filepath.Dir(path))
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", path, err)
		}
		if rel == "." {
			rel = ""
		}

		records = append(records, timelapse.FileRecord{
			RelativePath: filepath.ToSlash(rel),
			FileName:     name,
			CaptureTime:  info.ModTime(),
			IsVideo:      video,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}

	SortByCaptureTime(records)
	for i := range records {
		records[i].ID = int64(i + 1)
	}
	utils.Logger.Debug("Folder scanned", zap.String("root", root), zap.Int("files", len(records)))
	return records, nil
}

// SortByCaptureTime orders records by capture time, then path and name
func SortByCaptureTime(records []timelapse.FileRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if !a.CaptureTime.Equal(b.CaptureTime) {
			return a.CaptureTime.Before(b.CaptureTime)
		}
		if a.RelativePath != b.RelativePath {
			return a.RelativePath < b.RelativePath
		}
		return a.FileName < b.FileName
	})
}
