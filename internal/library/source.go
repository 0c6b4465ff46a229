package library

import (
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"os"
	"path/filepath"

	"github.com/nfnt/resize"
	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/tiff" // register TIFF decoder
	_ "golang.org/x/image/webp" // register WebP decoder

	"github.com/Banh-Canh/trapview/internal/utils"
	"github.com/Banh-Canh/trapview/pkg/timelapse"
)

// FileSource decodes records relative to a root folder. It holds no mutable
// state and may be used from several goroutines.
type FileSource struct {
	Root string
	// DisplayWidth downscales wider images to this width, 0 keeps the native size
	DisplayWidth int
	Filter       resize.InterpolationFunction
}

// NewFileSource creates a source for root
func NewFileSource(root string, displayWidth int, filter resize.InterpolationFunction) *FileSource {
	return &FileSource{Root: filepath.Clean(root), DisplayWidth: displayWidth, Filter: filter}
}

// Path returns the absolute path of record
func (s *FileSource) Path(record timelapse.FileRecord) string {
	return filepath.Join(s.Root, filepath.FromSlash(record.RelativePath), record.FileName)
}

// Load decodes the record, answering with a placeholder for videos, missing and corrupt files
func (s *FileSource) Load(record timelapse.FileRecord) *timelapse.Bitmap {
	if record.IsVideo {
		return timelapse.Placeholder(timelapse.VideoPlaceholder)
	}

	path := s.Path(record)
	file, err := os.Open(path)
	if err != nil {
		utils.Logger.Debug("Failed to open image", zap.String("path", path), zap.Error(err))
		return timelapse.Placeholder(timelapse.MissingPlaceholder)
	}
	defer file.Close()

	img, format, err := image.Decode(file)
	if err != nil {
		utils.Logger.Warn("Failed to decode image", zap.String("path", path), zap.Error(err))
		return timelapse.Placeholder(timelapse.CorruptPlaceholder)
	}

	if s.DisplayWidth > 0 && img.Bounds().Dx() > s.DisplayWidth {
		img = resize.Resize(uint(s.DisplayWidth), 0, img, s.Filter)
	}
	utils.Logger.Debug("Image decoded", zap.String("path", path), zap.String("format", format),
		zap.Int("width", img.Bounds().Dx()), zap.Int("height", img.Bounds().Dy()))
	return timelapse.NewBitmap(img)
}

// ParseFilter maps a filter name to a resize interpolation function
func ParseFilter(name string) resize.InterpolationFunction {
	switch name {
	case "nearest":
		return resize.NearestNeighbor
	case "bilinear", "triangle":
		return resize.Bilinear
	case "bicubic", "catmull-rom":
		return resize.Bicubic
	case "mitchell":
		return resize.MitchellNetravali
	case "lanczos2":
		return resize.Lanczos2
	default:
		return resize.Lanczos3
	}
}
