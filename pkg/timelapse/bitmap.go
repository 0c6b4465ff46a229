package timelapse

import (
	"image"
	"image/color"
	"image/draw"
	"sync"
)

// PlaceholderKind tells why a bitmap is a stand-in for the real pixels
type PlaceholderKind int

const (
	NoPlaceholder PlaceholderKind = iota
	MissingPlaceholder
	CorruptPlaceholder
	VideoPlaceholder
)

func (k PlaceholderKind) String() string {
	switch k {
	case MissingPlaceholder:
		return "missing"
	case CorruptPlaceholder:
		return "corrupt"
	case VideoPlaceholder:
		return "video"
	default:
		return "none"
	}
}

// Bitmap is decoded pixel data together with its displayability
type Bitmap struct {
	Image       *image.NRGBA
	Displayable bool
	Placeholder PlaceholderKind
}

// Bounds returns the pixel rectangle, empty for a nil bitmap
func (b *Bitmap) Bounds() image.Rectangle {
	if b == nil || b.Image == nil {
		return image.Rectangle{}
	}
	return b.Image.Bounds()
}

// BitmapSource decodes a file record into pixels. Routine absence or
// corruption is never an error: the source answers with a placeholder
// bitmap whose Displayable flag is false.
type BitmapSource interface {
	Load(record FileRecord) *Bitmap
}

// BitmapSourceFunc adapts a function to a BitmapSource
type BitmapSourceFunc func(record FileRecord) *Bitmap

func (f BitmapSourceFunc) Load(record FileRecord) *Bitmap {
	return f(record)
}

// NewBitmap wraps decoded pixels, converting them to NRGBA when needed
func NewBitmap(img image.Image) *Bitmap {
	if img == nil {
		return Placeholder(CorruptPlaceholder)
	}
	return &Bitmap{Image: ToNRGBA(img), Displayable: true}
}

// ToNRGBA returns img as an NRGBA buffer with a zero origin
func ToNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

const (
	placeholderWidth  = 640
	placeholderHeight = 480
)

var (
	placeholderOnce   sync.Once
	placeholderImages map[PlaceholderKind]*image.NRGBA
)

// Placeholder returns a non-displayable bitmap backed by a shared well-known image
func Placeholder(kind PlaceholderKind) *Bitmap {
	placeholderOnce.Do(func() {
		placeholderImages = map[PlaceholderKind]*image.NRGBA{
			MissingPlaceholder: solid(color.NRGBA{R: 96, G: 32, B: 32, A: 255}),
			CorruptPlaceholder: solid(color.NRGBA{R: 96, G: 80, B: 24, A: 255}),
			VideoPlaceholder:   solid(color.NRGBA{R: 24, G: 40, B: 96, A: 255}),
		}
	})
	if kind == NoPlaceholder {
		kind = CorruptPlaceholder
	}
	return &Bitmap{Image: placeholderImages[kind], Displayable: false, Placeholder: kind}
}

func solid(c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, placeholderWidth, placeholderHeight))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
	return img
}
