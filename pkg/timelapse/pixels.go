package timelapse

import (
	"image"
)

const (
	// DefaultDifferenceThreshold is the per-channel difference a pixel must exceed to light up
	DefaultDifferenceThreshold = 20

	MinDifferenceThreshold = 0
	MaxDifferenceThreshold = 255
)

func sameSize(a, b *image.NRGBA) bool {
	return a.Rect.Dx() == b.Rect.Dx() && a.Rect.Dy() == b.Rect.Dy()
}

// channelDelta returns the largest absolute RGB difference of two pixels
func channelDelta(a, b []uint8) uint8 {
	var delta uint8
	for ch := 0; ch < 3; ch++ {
		d := a[ch] - b[ch]
		if a[ch] < b[ch] {
			d = b[ch] - a[ch]
		}
		if d > delta {
			delta = d
		}
	}
	return delta
}

// differenceMask lights the pixels of cur that differ from other by more than threshold
func differenceMask(cur, other *image.NRGBA, threshold int) *image.Gray {
	w, h := cur.Rect.Dx(), cur.Rect.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		cRow := cur.Pix[cur.PixOffset(cur.Rect.Min.X, cur.Rect.Min.Y+y):]
		oRow := other.Pix[other.PixOffset(other.Rect.Min.X, other.Rect.Min.Y+y):]
		dRow := out.Pix[y*out.Stride:]
		for x := 0; x < w; x++ {
			d := channelDelta(cRow[x*4:x*4+3], oRow[x*4:x*4+3])
			if int(d) > threshold {
				dRow[x] = d
			}
		}
	}
	return out
}

// combinedMask lights the pixels of cur that differ from both neighbours by more than threshold
func combinedMask(prev, cur, next *image.NRGBA, threshold int) *image.Gray {
	w, h := cur.Rect.Dx(), cur.Rect.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		pRow := prev.Pix[prev.PixOffset(prev.Rect.Min.X, prev.Rect.Min.Y+y):]
		cRow := cur.Pix[cur.PixOffset(cur.Rect.Min.X, cur.Rect.Min.Y+y):]
		nRow := next.Pix[next.PixOffset(next.Rect.Min.X, next.Rect.Min.Y+y):]
		dRow := out.Pix[y*out.Stride:]
		for x := 0; x < w; x++ {
			px := cRow[x*4 : x*4+3]
			dp := channelDelta(px, pRow[x*4:x*4+3])
			dn := channelDelta(px, nRow[x*4:x*4+3])
			if int(dp) > threshold && int(dn) > threshold {
				dRow[x] = min(dp, dn)
			}
		}
	}
	return out
}

func clampThreshold(threshold int) int {
	return max(MinDifferenceThreshold, min(MaxDifferenceThreshold, threshold))
}
