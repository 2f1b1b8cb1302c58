package images

import (
	"github.com/nfnt/resize"
)

// FitWithin downscales img so that it fits inside maxWidth x maxHeight while
// keeping its aspect ratio. Images that already fit are returned unchanged
// (not copied). A non-positive bound leaves that dimension unconstrained.
//
// Arguments:
//   - img: The image to fit.
//   - maxWidth: The maximum width in pixels.
//   - maxHeight: The maximum height in pixels.
//
// Returns:
//   - *Image: img itself, or a new Lanczos3-resampled image.
func FitWithin(img *Image, maxWidth, maxHeight int) *Image {
	if maxWidth <= 0 {
		maxWidth = img.Width
	}
	if maxHeight <= 0 {
		maxHeight = img.Height
	}
	if img.Width <= maxWidth && img.Height <= maxHeight {
		return img
	}

	resized := resize.Thumbnail(uint(maxWidth), uint(maxHeight), img.ToNRGBA(), resize.Lanczos3)
	out := FromImage(resized)
	out.Format = img.Format
	return out
}
