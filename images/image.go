// Package images holds the pixel buffer shared by the filter pipeline and the
// decode, encode and resize shims around it.
package images

import (
	"image"
	"image/draw"

	"github.com/pkg/errors"
)

// Image represents a decoded image as a flat RGBA pixel buffer.
type Image struct {
	// The format the image was decoded from, or will be encoded to.
	Format ImageFormat `json:"format" yaml:"format"`
	// The pixels: 4 bytes per pixel (R, G, B, A), channel-interleaved, row-major,
	// non-premultiplied.
	Data []byte `json:"data" yaml:"data"`
	// The width of the image.
	Width int `json:"width" yaml:"width"`
	// The height of the image.
	Height int `json:"height" yaml:"height"`
}

// New allocates a zeroed image of the given size.
func New(width, height int) *Image {
	return &Image{Data: make([]byte, width*height*4), Width: width, Height: height}
}

// Validate checks that Data matches Width and Height.
func (img *Image) Validate() error {
	if img == nil {
		return errors.New("image is nil")
	}
	if img.Width <= 0 || img.Height <= 0 {
		return errors.Errorf("invalid image dimensions: %dx%d", img.Width, img.Height)
	}
	if len(img.Data) != img.Width*img.Height*4 {
		return errors.Errorf("pixel buffer length %d does not match %dx%dx4", len(img.Data), img.Width, img.Height)
	}
	return nil
}

// Clone returns a deep copy of img.
func (img *Image) Clone() *Image {
	out := *img
	out.Data = make([]byte, len(img.Data))
	copy(out.Data, img.Data)
	return &out
}

// FromImage copies any image.Image into a new RGBA pixel buffer.
func FromImage(src image.Image) *Image {
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Rect, src, b.Min, draw.Src)
	return &Image{Data: dst.Pix, Width: b.Dx(), Height: b.Dy()}
}

// ToNRGBA exposes the buffer as an *image.NRGBA without copying.
func (img *Image) ToNRGBA() *image.NRGBA {
	return &image.NRGBA{
		Pix:    img.Data,
		Stride: img.Width * 4,
		Rect:   image.Rect(0, 0, img.Width, img.Height),
	}
}
