package images

import (
	"bufio"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/pkg/errors"
	"golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// ImageFormat represents supported image formats.
type ImageFormat string

// ImageFormat constants.
const (
	// FormatJPEG is the JPEG image format.
	FormatJPEG ImageFormat = "jpeg"
	// FormatWebP is the WebP image format.
	FormatWebP ImageFormat = "webp"
	// FormatPNG is the PNG image format.
	FormatPNG ImageFormat = "png"
	// FormatBMP is the BMP image format.
	FormatBMP ImageFormat = "bmp"
	// FormatTIFF is the TIFF image format. Decode only.
	FormatTIFF ImageFormat = "tiff"
)

// SupportedExtensions lists the file extensions LoadImage understands.
var SupportedExtensions = []string{".jpg", ".jpeg", ".png", ".webp", ".bmp", ".tif", ".tiff"}

// FormatFromPath infers the image format from a file extension.
func FormatFromPath(path string) (ImageFormat, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return FormatJPEG, nil
	case ".png":
		return FormatPNG, nil
	case ".webp":
		return FormatWebP, nil
	case ".bmp":
		return FormatBMP, nil
	case ".tif", ".tiff":
		return FormatTIFF, nil
	default:
		return "", errors.Errorf("unsupported image format: %s", path)
	}
}

// Decode reads any registered format (jpeg, png, webp, bmp, tiff) into a
// pixel buffer.
func Decode(r io.Reader) (*Image, error) {
	src, name, err := image.Decode(r)
	if err != nil {
		return nil, errors.Wrap(err, "image decoding failed")
	}
	img := FromImage(src)
	img.Format = ImageFormat(name)
	return img, nil
}

// LoadImage opens and decodes the image at path.
func LoadImage(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open image")
	}
	defer f.Close()

	img, err := Decode(bufio.NewReader(f))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load %s", path)
	}
	return img, nil
}

// Encode writes img to w in the given format.
func (img *Image) Encode(w io.Writer, format ImageFormat) error {
	if err := img.Validate(); err != nil {
		return err
	}
	m := img.ToNRGBA()

	var err error
	switch format {
	case FormatPNG:
		err = png.Encode(w, m)
	case FormatJPEG:
		err = jpeg.Encode(w, m, &jpeg.Options{Quality: 95})
	case FormatWebP:
		err = webp.Encode(w, m, &webp.Options{Lossless: true})
	case FormatBMP:
		err = bmp.Encode(w, m)
	default:
		return errors.Errorf("cannot encode format %q", format)
	}
	return errors.Wrapf(err, "failed to encode %s", format)
}

// SaveImage encodes img to path, choosing the format from the extension.
func SaveImage(path string, img *Image) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "failed to create output file")
	}

	w := bufio.NewWriter(f)
	if err := img.Encode(w, format); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return errors.Wrap(err, "failed to write output file")
	}
	return errors.Wrap(f.Close(), "failed to close output file")
}
