// Package batch applies a filter to image files without a display.
package batch

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/nvr-ai/go-imgfilter/images"
	"github.com/nvr-ai/go-imgfilter/images/kernels"
	"github.com/nvr-ai/go-imgfilter/util"
)

// Settings describes one headless filter pass.
type Settings struct {
	Parameters kernels.Parameters
	KernelSize int
	Sigma      float64
	Options    kernels.Options
}

// Processor filters images with fixed settings, reusing one kernel.
type Processor struct {
	settings Settings
	kernel   *kernels.Kernel
	logger   logrus.FieldLogger
}

// NewProcessor builds the kernel up front so a bad kernel fails before any
// file is touched.
func NewProcessor(settings Settings, logger logrus.FieldLogger) (*Processor, error) {
	var kernel *kernels.Kernel
	if settings.Parameters.Mode == kernels.ModeBlur {
		k, err := kernels.BuildKernel(settings.KernelSize, settings.Sigma)
		if err != nil {
			return nil, err
		}
		kernel = k
	}
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &Processor{settings: settings, kernel: kernel, logger: logger}, nil
}

// Filter returns a filtered copy of img.
func (p *Processor) Filter(img *images.Image) (*images.Image, error) {
	if err := img.Validate(); err != nil {
		return nil, err
	}
	out, err := kernels.Apply(img.Data, img.Width, img.Height, p.settings.Parameters, p.kernel, p.settings.Options)
	if err != nil {
		return nil, err
	}
	return &images.Image{Format: img.Format, Data: out, Width: img.Width, Height: img.Height}, nil
}

// File filters the image at inPath and writes it to outPath.
func (p *Processor) File(inPath, outPath string) error {
	img, err := images.LoadImage(inPath)
	if err != nil {
		return err
	}
	return p.write(img, inPath, outPath)
}

// Directory filters every supported image in inDir into outDir, keeping
// file names. It returns the written paths.
func (p *Processor) Directory(inDir, outDir string) ([]string, error) {
	files, err := util.LoadDirectoryImageFiles(inDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create output directory")
	}

	written := make([]string, 0, len(files))
	for _, f := range files {
		img, err := images.Decode(bytes.NewReader(f.Data))
		if err != nil {
			return written, errors.Wrapf(err, "failed to decode %s", f.Path)
		}
		outPath := filepath.Join(outDir, outputName(filepath.Base(f.Path)))
		if err := p.write(img, f.Path, outPath); err != nil {
			return written, err
		}
		written = append(written, outPath)
	}
	return written, nil
}

func (p *Processor) write(img *images.Image, inPath, outPath string) error {
	start := time.Now()
	out, err := p.Filter(img)
	if err != nil {
		return errors.Wrapf(err, "failed to filter %s", inPath)
	}
	elapsed := time.Since(start)

	if err := images.SaveImage(outPath, out); err != nil {
		return err
	}

	p.logger.WithFields(logrus.Fields{
		"input":      inPath,
		"output":     outPath,
		"width":      img.Width,
		"height":     img.Height,
		"mode":       p.settings.Parameters.Mode.String(),
		"elapsed_ms": float64(elapsed) / float64(time.Millisecond),
	}).Info("image filtered")
	return nil
}

// outputName keeps the base name but swaps formats that cannot be encoded.
func outputName(name string) string {
	if format, err := images.FormatFromPath(name); err == nil && format == images.FormatTIFF {
		return name[:len(name)-len(filepath.Ext(name))] + ".png"
	}
	return name
}
