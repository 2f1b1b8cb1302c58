package batch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-imgfilter/images"
	"github.com/nvr-ai/go-imgfilter/images/kernels"
)

func solid(w, h int, v uint8) *images.Image {
	img := images.New(w, h)
	for i := 0; i < len(img.Data); i += 4 {
		img.Data[i], img.Data[i+1], img.Data[i+2], img.Data[i+3] = v, v, v, 255
	}
	return img
}

func TestNewProcessorRejectsBadKernel(t *testing.T) {
	_, err := NewProcessor(Settings{Parameters: kernels.Parameters{Mode: kernels.ModeBlur}, KernelSize: 4, Sigma: 1}, nil)
	assert.ErrorIs(t, err, kernels.ErrInvalidKernelParameters)

	// Adjust mode never builds a kernel.
	_, err = NewProcessor(Settings{Parameters: kernels.DefaultParameters(), KernelSize: 4, Sigma: 1}, nil)
	assert.NoError(t, err)
}

func TestFilter(t *testing.T) {
	p, err := NewProcessor(Settings{Parameters: kernels.Parameters{Brightness: 20, Contrast: 1}}, nil)
	require.NoError(t, err)

	src := solid(3, 2, 100)
	out, err := p.Filter(src)
	require.NoError(t, err)
	assert.Equal(t, byte(120), out.Data[0])
	assert.Equal(t, byte(100), src.Data[0])

	_, err = p.Filter(&images.Image{Width: 1, Height: 1})
	assert.Error(t, err)
}

func TestFileAndDirectory(t *testing.T) {
	in := t.TempDir()
	out := filepath.Join(t.TempDir(), "filtered")

	require.NoError(t, images.SaveImage(filepath.Join(in, "frame-2.png"), solid(8, 8, 200)))
	require.NoError(t, images.SaveImage(filepath.Join(in, "frame-1.bmp"), solid(8, 8, 200)))
	require.NoError(t, os.WriteFile(filepath.Join(in, "readme.txt"), []byte("skip"), 0o644))

	logger, hook := test.NewNullLogger()
	p, err := NewProcessor(Settings{
		Parameters: kernels.Parameters{Contrast: 1, Mode: kernels.ModeBlur},
		KernelSize: 3,
		Sigma:      1,
	}, logger)
	require.NoError(t, err)

	written, err := p.Directory(in, out)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(out, "frame-1.bmp"), filepath.Join(out, "frame-2.png")}, written)
	assert.Len(t, hook.AllEntries(), 2)

	img, err := images.LoadImage(written[1])
	require.NoError(t, err)
	assert.Less(t, img.Data[0], img.Data[(4*8+4)*4], "border dimmer than interior")

	single := filepath.Join(out, "single.png")
	require.NoError(t, p.File(filepath.Join(in, "frame-2.png"), single))
	again, err := images.LoadImage(single)
	require.NoError(t, err)
	assert.Equal(t, img.Data, again.Data)
}

func TestDirectoryDecodeError(t *testing.T) {
	in := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(in, "broken.png"), []byte("nope"), 0o644))

	p, err := NewProcessor(Settings{Parameters: kernels.DefaultParameters()}, nil)
	require.NoError(t, err)

	_, err = p.Directory(in, t.TempDir())
	assert.Error(t, err)
}

func TestOutputName(t *testing.T) {
	assert.Equal(t, "a.png", outputName("a.tiff"))
	assert.Equal(t, "b.jpg", outputName("b.jpg"))
}
