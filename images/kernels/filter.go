package kernels

import (
	"unsafe"

	"github.com/chewxy/math32"
	"github.com/pkg/errors"
)

// Mode selects which algorithm a filter pass runs.
type Mode int

const (
	// ModeAdjust applies the pointwise brightness/contrast transform.
	ModeAdjust Mode = iota
	// ModeBlur convolves the image with a Gaussian kernel.
	ModeBlur
)

// String returns the mode name as used in configuration files.
func (m Mode) String() string {
	switch m {
	case ModeAdjust:
		return "adjust"
	case ModeBlur:
		return "blur"
	default:
		return "unknown"
	}
}

// ParseMode converts a mode name back into a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "adjust":
		return ModeAdjust, nil
	case "blur":
		return ModeBlur, nil
	default:
		return 0, errors.Errorf("unknown filter mode %q", s)
	}
}

// ParseEdgeMode converts an edge mode name back into an EdgeMode.
func ParseEdgeMode(s string) (EdgeMode, error) {
	switch s {
	case "", "skip":
		return EdgeSkip, nil
	case "clamp":
		return EdgeClamp, nil
	case "mirror":
		return EdgeMirror, nil
	case "wrap":
		return EdgeWrap, nil
	default:
		return 0, errors.Errorf("unknown edge mode %q", s)
	}
}

// Parameters are the user-controlled filter settings. They are passed by
// value into every pass; nothing about them is remembered between passes.
type Parameters struct {
	// Brightness is added to each channel after contrast scaling.
	Brightness float32 `json:"brightness" yaml:"brightness"`
	// Contrast scales each channel's distance from mid-gray (128).
	Contrast float32 `json:"contrast" yaml:"contrast"`
	// Mode selects between the adjust and blur passes.
	Mode Mode `json:"mode" yaml:"mode"`
}

// DefaultParameters returns parameters that leave the image unchanged in
// adjust mode.
func DefaultParameters() Parameters {
	return Parameters{Brightness: 0, Contrast: 1, Mode: ModeAdjust}
}

// ApplyFilter runs one filter pass over src and returns a new buffer.
//
// Arguments:
//   - src: RGBA pixels, channel-interleaved and row-major. Never modified.
//   - width, height: Image dimensions; len(src) must equal width*height*4.
//   - params: Brightness, contrast and mode for this pass.
//   - kernel: Convolution kernel, required in blur mode and ignored otherwise.
//
// Returns:
//   - []byte: The filtered pixels, same length as src.
//   - error: ErrInvalidImageBuffer or ErrInvalidKernelParameters, before any work is done.
func ApplyFilter(src []byte, width, height int, params Parameters, kernel *Kernel) ([]byte, error) {
	return Apply(src, width, height, params, kernel, Options{})
}

// Apply is ApplyFilter with explicit options. The destination comes from
// opt.Pool when one is set.
func Apply(src []byte, width, height int, params Parameters, kernel *Kernel, opt Options) ([]byte, error) {
	if err := validate(src, width, height, params, kernel, opt.Edge); err != nil {
		return nil, err
	}
	dst := opt.Pool.Get(len(src))
	run(dst, src, width, height, params, kernel, opt)
	return dst, nil
}

// ApplyFilterInto runs one filter pass writing into dst, which must be a
// distinct buffer of the same length as src.
func ApplyFilterInto(dst, src []byte, width, height int, params Parameters, kernel *Kernel, opt Options) error {
	if err := validate(src, width, height, params, kernel, opt.Edge); err != nil {
		return err
	}
	if len(dst) != len(src) {
		return errors.Wrapf(ErrInvalidImageBuffer, "destination length %d does not match source length %d", len(dst), len(src))
	}
	if overlaps(dst, src) {
		return errors.Wrap(ErrInvalidImageBuffer, "destination must not overlap source")
	}
	run(dst, src, width, height, params, kernel, opt)
	return nil
}

func validate(src []byte, width, height int, params Parameters, kernel *Kernel, edge EdgeMode) error {
	if width <= 0 || height <= 0 {
		return errors.Wrapf(ErrInvalidImageBuffer, "invalid image dimensions: %dx%d", width, height)
	}
	if len(src) != width*height*4 {
		return errors.Wrapf(ErrInvalidImageBuffer, "buffer length %d does not match %dx%dx4", len(src), width, height)
	}
	switch params.Mode {
	case ModeAdjust:
	case ModeBlur:
		if kernel == nil {
			return errors.Wrap(ErrInvalidKernelParameters, "blur mode requires a kernel")
		}
	default:
		return errors.Errorf("unknown filter mode %d", params.Mode)
	}
	switch edge {
	case EdgeSkip, EdgeClamp, EdgeMirror, EdgeWrap:
	default:
		return errors.Errorf("unknown edge mode %d", edge)
	}
	return nil
}

// overlaps reports whether a and b share any bytes of memory.
func overlaps(a, b []byte) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	a0 := uintptr(unsafe.Pointer(&a[0]))
	b0 := uintptr(unsafe.Pointer(&b[0]))
	return a0 < b0+uintptr(len(b)) && b0 < a0+uintptr(len(a))
}

func run(dst, src []byte, width, height int, params Parameters, kernel *Kernel, opt Options) {
	if params.Mode == ModeBlur {
		blurRGBA(dst, src, width, height, kernel, opt.Edge, opt.Parallel)
		return
	}
	adjustRGBA(dst, src, width, height, params.Brightness, params.Contrast, opt.Parallel)
}

// adjustRGBA applies out = contrast*(in-128) + 128 + brightness to the color
// channels of every pixel. Alpha is copied.
func adjustRGBA(dst, src []byte, w, h int, brightness, contrast float32, parallel bool) {
	stride := w * 4
	forEachRow(h, parallel, func(y int) {
		row := y * stride
		for i := row; i < row+stride; i += 4 {
			dst[i+0] = clamp8f(contrast*(float32(src[i+0])-128) + 128 + brightness)
			dst[i+1] = clamp8f(contrast*(float32(src[i+1])-128) + 128 + brightness)
			dst[i+2] = clamp8f(contrast*(float32(src[i+2])-128) + 128 + brightness)
			dst[i+3] = src[i+3]
		}
	})
}

// clamp8f saturates v to [0, 255] and truncates. NaN maps to 0.
func clamp8f(v float32) uint8 {
	if math32.IsNaN(v) {
		return 0
	}
	return uint8(math32.Min(math32.Max(v, 0), 255))
}

// sumTolerance absorbs the rounding left in a weighted sum whose weights
// add up to 1.0 only within float64 precision.
const sumTolerance = 1e-9

// clamp8 saturates v to [0, 255] and truncates. Sums within sumTolerance
// below an integer are taken as that integer.
func clamp8(v float64) uint8 {
	v += sumTolerance
	if !(v > 0) {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	if m != ModeAdjust && m != ModeBlur {
		return nil, errors.Errorf("unknown filter mode %d", int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	v, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (m EdgeMode) MarshalText() ([]byte, error) {
	if m < EdgeSkip || m > EdgeWrap {
		return nil, errors.Errorf("unknown edge mode %d", int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *EdgeMode) UnmarshalText(text []byte) error {
	v, err := ParseEdgeMode(string(text))
	if err != nil {
		return err
	}
	*m = v
	return nil
}
