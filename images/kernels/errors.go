package kernels

import "github.com/pkg/errors"

var (
	// ErrInvalidKernelParameters is returned when a kernel cannot be built from
	// the requested size and standard deviation.
	ErrInvalidKernelParameters = errors.New("invalid kernel parameters")
	// ErrInvalidImageBuffer is returned when a pixel buffer does not match the
	// dimensions it is passed with.
	ErrInvalidImageBuffer = errors.New("invalid image buffer")
)
