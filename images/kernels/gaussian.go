// Package kernels implements the Gaussian convolution pipeline used to redraw
// an image after every parameter change: kernel generation, a pointwise
// brightness/contrast pass and a full 2D neighborhood blur pass.
package kernels

import (
	"math"

	"github.com/pkg/errors"
)

// Kernel is an immutable square matrix of convolution weights.
// Weights are stored row-major: the entry for horizontal offset x and
// vertical offset y lives at index y*size+x.
type Kernel struct {
	size    int
	sigma   float64
	weights []float64
}

// BuildKernel generates a normalized 2D Gaussian kernel.
//
// Arguments:
//   - size: Width and height of the kernel. Must be odd and positive.
//   - sigma: Standard deviation of the Gaussian. Must be positive and finite.
//
// Returns:
//   - *Kernel: The kernel, whose weights sum to 1.0.
//   - error: ErrInvalidKernelParameters if size or sigma is out of range.
func BuildKernel(size int, sigma float64) (*Kernel, error) {
	if size <= 0 || size%2 == 0 {
		return nil, errors.Wrapf(ErrInvalidKernelParameters, "kernel size must be odd and positive, got %d", size)
	}
	if !(sigma > 0) || math.IsInf(sigma, 0) {
		return nil, errors.Wrapf(ErrInvalidKernelParameters, "sigma must be positive and finite, got %v", sigma)
	}

	half := (size - 1) / 2
	twoSigmaSq := 2 * sigma * sigma
	weights := make([]float64, size*size)

	// The 1/(π·2σ²) factor is common to every weight and cancels in the
	// normalization below; it under- or overflows for extreme sigmas.
	for y := -half; y <= half; y++ {
		for x := -half; x <= half; x++ {
			d := float64(x*x + y*y)
			w := 1.0
			if d > 0 {
				w = math.Exp(-d / twoSigmaSq)
			}
			weights[(y+half)*size+(x+half)] = w
		}
	}

	// The total is only known once every weight exists.
	var total float64
	for _, w := range weights {
		total += w
	}
	if !(total > 0) || math.IsInf(total, 0) {
		return nil, errors.Wrapf(ErrInvalidKernelParameters, "sigma %v produces an unusable kernel", sigma)
	}
	for i := range weights {
		weights[i] /= total
	}

	return &Kernel{size: size, sigma: sigma, weights: weights}, nil
}

// NewKernel wraps caller supplied weights, row-major, without normalizing them.
func NewKernel(size int, weights []float64) (*Kernel, error) {
	if size <= 0 || size%2 == 0 {
		return nil, errors.Wrapf(ErrInvalidKernelParameters, "kernel size must be odd and positive, got %d", size)
	}
	if len(weights) != size*size {
		return nil, errors.Wrapf(ErrInvalidKernelParameters, "expected %d weights, got %d", size*size, len(weights))
	}
	w := make([]float64, len(weights))
	copy(w, weights)
	return &Kernel{size: size, weights: w}, nil
}

// Size returns the kernel width (and height).
func (k *Kernel) Size() int { return k.size }

// Sigma returns the standard deviation the kernel was built with, or 0 for
// kernels created from explicit weights.
func (k *Kernel) Sigma() float64 { return k.sigma }

// Half returns the kernel radius, (size-1)/2.
func (k *Kernel) Half() int { return (k.size - 1) / 2 }

// At returns the weight at column x and row y, both in [0, Size()).
func (k *Kernel) At(x, y int) float64 {
	return k.weights[y*k.size+x]
}

// Sum returns the sum of all weights.
func (k *Kernel) Sum() float64 {
	var s float64
	for _, w := range k.weights {
		s += w
	}
	return s
}

// Weights returns a copy of the row-major weights.
func (k *Kernel) Weights() []float64 {
	out := make([]float64, len(k.weights))
	copy(out, k.weights)
	return out
}
