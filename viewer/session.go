// Package viewer drives the interactive redraw loop: it turns key presses
// into filter parameter changes, runs a filter pass over the original image
// and hands the result to a Presenter.
package viewer

import (
	"context"
	"io"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/nvr-ai/go-imgfilter/images"
	"github.com/nvr-ai/go-imgfilter/images/kernels"
	"github.com/nvr-ai/go-imgfilter/profiler"
)

// Step sizes applied per key press.
const (
	ContrastStep   = 0.1
	BrightnessStep = 10
	KernelStep     = 2
	SigmaStep      = 0.5
	MaxKernelSize  = 63
	MinSigma       = 0.5
)

// ErrSourceModified is returned when a filter pass changed the source image.
var ErrSourceModified = errors.New("source image was modified by a filter pass")

// Presenter displays filtered frames. The pixel buffer passed to Present is
// only valid until the next call to Present.
type Presenter interface {
	Present(img *images.Image) error
	Close() error
}

// Config configures a Session.
type Config struct {
	// Source is the original image. It is never modified.
	Source *images.Image
	// Parameters are the initial filter parameters.
	Parameters kernels.Parameters
	// KernelSize and Sigma select the initial Gaussian kernel.
	KernelSize int
	Sigma      float64
	// Edge and Parallel are forwarded to every filter pass.
	Edge     kernels.EdgeMode
	Parallel bool
	// VerifySource re-hashes the source after every pass.
	VerifySource bool

	Presenter Presenter
	Logger    logrus.FieldLogger
	Profiler  *profiler.RuntimeProfiler
}

// Session holds the state of one interactive viewing session.
type Session struct {
	source     *images.Image
	checksum   string
	initial    Config
	params     kernels.Parameters
	kernelSize int
	sigma      float64
	opts       kernels.Options
	cache      *kernels.KernelCache
	presenter  Presenter
	logger     logrus.FieldLogger
	profiler   *profiler.RuntimeProfiler
	verify     bool
	last       []byte
	redraws    atomic.Int64
}

// NewSession validates cfg and returns a session ready to Render.
func NewSession(cfg Config) (*Session, error) {
	if err := cfg.Source.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid source image")
	}
	if cfg.Presenter == nil {
		return nil, errors.New("presenter is required")
	}
	if _, err := kernels.BuildKernel(cfg.KernelSize, cfg.Sigma); err != nil {
		return nil, err
	}
	if cfg.Logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		cfg.Logger = l
	}
	if cfg.Profiler == nil {
		cfg.Profiler = profiler.NewRuntimeProfiler(profiler.ProfilingOptions{Logger: cfg.Logger})
	}

	s := &Session{
		source:     cfg.Source,
		initial:    cfg,
		params:     cfg.Parameters,
		kernelSize: cfg.KernelSize,
		sigma:      cfg.Sigma,
		opts: kernels.Options{
			Edge:     cfg.Edge,
			Pool:     &kernels.Pool{},
			Parallel: cfg.Parallel,
		},
		cache:     kernels.NewKernelCache(),
		presenter: cfg.Presenter,
		logger:    cfg.Logger,
		profiler:  cfg.Profiler,
		verify:    cfg.VerifySource,
	}
	if s.verify {
		s.checksum = images.ComputeChecksum(s.source.Data)
	}
	return s, nil
}

// Parameters returns the current filter parameters.
func (s *Session) Parameters() kernels.Parameters { return s.params }

// KernelSize returns the current kernel size.
func (s *Session) KernelSize() int { return s.kernelSize }

// Sigma returns the current kernel standard deviation.
func (s *Session) Sigma() float64 { return s.sigma }

// Redraws returns how many frames have been presented.
func (s *Session) Redraws() int64 { return s.redraws.Load() }

// CollectMetrics implements profiler.MetricsCollector.
func (s *Session) CollectMetrics() map[string]float64 {
	return map[string]float64{
		"redraws":       float64(s.redraws.Load()),
		"kernel_builds": float64(s.cache.Builds()),
	}
}

// Render filters the original image with the current parameters and
// presents the result.
func (s *Session) Render() error {
	var kernel *kernels.Kernel
	if s.params.Mode == kernels.ModeBlur {
		k, err := s.cache.Get(s.kernelSize, s.sigma)
		if err != nil {
			return err
		}
		kernel = k
	}

	done := s.profiler.StartOperation("filter." + s.params.Mode.String())
	out, err := kernels.Apply(s.source.Data, s.source.Width, s.source.Height, s.params, kernel, s.opts)
	elapsed := done()
	if err != nil {
		return errors.Wrap(err, "filter pass failed")
	}

	if s.verify && images.ComputeChecksum(s.source.Data) != s.checksum {
		return ErrSourceModified
	}

	fields := logrus.Fields{
		"mode":       s.params.Mode.String(),
		"brightness": s.params.Brightness,
		"contrast":   s.params.Contrast,
		"elapsed_ms": float64(elapsed) / float64(time.Millisecond),
	}
	if kernel != nil {
		fields["kernel_size"] = s.kernelSize
		fields["sigma"] = s.sigma
	}
	s.logger.WithFields(fields).Info("filter pass complete")

	frame := &images.Image{
		Format: s.source.Format,
		Data:   out,
		Width:  s.source.Width,
		Height: s.source.Height,
	}
	if err := s.presenter.Present(frame); err != nil {
		s.opts.Pool.Put(out)
		return errors.Wrap(err, "failed to present frame")
	}

	// The previous frame is no longer referenced by the presenter.
	s.opts.Pool.Put(s.last)
	s.last = out
	s.redraws.Add(1)
	return nil
}

// HandleKey applies a key press and re-renders when the parameters changed.
//
// Returns:
//   - bool: true when the key asks to quit.
//   - error: any error from the re-render.
func (s *Session) HandleKey(k Key) (bool, error) {
	switch k {
	case KeyQuit:
		return true, nil
	case KeyContrastDown:
		s.params.Contrast -= ContrastStep
	case KeyContrastUp:
		s.params.Contrast += ContrastStep
	case KeyBrightnessDown:
		s.params.Brightness -= BrightnessStep
	case KeyBrightnessUp:
		s.params.Brightness += BrightnessStep
	case KeyToggleBlur:
		if s.params.Mode == kernels.ModeBlur {
			s.params.Mode = kernels.ModeAdjust
		} else {
			s.params.Mode = kernels.ModeBlur
		}
	case KeyKernelSmaller:
		if s.kernelSize-KernelStep < 1 {
			return false, nil
		}
		s.kernelSize -= KernelStep
	case KeyKernelLarger:
		if s.kernelSize+KernelStep > MaxKernelSize {
			return false, nil
		}
		s.kernelSize += KernelStep
	case KeySigmaDown:
		if s.sigma-SigmaStep < MinSigma {
			return false, nil
		}
		s.sigma -= SigmaStep
	case KeySigmaUp:
		s.sigma += SigmaStep
	case KeyReset:
		s.params = s.initial.Parameters
		s.kernelSize = s.initial.KernelSize
		s.sigma = s.initial.Sigma
	default:
		return false, nil
	}

	s.logger.WithFields(logrus.Fields{
		"key":         k.String(),
		"mode":        s.params.Mode.String(),
		"brightness":  s.params.Brightness,
		"contrast":    s.params.Contrast,
		"kernel_size": s.kernelSize,
		"sigma":       s.sigma,
	}).Debug("parameters changed")

	return false, s.Render()
}

// Run renders the first frame and then processes keys until the user quits
// or ctx is cancelled.
func (s *Session) Run(ctx context.Context, keys KeySource) error {
	if err := s.Render(); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		k, ok := keys.NextKey()
		if !ok {
			continue
		}
		quit, err := s.HandleKey(k)
		if err != nil {
			return err
		}
		if quit {
			s.logger.WithField("redraws", s.redraws.Load()).Info("session closed")
			return nil
		}
	}
}
