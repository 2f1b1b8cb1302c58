// Command imgfilter adjusts brightness and contrast or applies a Gaussian
// blur to an image. Without -output it opens a window and redraws on every
// key press.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/nvr-ai/go-imgfilter/batch"
	"github.com/nvr-ai/go-imgfilter/config"
	"github.com/nvr-ai/go-imgfilter/images"
	"github.com/nvr-ai/go-imgfilter/images/kernels"
	"github.com/nvr-ai/go-imgfilter/profiler"
	"github.com/nvr-ai/go-imgfilter/viewer"
	"github.com/nvr-ai/go-imgfilter/viewer/window"
)

func main() {
	cfg, opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		logrus.WithError(err).Fatal("invalid arguments")
	}

	logger := initLogger(cfg.Log, os.Stdout)
	logger.WithFields(logrus.Fields{
		"image":  cfg.ImagePath,
		"mode":   cfg.Filter.Mode.String(),
		"kernel": cfg.Filter.KernelSize,
		"sigma":  cfg.Filter.Sigma,
		"edge":   cfg.Filter.Edge.String(),
	}).Info("Starting imgfilter")

	if cfg.OutputPath != "" {
		if err := runHeadless(cfg, opts.dir, logger); err != nil {
			logger.WithError(err).Fatal("filter failed")
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := runInteractive(ctx, cfg, logger); err != nil && err != context.Canceled {
		logger.WithError(err).Fatal("viewer failed")
	}
}

// runHeadless filters a single image or a whole directory to disk.
func runHeadless(cfg config.Config, dir string, logger logrus.FieldLogger) error {
	p, err := batch.NewProcessor(batch.Settings{
		Parameters: cfg.Parameters(),
		KernelSize: cfg.Filter.KernelSize,
		Sigma:      cfg.Filter.Sigma,
		Options: kernels.Options{
			Edge:     cfg.Filter.Edge,
			Parallel: cfg.Filter.Parallel,
		},
	}, logger)
	if err != nil {
		return err
	}

	if dir != "" {
		written, err := p.Directory(dir, cfg.OutputPath)
		if err != nil {
			return err
		}
		logger.WithField("files", len(written)).Info("directory filtered")
		return nil
	}
	return p.File(cfg.ImagePath, cfg.OutputPath)
}

// runInteractive opens the window and runs the redraw loop until the user
// quits or ctx is cancelled.
func runInteractive(ctx context.Context, cfg config.Config, logger logrus.FieldLogger) error {
	src, err := images.LoadImage(cfg.ImagePath)
	if err != nil {
		return err
	}
	src = images.FitWithin(src, cfg.Window.Width, cfg.Window.Height)

	prof := profiler.NewRuntimeProfiler(profiler.ProfilingOptions{
		ReportInterval: cfg.ProfileInterval,
		Logger:         logger,
	})

	win := window.New(cfg.Window.Title, 10)
	defer win.Close()

	session, err := viewer.NewSession(viewer.Config{
		Source:       src,
		Parameters:   cfg.Parameters(),
		KernelSize:   cfg.Filter.KernelSize,
		Sigma:        cfg.Filter.Sigma,
		Edge:         cfg.Filter.Edge,
		Parallel:     cfg.Filter.Parallel,
		VerifySource: isDebug(logger),
		Presenter:    win,
		Logger:       logger,
		Profiler:     prof,
	})
	if err != nil {
		return err
	}

	if cfg.ProfileInterval > 0 {
		prof.AddMetricsCollector(session)
		prof.Start()
		defer prof.Stop()
	}

	return session.Run(ctx, win)
}

func isDebug(logger logrus.FieldLogger) bool {
	if l, ok := logger.(*logrus.Logger); ok {
		return l.IsLevelEnabled(logrus.DebugLevel)
	}
	return false
}
