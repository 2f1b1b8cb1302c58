package main

import (
	"flag"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/nvr-ai/go-imgfilter/config"
	"github.com/nvr-ai/go-imgfilter/images/kernels"
)

// options holds the command line flags that are not part of the config file.
type options struct {
	configPath string
	dir        string
	debug      bool
}

// parseFlags loads the config file (if any) and applies the flags that were
// explicitly set on top of it.
func parseFlags(args []string, stderr io.Writer) (config.Config, options, error) {
	var (
		opts       options
		imagePath  string
		outputPath string
		mode       string
		edge       string
		brightness float64
		contrast   float64
		kernelSize int
		sigma      float64
		parallel   bool
	)

	fs := flag.NewFlagSet("imgfilter", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configPath, "config", "", "Path to a YAML config file")
	fs.StringVar(&imagePath, "image", "", "Path to the image to filter")
	fs.StringVar(&opts.dir, "dir", "", "Filter every image in this directory (requires -output)")
	fs.StringVar(&outputPath, "output", "", "Write the filtered image (or directory) here instead of opening a window")
	fs.StringVar(&mode, "mode", "", "Filter mode: adjust or blur")
	fs.StringVar(&edge, "edge", "", "Blur edge handling: skip, clamp, mirror or wrap")
	fs.Float64Var(&brightness, "brightness", 0, "Brightness offset")
	fs.Float64Var(&contrast, "contrast", 1, "Contrast factor")
	fs.IntVar(&kernelSize, "kernel-size", 5, "Gaussian kernel size (odd)")
	fs.Float64Var(&sigma, "sigma", 1, "Gaussian sigma")
	fs.BoolVar(&parallel, "parallel", false, "Split filter passes across goroutines")
	fs.BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	if err := fs.Parse(args); err != nil {
		return config.Config{}, opts, err
	}

	cfg := config.Default()
	if opts.configPath != "" {
		var err error
		if cfg, err = config.Load(opts.configPath); err != nil {
			return cfg, opts, err
		}
	}

	var err error
	fs.Visit(func(f *flag.Flag) {
		if err != nil {
			return
		}
		switch f.Name {
		case "image":
			cfg.ImagePath = imagePath
		case "output":
			cfg.OutputPath = outputPath
		case "mode":
			cfg.Filter.Mode, err = kernels.ParseMode(mode)
		case "edge":
			cfg.Filter.Edge, err = kernels.ParseEdgeMode(edge)
		case "brightness":
			cfg.Filter.Brightness = float32(brightness)
		case "contrast":
			cfg.Filter.Contrast = float32(contrast)
		case "kernel-size":
			cfg.Filter.KernelSize = kernelSize
		case "sigma":
			cfg.Filter.Sigma = sigma
		case "parallel":
			cfg.Filter.Parallel = parallel
		}
	})
	if err != nil {
		return cfg, opts, err
	}
	if opts.debug {
		cfg.Log.Level = "debug"
	}

	if opts.dir != "" && cfg.OutputPath == "" {
		return cfg, opts, errors.New("-dir requires -output")
	}
	if err := cfg.Validate(); err != nil {
		return cfg, opts, err
	}
	return cfg, opts, nil
}

// initLogger builds the process logger. Debug switches to the text
// formatter with full timestamps.
func initLogger(cfg config.LogConfig, out io.Writer) *logrus.Logger {
	logger := logrus.New()
	if out == nil {
		out = os.Stdout
	}
	logger.SetOutput(out)

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Format == "text" || level >= logrus.DebugLevel {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
		logger.Debug("Debug logging enabled")
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}
	return logger
}
