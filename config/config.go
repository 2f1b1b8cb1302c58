// Package config loads the viewer settings from YAML.
package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/nvr-ai/go-imgfilter/images/kernels"
)

// Config holds every setting the imgfilter command understands.
type Config struct {
	// ImagePath is the image to load.
	ImagePath string `json:"image" yaml:"image"`
	// OutputPath, when set, writes the filtered image instead of opening a window.
	OutputPath string `json:"output" yaml:"output"`

	Window WindowConfig `json:"window" yaml:"window"`
	Filter FilterConfig `json:"filter" yaml:"filter"`
	Log    LogConfig    `json:"log" yaml:"log"`

	// ProfileInterval is how often pass timings are reported. Zero disables reports.
	ProfileInterval time.Duration `json:"profile_interval" yaml:"profile_interval"`
}

// WindowConfig describes the display window. Images larger than the window
// are downscaled to fit on load.
type WindowConfig struct {
	Title  string `json:"title" yaml:"title"`
	Width  int    `json:"width" yaml:"width"`
	Height int    `json:"height" yaml:"height"`
}

// FilterConfig holds the initial filter parameters.
type FilterConfig struct {
	Brightness float32          `json:"brightness" yaml:"brightness"`
	Contrast   float32          `json:"contrast" yaml:"contrast"`
	Mode       kernels.Mode     `json:"mode" yaml:"mode"`
	KernelSize int              `json:"kernel_size" yaml:"kernel_size"`
	Sigma      float64          `json:"sigma" yaml:"sigma"`
	Edge       kernels.EdgeMode `json:"edge" yaml:"edge"`
	Parallel   bool             `json:"parallel" yaml:"parallel"`
}

// LogConfig selects the log level and output format ("json" or "text").
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ImagePath: "plymouth.jpg",
		Window: WindowConfig{
			Title:  "Image Brightness, Contrast and Gaussian Smoothing Adjuster",
			Width:  1024,
			Height: 591,
		},
		Filter: FilterConfig{
			Brightness: 0,
			Contrast:   1,
			Mode:       kernels.ModeAdjust,
			KernelSize: 5,
			Sigma:      1,
			Edge:       kernels.EdgeSkip,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads a YAML file over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "failed to read config")
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "failed to parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, errors.Wrapf(err, "invalid config %s", path)
	}
	return cfg, nil
}

// Validate checks the settings that would otherwise only fail on first use.
func (c Config) Validate() error {
	if c.ImagePath == "" {
		return errors.New("image path is required")
	}
	if c.Window.Width < 0 || c.Window.Height < 0 {
		return errors.Errorf("invalid window size %dx%d", c.Window.Width, c.Window.Height)
	}
	if _, err := kernels.BuildKernel(c.Filter.KernelSize, c.Filter.Sigma); err != nil {
		return err
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return errors.Errorf("unknown log format %q", c.Log.Format)
	}
	if c.ProfileInterval < 0 {
		return errors.Errorf("negative profile interval %s", c.ProfileInterval)
	}
	return nil
}

// Parameters returns the initial filter parameters.
func (c Config) Parameters() kernels.Parameters {
	return kernels.Parameters{
		Brightness: c.Filter.Brightness,
		Contrast:   c.Filter.Contrast,
		Mode:       c.Filter.Mode,
	}
}
