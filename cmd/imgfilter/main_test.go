package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-imgfilter/config"
	"github.com/nvr-ai/go-imgfilter/images"
	"github.com/nvr-ai/go-imgfilter/images/kernels"
)

func TestParseFlagsDefaults(t *testing.T) {
	cfg, opts, err := parseFlags(nil, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "plymouth.jpg", cfg.ImagePath)
	assert.Equal(t, kernels.ModeAdjust, cfg.Filter.Mode)
	assert.Equal(t, float32(1), cfg.Filter.Contrast)
	assert.Equal(t, 5, cfg.Filter.KernelSize)
	assert.False(t, opts.debug)
}

func TestParseFlagsOverrides(t *testing.T) {
	cfg, opts, err := parseFlags([]string{
		"-image", "in.png",
		"-output", "out.png",
		"-mode", "blur",
		"-edge", "mirror",
		"-brightness", "-20",
		"-contrast", "1.5",
		"-kernel-size", "7",
		"-sigma", "2",
		"-parallel",
		"-debug",
	}, &bytes.Buffer{})
	require.NoError(t, err)

	assert.Equal(t, "in.png", cfg.ImagePath)
	assert.Equal(t, "out.png", cfg.OutputPath)
	assert.Equal(t, kernels.ModeBlur, cfg.Filter.Mode)
	assert.Equal(t, kernels.EdgeMirror, cfg.Filter.Edge)
	assert.Equal(t, float32(-20), cfg.Filter.Brightness)
	assert.Equal(t, float32(1.5), cfg.Filter.Contrast)
	assert.Equal(t, 7, cfg.Filter.KernelSize)
	assert.Equal(t, 2.0, cfg.Filter.Sigma)
	assert.True(t, cfg.Filter.Parallel)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, opts.debug)
}

func TestParseFlagsConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "imgfilter.yaml")
	require.NoError(t, os.WriteFile(path, []byte("image: cfg.jpg\nfilter:\n  mode: blur\n  sigma: 3\n"), 0o644))

	cfg, _, err := parseFlags([]string{"-config", path, "-sigma", "1.5"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "cfg.jpg", cfg.ImagePath)
	assert.Equal(t, kernels.ModeBlur, cfg.Filter.Mode)
	assert.Equal(t, 1.5, cfg.Filter.Sigma, "explicit flag wins over the file")
}

func TestParseFlagsErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown mode", []string{"-mode", "sharpen"}},
		{"unknown edge", []string{"-edge", "reflect"}},
		{"even kernel", []string{"-kernel-size", "4"}},
		{"zero sigma", []string{"-sigma", "0"}},
		{"dir without output", []string{"-dir", "frames"}},
		{"unknown flag", []string{"-nope"}},
		{"missing config", []string{"-config", "/does/not/exist.yaml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := parseFlags(tt.args, &bytes.Buffer{})
			assert.Error(t, err)
		})
	}
}

func TestInitLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := initLogger(configLog("info", "json"), &buf)
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)

	logger = initLogger(configLog("debug", "json"), &buf)
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, logger.Formatter)
	assert.True(t, isDebug(logger))

	logger = initLogger(configLog("bogus", "text"), &buf)
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
	assert.False(t, isDebug(logger))
}

func TestRunHeadless(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.png")
	src := images.New(4, 4)
	for i := 0; i < len(src.Data); i += 4 {
		src.Data[i], src.Data[i+1], src.Data[i+2], src.Data[i+3] = 100, 100, 100, 255
	}
	require.NoError(t, images.SaveImage(in, src))

	cfg, _, err := parseFlags([]string{"-image", in, "-output", filepath.Join(dir, "out.png"), "-brightness", "50"}, &bytes.Buffer{})
	require.NoError(t, err)

	logger := initLogger(cfg.Log, &bytes.Buffer{})
	require.NoError(t, runHeadless(cfg, "", logger))

	out, err := images.LoadImage(cfg.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, byte(150), out.Data[0])
	assert.Equal(t, byte(255), out.Data[3])

	// Directory mode.
	cfg.OutputPath = filepath.Join(dir, "batch")
	require.NoError(t, runHeadless(cfg, dir, logger))
	_, err = os.Stat(filepath.Join(cfg.OutputPath, "in.png"))
	assert.NoError(t, err)
}

func configLog(level, format string) config.LogConfig {
	return config.LogConfig{Level: level, Format: format}
}
