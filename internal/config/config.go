// Package config loads the canny-live configuration file.
//
// The file is TOML. Every key is optional; missing keys keep the values from
// Default. Unknown keys are an error so typos do not silently fall back to
// defaults.
//
//	[detector]
//	low = 60.0
//	high = 120.0
//
//	[tuning]
//	weak = 40
//	strong = 255
//	bins = [22.5, 67.5, 112.5, 157.5]
//
//	[driver]
//	fps = 30.0
//	scale = 1.0
//	scales = [1.0, 0.75, 0.5, 0.25]
//	frames = 0          # 0 runs until interrupted
//	overlay = ""        # "#RRGGBB" paints edges over the source frame
//
//	[source]
//	input = ""          # directory of images; empty uses the test pattern
//	capture_fps = 30.0  # nominal rate of the image sequence
//	pattern_width = 320
//	pattern_height = 240
//
//	[sink]
//	output = "frames"
//
//	[log]
//	level = "info"
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/samber/lo"

	"github.com/ironsheep/canny-live/internal/canny"
	"github.com/ironsheep/canny-live/internal/logger"
	"github.com/ironsheep/canny-live/internal/stream"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// DefaultScales is the fixed set of downscale ratios offered to callers.
var DefaultScales = []float64{1, 0.75, 0.5, 0.25}

// Config is the complete runtime configuration.
type Config struct {
	Detector Detector     `toml:"detector"`
	Tuning   canny.Tuning `toml:"tuning"`
	Driver   Driver       `toml:"driver"`
	Source   Source       `toml:"source"`
	Sink     Sink         `toml:"sink"`
	Log      Log          `toml:"log"`
}

// Detector holds the hysteresis thresholds.
type Detector struct {
	Low  float64 `toml:"low"`
	High float64 `toml:"high"`
}

// Params converts the thresholds to pipeline parameters.
func (d Detector) Params() canny.Params {
	return canny.Params{Low: d.Low, High: d.High}
}

// Driver configures the frame loop.
type Driver struct {
	FPS     float64   `toml:"fps"`
	Scale   float64   `toml:"scale"`
	Scales  []float64 `toml:"scales"`
	Frames  int       `toml:"frames"`
	Overlay string    `toml:"overlay"`
}

// Source selects where frames come from.
type Source struct {
	Input         string  `toml:"input"`
	CaptureFPS    float64 `toml:"capture_fps"`
	PatternWidth  int     `toml:"pattern_width"`
	PatternHeight int     `toml:"pattern_height"`
}

// Sink selects where processed frames go.
type Sink struct {
	Output string `toml:"output"`
}

// Log configures logging.
type Log struct {
	Level string `toml:"level"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Detector: Detector{Low: 60, High: 120},
		Tuning:   canny.DefaultTuning(),
		Driver: Driver{
			FPS:    30,
			Scale:  1,
			Scales: append([]float64(nil), DefaultScales...),
		},
		Source: Source{
			CaptureFPS:    30,
			PatternWidth:  320,
			PatternHeight: 240,
		},
		Sink: Sink{Output: "frames"},
		Log:  Log{Level: "info"},
	}
}

// Load reads a TOML file on top of Default and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := lo.Map(undecoded, func(k toml.Key, _ int) string { return k.String() })
		return nil, fmt.Errorf("%w: unknown keys in %s: %s", ErrInvalid, path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv applies environment overrides. Currently only the log level.
func (c *Config) ApplyEnv() {
	if lvl := os.Getenv(logger.EnvLevel); lvl != "" {
		c.Log.Level = lvl
	}
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.Detector.Params().Validate(); err != nil {
		return fmt.Errorf("%w: detector: %w", ErrInvalid, err)
	}
	if err := c.Tuning.Validate(); err != nil {
		return fmt.Errorf("%w: tuning: %w", ErrInvalid, err)
	}
	if _, err := stream.Period(c.Driver.FPS); err != nil {
		return fmt.Errorf("%w: driver.fps: %w", ErrInvalid, err)
	}
	if len(c.Driver.Scales) == 0 {
		return fmt.Errorf("%w: driver.scales is empty", ErrInvalid)
	}
	for _, s := range c.Driver.Scales {
		if s <= 0 || s > 1 {
			return fmt.Errorf("%w: driver.scales entry %g outside (0,1]", ErrInvalid, s)
		}
	}
	if err := c.CheckScale(c.Driver.Scale); err != nil {
		return err
	}
	if c.Driver.Frames < 0 {
		return fmt.Errorf("%w: driver.frames must not be negative", ErrInvalid)
	}
	if _, err := stream.Period(c.Source.CaptureFPS); err != nil {
		return fmt.Errorf("%w: source.capture_fps: %w", ErrInvalid, err)
	}
	if c.Source.Input == "" && (c.Source.PatternWidth < 1 || c.Source.PatternHeight < 1) {
		return fmt.Errorf("%w: pattern size %dx%d", ErrInvalid, c.Source.PatternWidth, c.Source.PatternHeight)
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// CheckScale reports whether s is one of the allowed downscale ratios.
func (c *Config) CheckScale(s float64) error {
	if !lo.Contains(c.Driver.Scales, s) {
		return fmt.Errorf("%w: scale %g not in %v", ErrInvalid, s, c.Driver.Scales)
	}
	return nil
}
