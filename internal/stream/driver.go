package stream

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/ironsheep/canny-live/internal/canny"
	"github.com/ironsheep/canny-live/internal/imaging"
)

// ErrInvalidSettings is wrapped by every Apply failure.
var ErrInvalidSettings = errors.New("invalid settings")

// Settings are the values that may change while the driver runs.
type Settings struct {
	Low   float64 `json:"low"`
	High  float64 `json:"high"`
	Scale float64 `json:"scale"`

	// Overlay is a hex colour. When set, edges are painted over the source
	// frame instead of presenting the plain mask.
	Overlay string `json:"overlay,omitempty"`
}

// Params returns the threshold part of the settings.
func (s Settings) Params() canny.Params {
	return canny.Params{Low: s.Low, High: s.High}
}

// snapshot is an applied Settings value with its parsed tint.
type snapshot struct {
	Settings
	tint    color.NRGBA
	overlay bool
}

// Options configure a Driver.
type Options struct {
	// FPS is the target frame rate. Required.
	FPS float64

	// Scales lists the allowed downscale ratios. Empty means {1}.
	Scales []float64

	// MaxFrames stops Run after that many processed frames. Zero runs until
	// the context is cancelled.
	MaxFrames int

	// Tuning is passed to the detector. The zero value selects
	// canny.DefaultTuning.
	Tuning canny.Tuning

	// Logger receives driver events. Nil disables logging.
	Logger *zerolog.Logger
}

// Stats summarise the work done by a driver.
type Stats struct {
	Frames         int           `json:"frames"`
	SourceFailures int           `json:"source_failures"`
	Overruns       int           `json:"overruns"`
	EdgePixels     int           `json:"edge_pixels"`
	Last           time.Duration `json:"last"`
	Total          time.Duration `json:"total"`
}

// Average returns the mean processing time per frame.
func (s Stats) Average() time.Duration {
	if s.Frames == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Frames)
}

// Driver paces the edge detector over a Source and presents results to a
// Sink.
type Driver struct {
	src  Source
	sink Sink
	det  *canny.Detector
	log  zerolog.Logger

	interval  time.Duration
	scales    []float64
	maxFrames int

	settings atomic.Pointer[snapshot]

	// Owned by the goroutine calling Step.
	mask      canny.Frame
	display   *image.NRGBA
	composite *image.NRGBA

	mu    sync.Mutex
	stats Stats
}

// NewDriver creates a driver with initial settings.
func NewDriver(src Source, sink Sink, opts Options, initial Settings) (*Driver, error) {
	if src == nil || sink == nil {
		return nil, errors.New("driver needs a source and a sink")
	}
	interval, err := Period(opts.FPS)
	if err != nil {
		return nil, err
	}
	tuning := opts.Tuning
	if tuning == (canny.Tuning{}) {
		tuning = canny.DefaultTuning()
	}
	det, err := canny.NewDetector(tuning)
	if err != nil {
		return nil, err
	}

	scales := opts.Scales
	if len(scales) == 0 {
		scales = []float64{1}
	}

	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}

	d := &Driver{
		src:       src,
		sink:      sink,
		det:       det,
		log:       log,
		interval:  interval,
		scales:    append([]float64(nil), scales...),
		maxFrames: opts.MaxFrames,
	}
	if err := d.Apply(initial); err != nil {
		return nil, err
	}
	return d, nil
}

// Interval returns the tick period.
func (d *Driver) Interval() time.Duration {
	return d.interval
}

// Scales returns the allowed downscale ratios.
func (d *Driver) Scales() []float64 {
	return append([]float64(nil), d.scales...)
}

// Settings returns the settings the next frame will use.
func (d *Driver) Settings() Settings {
	return d.settings.Load().Settings
}

// Apply validates s and makes it the current settings. On error the
// previous settings stay in effect.
func (d *Driver) Apply(s Settings) error {
	if err := s.Params().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}
	if !lo.Contains(d.scales, s.Scale) {
		return fmt.Errorf("%w: scale %g not in %v", ErrInvalidSettings, s.Scale, d.scales)
	}

	snap := &snapshot{Settings: s}
	if s.Overlay != "" {
		tint, err := imaging.ParseTint(s.Overlay)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidSettings, err)
		}
		snap.tint = tint
		snap.overlay = true
	}

	prev := d.settings.Swap(snap)
	if prev != nil && prev.Settings != s {
		d.log.Info().
			Float64("low", s.Low).
			Float64("high", s.High).
			Float64("scale", s.Scale).
			Str("overlay", s.Overlay).
			Msg("settings changed")
	}
	return nil
}

// Stats returns a copy of the current counters.
func (d *Driver) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

// Step processes exactly one frame. A failing source is logged, counted and
// skipped; Step then returns nil without presenting anything. Errors from
// the detector or the sink are returned.
func (d *Driver) Step(ctx context.Context) error {
	start := time.Now()

	img, err := d.src.Latest(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		d.mu.Lock()
		d.stats.SourceFailures++
		d.mu.Unlock()
		d.log.Warn().Err(err).Msg("frame acquisition failed, skipping")
		return nil
	}

	cur := d.settings.Load()
	frame, err := imaging.Downscale(img, cur.Scale)
	if err != nil {
		return fmt.Errorf("failed to downscale frame: %w", err)
	}
	if err := d.det.DetectInto(&d.mask, frame, cur.Params()); err != nil {
		return fmt.Errorf("edge detection failed: %w", err)
	}

	b := img.Bounds()
	d.display = imaging.UpscaleInto(d.display, &d.mask, b.Dx(), b.Dy())
	out := d.display
	if cur.overlay {
		d.composite = imaging.Overlay(d.composite, img, d.display, cur.tint)
		out = d.composite
	}

	if err := d.sink.Present(ctx, out); err != nil {
		return fmt.Errorf("failed to present frame: %w", err)
	}

	elapsed := time.Since(start)
	edges := canny.EdgeCount(&d.mask)

	d.mu.Lock()
	d.stats.Frames++
	d.stats.EdgePixels = edges
	d.stats.Last = elapsed
	d.stats.Total += elapsed
	overrun := elapsed > d.interval
	if overrun {
		d.stats.Overruns++
	}
	frames := d.stats.Frames
	d.mu.Unlock()

	ev := d.log.Debug()
	if overrun {
		ev = d.log.Warn()
	}
	ev.Int("frame", frames).
		Int("width", b.Dx()).
		Int("height", b.Dy()).
		Int("edges", edges).
		Dur("elapsed", elapsed).
		Msg("frame processed")
	return nil
}

// Run calls Step on every tick until ctx is cancelled or MaxFrames frames
// have been processed. A frame in flight when ctx is cancelled completes
// before Run returns. Cancellation is not an error.
func (d *Driver) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	d.log.Info().
		Dur("interval", d.interval).
		Int("max_frames", d.maxFrames).
		Msg("driver started")

	// Frames are processed to completion even if ctx is cancelled mid-frame.
	frameCtx := context.WithoutCancel(ctx)

	for {
		select {
		case <-ctx.Done():
			d.logStopped("cancelled")
			return nil
		case <-ticker.C:
			if err := d.Step(frameCtx); err != nil {
				d.logStopped("error")
				return err
			}
			if d.maxFrames > 0 && d.Stats().Frames >= d.maxFrames {
				d.logStopped("frame limit reached")
				return nil
			}
		}
	}
}

func (d *Driver) logStopped(reason string) {
	s := d.Stats()
	d.log.Info().
		Str("reason", reason).
		Int("frames", s.Frames).
		Int("source_failures", s.SourceFailures).
		Int("overruns", s.Overruns).
		Dur("average", s.Average()).
		Msg("driver stopped")
}
