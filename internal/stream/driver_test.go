package stream

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/canny-live/internal/canny"
)

type staticSource struct {
	img image.Image
}

func (s staticSource) Latest(ctx context.Context) (image.Image, error) {
	return s.img, ctx.Err()
}

type failingSource struct{}

func (failingSource) Latest(context.Context) (image.Image, error) {
	return nil, errors.New("camera unplugged")
}

type failingSink struct{}

func (failingSink) Present(context.Context, image.Image) error {
	return errors.New("disk full")
}

type slowSink struct {
	delay time.Duration
}

func (s slowSink) Present(context.Context, image.Image) error {
	time.Sleep(s.delay)
	return nil
}

var testSettings = Settings{Low: 60, High: 120, Scale: 1}

func barFrame(t *testing.T) image.Image {
	t.Helper()
	p, err := NewPatternSource(64, 48)
	require.NoError(t, err)
	return p.Frame(20)
}

func newTestDriver(t *testing.T, src Source, sink Sink, opts Options) *Driver {
	t.Helper()
	if opts.FPS == 0 {
		opts.FPS = 100
	}
	if opts.Scales == nil {
		opts.Scales = []float64{1, 0.75, 0.5, 0.25}
	}
	d, err := NewDriver(src, sink, opts, testSettings)
	require.NoError(t, err)
	return d
}

func assertBinary(t *testing.T, img *image.NRGBA) {
	t.Helper()
	for i := 0; i < len(img.Pix); i += 4 {
		v := img.Pix[i]
		require.True(t, v == 0 || v == canny.MaskOn, "sample %d = %d", i, v)
		require.Equal(t, v, img.Pix[i+1])
		require.Equal(t, v, img.Pix[i+2])
		require.Equal(t, uint8(255), img.Pix[i+3])
	}
}

func TestNewDriver_Validation(t *testing.T) {
	src := staticSource{img: barFrame(t)}
	sink := NewMemorySink(1)

	_, err := NewDriver(nil, sink, Options{FPS: 30}, testSettings)
	assert.Error(t, err)

	_, err = NewDriver(src, sink, Options{}, testSettings)
	assert.Error(t, err)

	for _, fps := range []float64{2e9, math.Inf(1), math.NaN()} {
		_, err = NewDriver(src, sink, Options{FPS: fps}, testSettings)
		assert.Error(t, err, "fps %g", fps)
	}

	_, err = NewDriver(src, sink, Options{FPS: 30, Tuning: canny.Tuning{Weak: 5, Strong: 5}}, testSettings)
	assert.ErrorIs(t, err, canny.ErrInvalidTuning)

	_, err = NewDriver(src, sink, Options{FPS: 30}, Settings{Low: 10, High: 5, Scale: 1})
	assert.ErrorIs(t, err, ErrInvalidSettings)

	d, err := NewDriver(src, sink, Options{FPS: 50}, testSettings)
	require.NoError(t, err)
	assert.Equal(t, 20*time.Millisecond, d.Interval())
	assert.Equal(t, []float64{1}, d.Scales())
}

func TestDriver_Apply(t *testing.T) {
	d := newTestDriver(t, staticSource{img: barFrame(t)}, NewMemorySink(1), Options{})

	next := Settings{Low: 20, High: 40, Scale: 0.5, Overlay: "#00ff00"}
	require.NoError(t, d.Apply(next))
	assert.Equal(t, next, d.Settings())

	tests := []struct {
		name string
		s    Settings
		want error
	}{
		{"negative", Settings{Low: -1, High: 5, Scale: 1}, canny.ErrNegativeThreshold},
		{"order", Settings{Low: 50, High: 5, Scale: 1}, canny.ErrThresholdOrder},
		{"scale", Settings{Low: 1, High: 5, Scale: 0.3}, ErrInvalidSettings},
		{"overlay", Settings{Low: 1, High: 5, Scale: 1, Overlay: "purple"}, ErrInvalidSettings},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := d.Apply(tt.s)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, ErrInvalidSettings)
			assert.Equal(t, next, d.Settings(), "rejected settings must not replace current")
		})
	}
}

func TestDriver_Step(t *testing.T) {
	sink := NewMemorySink(1)
	d := newTestDriver(t, staticSource{img: barFrame(t)}, sink, Options{})

	require.NoError(t, d.Step(context.Background()))

	out := sink.Last()
	require.NotNil(t, out)
	assert.Equal(t, image.Rect(0, 0, 64, 48), out.Bounds())
	assertBinary(t, out)

	// Both sides of the bar, nothing in the flat areas.
	for y := 2; y < 46; y++ {
		left := out.NRGBAAt(19, y).R | out.NRGBAAt(20, y).R
		right := out.NRGBAAt(27, y).R | out.NRGBAAt(28, y).R
		assert.Equal(t, canny.MaskOn, left, "left edge row %d", y)
		assert.Equal(t, canny.MaskOn, right, "right edge row %d", y)
		assert.Zero(t, out.NRGBAAt(5, y).R)
		assert.Zero(t, out.NRGBAAt(24, y).R)
		assert.Zero(t, out.NRGBAAt(50, y).R)
	}

	stats := d.Stats()
	assert.Equal(t, 1, stats.Frames)
	assert.Positive(t, stats.EdgePixels)
	assert.Equal(t, stats.Last, stats.Total)
	assert.Equal(t, stats.Total, stats.Average())
}

func TestDriver_StepScaled(t *testing.T) {
	sink := NewMemorySink(1)
	d := newTestDriver(t, staticSource{img: barFrame(t)}, sink, Options{})
	ctx := context.Background()

	require.NoError(t, d.Step(ctx))
	require.NoError(t, d.Step(ctx))
	assert.Equal(t, 1, d.det.Allocations(), "same size must reuse scratch")

	s := testSettings
	s.Scale = 0.5
	require.NoError(t, d.Apply(s))
	require.NoError(t, d.Step(ctx))
	assert.Equal(t, 2, d.det.Allocations(), "new size must reallocate scratch")
	assert.Equal(t, 32, d.mask.Width)
	assert.Equal(t, 24, d.mask.Height)

	out := sink.Last()
	assert.Equal(t, image.Rect(0, 0, 64, 48), out.Bounds(), "mask is scaled back to source size")
	assertBinary(t, out)
	assert.Positive(t, d.Stats().EdgePixels)
}

func TestDriver_StepOverlay(t *testing.T) {
	src := barFrame(t)
	sink := NewMemorySink(1)
	d := newTestDriver(t, staticSource{img: src}, sink, Options{})

	s := testSettings
	s.Overlay = "#FF0000"
	require.NoError(t, d.Apply(s))
	require.NoError(t, d.Step(context.Background()))

	out := sink.Last()
	tint := color.NRGBA{R: 255, A: 255}
	painted := 0
	for y := 0; y < 48; y++ {
		for x := 0; x < 64; x++ {
			c := out.NRGBAAt(x, y)
			if c == tint {
				painted++
				continue
			}
			assert.Equal(t, src.(*image.NRGBA).NRGBAAt(x, y), c, "pixel (%d,%d)", x, y)
		}
	}
	assert.Equal(t, d.Stats().EdgePixels, painted)
}

func TestDriver_SourceFailureSkipped(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)
	sink := NewMemorySink(1)
	d := newTestDriver(t, failingSource{}, sink, Options{Logger: &log})

	require.NoError(t, d.Step(context.Background()))
	require.NoError(t, d.Step(context.Background()))

	stats := d.Stats()
	assert.Equal(t, 2, stats.SourceFailures)
	assert.Zero(t, stats.Frames)
	assert.Zero(t, sink.Total())
	assert.Contains(t, buf.String(), "camera unplugged")
}

func TestDriver_SinkErrorReturned(t *testing.T) {
	d := newTestDriver(t, staticSource{img: barFrame(t)}, failingSink{}, Options{})
	err := d.Step(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Zero(t, d.Stats().Frames)
}

func TestDriver_StepCancelled(t *testing.T) {
	d := newTestDriver(t, staticSource{img: barFrame(t)}, NewMemorySink(1), Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, d.Step(ctx), context.Canceled)
	assert.Zero(t, d.Stats().SourceFailures)
}

func TestDriver_Overrun(t *testing.T) {
	d := newTestDriver(t, staticSource{img: barFrame(t)}, slowSink{delay: 5 * time.Millisecond}, Options{FPS: 1000})
	require.NoError(t, d.Step(context.Background()))
	assert.Equal(t, 1, d.Stats().Overruns)
}

func TestDriver_RunMaxFrames(t *testing.T) {
	src, err := NewPatternSource(32, 24)
	require.NoError(t, err)
	sink := NewMemorySink(5)
	d := newTestDriver(t, src, sink, Options{FPS: 200, MaxFrames: 3})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, d.Run(ctx))

	assert.Equal(t, 3, d.Stats().Frames)
	assert.Equal(t, 3, sink.Total())
	assert.NoError(t, ctx.Err(), "run must stop on the frame limit, not the timeout")
}

func TestDriver_RunCancelled(t *testing.T) {
	src, err := NewPatternSource(16, 16)
	require.NoError(t, err)
	d := newTestDriver(t, src, NewMemorySink(1), Options{FPS: 100})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.NoError(t, d.Run(ctx))
}

func TestDriver_RunStopsOnSinkError(t *testing.T) {
	d := newTestDriver(t, staticSource{img: barFrame(t)}, failingSink{}, Options{FPS: 200})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.Error(t, d.Run(ctx))
}

func TestDriver_ApplyWhileRunning(t *testing.T) {
	src, err := NewPatternSource(32, 24)
	require.NoError(t, err)
	sink := NewMemorySink(1)
	d := newTestDriver(t, src, sink, Options{FPS: 500, MaxFrames: 20})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		scales := []float64{1, 0.5, 0.25, 0.75}
		for i := 0; i < 50; i++ {
			s := Settings{Low: float64(i), High: float64(i + 60), Scale: scales[i%len(scales)]}
			assert.NoError(t, d.Apply(s))
			_ = d.Stats()
			time.Sleep(time.Millisecond)
		}
	}()

	require.NoError(t, d.Run(ctx))
	wg.Wait()

	assert.Equal(t, 20, d.Stats().Frames)
	assertBinary(t, sink.Last())
}
