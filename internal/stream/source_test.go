package stream

import (
	"context"
	"image"
	"image/color"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/canny-live/internal/imaging"
)

func writeSolid(t *testing.T, dir, name string, c color.NRGBA) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 8, 6))
	for y := 0; y < 6; y++ {
		for x := 0; x < 8; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	path := filepath.Join(dir, name)
	require.NoError(t, imaging.SavePNG(path, img))
	return path
}

func redOf(t *testing.T, img image.Image) uint8 {
	t.Helper()
	r, _, _, _ := img.At(img.Bounds().Min.X, img.Bounds().Min.Y).RGBA()
	return uint8(r >> 8)
}

func TestPatternSource(t *testing.T) {
	p, err := NewPatternSource(64, 48)
	require.NoError(t, err)
	assert.Equal(t, 8, p.BarWidth())

	f := p.Frame(20)
	assert.Equal(t, image.Rect(0, 0, 64, 48), f.Bounds())
	assert.Equal(t, PatternBackground, f.NRGBAAt(19, 10))
	assert.Equal(t, PatternBar, f.NRGBAAt(20, 10))
	assert.Equal(t, PatternBar, f.NRGBAAt(27, 47))
	assert.Equal(t, PatternBackground, f.NRGBAAt(28, 0))

	// Deterministic per index, wrapping at the width.
	assert.Equal(t, f.Pix, p.Frame(20).Pix)
	assert.Equal(t, f.Pix, p.Frame(84).Pix)
}

func TestPatternSource_LatestAdvances(t *testing.T) {
	p, err := NewPatternSource(16, 4)
	require.NoError(t, err)

	ctx := context.Background()
	for n := 0; n < 3; n++ {
		img, err := p.Latest(ctx)
		require.NoError(t, err)
		assert.Equal(t, PatternBar, img.(*image.NRGBA).NRGBAAt(n, 0), "frame %d", n)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = p.Latest(cancelled)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPatternSource_Invalid(t *testing.T) {
	_, err := NewPatternSource(0, 10)
	assert.Error(t, err)

	p, err := NewPatternSource(3, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, p.BarWidth())
}

func TestSequenceSource(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeSolid(t, dir, "a.png", color.NRGBA{R: 10, A: 255}),
		writeSolid(t, dir, "b.png", color.NRGBA{R: 20, A: 255}),
		writeSolid(t, dir, "c.png", color.NRGBA{R: 30, A: 255}),
	}
	cache := imaging.NewImageCache()

	s, err := NewSequenceSource(paths, cache, 10)
	require.NoError(t, err)
	assert.Equal(t, 3, s.Len())

	now := time.Unix(1000, 0)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	img, err := s.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint8(10), redOf(t, img))

	// Same slot returns the same cached frame.
	now = now.Add(50 * time.Millisecond)
	again, err := s.Latest(ctx)
	require.NoError(t, err)
	assert.Same(t, img, again)

	// Frames in between are skipped, never queued.
	now = now.Add(200 * time.Millisecond)
	img, err = s.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint8(30), redOf(t, img))
	assert.Equal(t, 1, cache.Len(), "passed frame must be evicted")

	now = now.Add(100 * time.Millisecond)
	assert.Equal(t, 0, s.Index())
	img, err = s.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint8(10), redOf(t, img))
}

func TestSequenceSource_Errors(t *testing.T) {
	_, err := NewSequenceSource(nil, nil, 30)
	assert.ErrorIs(t, err, ErrNoFrames)

	_, err = NewSequenceSource([]string{"x.png"}, nil, 0)
	assert.Error(t, err)

	_, err = NewSequenceSource([]string{"x.png"}, nil, 2e9)
	assert.Error(t, err)

	s, err := NewSequenceSource([]string{"/nonexistent/x.png"}, nil, 30)
	require.NoError(t, err)
	_, err = s.Latest(context.Background())
	assert.Error(t, err)
}

func TestPeriod(t *testing.T) {
	d, err := Period(30)
	require.NoError(t, err)
	assert.Equal(t, time.Duration(33333333), d)

	d, err = Period(1e9)
	require.NoError(t, err)
	assert.Equal(t, time.Nanosecond, d)

	for _, fps := range []float64{0, -1, 2e9, math.Inf(1), math.NaN()} {
		_, err := Period(fps)
		assert.Error(t, err, "fps %g", fps)
	}
}
