package stream

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"sync"
	"time"

	"github.com/ironsheep/canny-live/internal/imaging"
)

// ErrNoFrames is returned by sources that have nothing to deliver.
var ErrNoFrames = errors.New("source has no frames")

// Period converts a frame rate into the time between frames. The rate must
// be finite and small enough that the period is at least one nanosecond.
func Period(fps float64) (time.Duration, error) {
	if math.IsNaN(fps) || fps <= 0 {
		return 0, fmt.Errorf("frame rate must be positive, got %g", fps)
	}
	d := time.Duration(float64(time.Second) / fps)
	if d < 1 {
		return 0, fmt.Errorf("frame rate %g is too high, period rounds to zero", fps)
	}
	return d, nil
}

// Source delivers frames to the driver.
//
// Latest returns the most recent frame available. Frames that became
// available while nobody was asking are skipped, never queued. The returned
// image must not be modified by the caller.
type Source interface {
	Latest(ctx context.Context) (image.Image, error)
}

// SequenceSource cycles through a list of image files at a nominal capture
// rate. The frame returned by Latest depends on the wall time elapsed since
// the first call, which makes it behave like a camera: a slow consumer sees
// fewer frames, not older ones.
type SequenceSource struct {
	paths []string
	cache *imaging.ImageCache
	every time.Duration
	now   func() time.Time

	mu    sync.Mutex
	start time.Time
	last  int
}

// NewSequenceSource creates a source over paths played at captureFPS.
func NewSequenceSource(paths []string, cache *imaging.ImageCache, captureFPS float64) (*SequenceSource, error) {
	if len(paths) == 0 {
		return nil, ErrNoFrames
	}
	every, err := Period(captureFPS)
	if err != nil {
		return nil, fmt.Errorf("capture rate: %w", err)
	}
	if cache == nil {
		cache = imaging.NewImageCache()
	}
	return &SequenceSource{
		paths: append([]string(nil), paths...),
		cache: cache,
		every: every,
		now:   time.Now,
		last:  -1,
	}, nil
}

// Len returns the number of files in the sequence.
func (s *SequenceSource) Len() int {
	return len(s.paths)
}

// Index returns the sequence position for the current time.
func (s *SequenceSource) Index() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexLocked()
}

func (s *SequenceSource) indexLocked() int {
	now := s.now()
	if s.start.IsZero() {
		s.start = now
	}
	n := int(now.Sub(s.start) / s.every)
	return n % len(s.paths)
}

// Latest loads the file for the current time. The previously delivered file
// is evicted from the cache once the sequence moves past it.
func (s *SequenceSource) Latest(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	idx := s.indexLocked()
	prev := s.last
	s.last = idx
	s.mu.Unlock()

	if prev >= 0 && prev != idx {
		s.cache.Evict(s.paths[prev])
	}
	img, err := s.cache.Load(s.paths[idx])
	if err != nil {
		return nil, fmt.Errorf("frame %d: %w", idx, err)
	}
	return img, nil
}

// PatternSource generates frames procedurally: a bright vertical bar moving
// across a dark field, one column per frame. Frame n is always the same
// image, which makes the source useful for demos and tests.
type PatternSource struct {
	width, height int

	mu   sync.Mutex
	next int
}

// Pattern colours.
var (
	PatternBackground = color.NRGBA{R: 24, G: 24, B: 32, A: 255}
	PatternBar        = color.NRGBA{R: 230, G: 230, B: 220, A: 255}
)

// NewPatternSource creates a pattern source of the given size.
func NewPatternSource(width, height int) (*PatternSource, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("pattern size must be at least 1x1, got %dx%d", width, height)
	}
	return &PatternSource{width: width, height: height}, nil
}

// BarWidth returns the width of the moving bar for the source size.
func (p *PatternSource) BarWidth() int {
	bw := p.width / 8
	if bw < 1 {
		bw = 1
	}
	return bw
}

// Frame renders frame n.
func (p *PatternSource) Frame(n int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, p.width, p.height))
	bw := p.BarWidth()
	x0 := n % p.width

	for y := 0; y < p.height; y++ {
		for x := 0; x < p.width; x++ {
			c := PatternBackground
			if d := x - x0; d >= 0 && d < bw {
				c = PatternBar
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// Latest renders the next frame in sequence.
func (p *PatternSource) Latest(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	n := p.next
	p.next++
	p.mu.Unlock()
	return p.Frame(n), nil
}
