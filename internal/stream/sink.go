package stream

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"

	"github.com/disintegration/imaging"

	imgutil "github.com/ironsheep/canny-live/internal/imaging"
)

// Sink consumes processed frames. The image passed to Present is reused by
// the driver after Present returns, so sinks that keep it must copy.
type Sink interface {
	Present(ctx context.Context, img image.Image) error
}

// PNGSink writes every presented frame to dir as frame-NNNNNN.png.
type PNGSink struct {
	dir string

	mu    sync.Mutex
	count int
	last  string
}

// NewPNGSink creates dir if needed and returns a sink writing into it.
func NewPNGSink(dir string) (*PNGSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &PNGSink{dir: dir}, nil
}

// Present writes img to the next numbered file.
func (s *PNGSink) Present(ctx context.Context, img image.Image) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, fmt.Sprintf("frame-%06d.png", s.count))
	if err := imgutil.SavePNG(path, img); err != nil {
		return err
	}
	s.count++
	s.last = path
	return nil
}

// Count returns the number of files written.
func (s *PNGSink) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// LastPath returns the most recently written file, or "".
func (s *PNGSink) LastPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// MemorySink keeps copies of the last N presented frames.
type MemorySink struct {
	keep int

	mu     sync.Mutex
	frames []*image.NRGBA
	total  int
}

// NewMemorySink returns a sink keeping at most keep frames (minimum 1).
func NewMemorySink(keep int) *MemorySink {
	if keep < 1 {
		keep = 1
	}
	return &MemorySink{keep: keep}
}

// Present stores a copy of img.
func (s *MemorySink) Present(_ context.Context, img image.Image) error {
	cp := imaging.Clone(img)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, cp)
	if len(s.frames) > s.keep {
		s.frames = s.frames[len(s.frames)-s.keep:]
	}
	s.total++
	return nil
}

// Frames returns the retained frames, oldest first.
func (s *MemorySink) Frames() []*image.NRGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*image.NRGBA(nil), s.frames...)
}

// Last returns the newest frame, or nil.
func (s *MemorySink) Last() *image.NRGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[len(s.frames)-1]
}

// Total returns the number of frames presented, including dropped ones.
func (s *MemorySink) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}
