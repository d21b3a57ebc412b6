package canny

import (
	"fmt"
	"math"
)

// Reference values for the tuning constants.
const (
	DefaultWeak   uint8 = 40
	DefaultStrong uint8 = 255
)

// MaskOn is the value written to every colour channel of an edge pixel in
// the output mask. Non-edge pixels are 0.
const MaskOn uint8 = 255

// DefaultBins are the direction bin boundaries in degrees.
var DefaultBins = [4]float64{22.5, 67.5, 112.5, 157.5}

// Params are the per-frame thresholds, 0 <= Low <= High.
type Params struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// Validate checks the threshold contract.
func (p Params) Validate() error {
	if !finite(p.Low) || !finite(p.High) {
		return fmt.Errorf("%w: low=%g high=%g", ErrInvalidThreshold, p.Low, p.High)
	}
	if p.Low < 0 || p.High < 0 {
		return fmt.Errorf("%w: low=%g high=%g", ErrNegativeThreshold, p.Low, p.High)
	}
	if p.Low > p.High {
		return fmt.Errorf("%w: low=%g high=%g", ErrThresholdOrder, p.Low, p.High)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// String implements fmt.Stringer for log output.
func (p Params) String() string {
	return fmt.Sprintf("low=%g high=%g", p.Low, p.High)
}

// Tuning holds the constants that are fixed in the classic algorithm but
// exposed here as configuration.
type Tuning struct {
	// Weak marks a candidate pixel during hysteresis.
	Weak uint8 `json:"weak" toml:"weak"`

	// Strong marks a confirmed edge pixel during hysteresis.
	Strong uint8 `json:"strong" toml:"strong"`

	// Bins are the ascending direction bin boundaries in degrees, all
	// within (0, 180).
	Bins [4]float64 `json:"bins" toml:"bins"`
}

// DefaultTuning returns the reference tuning: weak 40, strong 255, bins at
// 22.5, 67.5, 112.5 and 157.5 degrees.
func DefaultTuning() Tuning {
	return Tuning{
		Weak:   DefaultWeak,
		Strong: DefaultStrong,
		Bins:   DefaultBins,
	}
}

// Validate checks that the sentinels are distinct and non-zero and that the
// bin boundaries are strictly ascending inside (0, 180).
func (t Tuning) Validate() error {
	if t.Weak == 0 || t.Strong == 0 {
		return fmt.Errorf("%w: sentinels must be non-zero (weak=%d strong=%d)", ErrInvalidTuning, t.Weak, t.Strong)
	}
	if t.Weak == t.Strong {
		return fmt.Errorf("%w: weak and strong sentinels are both %d", ErrInvalidTuning, t.Weak)
	}
	prev := 0.0
	for i, b := range t.Bins {
		if b <= prev || b >= 180 {
			return fmt.Errorf("%w: bin boundary %d (%g) out of order or range", ErrInvalidTuning, i, b)
		}
		prev = b
	}
	return nil
}
