package stability

import (
	"math"

	"github.com/sirupsen/logrus"
)

const (
	DefaultWindowSize = 5
	// DefaultTolerance is the largest accepted error signal, in kelvin.
	DefaultTolerance = 0.005
)

// Detector is a ring buffer of per-cycle stability samples.
type Detector struct {
	window    []bool
	index     int
	tolerance float64
}

// New returns a detector with size slots, all false.
func New(size int, tolerance float64) *Detector {
	if size <= 0 {
		size = DefaultWindowSize
	}
	return &Detector{
		window:    make([]bool, size),
		tolerance: tolerance,
	}
}

// WithinTolerance reports whether every reading has an absolute value below
// tolerance. NaN readings never pass.
func WithinTolerance(readings []float64, tolerance float64) bool {
	for _, r := range readings {
		if !(math.Abs(r) < tolerance) {
			return false
		}
	}
	return true
}

// RecordSample records one cycle of error readings and returns the sample
// written.
func (d *Detector) RecordSample(readings []float64) bool {
	ok := WithinTolerance(readings, d.tolerance)
	d.Record(ok)

	logrus.WithFields(logrus.Fields{
		"readings":  readings,
		"tolerance": d.tolerance,
		"sample":    ok,
		"window":    d.window,
	}).Debug("stabilization sample recorded")

	return ok
}

// Record writes a precomputed sample into the next slot.
func (d *Detector) Record(ok bool) {
	d.window[d.index] = ok
	d.index = (d.index + 1) % len(d.window)
}

// IsStable reports whether every slot holds a good sample.
func (d *Detector) IsStable() bool {
	for _, ok := range d.window {
		if !ok {
			return false
		}
	}
	return true
}

// SetTolerance changes the tolerance for future samples only.
func (d *Detector) SetTolerance(tolerance float64) {
	d.tolerance = tolerance
}

// Tolerance returns the current tolerance.
func (d *Detector) Tolerance() float64 {
	return d.tolerance
}

// Size returns the number of slots.
func (d *Detector) Size() int {
	return len(d.window)
}

// Window returns a copy of the slots in storage order.
func (d *Detector) Window() []bool {
	return append([]bool(nil), d.window...)
}
