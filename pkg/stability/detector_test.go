package stability

import (
	"math"
	"testing"
)

func TestDetectorSlidingWindow(t *testing.T) {
	d := New(5, DefaultTolerance)

	for i := 0; i < 4; i++ {
		d.Record(true)
		if d.IsStable() {
			t.Fatalf("stable after %d samples, want at least 5", i+1)
		}
	}
	d.Record(true)
	if !d.IsStable() {
		t.Fatalf("not stable after 5 good samples")
	}

	d.Record(false)
	if d.IsStable() {
		t.Fatalf("stable right after a bad sample")
	}

	for i := 0; i < 4; i++ {
		d.Record(true)
		if d.IsStable() {
			t.Fatalf("stable after %d good samples following a bad one, want 5", i+1)
		}
	}
	d.Record(true)
	if !d.IsStable() {
		t.Fatalf("not stable once the bad slot was overwritten")
	}
}

func TestDetectorStartsUnstable(t *testing.T) {
	d := New(5, DefaultTolerance)
	if d.IsStable() {
		t.Fatal("new detector must not be stable")
	}
	for _, ok := range d.Window() {
		if ok {
			t.Fatal("new window must be all false")
		}
	}
}

func TestWithinTolerance(t *testing.T) {
	tests := []struct {
		name     string
		readings []float64
		want     bool
	}{
		{name: "all inside", readings: []float64{0.001, -0.004, 0}, want: true},
		{name: "negative outside", readings: []float64{0.001, -0.006}, want: false},
		{name: "on the boundary", readings: []float64{0.005}, want: false},
		{name: "NaN", readings: []float64{math.NaN()}, want: false},
		{name: "empty", readings: nil, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WithinTolerance(tt.readings, DefaultTolerance); got != tt.want {
				t.Errorf("WithinTolerance() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSetToleranceIsNotRetroactive(t *testing.T) {
	d := New(2, 0.001)

	if d.RecordSample([]float64{0.003}) {
		t.Fatal("0.003 must be outside 0.001")
	}
	d.SetTolerance(0.01)
	if !d.RecordSample([]float64{0.003}) {
		t.Fatal("0.003 must be inside 0.01")
	}

	w := d.Window()
	if w[0] || !w[1] {
		t.Fatalf("window = %v, want [false true]", w)
	}
	if d.IsStable() {
		t.Fatal("old bad slot must still block stability")
	}
}
