package cmat

import (
	"math/cmplx"
	"testing"
)

func TestComplexSplineInterpolatesKnots(t *testing.T) {
	xs := []float64{0, 1, 2, 3, 4}
	ys := []complex128{1, 2 + 1i, 0, -1 + 2i, 3}
	s, err := NewComplexSpline(xs, ys)
	if err != nil {
		t.Fatalf("NewComplexSpline: %v", err)
	}
	for i, x := range xs {
		got := s.Predict(x)
		if cmplx.Abs(got-ys[i]) > 1e-9 {
			t.Errorf("Predict(%v) = %v, want %v", x, got, ys[i])
		}
	}
}

func TestComplexSplineRangeClamp(t *testing.T) {
	xs := []float64{0, 1, 2}
	ys := []complex128{0, 1, 0}
	s, err := NewComplexSpline(xs, ys)
	if err != nil {
		t.Fatalf("NewComplexSpline: %v", err)
	}
	if s.InRange(-1) || s.InRange(3) {
		t.Error("InRange should be false outside [0,2]")
	}
	if !s.InRange(0) || !s.InRange(2) || !s.InRange(1) {
		t.Error("InRange should be true on [0,2]")
	}
	// Clamped extrapolation should equal the boundary value.
	if got := s.Predict(-5); cmplx.Abs(got-ys[0]) > 1e-9 {
		t.Errorf("Predict(-5) = %v, want clamp to %v", got, ys[0])
	}
}
