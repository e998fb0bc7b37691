package cmat

import "gonum.org/v1/gonum/interp"

// ComplexSpline is a natural cubic spline over (x, complex128) pairs,
// built by fitting gonum's interp.NaturalCubic independently to the real
// and imaginary parts, per spec §3's "real/imag interpolated
// separately" and §4.2's "natural cubic spline construction and
// evaluation".
type ComplexSpline struct {
	xs       []float64
	re, im   interp.NaturalCubic
	min, max float64
}

// NewComplexSpline fits a natural cubic spline to the points (xs[i],
// ys[i]). xs must be strictly increasing and len(xs) == len(ys) >= 2;
// unlike interp.NaturalCubic.Fit (which panics on a bad precondition),
// NewComplexSpline is reachable from caller-supplied data by way of
// Registry.AddVector and NewCalibration, so a length mismatch is
// reported as an *ErrShapeErr rather than propagated by panic, per
// spec §7's "failure is never propagated by abort except on internal".
func NewComplexSpline(xs []float64, ys []complex128) (*ComplexSpline, error) {
	n := len(xs)
	if n != len(ys) {
		return nil, &ErrShapeErr{Detail: "spline: len(xs) != len(ys)"}
	}
	if n < 2 {
		return nil, &ErrShapeErr{Detail: "spline: need at least 2 points"}
	}
	re := make([]float64, n)
	im := make([]float64, n)
	for i, y := range ys {
		re[i], im[i] = real(y), imag(y)
	}
	s := &ComplexSpline{xs: append([]float64(nil), xs...), min: xs[0], max: xs[n-1]}
	if err := s.re.Fit(xs, re); err != nil {
		return nil, err
	}
	if err := s.im.Fit(xs, im); err != nil {
		return nil, err
	}
	return s, nil
}

// InRange reports whether x falls within the fitted x range. Evaluating
// outside this range is defined to clamp to the boundary value (spec
// §4.4); callers that must reject extrapolation check InRange first and
// surface a Math-category error, per spec §7.
func (s *ComplexSpline) InRange(x float64) bool {
	return x >= s.min && x <= s.max
}

// Predict returns the interpolated (or, outside [min,max], clamped)
// value at x.
func (s *ComplexSpline) Predict(x float64) complex128 {
	return complex(s.re.Predict(x), s.im.Predict(x))
}
