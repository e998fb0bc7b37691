// Package vnacalapply is the calibration apply stage (component F):
// given a solved calibration's error terms and new raw measurements, it
// recovers the device-under-test's S-matrix at each requested
// frequency (spec §4.6).
package vnacalapply

import (
	"errors"
	"fmt"

	"github.com/scott-guthridge/vnacal/calkit"
	"github.com/scott-guthridge/vnacal/cmat"
	"github.com/scott-guthridge/vnacal/vnaerr"
)

// Calibration is the solved, immutable result apply operates against:
// a layout, the calibration frequency grid, and the per-frequency
// solved error-term vectors (e.g. vnacalnew.Result.E), one spline per
// flat-vector component fitted across the calibration grid.
type Calibration struct {
	Layout *calkit.Layout
	Freqs  []float64
	splines []*cmat.ComplexSpline // one per error-term index
}

// ErrOutsideRange is returned when a requested frequency falls outside
// the calibration grid and extrapolation was not requested (spec
// §4.6's "return an error unless caller has requested extrapolation").
var ErrOutsideRange = errors.New("vnacalapply: frequency outside calibration range")

// NewCalibration fits one natural cubic spline per error-term vector
// component across the calibration frequencies in e (e[i] is the
// solved vector at freqs[i]).
func NewCalibration(layout *calkit.Layout, freqs []float64, e [][]complex128) (*Calibration, error) {
	if len(e) != len(freqs) {
		return nil, fmt.Errorf("vnacalapply: %d error-term vectors for %d frequencies", len(e), len(freqs))
	}
	splines := make([]*cmat.ComplexSpline, layout.Total)
	for k := 0; k < layout.Total; k++ {
		ys := make([]complex128, len(freqs))
		for i := range freqs {
			ys[i] = e[i][k]
		}
		s, err := cmat.NewComplexSpline(freqs, ys)
		if err != nil {
			return nil, err
		}
		splines[k] = s
	}
	return &Calibration{Layout: layout, Freqs: freqs, splines: splines}, nil
}

// interpolate returns the error-term vector at f, spline-interpolated
// (or clamped-extrapolated) from the calibration grid. It reports
// a Math error through ec and returns ErrOutsideRange when f falls
// outside the grid and allowExtrapolate is false; the clamped value is
// still returned alongside the error, but Apply itself treats this as
// fatal per spec §4.6.
func (c *Calibration) interpolate(f float64, allowExtrapolate bool, ec *vnaerr.Context) ([]complex128, error) {
	e := make([]complex128, c.Layout.Total)
	inRange := true
	for k, s := range c.splines {
		e[k] = s.Predict(f)
		if !s.InRange(f) {
			inRange = false
		}
	}
	if !inRange && !allowExtrapolate {
		ec.Report(vnaerr.New(vnaerr.Math, "apply frequency %g Hz is outside the calibration range", f))
		return e, ErrOutsideRange
	}
	return e, nil
}

// Apply recovers the DUT's 2x2 S-matrix at frequency f from raw
// measurement m, solving the type's template — linear in S once the
// (interpolated) error terms are fixed — as a single small linear
// system (spec §4.6 step 2). allowExtrapolate opts into evaluating
// outside the calibration's frequency range.
func Apply(c *Calibration, f float64, m [4]complex128, allowExtrapolate bool, ec *vnaerr.Context) (*cmat.Dense, error) {
	e, err := c.interpolate(f, allowExtrapolate, ec)
	if err != nil {
		return nil, err
	}
	l := c.Layout

	esName, eiName, elName, emName := "ts", "ti", "tx", "tm"
	switch l.Type {
	case calkit.U8, calkit.UE10, calkit.U16:
		esName, eiName, elName, emName = "us", "ui", "ux", "um"
	case calkit.UE14, calkit.E12:
		return nil, fmt.Errorf("vnacalapply: per-column apply for %v is not implemented by this entry point", l.Type)
	}
	esBlk, ok1 := l.Block(esName)
	eiBlk, ok2 := l.Block(eiName)
	elBlk, ok3 := l.Block(elName)
	emBlk, ok4 := l.Block(emName)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return nil, fmt.Errorf("vnacalapply: layout missing coefficient blocks for %v", l.Type)
	}

	mMat := cmat.NewDense(2, 2, m[:])
	if leak, ok := l.Block("el"); ok {
		corrected := append([]complex128(nil), m[:]...)
		off := leak.Slice(e)
		k := 0
		for i := 0; i < l.Rows; i++ {
			for j := 0; j < l.Columns; j++ {
				if i == j {
					continue
				}
				corrected[i*l.Columns+j] -= off[k]
				k++
			}
		}
		mMat = cmat.NewDense(2, 2, corrected)
	}

	ts := blockMatrix(esBlk, e, 2)
	ti := blockMatrix(eiBlk, e, 2)
	tx := blockMatrix(elBlk, e, 2)
	tm := blockMatrix(emBlk, e, 2)

	// T-form template M·(Tx·S+Tm) = Ts·S+Ti, solved for S:
	// (M·Tx - Ts)·S = Ti - M·Tm.
	mtx := cmat.NewDense(2, 2, nil)
	cmat.Mul(mtx, mMat, tx)
	lhs := cmat.NewDense(2, 2, nil)
	cmat.Sub(lhs, mtx, ts)

	mtm := cmat.NewDense(2, 2, nil)
	cmat.Mul(mtm, mMat, tm)
	rhs := cmat.NewDense(2, 2, nil)
	cmat.Sub(rhs, ti, mtm)

	if isDual(l.Type) {
		// U-form template S·(Ux·M+Um) = Us·M+Ui, solved for S:
		// S·(Ux·M+Um) = Us·M+Ui  =>  S = (Us·M+Ui)·(Ux·M+Um)^-1.
		uxm := cmat.NewDense(2, 2, nil)
		cmat.Mul(uxm, tx, mMat)
		inner := cmat.NewDense(2, 2, nil)
		cmat.Add(inner, uxm, tm)
		usm := cmat.NewDense(2, 2, nil)
		cmat.Mul(usm, ts, mMat)
		numer := cmat.NewDense(2, 2, nil)
		cmat.Add(numer, usm, ti)
		innerInv, err := cmat.Inverse(inner)
		if err != nil {
			return nil, err
		}
		s := cmat.NewDense(2, 2, nil)
		cmat.Mul(s, numer, innerInv)
		return s, nil
	}

	return cmat.Solve(lhs, rhs)
}

func isDual(t calkit.ErrorTermType) bool {
	switch t {
	case calkit.U8, calkit.UE10, calkit.U16:
		return true
	default:
		return false
	}
}

func blockMatrix(b calkit.Block, e []complex128, n int) *cmat.Dense {
	if b.Cols == 1 {
		return cmat.Diag(b.Slice(e))
	}
	return cmat.NewDense(n, n, b.Slice(e))
}
