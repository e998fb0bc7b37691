package vnacalapply

import (
	"testing"

	"gonum.org/v1/gonum/cmplxs"

	"github.com/scott-guthridge/vnacal/calkit"
	"github.com/scott-guthridge/vnacal/vnacalnew"
	"github.com/scott-guthridge/vnacal/vnaparam"
)

// identityTVector returns the flat error-term vector of a perfect,
// error-free instrument for a non-dual (T-form) layout: the "E_S"/"E_M"
// blocks at the identity, "E_I"/"E_L" (and any leakage block) at zero —
// the fixed point Apply's template reduces to M == S at.
func identityTVector(l *calkit.Layout) []complex128 {
	e := l.NewVector()
	ts, _ := l.Block("ts")
	tm, _ := l.Block("tm")
	for k := 0; k < ts.Len(); k++ {
		e[ts.Offset+k] = 1
	}
	for k := 0; k < tm.Len(); k++ {
		e[tm.Offset+k] = 1
	}
	return e
}

func identityUVector(l *calkit.Layout) []complex128 {
	e := l.NewVector()
	us, _ := l.Block("us")
	um, _ := l.Block("um")
	for k := 0; k < us.Len(); k++ {
		e[us.Offset+k] = 1
	}
	for k := 0; k < um.Len(); k++ {
		e[um.Offset+k] = 1
	}
	return e
}

func cmatEqual(got, want [4]complex128, tol float64) bool {
	return cmplxs.EqualApprox(got[:], want[:], tol)
}

// TestApplyTFormIdentityRecoversRawMeasurement exercises the T-form
// (non-dual) 2x2 solve of spec §4.6 step 2: with error-free (identity)
// error terms, the template M*(Tx*S+Tm) = Ts*S+Ti collapses to M == S,
// so Apply must recover the raw measurement unchanged.
func TestApplyTFormIdentityRecoversRawMeasurement(t *testing.T) {
	layout, err := calkit.NewLayout(calkit.T8, 2, 2)
	if err != nil {
		t.Fatalf("NewLayout: %v", err)
	}
	freqs := []float64{1e9, 2e9}
	e := identityTVector(layout)
	cal, err := NewCalibration(layout, freqs, [][]complex128{e, e})
	if err != nil {
		t.Fatalf("NewCalibration: %v", err)
	}

	m := [4]complex128{0.1, 0.8, 0.8, 0.1}
	s, err := Apply(cal, 1.5e9, m, false, nil)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	got := [4]complex128{s.At(0, 0), s.At(0, 1), s.At(1, 0), s.At(1, 1)}
	if !cmatEqual(got, m, 1e-9) {
		t.Errorf("recovered S = %v, want %v", got, m)
	}
}

// TestApplyUFormIdentityRecoversRawMeasurement is the dual-form
// (U8) analogue: S*(Ux*M+Um) = Us*M+Ui, which under identity error
// terms also collapses to S == M.
func TestApplyUFormIdentityRecoversRawMeasurement(t *testing.T) {
	layout, err := calkit.NewLayout(calkit.U8, 2, 2)
	if err != nil {
		t.Fatalf("NewLayout: %v", err)
	}
	freqs := []float64{1e9, 2e9}
	e := identityUVector(layout)
	cal, err := NewCalibration(layout, freqs, [][]complex128{e, e})
	if err != nil {
		t.Fatalf("NewCalibration: %v", err)
	}

	m := [4]complex128{0.2, 0.7, 0.6, 0.15}
	s, err := Apply(cal, 1.2e9, m, false, nil)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	got := [4]complex128{s.At(0, 0), s.At(0, 1), s.At(1, 0), s.At(1, 1)}
	if !cmatEqual(got, m, 1e-8) {
		t.Errorf("recovered S = %v, want %v", got, m)
	}
}

// TestApplySubtractsLeakage exercises the leakage-correction path
// (Apply's "el" handling): a TE10 layout's off-diagonal leakage,
// recorded directly into the raw measurement's off-diagonal entries,
// must be removed before the (otherwise identity) template recovers S.
func TestApplySubtractsLeakage(t *testing.T) {
	layout, err := calkit.NewLayout(calkit.TE10, 2, 2)
	if err != nil {
		t.Fatalf("NewLayout: %v", err)
	}
	e := identityTVector(layout)
	el, ok := layout.Block("el")
	if !ok {
		t.Fatal("TE10 layout has no el block")
	}
	leak := []complex128{complex(0.01, 0), complex(-0.02, 0)}
	copy(el.Slice(e), leak)

	freqs := []float64{1e9, 2e9}
	cal, err := NewCalibration(layout, freqs, [][]complex128{e, e})
	if err != nil {
		t.Fatalf("NewCalibration: %v", err)
	}

	sTrue := [4]complex128{0.1, 0.8, 0.8, 0.1}
	m := [4]complex128{sTrue[0], sTrue[1] + leak[0], sTrue[2] + leak[1], sTrue[3]}
	s, err := Apply(cal, 1.5e9, m, false, nil)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	got := [4]complex128{s.At(0, 0), s.At(0, 1), s.At(1, 0), s.At(1, 1)}
	if !cmatEqual(got, sTrue, 1e-9) {
		t.Errorf("recovered S = %v, want %v (leakage not removed)", got, sTrue)
	}
}

// TestApplyRejectsOutsideRangeUnlessExtrapolating covers spec §4.6's
// "return an error unless caller has requested extrapolation".
func TestApplyRejectsOutsideRangeUnlessExtrapolating(t *testing.T) {
	layout, err := calkit.NewLayout(calkit.T8, 2, 2)
	if err != nil {
		t.Fatalf("NewLayout: %v", err)
	}
	e := identityTVector(layout)
	freqs := []float64{1e9, 2e9}
	cal, err := NewCalibration(layout, freqs, [][]complex128{e, e})
	if err != nil {
		t.Fatalf("NewCalibration: %v", err)
	}

	m := [4]complex128{0.1, 0.8, 0.8, 0.1}
	if _, err := Apply(cal, 5e9, m, false, nil); err != ErrOutsideRange {
		t.Fatalf("Apply outside range, no extrapolation: err = %v, want ErrOutsideRange", err)
	}
	s, err := Apply(cal, 5e9, m, true, nil)
	if err != nil {
		t.Fatalf("Apply outside range, extrapolation allowed: %v", err)
	}
	got := [4]complex128{s.At(0, 0), s.At(0, 1), s.At(1, 0), s.At(1, 1)}
	if !cmatEqual(got, m, 1e-9) {
		t.Errorf("extrapolated recovered S = %v, want %v", got, m)
	}
}

// TestApplyPerColumnTypeUnsupported documents that UE14/E12 (per-column
// error-term types) are explicitly out of scope for this entry point.
func TestApplyPerColumnTypeUnsupported(t *testing.T) {
	layout, err := calkit.NewLayout(calkit.UE14, 2, 3)
	if err != nil {
		t.Fatalf("NewLayout: %v", err)
	}
	e := layout.NewVector()
	cal, err := NewCalibration(layout, []float64{1e9, 2e9}, [][]complex128{e, e})
	if err != nil {
		t.Fatalf("NewCalibration: %v", err)
	}
	m := [4]complex128{0, 1, 1, 0}
	if _, err := Apply(cal, 1e9, m, false, nil); err == nil {
		t.Fatal("Apply on a per-column type: want an error, got nil")
	}
}

// TestApplyAfterSolveRoundTrips is the end-to-end scenario of spec §8's
// testable property 4: solving an error-free T8 calibration (spec
// scenario (d)) and applying its solved error terms to a fresh raw
// measurement recovers that measurement's S-parameters directly (spec
// scenario (e), "Apply interpolation").
func TestApplyAfterSolveRoundTrips(t *testing.T) {
	reg := vnaparam.NewRegistry()
	freqs := []float64{1e9, 2e9, 3e9}
	b, err := vnacalnew.NewBuilder(calkit.T8, 2, 2, freqs, reg, nil)
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}

	through := reg.AddScalar(0)
	thruVal := [4]complex128{0, 1, 1, 0}
	m1 := make([][4]complex128, len(freqs))
	for i := range m1 {
		m1[i] = thruVal
	}
	if err := b.AddStandard([4]vnaparam.Handle{reg.Zero, through, through, reg.Zero}, vnacalnew.PortPair{P1: 1, P2: 2}, m1); err != nil {
		t.Fatalf("AddStandard through: %v", err)
	}
	s2 := reg.AddScalar(complex(0.5, 0))
	s2n := reg.AddScalar(complex(-0.5, 0))
	s2Val := [4]complex128{0.5, 0.5, 0.5, -0.5}
	m2 := make([][4]complex128, len(freqs))
	for i := range m2 {
		m2[i] = s2Val
	}
	if err := b.AddStandard([4]vnaparam.Handle{s2, s2, s2, s2n}, vnacalnew.PortPair{P1: 1, P2: 2}, m2); err != nil {
		t.Fatalf("AddStandard s2: %v", err)
	}

	res, err := b.Solve()
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}

	cal, err := NewCalibration(b.Layout, freqs, res.E)
	if err != nil {
		t.Fatalf("NewCalibration: %v", err)
	}

	dut := [4]complex128{0.2, 0.6, 0.6, -0.1}
	s, err := Apply(cal, 2e9, dut, false, nil)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	got := [4]complex128{s.At(0, 0), s.At(0, 1), s.At(1, 0), s.At(1, 1)}
	if !cmatEqual(got, dut, 1e-3) {
		t.Errorf("recovered DUT S = %v, want ~%v", got, dut)
	}
}
