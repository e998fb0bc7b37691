package vnacalnew

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/sirupsen/logrus"

	"github.com/scott-guthridge/vnacal/calkit"
	"github.com/scott-guthridge/vnacal/cmat"
	"github.com/scott-guthridge/vnacal/vnaerr"
	"github.com/scott-guthridge/vnacal/vnaparam"
)

// Result is the output of Solve: the populated per-frequency error-term
// vectors and diagnostics of spec §4.5.
type Result struct {
	// E holds, per calibration frequency, the solved flat error-term
	// vector (length Layout.Total).
	E [][]complex128
	// RMS is the per-frequency RMS residual of the solved system.
	RMS []float64
	// UnknownValues records, per solved Unknown/Correlated handle, the
	// value recovered at each frequency. The registry's single
	// frequency-independent slot (spec §4.4) is set from index 0; the
	// full per-frequency trace is exposed here for diagnostics, since
	// spec.md does not resolve whether an Unknown parameter solved via
	// a per-frequency bilinear system may vary across frequencies (see
	// design notes).
	UnknownValues map[vnaparam.Handle][]complex128
}

const (
	maxIterations  = 100
	convergenceTol = 1e-9
	fdStep         = 1e-6
)

// Solve runs the per-frequency calibration solve of spec §4.5 over
// every frequency in b.Freqs, writing recovered unknown-parameter
// values back to the registry and returning the solved error terms. On
// success it then drops the Builder's references to the standards'
// parameter handles (see Release).
func (b *Builder) Solve() (*Result, error) {
	unknowns := b.collectUnknowns()
	res := &Result{
		E:             make([][]complex128, len(b.Freqs)),
		RMS:           make([]float64, len(b.Freqs)),
		UnknownValues: make(map[vnaparam.Handle][]complex128, len(unknowns)),
	}
	for _, h := range unknowns {
		res.UnknownValues[h] = make([]complex128, len(b.Freqs))
	}

	guess := make(map[vnaparam.Handle]complex128, len(unknowns))
	for _, h := range unknowns {
		v, err := b.registry.Value(h, b.Freqs[0], true, nil)
		if err != nil {
			return nil, err
		}
		guess[h] = v
	}

	freeIdx, pinnedIdx, err := b.freeIndices()
	if err != nil {
		return nil, err
	}

	for fi, freq := range b.Freqs {
		e, uvals, rms, err := b.solveOneFrequency(fi, freq, unknowns, guess, freeIdx, pinnedIdx)
		if err != nil {
			if b.ec != nil {
				b.ec.Report(vnaerr.AtFreq(vnaerr.Math, fi, "calibration solve failed: %v", err))
			}
			if b.Logger != nil {
				b.Logger.WithField("freq", freq).WithError(err).Warn("calibration solve failed")
			}
			return nil, err
		}
		res.E[fi] = e
		res.RMS[fi] = rms
		if b.Logger != nil {
			b.Logger.WithFields(logrus.Fields{"freq": freq, "rms": rms}).Debug("frequency solved")
		}
		for i, h := range unknowns {
			res.UnknownValues[h][fi] = uvals[i]
			guess[h] = uvals[i] // warm-start the next frequency
		}
	}

	for _, h := range unknowns {
		if err := b.registry.SetSolved(h, res.UnknownValues[h][0], b.ec); err != nil {
			return nil, err
		}
	}
	b.Release()
	return res, nil
}

// collectUnknowns returns the distinct Unknown/Correlated handles
// referenced by any added standard's S-matrix, in first-use order.
func (b *Builder) collectUnknowns() []vnaparam.Handle {
	seen := make(map[vnaparam.Handle]bool)
	var out []vnaparam.Handle
	for _, st := range b.standards {
		for _, h := range st.S {
			if h == 0 || seen[h] {
				continue
			}
			solvable, err := b.registry.IsSolvable(h)
			if err == nil && solvable {
				seen[h] = true
				out = append(out, h)
			}
		}
	}
	return out
}

// freeIndices partitions the layout's blocks into the indices the
// solver is free to adjust and the single index pinned to 1 to resolve
// the bilinear system's overall scale ambiguity (spec §4.5 requires a
// normalization but leaves the exact convention implementation-defined;
// this pins the first entry of the E_S coefficient block, named ts, us,
// or er0 depending on type). The shared "el" leakage block is excluded
// from the free set.
func (b *Builder) freeIndices() (free []int, pinned int, err error) {
	l := b.Layout
	leakageNames := map[string]bool{}
	for _, blk := range l.Blocks() {
		if blk.Name == "el" {
			leakageNames[blk.Name] = true
		}
	}
	// Pin the first entry of the "E_S" coefficient block (ts/us, or the
	// per-column equivalent) to 1: it is the block initIdentityGuess
	// sets to the identity for an error-free instrument, so fixing it
	// resolves the bilinear system's scale ambiguity without moving
	// the error-free fixed point away from its natural value.
	pinned = -1
	pinName := map[calkit.ErrorTermType]string{
		calkit.T8: "ts", calkit.TE10: "ts", calkit.T16: "ts",
		calkit.U8: "us", calkit.UE10: "us", calkit.U16: "us",
	}[l.Type]
	if pinName == "" {
		pinName = "er0"
	}
	if blk, ok := l.Block(pinName); ok {
		pinned = blk.Offset
	}
	for _, blk := range l.Blocks() {
		if leakageNames[blk.Name] {
			continue
		}
		for k := 0; k < blk.Len(); k++ {
			idx := blk.Offset + k
			if idx == pinned {
				continue
			}
			free = append(free, idx)
		}
	}
	if pinned < 0 {
		return nil, 0, fmt.Errorf("vnacalnew: could not locate a normalization term for %v", l.Type)
	}
	return free, pinned, nil
}

// solveOneFrequency runs the damped Gauss-Newton loop (with the linear,
// all-known-standards case simply converging in its first iteration,
// per design notes unifying the spec's two solve paths) and returns the
// populated e vector, solved unknown values (parallel to unknowns), and
// RMS residual.
func (b *Builder) solveOneFrequency(fi int, freq float64, unknowns []vnaparam.Handle, guess map[vnaparam.Handle]complex128, freeIdx []int, pinnedIdx int) ([]complex128, []complex128, float64, error) {
	l := b.Layout
	e := l.NewVector()
	e[pinnedIdx] = 1
	initIdentityGuess(l, e)
	e[pinnedIdx] = 1

	if err := b.fillLeakage(e, fi); err != nil {
		return nil, nil, 0, err
	}

	nFree := len(freeIdx)
	n := nFree + len(unknowns)
	x := make([]complex128, n)
	for i, idx := range freeIdx {
		x[i] = e[idx]
	}
	for i, h := range unknowns {
		x[nFree+i] = guess[h]
	}

	known, err := b.resolveKnown(fi, freq)
	if err != nil {
		return nil, nil, 0, err
	}

	evalResidual := func(x []complex128) ([]complex128, error) {
		ework := append([]complex128(nil), e...)
		for i, idx := range freeIdx {
			ework[idx] = x[i]
		}
		ework[pinnedIdx] = 1
		uvals := make(map[vnaparam.Handle]complex128, len(unknowns))
		for i, h := range unknowns {
			uvals[h] = x[nFree+i]
		}
		return b.allResiduals(ework, fi, known, uvals)
	}

	xSol, rmsResidual, err := levenbergMarquardt(x, evalResidual)
	if err != nil {
		return nil, nil, 0, err
	}

	for i, idx := range freeIdx {
		e[idx] = xSol[i]
	}
	e[pinnedIdx] = 1
	uvals := make([]complex128, len(unknowns))
	for i := range unknowns {
		uvals[i] = xSol[nFree+i]
	}
	return e, uvals, rmsResidual, nil
}

// initIdentityGuess seeds e with the error-term vector of a perfect,
// error-free instrument (M == S): the "E_S"/"E_M" coefficient blocks
// (ts/us, or the per-column equivalent) start at the identity matrix,
// "E_I"/"E_L" (ti/tx and duals) at zero — the unique fixed point of
// spec §4.5's template M·(Tx·S+Tm) = Ts·S+Ti when M=S for every S.
func initIdentityGuess(l *calkit.Layout, e []complex128) {
	columns := 1
	perColumn := l.Type == calkit.UE14 || l.Type == calkit.E12
	if perColumn {
		columns = l.Columns
	}
	for c := 0; c < columns; c++ {
		suffix := ""
		if perColumn {
			suffix = fmt.Sprintf("%d", c)
		}
		esName, _, _, emName := coefNames(l.Type, suffix)
		for _, name := range []string{esName, emName} {
			blk, ok := l.Block(name)
			if !ok {
				continue
			}
			if blk.Cols == 1 {
				for k := 0; k < blk.Len(); k++ {
					e[blk.Offset+k] = 1
				}
			} else {
				for k := 0; k < blk.Rows && k < blk.Cols; k++ {
					e[blk.Offset+k*blk.Cols+k] = 1
				}
			}
		}
	}
}

// knownConnection is one standard's per-frequency numeric data after
// resolving every non-unknown parameter handle.
type knownConnection struct {
	st        *Standard
	ports     PortPair
	m         *cmat.Dense
	sKnown    [4]complex128 // resolved value, valid only where !isUnknown
	isUnknown [4]bool
	excluded  bool // dropped at this frequency per spec §3's tie-breaks
}

const lineExclusionDegrees = 10.0
const singularTol = 1e-12

// resolveKnown resolves every standard's known parameter handles at one
// frequency and applies spec §3's per-frequency tie-breaks: a singular
// measurement matrix excludes that standard's connection outright, and
// a Line standard whose known transmission phase falls within
// lineExclusionDegrees of 0 deg or 180 deg is excluded as
// near-degenerate. Both report a Warning through b.ec rather than
// failing the whole solve, since the remaining standards are expected
// to still determine the system at that frequency.
func (b *Builder) resolveKnown(fi int, freq float64) ([]knownConnection, error) {
	out := make([]knownConnection, 0, len(b.standards))
	for _, st := range b.standards {
		var kc knownConnection
		kc.st = st
		kc.ports = st.Ports
		kc.m = cmat.NewDense(2, 2, st.M[fi][:])
		for i, h := range st.S {
			if h == 0 {
				continue
			}
			solvable, err := b.registry.IsSolvable(h)
			if err != nil {
				return nil, err
			}
			if solvable {
				kc.isUnknown[i] = true
				continue
			}
			v, err := b.registry.Value(h, freq, false, b.ec)
			if err != nil {
				return nil, err
			}
			kc.sKnown[i] = v
		}

		if det := kc.m.At(0, 0)*kc.m.At(1, 1) - kc.m.At(0, 1)*kc.m.At(1, 0); cmplx.Abs(det) < singularTol {
			kc.excluded = true
			b.ec.Report(vnaerr.AtFreq(vnaerr.Warning, fi, "standard at ports (%d,%d) excluded: singular measurement matrix", st.Ports.P1, st.Ports.P2))
			if b.Logger != nil {
				b.Logger.WithFields(logrus.Fields{"freq": freq, "ports": st.Ports}).Warn("standard excluded: singular measurement matrix")
			}
		} else if st.Kind == Line && !kc.isUnknown[1] {
			deg := cmplx.Phase(kc.sKnown[1]) * 180 / math.Pi
			nearest := math.Round(deg/180) * 180
			if math.Abs(deg-nearest) < lineExclusionDegrees {
				kc.excluded = true
				b.ec.Report(vnaerr.AtFreq(vnaerr.Warning, fi, "line standard at ports (%d,%d) excluded: phase %.1f deg too close to a multiple of 180", st.Ports.P1, st.Ports.P2, deg))
				if b.Logger != nil {
					b.Logger.WithFields(logrus.Fields{"freq": freq, "ports": st.Ports, "phase_deg": deg}).Warn("line standard excluded: near-degenerate phase")
				}
			}
		}
		out = append(out, kc)
	}
	return out, nil
}

func (b *Builder) fillLeakage(e []complex128, fi int) error {
	blk, ok := b.Layout.Block("el")
	if !ok {
		return nil
	}
	offDiag := make([]complex128, blk.Len())
	k := 0
	for i := 0; i < b.Layout.Rows; i++ {
		for j := 0; j < b.Layout.Columns; j++ {
			if i == j {
				continue
			}
			for _, lk := range b.leakages {
				if lk.Row == i && lk.Col == j {
					offDiag[k] = lk.Value[fi]
				}
			}
			k++
		}
	}
	copy(blk.Slice(e), offDiag)
	return nil
}

// leakageIndex returns the position within the shared "el" block that
// holds the off-diagonal (i,j) leakage term, matching fillLeakage's
// iteration order (rows outer, columns inner, skipping the diagonal).
// It returns -1 for a diagonal (i,j) or one the layout has no leakage
// term for.
func leakageIndex(l *calkit.Layout, i, j int) int {
	if i == j {
		return -1
	}
	k := 0
	for r := 0; r < l.Rows; r++ {
		for c := 0; c < l.Columns; c++ {
			if r == c {
				continue
			}
			if r == i && c == j {
				return k
			}
			k++
		}
	}
	return -1
}

// correctLeakage subtracts the standard's directivity/isolation leakage
// (measured with the DUT disconnected, populated into e's "el" block by
// fillLeakage) from kc's raw measurement, mapping the connection's local
// 2x2 frame onto the layout's shared (Rows x Columns) receiver/port
// grid via kc.ports. Leakage is assigned directly rather than solved
// jointly in the bilinear system (see fillLeakage), so it must be
// removed from the measurement before the residual sees it.
func (b *Builder) correctLeakage(e []complex128, kc knownConnection) *cmat.Dense {
	blk, ok := b.Layout.Block("el")
	if !ok {
		return kc.m
	}
	vals := blk.Slice(e)
	cols := [2]int{kc.ports.P1 - 1, kc.ports.P2 - 1}
	out := cmat.NewDense(2, 2, nil)
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			v := kc.m.At(i, j)
			if k := leakageIndex(b.Layout, i, cols[j]); k >= 0 {
				v -= vals[k]
			}
			out.Set(i, j, v)
		}
	}
	return out
}

// allResiduals builds the stacked residual vector across every added
// standard at frequency index fi, given the current trial error-term
// vector e and current unknown-parameter values.
func (b *Builder) allResiduals(e []complex128, fi int, known []knownConnection, uvals map[vnaparam.Handle]complex128) ([]complex128, error) {
	var out []complex128
	dual := isDualForm(b.Layout.Type)
	for _, kc := range known {
		if kc.excluded {
			continue
		}
		m := b.correctLeakage(e, kc)
		sa := cmat.NewDense(2, 2, nil)
		for i, h := range kc.st.S {
			var v complex128
			if kc.isUnknown[i] {
				v = uvals[h]
			} else {
				v = kc.sKnown[i]
			}
			sa.Set(i/2, i%2, v)
		}

		suffix := ""
		if b.Layout.Type == calkit.UE14 || b.Layout.Type == calkit.E12 {
			suffix = fmt.Sprintf("%d", kc.ports.P2-1)
		}
		esName, eiName, elName, emName := coefNames(b.Layout.Type, suffix)
		esBlk, ok1 := b.Layout.Block(esName)
		eiBlk, ok2 := b.Layout.Block(eiName)
		elBlk, ok3 := b.Layout.Block(elName)
		emBlk, ok4 := b.Layout.Block(emName)
		if !ok1 || !ok2 || !ok3 || !ok4 {
			return nil, fmt.Errorf("vnacalnew: layout missing coefficient blocks for %v", b.Layout.Type)
		}
		ts := blockAsMatrix(esBlk, e, 2)
		ti := blockAsMatrix(eiBlk, e, 2)
		tx := blockAsMatrix(elBlk, e, 2)
		tm := blockAsMatrix(emBlk, e, 2)

		var r []complex128
		if dual {
			r = residual(sa, m, ts, ti, tx, tm)
		} else {
			r = residual(m, sa, ts, ti, tx, tm)
		}
		out = append(out, r...)
	}
	return out, nil
}

// levenbergMarquardt minimizes ||F(x)|| starting from x0, using complex
// finite-difference Jacobians (valid since F is holomorphic in x — it
// is built purely from +, -, * of the unknowns with no conjugation) and
// Levenberg-Marquardt damping with the factor-10/2 schedule spec §9's
// open question leaves implementation-defined.
func levenbergMarquardt(x0 []complex128, f func([]complex128) ([]complex128, error)) ([]complex128, float64, error) {
	x := append([]complex128(nil), x0...)
	r, err := f(x)
	if err != nil {
		return nil, 0, err
	}
	lambda := 1e-3
	normOf := func(v []complex128) float64 {
		var s float64
		for _, c := range v {
			s += real(c)*real(c) + imag(c)*imag(c)
		}
		return s
	}

	for iter := 0; iter < maxIterations; iter++ {
		n := len(x)
		m := len(r)
		j := cmat.NewDense(m, n, nil)
		for col := 0; col < n; col++ {
			xp := append([]complex128(nil), x...)
			xm := append([]complex128(nil), x...)
			xp[col] += fdStep
			xm[col] -= fdStep
			fp, err := f(xp)
			if err != nil {
				return nil, 0, err
			}
			fm, err := f(xm)
			if err != nil {
				return nil, 0, err
			}
			for row := 0; row < m; row++ {
				j.Set(row, col, (fp[row]-fm[row])/complex(2*fdStep, 0))
			}
		}

		accepted := false
		for tries := 0; tries < 20; tries++ {
			aug := cmat.NewDense(m+n, n, nil)
			for row := 0; row < m; row++ {
				for col := 0; col < n; col++ {
					aug.Set(row, col, j.At(row, col))
				}
			}
			lsq := complex(math.Sqrt(lambda), 0)
			for col := 0; col < n; col++ {
				aug.Set(m+col, col, lsq)
			}
			rhs := cmat.NewDense(m+n, 1, nil)
			for row := 0; row < m; row++ {
				rhs.Set(row, 0, -r[row])
			}

			delta, err := cmat.LeastSquares(aug, rhs)
			if err != nil {
				lambda *= 10
				continue
			}
			xTry := make([]complex128, n)
			for i := range x {
				xTry[i] = x[i] + delta.At(i, 0)
			}
			rTry, err := f(xTry)
			if err != nil {
				lambda *= 10
				continue
			}
			if normOf(rTry) <= normOf(r) {
				var deltaNorm, xNorm float64
				for i := range x {
					deltaNorm += cmplx.Abs(xTry[i] - x[i]) * cmplx.Abs(xTry[i]-x[i])
					xNorm += cmplx.Abs(xTry[i]) * cmplx.Abs(xTry[i])
				}
				x = xTry
				r = rTry
				lambda /= 2
				accepted = true
				if xNorm == 0 || math.Sqrt(deltaNorm/math.Max(xNorm, 1)) < convergenceTol {
					return x, rmsOf(r), nil
				}
				break
			}
			lambda *= 10
		}
		if !accepted {
			return nil, 0, fmt.Errorf("vnacalnew: Gauss-Newton did not converge after %d iterations", iter+1)
		}
	}
	return x, rmsOf(r), nil
}

func rmsOf(r []complex128) float64 {
	if len(r) == 0 {
		return 0
	}
	var s float64
	for _, c := range r {
		s += real(c)*real(c) + imag(c)*imag(c)
	}
	return math.Sqrt(s / float64(len(r)))
}
