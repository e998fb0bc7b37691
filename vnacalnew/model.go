package vnacalnew

import (
	"github.com/scott-guthridge/vnacal/calkit"
	"github.com/scott-guthridge/vnacal/cmat"
)

// isDualForm reports whether t is one of the "U" dual types, which
// relate the standard's actual S-matrix and the raw measurement in the
// opposite order from the "T" forms (spec §4.3: "U is its dual").
func isDualForm(t calkit.ErrorTermType) bool {
	switch t {
	case calkit.U8, calkit.UE10, calkit.U16, calkit.UE14:
		return true
	default:
		return false
	}
}

// coefNames returns the four named blocks, in (E_S, E_I, E_L, E_M)
// order, that hold a type's bilinear-template coefficients, following
// spec §4.3's block naming. suffix is appended for the per-column forms
// (UE14, E12); it is empty for the fixed 2x2 types.
func coefNames(t calkit.ErrorTermType, suffix string) (es, ei, el, em string) {
	switch t {
	case calkit.T8, calkit.TE10, calkit.T16:
		return "ts", "ti", "tx", "tm"
	case calkit.U8, calkit.UE10, calkit.U16:
		return "us", "ui", "ux", "um"
	case calkit.UE14:
		// Reuse the per-column 7-term set's first four names; the
		// remaining three (et, eu, ev per calkit.NewLayout) are spare
		// terms this simplified per-column model leaves unused.
		return "er" + suffix, "ei" + suffix, "ex" + suffix, "es" + suffix
	case calkit.E12:
		return "er" + suffix, "em" + suffix, "er" + suffix, "el" + suffix
	default:
		return "", "", "", ""
	}
}

// blockAsMatrix reads block b out of the flat error-term vector e as an
// n x n matrix. A block with Cols==1 (a per-port vector, the T8/TE10
// reduced model) is embedded as a diagonal matrix; a block with Cols==n
// (the T16 full model) is used directly.
func blockAsMatrix(b calkit.Block, e []complex128, n int) *cmat.Dense {
	if b.Cols == 1 {
		return cmat.Diag(b.Slice(e))
	}
	return cmat.NewDense(n, n, b.Slice(e))
}

// residual computes, for one standard's 2x2 connection, the flattened
// (row-major) residual of spec §4.5's generic template
//
//	M·(E_L·S + E_M) = E_S·S + E_I
//
// a, b are (M, S) in that order for a "T" type, or (S, M) for a "U"
// dual type — isDualForm's caller is responsible for the swap, so this
// function always computes a·(tx·b+tm) - ts·b - ti.
func residual(a, b, ts, ti, tx, tm *cmat.Dense) []complex128 {
	n, _ := a.Dims()
	txb := cmat.NewDense(n, n, nil)
	cmat.Mul(txb, tx, b)
	inner := cmat.NewDense(n, n, nil)
	cmat.Add(inner, txb, tm)
	lhs := cmat.NewDense(n, n, nil)
	cmat.Mul(lhs, a, inner)

	tsb := cmat.NewDense(n, n, nil)
	cmat.Mul(tsb, ts, b)
	rhs := cmat.NewDense(n, n, nil)
	cmat.Add(rhs, tsb, ti)

	diff := cmat.NewDense(n, n, nil)
	cmat.Sub(diff, lhs, rhs)

	out := make([]complex128, 0, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			out = append(out, diff.At(i, j))
		}
	}
	return out
}
