package cmat

import (
	"math"
	"math/cmplx"
)

// QR holds the QR factorization of an M×N complex matrix (M>=N) via
// Householder reflectors, following the construction gonum's own
// mat.QR and zla.QRFact use: the packed form stores R in the upper
// triangle of the working copy and the Householder vectors below the
// diagonal, with tau holding each reflector's scale factor.
type QR struct {
	qr  *Dense
	tau []complex128
	m, n int
}

// Factorize computes the Householder QR factorization of the M×N
// matrix a, M>=N. It panics if M<N: per spec §4.2 the QR kernel is only
// defined for M>=N (exactly the shape the solve engine's H matrix has:
// at least as many equation rows as error terms).
func (f *QR) Factorize(a *Dense) {
	m, n := a.Dims()
	if m < n {
		panic(ErrShape)
	}
	qr := a.Clone()
	tau := make([]complex128, n)
	for k := 0; k < n; k++ {
		tau[k] = householder(qr, k)
	}
	f.qr, f.tau, f.m, f.n = qr, tau, m, n
}

// householder reduces column k of qr below the diagonal to zero via a
// Householder reflection applied to the trailing submatrix, returning
// the reflector's tau. Follows the standard complex Householder QR
// construction (e.g. Golub & Van Loan §5.1.4, as realized in LAPACK's
// zgeqrf and mirrored by zla.QR/Zgeqrf).
func householder(qr *Dense, k int) complex128 {
	m := qr.mat.Rows
	// alpha = qr[k][k]; x = qr[k:m][k].
	var normx float64
	for i := k; i < m; i++ {
		normx += realSq(qr.At(i, k))
	}
	normx = math.Sqrt(normx)
	if normx == 0 {
		return 0
	}
	alpha := qr.At(k, k)
	var beta complex128
	if cmplx.Abs(alpha) == 0 {
		beta = complex(-normx, 0)
	} else {
		beta = -complex(normx, 0) * (alpha / complex(cmplx.Abs(alpha), 0))
	}
	tau := (beta - alpha) / beta
	scale := 1 / (alpha - beta)
	// v[k] = 1 (implicit); v[k+1:m] = (x[k+1:m]) * scale; store in qr below diag.
	for i := k + 1; i < m; i++ {
		qr.Set(i, k, qr.At(i, k)*scale)
	}
	qr.Set(k, k, beta)

	// Apply reflector to trailing columns k+1..n-1: col -= tau*v*(v^H . col).
	n := qr.mat.Cols
	for j := k + 1; j < n; j++ {
		var dot complex128
		dot = qr.At(k, j) // v[k] = 1
		for i := k + 1; i < m; i++ {
			dot += cmplx.Conj(qr.At(i, k)) * qr.At(i, j)
		}
		dot *= tau
		qr.Set(k, j, qr.At(k, j)-dot)
		for i := k + 1; i < m; i++ {
			qr.Set(i, j, qr.At(i, j)-dot*qr.At(i, k))
		}
	}
	return tau
}

func realSq(z complex128) float64 {
	a, b := real(z), imag(z)
	return a*a + b*b
}

// RTo extracts the N×N upper triangular factor R into dst.
func (f *QR) RTo(dst *Dense) {
	n := f.n
	if dst.mat.Rows != n || dst.mat.Cols != n {
		*dst = *NewDense(n, n, nil)
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if j < i {
				dst.Set(i, j, 0)
			} else {
				dst.Set(i, j, f.qr.At(i, j))
			}
		}
	}
}

// applyQHTo applies Q^H to the M×p matrix b in place (b := Q^H * b),
// using the packed reflectors, matching zla.QRFact.Solve's use of
// Zunmqr(Left, ConjTrans, ...).
func (f *QR) applyQHTo(b *Dense) {
	m, p := b.Dims()
	if m != f.m {
		panic(ErrShape)
	}
	for k := 0; k < f.n; k++ {
		tau := f.tau[k]
		if tau == 0 {
			continue
		}
		for j := 0; j < p; j++ {
			var dot complex128
			dot = b.At(k, j)
			for i := k + 1; i < f.m; i++ {
				dot += cmplx.Conj(f.qr.At(i, k)) * b.At(i, j)
			}
			dot *= tau
			b.Set(k, j, b.At(k, j)-dot)
			for i := k + 1; i < f.m; i++ {
				b.Set(i, j, b.At(i, j)-dot*f.qr.At(i, k))
			}
		}
	}
}

// SolveTo solves the M×N (M>=N) least-squares problem min ‖A*X-B‖ for X,
// writing the N×p result into dst. When M==N and A is non-singular this
// recovers the exact solution; when M>N it is the least-squares
// minimizer, per spec §4.2. Returns ErrSingular if R's diagonal has a
// (near-)zero entry, i.e. rank(A) < N.
func (f *QR) SolveTo(dst, b *Dense) error {
	br, bc := b.Dims()
	if br != f.m {
		panic(ErrShape)
	}
	work := b.Clone()
	f.applyQHTo(work)

	var r Dense
	f.RTo(&r)
	tol := InfNorm(&r) * 1e-12
	for i := 0; i < f.n; i++ {
		if cmplx.Abs(r.At(i, i)) <= tol {
			return ErrSingular
		}
	}

	if dst.mat.Rows != f.n || dst.mat.Cols != bc {
		*dst = *NewDense(f.n, bc, nil)
	}
	// Back-substitute R*x = (Q^H*b)[0:n] for each column.
	for j := 0; j < bc; j++ {
		for i := f.n - 1; i >= 0; i-- {
			sum := work.At(i, j)
			for k := i + 1; k < f.n; k++ {
				sum -= r.At(i, k) * dst.At(k, j)
			}
			dst.Set(i, j, sum/r.At(i, i))
		}
	}
	return nil
}

// Rank reports the QR factorization's detected numerical rank (the
// number of R diagonal entries exceeding tol relative to the diagonal's
// largest magnitude), and the indices of the deficient columns when
// rank < N, per spec §4.5 step 2's "underdetermined ... report the
// deficient column set".
func (f *QR) Rank(tol float64) (rank int, deficient []int) {
	var r Dense
	f.RTo(&r)
	var maxDiag float64
	for i := 0; i < f.n; i++ {
		if v := cmplx.Abs(r.At(i, i)); v > maxDiag {
			maxDiag = v
		}
	}
	if tol <= 0 {
		tol = 1e-12
	}
	thresh := maxDiag * tol
	for i := 0; i < f.n; i++ {
		if cmplx.Abs(r.At(i, i)) > thresh {
			rank++
		} else {
			deficient = append(deficient, i)
		}
	}
	return rank, deficient
}

// LeastSquares solves min ‖A*X-B‖ for X via Householder QR. A is M×N
// with M>=N; it is not modified.
func LeastSquares(a, b *Dense) (*Dense, error) {
	var f QR
	f.Factorize(a)
	dst := NewDense(f.n, b.mat.Cols, nil)
	if err := f.SolveTo(dst, b); err != nil {
		return nil, err
	}
	return dst, nil
}
