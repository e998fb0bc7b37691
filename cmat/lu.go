package cmat

import "math/cmplx"

// LU holds the LU factorization, with partial pivoting, of a square
// complex matrix: P*A = L*U, L unit lower triangular, U upper
// triangular. The pivot threshold at each step selects the
// largest-magnitude entry in the remaining column, matching spec §4.2.
type LU struct {
	lu       *Dense
	pivots   []int
	n        int
	swaps    int
	singular bool
}

// Factorize computes the LU decomposition of the n×n matrix a. a is not
// modified; the factorization is held internally. If the matrix is
// singular to machine precision (a zero pivot is encountered), Singular
// reports true and Det returns 0, per spec §4.2's "singular matrices are
// reported by returning det = 0 ... from LU".
func (f *LU) Factorize(a *Dense) {
	r, c := a.Dims()
	if r != c {
		panic(ErrShape)
	}
	n := r
	lu := a.Clone()
	pivots := make([]int, n)
	for i := range pivots {
		pivots[i] = i
	}
	swaps := 0
	singular := false
	for k := 0; k < n; k++ {
		// Partial pivot: largest |a[i][k]| for i in [k, n).
		p := k
		best := cmplx.Abs(lu.At(k, k))
		for i := k + 1; i < n; i++ {
			if v := cmplx.Abs(lu.At(i, k)); v > best {
				best, p = v, i
			}
		}
		if best == 0 {
			singular = true
			continue
		}
		if p != k {
			swapRows(lu, p, k)
			pivots[k], pivots[p] = pivots[p], pivots[k]
			swaps++
		}
		pivot := lu.At(k, k)
		for i := k + 1; i < n; i++ {
			m := lu.At(i, k) / pivot
			lu.Set(i, k, m)
			for j := k + 1; j < n; j++ {
				lu.Set(i, j, lu.At(i, j)-m*lu.At(k, j))
			}
		}
	}
	f.lu = lu
	f.pivots = pivots
	f.n = n
	f.swaps = swaps
	f.singular = singular
}

func swapRows(a *Dense, i, j int) {
	n := a.mat.Cols
	ri := a.mat.Data[i*a.mat.Stride : i*a.mat.Stride+n]
	rj := a.mat.Data[j*a.mat.Stride : j*a.mat.Stride+n]
	for k := 0; k < n; k++ {
		ri[k], rj[k] = rj[k], ri[k]
	}
}

// Singular reports whether the factorized matrix was found singular.
func (f *LU) Singular() bool { return f.singular }

// Det returns the determinant of the factorized matrix: the product of
// U's diagonal, sign-adjusted for the accumulated row swaps. Returns 0
// for a singular matrix.
func (f *LU) Det() complex128 {
	if f.singular {
		return 0
	}
	det := complex(1, 0)
	if f.swaps%2 == 1 {
		det = -1
	}
	for i := 0; i < f.n; i++ {
		det *= f.lu.At(i, i)
	}
	return det
}

// solveVector solves L*U*x = P*b for a single right-hand-side column b
// (length n), returning x.
func (f *LU) solveVector(b []complex128) []complex128 {
	n := f.n
	// Apply P: y = P*b.
	y := make([]complex128, n)
	for i, p := range f.pivots {
		y[i] = b[p]
	}
	// Forward substitution L*z = y (L unit lower triangular).
	for i := 1; i < n; i++ {
		var sum complex128
		for k := 0; k < i; k++ {
			sum += f.lu.At(i, k) * y[k]
		}
		y[i] -= sum
	}
	// Back substitution U*x = z.
	x := make([]complex128, n)
	for i := n - 1; i >= 0; i-- {
		sum := y[i]
		for k := i + 1; k < n; k++ {
			sum -= f.lu.At(i, k) * x[k]
		}
		x[i] = sum / f.lu.At(i, i)
	}
	return x
}

// SolveTo solves A*X = B for X, writing the result into dst. A is the
// matrix last passed to Factorize. Returns ErrSingular if A was
// singular.
func (f *LU) SolveTo(dst, b *Dense) error {
	if f.lu == nil {
		panic("cmat: LU not factorized")
	}
	if f.singular {
		return ErrSingular
	}
	br, bc := b.Dims()
	if br != f.n {
		panic(ErrShape)
	}
	if dst.mat.Rows != f.n || dst.mat.Cols != bc {
		*dst = *NewDense(f.n, bc, nil)
	}
	col := make([]complex128, br)
	for j := 0; j < bc; j++ {
		for i := 0; i < br; i++ {
			col[i] = b.At(i, j)
		}
		x := f.solveVector(col)
		for i := 0; i < f.n; i++ {
			dst.Set(i, j, x[i])
		}
	}
	return nil
}

// InverseTo computes A⁻¹ into dst, where A is the matrix last passed to
// Factorize. Returns ErrSingular if A was singular.
func (f *LU) InverseTo(dst *Dense) error {
	return f.SolveTo(dst, Identity(f.n))
}

// Solve computes X = A⁻¹·B via LU decomposition with partial pivoting.
// A is not modified.
func Solve(a, b *Dense) (*Dense, error) {
	var f LU
	f.Factorize(a)
	dst := NewDense(a.mat.Rows, b.mat.Cols, nil)
	if err := f.SolveTo(dst, b); err != nil {
		return nil, err
	}
	return dst, nil
}

// Inverse computes A⁻¹ via LU decomposition with partial pivoting.
func Inverse(a *Dense) (*Dense, error) {
	r, c := a.Dims()
	if r != c {
		panic(ErrShape)
	}
	var f LU
	f.Factorize(a)
	dst := NewDense(r, c, nil)
	if err := f.InverseTo(dst); err != nil {
		return nil, err
	}
	return dst, nil
}

// MLeftDivide computes X = A⁻¹·B, the m-left-divide of spec §4.2. It
// destroys a's contents (they are overwritten with its LU
// factorization's packed form) as the spec's legacy contract requires,
// and writes the result into dst.
func MLeftDivide(dst, a, b *Dense) error {
	var f LU
	f.Factorize(a)
	a.CopyFrom(f.lu)
	return f.SolveTo(dst, b)
}

// MRightDivide computes X = B·A⁻¹, the m-right-divide of spec §4.2, via
// (A^T·X^T = B^T)^T. It destroys a's contents like MLeftDivide (a is
// left holding its transpose's packed LU factorization).
func MRightDivide(dst, b, a *Dense) error {
	at := Transpose(a)
	bt := Transpose(b)
	var xt Dense
	if err := MLeftDivide(&xt, at, bt); err != nil {
		return err
	}
	a.CopyFrom(at)
	*dst = *Transpose(&xt)
	return nil
}
