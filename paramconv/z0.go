package paramconv

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/scott-guthridge/vnacal/cmat"
)

// SingularError reports that a matrix that had to be inverted during a
// conversion was singular to within tol (relative to the matrix's
// infinity norm), per spec §4.1's "returns a failure when z0 or
// intermediate matrix is singular".
type SingularError struct {
	Op  string
	Tol float64
}

func (e *SingularError) Error() string {
	return fmt.Sprintf("paramconv: %s: singular matrix (tolerance %g)", e.Op, e.Tol)
}

// DegenerateZ0Error reports a reference impedance with zero real part,
// for which the power-wave normalization ki=sqrt(|Re(zi)|) is undefined.
type DegenerateZ0Error struct {
	Port int
}

func (e *DegenerateZ0Error) Error() string {
	return fmt.Sprintf("paramconv: z0 has zero real part at port %d", e.Port)
}

// z0Coeffs precomputes, per port, the power-wave coefficients of spec
// §4.1: ki = sqrt(|Re(zi)|), and d_i = ki / (2*Re(zi)), used throughout
// the S<->Z<->Y conversions.
type z0Coeffs struct {
	k    []complex128 // ki, real-valued but stored as complex128 for matrix ops
	d    []complex128 // ki / (2 Re(zi))
	z0   []complex128 // zi
	z0c  []complex128 // conjugate(zi)
}

func newZ0Coeffs(z0 []complex128) (*z0Coeffs, error) {
	n := len(z0)
	c := &z0Coeffs{
		k:   make([]complex128, n),
		d:   make([]complex128, n),
		z0:  append([]complex128(nil), z0...),
		z0c: make([]complex128, n),
	}
	for i, z := range z0 {
		re := real(z)
		if re == 0 {
			return nil, &DegenerateZ0Error{Port: i}
		}
		ki := math.Sqrt(math.Abs(re))
		c.k[i] = complex(ki, 0)
		c.d[i] = complex(ki/(2*re), 0)
		c.z0c[i] = cmplx.Conj(z)
	}
	return c, nil
}

func diagFrom(v []complex128) *cmat.Dense { return cmat.Diag(v) }

func mulElemwise(a, b []complex128) []complex128 {
	out := make([]complex128, len(a))
	for i := range a {
		out[i] = a[i] * b[i]
	}
	return out
}

func invElemwise(a []complex128) []complex128 {
	out := make([]complex128, len(a))
	for i := range a {
		out[i] = 1 / a[i]
	}
	return out
}

func singular(m *cmat.Dense, tol float64) bool {
	norm := cmat.InfNorm(m)
	thresh := tol
	if norm > 0 {
		thresh = tol * norm
	}
	var f cmat.LU
	f.Factorize(m)
	return cmplx.Abs(f.Det()) <= thresh
}

const defaultSingularTol = 1e-12

// SToZ converts an N×N S-matrix to its Z-matrix equivalent under the
// per-port (possibly complex) reference impedance z0, via the
// generalized power-wave relation of spec §4.1:
//
//	Z = diag(1/d) * (I - S)^-1 * (S*diag(d·z0) + diag(d·z0*))
//
// where d_i = ki/(2 Re(zi)). For real z0 this reduces to the familiar
// Z = K(I+S)(I-S)^-1 K, K = diag(sqrt(zi)).
func SToZ(s *cmat.Dense, z0 []complex128) (*cmat.Dense, error) {
	if err := checkSquare(s, "SToZ"); err != nil {
		return nil, err
	}
	n, _ := s.Dims()
	if len(z0) != n {
		return nil, &ShapeError{Op: "SToZ: z0 length mismatch", Rows: len(z0), Cols: n}
	}
	c, err := newZ0Coeffs(z0)
	if err != nil {
		return nil, err
	}
	dz0 := mulElemwise(c.d, c.z0)
	dz0c := mulElemwise(c.d, c.z0c)
	invD := invElemwise(c.d)

	var t1 cmat.Dense
	cmat.Mul(&t1, s, diagFrom(dz0))
	var rhs cmat.Dense
	cmat.Add(&rhs, &t1, diagFrom(dz0c))

	imS := identityMinus(s)
	if singular(imS, defaultSingularTol) {
		return nil, &SingularError{Op: "SToZ: I-S", Tol: defaultSingularTol}
	}
	inner, err := cmat.Solve(imS, &rhs)
	if err != nil {
		return nil, &SingularError{Op: "SToZ: I-S", Tol: defaultSingularTol}
	}
	zMat := cmat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			zMat.Set(i, j, invD[i]*inner.At(i, j))
		}
	}
	return zMat, nil
}

func identityMinus(s *cmat.Dense) *cmat.Dense {
	n, _ := s.Dims()
	out := cmat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := -s.At(i, j)
			if i == j {
				v += 1
			}
			out.Set(i, j, v)
		}
	}
	return out
}

// ZToS converts an N×N Z-matrix to its S-matrix equivalent under z0, by
// inverting the relation used in SToZ:
//
//	S = [diag(d)*(Z-Z0*)] * [diag(d)*(Z+Z0)]^-1
func ZToS(z *cmat.Dense, z0 []complex128) (*cmat.Dense, error) {
	if err := checkSquare(z, "ZToS"); err != nil {
		return nil, err
	}
	n, _ := z.Dims()
	if len(z0) != n {
		return nil, &ShapeError{Op: "ZToS: z0 length mismatch", Rows: len(z0), Cols: n}
	}
	c, err := newZ0Coeffs(z0)
	if err != nil {
		return nil, err
	}
	z0Diag := diagFrom(c.z0)
	z0cDiag := diagFrom(c.z0c)

	var zMinusZ0c, zPlusZ0 cmat.Dense
	cmat.Sub(&zMinusZ0c, z, z0cDiag)
	cmat.Add(&zPlusZ0, z, z0Diag)

	dDiag := diagFrom(c.d)
	var aMat, bMat cmat.Dense
	cmat.Mul(&aMat, dDiag, &zMinusZ0c)
	cmat.Mul(&bMat, dDiag, &zPlusZ0)

	if singular(&bMat, defaultSingularTol) {
		return nil, &SingularError{Op: "ZToS: diag(d)*(Z+Z0)", Tol: defaultSingularTol}
	}
	var s cmat.Dense
	if err := cmat.MRightDivide(&s, &aMat, bMat.Clone()); err != nil {
		return nil, &SingularError{Op: "ZToS", Tol: defaultSingularTol}
	}
	return &s, nil
}

// ZToY converts Z to Y by direct inverse, per spec §4.1.
func ZToY(z *cmat.Dense) (*cmat.Dense, error) {
	if err := checkSquare(z, "ZToY"); err != nil {
		return nil, err
	}
	if singular(z, defaultSingularTol) {
		return nil, &SingularError{Op: "ZToY", Tol: defaultSingularTol}
	}
	y, err := cmat.Inverse(z)
	if err != nil {
		return nil, &SingularError{Op: "ZToY", Tol: defaultSingularTol}
	}
	return y, nil
}

// YToZ converts Y to Z by direct inverse, per spec §4.1.
func YToZ(y *cmat.Dense) (*cmat.Dense, error) {
	if err := checkSquare(y, "YToZ"); err != nil {
		return nil, err
	}
	if singular(y, defaultSingularTol) {
		return nil, &SingularError{Op: "YToZ", Tol: defaultSingularTol}
	}
	z, err := cmat.Inverse(y)
	if err != nil {
		return nil, &SingularError{Op: "YToZ", Tol: defaultSingularTol}
	}
	return z, nil
}

// SToY converts S to Y by bridging through Z: Z is reference-impedance
// independent, so composing SToZ then ZToY is exact and reuses the
// single place the power-wave algebra is implemented.
func SToY(s *cmat.Dense, z0 []complex128) (*cmat.Dense, error) {
	z, err := SToZ(s, z0)
	if err != nil {
		return nil, err
	}
	return ZToY(z)
}

// YToS converts Y to S by bridging through Z, the dual of SToY.
func YToS(y *cmat.Dense, z0 []complex128) (*cmat.Dense, error) {
	z, err := YToZ(y)
	if err != nil {
		return nil, err
	}
	return ZToS(z, z0)
}
