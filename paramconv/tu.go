package paramconv

import "github.com/scott-guthridge/vnacal/cmat"

// SToT converts a 2×2 S-matrix to its T (transfer) matrix, defined by
// [a2;b2] = T * [b1;a1] (spec §4.1: "T relates (b1,a1) to (a2,b2)").
// Solving the S relations for (a2,b2) in terms of (b1,a1) gives:
//
//	T = (1/S12) * [[1, -S11], [S22, -det(S)]]
func SToT(s *cmat.Dense) (*cmat.Dense, error) {
	if err := checkSquare2x2(s, "SToT"); err != nil {
		return nil, err
	}
	s11, s12, s21, s22 := s.At(0, 0), s.At(0, 1), s.At(1, 0), s.At(1, 1)
	if s12 == 0 {
		return nil, &SingularError{Op: "SToT: S12 == 0", Tol: 0}
	}
	det := s11*s22 - s12*s21
	return cmat.NewDense(2, 2, []complex128{
		1 / s12, -s11 / s12,
		s22 / s12, -det / s12,
	}), nil
}

// TToS inverts SToT:
//
//	S11 = -T12/T11, S12 = 1/T11, S21 = det(T)/T11, S22 = T21/T11
func TToS(t *cmat.Dense) (*cmat.Dense, error) {
	if err := checkSquare2x2(t, "TToS"); err != nil {
		return nil, err
	}
	t11, t12, t21, t22 := t.At(0, 0), t.At(0, 1), t.At(1, 0), t.At(1, 1)
	if t11 == 0 {
		return nil, &SingularError{Op: "TToS: T11 == 0", Tol: 0}
	}
	det := t11*t22 - t12*t21
	return cmat.NewDense(2, 2, []complex128{
		-t12 / t11, 1 / t11,
		det / t11, t21 / t11,
	}), nil
}

// SToU converts a 2×2 S-matrix to its U (transfer) matrix, the dual of
// T: [a1;b1] = U * [b2;a2] (spec §4.1).
//
//	U = (1/S21) * [[1, -S22], [S11, -det(S)]]
func SToU(s *cmat.Dense) (*cmat.Dense, error) {
	if err := checkSquare2x2(s, "SToU"); err != nil {
		return nil, err
	}
	s11, s12, s21, s22 := s.At(0, 0), s.At(0, 1), s.At(1, 0), s.At(1, 1)
	if s21 == 0 {
		return nil, &SingularError{Op: "SToU: S21 == 0", Tol: 0}
	}
	det := s11*s22 - s12*s21
	return cmat.NewDense(2, 2, []complex128{
		1 / s21, -s22 / s21,
		s11 / s21, -det / s21,
	}), nil
}

// UToS inverts SToU:
//
//	S11 = U21/U11, S12 = det(U)/U11, S21 = 1/U11, S22 = -U12/U11
func UToS(u *cmat.Dense) (*cmat.Dense, error) {
	if err := checkSquare2x2(u, "UToS"); err != nil {
		return nil, err
	}
	u11, u12, u21, u22 := u.At(0, 0), u.At(0, 1), u.At(1, 0), u.At(1, 1)
	if u11 == 0 {
		return nil, &SingularError{Op: "UToS: U11 == 0", Tol: 0}
	}
	det := u11*u22 - u12*u21
	return cmat.NewDense(2, 2, []complex128{
		u21 / u11, det / u11,
		1 / u11, -u12 / u11,
	}), nil
}
