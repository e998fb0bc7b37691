package paramconv

import "github.com/scott-guthridge/vnacal/cmat"

// Renormalize computes S', the S-matrix of the same physical network
// referenced to zNew instead of zOld (spec §4.1's vnadata_rconvert). Z
// is independent of reference impedance, so S -> Z -> S' via SToZ/ZToS
// is an exact renormalization and reuses the single place the
// power-wave algebra lives, rather than re-deriving the equivalent
// direct formula S' = A(S-Γ)(I-ΓS)^-1 A^-1 a second time.
func Renormalize(s *cmat.Dense, zOld, zNew []complex128) (*cmat.Dense, error) {
	if err := checkSquare(s, "Renormalize"); err != nil {
		return nil, err
	}
	n, _ := s.Dims()
	if len(zOld) != n || len(zNew) != n {
		return nil, &ShapeError{Op: "Renormalize: z0 length mismatch", Rows: len(zOld), Cols: n}
	}
	z, err := SToZ(s, zOld)
	if err != nil {
		return nil, err
	}
	return ZToS(z, zNew)
}
