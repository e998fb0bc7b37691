package paramconv

import "github.com/scott-guthridge/vnacal/cmat"

// ZinFromS computes the per-port input impedance looking into an S-matrix
// terminated in z0 at every other port (spec §4.1). For a square S it is
// the diagonal of the corresponding Z-matrix, which correctly accounts
// for coupling between ports. For a rectangular S (N_rows != N_columns,
// as produced by a non-square calibration), only min(rows,columns)
// entries are produced — one per port that is both driven and observed —
// computed directly from the single-port reflection formula
// Zin_i = (z0_i* + S_ii*z0_i) / (1 - S_ii), which ignores coupling to
// undriven ports (the same information a non-square S simply does not
// carry).
func ZinFromS(s *cmat.Dense, z0 []complex128) ([]complex128, error) {
	rows, cols := s.Dims()
	if len(z0) != cols {
		return nil, &ShapeError{Op: "ZinFromS: z0 length mismatch", Rows: len(z0), Cols: cols}
	}
	if rows == cols {
		z, err := SToZ(s, z0)
		if err != nil {
			return nil, err
		}
		out := make([]complex128, rows)
		for i := range out {
			out[i] = z.At(i, i)
		}
		return out, nil
	}

	n := rows
	if cols < n {
		n = cols
	}
	c, err := newZ0Coeffs(z0[:n])
	if err != nil {
		return nil, err
	}
	out := make([]complex128, n)
	for i := 0; i < n; i++ {
		gamma := s.At(i, i)
		denom := 1 - gamma
		if denom == 0 {
			return nil, &SingularError{Op: "ZinFromS: 1-S_ii == 0"}
		}
		out[i] = (c.z0c[i] + gamma*c.z0[i]) / denom
	}
	return out, nil
}
