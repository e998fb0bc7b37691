package paramconv

import (
	"fmt"

	"github.com/scott-guthridge/vnacal/cmat"
)

// Convert converts m, held as the representation "from" under reference
// impedance z0, to the representation "to". It is the single entry
// point vnadata_convert (component G) delegates to. Converting to Zin
// uses ZinFromS; converting from Zin to any other type is unsupported
// and returns an error, matching Zin's role as a derived,
// row-vector-only quantity per spec §3.
func Convert(from, to Type, m *cmat.Dense, z0 []complex128) (*cmat.Dense, error) {
	if from == to {
		return m.Clone(), nil
	}
	if to == Zin {
		if from != S {
			s, err := toS(from, m, z0)
			if err != nil {
				return nil, err
			}
			m = s
		}
		zin, err := ZinFromS(m, z0)
		if err != nil {
			return nil, err
		}
		rows := len(zin)
		return cmat.NewDense(1, rows, zin), nil
	}
	if from == Zin {
		return nil, fmt.Errorf("paramconv: Convert: cannot convert from Zin")
	}

	s, err := toS(from, m, z0)
	if err != nil {
		return nil, err
	}
	return fromS(to, s, z0)
}

// toS converts m, of representation from, to S under z0.
func toS(from Type, m *cmat.Dense, z0 []complex128) (*cmat.Dense, error) {
	switch from {
	case S:
		return m.Clone(), nil
	case Z:
		return ZToS(m, z0)
	case Y:
		return YToS(m, z0)
	case T:
		return TToS(m)
	case U:
		return UToS(m)
	case H:
		z, err := HToZ(m)
		if err != nil {
			return nil, err
		}
		return ZToS(z, z0)
	case G:
		z, err := GToZ(m)
		if err != nil {
			return nil, err
		}
		return ZToS(z, z0)
	case A:
		z, err := AToZ(m)
		if err != nil {
			return nil, err
		}
		return ZToS(z, z0)
	case B:
		z, err := BToZ(m)
		if err != nil {
			return nil, err
		}
		return ZToS(z, z0)
	default:
		return nil, fmt.Errorf("paramconv: Convert: unsupported source type %v", from)
	}
}

// fromS converts an S-matrix to representation to under z0.
func fromS(to Type, s *cmat.Dense, z0 []complex128) (*cmat.Dense, error) {
	switch to {
	case S:
		return s.Clone(), nil
	case Z:
		return SToZ(s, z0)
	case Y:
		return SToY(s, z0)
	case T:
		return SToT(s)
	case U:
		return SToU(s)
	case H:
		z, err := SToZ(s, z0)
		if err != nil {
			return nil, err
		}
		return ZToH(z)
	case G:
		z, err := SToZ(s, z0)
		if err != nil {
			return nil, err
		}
		return ZToG(z)
	case A:
		z, err := SToZ(s, z0)
		if err != nil {
			return nil, err
		}
		return ZToA(z)
	case B:
		z, err := SToZ(s, z0)
		if err != nil {
			return nil, err
		}
		return ZToB(z)
	default:
		return nil, fmt.Errorf("paramconv: Convert: unsupported destination type %v", to)
	}
}
