// Package paramconv is the parameter converter (component B): pure,
// per-frequency conversions among the network-parameter representations
// of spec §3/§4.1 — S, T, U, Z, Y, H, G, A, B, Zin — under a possibly
// complex per-port reference impedance, plus renormalization to a new
// reference impedance.
package paramconv

import (
	"fmt"

	"github.com/scott-guthridge/vnacal/cmat"
)

// Type identifies a network-parameter representation.
type Type int

const (
	S Type = iota
	T
	U
	Z
	Y
	H
	G
	A
	B
	Zin
)

func (t Type) String() string {
	switch t {
	case S:
		return "S"
	case T:
		return "T"
	case U:
		return "U"
	case Z:
		return "Z"
	case Y:
		return "Y"
	case H:
		return "H"
	case G:
		return "G"
	case A:
		return "A"
	case B:
		return "B"
	case Zin:
		return "Zin"
	default:
		return "unknown"
	}
}

// TwoPortOnly reports whether t is only defined for 2×2 (two-port)
// matrices: T, U, H, G, A, B, per spec §4.1's "Tie-break: T and U are
// defined only for 2×2" (and likewise for H/G/A/B).
func (t Type) TwoPortOnly() bool {
	switch t {
	case T, U, H, G, A, B:
		return true
	default:
		return false
	}
}

// IsRowVector reports whether t's matrices are a row vector (N columns,
// 1 row) rather than a square N×N matrix. Only Zin has this shape.
func (t Type) IsRowVector() bool {
	return t == Zin
}

func checkSquare2x2(m *cmat.Dense, who string) error {
	r, c := m.Dims()
	if r != 2 || c != 2 {
		return &ShapeError{Op: who, Rows: r, Cols: c}
	}
	return nil
}

func checkSquare(m *cmat.Dense, who string) error {
	r, c := m.Dims()
	if r != c {
		return &ShapeError{Op: who, Rows: r, Cols: c}
	}
	return nil
}

// ShapeError reports that an operation received a matrix of the wrong
// shape: a 2×2-only conversion given a non-2×2 input, or a square-only
// conversion given a rectangular input.
type ShapeError struct {
	Op         string
	Rows, Cols int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("paramconv: %s: unsupported shape %dx%d", e.Op, e.Rows, e.Cols)
}
