// Package calkit is the calibration layout (component C): given an
// error-term type and the instrument's (rows, columns) dimensions, it
// computes the fixed offsets and block sizes of each named error-term
// block within the flat per-frequency error-term vector (spec §4.3).
// Layout is purely arithmetic; vnacalnew and vnacalapply address error
// terms exclusively through the Block views this package returns, never
// through raw offsets, so bounds checking lives in one place.
package calkit

import "fmt"

// ErrorTermType identifies one of the eight error-term formulations of
// spec §3/§4.3.
type ErrorTermType int

const (
	T8 ErrorTermType = iota
	U8
	TE10
	UE10
	T16
	U16
	UE14
	E12
)

func (t ErrorTermType) String() string {
	switch t {
	case T8:
		return "T8"
	case U8:
		return "U8"
	case TE10:
		return "TE10"
	case UE10:
		return "UE10"
	case T16:
		return "T16"
	case U16:
		return "U16"
	case UE14:
		return "UE14"
	case E12:
		return "E12"
	default:
		return "unknown"
	}
}

// Block is a named, contiguous view into the flat per-frequency
// error-term vector: Rows*Cols entries starting at Offset, addressed
// row-major. The solver and applier slice the vector through Block
// rather than computing offsets themselves (spec §9's "typed block
// views" redesign).
type Block struct {
	Name       string
	Offset     int
	Rows, Cols int
}

// Len is the number of complex128 entries the block occupies.
func (b Block) Len() int { return b.Rows * b.Cols }

// Slice returns the sub-slice of a full per-frequency error-term vector
// v that this block occupies. It panics if v is too short.
func (b Block) Slice(v []complex128) []complex128 {
	return v[b.Offset : b.Offset+b.Len()]
}

// At returns v's entry at the block's local (i,j), i.e. v[Offset +
// i*Cols + j].
func (b Block) At(v []complex128, i, j int) complex128 {
	return v[b.Offset+i*b.Cols+j]
}

// Set assigns v's entry at the block's local (i,j).
func (b Block) Set(v []complex128, i, j int, x complex128) {
	v[b.Offset+i*b.Cols+j] = x
}

// Layout holds the block layout for one (type, rows, columns) triple.
type Layout struct {
	Type          ErrorTermType
	Rows, Columns int
	Total         int // total error terms per frequency (len of the flat vector)
	blocks        []Block
	byName        map[string]int // name -> index into blocks
}

// UsageError reports a (type, rows, columns) combination the layout
// does not support — e.g. a 2-port-only type given non-2x2 dimensions.
type UsageError struct {
	Type          ErrorTermType
	Rows, Columns int
	Reason        string
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("calkit: %v with rows=%d, columns=%d: %s", e.Type, e.Rows, e.Columns, e.Reason)
}

// NewLayout computes the block layout for the given type and
// dimensions. Rows is the number of VNA ports observed (receivers),
// Columns the number driven.
func NewLayout(t ErrorTermType, rows, columns int) (*Layout, error) {
	if rows <= 0 || columns <= 0 {
		return nil, &UsageError{Type: t, Rows: rows, Columns: columns, Reason: "rows and columns must be positive"}
	}
	switch t {
	case T8, U8, TE10, UE10, T16, U16:
		if rows != 2 || columns != 2 {
			return nil, &UsageError{Type: t, Rows: rows, Columns: columns, Reason: "this error-term type models a single two-port standard and requires rows=columns=2"}
		}
	case UE14, E12:
		if rows != 2 {
			return nil, &UsageError{Type: t, Rows: rows, Columns: columns, Reason: "this error-term type shares two receivers across N driven ports and requires rows=2"}
		}
	}

	l := &Layout{Type: t, Rows: rows, Columns: columns, byName: map[string]int{}}
	switch t {
	case T8:
		l.add("ts", 2, 1)
		l.add("ti", 2, 1)
		l.add("tx", 2, 1)
		l.add("tm", 2, 1)
	case U8:
		l.add("us", 2, 1)
		l.add("ui", 2, 1)
		l.add("ux", 2, 1)
		l.add("um", 2, 1)
	case TE10:
		l.add("ts", 2, 1)
		l.add("ti", 2, 1)
		l.add("tx", 2, 1)
		l.add("tm", 2, 1)
		l.add("el", rows*columns-min(rows, columns), 1)
	case UE10:
		l.add("us", 2, 1)
		l.add("ui", 2, 1)
		l.add("ux", 2, 1)
		l.add("um", 2, 1)
		l.add("el", rows*columns-min(rows, columns), 1)
	case T16:
		l.add("ts", rows, columns)
		l.add("ti", rows, columns)
		l.add("tx", rows, columns)
		l.add("tm", rows, columns)
	case U16:
		l.add("us", rows, columns)
		l.add("ui", rows, columns)
		l.add("ux", rows, columns)
		l.add("um", rows, columns)
	case UE14:
		// Per driven column: a 7-term set (er, ei, ex, es, et, eu, ev),
		// each sized to the 2 shared receivers, totaling 14 terms/column.
		for c := 0; c < columns; c++ {
			for _, name := range []string{"er", "ei", "ex", "es", "et", "eu", "ev"} {
				l.add(fmt.Sprintf("%s%d", name, c), rows, 1)
			}
		}
		l.add("el", rows*columns-min(rows, columns), 1)
	case E12:
		// Classical 12-term model, generalized per driven column: each
		// column carries its own (er, em, el) block, one entry per
		// receiver, totaling 3*rows terms/column — 12 across the
		// standard 2-port, 2-column case.
		for c := 0; c < columns; c++ {
			l.add(fmt.Sprintf("er%d", c), rows, 1)
			l.add(fmt.Sprintf("em%d", c), rows, 1)
			l.add(fmt.Sprintf("el%d", c), rows, 1)
		}
	default:
		return nil, &UsageError{Type: t, Rows: rows, Columns: columns, Reason: "unknown error-term type"}
	}
	return l, nil
}

func (l *Layout) add(name string, rows, cols int) {
	b := Block{Name: name, Offset: l.Total, Rows: rows, Cols: cols}
	l.byName[name] = len(l.blocks)
	l.blocks = append(l.blocks, b)
	l.Total += b.Len()
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// Block looks up a named block. ok is false if no block by that name
// exists for this layout.
func (l *Layout) Block(name string) (b Block, ok bool) {
	i, found := l.byName[name]
	if !found {
		return Block{}, false
	}
	return l.blocks[i], true
}

// Blocks returns all blocks in offset order.
func (l *Layout) Blocks() []Block {
	out := make([]Block, len(l.blocks))
	copy(out, l.blocks)
	return out
}

// NewVector allocates a zeroed flat error-term vector sized for one
// frequency under this layout.
func (l *Layout) NewVector() []complex128 {
	return make([]complex128, l.Total)
}
