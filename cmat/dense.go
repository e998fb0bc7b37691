// Package cmat is the complex linear algebra kernel (component A):
// LU and QR factorization, left/right matrix division, inversion,
// multiplication and a natural cubic spline, all operating on dense
// row-major complex128 matrices.
//
// Storage follows gonum's cblas128.General convention (Rows, Cols,
// Stride, Data) rather than inventing a new layout, so that a Dense's
// raw form composes with the rest of the gonum complex ecosystem.
package cmat

import (
	"errors"

	"gonum.org/v1/gonum/blas/cblas128"
)

// ErrShape is panicked when an operation is given matrices whose
// dimensions are incompatible. It signals a caller precondition
// violation, not a numerical failure.
var ErrShape = errors.New("cmat: dimension mismatch")

// ErrSingular is returned (never panicked) when a matrix that must be
// invertible for the requested operation is singular to within the
// governing tolerance.
var ErrSingular = errors.New("cmat: singular matrix")

// ErrShapeErr wraps ErrShape with a detail message. NewComplexSpline
// returns it; Dense's index-checked accessors (At, Set, Row) panic with
// it.
type ErrShapeErr struct{ Detail string }

func (e *ErrShapeErr) Error() string { return "cmat: " + e.Detail }
func (e *ErrShapeErr) Unwrap() error { return ErrShape }

// Dense is a dense, general, row-major complex matrix.
type Dense struct {
	mat cblas128.General
}

// NewDense creates an r×c Dense matrix. If data is nil a new zeroed
// backing slice is allocated; otherwise data is used directly (len(data)
// must equal r*c) in row-major order, i.e. data[i*c+j] is element (i,j).
func NewDense(r, c int, data []complex128) *Dense {
	if r <= 0 || c <= 0 {
		panic(ErrShape)
	}
	if data == nil {
		data = make([]complex128, r*c)
	} else if len(data) != r*c {
		panic(ErrShape)
	}
	return &Dense{mat: cblas128.General{Rows: r, Cols: c, Stride: c, Data: data}}
}

// Dims returns the matrix's row and column counts.
func (d *Dense) Dims() (r, c int) { return d.mat.Rows, d.mat.Cols }

// At returns the value at row i, column j. It panics if i or j are out
// of range.
func (d *Dense) At(i, j int) complex128 {
	d.checkBounds(i, j)
	return d.mat.Data[i*d.mat.Stride+j]
}

// Set assigns the value at row i, column j. It panics if i or j are out
// of range.
func (d *Dense) Set(i, j int, v complex128) {
	d.checkBounds(i, j)
	d.mat.Data[i*d.mat.Stride+j] = v
}

func (d *Dense) checkBounds(i, j int) {
	if i < 0 || i >= d.mat.Rows || j < 0 || j >= d.mat.Cols {
		panic(&ErrShapeErr{Detail: "index out of range"})
	}
}

// RawCMatrix exposes the underlying cblas128.General storage.
func (d *Dense) RawCMatrix() cblas128.General { return d.mat }

// Row returns a copy of row i.
func (d *Dense) Row(i int) []complex128 {
	if i < 0 || i >= d.mat.Rows {
		panic(&ErrShapeErr{Detail: "row index out of range"})
	}
	row := make([]complex128, d.mat.Cols)
	copy(row, d.mat.Data[i*d.mat.Stride:i*d.mat.Stride+d.mat.Cols])
	return row
}

// Clone returns a deep copy of d.
func (d *Dense) Clone() *Dense {
	r, c := d.Dims()
	data := make([]complex128, r*c)
	for i := 0; i < r; i++ {
		copy(data[i*c:(i+1)*c], d.mat.Data[i*d.mat.Stride:i*d.mat.Stride+c])
	}
	return NewDense(r, c, data)
}

// CopyFrom overwrites d's entries with a's. d and a must have identical
// dimensions.
func (d *Dense) CopyFrom(a *Dense) {
	ar, ac := a.Dims()
	dr, dc := d.Dims()
	if ar != dr || ac != dc {
		panic(ErrShape)
	}
	for i := 0; i < ar; i++ {
		copy(d.mat.Data[i*d.mat.Stride:i*d.mat.Stride+ac], a.mat.Data[i*a.mat.Stride:i*a.mat.Stride+ac])
	}
}

// Identity returns the n×n identity matrix.
func Identity(n int) *Dense {
	m := NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
	}
	return m
}

// Zero returns the r×c zero matrix.
func Zero(r, c int) *Dense {
	return NewDense(r, c, nil)
}

// Diag returns the n×n diagonal matrix with diagonal entries v.
func Diag(v []complex128) *Dense {
	n := len(v)
	m := NewDense(n, n, nil)
	for i, x := range v {
		m.Set(i, i, x)
	}
	return m
}

// Equal reports whether a and b have identical dimensions and entries.
func Equal(a, b *Dense) bool {
	ar, ac := a.Dims()
	br, bc := b.Dims()
	if ar != br || ac != bc {
		return false
	}
	for i := 0; i < ar; i++ {
		for j := 0; j < ac; j++ {
			if a.At(i, j) != b.At(i, j) {
				return false
			}
		}
	}
	return true
}
