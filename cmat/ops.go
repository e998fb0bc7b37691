package cmat

import (
	"math/cmplx"

	"gonum.org/v1/gonum/cmplxs"
)

// Mul sets dst = a*b. dst must not alias a or b. a's column count must
// equal b's row count.
func Mul(dst, a, b *Dense) {
	ar, ac := a.Dims()
	br, bc := b.Dims()
	if ac != br {
		panic(ErrShape)
	}
	if dst.mat.Rows != ar || dst.mat.Cols != bc {
		*dst = *NewDense(ar, bc, nil)
	}
	for i := 0; i < ar; i++ {
		for j := 0; j < bc; j++ {
			var sum complex128
			for k := 0; k < ac; k++ {
				sum += a.At(i, k) * b.At(k, j)
			}
			dst.Set(i, j, sum)
		}
	}
}

// Add sets dst = a+b.
func Add(dst, a, b *Dense) {
	ar, ac := a.Dims()
	br, bc := b.Dims()
	if ar != br || ac != bc {
		panic(ErrShape)
	}
	if dst.mat.Rows != ar || dst.mat.Cols != ac {
		*dst = *NewDense(ar, ac, nil)
	}
	for i := 0; i < ar; i++ {
		for j := 0; j < ac; j++ {
			dst.Set(i, j, a.At(i, j)+b.At(i, j))
		}
	}
}

// Sub sets dst = a-b.
func Sub(dst, a, b *Dense) {
	ar, ac := a.Dims()
	br, bc := b.Dims()
	if ar != br || ac != bc {
		panic(ErrShape)
	}
	if dst.mat.Rows != ar || dst.mat.Cols != ac {
		*dst = *NewDense(ar, ac, nil)
	}
	for i := 0; i < ar; i++ {
		for j := 0; j < ac; j++ {
			dst.Set(i, j, a.At(i, j)-b.At(i, j))
		}
	}
}

// Scale sets dst = alpha*a.
func Scale(dst *Dense, alpha complex128, a *Dense) {
	ar, ac := a.Dims()
	if dst.mat.Rows != ar || dst.mat.Cols != ac {
		*dst = *NewDense(ar, ac, nil)
	}
	for i := 0; i < ar; i++ {
		for j := 0; j < ac; j++ {
			dst.Set(i, j, alpha*a.At(i, j))
		}
	}
}

// Transpose returns a's transpose.
func Transpose(a *Dense) *Dense {
	r, c := a.Dims()
	t := NewDense(c, r, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			t.Set(j, i, a.At(i, j))
		}
	}
	return t
}

// ConjTranspose returns a's conjugate (Hermitian) transpose.
func ConjTranspose(a *Dense) *Dense {
	r, c := a.Dims()
	t := NewDense(c, r, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			t.Set(j, i, cmplx.Conj(a.At(i, j)))
		}
	}
	return t
}

// InfNorm returns the matrix infinity-norm (max absolute row sum, the
// L1 norm of each row via cmplxs.Norm), used throughout the package to
// scale singularity tolerances to the magnitude of the matrix being
// tested, per spec §4.1.
func InfNorm(a *Dense) float64 {
	r, _ := a.Dims()
	var max float64
	for i := 0; i < r; i++ {
		if sum := cmplxs.Norm(a.Row(i), 1); sum > max {
			max = sum
		}
	}
	return max
}
