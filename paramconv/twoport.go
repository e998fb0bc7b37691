package paramconv

import "github.com/scott-guthridge/vnacal/cmat"

// H/G/A/B parameters, unlike S/T/U, relate actual port voltages and
// currents rather than power waves, so they do not depend on the
// reference impedance at all. Each conversion here bridges through Z
// (computed from S under the caller's z0 by SToZ/ZToS), using the
// classical 2-port Z<->{H,G,A,B} closed forms (spec §4.1's "explicit
// closed form tabulated in a conversion table").

func det2(m *cmat.Dense) complex128 {
	return m.At(0, 0)*m.At(1, 1) - m.At(0, 1)*m.At(1, 0)
}

// ZToH converts a 2×2 Z-matrix to hybrid H-parameters:
// V1 = H11 I1 + H12 V2; I2 = H21 I1 + H22 V2.
func ZToH(z *cmat.Dense) (*cmat.Dense, error) {
	if err := checkSquare2x2(z, "ZToH"); err != nil {
		return nil, err
	}
	z11, z12, z21, z22 := z.At(0, 0), z.At(0, 1), z.At(1, 0), z.At(1, 1)
	if z22 == 0 {
		return nil, &SingularError{Op: "ZToH: Z22 == 0"}
	}
	dz := det2(z)
	return cmat.NewDense(2, 2, []complex128{
		dz / z22, z12 / z22,
		-z21 / z22, 1 / z22,
	}), nil
}

// HToZ inverts ZToH.
func HToZ(h *cmat.Dense) (*cmat.Dense, error) {
	if err := checkSquare2x2(h, "HToZ"); err != nil {
		return nil, err
	}
	h11, h12, h21, h22 := h.At(0, 0), h.At(0, 1), h.At(1, 0), h.At(1, 1)
	if h22 == 0 {
		return nil, &SingularError{Op: "HToZ: H22 == 0"}
	}
	dh := det2(h)
	return cmat.NewDense(2, 2, []complex128{
		dh / h22, h12 / h22,
		-h21 / h22, 1 / h22,
	}), nil
}

// ZToG converts a 2×2 Z-matrix to inverse-hybrid G-parameters:
// I1 = G11 V1 + G12 I2; V2 = G21 V1 + G22 I2.
func ZToG(z *cmat.Dense) (*cmat.Dense, error) {
	if err := checkSquare2x2(z, "ZToG"); err != nil {
		return nil, err
	}
	z11, z12, z21, z22 := z.At(0, 0), z.At(0, 1), z.At(1, 0), z.At(1, 1)
	if z11 == 0 {
		return nil, &SingularError{Op: "ZToG: Z11 == 0"}
	}
	dz := det2(z)
	return cmat.NewDense(2, 2, []complex128{
		1 / z11, -z12 / z11,
		z21 / z11, dz / z11,
	}), nil
}

// GToZ inverts ZToG.
func GToZ(g *cmat.Dense) (*cmat.Dense, error) {
	if err := checkSquare2x2(g, "GToZ"); err != nil {
		return nil, err
	}
	g11, g12, g21, g22 := g.At(0, 0), g.At(0, 1), g.At(1, 0), g.At(1, 1)
	if g11 == 0 {
		return nil, &SingularError{Op: "GToZ: G11 == 0"}
	}
	dg := det2(g)
	return cmat.NewDense(2, 2, []complex128{
		1 / g11, -g12 / g11,
		g21 / g11, dg / g11,
	}), nil
}

// ZToA converts a 2×2 Z-matrix to ABCD (chain/transmission) parameters:
// V1 = A*V2 - B*I2; I1 = C*V2 - D*I2.
func ZToA(z *cmat.Dense) (*cmat.Dense, error) {
	if err := checkSquare2x2(z, "ZToA"); err != nil {
		return nil, err
	}
	z11, z12, z21, z22 := z.At(0, 0), z.At(0, 1), z.At(1, 0), z.At(1, 1)
	if z21 == 0 {
		return nil, &SingularError{Op: "ZToA: Z21 == 0"}
	}
	dz := det2(z)
	return cmat.NewDense(2, 2, []complex128{
		z11 / z21, dz / z21,
		1 / z21, z22 / z21,
	}), nil
}

// AToZ inverts ZToA.
func AToZ(a *cmat.Dense) (*cmat.Dense, error) {
	if err := checkSquare2x2(a, "AToZ"); err != nil {
		return nil, err
	}
	aa, bb, cc, dd := a.At(0, 0), a.At(0, 1), a.At(1, 0), a.At(1, 1)
	if cc == 0 {
		return nil, &SingularError{Op: "AToZ: C == 0"}
	}
	dA := aa*dd - bb*cc
	return cmat.NewDense(2, 2, []complex128{
		aa / cc, dA / cc,
		1 / cc, dd / cc,
	}), nil
}

// ZToB converts a 2×2 Z-matrix to the reverse-direction chain
// parameters ("B parameters"): the ABCD construction applied with port
// roles 1 and 2 swapped, i.e. to the Z-matrix with rows/columns
// transposed in index (Z11<->Z22, Z12<->Z21).
func ZToB(z *cmat.Dense) (*cmat.Dense, error) {
	if err := checkSquare2x2(z, "ZToB"); err != nil {
		return nil, err
	}
	z11, z12, z21, z22 := z.At(0, 0), z.At(0, 1), z.At(1, 0), z.At(1, 1)
	if z12 == 0 {
		return nil, &SingularError{Op: "ZToB: Z12 == 0"}
	}
	dz := z11*z22 - z12*z21
	return cmat.NewDense(2, 2, []complex128{
		z22 / z12, dz / z12,
		1 / z12, z11 / z12,
	}), nil
}

// BToZ inverts ZToB.
func BToZ(b *cmat.Dense) (*cmat.Dense, error) {
	if err := checkSquare2x2(b, "BToZ"); err != nil {
		return nil, err
	}
	b11, b12, b21, b22 := b.At(0, 0), b.At(0, 1), b.At(1, 0), b.At(1, 1)
	if b21 == 0 {
		return nil, &SingularError{Op: "BToZ: B21 == 0"}
	}
	// Inverting ZToB's construction B = [[z22/z12, dz/z12],[1/z12, z11/z12]]:
	z12 := 1 / b21
	z22 := b11 / b21
	z11 := b22 / b21
	dz := b12 / b21
	z21 := (z11*z22 - dz) / z12
	return cmat.NewDense(2, 2, []complex128{
		z11, z12,
		z21, z22,
	}), nil
}
