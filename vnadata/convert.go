package vnadata

import (
	"github.com/scott-guthridge/vnacal/paramconv"
	"github.com/scott-guthridge/vnacal/vnaerr"
)

// Convert is vnadata_convert: it builds a new container holding c's
// data converted to representation "to", at every stored frequency,
// under c's current reference impedance (spec §4.7's "Provides
// vnadata_convert (delegates to B)").
func Convert(c *Container, to paramconv.Type) (*Container, error) {
	ports := c.ports
	out := &Container{typ: to, ports: ports, z0: c.z0, ec: c.ec}
	for fi, f := range c.freqs {
		z0 := c.z0.Vector(fi, ports)
		converted, err := paramconv.Convert(c.typ, to, c.mats[fi], z0)
		if err != nil {
			return nil, wrapMath(c.ec, err)
		}
		out.freqs = append(out.freqs, f)
		out.mats = append(out.mats, converted)
	}
	return out, nil
}

// Renormalize is vnadata_rconvert: it builds a new container holding
// c's data referenced to zNew instead of its current reference
// impedance, converted through S at each frequency (spec §4.1's
// renormalization formula, delegated to paramconv.Renormalize) and back
// to c's own type.
func Renormalize(c *Container, zNew Z0) (*Container, error) {
	if c.typ == paramconv.Zin {
		return nil, usageErr(c.ec, "vnadata: Renormalize: cannot renormalize Zin")
	}
	ports := c.ports
	out := &Container{typ: c.typ, ports: ports, z0: zNew, ec: c.ec}
	for fi, f := range c.freqs {
		zOld := c.z0.Vector(fi, ports)
		zNewVec := zNew.Vector(fi, ports)

		s, err := paramconv.Convert(c.typ, paramconv.S, c.mats[fi], zOld)
		if err != nil {
			return nil, wrapMath(c.ec, err)
		}
		sNew, err := paramconv.Renormalize(s, zOld, zNewVec)
		if err != nil {
			return nil, wrapMath(c.ec, err)
		}
		back, err := paramconv.Convert(paramconv.S, c.typ, sNew, zNewVec)
		if err != nil {
			return nil, wrapMath(c.ec, err)
		}
		out.freqs = append(out.freqs, f)
		out.mats = append(out.mats, back)
	}
	return out, nil
}

func wrapMath(ec *vnaerr.Context, err error) error {
	e := vnaerr.New(vnaerr.Math, "%v", err)
	ec.Report(e)
	return e
}
