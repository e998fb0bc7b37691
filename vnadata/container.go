// Package vnadata is the container (component G): frequency-indexed
// network-parameter data plus its reference impedance, with
// bounds-checked accessors and the type/size mutation spec §4.7 calls
// for. Convert and Renormalize delegate per frequency to (B) and return
// a new container. The solve (E) and apply (F) packages do not read or
// write containers; vnacalapply.Apply returns a single *cmat.Dense.
package vnadata

import (
	"github.com/scott-guthridge/vnacal/cmat"
	"github.com/scott-guthridge/vnacal/paramconv"
	"github.com/scott-guthridge/vnacal/vnaerr"
)

// Container holds the data of spec §3: a parameter type, port count,
// frequency grid, one matrix per frequency, and a reference impedance.
// For any matrix type (everything but Zin) each matrix is Ports x
// Ports; for Zin it is the 1 x Ports row vector spec §3 describes.
type Container struct {
	typ   paramconv.Type
	ports int
	freqs []float64
	mats  []*cmat.Dense
	z0    Z0
	ec    *vnaerr.Context
}

// New builds an empty container (no frequencies yet) of the given type
// and port count, with a scalar 50 ohm reference impedance until SetZ0
// is called.
func New(t paramconv.Type, ports int, ec *vnaerr.Context) (*Container, error) {
	if ports <= 0 {
		return nil, usageErr(ec, "vnadata.New: ports must be positive, got %d", ports)
	}
	return &Container{typ: t, ports: ports, z0: ScalarZ0(complex(50, 0)), ec: ec}, nil
}

func usageErr(ec *vnaerr.Context, format string, args ...any) error {
	e := vnaerr.New(vnaerr.Usage, format, args...)
	ec.Report(e)
	return e
}

// Type returns the container's parameter representation.
func (c *Container) Type() paramconv.Type { return c.typ }

// SetType overwrites the container's parameter representation without
// converting any stored data — callers that want the data reinterpreted
// under the new type must use Convert instead. SetType exists for the
// rare case (e.g. after a raw load) where the stored matrices are
// already known to be of the new type.
func (c *Container) SetType(t paramconv.Type) {
	c.typ = t
}

// Z0 returns the container's reference impedance.
func (c *Container) Z0() Z0 { return c.z0 }

// SetZ0 replaces the container's reference impedance. A per-port Z0
// must have length Ports; a per-frequency-per-port Z0 must have one row
// per stored frequency, each of length Ports.
func (c *Container) SetZ0(z Z0) error {
	switch z.kind {
	case z0PerPort:
		if len(z.perPort) != c.ports {
			return usageErr(c.ec, "vnadata: SetZ0: per-port z0 has length %d, want %d", len(z.perPort), c.ports)
		}
	case z0PerFreqPerPort:
		if len(z.perFreq) != len(c.freqs) {
			return usageErr(c.ec, "vnadata: SetZ0: per-frequency z0 has %d rows, want %d", len(z.perFreq), len(c.freqs))
		}
		for i, row := range z.perFreq {
			if len(row) != c.ports {
				return usageErr(c.ec, "vnadata: SetZ0: per-frequency z0 row %d has length %d, want %d", i, len(row), c.ports)
			}
		}
	}
	c.z0 = z
	return nil
}

// WidenZ0 promotes the container's reference impedance to at least the
// named breadth ("per-port" or "per-frequency-per-port"), expanding
// uniformly across the new axis. It is the explicit widening transition
// spec §3 requires in place of an implicit/automatic one; narrowing is
// not offered. An unrecognized target or a target no wider than the
// current kind leaves z0 unchanged.
func (c *Container) WidenZ0(to string) {
	var target z0Kind
	switch to {
	case "per-port":
		target = z0PerPort
	case "per-frequency-per-port":
		target = z0PerFreqPerPort
	default:
		return
	}
	c.z0 = c.z0.widen(target, c.ports, len(c.freqs))
}

// Ports returns the network's port count N.
func (c *Container) Ports() int { return c.ports }

// Dims returns the shape of each stored matrix: Ports x Ports for every
// matrix type, 1 x Ports for Zin.
func (c *Container) Dims() (rows, cols int) {
	if c.typ.IsRowVector() {
		return 1, c.ports
	}
	return c.ports, c.ports
}

// NumFrequencies returns the length of the frequency grid (and of the
// per-frequency matrix list).
func (c *Container) NumFrequencies() int { return len(c.freqs) }

// Frequencies returns a copy of the frequency grid.
func (c *Container) Frequencies() []float64 {
	return append([]float64(nil), c.freqs...)
}

// Frequency returns the frequency at index fi.
func (c *Container) Frequency(fi int) (float64, error) {
	if fi < 0 || fi >= len(c.freqs) {
		return 0, usageErr(c.ec, "vnadata: frequency index %d out of range [0,%d)", fi, len(c.freqs))
	}
	return c.freqs[fi], nil
}

// AppendFrequency adds a new frequency and its matrix to the end of the
// grid. f must be strictly greater than the current last frequency
// (spec §3's "ordered, strictly increasing" invariant), and m must match
// the container's current shape.
func (c *Container) AppendFrequency(f float64, m *cmat.Dense) error {
	if n := len(c.freqs); n > 0 && f <= c.freqs[n-1] {
		return usageErr(c.ec, "vnadata: frequency %g is not strictly greater than the last frequency %g", f, c.freqs[n-1])
	}
	rows, cols := c.Dims()
	if r, cc := m.Dims(); r != rows || cc != cols {
		return usageErr(c.ec, "vnadata: matrix shape %dx%d does not match container shape %dx%d", r, cc, rows, cols)
	}
	c.freqs = append(c.freqs, f)
	c.mats = append(c.mats, m.Clone())
	return nil
}

// Matrix returns a copy of the matrix stored at frequency index fi.
func (c *Container) Matrix(fi int) (*cmat.Dense, error) {
	if fi < 0 || fi >= len(c.mats) {
		return nil, usageErr(c.ec, "vnadata: frequency index %d out of range [0,%d)", fi, len(c.mats))
	}
	return c.mats[fi].Clone(), nil
}

// SetMatrix overwrites the matrix at frequency index fi. m must match
// the container's current shape.
func (c *Container) SetMatrix(fi int, m *cmat.Dense) error {
	if fi < 0 || fi >= len(c.mats) {
		return usageErr(c.ec, "vnadata: frequency index %d out of range [0,%d)", fi, len(c.mats))
	}
	rows, cols := c.Dims()
	if r, cc := m.Dims(); r != rows || cc != cols {
		return usageErr(c.ec, "vnadata: matrix shape %dx%d does not match container shape %dx%d", r, cc, rows, cols)
	}
	c.mats[fi] = m.Clone()
	return nil
}

// Cell returns the (i,j) entry of the matrix at frequency index fi.
func (c *Container) Cell(fi, i, j int) (complex128, error) {
	m, err := c.boundMatrix(fi)
	if err != nil {
		return 0, err
	}
	rows, cols := c.Dims()
	if i < 0 || i >= rows || j < 0 || j >= cols {
		return 0, usageErr(c.ec, "vnadata: cell (%d,%d) out of range for %dx%d matrix", i, j, rows, cols)
	}
	return m.At(i, j), nil
}

// SetCell assigns the (i,j) entry of the matrix at frequency index fi.
func (c *Container) SetCell(fi, i, j int, v complex128) error {
	m, err := c.boundMatrix(fi)
	if err != nil {
		return err
	}
	rows, cols := c.Dims()
	if i < 0 || i >= rows || j < 0 || j >= cols {
		return usageErr(c.ec, "vnadata: cell (%d,%d) out of range for %dx%d matrix", i, j, rows, cols)
	}
	m.Set(i, j, v)
	return nil
}

func (c *Container) boundMatrix(fi int) (*cmat.Dense, error) {
	if fi < 0 || fi >= len(c.mats) {
		return nil, usageErr(c.ec, "vnadata: frequency index %d out of range [0,%d)", fi, len(c.mats))
	}
	return c.mats[fi], nil
}

// Row returns a copy of row i of the matrix at frequency index fi.
func (c *Container) Row(fi, i int) ([]complex128, error) {
	m, err := c.boundMatrix(fi)
	if err != nil {
		return nil, err
	}
	rows, _ := c.Dims()
	if i < 0 || i >= rows {
		return nil, usageErr(c.ec, "vnadata: row %d out of range [0,%d)", i, rows)
	}
	return m.Row(i), nil
}

// Resize changes the port count, truncating or zero-filling each stored
// matrix's rows/columns to match. Per spec §4.7, existing data in the
// retained rows/columns is preserved exactly; a column-count decrease
// followed by an increase does NOT restore the original data in the
// regrown columns (they come back zero) — growing and shrinking are not
// inverses, a consequence of the truncate/zero-fill semantics this
// documents rather than hides.
func (c *Container) Resize(newPorts int) error {
	if newPorts <= 0 {
		return usageErr(c.ec, "vnadata: Resize: ports must be positive, got %d", newPorts)
	}
	oldRows, oldCols := c.Dims()
	c.ports = newPorts
	newRows, newCols := c.Dims()
	for i, m := range c.mats {
		out := cmat.NewDense(newRows, newCols, nil)
		minRows, minCols := min(oldRows, newRows), min(oldCols, newCols)
		for r := 0; r < minRows; r++ {
			for cc := 0; cc < minCols; cc++ {
				out.Set(r, cc, m.At(r, cc))
			}
		}
		c.mats[i] = out
	}
	if c.z0.kind == z0PerPort {
		c.z0 = resizeZ0Vector(c.z0, newPorts)
	} else if c.z0.kind == z0PerFreqPerPort {
		for i := range c.z0.perFreq {
			c.z0.perFreq[i] = resizeVector(c.z0.perFreq[i], newPorts)
		}
	}
	return nil
}

func resizeZ0Vector(z Z0, n int) Z0 {
	z.perPort = resizeVector(z.perPort, n)
	return z
}

func resizeVector(v []complex128, n int) []complex128 {
	out := make([]complex128, n)
	copy(out, v)
	if len(v) > 0 {
		last := v[len(v)-1]
		for i := len(v); i < n; i++ {
			out[i] = last
		}
	}
	return out
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
