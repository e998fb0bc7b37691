package vnadata

// z0Kind tags which of the three reference-impedance storage variants a
// Z0 holds — the "per-frequency union of z0 storages" sum type spec §9
// calls for, replacing what would otherwise be three almost-identical
// struct shapes.
type z0Kind int

const (
	z0Scalar z0Kind = iota
	z0PerPort
	z0PerFreqPerPort
)

// Z0 is the container's reference impedance: one complex value shared
// by every port and frequency, one value per port (shared across
// frequencies), or one value per (frequency, port) pair. The variant is
// fixed once constructed; moving between variants is the explicit
// widening spec §3 calls for (ScalarZ0/PerPortZ0/PerFrequencyZ0
// construct a fresh Z0 of the wider kind from the narrower one's data).
type Z0 struct {
	kind    z0Kind
	scalar  complex128
	perPort []complex128
	perFreq [][]complex128
}

// ScalarZ0 builds a reference impedance shared by every port and
// frequency.
func ScalarZ0(z complex128) Z0 {
	return Z0{kind: z0Scalar, scalar: z}
}

// PerPortZ0 builds a reference impedance with one value per port,
// shared across all frequencies.
func PerPortZ0(z []complex128) Z0 {
	return Z0{kind: z0PerPort, perPort: append([]complex128(nil), z...)}
}

// PerFrequencyZ0 builds a reference impedance with one value per
// (frequency, port) pair. z[fi] must have the same length (the port
// count) for every fi.
func PerFrequencyZ0(z [][]complex128) Z0 {
	out := make([][]complex128, len(z))
	for i, row := range z {
		out[i] = append([]complex128(nil), row...)
	}
	return Z0{kind: z0PerFreqPerPort, perFreq: out}
}

// Kind reports which variant z holds.
func (z Z0) Kind() string {
	switch z.kind {
	case z0Scalar:
		return "scalar"
	case z0PerPort:
		return "per-port"
	case z0PerFreqPerPort:
		return "per-frequency-per-port"
	default:
		return "unknown"
	}
}

// At returns the reference impedance at frequency index fi, port
// (0-based). fi is ignored for the scalar and per-port variants.
func (z Z0) At(fi, port int) complex128 {
	switch z.kind {
	case z0Scalar:
		return z.scalar
	case z0PerPort:
		return z.perPort[port]
	case z0PerFreqPerPort:
		return z.perFreq[fi][port]
	default:
		return 0
	}
}

// Vector expands z to a full length-n z0 vector for frequency index fi,
// the form paramconv's conversion entry points take.
func (z Z0) Vector(fi, n int) []complex128 {
	out := make([]complex128, n)
	for i := range out {
		out[i] = z.At(fi, i)
	}
	return out
}

// widen returns a copy of z promoted to at least the given kind's
// breadth (scalar < per-port < per-frequency-per-port), expanding
// uniformly across the new axis. Widening to an already-wider-or-equal
// kind returns z unchanged; widen never narrows.
func (z Z0) widen(to z0Kind, ports, freqs int) Z0 {
	if z.kind >= to {
		return z
	}
	switch to {
	case z0PerPort:
		v := make([]complex128, ports)
		for i := range v {
			v[i] = z.At(0, i)
		}
		return PerPortZ0(v)
	case z0PerFreqPerPort:
		rows := make([][]complex128, freqs)
		for fi := range rows {
			rows[fi] = z.Vector(fi, ports)
		}
		return PerFrequencyZ0(rows)
	default:
		return z
	}
}
