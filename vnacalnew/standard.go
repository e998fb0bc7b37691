package vnacalnew

import "github.com/scott-guthridge/vnacal/vnaparam"

// PortPair names the two 1-based VNA ports a two-port standard is
// connected between. A one-port standard (reflect) uses P1 == P2.
type PortPair struct {
	P1, P2 int
}

// StandardKind classifies a standard for the tie-break rules of spec
// §3 that are specific to one kind: a Line standard's near-degenerate
// phase is excluded at affected frequencies, while Through/Reflect/
// Mapped/Generic standards carry no such check.
type StandardKind int

const (
	Generic StandardKind = iota
	Through
	Reflect
	Line
	Mapped
)

// Standard is one (standard S-parameters, measurement, connection)
// triple accumulated by a Builder (spec §3's vnacal_new accumulator).
// S holds the standard's 2x2 S-parameters as parameter handles —
// S[0] and S[3] are the reflection handles at P1 and P2, S[1] (S12) and
// S[2] (S21) the transmission handles P2->P1 and P1->P2 (zero handles for a
// pure one-port reflect standard, which only uses S[0]).
type Standard struct {
	S     [4]vnaparam.Handle
	Ports PortPair
	Kind  StandardKind

	// M holds, for each of the F calibration frequencies, the raw
	// measured 2x2 matrix in row-major order, exactly as passed to
	// AddStandard. Raw incident/reflected (a/b) wave pairs are not
	// accepted; only a precomputed m is.
	M [][4]complex128
}

// Leakage is a DUT-disconnected reading at one (row, column) cell,
// recorded once per frequency (spec §3's leakage measurement, §4.5's
// isolation correction applied before the main error-term solve).
type Leakage struct {
	Row, Col int // 0-based instrument port indices
	Value    []complex128
}
