package vnacalnew

import (
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/scott-guthridge/vnacal/calkit"
	"github.com/scott-guthridge/vnacal/vnaerr"
	"github.com/scott-guthridge/vnacal/vnaparam"
)

// Builder is the mutable calibration accumulator of spec §3
// (vnacal_new): it collects standards and leakage readings against a
// fixed error-term type and frequency grid until Solve is called.
type Builder struct {
	Layout *calkit.Layout
	Freqs  []float64

	// Logger, if set, receives solve-progress tracing (per-frequency
	// residual, excluded-standard warnings, per-frequency solve
	// failures) at Debug/Warn level. It is purely diagnostic — errors are
	// always reported through ec, never only through the logger, per
	// spec §7's "never propagated by abort except on internal".
	Logger *logrus.Logger

	registry *vnaparam.Registry
	ec       *vnaerr.Context

	standards []*Standard
	leakages  []*Leakage
}

var (
	// ErrEmptyFrequencyGrid is returned by NewBuilder for a zero-length
	// frequency grid.
	ErrEmptyFrequencyGrid = errors.New("vnacalnew: frequency grid must be non-empty")
	// ErrFrequencyGridMismatch is returned when an added standard's
	// per-frequency data does not match the builder's frequency grid
	// length (spec §3's "share the same frequency grid length F").
	ErrFrequencyGridMismatch = errors.New("vnacalnew: standard frequency grid length mismatch")
	// ErrPortRange is returned for a port index outside [1, N].
	ErrPortRange = errors.New("vnacalnew: port index out of range")
)

// NewBuilder validates (type, rows, columns) via calkit and returns an
// empty Builder over freqs (strictly increasing, Hz). reg is the
// parameter registry standards' S-matrix entries are drawn from; ec
// receives error reports during Solve (may be nil).
func NewBuilder(t calkit.ErrorTermType, rows, columns int, freqs []float64, reg *vnaparam.Registry, ec *vnaerr.Context) (*Builder, error) {
	if len(freqs) == 0 {
		return nil, ErrEmptyFrequencyGrid
	}
	layout, err := calkit.NewLayout(t, rows, columns)
	if err != nil {
		return nil, err
	}
	return &Builder{Layout: layout, Freqs: freqs, registry: reg, ec: ec}, nil
}

func (b *Builder) checkPort(p int) error {
	if p < 1 || p > b.Layout.Columns {
		return ErrPortRange
	}
	return nil
}

// AddStandard records a two-port (or, with ports.P1==ports.P2, one-port)
// standard connected at ports, with actual S-parameters s (handles into
// the registry) and raw measurement m (one 2x2 matrix per frequency, in
// row-major order). It retains a reference to every non-zero handle in
// s on the registry, matching spec §4.4's "each call that uses a
// parameter increments" rule.
func (b *Builder) AddStandard(s [4]vnaparam.Handle, ports PortPair, m [][4]complex128) error {
	return b.AddStandardWithKind(s, ports, m, Generic)
}

// AddStandardWithKind is AddStandard, additionally tagging the standard
// with its kind. Only Line matters to the solver (spec §3's
// near-degenerate-phase exclusion, see solve.go's resolveKnown); the
// other kinds are recorded for diagnostics/future use but carry no
// solver-visible behavior difference today.
func (b *Builder) AddStandardWithKind(s [4]vnaparam.Handle, ports PortPair, m [][4]complex128, kind StandardKind) error {
	if err := b.checkPort(ports.P1); err != nil {
		return err
	}
	if err := b.checkPort(ports.P2); err != nil {
		return err
	}
	if len(m) != len(b.Freqs) {
		return ErrFrequencyGridMismatch
	}
	if b.registry != nil {
		for _, h := range s {
			if h != 0 {
				b.registry.Retain(h)
			}
		}
	}
	b.standards = append(b.standards, &Standard{S: s, Ports: ports, Kind: kind, M: m})
	return nil
}

// AddLeakage records a DUT-disconnected reading at instrument cell
// (row, col) (0-based), one value per calibration frequency.
func (b *Builder) AddLeakage(row, col int, value []complex128) error {
	if len(value) != len(b.Freqs) {
		return ErrFrequencyGridMismatch
	}
	b.leakages = append(b.leakages, &Leakage{Row: row, Col: col, Value: value})
	return nil
}

// Release drops the Builder's references to every standard's parameter
// handles. Callers that never reach Solve (e.g. they abandon a partially
// built calibration) must call this to keep the registry's reference
// counts consistent (spec §4.4/§7's "no partial mutation on failure").
func (b *Builder) Release() {
	if b.registry == nil {
		return
	}
	for _, st := range b.standards {
		for _, h := range st.S {
			if h != 0 {
				b.registry.Release(h)
			}
		}
	}
	b.standards = nil
}
