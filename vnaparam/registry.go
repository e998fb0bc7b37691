// Package vnaparam is the parameter registry (component D): calibration
// standards are held as small reference-counted handles into an arena,
// each tagged with one of the four variants of spec §3/§4.4 — Scalar,
// Vector, Unknown, Correlated — and resolved to a per-frequency complex
// value on demand.
package vnaparam

import (
	"errors"
	"math/cmplx"

	"github.com/scott-guthridge/vnacal/cmat"
	"github.com/scott-guthridge/vnacal/vnaerr"
)

// Kind identifies a parameter variant.
type Kind int

const (
	Scalar Kind = iota
	Vector
	Unknown
	Correlated
)

func (k Kind) String() string {
	switch k {
	case Scalar:
		return "scalar"
	case Vector:
		return "vector"
	case Unknown:
		return "unknown"
	case Correlated:
		return "correlated"
	default:
		return "unknown-kind"
	}
}

// Handle identifies a parameter within a Registry. The zero Handle is
// never issued and is invalid.
type Handle int

var (
	// ErrInvalidHandle is returned for a Handle unknown to the Registry
	// it is presented to, including one already released to zero
	// refcount.
	ErrInvalidHandle = errors.New("vnaparam: invalid handle")
	// ErrNotSolvable is returned by SetSolved on a Scalar or Vector
	// handle, neither of which carries a solved value.
	ErrNotSolvable = errors.New("vnaparam: parameter is not Unknown or Correlated")
)

type entry struct {
	kind     Kind
	refcount int

	scalar complex128      // Scalar
	spline *cmat.ComplexSpline // Vector

	guess     complex128 // Unknown, Correlated: initial guess
	hasSolved bool
	solved    complex128

	target    Handle  // Correlated
	tolerance float64 // Correlated
}

// Registry is an arena of parameter handles. The zero value is not
// usable; construct with NewRegistry. Not safe for concurrent use
// without external synchronization, matching the single-threaded
// cooperative model of spec §5.
type Registry struct {
	entries map[Handle]*entry
	next    Handle

	// Open, Short, Match, and Zero are the four built-in scalar
	// parameters spec §3 guarantees always exist: reflection
	// coefficients +1, -1, 0, and a canonical zero used wherever a
	// standard's S-entry is simply "nothing there" (e.g. an unused
	// off-diagonal leakage term). They behave like any other handle —
	// callers Retain/Release them through the normal protocol — but a
	// fresh Registry already holds one reference to each so they are
	// never inadvertently missing.
	Open, Short, Match, Zero Handle
}

// NewRegistry returns a registry pre-populated with the four built-in
// parameters.
func NewRegistry() *Registry {
	r := &Registry{entries: make(map[Handle]*entry)}
	r.Open = r.AddScalar(complex(1, 0))
	r.Short = r.AddScalar(complex(-1, 0))
	r.Match = r.AddScalar(complex(0, 0))
	r.Zero = r.AddScalar(complex(0, 0))
	return r
}

func (r *Registry) alloc(e *entry) Handle {
	r.next++
	h := r.next
	e.refcount = 1
	r.entries[h] = e
	return h
}

func (r *Registry) lookup(h Handle) (*entry, error) {
	e, ok := r.entries[h]
	if !ok {
		return nil, ErrInvalidHandle
	}
	return e, nil
}

// AddScalar registers a frequency-independent parameter.
func (r *Registry) AddScalar(value complex128) Handle {
	return r.alloc(&entry{kind: Scalar, scalar: value})
}

// AddVector registers a parameter sampled at freqs (strictly increasing,
// Hz) with the corresponding complex values, evaluated between samples
// by natural cubic spline (real and imaginary parts fit independently).
func (r *Registry) AddVector(freqs []float64, values []complex128) (Handle, error) {
	spline, err := cmat.NewComplexSpline(freqs, values)
	if err != nil {
		return 0, err
	}
	return r.alloc(&entry{kind: Vector, spline: spline}), nil
}

// AddUnknown registers a parameter to be solved for during calibration,
// with an initial guess (the zero value of complex128 is a reasonable
// default per spec §4.4).
func (r *Registry) AddUnknown(guess complex128) Handle {
	return r.alloc(&entry{kind: Unknown, guess: guess})
}

// AddCorrelated registers a parameter constrained, at solve time, to lie
// within tolerance of target's solved value. target must already be a
// registered handle; because a Correlated parameter can only reference
// a handle that exists before it is created, the reference graph is
// acyclic by construction — no runtime cycle check is needed.
func (r *Registry) AddCorrelated(target Handle, tolerance float64, guess complex128) (Handle, error) {
	if _, err := r.lookup(target); err != nil {
		return 0, err
	}
	r.Retain(target)
	return r.alloc(&entry{kind: Correlated, target: target, tolerance: tolerance, guess: guess}), nil
}

// Retain increments h's reference count. It panics on an invalid handle,
// matching the teacher's convention that a reference-counting misuse is
// a programmer error, not a runtime failure.
func (r *Registry) Retain(h Handle) {
	e, err := r.lookup(h)
	if err != nil {
		panic(err)
	}
	e.refcount++
}

// Release decrements h's reference count, freeing the entry (and
// releasing its target, if Correlated) when it reaches zero. Releasing
// an invalid or already-freed handle returns ErrInvalidHandle.
func (r *Registry) Release(h Handle) error {
	e, err := r.lookup(h)
	if err != nil {
		return err
	}
	e.refcount--
	if e.refcount > 0 {
		return nil
	}
	delete(r.entries, h)
	if e.kind == Correlated {
		return r.Release(e.target)
	}
	return nil
}

// KindOf reports h's variant.
func (r *Registry) KindOf(h Handle) (Kind, error) {
	e, err := r.lookup(h)
	if err != nil {
		return 0, err
	}
	return e.kind, nil
}

// IsSolvable reports whether h is an Unknown or Correlated parameter —
// one the solve engine must assign a value to.
func (r *Registry) IsSolvable(h Handle) (bool, error) {
	e, err := r.lookup(h)
	if err != nil {
		return false, err
	}
	return e.kind == Unknown || e.kind == Correlated, nil
}

// Value resolves h to its complex value at frequency freq (Hz). For
// Scalar it is constant; for Vector it is the spline prediction, and if
// freq falls outside the fitted range the value still clamps (per spec
// §4.4) but, unless allowExtrapolate is set, Value reports a Math error
// through ec and returns the clamped value anyway so callers that choose
// to proceed (ec non-fatal) still get a usable number. For Unknown and
// Correlated, Value returns the solved value once SetSolved has been
// called, otherwise the initial guess.
func (r *Registry) Value(h Handle, freq float64, allowExtrapolate bool, ec *vnaerr.Context) (complex128, error) {
	e, err := r.lookup(h)
	if err != nil {
		return 0, err
	}
	switch e.kind {
	case Scalar:
		return e.scalar, nil
	case Vector:
		v := e.spline.Predict(freq)
		if !e.spline.InRange(freq) && !allowExtrapolate {
			ec.Report(vnaerr.New(vnaerr.Math, "vector parameter evaluated outside its fitted frequency range at %g Hz", freq))
		}
		return v, nil
	case Unknown, Correlated:
		if e.hasSolved {
			return e.solved, nil
		}
		return e.guess, nil
	default:
		return 0, ErrInvalidHandle
	}
}

// SetSolved records h's solved value, computed by the calibration solve
// engine. For a Correlated parameter it also validates the result
// against its target's current solved value (or guess, if the target
// has not yet been solved) and reports a Math error through ec if the
// tolerance is exceeded; the solved value is still recorded.
func (r *Registry) SetSolved(h Handle, value complex128, ec *vnaerr.Context) error {
	e, err := r.lookup(h)
	if err != nil {
		return err
	}
	if e.kind != Unknown && e.kind != Correlated {
		return ErrNotSolvable
	}
	e.solved = value
	e.hasSolved = true
	if e.kind == Correlated {
		target, err := r.lookup(e.target)
		if err != nil {
			return err
		}
		ref := target.guess
		if target.hasSolved {
			ref = target.solved
		}
		if d := cmplx.Abs(value - ref); d > e.tolerance {
			ec.Report(vnaerr.New(vnaerr.Math, "correlated parameter deviates from its target by %g, exceeding tolerance %g", d, e.tolerance))
		}
	}
	return nil
}
