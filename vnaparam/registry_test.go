package vnaparam

import (
	"math/cmplx"
	"testing"

	"github.com/scott-guthridge/vnacal/vnaerr"
)

func TestScalarValue(t *testing.T) {
	r := NewRegistry()
	h := r.AddScalar(complex(3, 4))
	v, err := r.Value(h, 1e9, false, nil)
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	if v != complex(3, 4) {
		t.Errorf("Value = %v, want 3+4i", v)
	}
}

func TestVectorInterpolatesAndClamps(t *testing.T) {
	r := NewRegistry()
	freqs := []float64{1e9, 2e9, 3e9}
	vals := []complex128{1, 2, 3}
	h, err := r.AddVector(freqs, vals)
	if err != nil {
		t.Fatalf("AddVector: %v", err)
	}
	v, err := r.Value(h, 2e9, false, nil)
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	if cmplx.Abs(v-2) > 1e-9 {
		t.Errorf("Value(2e9) = %v, want ~2", v)
	}

	var reported []vnaerr.Category
	ec := vnaerr.NewContext(0, func(cat vnaerr.Category, msg string, arg any) {
		reported = append(reported, cat)
	}, nil)
	if _, err := r.Value(h, 10e9, false, ec); err != nil {
		t.Fatalf("Value: %v", err)
	}
	if len(reported) != 1 || reported[0] != vnaerr.Math {
		t.Errorf("extrapolation did not report a Math error: %v", reported)
	}

	reported = nil
	if _, err := r.Value(h, 10e9, true, ec); err != nil {
		t.Fatalf("Value: %v", err)
	}
	if len(reported) != 0 {
		t.Errorf("extrapolation with allowExtrapolate reported: %v", reported)
	}
}

func TestUnknownDefaultsToGuessThenSolved(t *testing.T) {
	r := NewRegistry()
	h := r.AddUnknown(complex(1, 0))
	v, _ := r.Value(h, 1e9, false, nil)
	if v != complex(1, 0) {
		t.Errorf("pre-solve Value = %v, want guess 1", v)
	}
	if err := r.SetSolved(h, complex(5, 6), nil); err != nil {
		t.Fatalf("SetSolved: %v", err)
	}
	v, _ = r.Value(h, 1e9, false, nil)
	if v != complex(5, 6) {
		t.Errorf("post-solve Value = %v, want 5+6i", v)
	}
}

func TestCorrelatedWithinTolerance(t *testing.T) {
	r := NewRegistry()
	target := r.AddUnknown(complex(1, 0))
	corr, err := r.AddCorrelated(target, 0.1, complex(1, 0))
	if err != nil {
		t.Fatalf("AddCorrelated: %v", err)
	}
	r.SetSolved(target, complex(1.0, 0), nil)

	var reported []vnaerr.Category
	ec := vnaerr.NewContext(0, func(cat vnaerr.Category, msg string, arg any) {
		reported = append(reported, cat)
	}, nil)
	if err := r.SetSolved(corr, complex(1.05, 0), ec); err != nil {
		t.Fatalf("SetSolved: %v", err)
	}
	if len(reported) != 0 {
		t.Errorf("within-tolerance deviation reported an error: %v", reported)
	}
}

func TestCorrelatedExceedsTolerance(t *testing.T) {
	r := NewRegistry()
	target := r.AddUnknown(complex(1, 0))
	corr, _ := r.AddCorrelated(target, 0.01, complex(1, 0))
	r.SetSolved(target, complex(1.0, 0), nil)

	var reported []vnaerr.Category
	ec := vnaerr.NewContext(0, func(cat vnaerr.Category, msg string, arg any) {
		reported = append(reported, cat)
	}, nil)
	if err := r.SetSolved(corr, complex(1.5, 0), ec); err != nil {
		t.Fatalf("SetSolved: %v", err)
	}
	if len(reported) != 1 || reported[0] != vnaerr.Math {
		t.Errorf("out-of-tolerance deviation did not report Math: %v", reported)
	}
}

func TestReleaseCascadesToTarget(t *testing.T) {
	r := NewRegistry()
	target := r.AddUnknown(0)
	corr, _ := r.AddCorrelated(target, 1, 0)

	if err := r.Release(corr); err != nil {
		t.Fatalf("Release(corr): %v", err)
	}
	if _, err := r.KindOf(target); err == nil {
		t.Error("target handle still valid after owning correlated parameter released")
	}
}

func TestRetainKeepsAlive(t *testing.T) {
	r := NewRegistry()
	h := r.AddScalar(1)
	r.Retain(h)
	r.Release(h)
	if _, err := r.KindOf(h); err != nil {
		t.Errorf("handle freed after one of two releases: %v", err)
	}
	r.Release(h)
	if _, err := r.KindOf(h); err == nil {
		t.Error("handle still valid after matching releases")
	}
}

func TestInvalidHandle(t *testing.T) {
	r := NewRegistry()
	if _, err := r.KindOf(Handle(999)); err != ErrInvalidHandle {
		t.Errorf("KindOf(invalid) = %v, want ErrInvalidHandle", err)
	}
	if _, err := r.AddCorrelated(Handle(999), 1, 0); err != ErrInvalidHandle {
		t.Errorf("AddCorrelated(invalid target) = %v, want ErrInvalidHandle", err)
	}
}

func TestBuiltinParametersExist(t *testing.T) {
	r := NewRegistry()
	cases := []struct {
		h    Handle
		want complex128
	}{
		{r.Open, complex(1, 0)},
		{r.Short, complex(-1, 0)},
		{r.Match, complex(0, 0)},
		{r.Zero, complex(0, 0)},
	}
	for _, c := range cases {
		v, err := r.Value(c.h, 1e9, false, nil)
		if err != nil {
			t.Fatalf("Value(builtin): %v", err)
		}
		if v != c.want {
			t.Errorf("builtin = %v, want %v", v, c.want)
		}
	}
}

func TestSetSolvedRejectsNonSolvable(t *testing.T) {
	r := NewRegistry()
	h := r.AddScalar(1)
	if err := r.SetSolved(h, 2, nil); err != ErrNotSolvable {
		t.Errorf("SetSolved(scalar) = %v, want ErrNotSolvable", err)
	}
}
