package vnaerr

import (
	"testing"

	"gonum.org/v1/gonum/floats"
)

func TestErrorString(t *testing.T) {
	e := AtFreq(Math, 3, "singular matrix, |det|=%g", 0.0)
	want := "math: singular matrix, |det|=0 (frequency index 3)"
	if got := e.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestReportInvokesOnce(t *testing.T) {
	var calls int
	var gotCat Category
	var gotMsg string
	cb := func(cat Category, msg string, arg any) {
		calls++
		gotCat = cat
		gotMsg = msg
	}
	ctx := NewContext(1e-6, cb, "argval")
	ctx.Report(New(Usage, "bad dimension %d", 5))
	if calls != 1 {
		t.Fatalf("callback invoked %d times, want 1", calls)
	}
	if gotCat != Usage {
		t.Errorf("category = %v, want Usage", gotCat)
	}
	if gotMsg != "usage: bad dimension 5" {
		t.Errorf("msg = %q", gotMsg)
	}
}

func TestReportNilIsNoOp(t *testing.T) {
	ctx := NewContext(0, nil, nil)
	ctx.Report(nil) // must not panic
	var c *Context
	c.Report(New(Internal, "unreachable")) // nil receiver must not panic
}

func TestNewContextDefaultTolerance(t *testing.T) {
	ctx := NewContext(0, nil, nil)
	if !floats.EqualWithinAbsOrRel(ctx.Tolerance, DefaultTolerance, 1e-12, 1e-12) {
		t.Errorf("Tolerance = %v, want %v", ctx.Tolerance, DefaultTolerance)
	}
	ctx2 := NewContext(1e-3, nil, nil)
	if !floats.EqualWithinAbsOrRel(ctx2.Tolerance, 1e-3, 1e-12, 1e-12) {
		t.Errorf("Tolerance = %v, want 1e-3", ctx2.Tolerance)
	}
}
