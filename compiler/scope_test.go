package compiler

import (
	"strings"
	"testing"
)

// expectPanic runs fn and fails unless it panics with a message containing
// want.
func expectPanic(t *testing.T, want string, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected panic containing %q", want)
		}
		if msg, ok := r.(string); !ok || !strings.Contains(msg, want) {
			t.Fatalf("panic = %v, want message containing %q", r, want)
		}
	}()
	fn()
}

func TestRegisterAllocatorTempsAboveLocals(t *testing.T) {
	r := newRegisterAllocator()
	r.openScope()

	a := r.declareLocal("a", &VariablePattern{Name: "a"})
	b := r.declareLocal("b", &VariablePattern{Name: "b"})
	if a != 0 || b != 1 {
		t.Fatalf("locals = %d, %d, want 0, 1", a, b)
	}

	t1 := r.makeTemp()
	t2 := r.makeTemp()
	if t1 != 2 || t2 != 3 {
		t.Errorf("temps = %d, %d, want 2, 3", t1, t2)
	}
	for _, tmp := range []int{t1, t2} {
		if tmp <= b {
			t.Errorf("temp %d is not above local %d", tmp, b)
		}
	}

	r.releaseTemp()
	r.releaseTemp()
	r.closeScope()

	if got := r.maxRegisters(); got != 4 {
		t.Errorf("maxRegisters() = %d, want 4", got)
	}
}

func TestRegisterAllocatorMaxIsPeak(t *testing.T) {
	r := newRegisterAllocator()
	r.openScope()
	r.declareLocal("x", &VariablePattern{Name: "x"})

	// Peak of 1 local + 3 temps inside a sibling scope.
	r.openScope()
	r.makeTemp()
	r.makeTemp()
	r.makeTemp()
	r.releaseTemp()
	r.releaseTemp()
	r.releaseTemp()
	r.closeScope()

	// Later scope with 2 locals + 1 temp stays below the peak.
	r.openScope()
	r.declareLocal("y", &VariablePattern{Name: "y"})
	r.makeTemp()
	r.releaseTemp()
	r.closeScope()

	r.closeScope()

	if got := r.maxRegisters(); got != 4 {
		t.Errorf("maxRegisters() = %d, want 4", got)
	}
}

func TestRegisterAllocatorSiblingScopesReuseSlots(t *testing.T) {
	r := newRegisterAllocator()
	r.openScope()

	r.openScope()
	first := r.declareLocal("a", &VariablePattern{Name: "a"})
	r.closeScope()

	r.openScope()
	second := r.declareLocal("b", &VariablePattern{Name: "b"})
	r.closeScope()

	r.closeScope()

	if first != second {
		t.Errorf("sibling locals in slots %d and %d, want the same slot", first, second)
	}
	if _, ok := r.lookup("a"); ok {
		t.Errorf("a is still visible after its scope closed")
	}
}

func TestRegisterAllocatorCloseWithLiveTempsPanics(t *testing.T) {
	r := newRegisterAllocator()
	r.openScope()
	r.makeTemp()
	expectPanic(t, "live temporaries", r.closeScope)
}

func TestRegisterAllocatorCloseKeepsOuterTemps(t *testing.T) {
	r := newRegisterAllocator()
	r.openScope()
	outer := r.makeTemp()

	// A scope opened while a temp is live may close once its own temps
	// are released.
	r.openScope()
	inner := r.makeTemp()
	if inner <= outer {
		t.Errorf("inner temp %d not above outer temp %d", inner, outer)
	}
	r.releaseTemp()
	r.closeScope()

	r.releaseTemp()
	r.closeScope()
}

func TestRegisterAllocatorReleaseWithoutTempPanics(t *testing.T) {
	r := newRegisterAllocator()
	r.openScope()
	expectPanic(t, "no temporary", r.releaseTemp)
}

func TestRegisterAllocatorCloseUnopenedPanics(t *testing.T) {
	r := newRegisterAllocator()
	expectPanic(t, "not open", r.closeScope)
}

func TestRegisterAllocatorDeclareWithLiveTempPanics(t *testing.T) {
	r := newRegisterAllocator()
	r.openScope()
	r.makeTemp()
	expectPanic(t, "temporaries are live", func() {
		r.declareLocal("x", &VariablePattern{Name: "x"})
	})
}

func TestRegisterAllocatorHoistedDeclareWithLiveTemp(t *testing.T) {
	r := newRegisterAllocator()
	r.openScope()

	x := &VariablePattern{Name: "x"}
	r.hoistLocals([]*VariablePattern{x})
	tmp := r.makeTemp()

	slot := r.declareLocal("x", x)
	if slot != 0 {
		t.Errorf("hoisted slot = %d, want 0", slot)
	}
	if tmp <= slot {
		t.Errorf("temp %d not above hoisted local %d", tmp, slot)
	}
	if l, ok := r.lookup("x"); !ok || l.slot != 0 {
		t.Errorf("lookup(x) = %v, %v, want slot 0", l, ok)
	}

	r.releaseTemp()
	r.closeScope()
}

func TestLocalStackDuplicates(t *testing.T) {
	s := newLocalStack()
	s.open(0)

	if _, dup := s.declare("x", &VariablePattern{Name: "x"}); dup {
		t.Errorf("first x reported as duplicate")
	}
	if _, dup := s.declare("x", &VariablePattern{Name: "x"}); !dup {
		t.Errorf("second x in the same scope not reported")
	}

	s.open(0)
	if _, dup := s.declare("x", &VariablePattern{Name: "x"}); dup {
		t.Errorf("shadowing x in a nested scope reported as duplicate")
	}
	s.close()
	s.close()

	if s.depth() != 0 {
		t.Errorf("depth() = %d, want 0", s.depth())
	}
}
