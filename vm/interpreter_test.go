package vm

import (
	"bytes"
	"errors"
	"testing"
)

// assemble builds a method from hand-written instructions.
func assemble(rt *Runtime, registers int, constants []Value, code ...Instruction) *Method {
	module := NewModule("test")
	module.AddImport(rt.CoreModule())
	m := NewMethod(module, "test")
	for _, c := range constants {
		m.AddConstant(c)
	}
	m.SetCode(code, registers)
	return m
}

func run(t *testing.T, rt *Runtime, m *Method) (Value, error) {
	t.Helper()
	interp := NewInterpreter(rt)
	interp.Out = &bytes.Buffer{}
	return interp.Call(m, Nothing)
}

func TestInterpreter_Arithmetic(t *testing.T) {
	rt := NewRuntime()
	m := assemble(rt, 2, []Value{Number(6), Number(7)},
		MakeABC(OpConstant, 1, 1, 0),
		MakeABC(OpMultiply, MakeConstant(0), 1, 0),
		MakeABC(OpReturn, 0, 0, 0),
	)

	got, err := run(t, rt, m)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got != Number(42) {
		t.Errorf("result = %v, want 42", got)
	}
}

func TestInterpreter_Jumps(t *testing.T) {
	rt := NewRuntime()
	m := assemble(rt, 1, []Value{String("yes"), String("no")},
		MakeABC(OpBuiltIn, int(BuiltInFalse), 0, 0),
		MakeABC(OpJumpIfFalse, 0, 2, 0xff),
		MakeABC(OpConstant, 0, 0, 0),
		MakeABC(OpJump, 1, 0xff, 0xff),
		MakeABC(OpConstant, 1, 0, 0),
		MakeABC(OpReturn, 0, 0, 0),
	)

	got, err := run(t, rt, m)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got != String("no") {
		t.Errorf("result = %v, want no", got)
	}
}

func TestInterpreter_RecordFields(t *testing.T) {
	rt := NewRuntime()
	x, y := rt.AddSymbol("x"), rt.AddSymbol("y")
	shape := rt.AddRecordType([]int{x, y})

	m := assemble(rt, 3, []Value{Number(1), Number(2)},
		MakeABC(OpConstant, 0, 1, 0),
		MakeABC(OpConstant, 1, 2, 0),
		MakeABC(OpRecord, 1, shape, 0),
		MakeABC(OpGetField, 0, y, 0),
		MakeABC(OpReturn, 0, 0, 0),
	)

	got, err := run(t, rt, m)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got != Number(2) {
		t.Errorf("result = %v, want 2", got)
	}
}

func TestInterpreter_TestFieldSkipsJump(t *testing.T) {
	rt := NewRuntime()
	x := rt.AddSymbol("x")
	missing := rt.AddSymbol("missing")
	shape := rt.AddRecordType([]int{x})

	body := func(field int) *Method {
		return assemble(rt, 3, []Value{Number(5), String("failed")},
			MakeABC(OpConstant, 0, 1, 0),
			MakeABC(OpRecord, 1, shape, 0),
			MakeABC(OpTestField, 0, field, 2),
			MakeABC(OpJump, 2, 0xff, 0xff),
			MakeABC(OpMove, 2, 0, 0),
			MakeABC(OpReturn, 0, 0, 0),
			MakeABC(OpConstant, 1, 0, 0),
			MakeABC(OpReturn, 0, 0, 0),
		)
	}

	if got, err := run(t, rt, body(x)); err != nil || got != Number(5) {
		t.Errorf("present field: (%v, %v), want 5", got, err)
	}
	if got, err := run(t, rt, body(missing)); err != nil || got != String("failed") {
		t.Errorf("missing field: (%v, %v), want failed", got, err)
	}
}

func TestInterpreter_GetFieldRaisesNoMatch(t *testing.T) {
	rt := NewRuntime()
	m := assemble(rt, 1, []Value{Number(1)},
		MakeABC(OpConstant, 0, 0, 0),
		MakeABC(OpGetField, 0, rt.AddSymbol("x"), 0),
		MakeABC(OpReturn, 0, 0, 0),
	)

	_, err := run(t, rt, m)
	if !IsNoMatch(err) {
		t.Errorf("err = %v, want NoMatchError", err)
	}
}

func TestInterpreter_TryCatch(t *testing.T) {
	rt := NewRuntime()
	m := assemble(rt, 2, []Value{String("boom")},
		MakeABC(OpEnterTry, 3, 1, 0xff),
		MakeABC(OpConstant, 0, 0, 0),
		MakeABC(OpThrow, 0, 0, 0),
		MakeABC(OpExitTry, 0, 0, 0),
		MakeABC(OpReturn, 1, 0, 0),
	)

	got, err := run(t, rt, m)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got != String("boom") {
		t.Errorf("caught = %v, want boom", got)
	}
}

func TestInterpreter_UncaughtThrow(t *testing.T) {
	rt := NewRuntime()
	m := assemble(rt, 1, []Value{String("bad")},
		MakeABC(OpConstant, 0, 0, 0),
		MakeABC(OpThrow, 0, 0, 0),
	)

	_, err := run(t, rt, m)
	var rerr *RuntimeError
	if !errors.As(err, &rerr) || rerr.Value != String("bad") {
		t.Errorf("err = %v, want RuntimeError(bad)", err)
	}
	if IsNoMatch(err) {
		t.Errorf("plain throw reported as NoMatchError")
	}
}

func TestInterpreter_TestMatch(t *testing.T) {
	rt := NewRuntime()
	m := assemble(rt, 1, nil,
		MakeABC(OpBuiltIn, int(BuiltInFalse), 0, 0),
		MakeABC(OpTestMatch, 0, 0, 0),
		MakeABC(OpReturn, 0, 0, 0),
	)
	if _, err := run(t, rt, m); !IsNoMatch(err) {
		t.Errorf("err = %v, want NoMatchError", err)
	}
}

func TestInterpreter_CallNative(t *testing.T) {
	rt := NewRuntime()
	var out bytes.Buffer
	interp := NewInterpreter(rt)
	interp.Out = &out

	m := assemble(rt, 1, []Value{Number(3.5)},
		MakeABC(OpConstant, 0, 0, 0),
		MakeABC(OpCall, rt.Methods.Find("0: string"), 0, 0),
		MakeABC(OpCall, rt.Methods.Find("print 0:"), 0, 0),
		MakeABC(OpReturn, 0, 0, 0),
	)

	got, err := interp.Call(m, Nothing)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got != String("3.5") || out.String() != "3.5\n" {
		t.Errorf("result = %v, output = %q", got, out.String())
	}
}

func TestInterpreter_GetModuleAndIs(t *testing.T) {
	rt := NewRuntime()
	num := rt.CoreModule().FindExport("Num")
	m := assemble(rt, 2, []Value{Number(1)},
		MakeABC(OpConstant, 0, 0, 0),
		MakeABC(OpGetModule, 0, num, 1),
		MakeABC(OpIs, 0, 1, 0),
		MakeABC(OpReturn, 0, 0, 0),
	)

	got, err := run(t, rt, m)
	if err != nil || got != Bool(true) {
		t.Errorf("1 is Num = (%v, %v), want true", got, err)
	}
}

func TestInterpreter_TypeErrors(t *testing.T) {
	rt := NewRuntime()
	m := assemble(rt, 1, []Value{Number(1), String("s")},
		MakeABC(OpAdd, MakeConstant(0), MakeConstant(1), 0),
		MakeABC(OpReturn, 0, 0, 0),
	)

	_, err := run(t, rt, m)
	var rerr *RuntimeError
	if !errors.As(err, &rerr) || !IsInstance(rerr.Value, TypeError) {
		t.Errorf("err = %v, want a TypeError", err)
	}
}

func TestInterpreter_DepthLimit(t *testing.T) {
	rt := NewRuntime()
	m := NewMethod(NewModule("test"), "loop")
	slot, _ := rt.Methods.Define("loop", m)
	m.SetCode([]Instruction{
		MakeABC(OpCall, slot, 0, 0),
		MakeABC(OpReturn, 0, 0, 0),
	}, 1)

	interp := NewInterpreter(rt)
	interp.MaxDepth = 50
	if _, err := interp.Call(m, Nothing); err == nil {
		t.Errorf("unbounded recursion did not fail")
	}
}

func TestValues_EqualityAndTruth(t *testing.T) {
	rt := NewRuntime()
	shape := rt.RecordTypes.Get(rt.AddRecordType([]int{rt.AddSymbol("x")}))
	a := &Record{Shape: shape, Fields: []Value{Number(1)}}
	b := &Record{Shape: shape, Fields: []Value{Number(1)}}

	if !Equal(a, b) {
		t.Errorf("structurally equal records compare unequal")
	}
	if Equal(Number(1), String("1")) {
		t.Errorf("1 == \"1\"")
	}
	if Truthy(Nothing) || Truthy(Bool(false)) || !Truthy(Number(0)) {
		t.Errorf("truthiness: only false and nothing are falsey")
	}
	if !IsInstance(&ErrorObject{Type: TypeNoMatchError}, TypeError) {
		t.Errorf("NoMatchError is not an Error")
	}
	if a.String() != "(x: 1)" {
		t.Errorf("record prints as %q", a.String())
	}
}
