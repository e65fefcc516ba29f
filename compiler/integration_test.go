package compiler

import (
	"bytes"
	"testing"

	"github.com/chazu/magpie/vm"
)

// Integration tests: compile real programs and execute them

func runSource(t *testing.T, source string) (vm.Value, string, error) {
	t.Helper()
	rt, module := compileSource(t, source)

	var out bytes.Buffer
	interp := vm.NewInterpreter(rt)
	interp.Out = &out
	result, err := interp.RunModule(module)
	return result, out.String(), err
}

func mustRun(t *testing.T, source string) (vm.Value, string) {
	t.Helper()
	result, out, err := runSource(t, source)
	if err != nil {
		t.Fatalf("run error: %v", err)
	}
	return result, out
}

func TestIntegrationResults(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   vm.Value
	}{
		{"arithmetic", "1 + 2 * 3 - 4 / 2", vm.Number(5)},
		{"grouping", "(1 + 2) * 3", vm.Number(9)},
		{"string concat", `"foo" + "bar"`, vm.String("foobar")},
		{"not equal", "1 != 2", vm.Bool(true)},
		{"less or equal", "2 <= 2", vm.Bool(true)},
		{"greater or equal", "3 >= 4", vm.Bool(false)},
		{"and", "true and 1 < 2", vm.Bool(true)},
		{"or short circuits", "false or 7", vm.Number(7)},
		{"not", "not nothing", vm.Bool(true)},
		{"is", "3 is Num", vm.Bool(true)},
		{"is not", `"s" is Num`, vm.Bool(false)},
		{"if in an operand", "1 + if true then 2 else 3 end", vm.Number(3)},
		{"if without else", "if false then 1 end", vm.Nothing},
		{"variables", "var a = 3\nvar b = a * 2\na + b", vm.Number(9)},
		{"var yields its value", "var a = 4", vm.Number(4)},
		{"hoisted operand variable", "var r = 1 + (var y = 2) * y\nr", vm.Number(5)},
		{"shadowing", "var x = 1\ndo\n  var x = 2\nend\nx", vm.Number(1)},
		{"destructuring", "var (x: a, y: b) = (x: 3, y: 4)\na * b", vm.Number(12)},
		{"positional destructuring", "var (a, b) = (5, 6)\nb - a", vm.Number(1)},
		{"string method", "(1 + 2) string", vm.String("3")},
		{"empty body", "", vm.Nothing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := mustRun(t, tt.source)
			if !vm.Equal(got, tt.want) {
				t.Errorf("result = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIntegrationMethods(t *testing.T) {
	got, _ := mustRun(t, `def double(n) n * 2 end
def (n) squared
  n * n
end
def answer
  42
end
double(3 squared) + answer()`)
	if !vm.Equal(got, vm.Number(60)) {
		t.Errorf("result = %v, want 60", got)
	}
}

func TestIntegrationMutualRecursion(t *testing.T) {
	got, _ := mustRun(t, `def even(n)
  if n == 0 then true else odd(n - 1) end
end
def odd(n)
  if n == 0 then false else even(n - 1) end
end
even(10)`)
	if got != vm.Bool(true) {
		t.Errorf("even(10) = %v, want true", got)
	}
}

func TestIntegrationRecordParameter(t *testing.T) {
	got, _ := mustRun(t, `def distance(x: dx, y: dy)
  dx * dx + dy * dy
end
distance(x: 3, y: 4)`)
	if !vm.Equal(got, vm.Number(25)) {
		t.Errorf("result = %v, want 25", got)
	}
}

func TestIntegrationMatchRunsOnlyTheMatchingCase(t *testing.T) {
	_, out := mustRun(t, `def classify(n)
  match n
  case 1 then print("one")
  case 2 then print("two")
  case _ then print("many")
  end
end
classify(2)
classify(5)`)
	if out != "two\nmany\n" {
		t.Errorf("output = %q, want %q", out, "two\nmany\n")
	}
}

func TestIntegrationMatchPatterns(t *testing.T) {
	source := `def describe(v)
  match v
  case (x: 0, y: y) then "on the y axis at " + y string
  case (x: x, y: 0) then "on the x axis at " + x string
  case n is Num then "number " + n string
  case == "magic" then "the magic word"
  case _ then "something else"
  end
end
var a = (x: 0, y: 2)
var b = (x: 5, y: 0)
var c = (x: 1, y: 1)
print(describe(a))
print(describe(b))
print(describe(c))
print(describe(7))
print(describe("magic"))
print(describe("plain"))`
	want := "on the y axis at 2\n" +
		"on the x axis at 5\n" +
		"something else\n" +
		"number 7\n" +
		"the magic word\n" +
		"something else\n"

	_, out := mustRun(t, source)
	if out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestIntegrationMatchBindingsDoNotLeak(t *testing.T) {
	got, _ := mustRun(t, `var a = "outer"
match 1
case a then a
end
a`)
	if got != vm.String("outer") {
		t.Errorf("a = %v, want outer", got)
	}
}

func TestIntegrationCatch(t *testing.T) {
	got, _ := mustRun(t, `do
  throw "boom"
catch e then
  e + "!"
end`)
	if got != vm.String("boom!") {
		t.Errorf("result = %v, want boom!", got)
	}
}

func TestIntegrationCatchSkippedWithoutThrow(t *testing.T) {
	got, out := mustRun(t, `do
  1
catch e then
  print("handler ran")
end`)
	if !vm.Equal(got, vm.Number(1)) {
		t.Errorf("result = %v, want 1", got)
	}
	if out != "" {
		t.Errorf("output = %q, want none", out)
	}
}

func TestIntegrationCatchNoMatch(t *testing.T) {
	got, _ := mustRun(t, `do
  var (x: a) = 3
  "unreachable"
catch e is NoMatchError then
  "caught"
end`)
	if got != vm.String("caught") {
		t.Errorf("result = %v, want caught", got)
	}
}

func TestIntegrationThrowAcrossCalls(t *testing.T) {
	got, _ := mustRun(t, `def fail(v) throw v end
do
  fail("deep")
catch e then
  e
end`)
	if got != vm.String("deep") {
		t.Errorf("result = %v, want deep", got)
	}
}

func TestIntegrationUncaughtNoMatch(t *testing.T) {
	_, _, err := runSource(t, "var (x: a) = 3\na")
	if err == nil {
		t.Fatalf("expected an error")
	}
	if !vm.IsNoMatch(err) {
		t.Errorf("error = %v, want NoMatchError", err)
	}

	_, _, err = runSource(t, "match 1\ncase 2 then 2\nend")
	if !vm.IsNoMatch(err) {
		t.Errorf("error = %v, want NoMatchError from the last case", err)
	}
}

func TestIntegrationUncaughtThrow(t *testing.T) {
	_, _, err := runSource(t, `throw "bad"`)
	if err == nil {
		t.Fatalf("expected an error")
	}
	if vm.IsNoMatch(err) {
		t.Errorf("plain throw reported as NoMatchError")
	}
	if err.Error() != "uncaught error: bad" {
		t.Errorf("error = %q", err.Error())
	}
}

func TestIntegrationEarlyReturn(t *testing.T) {
	got, _ := mustRun(t, `def sign(n)
  if n > 0 then return "positive" end
  if n < 0 then return "negative" end
  "zero"
end
sign(3) + sign(0 - 1) + sign(0)`)
	if got != vm.String("positivenegativezero") {
		t.Errorf("result = %v", got)
	}
}

func TestIntegrationPrintRecord(t *testing.T) {
	_, out := mustRun(t, "var p = (x: 1, y: 2)\nprint(p)\nprint(p is Record)")
	if out != "(x: 1, y: 2)\ntrue\n" {
		t.Errorf("output = %q", out)
	}
}

func TestIntegrationRecursion(t *testing.T) {
	got, _ := mustRun(t, `def fib(n)
  if n < 2 then n else fib(n - 1) + fib(n - 2) end
end
fib(15)`)
	if !vm.Equal(got, vm.Number(610)) {
		t.Errorf("fib(15) = %v, want 610", got)
	}
}
