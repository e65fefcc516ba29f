package compiler

import (
	"strings"
	"testing"

	"github.com/chazu/magpie/vm"
)

func resolveSource(t *testing.T, source string) (*ModuleAst, *Resolution, *Diagnostics) {
	t.Helper()
	parseDiags := NewDiagnostics("test")
	ast := Parse("test", source, parseDiags)
	if parseDiags.HasErrors() {
		t.Fatalf("parse errors: %v", parseDiags.Err())
	}

	rt := vm.NewRuntime()
	module := vm.NewModule("test")
	module.AddImport(rt.CoreModule())

	diags := NewDiagnostics("test")
	res := NewResolver(module, diags).ResolveMethod(nil, ast.Body)
	return ast, res, diags
}

// namesIn returns every name reference in a resolution, keyed by name. Later
// references with the same name win.
func namesIn(res *Resolution) map[string]Resolved {
	out := make(map[string]Resolved)
	for n, r := range res.Names {
		out[n.Name] = r
	}
	return out
}

func TestResolveLocalsAndModuleExports(t *testing.T) {
	_, res, diags := resolveSource(t, "var a = 1\nvar b = a\nb is Num")
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.Err())
	}

	names := namesIn(res)
	if r := names["a"]; r.Kind != ResolvedLocal || r.Slot != 1 {
		t.Errorf("a = %+v, want local slot 1", r)
	}
	if r := names["b"]; r.Kind != ResolvedLocal || r.Slot != 2 {
		t.Errorf("b = %+v, want local slot 2", r)
	}

	core := vm.NewRuntime().CoreModule()
	if r := names["Num"]; r.Kind != ResolvedModule || r.Import != 0 || r.Export != core.FindExport("Num") {
		t.Errorf("Num = %+v, want import 0 export %d", r, core.FindExport("Num"))
	}
}

func TestResolveUnknownNameIsReportedAndContinues(t *testing.T) {
	_, res, diags := resolveSource(t, "missing\nalsoMissing")
	if diags.Len() != 2 {
		t.Fatalf("got %d diagnostics, want 2: %v", diags.Len(), diags.Err())
	}
	if !strings.Contains(diags.List()[0].Message, "missing") {
		t.Errorf("message = %q, want it to name the variable", diags.List()[0].Message)
	}
	for n, r := range res.Names {
		if r.Kind != ResolvedUnresolved {
			t.Errorf("%s = %+v, want unresolved placeholder", n.Name, r)
		}
	}
}

func TestResolveDuplicateInSameScope(t *testing.T) {
	_, _, diags := resolveSource(t, "var x = 1\nvar x = 2")
	if diags.Len() != 1 {
		t.Fatalf("got %d diagnostics, want 1", diags.Len())
	}
	if !strings.Contains(diags.List()[0].Message, "already a variable 'x'") {
		t.Errorf("message = %q", diags.List()[0].Message)
	}
}

func TestResolveShadowingInNestedScope(t *testing.T) {
	_, _, diags := resolveSource(t, "var x = 1\ndo\n  var x = 2\nend")
	if diags.HasErrors() {
		t.Errorf("shadowing in a nested scope reported: %v", diags.Err())
	}
}

func TestResolveScopeEnds(t *testing.T) {
	_, _, diags := resolveSource(t, "do\n  var inner = 1\nend\ninner")
	if diags.Len() != 1 {
		t.Fatalf("got %d diagnostics, want 1 for inner out of scope", diags.Len())
	}
}

func TestResolveMatchBindings(t *testing.T) {
	_, res, diags := resolveSource(t, `match (x: 1, y: 2)
case (x: a, y: b) then a + b
end`)
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.Err())
	}
	slots := make(map[string]int)
	for p, slot := range res.Bindings {
		slots[p.Name] = slot
	}
	if slots["a"] != 1 || slots["b"] != 2 {
		t.Errorf("bindings = %v, want a:1 b:2", slots)
	}
}

func TestResolveHoistsOperandVariables(t *testing.T) {
	_, res, diags := resolveSource(t, "var r = 1 + (var y = 2) * y")
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.Err())
	}
	slots := make(map[string]int)
	for p, slot := range res.Bindings {
		slots[p.Name] = slot
	}
	if slots["r"] != 1 || slots["y"] != 2 {
		t.Errorf("bindings = %v, want r:1 y:2", slots)
	}
	if r := namesIn(res)["y"]; r.Kind != ResolvedLocal || r.Slot != 2 {
		t.Errorf("y = %+v, want local slot 2", r)
	}
}

func TestResolveBothCallArgumentsReported(t *testing.T) {
	_, _, diags := resolveSource(t, "1 foo(2)")
	if diags.Len() != 1 || !strings.Contains(diags.List()[0].Message, "not supported") {
		t.Errorf("diagnostics = %v, want one 'not supported' error", diags.Err())
	}
}

func TestResolveMultipleCatchClausesReported(t *testing.T) {
	_, _, diags := resolveSource(t, "do\n  1\ncatch a then 1\ncatch b then 2\nend")
	if diags.Len() != 1 || !strings.Contains(diags.List()[0].Message, "single catch") {
		t.Errorf("diagnostics = %v, want one catch clause error", diags.Err())
	}
}

func TestResolutionNamePanicsOnUnvisited(t *testing.T) {
	res := &Resolution{Names: map[*NameExpr]Resolved{}}
	expectPanic(t, "was not resolved", func() {
		res.Name(&NameExpr{Name: "ghost"})
	})
}

func TestResolveOperandVariablesEndWithTheirExpression(t *testing.T) {
	outside := []string{
		"1 + (var z = 1)\nz",
		"print(var z = 1)\nz",
		"not (var z = true)\nz",
		"(var z = true) and true\nz",
		"(var z = 1) is Num\nz",
		"match (var z = 1) case _ then 2 end\nz",
	}
	for _, source := range outside {
		_, _, diags := resolveSource(t, source)
		if diags.Len() != 1 || !strings.Contains(diags.List()[0].Message, "'z'") {
			t.Errorf("%q: diagnostics = %v, want z out of scope", source, diags.Err())
		}
	}

	inside := []string{
		"(var z = 1) + z",
		"(var z = true) and z",
		"match (var z = 1) case _ then z end",
		"if (var z = true) then z end",
	}
	for _, source := range inside {
		if _, _, diags := resolveSource(t, source); diags.HasErrors() {
			t.Errorf("%q: unexpected errors: %v", source, diags.Err())
		}
	}
}
