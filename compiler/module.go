package compiler

import (
	"github.com/tliron/commonlog"

	"github.com/chazu/magpie/vm"
)

// ---------------------------------------------------------------------------
// Module driver: declare, then define, then wrap the top-level body
// ---------------------------------------------------------------------------

// ModuleBodyName is the name given to a module's top-level code.
const ModuleBodyName = "<module>"

var log = commonlog.GetLogger("magpie.compiler")

// CompileModule compiles every definition of a parsed module into the
// runtime's method table and returns the module with its body method bound.
//
// All signatures are declared before any body is compiled, so definitions
// may call each other regardless of order. Errors go to reporter and
// compilation always runs to the end.
func CompileModule(rt *vm.Runtime, ast *ModuleAst, reporter Reporter) *vm.Module {
	module := vm.NewModule(ast.Name)
	module.AddImport(rt.CoreModule())

	signatures := make([]string, len(ast.Defs))
	for i, def := range ast.Defs {
		signatures[i] = DefinitionSignature(def)
		slot := rt.Methods.Declare(signatures[i])
		log.Debugf("declared %q in slot %d", signatures[i], slot)
	}

	for i, def := range ast.Defs {
		param := def.Left
		if def.Left != nil && def.Right != nil {
			reporter.Error(def.Span().Start,
				"methods with both a left and a right parameter are not supported yet")
		} else if param == nil {
			param = def.Right
		}

		method := vm.NewMethod(module, def.Name)
		method.Signature = signatures[i]
		compileMethod(rt, method, param, def.Body, reporter)
		define(rt, signatures[i], method)
	}

	body := vm.NewMethod(module, ModuleBodyName)
	compileMethod(rt, body, nil, ast.Body, reporter)
	module.BindBody(body)

	log.Debugf("compiled module %s (%s): %d methods", module.Name, module.ID, len(ast.Defs))
	return module
}

// CompileMethod resolves and compiles a single method.
func CompileMethod(rt *vm.Runtime, module *vm.Module, name string, param Pattern, body Expr, reporter Reporter) *vm.Method {
	method := vm.NewMethod(module, name)
	compileMethod(rt, method, param, body, reporter)
	return method
}

func compileMethod(rt *vm.Runtime, method *vm.Method, param Pattern, body Expr, reporter Reporter) {
	resolution := NewResolver(method.Module, reporter).ResolveMethod(param, body)
	NewCompiler(rt, method, resolution, reporter).CompileMethod(param, body)
}

// define installs method, logging when it replaces a different body.
func define(rt *vm.Runtime, signature string, method *vm.Method) {
	slot, previous := rt.Methods.Define(signature, method)
	if previous == nil {
		log.Debugf("defined %q in slot %d", signature, slot)
		return
	}

	before, err := vm.Fingerprint(previous)
	if err != nil {
		log.Errorf("fingerprint %q: %s", signature, err.Error())
		return
	}
	after, err := vm.Fingerprint(method)
	if err != nil {
		log.Errorf("fingerprint %q: %s", signature, err.Error())
		return
	}
	if before != after {
		log.Warningf("redefined %q in slot %d with a different body", signature, slot)
	} else {
		log.Debugf("redefined %q in slot %d with an identical body", signature, slot)
	}
}

// CompileSource parses and compiles a source file. Parse errors are
// reported and whatever parsed cleanly is still compiled.
func CompileSource(rt *vm.Runtime, name, source string, reporter Reporter) *vm.Module {
	return CompileModule(rt, Parse(name, source, reporter), reporter)
}
