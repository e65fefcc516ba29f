package compiler

import (
	"github.com/chazu/magpie/vm"
)

// ---------------------------------------------------------------------------
// Resolver: Binds names to local slots or module exports
// ---------------------------------------------------------------------------

// ResolvedKind says where a name lives.
type ResolvedKind int

const (
	// ResolvedUnresolved marks a name that could not be found. Code
	// generation loads nothing in its place.
	ResolvedUnresolved ResolvedKind = iota
	// ResolvedLocal is a variable in the method's register window.
	ResolvedLocal
	// ResolvedModule is an export of an imported module.
	ResolvedModule
)

// Resolved is the resolution of one name reference.
type Resolved struct {
	Kind   ResolvedKind
	Slot   int // ResolvedLocal
	Import int // ResolvedModule
	Export int // ResolvedModule
}

// Resolution holds the results of resolving one method. It is a side table
// keyed by node identity; the AST itself is never modified.
type Resolution struct {
	Names    map[*NameExpr]Resolved
	Bindings map[*VariablePattern]int
}

// Name returns the resolution of a name reference. It panics if the
// reference was never visited, which means the resolver and the code
// generator walked different trees.
func (r *Resolution) Name(n *NameExpr) Resolved {
	res, ok := r.Names[n]
	if !ok {
		panic("compiler: name " + n.Name + " was not resolved")
	}
	return res
}

// Resolver walks one method and records what every name refers to.
type Resolver struct {
	module   *vm.Module
	reporter Reporter
	locals   localStack
	result   *Resolution
}

// NewResolver creates a resolver for a method of module.
func NewResolver(module *vm.Module, reporter Reporter) *Resolver {
	return &Resolver{
		module:   module,
		reporter: reporter,
		locals:   newLocalStack(),
		result: &Resolution{
			Names:    make(map[*NameExpr]Resolved),
			Bindings: make(map[*VariablePattern]int),
		},
	}
}

// ResolveMethod resolves a method with an optional parameter pattern. Slot 0
// is reserved for the argument and result, exactly as the code generator
// lays it out.
func (r *Resolver) ResolveMethod(param Pattern, body Expr) *Resolution {
	r.locals.open(0)
	r.locals.declare(returnSlotName, nil)

	reservePattern(r, param)
	r.resolvePattern(param)
	r.resolve(body)

	r.locals.close()
	return r.result
}

// declareBinding implements patternReserver.
func (r *Resolver) declareBinding(p *VariablePattern) {
	slot, duplicate := r.locals.declare(p.Name, p)
	if duplicate {
		r.reporter.Error(p.Span().Start, "there is already a variable '%s' in this scope", p.Name)
	}
	r.result.Bindings[p] = slot
}

// hoistBindings implements patternReserver.
func (r *Resolver) hoistBindings(bindings []*VariablePattern) {
	r.locals.hoist(bindings)
}

// hoisted resolves fn's subtree inside a scope with bindings hoisted, the
// same frame the code generator opens around temporaries.
func (r *Resolver) hoisted(bindings []*VariablePattern, fn func()) {
	r.locals.open(0)
	defer r.locals.close()
	r.locals.hoist(bindings)
	fn()
}

func (r *Resolver) scoped(fn func()) {
	r.locals.open(0)
	defer r.locals.close()
	fn()
}

func (r *Resolver) resolve(e Expr) {
	switch n := e.(type) {
	case nil:

	case *AndExpr:
		r.scoped(func() {
			r.resolve(n.Left)
			r.resolve(n.Right)
		})

	case *OrExpr:
		r.scoped(func() {
			r.resolve(n.Left)
			r.resolve(n.Right)
		})

	case *BinaryOpExpr:
		r.hoisted(collectBindings(n.Left, n.Right), func() {
			r.resolve(n.Left)
			r.resolve(n.Right)
		})

	case *BoolExpr, *NothingExpr, *NumberExpr, *StringExpr:

	case *CallExpr:
		if n.Left != nil && n.Right != nil {
			r.reporter.Error(n.Span().Start,
				"calls with both a left and a right argument are not supported yet")
		}
		r.scoped(func() { r.resolve(callArgument(n)) })

	case *CatchExpr:
		r.scoped(func() { r.resolve(n.Body) })
		if len(n.Catches) > 1 {
			r.reporter.Error(n.Span().Start, "only a single catch clause is supported")
		}
		if len(n.Catches) > 0 {
			clause := n.Catches[0]
			r.scoped(func() {
				reservePattern(r, clause.Pattern)
				r.resolvePattern(clause.Pattern)
				r.resolve(clause.Body)
			})
		}

	case *DoExpr:
		r.scoped(func() { r.resolve(n.Body) })

	case *IfExpr:
		r.scoped(func() {
			r.resolve(n.Condition)
			r.scoped(func() { r.resolve(n.Then) })
			r.scoped(func() { r.resolve(n.Else) })
		})

	case *IsExpr:
		r.scoped(func() {
			r.resolve(n.Value)
			r.hoisted(collectBindings(n.Type), func() { r.resolve(n.Type) })
		})

	case *MatchExpr:
		r.scoped(func() {
			r.resolve(n.Value)
			for _, clause := range n.Cases {
				r.scoped(func() {
					reservePattern(r, clause.Pattern)
					r.resolvePattern(clause.Pattern)
					r.resolve(clause.Body)
				})
			}
		})

	case *NameExpr:
		r.resolveName(n)

	case *NotExpr:
		r.scoped(func() { r.resolve(n.Value) })

	case *RecordExpr:
		values := make([]Expr, len(n.Fields))
		for i, f := range n.Fields {
			values[i] = f.Value
		}
		r.hoisted(collectBindings(values...), func() {
			for _, v := range values {
				r.resolve(v)
			}
		})

	case *ReturnExpr:
		r.scoped(func() { r.resolve(n.Value) })

	case *SequenceExpr:
		for _, item := range n.Exprs {
			r.resolve(item)
		}

	case *ThrowExpr:
		r.scoped(func() { r.resolve(n.Value) })

	case *VariableExpr:
		reservePattern(r, n.Pattern)
		r.hoisted(collectBindings(n.Value), func() {
			r.resolve(n.Value)
			r.resolvePattern(n.Pattern)
		})

	default:
		panic("compiler: unknown expression in resolver")
	}
}

// resolvePattern resolves the expressions embedded in a pattern, in the
// order the pattern compiler evaluates them.
func (r *Resolver) resolvePattern(p Pattern) {
	switch n := p.(type) {
	case nil, *WildcardPattern:
	case *RecordPattern:
		for _, f := range n.Fields {
			r.resolvePattern(f.Pattern)
		}
	case *TypePattern:
		r.resolve(n.Type)
	case *ValuePattern:
		r.resolve(n.Value)
	case *VariablePattern:
		r.resolvePattern(n.Pattern)
	default:
		panic("compiler: unknown pattern in resolver")
	}
}

func (r *Resolver) resolveName(n *NameExpr) {
	if l, ok := r.locals.lookup(n.Name); ok {
		r.result.Names[n] = Resolved{Kind: ResolvedLocal, Slot: l.slot}
		return
	}
	for i, imported := range r.module.Imports {
		if export := imported.FindExport(n.Name); export >= 0 {
			r.result.Names[n] = Resolved{Kind: ResolvedModule, Import: i, Export: export}
			return
		}
	}
	r.reporter.Error(n.Span().Start, "could not find a variable named '%s'", n.Name)
	r.result.Names[n] = Resolved{Kind: ResolvedUnresolved}
}

// callArgument returns the argument a call passes. When both sides are
// present only the left one is compiled.
func callArgument(call *CallExpr) Expr {
	if call.Left != nil {
		return call.Left
	}
	return call.Right
}
