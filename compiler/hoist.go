package compiler

// collectBindings returns, in source order, every variable pattern that
// declares a local somewhere inside expr. Both the resolver and the code
// generator hoist the result before compiling expr into a temporary.
func collectBindings(exprs ...Expr) []*VariablePattern {
	var c bindingCollector
	for _, e := range exprs {
		c.expr(e)
	}
	return c.bindings
}

type bindingCollector struct {
	bindings []*VariablePattern
}

func (c *bindingCollector) expr(e Expr) {
	switch n := e.(type) {
	case nil:
	case *AndExpr:
		c.expr(n.Left)
		c.expr(n.Right)
	case *OrExpr:
		c.expr(n.Left)
		c.expr(n.Right)
	case *BinaryOpExpr:
		c.expr(n.Left)
		c.expr(n.Right)
	case *CallExpr:
		c.expr(n.Left)
		c.expr(n.Right)
	case *CatchExpr:
		c.expr(n.Body)
		// Only the first clause is compiled.
		if len(n.Catches) > 0 {
			c.pattern(n.Catches[0].Pattern)
			c.expr(n.Catches[0].Body)
		}
	case *DoExpr:
		c.expr(n.Body)
	case *IfExpr:
		c.expr(n.Condition)
		c.expr(n.Then)
		c.expr(n.Else)
	case *IsExpr:
		c.expr(n.Value)
		c.expr(n.Type)
	case *MatchExpr:
		c.expr(n.Value)
		for _, clause := range n.Cases {
			c.pattern(clause.Pattern)
			c.expr(clause.Body)
		}
	case *NotExpr:
		c.expr(n.Value)
	case *RecordExpr:
		for _, f := range n.Fields {
			c.expr(f.Value)
		}
	case *ReturnExpr:
		c.expr(n.Value)
	case *SequenceExpr:
		for _, item := range n.Exprs {
			c.expr(item)
		}
	case *ThrowExpr:
		c.expr(n.Value)
	case *VariableExpr:
		c.pattern(n.Pattern)
		c.expr(n.Value)
	case *BoolExpr, *NameExpr, *NothingExpr, *NumberExpr, *StringExpr:
	default:
		panic("compiler: unknown expression in binding collector")
	}
}

func (c *bindingCollector) pattern(p Pattern) {
	switch n := p.(type) {
	case nil:
	case *RecordPattern:
		for _, f := range n.Fields {
			c.pattern(f.Pattern)
		}
	case *TypePattern:
		c.expr(n.Type)
	case *ValuePattern:
		c.expr(n.Value)
	case *VariablePattern:
		c.bindings = append(c.bindings, n)
		c.pattern(n.Pattern)
	case *WildcardPattern:
	default:
		panic("compiler: unknown pattern in binding collector")
	}
}

// patternReserver is implemented by the resolver and the code generator.
type patternReserver interface {
	declareBinding(p *VariablePattern)
	hoistBindings(bindings []*VariablePattern)
}

// reservePattern declares the variables a pattern binds, in source order,
// and hoists locals declared by expressions embedded in it.
func reservePattern(r patternReserver, p Pattern) {
	switch n := p.(type) {
	case nil:
	case *RecordPattern:
		for _, f := range n.Fields {
			reservePattern(r, f.Pattern)
		}
	case *TypePattern:
		r.hoistBindings(collectBindings(n.Type))
	case *ValuePattern:
		r.hoistBindings(collectBindings(n.Value))
	case *VariablePattern:
		r.declareBinding(n)
		reservePattern(r, n.Pattern)
	case *WildcardPattern:
	default:
		panic("compiler: unknown pattern")
	}
}
