package compiler

// ---------------------------------------------------------------------------
// AST: Abstract Syntax Tree for Magpie
// ---------------------------------------------------------------------------

// Position represents a source location.
type Position struct {
	Offset int // byte offset
	Line   int // 1-based line number
	Column int // 1-based column number
}

// Span represents a range in source code.
type Span struct {
	Start Position
	End   Position
}

// MakeSpan creates a span from two positions.
func MakeSpan(start, end Position) Span {
	return Span{Start: start, End: end}
}

// Node is the interface implemented by all AST nodes.
type Node interface {
	Span() Span
	node() // marker method
}

// ---------------------------------------------------------------------------
// Expression nodes
// ---------------------------------------------------------------------------

// Expr is the interface for expression nodes. The set of implementations is
// closed; passes switch over it exhaustively.
type Expr interface {
	Node
	expr() // marker method
}

// AndExpr is a short-circuiting `and`.
type AndExpr struct {
	SpanVal Span
	Left    Expr
	Right   Expr
}

func (n *AndExpr) Span() Span { return n.SpanVal }
func (n *AndExpr) node()      {}
func (n *AndExpr) expr()      {}

// OrExpr is a short-circuiting `or`.
type OrExpr struct {
	SpanVal Span
	Left    Expr
	Right   Expr
}

func (n *OrExpr) Span() Span { return n.SpanVal }
func (n *OrExpr) node()      {}
func (n *OrExpr) expr()      {}

// BinaryOperator identifies an arithmetic or comparison operator.
type BinaryOperator int

const (
	BinaryAdd BinaryOperator = iota
	BinarySubtract
	BinaryMultiply
	BinaryDivide
	BinaryEqual
	BinaryNotEqual
	BinaryLess
	BinaryLessEqual
	BinaryGreater
	BinaryGreaterEqual
)

var binaryOperatorNames = [...]string{
	BinaryAdd:          "+",
	BinarySubtract:     "-",
	BinaryMultiply:     "*",
	BinaryDivide:       "/",
	BinaryEqual:        "==",
	BinaryNotEqual:     "!=",
	BinaryLess:         "<",
	BinaryLessEqual:    "<=",
	BinaryGreater:      ">",
	BinaryGreaterEqual: ">=",
}

func (op BinaryOperator) String() string {
	if int(op) < len(binaryOperatorNames) {
		return binaryOperatorNames[op]
	}
	return "?"
}

// BinaryOpExpr is an arithmetic or comparison expression.
type BinaryOpExpr struct {
	SpanVal Span
	Op      BinaryOperator
	Left    Expr
	Right   Expr
}

func (n *BinaryOpExpr) Span() Span { return n.SpanVal }
func (n *BinaryOpExpr) node()      {}
func (n *BinaryOpExpr) expr()      {}

// BoolExpr is `true` or `false`.
type BoolExpr struct {
	SpanVal Span
	Value   bool
}

func (n *BoolExpr) Span() Span { return n.SpanVal }
func (n *BoolExpr) node()      {}
func (n *BoolExpr) expr()      {}

// CallExpr invokes a method. Left and Right are the optional arguments on
// either side of the name: `a foo(b)`.
type CallExpr struct {
	SpanVal Span
	Left    Expr // nil if absent
	Name    string
	Right   Expr // nil if absent
}

func (n *CallExpr) Span() Span { return n.SpanVal }
func (n *CallExpr) node()      {}
func (n *CallExpr) expr()      {}

// CatchClause is a single `catch pattern then body` arm.
type CatchClause struct {
	Pattern Pattern
	Body    Expr
}

// CatchExpr is a `do` block with catch clauses.
type CatchExpr struct {
	SpanVal Span
	Body    Expr
	Catches []CatchClause
}

func (n *CatchExpr) Span() Span { return n.SpanVal }
func (n *CatchExpr) node()      {}
func (n *CatchExpr) expr()      {}

// DoExpr is a block introducing a new scope.
type DoExpr struct {
	SpanVal Span
	Body    Expr
}

func (n *DoExpr) Span() Span { return n.SpanVal }
func (n *DoExpr) node()      {}
func (n *DoExpr) expr()      {}

// IfExpr is a conditional. Else may be nil.
type IfExpr struct {
	SpanVal   Span
	Condition Expr
	Then      Expr
	Else      Expr
}

func (n *IfExpr) Span() Span { return n.SpanVal }
func (n *IfExpr) node()      {}
func (n *IfExpr) expr()      {}

// IsExpr is a type test: `value is Type`.
type IsExpr struct {
	SpanVal Span
	Value   Expr
	Type    Expr
}

func (n *IsExpr) Span() Span { return n.SpanVal }
func (n *IsExpr) node()      {}
func (n *IsExpr) expr()      {}

// MatchClause is a single `case pattern then body` arm.
type MatchClause struct {
	Pattern Pattern
	Body    Expr
}

// MatchExpr matches a value against clauses in order.
type MatchExpr struct {
	SpanVal Span
	Value   Expr
	Cases   []MatchClause
}

func (n *MatchExpr) Span() Span { return n.SpanVal }
func (n *MatchExpr) node()      {}
func (n *MatchExpr) expr()      {}

// NameExpr is a reference to a variable or module export.
type NameExpr struct {
	SpanVal Span
	Name    string
}

func (n *NameExpr) Span() Span { return n.SpanVal }
func (n *NameExpr) node()      {}
func (n *NameExpr) expr()      {}

// NotExpr is logical negation.
type NotExpr struct {
	SpanVal Span
	Value   Expr
}

func (n *NotExpr) Span() Span { return n.SpanVal }
func (n *NotExpr) node()      {}
func (n *NotExpr) expr()      {}

// NothingExpr is the `nothing` literal.
type NothingExpr struct {
	SpanVal Span
}

func (n *NothingExpr) Span() Span { return n.SpanVal }
func (n *NothingExpr) node()      {}
func (n *NothingExpr) expr()      {}

// NumberExpr is a number literal.
type NumberExpr struct {
	SpanVal Span
	Value   float64
}

func (n *NumberExpr) Span() Span { return n.SpanVal }
func (n *NumberExpr) node()      {}
func (n *NumberExpr) expr()      {}

// Field is a named record field expression.
type Field struct {
	Name  string
	Value Expr
}

// RecordExpr builds a record. Positional fields are named by index.
type RecordExpr struct {
	SpanVal Span
	Fields  []Field
}

func (n *RecordExpr) Span() Span { return n.SpanVal }
func (n *RecordExpr) node()      {}
func (n *RecordExpr) expr()      {}

// ReturnExpr exits the method early. Value may be nil.
type ReturnExpr struct {
	SpanVal Span
	Value   Expr
}

func (n *ReturnExpr) Span() Span { return n.SpanVal }
func (n *ReturnExpr) node()      {}
func (n *ReturnExpr) expr()      {}

// SequenceExpr evaluates expressions in order; its value is the last one.
type SequenceExpr struct {
	SpanVal Span
	Exprs   []Expr
}

func (n *SequenceExpr) Span() Span { return n.SpanVal }
func (n *SequenceExpr) node()      {}
func (n *SequenceExpr) expr()      {}

// StringExpr is a string literal.
type StringExpr struct {
	SpanVal Span
	Value   string
}

func (n *StringExpr) Span() Span { return n.SpanVal }
func (n *StringExpr) node()      {}
func (n *StringExpr) expr()      {}

// ThrowExpr throws an error value.
type ThrowExpr struct {
	SpanVal Span
	Value   Expr
}

func (n *ThrowExpr) Span() Span { return n.SpanVal }
func (n *ThrowExpr) node()      {}
func (n *ThrowExpr) expr()      {}

// VariableExpr declares the variables in Pattern, bound by matching Value.
type VariableExpr struct {
	SpanVal Span
	Pattern Pattern
	Value   Expr
}

func (n *VariableExpr) Span() Span { return n.SpanVal }
func (n *VariableExpr) node()      {}
func (n *VariableExpr) expr()      {}

// ---------------------------------------------------------------------------
// Pattern nodes
// ---------------------------------------------------------------------------

// Pattern is the interface for pattern nodes.
type Pattern interface {
	Node
	pattern() // marker method
}

// PatternField is a named record field pattern.
type PatternField struct {
	Name    string
	Pattern Pattern
}

// RecordPattern destructures a record field by field.
type RecordPattern struct {
	SpanVal Span
	Fields  []PatternField
}

func (n *RecordPattern) Span() Span { return n.SpanVal }
func (n *RecordPattern) node()      {}
func (n *RecordPattern) pattern()   {}

// TypePattern matches values that are instances of Type.
type TypePattern struct {
	SpanVal Span
	Type    Expr
}

func (n *TypePattern) Span() Span { return n.SpanVal }
func (n *TypePattern) node()      {}
func (n *TypePattern) pattern()   {}

// ValuePattern matches values equal to Value.
type ValuePattern struct {
	SpanVal Span
	Value   Expr
}

func (n *ValuePattern) Span() Span { return n.SpanVal }
func (n *ValuePattern) node()      {}
func (n *ValuePattern) pattern()   {}

// VariablePattern binds the matched value to Name, then matches the
// optional inner Pattern.
type VariablePattern struct {
	SpanVal Span
	Name    string
	Pattern Pattern // nil if absent
}

func (n *VariablePattern) Span() Span { return n.SpanVal }
func (n *VariablePattern) node()      {}
func (n *VariablePattern) pattern()   {}

// WildcardPattern matches anything.
type WildcardPattern struct {
	SpanVal Span
}

func (n *WildcardPattern) Span() Span { return n.SpanVal }
func (n *WildcardPattern) node()      {}
func (n *WildcardPattern) pattern()   {}

// ---------------------------------------------------------------------------
// Definitions
// ---------------------------------------------------------------------------

// MethodDef is a top-level method definition.
type MethodDef struct {
	SpanVal Span
	Left    Pattern // nil if absent
	Name    string
	Right   Pattern // nil if absent
	Body    Expr
}

func (n *MethodDef) Span() Span { return n.SpanVal }
func (n *MethodDef) node()      {}

// ModuleAst is a parsed source unit: its definitions plus top-level code.
type ModuleAst struct {
	Name string
	Defs []*MethodDef
	Body Expr
}
