package compiler

import (
	"strconv"
)

// ---------------------------------------------------------------------------
// Parser: Recursive descent parser for Magpie syntax
// ---------------------------------------------------------------------------

// Parser parses Magpie source code into an AST. Errors go to the reporter;
// the parser skips to the next line and keeps going.
type Parser struct {
	lexer     *Lexer
	curToken  Token
	peekToken Token
	prevEnd   Position // position of the last consumed token
	reporter  Reporter
}

// NewParser creates a new parser for the given input.
func NewParser(input string, reporter Reporter) *Parser {
	p := &Parser{
		lexer:    NewLexer(input),
		reporter: reporter,
	}
	// Read two tokens to fill curToken and peekToken
	p.nextToken()
	p.nextToken()
	return p
}

// nextToken advances to the next token.
func (p *Parser) nextToken() {
	p.prevEnd = p.curToken.Pos
	p.curToken = p.peekToken
	p.peekToken = p.lexer.NextToken()
}

// curTokenIs checks if the current token is of the given type.
func (p *Parser) curTokenIs(t TokenType) bool {
	return p.curToken.Type == t
}

// curTokenIsAny checks if the current token is any of the given types.
func (p *Parser) curTokenIsAny(types ...TokenType) bool {
	for _, t := range types {
		if p.curToken.Type == t {
			return true
		}
	}
	return false
}

// expect advances if the current token matches, otherwise reports an error.
func (p *Parser) expect(t TokenType) bool {
	if p.curTokenIs(t) {
		p.nextToken()
		return true
	}
	p.errorf("expected %s, got %s", t, p.curToken)
	return false
}

// errorf reports a parse error at the current token.
func (p *Parser) errorf(format string, args ...any) {
	p.reporter.Error(p.curToken.Pos, format, args...)
}

func (p *Parser) skipLines() {
	for p.curTokenIs(TokenLine) {
		p.nextToken()
	}
}

func (p *Parser) span(start Position) Span {
	return MakeSpan(start, p.prevEnd)
}

// ---------------------------------------------------------------------------
// Top-level parsing
// ---------------------------------------------------------------------------

// ParseModule parses a whole source file: definitions and top-level
// expressions in any order.
func (p *Parser) ParseModule(name string) *ModuleAst {
	module := &ModuleAst{Name: name}
	start := p.curToken.Pos
	var body []Expr

	p.skipLines()
	for !p.curTokenIs(TokenEOF) {
		if p.curTokenIs(TokenDef) {
			if def := p.parseDef(); def != nil {
				module.Defs = append(module.Defs, def)
			}
		} else if e := p.ParseExpression(); e != nil {
			body = append(body, e)
		}
		p.endLine()
	}

	module.Body = &SequenceExpr{SpanVal: p.span(start), Exprs: body}
	return module
}

// endLine consumes the line break after a top-level item, skipping
// anything left over after a parse error.
func (p *Parser) endLine() {
	if !p.curTokenIsAny(TokenLine, TokenEOF) {
		p.errorf("expected end of line, got %s", p.curToken)
		for !p.curTokenIsAny(TokenLine, TokenEOF) {
			p.nextToken()
		}
	}
	p.skipLines()
}

// parseDef parses `def [(pattern)] name [(pattern)] body end`.
func (p *Parser) parseDef() *MethodDef {
	start := p.curToken.Pos
	p.nextToken() // consume def

	def := &MethodDef{}
	if p.curTokenIs(TokenLParen) {
		def.Left = p.parseParenPattern()
	}
	if !p.curTokenIs(TokenName) {
		p.errorf("expected a method name, got %s", p.curToken)
		return nil
	}
	def.Name = p.curToken.Literal
	p.nextToken()
	if p.curTokenIs(TokenLParen) {
		def.Right = p.parseParenPattern()
	}

	def.Body = p.parseBlock(TokenEnd)
	p.expect(TokenEnd)
	def.SpanVal = p.span(start)
	return def
}

// parseBlock parses newline-separated expressions until one of the
// terminators. The terminator is not consumed.
func (p *Parser) parseBlock(terminators ...TokenType) Expr {
	start := p.curToken.Pos
	var exprs []Expr

	p.skipLines()
	for !p.curTokenIsAny(terminators...) && !p.curTokenIs(TokenEOF) {
		e := p.ParseExpression()
		if e == nil {
			for !p.curTokenIsAny(TokenLine, TokenEOF) && !p.curTokenIsAny(terminators...) {
				p.nextToken()
			}
		} else {
			exprs = append(exprs, e)
		}
		if !p.curTokenIsAny(terminators...) && !p.curTokenIs(TokenLine) {
			p.errorf("expected end of line, got %s", p.curToken)
			for !p.curTokenIsAny(TokenLine, TokenEOF) && !p.curTokenIsAny(terminators...) {
				p.nextToken()
			}
		}
		p.skipLines()
	}

	if len(exprs) == 1 {
		return exprs[0]
	}
	return &SequenceExpr{SpanVal: p.span(start), Exprs: exprs}
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

// ParseExpression parses a single expression.
func (p *Parser) ParseExpression() Expr {
	switch p.curToken.Type {
	case TokenReturn:
		start := p.curToken.Pos
		p.nextToken()
		var value Expr
		if !p.curTokenIsAny(TokenLine, TokenEOF, TokenEnd, TokenElse, TokenCase, TokenCatch, TokenRParen) {
			value = p.ParseExpression()
		}
		return &ReturnExpr{SpanVal: p.span(start), Value: value}

	case TokenThrow:
		start := p.curToken.Pos
		p.nextToken()
		value := p.ParseExpression()
		if value == nil {
			return nil
		}
		return &ThrowExpr{SpanVal: p.span(start), Value: value}

	case TokenVar:
		start := p.curToken.Pos
		p.nextToken()
		pattern := p.parsePattern()
		if pattern == nil || !p.expect(TokenAssign) {
			return nil
		}
		value := p.ParseExpression()
		if value == nil {
			return nil
		}
		return &VariableExpr{SpanVal: p.span(start), Pattern: pattern, Value: value}
	}

	return p.parseOr()
}

func (p *Parser) parseOr() Expr {
	start := p.curToken.Pos
	left := p.parseAnd()
	for left != nil && p.curTokenIs(TokenOr) {
		p.nextToken()
		p.skipLines()
		right := p.parseAnd()
		if right == nil {
			return nil
		}
		left = &OrExpr{SpanVal: p.span(start), Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseAnd() Expr {
	start := p.curToken.Pos
	left := p.parseNot()
	for left != nil && p.curTokenIs(TokenAnd) {
		p.nextToken()
		p.skipLines()
		right := p.parseNot()
		if right == nil {
			return nil
		}
		left = &AndExpr{SpanVal: p.span(start), Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseNot() Expr {
	if !p.curTokenIs(TokenNot) {
		return p.parseComparison()
	}
	start := p.curToken.Pos
	p.nextToken()
	value := p.parseNot()
	if value == nil {
		return nil
	}
	return &NotExpr{SpanVal: p.span(start), Value: value}
}

var comparisonOperators = map[TokenType]BinaryOperator{
	TokenEqual:        BinaryEqual,
	TokenNotEqual:     BinaryNotEqual,
	TokenLess:         BinaryLess,
	TokenLessEqual:    BinaryLessEqual,
	TokenGreater:      BinaryGreater,
	TokenGreaterEqual: BinaryGreaterEqual,
}

var additiveOperators = map[TokenType]BinaryOperator{
	TokenPlus:  BinaryAdd,
	TokenMinus: BinarySubtract,
}

var multiplicativeOperators = map[TokenType]BinaryOperator{
	TokenStar:  BinaryMultiply,
	TokenSlash: BinaryDivide,
}

func (p *Parser) parseComparison() Expr {
	start := p.curToken.Pos
	left := p.parseBinary(additiveOperators, p.parseMultiplicative)
	for left != nil {
		if p.curTokenIs(TokenIs) {
			p.nextToken()
			t := p.parseCall()
			if t == nil {
				return nil
			}
			left = &IsExpr{SpanVal: p.span(start), Value: left, Type: t}
			continue
		}
		op, ok := comparisonOperators[p.curToken.Type]
		if !ok {
			break
		}
		p.nextToken()
		p.skipLines()
		right := p.parseBinary(additiveOperators, p.parseMultiplicative)
		if right == nil {
			return nil
		}
		left = &BinaryOpExpr{SpanVal: p.span(start), Op: op, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseMultiplicative() Expr {
	return p.parseBinary(multiplicativeOperators, p.parseCall)
}

func (p *Parser) parseBinary(operators map[TokenType]BinaryOperator, operand func() Expr) Expr {
	start := p.curToken.Pos
	left := operand()
	for left != nil {
		op, ok := operators[p.curToken.Type]
		if !ok {
			break
		}
		p.nextToken()
		p.skipLines()
		right := operand()
		if right == nil {
			return nil
		}
		left = &BinaryOpExpr{SpanVal: p.span(start), Op: op, Left: left, Right: right}
	}
	return left
}

// parseCall parses a primary followed by any number of postfix calls:
// `a foo`, `a foo()`, `a foo(b)`.
func (p *Parser) parseCall() Expr {
	start := p.curToken.Pos
	left := p.parsePrimary()
	for left != nil && p.curTokenIs(TokenName) {
		name := p.curToken.Literal
		p.nextToken()
		call := &CallExpr{Left: left, Name: name}
		if p.curTokenIs(TokenLParen) {
			call.Right = p.parseArgument()
		}
		call.SpanVal = p.span(start)
		left = call
	}
	return left
}

// parseArgument parses a parenthesized call argument. Empty parentheses
// mean no argument.
func (p *Parser) parseArgument() Expr {
	if p.peekToken.Type == TokenRParen {
		p.nextToken()
		p.nextToken()
		return nil
	}
	return p.parseParenExpr()
}

func (p *Parser) parsePrimary() Expr {
	start := p.curToken.Pos

	switch p.curToken.Type {
	case TokenNumber:
		value, err := strconv.ParseFloat(p.curToken.Literal, 64)
		if err != nil {
			p.errorf("invalid number %s", p.curToken.Literal)
		}
		p.nextToken()
		return &NumberExpr{SpanVal: p.span(start), Value: value}

	case TokenString:
		value := p.curToken.Literal
		p.nextToken()
		return &StringExpr{SpanVal: p.span(start), Value: value}

	case TokenTrue, TokenFalse:
		value := p.curTokenIs(TokenTrue)
		p.nextToken()
		return &BoolExpr{SpanVal: p.span(start), Value: value}

	case TokenNothing:
		p.nextToken()
		return &NothingExpr{SpanVal: p.span(start)}

	case TokenName:
		name := p.curToken.Literal
		p.nextToken()
		if p.curTokenIs(TokenLParen) {
			call := &CallExpr{Name: name, Right: p.parseArgument()}
			call.SpanVal = p.span(start)
			return call
		}
		return &NameExpr{SpanVal: p.span(start), Name: name}

	case TokenLParen:
		if p.peekToken.Type == TokenRParen {
			p.nextToken()
			p.nextToken()
			return &NothingExpr{SpanVal: p.span(start)}
		}
		return p.parseParenExpr()

	case TokenIf:
		return p.parseIf()

	case TokenMatch:
		return p.parseMatch()

	case TokenDo:
		return p.parseDo()

	case TokenError:
		p.errorf("%s", p.curToken.Literal)
		p.nextToken()
		return nil

	default:
		p.errorf("unexpected %s", p.curToken)
		return nil
	}
}

// parseParenExpr parses `(expr)` or a record `(a, b)` / `(x: a, y: b)`.
func (p *Parser) parseParenExpr() Expr {
	start := p.curToken.Pos
	p.nextToken() // consume (

	var fields []Field
	record := false
	for {
		var field Field
		if p.curTokenIs(TokenField) {
			record = true
			field.Name = p.curToken.Literal
			p.nextToken()
		} else {
			field.Name = PositionalField(len(fields))
		}
		field.Value = p.ParseExpression()
		if field.Value == nil {
			return nil
		}
		fields = append(fields, field)

		if !p.curTokenIs(TokenComma) {
			break
		}
		record = true
		p.nextToken()
	}
	if !p.expect(TokenRParen) {
		return nil
	}

	if !record {
		return fields[0].Value
	}
	return &RecordExpr{SpanVal: p.span(start), Fields: fields}
}

// parseIf parses `if cond then body [else body] end`.
func (p *Parser) parseIf() Expr {
	start := p.curToken.Pos
	p.nextToken() // consume if

	cond := p.ParseExpression()
	if cond == nil || !p.expect(TokenThen) {
		return nil
	}
	n := &IfExpr{Condition: cond}
	n.Then = p.parseBlock(TokenElse, TokenEnd)
	if p.curTokenIs(TokenElse) {
		p.nextToken()
		n.Else = p.parseBlock(TokenEnd)
	}
	if !p.expect(TokenEnd) {
		return nil
	}
	n.SpanVal = p.span(start)
	return n
}

// parseMatch parses `match value case pattern then body ... end`.
func (p *Parser) parseMatch() Expr {
	start := p.curToken.Pos
	p.nextToken() // consume match

	value := p.ParseExpression()
	if value == nil {
		return nil
	}
	n := &MatchExpr{Value: value}
	p.skipLines()
	for p.curTokenIs(TokenCase) {
		p.nextToken()
		pattern := p.parsePattern()
		if pattern == nil || !p.expect(TokenThen) {
			return nil
		}
		body := p.parseBlock(TokenCase, TokenEnd)
		n.Cases = append(n.Cases, MatchClause{Pattern: pattern, Body: body})
	}
	if len(n.Cases) == 0 {
		p.errorf("expected a case, got %s", p.curToken)
	}
	if !p.expect(TokenEnd) {
		return nil
	}
	n.SpanVal = p.span(start)
	return n
}

// parseDo parses `do body end` and `do body catch pattern then body end`.
func (p *Parser) parseDo() Expr {
	start := p.curToken.Pos
	p.nextToken() // consume do

	body := p.parseBlock(TokenCatch, TokenEnd)
	if !p.curTokenIs(TokenCatch) {
		if !p.expect(TokenEnd) {
			return nil
		}
		return &DoExpr{SpanVal: p.span(start), Body: body}
	}

	n := &CatchExpr{Body: body}
	for p.curTokenIs(TokenCatch) {
		p.nextToken()
		pattern := p.parsePattern()
		if pattern == nil || !p.expect(TokenThen) {
			return nil
		}
		clause := p.parseBlock(TokenCatch, TokenEnd)
		n.Catches = append(n.Catches, CatchClause{Pattern: pattern, Body: clause})
	}
	if !p.expect(TokenEnd) {
		return nil
	}
	n.SpanVal = p.span(start)
	return n
}

// ---------------------------------------------------------------------------
// Patterns
// ---------------------------------------------------------------------------

func (p *Parser) parsePattern() Pattern {
	start := p.curToken.Pos

	switch p.curToken.Type {
	case TokenLParen:
		return p.parseParenPattern()

	case TokenIs:
		p.nextToken()
		t := p.parseCall()
		if t == nil {
			return nil
		}
		return &TypePattern{SpanVal: p.span(start), Type: t}

	case TokenEqual:
		p.nextToken()
		value := p.parseBinary(additiveOperators, p.parseMultiplicative)
		if value == nil {
			return nil
		}
		return &ValuePattern{SpanVal: p.span(start), Value: value}

	case TokenNumber, TokenString, TokenTrue, TokenFalse, TokenNothing:
		value := p.parsePrimary()
		if value == nil {
			return nil
		}
		return &ValuePattern{SpanVal: p.span(start), Value: value}

	case TokenName:
		name := p.curToken.Literal
		p.nextToken()
		if name == "_" {
			return &WildcardPattern{SpanVal: p.span(start)}
		}
		n := &VariablePattern{Name: name}
		if p.curTokenIsAny(TokenIs, TokenEqual) {
			n.Pattern = p.parsePattern()
			if n.Pattern == nil {
				return nil
			}
		}
		n.SpanVal = p.span(start)
		return n

	default:
		p.errorf("expected a pattern, got %s", p.curToken)
		return nil
	}
}

// parseParenPattern parses `(pattern)` or a record pattern. A field label
// with no pattern after it binds a variable of the same name.
func (p *Parser) parseParenPattern() Pattern {
	start := p.curToken.Pos
	p.nextToken() // consume (

	var fields []PatternField
	record := false
	for {
		var field PatternField
		if p.curTokenIs(TokenField) {
			record = true
			field.Name = p.curToken.Literal
			fieldPos := p.curToken.Pos
			p.nextToken()
			if p.curTokenIsAny(TokenComma, TokenRParen) {
				field.Pattern = &VariablePattern{SpanVal: p.span(fieldPos), Name: field.Name}
			}
		} else {
			field.Name = PositionalField(len(fields))
		}
		if field.Pattern == nil {
			field.Pattern = p.parsePattern()
			if field.Pattern == nil {
				return nil
			}
		}
		fields = append(fields, field)

		if !p.curTokenIs(TokenComma) {
			break
		}
		record = true
		p.nextToken()
	}
	if !p.expect(TokenRParen) {
		return nil
	}

	if !record {
		return fields[0].Pattern
	}
	return &RecordPattern{SpanVal: p.span(start), Fields: fields}
}

// Parse parses a whole source file named name.
func Parse(name, input string, reporter Reporter) *ModuleAst {
	return NewParser(input, reporter).ParseModule(name)
}
