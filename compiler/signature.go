package compiler

import (
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// Signatures: method dispatch keys
// ---------------------------------------------------------------------------
//
// A signature is built from the shape of the arguments on either side of a
// method name. A record argument contributes one "name:" per field, in
// order; any other argument contributes the positional marker "0:". The
// parts are joined by single spaces:
//
//	foo             no arguments
//	foo 0:          foo(a)
//	0: foo          a foo
//	x:y: foo        (x: 1, y: 2) foo
//	0: foo 0:       a foo(b)

// PositionalField returns the implicit name of the index'th positional
// record field.
func PositionalField(index int) string {
	return strconv.Itoa(index)
}

// CallSignature returns the signature a call site dispatches on.
func CallSignature(call *CallExpr) string {
	return buildSignature(exprShape(call.Left), call.Name, exprShape(call.Right))
}

// DefinitionSignature returns the signature a method definition is
// declared and defined under. A call and a definition with matching shapes
// produce the same string.
func DefinitionSignature(def *MethodDef) string {
	return buildSignature(patternShape(def.Left), def.Name, patternShape(def.Right))
}

func buildSignature(left, name, right string) string {
	var sb strings.Builder
	if left != "" {
		sb.WriteString(left)
		sb.WriteByte(' ')
	}
	sb.WriteString(name)
	if right != "" {
		sb.WriteByte(' ')
		sb.WriteString(right)
	}
	return sb.String()
}

func exprShape(e Expr) string {
	switch n := e.(type) {
	case nil:
		return ""
	case *RecordExpr:
		var sb strings.Builder
		for _, f := range n.Fields {
			sb.WriteString(f.Name)
			sb.WriteByte(':')
		}
		return sb.String()
	default:
		return "0:"
	}
}

func patternShape(p Pattern) string {
	switch n := p.(type) {
	case nil:
		return ""
	case *RecordPattern:
		var sb strings.Builder
		for _, f := range n.Fields {
			sb.WriteString(f.Name)
			sb.WriteByte(':')
		}
		return sb.String()
	default:
		return "0:"
	}
}
