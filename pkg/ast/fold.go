package ast

import (
	"sicc/pkg/diag"
	"sicc/pkg/source"
)

// Lookup returns the value an identifier stands for in a constant
// expression.
type Lookup func(name string, at source.Pos) (int, error)

// Fold evaluates a constant expression. Arithmetic is on ints; narrowing to
// a machine width is the caller's job.
//
// Unary operators: "-" negates, "~" complements, "!" maps zero to one and
// everything else to zero, "<" and ">" take the low and high byte of a
// 16-bit value. Binary operators: + - & | ^.
func Fold(n Node, lookup Lookup) (int, error) {
	switch n := n.(type) {
	case *Literal:
		if n.Kind == StringLit {
			return 0, diag.Errorf(n.At, "string is not a constant expression")
		}
		return int(n.Value), nil
	case *Ident:
		if lookup == nil {
			return 0, diag.Unresolved(n.Name, n.At)
		}
		return lookup(n.Name, n.At)
	case *Unary:
		v, err := Fold(n.Operand, lookup)
		if err != nil {
			return 0, err
		}
		switch n.Op {
		case "-":
			return -v, nil
		case "~":
			return ^v, nil
		case "!":
			if v == 0 {
				return 1, nil
			}
			return 0, nil
		case "<":
			return v & 0xFF, nil
		case ">":
			return (v >> 8) & 0xFF, nil
		}
		return 0, diag.Errorf(n.At, "unknown unary operator %q", n.Op)
	case *Binary:
		l, err := Fold(n.Left, lookup)
		if err != nil {
			return 0, err
		}
		r, err := Fold(n.Right, lookup)
		if err != nil {
			return 0, err
		}
		switch n.Op {
		case "+":
			return l + r, nil
		case "-":
			return l - r, nil
		case "&":
			return l & r, nil
		case "|":
			return l | r, nil
		case "^":
			return l ^ r, nil
		}
		return 0, diag.Errorf(n.At, "unknown binary operator %q", n.Op)
	case nil:
		return 0, nil
	}
	return 0, diag.Errorf(n.Pos(), "%s is not a constant expression", n)
}
