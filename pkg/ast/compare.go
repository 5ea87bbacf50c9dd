package ast

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Equal reports whether a and b are the same variant with equal fields,
// anchors and children. Node identity plays no part, and a nil child list
// equals an empty one.
func Equal(a, b Node) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if reflect.TypeOf(a) != reflect.TypeOf(b) || !sameFields(a, b) {
		return false
	}
	ac, bc := a.Children(), b.Children()
	if len(ac) != len(bc) {
		return false
	}
	for i := range ac {
		if !Equal(ac[i], bc[i]) {
			return false
		}
	}
	return true
}

// sameFields compares the fields of two nodes of the same variant, leaving
// out children.
func sameFields(a, b Node) bool {
	switch a := a.(type) {
	case *Root:
		return a.At == b.(*Root).At
	case *Literal:
		return *a == *b.(*Literal)
	case *Ident:
		return *a == *b.(*Ident)
	case *Unary:
		b := b.(*Unary)
		return a.At == b.At && a.Op == b.Op
	case *Binary:
		b := b.(*Binary)
		return a.At == b.At && a.Op == b.Op
	case *LabelDecl:
		return *a == *b.(*LabelDecl)
	case *Instr:
		b := b.(*Instr)
		return a.At == b.At && a.Mnemonic == b.Mnemonic
	case *ConstDecl:
		b := b.(*ConstDecl)
		return a.At == b.At && a.Name == b.Name
	case *VarDecl:
		b := b.(*VarDecl)
		return a.At == b.At && a.Name == b.Name && a.Mutable == b.Mutable
	case *Assign:
		b := b.(*Assign)
		return a.At == b.At && a.Name == b.Name
	case *Out:
		b := b.(*Out)
		return a.At == b.At && (a.Port == nil) == (b.Port == nil)
	case *Goto:
		b := b.(*Goto)
		return a.At == b.At && a.Label == b.Label
	case *Halt:
		return *a == *b.(*Halt)
	}
	return reflect.DeepEqual(a, b)
}

// Hash returns a structural hash of n: Equal nodes hash alike.
func Hash(n Node) uint64 {
	d := xxhash.New()
	Walk(n, func(n Node) bool {
		if n == nil {
			_, _ = d.WriteString("<nil>;")
			return false
		}
		_, _ = fmt.Fprintf(d, "%T@%s=%s;", n, n.Pos(), n.String())
		return true
	})
	return d.Sum64()
}

// Walk visits n and its descendants depth first. Children are skipped when fn
// returns false.
func Walk(n Node, fn func(Node) bool) {
	if !fn(n) || n == nil {
		return
	}
	for _, c := range n.Children() {
		Walk(c, fn)
	}
}

// Dump renders the tree one node per line with anchors, for debugging tools.
func Dump(n Node) string {
	var sb strings.Builder
	dump(&sb, n, 0)
	return sb.String()
}

func dump(sb *strings.Builder, n Node, depth int) {
	indent := strings.Repeat("  ", depth)
	if n == nil {
		fmt.Fprintf(sb, "%s<nil>\n", indent)
		return
	}
	var label string
	switch v := n.(type) {
	case *Root:
		label = fmt.Sprintf("Root (%d)", len(v.Nodes))
	case *Literal:
		label = "Literal " + v.String()
	case *Ident:
		label = "Ident " + v.Name
	case *Unary:
		label = "Unary " + v.Op
	case *Binary:
		label = "Binary " + v.Op
	case *LabelDecl:
		label = "Label " + v.Name
	case *Instr:
		label = "Instr " + v.Mnemonic
	case *ConstDecl:
		label = "Const " + v.Name
	case *VarDecl:
		label = "Var " + v.Name
		if !v.Mutable {
			label = "Let " + v.Name
		}
	case *Assign:
		label = "Assign " + v.Name
	case *Out:
		label = "Out"
	case *Goto:
		label = "Goto " + v.Label
	case *Halt:
		label = "Halt"
	default:
		label = fmt.Sprintf("%T", n)
	}
	fmt.Fprintf(sb, "%s%s  [%s]\n", indent, label, n.Pos())
	for _, c := range n.Children() {
		dump(sb, c, depth+1)
	}
}
