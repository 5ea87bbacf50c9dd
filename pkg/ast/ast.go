// Package ast defines the syntax-tree nodes built by the parser engine.
//
// Node variants form a closed set; code that inspects a tree switches on the
// concrete type. Both front ends share the set: the assembler produces
// LabelDecl, Instr, ConstDecl and VarDecl nodes over Literal, Ident and Unary
// operands, the SICL compiler adds Binary, Assign, Out, Goto and Halt.
package ast

import (
	"fmt"
	"strings"

	"sicc/pkg/source"
)

// Node is implemented by every syntax-tree node.
type Node interface {
	Pos() source.Pos
	Children() []Node
	String() string
	node()
}

// Root is the single root of a parsed tree; its children are the nodes the
// productions emitted, in firing order.
type Root struct {
	At    source.Pos
	Nodes []Node
}

func (r *Root) Pos() source.Pos  { return r.At }
func (r *Root) Children() []Node { return r.Nodes }
func (*Root) node()              {}
func (r *Root) String() string   { return fmt.Sprintf("Root%v", r.Nodes) }

// Append adds nodes to the root.
func (r *Root) Append(nodes ...Node) {
	r.Nodes = append(r.Nodes, nodes...)
}

// LiteralKind says which payload a Literal carries.
type LiteralKind int

const (
	IntLit LiteralKind = iota
	BoolLit
	StringLit
)

// Literal is a constant written in the source.
//
//	LDI 0x10
//	    ^^^^  Literal{Kind: IntLit, Value: 16}
type Literal struct {
	At    source.Pos
	Kind  LiteralKind
	Value int64  // IntLit and BoolLit (0 or 1)
	Text  string // StringLit
}

func (l *Literal) Pos() source.Pos { return l.At }
func (*Literal) Children() []Node  { return nil }
func (*Literal) node()             {}
func (l *Literal) String() string {
	switch l.Kind {
	case BoolLit:
		return fmt.Sprintf("%t", l.Value != 0)
	case StringLit:
		return fmt.Sprintf("%q", l.Text)
	}
	return fmt.Sprintf("%d", l.Value)
}

// Ident is a reference to a named symbol.
type Ident struct {
	At   source.Pos
	Name string
}

func (i *Ident) Pos() source.Pos { return i.At }
func (*Ident) Children() []Node  { return nil }
func (*Ident) node()             {}
func (i *Ident) String() string  { return i.Name }

// Unary is Op Operand. The assembler uses "<" and ">" to select the low and
// high byte of an address.
type Unary struct {
	At      source.Pos
	Op      string
	Operand Node
}

func (u *Unary) Pos() source.Pos  { return u.At }
func (u *Unary) Children() []Node { return []Node{u.Operand} }
func (*Unary) node()              {}
func (u *Unary) String() string   { return fmt.Sprintf("(%s %s)", u.Op, u.Operand) }

// Binary is Left Op Right.
type Binary struct {
	At    source.Pos
	Op    string
	Left  Node
	Right Node
}

func (b *Binary) Pos() source.Pos  { return b.At }
func (b *Binary) Children() []Node { return []Node{b.Left, b.Right} }
func (*Binary) node()              {}
func (b *Binary) String() string   { return fmt.Sprintf("(%s %s %s)", b.Left, b.Op, b.Right) }

// LabelDecl names the address of whatever follows it.
type LabelDecl struct {
	At   source.Pos
	Name string
}

func (l *LabelDecl) Pos() source.Pos { return l.At }
func (*LabelDecl) Children() []Node  { return nil }
func (*LabelDecl) node()             {}
func (l *LabelDecl) String() string  { return l.Name + ":" }

// Instr is an instruction invocation with its parameter list.
type Instr struct {
	At       source.Pos
	Mnemonic string
	Params   []Node
}

func (i *Instr) Pos() source.Pos  { return i.At }
func (i *Instr) Children() []Node { return i.Params }
func (*Instr) node()              {}
func (i *Instr) String() string {
	parts := make([]string, len(i.Params))
	for k, p := range i.Params {
		parts[k] = p.String()
	}
	return fmt.Sprintf("%s(%s)", i.Mnemonic, strings.Join(parts, ", "))
}

// ConstDecl binds Name to a compile-time word.
type ConstDecl struct {
	At    source.Pos
	Name  string
	Value Node
}

func (c *ConstDecl) Pos() source.Pos  { return c.At }
func (c *ConstDecl) Children() []Node { return []Node{c.Value} }
func (*ConstDecl) node()              {}
func (c *ConstDecl) String() string   { return fmt.Sprintf("const %s = %s", c.Name, c.Value) }

// VarDecl reserves a static word. Init may be nil (zero initialised).
type VarDecl struct {
	At      source.Pos
	Name    string
	Init    Node
	Mutable bool
}

func (v *VarDecl) Pos() source.Pos { return v.At }
func (v *VarDecl) Children() []Node {
	if v.Init == nil {
		return nil
	}
	return []Node{v.Init}
}
func (*VarDecl) node() {}
func (v *VarDecl) String() string {
	kw := "let"
	if v.Mutable {
		kw = "var"
	}
	if v.Init == nil {
		return fmt.Sprintf("%s %s", kw, v.Name)
	}
	return fmt.Sprintf("%s %s = %s", kw, v.Name, v.Init)
}

// Assign stores Value into the static word Name.
type Assign struct {
	At    source.Pos
	Name  string
	Value Node
}

func (a *Assign) Pos() source.Pos  { return a.At }
func (a *Assign) Children() []Node { return []Node{a.Value} }
func (*Assign) node()              {}
func (a *Assign) String() string   { return fmt.Sprintf("%s = %s", a.Name, a.Value) }

// Out writes Value to an output port. Port may be nil for port 0.
type Out struct {
	At    source.Pos
	Port  Node
	Value Node
}

func (o *Out) Pos() source.Pos { return o.At }
func (o *Out) Children() []Node {
	if o.Port == nil {
		return []Node{o.Value}
	}
	return []Node{o.Port, o.Value}
}
func (*Out) node() {}
func (o *Out) String() string {
	if o.Port == nil {
		return fmt.Sprintf("out %s", o.Value)
	}
	return fmt.Sprintf("out %s, %s", o.Port, o.Value)
}

// Goto jumps to Label, only when Cond is non-zero if Cond is set.
type Goto struct {
	At    source.Pos
	Label string
	Cond  Node
}

func (g *Goto) Pos() source.Pos { return g.At }
func (g *Goto) Children() []Node {
	if g.Cond == nil {
		return nil
	}
	return []Node{g.Cond}
}
func (*Goto) node() {}
func (g *Goto) String() string {
	if g.Cond == nil {
		return "goto " + g.Label
	}
	return fmt.Sprintf("if %s goto %s", g.Cond, g.Label)
}

// Halt stops the machine.
type Halt struct {
	At source.Pos
}

func (h *Halt) Pos() source.Pos { return h.At }
func (*Halt) Children() []Node  { return nil }
func (*Halt) node()             {}
func (*Halt) String() string    { return "halt" }
