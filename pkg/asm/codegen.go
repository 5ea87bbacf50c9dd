package asm

import (
	"go.uber.org/zap"

	"sicc/pkg/ast"
	"sicc/pkg/diag"
	"sicc/pkg/emit"
	"sicc/pkg/isa"
	"sicc/pkg/session"
	"sicc/pkg/source"
)

// generator is the first pass: it lays out instructions in source order,
// binds labels and constants as it meets them and leaves every symbolic
// immediate to the patcher.
type generator struct {
	ctx      *session.Context
	e        *emit.Emitter
	declared map[string]source.Pos
	names    map[string]bool // every name the unit declares
}

func newGenerator(ctx *session.Context) *generator {
	return &generator{
		ctx:      ctx,
		e:        emit.New(ctx.Base),
		declared: make(map[string]source.Pos),
		names:    make(map[string]bool),
	}
}

func (g *generator) run(root *ast.Root) (*emit.Unpatched, error) {
	for _, n := range root.Nodes {
		switch n := n.(type) {
		case *ast.LabelDecl:
			g.names[n.Name] = true
		case *ast.ConstDecl:
			g.names[n.Name] = true
		case *ast.VarDecl:
			g.names[n.Name] = true
		}
	}
	for _, n := range root.Nodes {
		switch n := n.(type) {
		case *ast.LabelDecl:
			g.label(n)
		case *ast.ConstDecl:
			g.constant(n)
		case *ast.VarDecl:
			g.static(n)
		case *ast.Instr:
			g.instruction(n)
		default:
			g.errorf(n.Pos(), "unexpected %s", n)
		}
	}
	return g.e.Finish(g.ctx.Symbols)
}

func (g *generator) errorf(pos source.Pos, format string, args ...any) {
	g.ctx.Diagnostics.Addf(pos, format, args...)
}

// declare reserves name for the unit. Redeclaring a label, constant or
// static is an error.
func (g *generator) declare(name string, pos source.Pos) bool {
	if prev, ok := g.declared[name]; ok {
		g.errorf(pos, "%q redeclared (previous declaration at %s)", name, prev)
		return false
	}
	g.declared[name] = pos
	return true
}

func (g *generator) label(n *ast.LabelDecl) {
	if !g.declare(n.Name, n.At) {
		return
	}
	addr, err := g.e.Address()
	if err != nil {
		g.errorf(n.At, "label %q: %v", n.Name, err)
		return
	}
	g.ctx.Symbols.BindConstantAddress(n.Name, addr)
	g.ctx.Log.Debug("Symbol bound", zap.String("label", n.Name), zap.Uint16("addr", addr))
}

func (g *generator) constant(n *ast.ConstDecl) {
	if !g.declare(n.Name, n.At) {
		return
	}
	v, err := ast.Fold(n.Value, g.lookup)
	if err != nil {
		g.ctx.Diagnostics.Add(err)
		return
	}
	g.ctx.Symbols.BindConstantWord(n.Name, v)
	g.ctx.Log.Debug("Symbol bound", zap.String("const", n.Name), zap.Int("value", v))
}

func (g *generator) static(n *ast.VarDecl) {
	if !g.declare(n.Name, n.At) {
		return
	}
	var init isa.Immediate
	if n.Init != nil {
		v, ok := g.byteValue(n.Init)
		if !ok {
			return
		}
		init = v
	}
	g.e.Reserve(n.Name, init, n.Mutable, n.At)
}

func (g *generator) instruction(n *ast.Instr) {
	op, ok := isa.Lookup(n.Mnemonic)
	if !ok {
		g.errorf(n.At, "unknown instruction %s", n.Mnemonic)
		return
	}
	if len(n.Params) > 1 {
		g.errorf(n.At, "%s takes at most one operand, got %d", op, len(n.Params))
		return
	}

	switch {
	case isa.UsesAddress(op):
		if len(n.Params) == 1 && !g.address(n.Params[0]) {
			return
		}
		g.e.Emit(op, 0, n.At)
	case isa.TakesImmediate(op):
		if len(n.Params) == 0 {
			g.errorf(n.At, "%s expects an operand", op)
			return
		}
		g.immediate(op, n.Params[0], n.At)
	default:
		if len(n.Params) != 0 {
			g.errorf(n.At, "%s takes no operand", op)
			return
		}
		g.e.Emit(op, 0, n.At)
	}
}

// address loads the address register with p: symbolically through two patch
// actions, or directly when p folds to a constant.
func (g *generator) address(p ast.Node) bool {
	if id, ok := p.(*ast.Ident); ok {
		g.e.EmitAddress(id.Name, id.At)
		return true
	}
	v, err := ast.Fold(p, g.lookup)
	if err != nil {
		g.ctx.Diagnostics.Add(err)
		return false
	}
	if v < 0 || v > isa.MaxAddress {
		g.errorf(p.Pos(), "address %d out of range", v)
		return false
	}
	g.e.Emit(isa.OpSAL, isa.Truncate(v), p.Pos())
	g.e.Emit(isa.OpSAH, isa.Truncate(v>>isa.ImmediateBits), p.Pos())
	return true
}

// immediate emits op with p as its operand. A bare name, or a name under
// "<" or ">", becomes a patch action; anything else must fold to a byte now.
func (g *generator) immediate(op isa.Opcode, p ast.Node, pos source.Pos) {
	switch p := p.(type) {
	case *ast.Ident:
		g.e.EmitRef(op, p.Name, 0, p.At)
		return
	case *ast.Unary:
		if id, ok := p.Operand.(*ast.Ident); ok {
			switch p.Op {
			case "<":
				g.e.EmitRef(op, id.Name, 0, id.At)
				return
			case ">":
				g.e.EmitRef(op, id.Name, isa.ImmediateBits, id.At)
				return
			}
		}
	}
	imm, ok := g.byteValue(p)
	if !ok {
		return
	}
	g.e.Emit(op, imm, pos)
}

// lookup resolves names inside folded expressions. Labels declared further
// down and statics have no value until layout is done, so only names bound
// earlier in the unit can take part in arithmetic.
func (g *generator) lookup(name string, at source.Pos) (int, error) {
	if g.names[name] && !g.ctx.Symbols.Exists(name) {
		return 0, diag.Errorf(at, "%q has no value yet; expressions may only use names bound earlier", name)
	}
	return g.ctx.Symbols.ResolveSymbol(name, at)
}

// byteValue folds p to an immediate. Values from -128 to 255 are accepted
// and stored in two's complement.
func (g *generator) byteValue(p ast.Node) (isa.Immediate, bool) {
	v, err := ast.Fold(p, g.lookup)
	if err != nil {
		g.ctx.Diagnostics.Add(err)
		return 0, false
	}
	if v < -(1<<(isa.ImmediateBits-1)) || v > isa.ImmediateMask {
		g.errorf(p.Pos(), "value %d does not fit in %d bits", v, isa.ImmediateBits)
		return 0, false
	}
	return isa.Truncate(v), true
}
