package compiler

import (
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"sicc/pkg/ast"
	"sicc/pkg/diag"
	"sicc/pkg/emit"
	"sicc/pkg/isa"
	"sicc/pkg/session"
	"sicc/pkg/source"
)

type declKind int

const (
	declConst declKind = iota
	declVar
	declLabel
)

func (k declKind) String() string {
	switch k {
	case declConst:
		return "constant"
	case declVar:
		return "variable"
	}
	return "label"
}

type decl struct {
	kind declKind
	pos  source.Pos
}

var errNotConstant = errors.New("not a constant expression")

// immediate-operand and memory-operand forms of each binary operator
var binaryOps = map[string]struct{ imm, mem isa.Opcode }{
	"+": {isa.OpADI, isa.OpADM},
	"-": {isa.OpSBI, isa.OpSBM},
	"&": {isa.OpANI, isa.OpANM},
	"|": {isa.OpORI, isa.OpORM},
	"^": {isa.OpXRI, isa.OpXRM},
}

// CodeGen lowers a SICL tree onto the accumulator. Every expression leaves
// its value in A; operands that are neither constants nor plain variables
// are spilled to scratch statics.
type CodeGen struct {
	ctx   *session.Context
	e     *emit.Emitter
	decls map[string]decl
	gotos []*ast.Goto

	tempDepth int // scratch words in use
	tempCount int // scratch words reserved
}

func newCodeGen(ctx *session.Context) *CodeGen {
	return &CodeGen{
		ctx:   ctx,
		e:     emit.New(ctx.Base),
		decls: make(map[string]decl),
	}
}

func (cg *CodeGen) generate(root *ast.Root) (*emit.Unpatched, error) {
	for _, n := range root.Nodes {
		cg.statement(n)
	}
	cg.e.Emit(isa.OpHLT, 0, source.Pos{})
	cg.checkGotos()
	return cg.e.Finish(cg.ctx.Symbols)
}

func (cg *CodeGen) errorf(pos source.Pos, format string, args ...any) {
	cg.ctx.Diagnostics.Addf(pos, format, args...)
}

func (cg *CodeGen) declare(name string, kind declKind, pos source.Pos) bool {
	if prev, ok := cg.decls[name]; ok {
		cg.errorf(pos, "%q redeclared (previous %s at %s)", name, prev.kind, prev.pos)
		return false
	}
	cg.decls[name] = decl{kind: kind, pos: pos}
	return true
}

func (cg *CodeGen) statement(n ast.Node) {
	switch n := n.(type) {
	case *ast.ConstDecl:
		cg.constDecl(n)
	case *ast.VarDecl:
		cg.varDecl(n)
	case *ast.Assign:
		cg.assign(n)
	case *ast.Out:
		cg.out(n)
	case *ast.Goto:
		cg.jump(n)
	case *ast.Halt:
		cg.e.Emit(isa.OpHLT, 0, n.At)
	case *ast.LabelDecl:
		cg.label(n)
	default:
		cg.errorf(n.Pos(), "unexpected %s", n)
	}
}

func (cg *CodeGen) constDecl(n *ast.ConstDecl) {
	if prev, ok := cg.decls[n.Name]; ok {
		cg.errorf(n.At, "%q redeclared (previous %s at %s)", n.Name, prev.kind, prev.pos)
		return
	}
	v, err := cg.fold(n.Value)
	if err != nil {
		if errors.Is(err, errNotConstant) {
			err = diag.Errorf(n.Value.Pos(), "initializer of constant %q is not constant", n.Name)
		}
		cg.ctx.Diagnostics.Add(err)
		return
	}
	cg.declare(n.Name, declConst, n.At)
	cg.ctx.Symbols.BindConstantWord(n.Name, v)
	cg.ctx.Log.Debug("Symbol bound", zap.String("const", n.Name), zap.Int("value", v))
}

// varDecl reserves a static word. A constant initializer becomes the word's
// load-time value; anything else is computed and stored where the
// declaration appears.
func (cg *CodeGen) varDecl(n *ast.VarDecl) {
	if _, ok := cg.decls[n.Name]; ok {
		cg.declare(n.Name, declVar, n.At)
		return
	}
	var init isa.Immediate
	runtime := false
	if n.Init != nil {
		v, err := cg.fold(n.Init)
		switch {
		case errors.Is(err, errNotConstant):
			runtime = true
		case err != nil:
			cg.ctx.Diagnostics.Add(err)
			return
		default:
			imm, ok := cg.byteValue(v, n.Init.Pos())
			if !ok {
				return
			}
			init = imm
		}
	}
	if runtime {
		// the initializer may not refer to the variable being declared
		cg.expr(n.Init)
	}
	cg.declare(n.Name, declVar, n.At)
	cg.e.Reserve(n.Name, init, n.Mutable, n.At)
	if runtime {
		cg.store(n.Name, n.At)
	}
}

func (cg *CodeGen) assign(n *ast.Assign) {
	d, ok := cg.decls[n.Name]
	switch {
	case !ok:
		cg.errorf(n.At, "assignment to undeclared name %q", n.Name)
		return
	case d.kind != declVar:
		cg.errorf(n.At, "cannot assign to %s %q", d.kind, n.Name)
		return
	}
	cg.expr(n.Value)
	cg.store(n.Name, n.At)
}

func (cg *CodeGen) out(n *ast.Out) {
	var port isa.Immediate
	if n.Port != nil {
		v, err := cg.fold(n.Port)
		if err != nil {
			if errors.Is(err, errNotConstant) {
				err = diag.Errorf(n.Port.Pos(), "port must be a constant")
			}
			cg.ctx.Diagnostics.Add(err)
			return
		}
		if v < 0 || v > isa.ImmediateMask {
			cg.errorf(n.Port.Pos(), "port %d out of range", v)
			return
		}
		port = isa.Immediate(v)
	}
	cg.expr(n.Value)
	cg.e.Emit(isa.OpOUT, port, n.At)
}

func (cg *CodeGen) jump(n *ast.Goto) {
	cg.gotos = append(cg.gotos, n)
	op := isa.OpJMP
	if n.Cond != nil {
		cg.expr(n.Cond)
		op = isa.OpJNZ
	}
	cg.e.EmitAddress(n.Label, n.At)
	cg.e.Emit(op, 0, n.At)
}

func (cg *CodeGen) label(n *ast.LabelDecl) {
	if !cg.declare(n.Name, declLabel, n.At) {
		return
	}
	addr, err := cg.e.Address()
	if err != nil {
		cg.errorf(n.At, "label %q: %v", n.Name, err)
		return
	}
	cg.ctx.Symbols.BindConstantAddress(n.Name, addr)
	cg.ctx.Log.Debug("Symbol bound", zap.String("label", n.Name), zap.Uint16("addr", addr))
}

// checkGotos runs once every label is known: a jump target must be a label.
func (cg *CodeGen) checkGotos() {
	for _, g := range cg.gotos {
		d, ok := cg.decls[g.Label]
		switch {
		case !ok:
			cg.ctx.Diagnostics.Add(diag.Unresolved(g.Label, g.At))
		case d.kind != declLabel:
			cg.errorf(g.At, "cannot goto %s %q", d.kind, g.Label)
		}
	}
}

// fold evaluates n at compile time. Variables make it fail with
// errNotConstant; names never declared are unresolved.
func (cg *CodeGen) fold(n ast.Node) (int, error) {
	return ast.Fold(n, func(name string, at source.Pos) (int, error) {
		d, ok := cg.decls[name]
		if !ok {
			return 0, diag.Unresolved(name, at)
		}
		if d.kind != declConst {
			return 0, errNotConstant
		}
		return cg.ctx.Symbols.ResolveSymbol(name, at)
	})
}

// byteValue narrows a folded constant. Values from -128 to 255 are
// accepted and stored in two's complement.
func (cg *CodeGen) byteValue(v int, pos source.Pos) (isa.Immediate, bool) {
	if v < -(1<<(isa.ImmediateBits-1)) || v > isa.ImmediateMask {
		cg.errorf(pos, "constant %d overflows a byte", v)
		return 0, false
	}
	return isa.Truncate(v), true
}

// constant reports whether n folds. Errors other than errNotConstant are
// reported and also count as constant so that code generation stops
// descending into n.
func (cg *CodeGen) constant(n ast.Node) (isa.Immediate, bool) {
	v, err := cg.fold(n)
	if errors.Is(err, errNotConstant) {
		return 0, false
	}
	if err != nil {
		cg.ctx.Diagnostics.Add(err)
		return 0, true
	}
	imm, _ := cg.byteValue(v, n.Pos())
	return imm, true
}

// operand emits op with n as its immediate: a constant name becomes a patch
// action, any other constant is folded in place.
func (cg *CodeGen) operand(op isa.Opcode, n ast.Node, imm isa.Immediate) {
	if id, ok := n.(*ast.Ident); ok {
		cg.e.EmitRef(op, id.Name, 0, id.At)
		return
	}
	cg.e.Emit(op, imm, n.Pos())
}

// expr leaves the value of n in the accumulator.
func (cg *CodeGen) expr(n ast.Node) {
	if imm, ok := cg.constant(n); ok {
		cg.operand(isa.OpLDI, n, imm)
		return
	}
	switch n := n.(type) {
	case *ast.Ident:
		cg.load(n.Name, n.At)
	case *ast.Unary:
		cg.expr(n.Operand)
		switch n.Op {
		case "-":
			cg.e.Emit(isa.OpNEG, 0, n.At)
		case "~":
			cg.e.Emit(isa.OpNOT, 0, n.At)
		case "!":
			cg.e.Emit(isa.OpSEQ, 0, n.At)
		default:
			cg.errorf(n.At, "unknown unary operator %q", n.Op)
		}
	case *ast.Binary:
		cg.binary(n)
	default:
		cg.errorf(n.Pos(), "%s is not an expression", n)
	}
}

func (cg *CodeGen) binary(n *ast.Binary) {
	ops, ok := binaryOps[n.Op]
	if !ok {
		cg.errorf(n.At, "unknown binary operator %q", n.Op)
		return
	}
	if imm, ok := cg.constant(n.Right); ok {
		cg.expr(n.Left)
		cg.operand(ops.imm, n.Right, imm)
		return
	}
	if id, ok := n.Right.(*ast.Ident); ok {
		cg.expr(n.Left)
		if cg.variable(id.Name, id.At) {
			cg.e.EmitAddress(id.Name, id.At)
			cg.e.Emit(ops.mem, 0, n.At)
		}
		return
	}
	t := cg.pushTemp(n.At)
	cg.expr(n.Right)
	cg.store(t, n.At)
	cg.expr(n.Left)
	cg.e.EmitAddress(t, n.At)
	cg.e.Emit(ops.mem, 0, n.At)
	cg.popTemp()
}

func (cg *CodeGen) variable(name string, pos source.Pos) bool {
	d, ok := cg.decls[name]
	switch {
	case !ok:
		cg.ctx.Diagnostics.Add(diag.Unresolved(name, pos))
		return false
	case d.kind == declLabel:
		cg.errorf(pos, "label %q used as a value", name)
		return false
	}
	return true
}

func (cg *CodeGen) load(name string, pos source.Pos) {
	if !cg.variable(name, pos) {
		return
	}
	cg.e.EmitAddress(name, pos)
	cg.e.Emit(isa.OpLDA, 0, pos)
}

func (cg *CodeGen) store(name string, pos source.Pos) {
	cg.e.EmitAddress(name, pos)
	cg.e.Emit(isa.OpSTA, 0, pos)
}

// pushTemp returns the next free scratch word, reserving a new one when the
// expression is deeper than any before it.
func (cg *CodeGen) pushTemp(pos source.Pos) string {
	name := tempName(cg.tempDepth)
	if cg.tempDepth == cg.tempCount {
		cg.e.Reserve(name, 0, true, pos)
		cg.tempCount++
	}
	cg.tempDepth++
	return name
}

func (cg *CodeGen) popTemp() {
	cg.tempDepth--
}

// tempName cannot collide with a source identifier.
func tempName(i int) string {
	return fmt.Sprintf("$t%d", i)
}
