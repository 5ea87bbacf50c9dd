package session

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"sicc/pkg/ast"
	"sicc/pkg/diag"
	"sicc/pkg/emit"
	"sicc/pkg/isa"
	"sicc/pkg/parse"
	"sicc/pkg/source"
	"sicc/pkg/symtab"
	"sicc/pkg/token"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// jumps is a toy language: "name:" defines a label, a bare name jumps to it
// and a number loads the accumulator.
type jumps struct{}

func (jumps) Name() string { return "jumps" }

func (jumps) Lex(f *source.File) ([]token.Token, error) {
	var toks []token.Token
	for i := 1; i <= f.LineCount(); i++ {
		line, _ := f.Line(i)
		col := 1
		for _, w := range strings.Fields(line) {
			col = strings.Index(line, w) + 1
			pos := f.Pos(i, col)
			switch {
			case strings.HasSuffix(w, ":"):
				toks = append(toks, token.New(token.Ident, strings.TrimSuffix(w, ":"), pos),
					token.New(token.Punct, ":", f.Pos(i, col+len(w)-1)))
			case w[0] >= '0' && w[0] <= '9':
				v, err := strconv.ParseInt(w, 10, 64)
				if err != nil {
					return nil, diag.Errorf(pos, "bad number %q", w)
				}
				toks = append(toks, token.NewInt(v, w, pos))
			case w == "!":
				toks = append(toks, token.New(token.Punct, w, pos))
			default:
				toks = append(toks, token.New(token.Ident, w, pos))
			}
		}
		toks = append(toks, token.New(token.Newline, "", f.Pos(i, len(line)+1)))
	}
	return append(toks, token.New(token.EOF, "", f.Pos(f.LineCount(), 1))), nil
}

func (jumps) Productions() []parse.Production {
	return []parse.Production{
		{Name: "newline", Kind: token.Newline, Generate: func(token.Token, *parse.Cursor) ([]ast.Node, error) {
			return nil, nil
		}},
		{Name: "label-or-jump", Kind: token.Ident, Generate: func(tok token.Token, c *parse.Cursor) ([]ast.Node, error) {
			if _, ok := c.Accept(token.Punct, ":"); ok {
				return []ast.Node{&ast.LabelDecl{At: tok.Pos, Name: tok.Text}}, nil
			}
			return []ast.Node{&ast.Instr{At: tok.Pos, Mnemonic: "JMP", Params: []ast.Node{&ast.Ident{At: tok.Pos, Name: tok.Text}}}}, nil
		}},
		{Name: "load", Kind: token.Int, Generate: func(tok token.Token, c *parse.Cursor) ([]ast.Node, error) {
			return []ast.Node{&ast.Literal{At: tok.Pos, Kind: ast.IntLit, Value: tok.Value}}, nil
		}},
	}
}

func (jumps) Recovery() func(token.Token) bool {
	return func(tok token.Token) bool { return tok.Kind == token.Newline }
}

func (jumps) Generate(ctx *Context, root *ast.Root) (*emit.Unpatched, error) {
	e := emit.New(ctx.Base)
	for _, n := range root.Nodes {
		switch n := n.(type) {
		case *ast.LabelDecl:
			addr, err := e.Address()
			if err != nil {
				return nil, err
			}
			ctx.Symbols.BindConstantAddress(n.Name, addr)
		case *ast.Instr:
			target := n.Params[0].(*ast.Ident)
			e.EmitAddress(target.Name, target.At)
			e.Emit(isa.OpJMP, 0, n.At)
		case *ast.Literal:
			if n.Value > isa.ImmediateMask {
				ctx.Diagnostics.Addf(n.At, "value %d does not fit a byte", n.Value)
				continue
			}
			e.Emit(isa.OpLDI, isa.Immediate(n.Value), n.At)
		}
	}
	return e.Finish(ctx.Symbols)
}

func TestCompile(t *testing.T) {
	s := New(WithBase(0x0100), WithLogger(zaptest.NewLogger(t)))
	defer s.Close()

	f := source.NewFile("j.s", "top:\n  5\n  done\ndone:\n  top\n")
	img, err := s.Compile(jumps{}, f)
	require.NoError(t, err)

	assert.Equal(t, uint16(0x0100), img.Base)
	assert.Equal(t, []isa.Instruction{
		isa.New(isa.OpLDI, 5),
		isa.New(isa.OpSAL, 0x08), // done = 0x0108, a forward reference
		isa.New(isa.OpSAH, 0x01),
		isa.New(isa.OpJMP, 0),
		isa.New(isa.OpSAL, 0x00),
		isa.New(isa.OpSAH, 0x01),
		isa.New(isa.OpJMP, 0),
	}, img.Code)
	assert.Equal(t, map[string]int{"top": 0x0100, "done": 0x0108}, img.Symbols)
	assert.Equal(t, 2, s.Context().Symbols.Len())
	assert.NotNil(t, s.Tree())
	assert.NotEmpty(t, s.Tokens())
	require.NotNil(t, s.Unpatched())
	assert.Len(t, s.Unpatched().Actions, 4)
}

func TestCompileUnresolved(t *testing.T) {
	s := New()
	f := source.NewFile("j.s", "start:\n  nowhere\n")
	img, err := s.Compile(jumps{}, f)
	require.Error(t, err)
	assert.Nil(t, img)
	assert.True(t, diag.IsUnresolved(err))
	assert.Equal(t, `j.s:2:3: unresolved identifier "nowhere"`, err.Error())
}

func TestCompileCollectsSyntaxErrors(t *testing.T) {
	s := New()
	f := source.NewFile("j.s", "! 1\n2\n3 !\n")
	_, err := s.Compile(jumps{}, f)
	require.Error(t, err)

	errs := s.Context().Diagnostics.Errors()
	require.Len(t, errs, 2)
	for _, e := range errs {
		assert.True(t, diag.IsSyntax(e))
	}
	pos, ok := diag.PosOf(errs[1])
	require.True(t, ok)
	assert.Equal(t, source.NewPos("j.s", 3, 3), pos)
	assert.Nil(t, s.Unpatched(), "no code generation after syntax errors")
}

func TestCompileMaxErrors(t *testing.T) {
	s := New(WithMaxErrors(1))
	_, err := s.Compile(jumps{}, source.NewFile("j.s", "!\n!\n!\n"))
	require.Error(t, err)
	assert.Equal(t, 1, s.Context().Diagnostics.Len())
}

func TestCompileSemanticErrors(t *testing.T) {
	s := New()
	_, err := s.Compile(jumps{}, source.NewFile("j.s", "300\n7\n256\n"))
	require.Error(t, err)
	assert.Equal(t, 2, s.Context().Diagnostics.Len())
	assert.Contains(t, err.Error(), "j.s:1:1: value 300 does not fit a byte")
}

func TestCompileLexError(t *testing.T) {
	s := New()
	_, err := s.Compile(jumps{}, source.NewFile("j.s", "9999999999999999999999\n"))
	assert.ErrorContains(t, err, "bad number")
	assert.Nil(t, s.Tree())
}

func TestSessionSingleUse(t *testing.T) {
	s := New()
	_, err := s.Compile(jumps{}, source.NewFile("a.s", "1\n"))
	require.NoError(t, err)

	_, err = s.Compile(jumps{}, source.NewFile("b.s", "2\n"))
	assert.ErrorIs(t, err, diag.ErrInvariant)

	s.Close()
	assert.Nil(t, s.Context())
	_, err = s.Compile(jumps{}, source.NewFile("c.s", "3\n"))
	assert.ErrorIs(t, err, diag.ErrInvariant)
}

func TestContextDefaults(t *testing.T) {
	s := New(WithBase(0x4000))
	ctx := s.Context()
	assert.Equal(t, uint16(0x4000), ctx.Base)
	assert.NotNil(t, ctx.Log)
	assert.False(t, ctx.Diagnostics.HasErrors())
	assert.IsType(t, &symtab.Table{}, ctx.Symbols)
}
