package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"sicc/pkg/diag"
	"sicc/pkg/isa"
	"sicc/pkg/parse"
	"sicc/pkg/session"
	"sicc/pkg/source"
)

func compile(t *testing.T, src string) (code []isa.Instruction, data []byte, symbols map[string]int) {
	t.Helper()
	img, err := CompileFile(source.NewFile("t.sicl", src), session.WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	return img.Code, img.Data, img.Symbols
}

func in(op isa.Opcode, imm int) isa.Instruction {
	return isa.New(op, isa.Immediate(imm))
}

func errorStrings(err error) []string {
	var list diag.List
	list.Add(err)
	out := make([]string, 0, list.Len())
	for _, e := range list.Errors() {
		out = append(out, e.Error())
	}
	return out
}

func TestParseTree(t *testing.T) {
	src := "const N = 1 + 2 - 3; var v; var w = !v; v = -(w ^ 1);\n" +
		"out 3, v; out v; goto end; if v & 1 goto end; halt; ; end:"
	toks, err := New().Lex(source.NewFile("p.sicl", src))
	require.NoError(t, err)

	eng := parse.New(toks, productions, parse.WithRecovery(isSemicolon))
	root := eng.Parse()
	require.NoError(t, eng.Err())

	var got []string
	for _, n := range root.Nodes {
		got = append(got, n.String())
	}
	assert.Equal(t, []string{
		"const N = ((1 + 2) - 3)",
		"var v",
		"var w = (! v)",
		"v = (- (w ^ 1))",
		"out 3, v",
		"out v",
		"goto end",
		"if (v & 1) goto end",
		"halt",
		"end:",
	}, got)
}

func TestCompileBytes(t *testing.T) {
	got, err := Compile("const N = 2; var x = N + 1; out x;")
	require.NoError(t, err)
	assert.Equal(t, []byte{
		byte(isa.OpSAL), 0x0A, byte(isa.OpSAH), 0x00, byte(isa.OpLDA), 0,
		byte(isa.OpOUT), 0,
		byte(isa.OpHLT), 0,
		3,
	}, got)
}

func TestImplicitHalt(t *testing.T) {
	code, data, _ := compile(t, "halt;")
	assert.Equal(t, []isa.Instruction{in(isa.OpHLT, 0), in(isa.OpHLT, 0)}, code)
	assert.Empty(t, data)

	code, _, _ = compile(t, "// nothing\n")
	assert.Equal(t, []isa.Instruction{in(isa.OpHLT, 0)}, code)
}

func TestConstantLoadIsPatched(t *testing.T) {
	code, data, syms := compile(t, "const K = 7; var y; y = K;")
	assert.Equal(t, []isa.Instruction{
		in(isa.OpLDI, 7),
		in(isa.OpSAL, 0x0A), in(isa.OpSAH, 0), in(isa.OpSTA, 0),
		in(isa.OpHLT, 0),
	}, code)
	assert.Equal(t, []byte{0}, data)
	assert.Equal(t, map[string]int{"K": 7, "y": 0x0A}, syms)
}

func TestBinaryWithVariable(t *testing.T) {
	code, data, _ := compile(t, "var a = 1; var b = 2; a = a + b;")
	assert.Equal(t, []isa.Instruction{
		in(isa.OpSAL, 0x14), in(isa.OpSAH, 0), in(isa.OpLDA, 0),
		in(isa.OpSAL, 0x15), in(isa.OpSAH, 0), in(isa.OpADM, 0),
		in(isa.OpSAL, 0x14), in(isa.OpSAH, 0), in(isa.OpSTA, 0),
		in(isa.OpHLT, 0),
	}, code)
	assert.Equal(t, []byte{1, 2}, data)
}

func TestScratchTemporary(t *testing.T) {
	code, data, syms := compile(t, "var a; var b; a = a - (b - 1);")
	const a, b, tmp = 0x22, 0x23, 0x24
	assert.Equal(t, []isa.Instruction{
		in(isa.OpSAL, b), in(isa.OpSAH, 0), in(isa.OpLDA, 0),
		in(isa.OpSBI, 1),
		in(isa.OpSAL, tmp), in(isa.OpSAH, 0), in(isa.OpSTA, 0),
		in(isa.OpSAL, a), in(isa.OpSAH, 0), in(isa.OpLDA, 0),
		in(isa.OpSAL, tmp), in(isa.OpSAH, 0), in(isa.OpSBM, 0),
		in(isa.OpSAL, a), in(isa.OpSAH, 0), in(isa.OpSTA, 0),
		in(isa.OpHLT, 0),
	}, code)
	assert.Equal(t, []byte{0, 0, 0}, data)
	assert.Equal(t, tmp, syms["$t0"])
}

func TestScratchReuse(t *testing.T) {
	_, data, syms := compile(t, "var a; a = a - (a - 1); a = a ^ (a + 1);")
	assert.Len(t, data, 2, "one variable and one scratch word")
	assert.Contains(t, syms, "$t0")
	assert.NotContains(t, syms, "$t1")

	_, data, syms = compile(t, "var a; a = a - (a - (a - 1));")
	assert.Len(t, data, 3, "nested spills need a second scratch word")
	assert.Contains(t, syms, "$t1")
}

func TestGotoLoop(t *testing.T) {
	code, _, syms := compile(t, "var n = 3;\ntop:\n  n = n - 1;\n  if n goto top;\nout 1, n;\n")
	const n = 0x24
	assert.Equal(t, []isa.Instruction{
		in(isa.OpSAL, n), in(isa.OpSAH, 0), in(isa.OpLDA, 0),
		in(isa.OpSBI, 1),
		in(isa.OpSAL, n), in(isa.OpSAH, 0), in(isa.OpSTA, 0),
		in(isa.OpSAL, n), in(isa.OpSAH, 0), in(isa.OpLDA, 0),
		in(isa.OpSAL, 0), in(isa.OpSAH, 0), in(isa.OpJNZ, 0),
		in(isa.OpSAL, n), in(isa.OpSAH, 0), in(isa.OpLDA, 0),
		in(isa.OpOUT, 1),
		in(isa.OpHLT, 0),
	}, code)
	assert.Equal(t, 0, syms["top"])
}

func TestForwardGoto(t *testing.T) {
	code, _, _ := compile(t, "goto done; out 9; done: halt;")
	assert.Equal(t, []isa.Instruction{
		in(isa.OpSAL, 0x0A), in(isa.OpSAH, 0), in(isa.OpJMP, 0),
		in(isa.OpLDI, 9), in(isa.OpOUT, 0),
		in(isa.OpHLT, 0),
		in(isa.OpHLT, 0),
	}, code)
}

func TestUnaryOperators(t *testing.T) {
	code, _, _ := compile(t, "var x = 5; out -x; out ~x; out !x; out -3; out !true; out false | 2;")
	load := []isa.Instruction{in(isa.OpSAL, 0x2C), in(isa.OpSAH, 0), in(isa.OpLDA, 0)}

	var want []isa.Instruction
	for _, op := range []isa.Opcode{isa.OpNEG, isa.OpNOT, isa.OpSEQ} {
		want = append(want, load...)
		want = append(want, in(op, 0), in(isa.OpOUT, 0))
	}
	want = append(want,
		in(isa.OpLDI, 0xFD), in(isa.OpOUT, 0),
		in(isa.OpLDI, 0), in(isa.OpOUT, 0),
		in(isa.OpLDI, 2), in(isa.OpOUT, 0),
		in(isa.OpHLT, 0),
	)
	assert.Equal(t, want, code)
}

func TestRuntimeInitializer(t *testing.T) {
	code, data, syms := compile(t, "var a = 2; var b = a + 1;")
	assert.Equal(t, []isa.Instruction{
		in(isa.OpSAL, 0x10), in(isa.OpSAH, 0), in(isa.OpLDA, 0),
		in(isa.OpADI, 1),
		in(isa.OpSAL, 0x11), in(isa.OpSAH, 0), in(isa.OpSTA, 0),
		in(isa.OpHLT, 0),
	}, code)
	assert.Equal(t, []byte{2, 0}, data)
	assert.Equal(t, map[string]int{"a": 0x10, "b": 0x11}, syms)
}

func TestCompileAtBase(t *testing.T) {
	img, err := CompileFile(source.NewFile("b.sicl", "start: goto start;"), session.WithBase(0x1200))
	require.NoError(t, err)
	assert.Equal(t, []isa.Instruction{
		in(isa.OpSAL, 0x00), in(isa.OpSAH, 0x12), in(isa.OpJMP, 0),
		in(isa.OpHLT, 0),
	}, img.Code)
	assert.Equal(t, map[uint16]int{0x1200: 1, 0x1202: 1, 0x1204: 1}, img.SourceMap)
}

func TestSemanticErrors(t *testing.T) {
	src := `const C = 1;
C = 2;
x = 1;
var v;
var v;
goto nowhere;
var w = v;
const D = w;
out v, 1;
const BIG = 300;
v = BIG;
goto v;
top: v = top;
`
	_, err := Compile(src)
	require.Error(t, err)
	assert.Equal(t, []string{
		`2:1: cannot assign to constant "C"`,
		`3:1: assignment to undeclared name "x"`,
		`5:1: "v" redeclared (previous variable at 4:1)`,
		`8:11: initializer of constant "D" is not constant`,
		`9:5: port must be a constant`,
		`11:5: constant 300 overflows a byte`,
		`13:10: label "top" used as a value`,
		`6:1: unresolved identifier "nowhere"`,
		`12:1: cannot goto variable "v"`,
	}, errorStrings(err))
}

func TestUnresolvedInExpression(t *testing.T) {
	_, err := Compile("var a;\na = b + 1;")
	require.Error(t, err)
	assert.True(t, diag.IsUnresolved(err))
	assert.EqualError(t, err, `2:5: unresolved identifier "b"`)
}

func TestSyntaxErrorsRecover(t *testing.T) {
	_, err := Compile("var ; x = 1 +; halt; out 1,;")
	require.Error(t, err)
	assert.Equal(t, []string{
		"1:5: syntax error: expected ident, got ;",
		"1:14: syntax error: expected expression, got ;",
		"1:28: syntax error: expected expression, got ;",
	}, errorStrings(err))
}

func TestLexErrors(t *testing.T) {
	_, err := Compile("var a = 1 * 2;\n/* open")
	require.Error(t, err)
	assert.Equal(t, []string{
		"1:11: unexpected character '*'",
		"2:1: unterminated block comment",
	}, errorStrings(err))
}
