// Package compiler is the front end for SICL, a small statement language for
// the SIC-8 accumulator machine:
//
//	const LIMIT = 3;
//	var n = LIMIT;
//	top:
//	  out 1, n;
//	  n = n - 1;
//	  if n goto top;
//	halt;
//
// Statements end with ';'. Expressions combine integer and boolean literals
// and names with unary - ~ ! and left-associative binary + - & | ^.
// Constant subexpressions are folded; everything else runs on the
// accumulator. The program falls through to an implicit HLT.
package compiler

import (
	"sicc/pkg/ast"
	"sicc/pkg/emit"
	"sicc/pkg/image"
	"sicc/pkg/lex"
	"sicc/pkg/parse"
	"sicc/pkg/session"
	"sicc/pkg/source"
	"sicc/pkg/token"
)

// Compiler is the SICL session.FrontEnd.
type Compiler struct{}

func New() *Compiler {
	return &Compiler{}
}

func (*Compiler) Name() string { return "sicl" }

func (*Compiler) Lex(f *source.File) ([]token.Token, error) {
	return lex.Lex(f, lexConfig)
}

func (*Compiler) Productions() []parse.Production {
	return productions
}

// Recovery resumes parsing after the next ';'.
func (*Compiler) Recovery() func(token.Token) bool {
	return isSemicolon
}

func (*Compiler) Generate(ctx *session.Context, root *ast.Root) (*emit.Unpatched, error) {
	return newCodeGen(ctx).generate(root)
}

// CompileFile compiles one SICL file into an image.
func CompileFile(f *source.File, opts ...session.Option) (*image.Image, error) {
	s := session.New(opts...)
	defer s.Close()
	return s.Compile(New(), f)
}

// Compile compiles src loaded at address zero and returns the program bytes.
func Compile(src string) ([]byte, error) {
	img, err := CompileFile(source.NewFile("", src))
	if err != nil {
		return nil, err
	}
	return img.Binary(), nil
}
