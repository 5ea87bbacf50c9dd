// Package asm is the SIC-8 assembler front end.
//
// Source is line oriented:
//
//	loop:   LDA counter        ; memory ops expand to SAL <x, SAH >x, LDA
//	        ADI 1
//	        SAL <counter
//	        SAH >counter
//	        STA
//	        JMP loop
//	.const  LIMIT = 0x20
//	.var    counter = 0        ; mutable static word after the code
//	.let    ten = 10           ; immutable static word
//
// Labels are case sensitive; mnemonics and directives are not.
package asm

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

// Assembler is the assembly session.FrontEnd.
type Assembler struct{}

func NewAssembler() *Assembler {
	return &Assembler{}
}

func (*Assembler) Name() string { return "asm" }

func (*Assembler) Lex(f *source.File) ([]token.Token, error) {
	return lex.Lex(f, lexConfig)
}

func (*Assembler) Productions() []parse.Production {
	return productions
}

// Recovery resumes parsing on the line after an error.
func (*Assembler) Recovery() func(token.Token) bool {
	return isNewline
}

func (*Assembler) Generate(ctx *session.Context, root *ast.Root) (*emit.Unpatched, error) {
	return newGenerator(ctx).run(root)
}

// AssembleFile assembles one file into an image.
func AssembleFile(f *source.File, opts ...session.Option) (*image.Image, error) {
	s := session.New(opts...)
	defer s.Close()
	return s.Compile(NewAssembler(), f)
}

// Assemble assembles code loaded at address zero and returns the program
// bytes with a map from byte address to source line.
func Assemble(code string) ([]byte, map[uint16]int, error) {
	img, err := AssembleFile(source.NewFile("", code))
	if err != nil {
		return nil, nil, err
	}
	return img.Binary(), img.SourceMap, nil
}
