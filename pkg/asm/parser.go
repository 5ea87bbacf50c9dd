package asm

import (
	"strings"

	"sicc/pkg/ast"
	"sicc/pkg/lex"
	"sicc/pkg/parse"
	"sicc/pkg/token"
)

var lexConfig = lex.Config{
	Ops:          "<>-~+=",
	Punct:        ":,()",
	LineComments: []string{";", "//"},
	Newlines:     true,
	Directives:   true,
}

// operand expressions: "<x" and ">x" select the low and high byte.
var operands = parse.ExprGrammar{
	Binary: []string{"+", "-"},
	Unary:  []string{"-", "~", "<", ">"},
}

var productions = []parse.Production{
	{Name: "blank", Kind: token.Newline, Generate: blankLine},
	{Name: "label-or-instruction", Kind: token.Ident, Generate: labelOrInstruction},
	{Name: "const", Kind: token.Directive, Text: ".const", Generate: constDirective},
	{Name: "var", Kind: token.Directive, Text: ".var", Generate: staticDirective},
	{Name: "let", Kind: token.Directive, Text: ".let", Generate: staticDirective},
	{Name: "unknown-directive", Kind: token.Directive, Generate: unknownDirective},
}

func isNewline(tok token.Token) bool {
	return tok.Kind == token.Newline
}

func atLineEnd(c *parse.Cursor) bool {
	return c.At(token.Newline) || c.At(token.EOF)
}

func expectLineEnd(c *parse.Cursor) error {
	if atLineEnd(c) {
		return nil
	}
	tok := c.Peek()
	return c.Errorf(tok, "expected end of line, got %s", tok.Lexeme())
}

func blankLine(token.Token, *parse.Cursor) ([]ast.Node, error) {
	return nil, nil
}

// labelOrInstruction handles "name:" and "MNEMONIC [operand {, operand}]".
// A label may be followed by an instruction on the same line; that
// instruction is picked up by the next production.
func labelOrInstruction(tok token.Token, c *parse.Cursor) ([]ast.Node, error) {
	if _, ok := c.Accept(token.Punct, ":"); ok {
		return []ast.Node{&ast.LabelDecl{At: tok.Pos, Name: tok.Text}}, nil
	}
	instr := &ast.Instr{At: tok.Pos, Mnemonic: strings.ToUpper(tok.Text)}
	if !atLineEnd(c) {
		for {
			p, err := operands.Parse(c)
			if err != nil {
				return nil, err
			}
			instr.Params = append(instr.Params, p)
			if _, ok := c.Accept(token.Punct, ","); !ok {
				break
			}
		}
	}
	if err := expectLineEnd(c); err != nil {
		return nil, err
	}
	return []ast.Node{instr}, nil
}

// constDirective handles ".const NAME = expr".
func constDirective(tok token.Token, c *parse.Cursor) ([]ast.Node, error) {
	name, err := c.Expect(token.Ident)
	if err != nil {
		return nil, err
	}
	if _, err := c.Expect(token.Op, "="); err != nil {
		return nil, err
	}
	value, err := operands.Parse(c)
	if err != nil {
		return nil, err
	}
	if err := expectLineEnd(c); err != nil {
		return nil, err
	}
	return []ast.Node{&ast.ConstDecl{At: tok.Pos, Name: name.Text, Value: value}}, nil
}

// staticDirective handles ".var NAME [= expr]" and ".let NAME = expr".
func staticDirective(tok token.Token, c *parse.Cursor) ([]ast.Node, error) {
	decl := &ast.VarDecl{At: tok.Pos, Mutable: tok.Text == ".var"}
	name, err := c.Expect(token.Ident)
	if err != nil {
		return nil, err
	}
	decl.Name = name.Text
	if _, ok := c.Accept(token.Op, "="); ok {
		if decl.Init, err = operands.Parse(c); err != nil {
			return nil, err
		}
	} else if !decl.Mutable {
		_, err := c.Expect(token.Op, "=")
		return nil, err
	}
	if err := expectLineEnd(c); err != nil {
		return nil, err
	}
	return []ast.Node{decl}, nil
}

func unknownDirective(tok token.Token, c *parse.Cursor) ([]ast.Node, error) {
	return nil, c.Errorf(tok, "unknown directive %s", tok.Text)
}
