package compiler

import (
	"sicc/pkg/ast"
	"sicc/pkg/lex"
	"sicc/pkg/parse"
	"sicc/pkg/token"
)

// keywords are the reserved words of SICL; true and false lex as booleans.
var keywords = map[string]bool{
	"const": true,
	"var":   true,
	"out":   true,
	"goto":  true,
	"if":    true,
	"halt":  true,
}

var lexConfig = lex.Config{
	Keywords:      keywords,
	Bools:         true,
	Ops:           "+-&|^~!=",
	Punct:         ";:,()",
	LineComments:  []string{"//"},
	BlockComments: true,
}

var expressions = parse.ExprGrammar{
	Binary: []string{"+", "-", "&", "|", "^"},
	Unary:  []string{"-", "~", "!"},
}

var productions = []parse.Production{
	{Name: "const", Kind: token.Keyword, Text: "const", Generate: parseConst},
	{Name: "var", Kind: token.Keyword, Text: "var", Generate: parseVar},
	{Name: "out", Kind: token.Keyword, Text: "out", Generate: parseOut},
	{Name: "goto", Kind: token.Keyword, Text: "goto", Generate: parseGoto},
	{Name: "if", Kind: token.Keyword, Text: "if", Generate: parseIf},
	{Name: "halt", Kind: token.Keyword, Text: "halt", Generate: parseHalt},
	{Name: "label-or-assign", Kind: token.Ident, Generate: parseLabelOrAssign},
	{Name: "empty", Kind: token.Punct, Text: ";", Generate: parseEmpty},
}

func isSemicolon(tok token.Token) bool {
	return tok.Is(token.Punct, ";")
}

func end(c *parse.Cursor) error {
	_, err := c.Expect(token.Punct, ";")
	return err
}

func one(n ast.Node, c *parse.Cursor) ([]ast.Node, error) {
	if err := end(c); err != nil {
		return nil, err
	}
	return []ast.Node{n}, nil
}

// const NAME = expr;
func parseConst(tok token.Token, c *parse.Cursor) ([]ast.Node, error) {
	name, err := c.Expect(token.Ident)
	if err != nil {
		return nil, err
	}
	if _, err := c.Expect(token.Op, "="); err != nil {
		return nil, err
	}
	value, err := expressions.Parse(c)
	if err != nil {
		return nil, err
	}
	return one(&ast.ConstDecl{At: tok.Pos, Name: name.Text, Value: value}, c)
}

// var NAME [= expr];
func parseVar(tok token.Token, c *parse.Cursor) ([]ast.Node, error) {
	name, err := c.Expect(token.Ident)
	if err != nil {
		return nil, err
	}
	decl := &ast.VarDecl{At: tok.Pos, Name: name.Text, Mutable: true}
	if _, ok := c.Accept(token.Op, "="); ok {
		if decl.Init, err = expressions.Parse(c); err != nil {
			return nil, err
		}
	}
	return one(decl, c)
}

// out [PORT,] expr;
func parseOut(tok token.Token, c *parse.Cursor) ([]ast.Node, error) {
	first, err := expressions.Parse(c)
	if err != nil {
		return nil, err
	}
	out := &ast.Out{At: tok.Pos, Value: first}
	if _, ok := c.Accept(token.Punct, ","); ok {
		out.Port = first
		if out.Value, err = expressions.Parse(c); err != nil {
			return nil, err
		}
	}
	return one(out, c)
}

// goto LABEL;
func parseGoto(tok token.Token, c *parse.Cursor) ([]ast.Node, error) {
	label, err := c.Expect(token.Ident)
	if err != nil {
		return nil, err
	}
	return one(&ast.Goto{At: tok.Pos, Label: label.Text}, c)
}

// if expr goto LABEL;
func parseIf(tok token.Token, c *parse.Cursor) ([]ast.Node, error) {
	cond, err := expressions.Parse(c)
	if err != nil {
		return nil, err
	}
	if _, err := c.Expect(token.Keyword, "goto"); err != nil {
		return nil, err
	}
	label, err := c.Expect(token.Ident)
	if err != nil {
		return nil, err
	}
	return one(&ast.Goto{At: tok.Pos, Label: label.Text, Cond: cond}, c)
}

func parseHalt(tok token.Token, c *parse.Cursor) ([]ast.Node, error) {
	return one(&ast.Halt{At: tok.Pos}, c)
}

// LABEL: or NAME = expr;
func parseLabelOrAssign(tok token.Token, c *parse.Cursor) ([]ast.Node, error) {
	if _, ok := c.Accept(token.Punct, ":"); ok {
		return []ast.Node{&ast.LabelDecl{At: tok.Pos, Name: tok.Text}}, nil
	}
	if _, err := c.Expect(token.Op, "="); err != nil {
		return nil, err
	}
	value, err := expressions.Parse(c)
	if err != nil {
		return nil, err
	}
	return one(&ast.Assign{At: tok.Pos, Name: tok.Text, Value: value}, c)
}

func parseEmpty(token.Token, *parse.Cursor) ([]ast.Node, error) {
	return nil, nil
}
