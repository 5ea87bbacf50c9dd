package parse

import (
	"slices"

	"sicc/pkg/ast"
	"sicc/pkg/token"
)

// ExprGrammar describes the operand expressions of a language. All binary
// operators share one precedence level and associate to the left; unary
// operators bind tighter. Operators are token.Op lexemes.
type ExprGrammar struct {
	Binary []string
	Unary  []string
}

// Parse reads one expression starting at the cursor.
func (g ExprGrammar) Parse(c *Cursor) (ast.Node, error) {
	left, err := g.unary(c)
	if err != nil {
		return nil, err
	}
	for len(g.Binary) > 0 {
		op, ok := c.Accept(token.Op, g.Binary...)
		if !ok {
			break
		}
		right, err := g.unary(c)
		if err != nil {
			return nil, err
		}
		left = &ast.Binary{At: op.Pos, Op: op.Text, Left: left, Right: right}
	}
	return left, nil
}

func (g ExprGrammar) unary(c *Cursor) (ast.Node, error) {
	if tok := c.Peek(); tok.Kind == token.Op && slices.Contains(g.Unary, tok.Text) {
		c.Next()
		operand, err := g.unary(c)
		if err != nil {
			return nil, err
		}
		return &ast.Unary{At: tok.Pos, Op: tok.Text, Operand: operand}, nil
	}
	return g.primary(c)
}

func (g ExprGrammar) primary(c *Cursor) (ast.Node, error) {
	tok := c.Peek()
	switch {
	case tok.Kind == token.Int:
		c.Next()
		return &ast.Literal{At: tok.Pos, Kind: ast.IntLit, Value: tok.Value}, nil
	case tok.Kind == token.Bool:
		c.Next()
		return &ast.Literal{At: tok.Pos, Kind: ast.BoolLit, Value: tok.Value}, nil
	case tok.Kind == token.Ident:
		c.Next()
		return &ast.Ident{At: tok.Pos, Name: tok.Text}, nil
	case tok.Is(token.Punct, "("):
		c.Next()
		inner, err := g.Parse(c)
		if err != nil {
			return nil, err
		}
		if _, err := c.Expect(token.Punct, ")"); err != nil {
			return nil, err
		}
		return inner, nil
	}
	return nil, c.Errorf(tok, "expected expression, got %s", tok.Lexeme())
}
