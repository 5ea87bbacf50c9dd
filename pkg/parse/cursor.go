package parse

import (
	"fmt"
	"strings"

	"sicc/pkg/diag"
	"sicc/pkg/token"
)

// Cursor is the position of the engine in its token stream. Generators use it
// to consume the tokens that follow the one their production matched.
type Cursor struct {
	tokens []token.Token
	pos    int
}

func newCursor(tokens []token.Token) Cursor {
	return Cursor{tokens: tokens}
}

// Peek returns the current token without consuming it.
func (c *Cursor) Peek() token.Token {
	return c.PeekAt(0)
}

// PeekAt returns the token offset places ahead of the current one. Past the
// end of the stream it returns an EOF token.
func (c *Cursor) PeekAt(offset int) token.Token {
	i := c.pos + offset
	if i < len(c.tokens) {
		return c.tokens[i]
	}
	eof := token.Token{Kind: token.EOF}
	if n := len(c.tokens); n > 0 {
		eof.Pos = c.tokens[n-1].Pos
	}
	return eof
}

// Next consumes and returns the current token. The cursor never moves past
// an EOF token.
func (c *Cursor) Next() token.Token {
	tok := c.Peek()
	if tok.Kind != token.EOF {
		c.pos++
	}
	return tok
}

// At reports whether the current token has kind and, when given, one of the
// lexemes in text.
func (c *Cursor) At(kind token.Kind, text ...string) bool {
	return c.Peek().Is(kind, text...)
}

// Accept consumes the current token if it matches.
func (c *Cursor) Accept(kind token.Kind, text ...string) (token.Token, bool) {
	if !c.At(kind, text...) {
		return token.Token{}, false
	}
	return c.Next(), true
}

// Expect consumes the current token if it matches, otherwise it returns a
// syntax error at that token and leaves it in place.
func (c *Cursor) Expect(kind token.Kind, text ...string) (token.Token, error) {
	if tok, ok := c.Accept(kind, text...); ok {
		return tok, nil
	}
	tok := c.Peek()
	return tok, c.Errorf(tok, "expected %s, got %s", describe(kind, text), tok.Lexeme())
}

// Errorf returns a syntax error anchored at tok.
func (c *Cursor) Errorf(tok token.Token, format string, args ...any) error {
	return &diag.SyntaxError{Pos: tok.Pos, Lexeme: tok.Lexeme(), Msg: fmt.Sprintf(format, args...)}
}

// Offset returns the index of the current token.
func (c *Cursor) Offset() int {
	return c.pos
}

func describe(kind token.Kind, text []string) string {
	if len(text) == 0 {
		return strings.ToLower(kind.String())
	}
	quoted := make([]string, len(text))
	for i, s := range text {
		quoted[i] = fmt.Sprintf("%q", s)
	}
	return strings.Join(quoted, " or ")
}
