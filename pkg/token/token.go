// Package token defines the lexical tokens both front ends hand to the parser
// engine. Token kinds are shared; each front end decides which kinds and
// lexemes it produces.
package token

import (
	"fmt"

	"sicc/pkg/source"
)

// Kind identifies the category of a lexed token.
type Kind int

const (
	EOF Kind = iota // sentinel: end of input, always the last token

	Newline   // end of a line, for line-oriented grammars
	Ident     // identifier, Text holds the name
	Int       // integer literal, Value holds the number
	Bool      // boolean literal, Value is 0 or 1
	String    // string literal, Text holds the unquoted body
	Op        // operator, Text holds the operator tag
	Punct     // punctuation, Text holds the character
	Directive // assembler directive such as ".const", Text includes the dot
	Keyword   // reserved word, Text holds the word
)

// kindNames is indexed by Kind.
var kindNames = [...]string{
	EOF:       "EOF",
	Newline:   "NEWLINE",
	Ident:     "IDENT",
	Int:       "INT",
	Bool:      "BOOL",
	String:    "STRING",
	Op:        "OP",
	Punct:     "PUNCT",
	Directive: "DIRECTIVE",
	Keyword:   "KEYWORD",
}

func (k Kind) String() string {
	if int(k) >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Token is a single lexical unit. Every field is comparable, so == compares
// kind, payload and anchor.
type Token struct {
	Kind  Kind
	Text  string // identifier, operator, punctuation, directive or string payload
	Value int64  // numeric and boolean payload
	Pos   source.Pos
}

// New returns a token carrying a text payload.
func New(kind Kind, text string, pos source.Pos) Token {
	return Token{Kind: kind, Text: text, Pos: pos}
}

// NewInt returns an integer literal token. text is the lexeme as written.
func NewInt(value int64, text string, pos source.Pos) Token {
	return Token{Kind: Int, Text: text, Value: value, Pos: pos}
}

// NewBool returns a boolean literal token.
func NewBool(value bool, pos source.Pos) Token {
	t := Token{Kind: Bool, Text: "false", Pos: pos}
	if value {
		t.Text = "true"
		t.Value = 1
	}
	return t
}

// Is reports whether the token has the given kind and, when text is given,
// one of the given lexemes.
func (t Token) Is(kind Kind, text ...string) bool {
	if t.Kind != kind {
		return false
	}
	if len(text) == 0 {
		return true
	}
	for _, s := range text {
		if t.Text == s {
			return true
		}
	}
	return false
}

// Lexeme returns the source text of the token as it should appear in
// diagnostics.
func (t Token) Lexeme() string {
	switch t.Kind {
	case EOF:
		return "end of input"
	case Newline:
		return "end of line"
	case String:
		return fmt.Sprintf("%q", t.Text)
	}
	return t.Text
}

func (t Token) String() string {
	return fmt.Sprintf("%-10s %-14q  %s", t.Kind, t.Text, t.Pos)
}
