// Package lex is the scanner both front ends configure: one rune-level loop
// turning source text into token.Token values with line:col anchors.
package lex

import (
	"strconv"
	"strings"
	"unicode"

	"sicc/pkg/diag"
	"sicc/pkg/source"
	"sicc/pkg/token"
)

// Config selects the lexical surface of one language.
type Config struct {
	Keywords      map[string]bool // words lexed as token.Keyword
	Bools         bool            // "true" and "false" lexed as token.Bool
	Ops           string          // single-rune operators
	Punct         string          // single-rune punctuation
	LineComments  []string        // openers of comments running to end of line
	BlockComments bool            // C-style /* */
	Newlines      bool            // emit token.Newline at every line break
	Directives    bool            // ".name" lexed as token.Directive
}

// Lexer holds all mutable state for a single scanning pass over one file.
type Lexer struct {
	cfg  Config
	file *source.File
	src  []rune
	pos  int // index of the next rune to consume
	line int // current 1-based line
	col  int // current 1-based column
	errs diag.List
}

func newLexer(f *source.File, cfg Config) *Lexer {
	return &Lexer{cfg: cfg, file: f, src: []rune(f.Text), line: 1, col: 1}
}

// Lex tokenises f and returns all tokens ending with EOF. Illegal characters
// are reported and skipped so that one pass reports every lexical error.
func Lex(f *source.File, cfg Config) ([]token.Token, error) {
	l := newLexer(f, cfg)
	var tokens []token.Token
	for {
		tok, ok := l.next()
		if !ok {
			continue
		}
		tokens = append(tokens, tok)
		if tok.Kind == token.EOF {
			return tokens, l.errs.Err()
		}
	}
}

func (l *Lexer) peek() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) peek2() rune {
	if l.pos+1 >= len(l.src) {
		return 0
	}
	return l.src[l.pos+1]
}

func (l *Lexer) advance() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	r := l.src[l.pos]
	l.pos++
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

func (l *Lexer) here() source.Pos {
	return l.file.Pos(l.line, l.col)
}

func (l *Lexer) hasPrefix(s string) bool {
	return strings.HasPrefix(string(l.src[l.pos:min(l.pos+len(s), len(l.src))]), s)
}

// skipBlank discards whitespace and comments, stopping at a newline when the
// language has significant line breaks.
func (l *Lexer) skipBlank() {
	for l.pos < len(l.src) {
		r := l.peek()
		switch {
		case r == '\n' && l.cfg.Newlines:
			return
		case unicode.IsSpace(r):
			l.advance()
		case l.cfg.BlockComments && r == '/' && l.peek2() == '*':
			l.skipBlockComment()
		case l.atLineComment():
			for l.pos < len(l.src) && l.peek() != '\n' {
				l.advance()
			}
		default:
			return
		}
	}
}

func (l *Lexer) atLineComment() bool {
	for _, c := range l.cfg.LineComments {
		if l.hasPrefix(c) {
			return true
		}
	}
	return false
}

func (l *Lexer) skipBlockComment() {
	start := l.here()
	l.advance() // /
	l.advance() // *
	for l.pos < len(l.src) {
		if l.peek() == '*' && l.peek2() == '/' {
			l.advance()
			l.advance()
			return
		}
		l.advance()
	}
	l.errs.Addf(start, "unterminated block comment")
}

// next returns the next token; ok is false when an illegal rune was skipped.
func (l *Lexer) next() (token.Token, bool) {
	l.skipBlank()
	pos := l.here()
	if l.pos >= len(l.src) {
		return token.New(token.EOF, "", pos), true
	}

	ch := l.peek()
	switch {
	case ch == '\n':
		l.advance()
		return token.New(token.Newline, "", pos), true
	case unicode.IsLetter(ch) || ch == '_':
		return l.scanWord(pos), true
	case unicode.IsDigit(ch):
		return l.scanInt(pos)
	case ch == '.' && l.cfg.Directives && unicode.IsLetter(l.peek2()):
		l.advance()
		word := l.scanRun()
		return token.New(token.Directive, "."+strings.ToLower(word), pos), true
	case strings.ContainsRune(l.cfg.Ops, ch):
		l.advance()
		return token.New(token.Op, string(ch), pos), true
	case strings.ContainsRune(l.cfg.Punct, ch):
		l.advance()
		return token.New(token.Punct, string(ch), pos), true
	}
	l.advance()
	l.errs.Addf(pos, "unexpected character %q", ch)
	return token.Token{}, false
}

func (l *Lexer) scanRun() string {
	start := l.pos
	for l.pos < len(l.src) {
		r := l.peek()
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			break
		}
		l.advance()
	}
	return string(l.src[start:l.pos])
}

func (l *Lexer) scanWord(pos source.Pos) token.Token {
	word := l.scanRun()
	if l.cfg.Bools && (word == "true" || word == "false") {
		return token.NewBool(word == "true", pos)
	}
	if l.cfg.Keywords[word] {
		return token.New(token.Keyword, word, pos)
	}
	return token.New(token.Ident, word, pos)
}

// scanInt reads a decimal, 0x hex or 0b binary literal. Digits run until the
// first rune that cannot continue a word, so "12ab" is one bad literal rather
// than a number followed by a name.
func (l *Lexer) scanInt(pos source.Pos) (token.Token, bool) {
	text := l.scanRun()
	digits, base := text, 10
	if len(text) > 2 && text[0] == '0' {
		switch text[1] {
		case 'x', 'X':
			digits, base = text[2:], 16
		case 'b', 'B':
			digits, base = text[2:], 2
		}
	}
	v, err := strconv.ParseInt(digits, base, 64)
	if err != nil {
		l.errs.Addf(pos, "invalid integer literal %q", text)
		return token.Token{}, false
	}
	return token.NewInt(v, text, pos), true
}
