// Package parse implements the table-driven parser engine shared by the
// assembler and the SICL compiler.
//
// A grammar is an ordered list of productions keyed by token kind. The engine
// owns the cursor and the dispatch loop; each production only says what to
// build from the token it matched:
//
//	for tok := cursor.Peek(); tok.Kind != EOF; tok = cursor.Peek() {
//		p := first production matching tok      // syntax error if none
//		cursor.Next()                           // the matched token is consumed
//		root.children += p.Generate(tok, cursor)
//	}
package parse

import (
	"go.uber.org/zap"

	"sicc/pkg/ast"
	"sicc/pkg/diag"
	"sicc/pkg/token"
)

// Generator builds nodes from the token its production matched. The matched
// token has already been consumed; further tokens are read through c.
// Returning no nodes is allowed.
type Generator func(tok token.Token, c *Cursor) ([]ast.Node, error)

// Production fires on a token of Kind and, when Text is set, that exact
// lexeme.
type Production struct {
	Name     string
	Kind     token.Kind
	Text     string
	Generate Generator
}

// Matches reports whether the production applies to tok.
func (p Production) Matches(tok token.Token) bool {
	if tok.Kind != p.Kind {
		return false
	}
	return p.Text == "" || p.Text == tok.Text
}

// Option configures an Engine.
type Option func(*Engine)

// WithRecovery makes the engine keep going after an error: it skips tokens up
// to and including the next token for which isSync returns true, then resumes.
// Without recovery the engine stops at the first error.
func WithRecovery(isSync func(token.Token) bool) Option {
	return func(e *Engine) {
		e.isSync = isSync
	}
}

// WithMaxErrors stops recovery once n errors have been collected.
func WithMaxErrors(n int) Option {
	return func(e *Engine) {
		e.maxErrors = n
	}
}

// WithLogger sets the logger used for debug tracing.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// Engine drives one parse of one token stream. It is not reusable.
type Engine struct {
	productions []Production
	cursor      Cursor
	root        *ast.Root
	errs        diag.List
	isSync      func(token.Token) bool
	maxErrors   int
	logger      *zap.Logger
	parsed      bool
}

// New prepares an engine over tokens. The stream should end with an EOF
// token; reading past its end yields EOF regardless.
func New(tokens []token.Token, productions []Production, opts ...Option) *Engine {
	e := &Engine{
		productions: productions,
		cursor:      newCursor(tokens),
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.root = &ast.Root{At: e.cursor.Peek().Pos}
	return e
}

// Parse runs the engine to completion and returns the root. Calling it again
// returns the same tree.
func (e *Engine) Parse() *ast.Root {
	if e.parsed {
		return e.root
	}
	e.parsed = true

	for {
		tok := e.cursor.Peek()
		if tok.Kind == token.EOF {
			break
		}
		prod, ok := e.match(tok)
		if !ok {
			e.fail(&diag.SyntaxError{Pos: tok.Pos, Lexeme: tok.Lexeme()})
			if !e.recover() {
				break
			}
			continue
		}
		e.cursor.Next()
		nodes, err := prod.Generate(tok, &e.cursor)
		if err != nil {
			e.fail(err)
			if !e.recover() {
				break
			}
			continue
		}
		for _, n := range nodes {
			if n != nil {
				e.root.Append(n)
			}
		}
		e.logger.Debug("Production fired",
			zap.String("production", prod.Name),
			zap.Stringer("pos", tok.Pos),
			zap.Int("nodes", len(nodes)))
	}
	return e.root
}

// Tree returns the root built so far.
func (e *Engine) Tree() *ast.Root {
	return e.root
}

// HasError reports whether parsing failed anywhere.
func (e *Engine) HasError() bool {
	return e.errs.HasErrors()
}

// Errors returns every error in the order it was found.
func (e *Engine) Errors() []error {
	return e.errs.Errors()
}

// Err returns all errors combined, or nil.
func (e *Engine) Err() error {
	return e.errs.Err()
}

func (e *Engine) match(tok token.Token) (Production, bool) {
	for _, p := range e.productions {
		if p.Matches(tok) {
			return p, true
		}
	}
	return Production{}, false
}

func (e *Engine) fail(err error) {
	e.errs.Add(err)
	e.logger.Debug("Parse error", zap.Error(err))
}

// recover skips to just past the next synchronizing token. It reports false
// when parsing should stop instead.
func (e *Engine) recover() bool {
	if e.isSync == nil {
		return false
	}
	if e.maxErrors > 0 && e.errs.Len() >= e.maxErrors {
		return false
	}
	skipped := 0
	for tok := e.cursor.Peek(); tok.Kind != token.EOF; tok = e.cursor.Peek() {
		e.cursor.Next()
		skipped++
		if e.isSync(tok) {
			break
		}
	}
	e.logger.Debug("Recovered", zap.Int("skipped", skipped))
	return true
}
