// Package session runs one compilation unit through the shared back end:
// lex, table-driven parse, front-end code generation, patching and image
// assembly. Front ends plug in through FrontEnd.
package session

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"sicc/pkg/ast"
	"sicc/pkg/diag"
	"sicc/pkg/emit"
	"sicc/pkg/image"
	"sicc/pkg/parse"
	"sicc/pkg/patch"
	"sicc/pkg/source"
	"sicc/pkg/symtab"
	"sicc/pkg/token"
)

// FrontEnd is a source language.
type FrontEnd interface {
	Name() string
	Lex(f *source.File) ([]token.Token, error)
	Productions() []parse.Production
	// Recovery returns the synchronizing-token predicate used after a syntax
	// error, or nil to stop at the first one.
	Recovery() func(token.Token) bool
	// Generate runs the first pass over the tree. Semantic errors go to
	// ctx.Diagnostics; a returned error aborts the unit.
	Generate(ctx *Context, root *ast.Root) (*emit.Unpatched, error)
}

// Context is the state shared by every stage of one compilation.
type Context struct {
	Symbols     *symtab.Table
	Diagnostics *diag.List
	Base        uint16
	Log         *zap.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithBase sets the load address of the first instruction.
func WithBase(base uint16) Option {
	return func(s *Session) {
		s.base = base
	}
}

// WithLogger sets the logger handed to every stage.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithMaxErrors caps the number of syntax errors collected before parsing
// gives up.
func WithMaxErrors(n int) Option {
	return func(s *Session) {
		s.maxErrors = n
	}
}

// Session compiles exactly one unit.
type Session struct {
	base      uint16
	maxErrors int
	logger    *zap.Logger
	ctx       *Context
	used      bool

	tokens    []token.Token
	tree      *ast.Root
	unpatched *emit.Unpatched
}

func New(opts ...Option) *Session {
	s := &Session{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	s.ctx = &Context{
		Symbols:     symtab.New(),
		Diagnostics: &diag.List{},
		Base:        s.base,
		Log:         s.logger,
	}
	return s
}

// Context returns the compilation context, or nil after Close.
func (s *Session) Context() *Context {
	return s.ctx
}

// Compile turns f into a patched image. Any failure returns every diagnostic
// collected so far combined into one error and no image.
func (s *Session) Compile(fe FrontEnd, f *source.File) (*image.Image, error) {
	if s.ctx == nil {
		return nil, errors.Wrap(diag.ErrInvariant, "session is closed")
	}
	if s.used {
		return nil, errors.Wrap(diag.ErrInvariant, "session already compiled a unit")
	}
	s.used = true

	ctx := s.ctx
	log := s.logger.With(zap.String("frontend", fe.Name()), zap.String("file", f.Name))
	log.Debug("Compiling", zap.Uint16("base", s.base))

	tokens, err := fe.Lex(f)
	if err != nil {
		ctx.Diagnostics.Add(err)
		return nil, ctx.Diagnostics.Err()
	}
	s.tokens = tokens

	opts := []parse.Option{parse.WithLogger(log.Named("parse"))}
	if sync := fe.Recovery(); sync != nil {
		opts = append(opts, parse.WithRecovery(sync))
	}
	if s.maxErrors > 0 {
		opts = append(opts, parse.WithMaxErrors(s.maxErrors))
	}
	eng := parse.New(tokens, fe.Productions(), opts...)
	s.tree = eng.Parse()
	if eng.HasError() {
		for _, e := range eng.Errors() {
			ctx.Diagnostics.Add(e)
		}
		return nil, ctx.Diagnostics.Err()
	}

	u, err := fe.Generate(ctx, s.tree)
	if err != nil {
		ctx.Diagnostics.Add(err)
	}
	if ctx.Diagnostics.HasErrors() {
		return nil, ctx.Diagnostics.Err()
	}
	s.unpatched = u

	code, err := patch.NewPatcher(patch.WithLogger(log.Named("patch"))).Patch(u.Code, ctx.Symbols, u.Actions, u.Base)
	if err != nil {
		ctx.Diagnostics.Add(err)
		return nil, ctx.Diagnostics.Err()
	}

	img := image.New(f.Name, u, code, ctx.Symbols)
	log.Debug("Compiled",
		zap.Int("instructions", len(img.Code)),
		zap.Int("data", len(img.Data)),
		zap.Int("symbols", ctx.Symbols.Len()))
	return img, nil
}

// Tokens returns the lexed stream of the compiled unit.
func (s *Session) Tokens() []token.Token {
	return s.tokens
}

// Tree returns the parse tree of the compiled unit, or nil when lexing failed.
func (s *Session) Tree() *ast.Root {
	return s.tree
}

// Unpatched returns the first-pass output, or nil when generation failed.
func (s *Session) Unpatched() *emit.Unpatched {
	return s.unpatched
}

// Close discards the compilation context.
func (s *Session) Close() {
	s.ctx = nil
	s.tokens = nil
	s.tree = nil
	s.unpatched = nil
}
