// Package patch implements the second pass of both front ends: once every
// symbol has an address, pending actions rewrite the immediates of the
// instructions that referenced them.
//
// The resolver always returns a symbol's full-width value; slicing it into
// immediate-sized pieces is the patcher's job. A 16-bit address referenced
// from 8-bit immediates takes two actions, one with Shift 0 for the low byte
// and one with Shift 8 for the high byte.
package patch

import (
	"fmt"
	"slices"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"sicc/pkg/diag"
	"sicc/pkg/isa"
	"sicc/pkg/source"
)

// Action is a deferred rewrite of the immediate at Index.
type Action struct {
	Index  int        // instruction index in the stream being patched
	Pos    source.Pos // reference site, for diagnostics
	Symbol string
	Shift  uint // right shift applied to the resolved value
}

func (a Action) String() string {
	return fmt.Sprintf("[%d] %s>>%d @%s", a.Index, a.Symbol, a.Shift, a.Pos)
}

// Resolver maps a symbol to its value.
//
//go:generate mockgen -destination=../mock/resolver.go -package=mock sicc/pkg/patch Resolver
type Resolver interface {
	ResolveSymbol(name string, at source.Pos) (int, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(name string, at source.Pos) (int, error)

func (f ResolverFunc) ResolveSymbol(name string, at source.Pos) (int, error) {
	return f(name, at)
}

// Option configures a Patcher.
type Option func(*Patcher)

// WithLogger sets the logger for per-action debug output.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Patcher) {
		p.logger = logger
	}
}

// Patcher applies patch actions.
type Patcher struct {
	logger *zap.Logger
}

func NewPatcher(opts ...Option) *Patcher {
	p := &Patcher{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Patch runs the default patcher.
func Patch(instrs []isa.Instruction, r Resolver, actions []Action, base uint16) ([]isa.Instruction, error) {
	return NewPatcher().Patch(instrs, r, actions, base)
}

// Patch returns a copy of instrs with every action applied in order: the
// symbol is resolved, shifted right by the action's Shift and masked to the
// immediate width. Wider values are truncated, never rejected. When two
// actions target one index the later one wins.
//
// The first resolver failure aborts the pass. The error is an
// UnresolvedIdentifierError naming the symbol and no instructions are
// returned. instrs itself is never modified.
//
// base is the load address of instrs[0]; it only appears in log output since
// resolved values are already absolute.
//
// An action indexing outside instrs is a front-end bug and panics.
func (p *Patcher) Patch(instrs []isa.Instruction, r Resolver, actions []Action, base uint16) ([]isa.Instruction, error) {
	if err := Validate(len(instrs), actions); err != nil {
		panic(err)
	}
	out := slices.Clone(instrs)
	for _, a := range actions {
		v, err := r.ResolveSymbol(a.Symbol, a.Pos)
		if err != nil {
			if !diag.IsUnresolved(err) {
				err = &diag.UnresolvedIdentifierError{Name: a.Symbol, Pos: a.Pos, Err: err}
			}
			p.logger.Debug("Patch failed", zap.Stringer("action", a), zap.Error(err))
			return nil, err
		}
		imm := isa.Truncate(v >> a.Shift)
		out[a.Index].Imm = imm
		p.logger.Debug("Patched",
			zap.String("symbol", a.Symbol),
			zap.Int("value", v),
			zap.Uint("shift", a.Shift),
			zap.Uint8("imm", uint8(imm)),
			zap.Int("addr", int(base)+a.Index*isa.InstructionSize))
	}
	return out, nil
}

// Validate reports every action whose index falls outside a stream of n
// instructions. The error wraps diag.ErrInvariant.
func Validate(n int, actions []Action) error {
	var bad diag.List
	for i, a := range actions {
		if a.Index < 0 || a.Index >= n {
			bad.Add(errors.Wrapf(diag.ErrInvariant,
				"patch action %d (%s) targets index %d of %d instructions", i, a.Symbol, a.Index, n))
		}
	}
	return bad.Err()
}
