// Package diag defines the diagnostics every stage of a compilation reports:
// unresolved identifiers, syntax errors, positioned semantic errors and the
// omnibus List that gathers them for one compilation attempt.
package diag

import (
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"sicc/pkg/source"
)

// ErrInvariant marks defects: states that correct front ends never produce.
// Errors wrapping it are bugs, not user-facing conditions.
var ErrInvariant = errors.New("invariant violation")

// Positioned is implemented by errors that carry a source-location anchor.
type Positioned interface {
	error
	Position() source.Pos
}

// UnresolvedIdentifierError reports a name with no binding.
type UnresolvedIdentifierError struct {
	Name string
	Pos  source.Pos // zero when the lookup had no anchor
	Err  error      // underlying resolver failure, if any
}

func (e *UnresolvedIdentifierError) Error() string {
	msg := fmt.Sprintf("unresolved identifier %q", e.Name)
	if e.Pos.IsValid() {
		msg = fmt.Sprintf("%s: %s", e.Pos, msg)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *UnresolvedIdentifierError) Position() source.Pos { return e.Pos }

func (e *UnresolvedIdentifierError) Unwrap() error { return e.Err }

// Unresolved returns an UnresolvedIdentifierError for name at pos.
func Unresolved(name string, pos source.Pos) error {
	return &UnresolvedIdentifierError{Name: name, Pos: pos}
}

// SyntaxError reports a token the grammar cannot accept.
type SyntaxError struct {
	Pos    source.Pos
	Lexeme string
	Msg    string // optional detail, defaults to "unexpected <lexeme>"
}

func (e *SyntaxError) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = fmt.Sprintf("unexpected %s", e.Lexeme)
	}
	return fmt.Sprintf("%s: syntax error: %s", e.Pos, msg)
}

func (e *SyntaxError) Position() source.Pos { return e.Pos }

// Error is a positioned semantic error raised by a front end.
type Error struct {
	Pos source.Pos
	Msg string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
}

func (e *Error) Position() source.Pos { return e.Pos }

// Errorf returns a positioned error.
func Errorf(pos source.Pos, format string, args ...any) error {
	return &Error{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// PosOf returns the anchor of the first positioned error in err's chain.
func PosOf(err error) (source.Pos, bool) {
	var p Positioned
	if errors.As(err, &p) {
		return p.Position(), p.Position().IsValid()
	}
	return source.Pos{}, false
}

// IsUnresolved reports whether err's chain holds an UnresolvedIdentifierError.
func IsUnresolved(err error) bool {
	var u *UnresolvedIdentifierError
	return errors.As(err, &u)
}

// IsSyntax reports whether err's chain holds a SyntaxError.
func IsSyntax(err error) bool {
	var s *SyntaxError
	return errors.As(err, &s)
}

// List collects every failure of one compilation attempt. The zero value is
// ready to use.
type List struct {
	err error
}

// Add appends err to the list; nil is ignored and lists are flattened.
func (l *List) Add(err error) {
	l.err = multierr.Append(l.err, err)
}

// Addf appends a positioned error.
func (l *List) Addf(pos source.Pos, format string, args ...any) {
	l.Add(Errorf(pos, format, args...))
}

// Len returns the number of collected errors.
func (l *List) Len() int {
	return len(multierr.Errors(l.err))
}

// HasErrors reports whether anything was collected.
func (l *List) HasErrors() bool {
	return l.err != nil
}

// Errors returns the collected errors in the order they were added.
func (l *List) Errors() []error {
	return multierr.Errors(l.err)
}

// Err returns the combined error, or nil when the list is empty.
func (l *List) Err() error {
	return l.err
}

// Render writes every error held by err, one per line, followed by the
// offending source line when one of files contains it.
func Render(w io.Writer, err error, files ...*source.File) error {
	var sb strings.Builder
	for _, e := range multierr.Errors(err) {
		sb.WriteString(e.Error())
		sb.WriteByte('\n')
		pos, ok := PosOf(e)
		if !ok {
			continue
		}
		for _, f := range files {
			if f == nil || (pos.File != "" && f.Name != pos.File) {
				continue
			}
			if line, ok := f.Line(pos.Line); ok {
				fmt.Fprintf(&sb, "  |> %s\n", strings.TrimSpace(line))
			}
			break
		}
	}
	_, werr := io.WriteString(w, sb.String())
	return werr
}
