// Package source holds the source-location anchors shared by every front end.
// Anchors exist only for diagnostics; nothing downstream of the parser
// interprets them.
package source

import (
	"fmt"
	"strings"
)

// Pos is a position in a source file. The zero value is an invalid position.
type Pos struct {
	File string // source file name, may be empty
	Line int    // 1-based line number
	Col  int    // 1-based column, in runes
}

// NewPos returns the position at line:col of file.
func NewPos(file string, line, col int) Pos {
	return Pos{File: file, Line: line, Col: col}
}

// IsValid reports whether the position refers to a real line.
func (p Pos) IsValid() bool {
	return p.Line > 0
}

// String formats the position as "file:line:col", or "line:col" when the file
// name is unknown, or "-" for the zero position.
func (p Pos) String() string {
	if !p.IsValid() {
		return "-"
	}
	if p.File != "" {
		return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Col)
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// File is a named piece of source text.
type File struct {
	Name  string
	Text  string
	lines []string
}

// NewFile wraps text under the given name.
func NewFile(name, text string) *File {
	return &File{Name: name, Text: text, lines: strings.Split(text, "\n")}
}

// Pos returns the position at line:col of this file.
func (f *File) Pos(line, col int) Pos {
	return Pos{File: f.Name, Line: line, Col: col}
}

// Line returns the text of the 1-based line n without its newline.
func (f *File) Line(n int) (string, bool) {
	if f == nil || n < 1 || n > len(f.lines) {
		return "", false
	}
	return strings.TrimRight(f.lines[n-1], "\r"), true
}

// LineCount returns the number of lines in the file.
func (f *File) LineCount() int {
	return len(f.lines)
}

// Snippet returns the trimmed source line p points at, or a placeholder when
// the line is not part of this file.
func (f *File) Snippet(p Pos) string {
	if f == nil || (p.File != "" && p.File != f.Name) {
		return "<source unavailable>"
	}
	line, ok := f.Line(p.Line)
	if !ok {
		return "<source unavailable>"
	}
	return strings.TrimSpace(line)
}
