// Package source tracks file/line/column positions through the compiler
// pipeline. Every token, AST node and diagnostic carries one Location.
package source

import "fmt"

// Location is a 1-indexed (file, line, column) triple. The zero value is
// not a valid location; use NewLocation or Location{File: f, Line: 1, Column: 1}.
type Location struct {
	File   string
	Line   int
	Column int
}

// NewLocation returns the starting location for a file.
func NewLocation(file string) Location {
	return Location{File: file, Line: 1, Column: 1}
}

// NextColumn advances the location by n columns on the same line.
func (l Location) NextColumn(n int) Location {
	l.Column += n
	return l
}

// NextLine advances the location to the start of the next line.
func (l Location) NextLine() Location {
	l.Line++
	l.Column = 1
	return l
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// IsValid reports whether the location was ever set by the lexer.
func (l Location) IsValid() bool {
	return l.Line > 0 && l.Column > 0
}
