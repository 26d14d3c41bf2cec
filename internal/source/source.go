// Package source provides identifier interning and source positions shared
// by every later compiler phase.
package source

import "fmt"

// Pos is a single point in a source file.
type Pos struct {
	Line   int
	Column int
	File   string
	Offset int
}

func (p Pos) String() string {
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// Span is a half-open range [Start, End) in a source file.
type Span struct {
	Start Pos
	End   Pos
}

func (s Span) String() string {
	if s.Start.File == s.End.File && s.Start.Line == s.End.Line {
		return fmt.Sprintf("%s:%d:%d-%d", s.Start.File, s.Start.Line, s.Start.Column, s.End.Column)
	}
	return fmt.Sprintf("%s-%s", s.Start, s.End)
}

// Merge returns the smallest span covering both a and b.
func Merge(a, b Span) Span {
	start, end := a.Start, a.End
	if b.Start.Offset < start.Offset {
		start = b.Start
	}
	if b.End.Offset > end.Offset {
		end = b.End
	}
	return Span{Start: start, End: end}
}

// ID is the interned representation of an identifier's text.
type ID uint32

// Interner deduplicates identifier text into small integer IDs so later
// phases (symbol table, type environment) can use cheap map keys instead of
// repeatedly comparing strings.
type Interner struct {
	byText []string
	ids    map[string]ID
}

// NewInterner creates an empty interner.
func NewInterner() *Interner {
	return &Interner{
		ids: make(map[string]ID),
	}
}

// Intern returns the ID for text, assigning a fresh one on first sight.
func (in *Interner) Intern(text string) ID {
	if id, ok := in.ids[text]; ok {
		return id
	}
	id := ID(len(in.byText))
	in.byText = append(in.byText, text)
	in.ids[text] = id
	return id
}

// Lookup resolves an ID back to its text. Panics on an ID that was never
// produced by Intern, since that indicates a caller bug rather than
// recoverable input.
func (in *Interner) Lookup(id ID) string {
	return in.byText[id]
}

// Len returns the number of distinct interned strings.
func (in *Interner) Len() int {
	return len(in.byText)
}
