// Package source tracks input text and byte-offset spans for diagnostics.
package source

import (
	"fmt"
	"strings"
)

// Span is a half-open byte range [Start, End) into the source text.
type Span struct {
	Start int
	End   int
}

// NewSpan builds a span from raw offsets.
func NewSpan(start, end int) Span {
	return Span{Start: start, End: end}
}

// Combine returns the smallest span covering all inputs.
func Combine(spans ...Span) Span {
	if len(spans) == 0 {
		return Span{}
	}
	out := spans[0]
	for _, s := range spans[1:] {
		if s.Start < out.Start {
			out.Start = s.Start
		}
		if s.End > out.End {
			out.End = s.End
		}
	}
	return out
}

// Length is the number of bytes covered; never below one so caret
// indicators stay visible for empty spans.
func (s Span) Length() int {
	if s.End-s.Start < 1 {
		return 1
	}
	return s.End - s.Start
}

func (s Span) String() string {
	return fmt.Sprintf("%d..%d", s.Start, s.End)
}

// Source wraps input text with line lookup.
type Source struct {
	text       string
	lineStarts []int
}

// New indexes the given text.
func New(text string) *Source {
	starts := []int{0}
	for i, ch := range text {
		if ch == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &Source{text: text, lineStarts: starts}
}

// Text returns the full input.
func (s *Source) Text() string { return s.text }

// LineIndex returns the zero-based line containing the byte offset.
func (s *Source) LineIndex(offset int) int {
	idx := 0
	for i, start := range s.lineStarts {
		if start > offset {
			break
		}
		idx = i
	}
	return idx
}

// LineStart returns the byte offset of the given line's first character.
func (s *Source) LineStart(line int) int {
	if line < 0 || line >= len(s.lineStarts) {
		return 0
	}
	return s.lineStarts[line]
}

// Line returns the text of the given zero-based line without its newline.
func (s *Source) Line(line int) string {
	if line < 0 || line >= len(s.lineStarts) {
		return ""
	}
	start := s.lineStarts[line]
	end := len(s.text)
	if line+1 < len(s.lineStarts) {
		end = s.lineStarts[line+1] - 1
	}
	return strings.TrimSuffix(s.text[start:end], "\r")
}

// Position resolves a byte offset to one-based line and column numbers.
func (s *Source) Position(offset int) (line, column int) {
	idx := s.LineIndex(offset)
	return idx + 1, offset - s.lineStarts[idx] + 1
}
