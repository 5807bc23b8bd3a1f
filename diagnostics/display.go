package diagnostics

import (
	"fmt"
	"strings"

	"github.com/unworried/flip/source"
)

// ANSI escape sequences used when rendering diagnostics.
const (
	colorReset  = "\x1b[0m"
	colorRed    = "\x1b[31m"
	colorOrange = "\x1b[33m"
)

// messagePadding bounds the context shown on either side of the span.
const messagePadding = 16

// Display renders diagnostics against their source for the terminal.
type Display struct {
	src   *source.Source
	color bool
}

// NewDisplay creates a renderer. Colors are emitted unless disabled.
func NewDisplay(src *source.Source, color bool) *Display {
	return &Display{src: src, color: color}
}

func (d *Display) paint(code, s string) string {
	if !d.color {
		return s
	}
	return code + s + colorReset
}

// Stringify formats one diagnostic: the offending line with the span
// highlighted, caret indicators beneath, and the positioned message.
func (d *Display) Stringify(diag Diagnostic) string {
	if diag.Span == nil {
		return fmt.Sprintf("%s: %s\n", diag.Kind, diag.Message)
	}

	lineIdx := d.src.LineIndex(diag.Span.Start)
	line := d.src.Line(lineIdx)
	lineStart := d.src.LineStart(lineIdx)
	column := diag.Span.Start - lineStart
	if column > len(line) {
		column = len(line)
	}

	prefixStart := column - messagePadding
	if prefixStart < 0 {
		prefixStart = 0
	}
	prefix := line[prefixStart:column]

	spanEnd := column + diag.Span.Length()
	if spanEnd > len(line) {
		spanEnd = len(line)
	}
	span := line[column:spanEnd]

	suffixEnd := spanEnd + messagePadding
	if suffixEnd > len(line) {
		suffixEnd = len(line)
	}
	suffix := line[spanEnd:suffixEnd]

	indent := column
	if indent > messagePadding {
		indent = messagePadding
	}
	pad := strings.Repeat(" ", indent)

	indicators := pad + strings.Repeat("^", diag.Span.Length())
	pointer := pad + "|"
	message := fmt.Sprintf("%s+-- %s (%d:%d)",
		pad, d.paint(colorOrange, diag.Message), lineIdx+1, column+1)

	return fmt.Sprintf("%s%s%s\n%s\n%s\n%s\n",
		prefix, d.paint(colorRed, span), suffix, indicators, pointer, message)
}

// Render formats every diagnostic in the bag.
func (d *Display) Render(bag *Bag) string {
	var sb strings.Builder
	for _, diag := range bag.Diagnostics {
		sb.WriteString(d.Stringify(diag))
		sb.WriteString("\n")
	}
	return sb.String()
}
