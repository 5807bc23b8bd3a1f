package diagnostics

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unworried/flip/source"
)

func TestBagSeparatesErrorsAndWarnings(t *testing.T) {
	bag := NewBag()
	assert.True(t, bag.Empty())
	assert.False(t, bag.HasErrors())

	bag.UnusedVariable("x", source.NewSpan(0, 1))
	assert.False(t, bag.HasErrors())
	assert.False(t, bag.Empty())

	bag.UndefinedReference("y", source.NewSpan(0, 1))
	assert.True(t, bag.HasErrors())
}

func TestMessages(t *testing.T) {
	bag := NewBag()
	bag.ExpectedToken(";", "`let`", source.NewSpan(0, 3))
	bag.MainNotFound()

	msgs := bag.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "expected: ';', found: ``let``", msgs[0])
	assert.Equal(t, "`main` function not found", msgs[1])
}

func TestDisplayMarksSpan(t *testing.T) {
	text := "let x = 7;\nx = 1 let y = x - 2;"
	src := source.New(text)
	bag := NewBag()

	// span covering the stray `let` on line two
	start := strings.Index(text, "1 let") + 2
	bag.ExpectedToken(";", "let", source.NewSpan(start, start+3))

	out := NewDisplay(src, false).Render(bag)
	assert.Contains(t, out, "^^^")
	assert.Contains(t, out, "expected: ';', found: `let`")
	assert.Contains(t, out, "(2:7)")
}

func TestDisplayColors(t *testing.T) {
	src := source.New("abc")
	bag := NewBag()
	bag.IllegalToken(source.NewSpan(0, 1))

	colored := NewDisplay(src, true).Render(bag)
	assert.Contains(t, colored, "\x1b[31m")
	assert.Contains(t, colored, "\x1b[33m")

	plain := NewDisplay(src, false).Render(bag)
	assert.NotContains(t, plain, "\x1b[")
}

func TestProgramLevelDiagnostic(t *testing.T) {
	src := source.New("")
	bag := NewBag()
	bag.MainNotFound()

	out := NewDisplay(src, false).Render(bag)
	assert.Contains(t, out, "error: `main` function not found")
}
