package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLineLookup(t *testing.T) {
	src := New("first\nsecond\nthird")

	assert.Equal(t, 0, src.LineIndex(0))
	assert.Equal(t, 0, src.LineIndex(4))
	assert.Equal(t, 1, src.LineIndex(6))
	assert.Equal(t, 2, src.LineIndex(13))

	assert.Equal(t, "first", src.Line(0))
	assert.Equal(t, "second", src.Line(1))
	assert.Equal(t, "third", src.Line(2))

	assert.Equal(t, 6, src.LineStart(1))
}

func TestPosition(t *testing.T) {
	src := New("ab\ncd")

	line, col := src.Position(0)
	assert.Equal(t, 1, line)
	assert.Equal(t, 1, col)

	line, col = src.Position(4)
	assert.Equal(t, 2, line)
	assert.Equal(t, 2, col)
}

func TestCombine(t *testing.T) {
	s := Combine(NewSpan(4, 8), NewSpan(2, 6), NewSpan(5, 12))
	assert.Equal(t, NewSpan(2, 12), s)
}

func TestLengthNeverZero(t *testing.T) {
	assert.Equal(t, 1, NewSpan(3, 3).Length())
	assert.Equal(t, 4, NewSpan(3, 7).Length())
}
