package treepath

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJoin(t *testing.T) {
	assert.Equal(t, "a", Join("", "a"))
	assert.Equal(t, "a.b", Join("a", "b"))
	assert.Equal(t, "a.b.c", Join("a.b", "c"))
}

func TestLevel(t *testing.T) {
	assert.Equal(t, 0, Level(""))
	assert.Equal(t, 1, Level("a"))
	assert.Equal(t, 3, Level("a.b.c"))
}

func TestSegments(t *testing.T) {
	assert.Nil(t, Segments(""))
	assert.Equal(t, []string{"a"}, Segments("a"))
	assert.Equal(t, []string{"a", "b", "c"}, Segments("a.b.c"))
}

func TestContainsSegment(t *testing.T) {
	assert.True(t, ContainsSegment("a.b.c", "b"))
	assert.True(t, ContainsSegment("a.b.c", "a"))
	assert.True(t, ContainsSegment("a.b.c", "c"))
	assert.False(t, ContainsSegment("a.b.c", "d"))
	// "ab" is a segment, "a" is not, even though it is a substring prefix
	assert.False(t, ContainsSegment("ab.cd", "a"))
	assert.False(t, ContainsSegment("ab.cd", "d"))
}

func TestIsStrictDescendant(t *testing.T) {
	assert.True(t, IsStrictDescendant("a.b", "a"))
	assert.True(t, IsStrictDescendant("a.b.c", "a.b"))
	assert.False(t, IsStrictDescendant("a", "a"))
	assert.False(t, IsStrictDescendant("ab.c", "a"))
	assert.False(t, IsStrictDescendant("a", "a.b"))
	assert.False(t, IsStrictDescendant("a", ""))
}

func TestReplacePrefix(t *testing.T) {
	// the moved node itself
	got, ok := ReplacePrefix("a.b", "a.b", "x.b")
	assert.True(t, ok)
	assert.Equal(t, "x.b", got)

	// a strict descendant keeps its relative suffix
	got, ok = ReplacePrefix("a.b.c.d", "a.b", "x.y.b")
	assert.True(t, ok)
	assert.Equal(t, "x.y.b.c.d", got)

	// unrelated path is untouched
	got, ok = ReplacePrefix("a.c", "a.b", "x.b")
	assert.False(t, ok)
	assert.Equal(t, "a.c", got)

	// substring-but-not-segment prefix must not match
	_, ok = ReplacePrefix("ab.c", "a", "x")
	assert.False(t, ok)
}

func TestLastSegment(t *testing.T) {
	assert.Equal(t, "a", LastSegment("a"))
	assert.Equal(t, "c", LastSegment("a.b.c"))
}
