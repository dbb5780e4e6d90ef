package orderedset

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddAndIndexOf(t *testing.T) {
	s := New[string]()

	idx, inserted := s.Add("a")
	assert.Equal(t, 0, idx)
	assert.True(t, inserted)

	idx, inserted = s.Add("b")
	assert.Equal(t, 1, idx)
	assert.True(t, inserted)

	idx, inserted = s.Add("a")
	assert.Equal(t, 0, idx)
	assert.False(t, inserted)

	assert.Equal(t, 2, s.Len())
	assert.Equal(t, []string{"a", "b"}, s.Items())

	i, ok := s.IndexOf("b")
	assert.True(t, ok)
	assert.Equal(t, 1, i)

	_, ok = s.IndexOf("c")
	assert.False(t, ok)

	assert.True(t, s.Contains("a"))
	assert.False(t, s.Contains("c"))
}

func TestWithout(t *testing.T) {
	a := New[string]()
	a.Add("x")
	a.Add("y")
	a.Add("z")

	b := New[string]()
	b.Add("y")

	assert.Equal(t, []string{"x", "z"}, a.Without(b))
	assert.Equal(t, []string{"x", "y", "z"}, a.Without(nil))
}
