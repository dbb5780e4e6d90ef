package stack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStackPushPopTop(t *testing.T) {
	s := New()
	assert.True(t, s.Empty())

	s.Push("a")
	s.Push("b")
	assert.False(t, s.Empty())

	top, err := s.Top()
	require.NoError(t, err)
	assert.Equal(t, "b", top)

	v, err := s.Pop()
	require.NoError(t, err)
	assert.Equal(t, "b", v)

	v, err = s.Pop()
	require.NoError(t, err)
	assert.Equal(t, "a", v)

	assert.True(t, s.Empty())
}

func TestStackPopEmpty(t *testing.T) {
	s := New()
	_, err := s.Pop()
	assert.Error(t, err)
}

func TestStackTopEmpty(t *testing.T) {
	s := New()
	_, err := s.Top()
	assert.Error(t, err)
}
